package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"qos-probe/internal/admin"
	"qos-probe/internal/config"
	"qos-probe/internal/logging"
	"qos-probe/internal/metrics"
	"qos-probe/internal/probe"
	"qos-probe/internal/sample"
	"qos-probe/internal/sink"
	"qos-probe/internal/stats"
)

var (
	subConfigPath string
	subSchemaPath string
	subPrintOnly  bool
	subTUI        bool
	subAdminAddr  string
	subVerbose    bool
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Run a measurement session against the broker",
	Long:  "subscribe keeps a persistent subscription alive across injected disconnects, records per-message latency samples, and writes the run report on interrupt.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(subConfigPath, subSchemaPath)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if subVerbose {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, logger)

		runID := uuid.NewString()[:8]
		met := metrics.New(prometheus.DefaultRegisterer)

		live, cleanup, err := newLiveSinks(cfg, subPrintOnly, subTUI, runID, logger)
		if err != nil {
			return err
		}

		rec := sample.NewRecorder(live, logger)
		transport := probe.NewMQTTTransport(cfg, met, logger)
		handler := probe.NewHandler(cfg.Subscriber.Topic, rec, met, logger)

		var injector *probe.FaultInjector
		if cfg.Subscriber.DisconnectPerc > 0 {
			injector = probe.NewFaultInjector(transport, rec,
				cfg.Subscriber.DisconnectPerc, cfg.CheckInterval(), cfg.Quiescent(), met)
		}
		ctrl := probe.NewController(transport, handler, rec, injector, cfg.Quiescent(), met)

		if subAdminAddr != "" {
			srv := admin.NewServer(ctrl, rec)
			go func() {
				logger.Info("status server listening", "addr", subAdminAddr)
				if err := srv.Start(ctx, subAdminAddr); err != nil && err != http.ErrServerClosed {
					logger.Error("status server failed", "err", err)
				}
			}()
		}

		startTime := time.Now()
		logger.Info("starting session",
			"broker", cfg.Shared.BrokerURL, "topic", cfg.Subscriber.Topic,
			"qos", cfg.Subscriber.QoS, "net_cond", cfg.Subscriber.NetCond,
			"disconnect_perc", cfg.Subscriber.DisconnectPerc)

		errCh := make(chan error, 1)
		go func() {
			errCh <- ctrl.Run(ctx)
		}()

		var runErr error
		select {
		case <-ctx.Done():
			runErr = <-errCh // controller and injector joined here
		case runErr = <-errCh:
		}
		stop()
		cleanup()

		snapshot := rec.Snapshot()
		dataFile, err := writeDataFile(cfg, snapshot)
		if err != nil {
			return err
		}

		summary := stats.Compute(snapshot, cfg.Shared.TotalPackets)
		block := summary.Render(stats.RunMeta{
			StartTime: startTime,
			NetCond:   cfg.Subscriber.NetCond,
			QoS:       cfg.Subscriber.QoS,
			DataFile:  dataFile,
		})
		if err := stats.AppendReport(cfg.Output.StatsFile, block); err != nil {
			return err
		}

		logger.Info("subscriber closed", "data_file", dataFile, "stats_file", cfg.Output.StatsFile)
		return runErr
	},
}

// writeDataFile flushes the finalized snapshot to the per-run sample file.
func writeDataFile(cfg *config.Config, snapshot []sample.Sample) (string, error) {
	if err := os.MkdirAll(cfg.Output.DataDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_qos-%d_netcond-%s.json",
		time.Now().Format("2006-01-02_15-04-05"), cfg.Subscriber.QoS, cfg.Subscriber.NetCond)
	path := filepath.Join(cfg.Output.DataDir, name)

	fw, err := sink.NewFileWriter(path)
	if err != nil {
		return "", err
	}
	if err := fw.WriteAll(snapshot); err != nil {
		fw.Close()
		return "", err
	}
	if err := fw.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func init() {
	subscribeCmd.Flags().StringVar(&subConfigPath, "config", "config/probe.yaml", "Path to run configuration YAML")
	subscribeCmd.Flags().StringVar(&subSchemaPath, "schema", "schemas/probe.cue", "Path to CUE schema file")
	subscribeCmd.Flags().BoolVar(&subPrintOnly, "print", false, "Print samples to STDOUT as they arrive")
	subscribeCmd.Flags().BoolVar(&subTUI, "tui", false, "Show a live dashboard instead of log output")
	subscribeCmd.Flags().StringVar(&subAdminAddr, "admin", ":8080", "Status server listen address (empty disables)")
	subscribeCmd.Flags().BoolVarP(&subVerbose, "verbose", "v", false, "Log every received message")
}
