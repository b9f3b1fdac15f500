package main

import (
	"log/slog"
	"os"

	"qos-probe/internal/config"
	"qos-probe/internal/sample"
	"qos-probe/internal/sink"
	"qos-probe/internal/tui"
)

// newLiveSinks assembles the live sample sinks from flags and env vars.
// It returns the (possibly nil) sink and a cleanup function that restores
// the terminal when the TUI is active.
func newLiveSinks(cfg *config.Config, printOnly, useTUI bool, runID string, logger *slog.Logger) (sample.Writer, func(), error) {
	var ws []sample.Writer
	cleanup := func() {}

	if printOnly && !useTUI {
		ws = append(ws, &sink.StdoutWriter{})
	}
	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		gw, err := sink.NewGreptimeWriter(endpoint, "public", os.Getenv("GREPTIMEDB_TABLE"),
			runID, cfg.Subscriber.NetCond, logger)
		if err != nil {
			return nil, nil, err
		}
		ws = append(ws, gw)
	}
	if useTUI {
		tw := tui.NewWriter(cfg)
		ws = append(ws, tw)
		cleanup = tw.Close
	}

	switch len(ws) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return ws[0], cleanup, nil
	default:
		return sink.NewMultiWriter(ws...), cleanup, nil
	}
}
