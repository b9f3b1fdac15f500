package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"qos-probe/internal/sink"
	"qos-probe/internal/stats"
)

var (
	reportInput    string
	reportExpected int
	reportAppendTo string
)

// dataFileRe matches the per-run sample file naming scheme so QoS and
// network-condition annotations can be recovered from the filename.
var dataFileRe = regexp.MustCompile(`_qos-(\d)_netcond-(.+)\.json$`)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Recompute statistics from a recorded sample file",
	Long:  "report reads a per-run sample file and prints the statistics block, optionally appending it to a cumulative stats file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, err := sink.ReadFile(reportInput)
		if err != nil {
			return err
		}

		var qos byte
		netCond := "unknown"
		if m := dataFileRe.FindStringSubmatch(filepath.Base(reportInput)); m != nil {
			if q, err := strconv.Atoi(m[1]); err == nil {
				qos = byte(q)
			}
			netCond = m[2]
		}

		summary := stats.Compute(samples, reportExpected)
		block := summary.Render(stats.RunMeta{
			StartTime: time.Now(),
			NetCond:   netCond,
			QoS:       qos,
			DataFile:  reportInput,
		})
		fmt.Print(block)

		if reportAppendTo != "" {
			return stats.AppendReport(reportAppendTo, block)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportInput, "input", "", "Path to a recorded sample file")
	reportCmd.Flags().IntVar(&reportExpected, "expected", 50, "Number of packets the publisher was configured to send")
	reportCmd.Flags().StringVar(&reportAppendTo, "append", "", "Also append the block to this stats file")
	reportCmd.MarkFlagRequired("input")
}
