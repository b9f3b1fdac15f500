package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qos-probe",
	Short: "MQTT QoS measurement harness",
	Long:  "qos-probe subscribes to a measurement topic, injects connection faults, and reports per-message latency and loss statistics.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(reportCmd)
}
