package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "crossborder",
		Short: "Cross-border shipment tracking engine",
		Long: `crossborder books domestic pickups with the courier, tracks each shipment
through its DOMESTIC, COUNTER and INTERNATIONAL legs and runs the background
jobs that keep those states current.

Configuration is read from the environment. Run "serve" for the HTTP API or
"jobs <name>" to execute a single job pass from cron.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(jobsCmd)
}
