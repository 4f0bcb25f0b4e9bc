package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/busyrockin/vaultdb/internal/metrics"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var metricsAddr string

var rootCmd = &cobra.Command{
	Use:     "vaultdb",
	Short:   "Local encrypted secrets store",
	Version: version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics at this address (e.g. 127.0.0.1:9090) while the command runs")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if metricsAddr == "" {
			return
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				fmt.Fprintln(os.Stderr, "metrics server:", err)
			}
		}()
	}
}

func Execute() error {
	return rootCmd.Execute()
}
