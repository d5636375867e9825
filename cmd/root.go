// Package cmd wires the netscope CLI: argument parsing, configuration
// loading and terminal rendering around the diagnostics engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ducminh1220/netscope/internal/config"
	"github.com/ducminh1220/netscope/internal/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "netscope",
	Short: "Network diagnostics and analysis toolkit",
	Long: `netscope runs concurrent network probes (DNS, ping, traceroute,
port scan, throughput, WHOIS, TLS certificate and more) against a host
or domain and assembles the outcomes into a single report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		opts := logging.Options{
			Level:   cfg.Logging.Level,
			File:    cfg.Logging.File,
			Console: cfg.Logging.Console || verbose,
		}
		if verbose && opts.Level != "debug" {
			opts.Level = "debug"
		}
		logger, err = logging.New(opts)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./netscope.yaml or ~/.netscope/netscope.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log probe activity to stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(sysinfoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
