package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yurifrl/ebcrawler/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "ebcrawler",
	Short:        "EuroBonus transaction history exporter",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func newLogger(cfg *config.Config) *log.Logger {
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Prefix:          "ebcrawler",
		Level:           level,
	})
}

// loadConfig reads the configuration for cmd, with ebnumber taken from the
// first positional argument when present.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if len(args) > 0 && !cmd.Flags().Changed("ebnumber") {
		if err := cmd.Flags().Set("ebnumber", args[0]); err != nil {
			return nil, err
		}
	}
	return config.Build(cfgFile, cmd.Flags())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debugging")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(browserCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
