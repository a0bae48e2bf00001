package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yurifrl/ebcrawler/pkg/eurobonus"
	"github.com/yurifrl/ebcrawler/pkg/export"
	"github.com/yurifrl/ebcrawler/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local page with a download button",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		if cfg.EBNumber == "" || cfg.Password == "" {
			return fmt.Errorf("ebnumber and password must be configured to serve")
		}
		logger := newLogger(cfg)

		provider := func(ctx context.Context) (export.Provider, error) {
			return login(ctx, logger, cfg)
		}
		srv := server.New(logger, provider, cfg.EBNumber)

		addr := fmt.Sprintf("127.0.0.1:%s", cfg.Port)
		logger.Info("starting server", "addr", addr)
		return srv.Start(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("port", "3000", "Server port")
	serveCmd.Flags().String("ebnumber", "", "EuroBonus number")
	serveCmd.Flags().String("password", "", "Password")
	serveCmd.Flags().Bool("all", false, "Crawl all transactions")
	serveCmd.Flags().Int("pages", 0, "Number of pages to crawl")
	serveCmd.Flags().String("api-url", eurobonus.DefaultBaseURL, "EuroBonus API base URL")
}
