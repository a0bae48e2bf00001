package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yurifrl/ebcrawler/pkg/config"
	"github.com/yurifrl/ebcrawler/pkg/csv"
	"github.com/yurifrl/ebcrawler/pkg/eurobonus"
	"github.com/yurifrl/ebcrawler/pkg/export"
	"github.com/yurifrl/ebcrawler/pkg/models"
	"github.com/yurifrl/ebcrawler/pkg/report"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [flags] <ebnumber>",
	Short: "Crawl EuroBonus transactions through the API",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		if cfg.EBNumber == "" {
			return fmt.Errorf("EuroBonus number required")
		}
		logger := newLogger(cfg)

		client, err := login(cmd.Context(), logger, cfg)
		if err != nil {
			return err
		}

		exp := export.New(logger, client, nil, nil)
		if cfg.Debug {
			exp.OnRecord = func(t models.Transaction) {
				pp.Fprintln(os.Stderr, t)
			}
		}

		r, err := exp.Collect(cmd.Context())
		if err != nil {
			return err
		}
		return writeReport(cmd.Context(), logger, cfg, r)
	},
}

// writeReport writes the requested files, or prints the table when none was
// requested, followed by the balances summary.
func writeReport(ctx context.Context, logger *log.Logger, cfg *config.Config, r *export.Report) error {
	if cfg.CSV != "" {
		d := &export.FileDownloader{Path: cfg.CSV}
		if err := d.Download(ctx, csv.Filename, csv.MediaType, csv.Create(r.Rows)); err != nil {
			return err
		}
		logger.Info("wrote csv", "path", cfg.CSV)
	}
	if cfg.XLSX != "" {
		if err := report.WriteXLSX(cfg.XLSX, r); err != nil {
			return err
		}
		logger.Info("wrote workbook", "path", cfg.XLSX)
	}
	if cfg.CSV == "" && cfg.XLSX == "" {
		if err := report.WriteTable(os.Stdout, r); err != nil {
			return err
		}
	}
	return report.WriteSummary(os.Stdout, r)
}

func login(ctx context.Context, logger *log.Logger, cfg *config.Config) (*eurobonus.Client, error) {
	password := cfg.Password
	if password == "" {
		var err error
		password, err = promptPassword(cfg.EBNumber)
		if err != nil {
			return nil, err
		}
	}

	client := eurobonus.New(logger, cfg.ClientOptions())
	if err := client.Login(ctx, cfg.EBNumber, password); err != nil {
		return nil, err
	}
	return client, nil
}

func promptPassword(ebNumber string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for EB%s: ", ebNumber)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func init() {
	fetchCmd.Flags().String("ebnumber", "", "EuroBonus number")
	fetchCmd.Flags().String("password", "", "Password (prompted when empty)")
	fetchCmd.Flags().Bool("all", false, "Crawl all transactions")
	fetchCmd.Flags().Int("pages", 0, "Number of pages to crawl")
	fetchCmd.Flags().String("csv", "", "Write to file in CSV format")
	fetchCmd.Flags().String("xlsx", "", "Write to file in Excel format")
	fetchCmd.Flags().String("api-url", eurobonus.DefaultBaseURL, "EuroBonus API base URL")
	fetchCmd.Flags().Float64("requests-per-second", 2, "Page requests per second (0 for unlimited)")
}
