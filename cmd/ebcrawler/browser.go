package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/yurifrl/ebcrawler/pkg/browser"
	"github.com/yurifrl/ebcrawler/pkg/config"
	"github.com/yurifrl/ebcrawler/pkg/export"
	"github.com/yurifrl/ebcrawler/pkg/mount"
)

var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Open the profile page and add a download button to it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, cancel := browser.NewContext(cmd.Context(), browser.Options{
			Headless:    cfg.Headless,
			UserDataDir: cfg.UserDataDir,
		})
		defer cancel()

		page := browser.New(ctx, logger)
		if err := page.Open(ctx, cfg.ProfileURL); err != nil {
			return err
		}
		logger.Info("log in on the opened page if needed, the button appears on the profile", "marker", browser.MarkerSelector)

		trigger, err := mount.New(page, cfg.PollInterval, logger).Wait(ctx)
		if err != nil {
			return ignoreCanceled(err)
		}

		exp := export.New(logger, page, page, page)
		err = mount.Serve(ctx, trigger, logger, func(ctx context.Context) error {
			_, err := exp.Export(ctx)
			return err
		})
		return ignoreCanceled(err)
	},
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	browserCmd.Flags().String("profile-url", config.DefaultProfileURL, "Profile page URL")
	browserCmd.Flags().Duration("poll-interval", mount.DefaultInterval, "How often to look for the profile marker")
	browserCmd.Flags().Bool("headless", false, "Run Chrome without a window")
	browserCmd.Flags().String("user-data-dir", "", "Chrome profile directory, keeps the login between runs")
}
