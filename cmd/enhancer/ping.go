package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"prompt-enhancer/internal/app"
	"prompt-enhancer/internal/backend"
	"prompt-enhancer/internal/httpclient"
)

func newPingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured text and vision backends answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*opts)
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg.LogLevel)
			bopts := backend.Options{
				HTTPClient: httpclient.New(httpclient.Options{PreferIPv4: cfg.PreferIPv4, Timeout: cfg.HTTPTimeout}),
				Logger:     logger,
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			text := backend.New(cfg.Text, bopts)
			msg, err := text.Ping(ctx)
			if err != nil {
				return fmt.Errorf("text backend %s: %w", cfg.Text.Kind, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "text:", msg)

			if !cfg.VisionEnabled {
				fmt.Fprintln(cmd.OutOrStdout(), "vision: disabled")
				return nil
			}
			vision := backend.New(cfg.Vision, bopts)
			msg, err = vision.Ping(ctx)
			if err != nil {
				return fmt.Errorf("vision backend %s: %w", cfg.Vision.Kind, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "vision:", msg)
			return nil
		},
	}
}
