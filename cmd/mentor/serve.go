package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mentorbot/internal/gateway"
	"mentorbot/internal/telegram"
	"mentorbot/internal/webui"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, plus the Telegram bot when a token is set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}
		return withGateway(cmd.Context(), func(ctx context.Context, gw *gateway.Gateway) error {
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return webui.NewServer(gw, cfg.Listen).Start(ctx)
			})
			if cfg.TelegramToken != "" {
				bot, err := telegram.NewBot(gw)
				if err != nil {
					return err
				}
				g.Go(func() error { return bot.Start(ctx) })
			} else {
				logger.Info("telegram disabled, no token configured")
			}
			return g.Wait()
		})
	},
}

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run only the Telegram bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd.Context(), func(ctx context.Context, gw *gateway.Gateway) error {
			bot, err := telegram.NewBot(gw)
			if err != nil {
				return err
			}
			logger.Info("telegram bot starting", zap.String("model", cfg.Model))
			return bot.Start(ctx)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides config)")
}
