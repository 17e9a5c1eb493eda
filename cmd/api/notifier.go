package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/table-booking/internal/config"
	"github.com/BruksfildServices01/table-booking/internal/logger"
	"github.com/BruksfildServices01/table-booking/internal/queue"
)

func newNotifierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifier",
		Short: "Consume booking and account notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			if cfg.AMQP.URL == "" {
				return errors.New("AMQP_URL is required")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			consumer := queue.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, log)
			err := consumer.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
