package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/table-booking/internal/audit"
	"github.com/BruksfildServices01/table-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/table-booking/internal/db"
	"github.com/BruksfildServices01/table-booking/internal/logger"
	"github.com/BruksfildServices01/table-booking/internal/metrics"
	"github.com/BruksfildServices01/table-booking/internal/queue"
	"github.com/BruksfildServices01/table-booking/internal/routes"
	"github.com/BruksfildServices01/table-booking/internal/storage"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			db, err := dbpkg.NewDB(cfg, log)
			if err != nil {
				return err
			}
			if migrateUp {
				if err := dbpkg.Migrate(db); err != nil {
					return err
				}
			}

			rdb := config.NewRedisClient(ctx, cfg.Redis)
			if rdb == nil {
				log.Warn().Msg("redis unavailable, rate limiting is per process")
			} else {
				defer rdb.Close()
			}

			var publisher queue.Publisher = queue.NoopPublisher{}
			if cfg.AMQP.URL != "" {
				p := queue.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
				defer p.Close()
				publisher = p
			} else {
				log.Warn().Msg("AMQP_URL not set, notifications are dropped")
			}

			var images storage.ImageStore
			if s3 := storage.NewS3Store(cfg.S3); s3 != nil {
				images = s3
			} else {
				log.Warn().Msg("S3_BUCKET not set, image uploads are disabled")
			}

			dispatcher := audit.NewDispatcher(audit.New(db), log)
			defer dispatcher.Close()

			metrics.Register()

			gin.SetMode(gin.ReleaseMode)
			r := gin.New()
			r.Use(gin.Recovery())

			routes.RegisterRoutes(r, routes.Deps{
				DB:        db,
				Config:    cfg,
				Log:       log,
				Redis:     rdb,
				Publisher: publisher,
				Images:    images,
				Audit:     dispatcher,
			})

			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           r,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr()).Str("version", Version).Msg("server running")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}
