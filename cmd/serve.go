package cmd

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
	"golang.org/x/sync/errgroup"

	"github.com/yeremiapane/restaurant-seating/broadcast"
	"github.com/yeremiapane/restaurant-seating/config"
	"github.com/yeremiapane/restaurant-seating/database"
	"github.com/yeremiapane/restaurant-seating/middlewares"
	"github.com/yeremiapane/restaurant-seating/router"
	"github.com/yeremiapane/restaurant-seating/services"
	"github.com/yeremiapane/restaurant-seating/utils"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the seating HTTP API and floor websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := utils.InitLogger(cfg.LogLevel); err != nil {
				return fmt.Errorf("LOG_LEVEL: %w", err)
			}
			log := utils.InfoLogger

			if cfg.GinMode == gin.ReleaseMode {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			db, err := config.InitDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if migrateUp {
				if err := database.Migrate(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				log.Println("AutoMigrate completed.")
			}

			hub := broadcast.NewHub(log)
			publishers := services.MultiPublisher{hub}
			if cfg.NATSURL != "" {
				nc, err := broadcast.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, log)
				if err != nil {
					return err
				}
				defer nc.Close()
				publishers = append(publishers, nc)
				log.WithField("subject", cfg.NATSSubject).Info("publishing seating events to NATS")
			}

			svc := services.NewSeatingService(database.NewGormStore(db), publishers, cfg.Timezone, log)

			r := router.SetupRouter(router.Deps{
				Service:     svc,
				Hub:         hub,
				Log:         log,
				CORSOrigin:  cfg.CORSOrigin,
				RateLimiter: middlewares.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
			})

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Printf("Listening on port %s", cfg.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
				defer stop()
				log.Println("Shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run AutoMigrate on startup")
	return cmd
}
