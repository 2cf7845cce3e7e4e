package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"care_tracker/internal/cache"
	"care_tracker/internal/config"
	"care_tracker/internal/controllers"
	"care_tracker/internal/hub"
	"care_tracker/internal/middleware"
	"care_tracker/internal/relay"
	"care_tracker/internal/routes"
	"care_tracker/internal/store"
	"care_tracker/internal/telemetry"
)

const latestCacheTTL = 24 * time.Hour

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the telemetry ingress, dashboard API and live location socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(load())
		},
	}
}

func serve(env *appEnv) error {
	cfg := env.cfg

	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	logrus.WithField("driver", cfg.DBDriver).Info("Database connection established")

	history := store.NewGormHistoryStore(db)
	zones := store.NewGormZoneStore(db)
	devices := store.NewGormDeviceStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locationHub := hub.New(cfg.SubscriberBuffer)
	latest := cache.NewLatestCache(cfg.RedisURL, latestCacheTTL)
	defer latest.Close()

	// With the postgres relay every instance hears every commit, so viewers can be
	// connected to a different instance than the posting device.
	var live telemetry.Notifier = locationHub
	if cfg.RelayMode == config.RelayPostgres {
		listener, err := relay.NewListener(cfg.PostgresDSN(), cfg.RelayChannel, locationHub)
		if err != nil {
			return err
		}
		defer listener.Close()
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("Relay listener stopped")
			}
		}()
		live = relay.NewPublisher(db, cfg.RelayChannel)
	}

	pipeline := telemetry.NewPipeline(history, zones, telemetry.Notifiers{live, latest}, cfg.PipelineOptions())

	router := routes.SetupRouter(routes.Deps{
		JWTSecret: []byte(cfg.JWTSecret),
		Devices:   devices,
		Telemetry: controllers.NewTelemetryController(pipeline),
		History:   controllers.NewHistoryController(history, zones, latest),
		Socket:    controllers.NewLocationSocketController(locationHub),
		AccessLog: env.logOut,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.EnableCORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.HTTPAddr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		locationHub.Close()
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	locationHub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
