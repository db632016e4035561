package main

import (
	"context"
	"net/http"
	"time"

	"github.com/fortuna/matchday/internal/api/rest"
	"github.com/fortuna/matchday/internal/api/websocket"
	"github.com/fortuna/matchday/internal/config"
	fxmodules "github.com/fortuna/matchday/internal/fx"
	"github.com/fortuna/matchday/internal/metrics"
	"github.com/fortuna/matchday/internal/pipeline"
	"github.com/fortuna/matchday/internal/scheduler"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	fx.New(
		fxmodules.Module,
		fxmodules.ServerModule,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	orch *pipeline.Orchestrator,
	backends *fxmodules.Backends,
	rec *metrics.Recorder,
	stream *websocket.Server,
	logger zerolog.Logger,
) {
	var history rest.History
	if backends.History != nil {
		history = backends.History
	}

	handler := rest.NewHandler(orch, history, serviceVersion)
	if backends.DB != nil {
		handler.AddCheck("postgres", backends.DB)
	}
	if backends.Cache != nil {
		handler.AddCheck("redis", backends.Cache)
	}

	srv := rest.NewServer(cfg.ServerPort, handler, rec, stream, logger)
	hubCtx, stopHub := context.WithCancel(context.Background())

	// Without a shared cache a warm listing would never be read.
	var refresher *scheduler.Refresher
	if backends.Cache != nil && cfg.UpcomingRefresh > 0 {
		refresher = scheduler.NewRefresher(orch, scheduler.Config{Interval: cfg.UpcomingRefresh}, logger)
		refresher.OnRefresh(stream.BroadcastUpcoming)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			stream.Start(hubCtx)
			if refresher != nil {
				refresher.Start(hubCtx)
			}
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if refresher != nil {
				refresher.Stop()
			}
			stopHub()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
