package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Luciism/statalytics/internal/config"
	"github.com/Luciism/statalytics/internal/constants"
	"github.com/Luciism/statalytics/internal/domain"
	fxmodules "github.com/Luciism/statalytics/internal/fx"
	"github.com/Luciism/statalytics/internal/middleware"
	"github.com/Luciism/statalytics/internal/server"
	"github.com/Luciism/statalytics/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runTracker),
	).Run()
}

func runTracker(
	lc fx.Lifecycle,
	admin *server.AdminServer,
	sweeper *service.SweepService,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()
	admin.Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AdminPort),
		Handler: middleware.RequestID(logger)(c.Handler(mux)),
	}

	sweepCtx, cancelSweeps := context.WithCancel(context.Background())
	sweepsDone := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("admin server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("admin server failed")
				}
			}()
			go runSweepLoop(sweepCtx, sweeper, cfg.SweepInterval, logger, sweepsDone)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down")

			cancelSweeps()
			select {
			case <-sweepsDone:
			case <-time.After(constants.ShutdownTimeout):
				logger.Warn().Msg("sweep loop did not stop in time")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("admin server shutdown failed")
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("stopped gracefully")
			return nil
		},
	})
}

// runSweepLoop drives the sweeper on a fixed cadence. Period types run
// sequentially within a tick; a tick still running when the next fires is
// left alone (the sweeper rejects overlap per period type).
func runSweepLoop(ctx context.Context, sweeper *service.SweepService, interval time.Duration, logger zerolog.Logger, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			for _, periodType := range domain.PeriodTypes() {
				if ctx.Err() != nil {
					return
				}
				summary, err := sweeper.RunSweep(ctx, periodType, now)
				if err != nil && err != service.ErrSweepActive && ctx.Err() == nil {
					logger.Error().Err(err).Str("period_type", string(periodType)).Msg("sweep tick failed")
					continue
				}
				if summary.Archived > 0 || summary.Failed > 0 {
					logger.Info().
						Str("period_type", string(periodType)).
						Int("archived", summary.Archived).
						Int("failed", summary.Failed).
						Msg("sweep tick")
				}
			}
		}
	}
}
