package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Luciism/statalytics/internal/access"
	"github.com/Luciism/statalytics/internal/constants"
	"github.com/Luciism/statalytics/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrSweepActive is returned when a sweep for the same period type has not
// finished yet. Ticks never overlap per period type.
var ErrSweepActive = errors.New("sweep already running for period type")

type SweepConfig struct {
	Workers  int
	PageSize int

	// Anchor is the weekday weekly rotations reset on.
	Anchor time.Weekday

	Policy access.ResetPolicy

	FetchRetries uint64
	FetchBackoff time.Duration
}

// SweepSummary reports what one sweep tick did.
type SweepSummary struct {
	Processed       int
	Archived        int
	AlreadyArchived int
	Initialized     int
	Skipped         int
	Failed          int
}

type sweepStatus int

const (
	statusSkipped sweepStatus = iota
	statusArchived
	statusAlreadyArchived
	statusInitialized
	statusFailed
)

// SweepService is the scheduled reconciliation loop: for every tracked
// player of a period type it detects crossed reset boundaries, archives the
// elapsed period's delta and rebases the baseline. Per-player failures are
// isolated; the provider is throttled globally across the worker pool.
type SweepService struct {
	store      RotationStore
	resetTimes *ResetTimeService
	accounts   AccountStore
	provider   StatsProvider
	limiter    *rate.Limiter
	logger     zerolog.Logger
	cfg        SweepConfig

	mu     sync.Mutex
	active map[domain.PeriodType]bool
}

func NewSweepService(
	store RotationStore,
	resetTimes *ResetTimeService,
	accounts AccountStore,
	provider StatsProvider,
	limiter *rate.Limiter,
	cfg SweepConfig,
	logger zerolog.Logger,
) *SweepService {
	if cfg.Workers <= 0 {
		cfg.Workers = constants.DefaultSweepWorkers
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = constants.SweepPageSize
	}
	if cfg.FetchRetries == 0 {
		cfg.FetchRetries = constants.FetchRetries
	}
	if cfg.FetchBackoff <= 0 {
		cfg.FetchBackoff = constants.FetchBackoff
	}
	return &SweepService{
		store:      store,
		resetTimes: resetTimes,
		accounts:   accounts,
		provider:   provider,
		limiter:    limiter,
		logger:     logger,
		cfg:        cfg,
		active:     make(map[domain.PeriodType]bool),
	}
}

// RunSweep processes every tracked player of the period type once against
// nowUTC. Players are paged rather than loaded wholesale; within a page a
// bounded worker pool runs, but archive and rebase for one player always
// happen on the same goroutine, in order. Cancellation is honored between
// players, never mid-player.
func (s *SweepService) RunSweep(ctx context.Context, periodType domain.PeriodType, nowUTC time.Time) (SweepSummary, error) {
	if !periodType.Valid() {
		return SweepSummary{}, fmt.Errorf("invalid period type %q", periodType)
	}

	s.mu.Lock()
	if s.active[periodType] {
		s.mu.Unlock()
		return SweepSummary{}, ErrSweepActive
	}
	s.active[periodType] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.active, periodType)
		s.mu.Unlock()
	}()

	start := time.Now()
	var (
		summary   SweepSummary
		summaryMu sync.Mutex
		afterUUID string
	)

pages:
	for {
		if ctx.Err() != nil {
			break
		}

		players, err := s.store.ListTrackedPlayers(ctx, periodType, afterUUID, s.cfg.PageSize)
		if err != nil {
			return summary, fmt.Errorf("failed to page tracked players: %w", err)
		}
		if len(players) == 0 {
			break
		}

		g := new(errgroup.Group)
		g.SetLimit(s.cfg.Workers)
		for _, player := range players {
			if ctx.Err() != nil {
				g.Wait()
				break pages
			}
			g.Go(func() error {
				status := s.sweepPlayer(ctx, player, periodType, nowUTC)
				summaryMu.Lock()
				summary.Processed++
				switch status {
				case statusArchived:
					summary.Archived++
				case statusAlreadyArchived:
					summary.AlreadyArchived++
				case statusInitialized:
					summary.Initialized++
				case statusSkipped:
					summary.Skipped++
				case statusFailed:
					summary.Failed++
				}
				summaryMu.Unlock()
				return nil
			})
		}
		g.Wait()

		afterUUID = players[len(players)-1]
		if len(players) < s.cfg.PageSize {
			break
		}
	}

	s.logger.Info().
		Str("period_type", string(periodType)).
		Int("processed", summary.Processed).
		Int("archived", summary.Archived).
		Int("already_archived", summary.AlreadyArchived).
		Int("initialized", summary.Initialized).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("duration", time.Since(start)).
		Msg("sweep completed")

	return summary, ctx.Err()
}

// sweepPlayer handles one player for one tick. Archive then rebase: if the
// process dies between the two, the idempotent archive makes the next tick's
// retry converge without double counting.
func (s *SweepService) sweepPlayer(ctx context.Context, playerUUID string, periodType domain.PeriodType, nowUTC time.Time) sweepStatus {
	resetCfg, err := s.resetTimes.Resolve(ctx, playerUUID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("player_uuid", playerUUID).
			Str("period_type", string(periodType)).
			Msg("failed to resolve reset time")
		return statusFailed
	}

	local := resetCfg.LocalTime(nowUTC)
	if !periodType.BoundaryCrossed(local, resetCfg.ResetHour, s.cfg.Anchor) {
		return statusSkipped
	}
	boundaryUTC := local.Truncate(time.Hour).Add(-time.Duration(resetCfg.UTCOffset) * time.Hour)

	perms, err := s.linkedPermissions(ctx, playerUUID)
	if err != nil {
		s.logger.Error().Err(err).Str("player_uuid", playerUUID).Msg("failed to load linked account permissions")
		return statusFailed
	}
	if !access.AutoResetAllowed(playerUUID, perms, s.cfg.Policy) {
		return statusSkipped
	}

	baseline, err := s.store.GetBaseline(ctx, playerUUID, periodType)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error().Err(err).
			Str("player_uuid", playerUUID).
			Str("period_type", string(periodType)).
			Msg("failed to load baseline")
		return statusFailed
	}
	if baseline != nil && !baseline.UpdatedAt.Before(boundaryUTC) {
		// Already rebased for this boundary; the predicate holds for the
		// whole hour but each player is processed at most once per tick.
		return statusSkipped
	}

	live, fetchErr := s.fetchWithRetry(ctx, playerUUID)
	if fetchErr != nil {
		s.logger.Error().Err(fetchErr).
			Str("player_uuid", playerUUID).
			Str("period_type", string(periodType)).
			Time("boundary", boundaryUTC).
			Msg("stats fetch failed, player skipped for this tick")
		return statusFailed
	}

	if baseline == nil {
		if err := s.store.Initialize(ctx, playerUUID, []domain.PeriodType{periodType}, live); err != nil {
			s.logger.Error().Err(err).Str("player_uuid", playerUUID).Msg("failed to initialize baseline")
			return statusFailed
		}
		return statusInitialized
	}

	delta := domain.Derive(live, &baseline.Stats)
	if delta.Anomalous {
		s.logger.Warn().
			Str("player_uuid", playerUUID).
			Str("period_type", string(periodType)).
			Msg("anomalous delta clamped during archival")
	}

	rec, err := newHistoricalRecord(playerUUID, periodType, periodType.ElapsedLabel(local), delta, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Str("player_uuid", playerUUID).Msg("failed to build historical record")
		return statusFailed
	}

	already := false
	if err := s.store.Archive(ctx, rec); err != nil {
		if !errors.Is(err, domain.ErrAlreadyArchived) {
			s.logger.Error().Err(err).
				Str("player_uuid", playerUUID).
				Str("period_label", rec.PeriodLabel).
				Time("boundary", boundaryUTC).
				Msg("failed to archive period")
			return statusFailed
		}
		already = true
	}

	if err := s.store.Rebase(ctx, playerUUID, periodType, live); err != nil {
		s.logger.Error().Err(err).
			Str("player_uuid", playerUUID).
			Str("period_type", string(periodType)).
			Time("boundary", boundaryUTC).
			Msg("failed to rebase baseline after archival")
		return statusFailed
	}

	if already {
		return statusAlreadyArchived
	}
	return statusArchived
}

func (s *SweepService) linkedPermissions(ctx context.Context, playerUUID string) ([]string, error) {
	discordID, err := s.accounts.LinkedAccountByPlayer(ctx, playerUUID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.accounts.Permissions(ctx, discordID)
}

// fetchWithRetry calls the provider under the global rate limiter, retrying
// transient failures a bounded number of times. The limiter is waited on for
// every attempt so retries also respect provider spacing.
func (s *SweepService) fetchWithRetry(ctx context.Context, playerUUID string) (*domain.StatFields, error) {
	var live *domain.StatFields
	backoff := retry.WithMaxRetries(s.cfg.FetchRetries, retry.NewConstant(s.cfg.FetchBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		fetchCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()

		stats, err := s.provider.FetchPlayerStats(fetchCtx, playerUUID)
		if err != nil {
			return retry.RetryableError(err)
		}
		live = stats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return live, nil
}
