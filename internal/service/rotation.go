package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Luciism/statalytics/internal/access"
	"github.com/Luciism/statalytics/internal/constants"
	"github.com/Luciism/statalytics/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RotationService is the on-demand read path: current-period progress and
// gated access to the historical archive. It never waits for the sweep;
// deltas are derived straight from the stored baseline. Provider calls wait
// on the same global limiter the sweep uses, so user traffic and sweep
// traffic share one provider budget.
type RotationService struct {
	store      RotationStore
	accounts   AccountStore
	resetTimes *ResetTimeService
	tiers      access.TierProvider
	provider   StatsProvider
	limiter    *rate.Limiter
	logger     zerolog.Logger

	now func() time.Time
}

func NewRotationService(
	store RotationStore,
	accounts AccountStore,
	resetTimes *ResetTimeService,
	tiers access.TierProvider,
	provider StatsProvider,
	limiter *rate.Limiter,
	logger zerolog.Logger,
) *RotationService {
	return &RotationService{
		store:      store,
		accounts:   accounts,
		resetTimes: resetTimes,
		tiers:      tiers,
		provider:   provider,
		limiter:    limiter,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *RotationService) fetchLive(ctx context.Context, playerUUID string) (*domain.StatFields, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	live, err := s.provider.FetchPlayerStats(ctx, playerUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live stats: %w", err)
	}
	return live, nil
}

// InitializeTracking fetches the player's live stats and creates baselines
// for every period type that does not have one. Safe to call redundantly.
func (s *RotationService) InitializeTracking(ctx context.Context, playerUUID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	live, err := s.fetchLive(ctx, playerUUID)
	if err != nil {
		return err
	}

	if err := s.store.Initialize(ctx, playerUUID, domain.PeriodTypes(), live); err != nil {
		return err
	}

	s.logger.Info().Str("player_uuid", playerUUID).Msg("tracking initialized")
	return nil
}

// CurrentDelta returns the progress made during the current, not yet elapsed
// period. An untracked player is initialized on the spot and reported as
// zero progress.
func (s *RotationService) CurrentDelta(ctx context.Context, playerUUID string, periodType domain.PeriodType) (*domain.DeltaStats, error) {
	if !periodType.Valid() {
		return nil, fmt.Errorf("invalid period type %q", periodType)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	live, err := s.fetchLive(ctx, playerUUID)
	if err != nil {
		return nil, err
	}

	baseline, err := s.store.GetBaseline(ctx, playerUUID, periodType)
	if errors.Is(err, domain.ErrNotFound) {
		if err := s.store.Initialize(ctx, playerUUID, domain.PeriodTypes(), live); err != nil {
			return nil, err
		}
		delta := domain.Derive(live, live)
		return &delta, nil
	}
	if err != nil {
		return nil, err
	}

	delta := domain.Derive(live, &baseline.Stats)
	if delta.Anomalous {
		s.logger.Warn().
			Str("player_uuid", playerUUID).
			Str("period_type", string(periodType)).
			Msg("anomalous delta: live stats below baseline")
	}
	return &delta, nil
}

// Historical returns the archived record for a period label, after checking
// the viewer's lookback window. The window is the more generous of the
// viewer's tier and the tier of the account linked to the viewed player.
func (s *RotationService) Historical(ctx context.Context, viewerID, playerUUID, periodLabel string) (*domain.HistoricalRecord, error) {
	_, periodEnd, err := domain.ParseLabel(periodLabel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	viewerTier, err := s.tiers.GetTier(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	maxLookback := viewerTier.MaxLookbackDays

	linkedID, err := s.accounts.LinkedAccountByPlayer(ctx, playerUUID)
	if err == nil {
		linkedTier, err := s.tiers.GetTier(ctx, linkedID)
		if err != nil {
			return nil, err
		}
		maxLookback = access.MaxLookbackDays(viewerTier, linkedTier)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	daysAgo := int(s.now().Sub(periodEnd).Hours() / 24)
	if daysAgo < 0 {
		daysAgo = 0
	}
	if !access.IsWithinLookback(maxLookback, daysAgo) {
		return nil, domain.ErrLookbackExceeded
	}

	return s.store.GetHistorical(ctx, playerUUID, periodLabel)
}

// ManualReset archives the player's current period immediately and rebases
// the baseline to fresh live stats, starting a new period on the spot.
func (s *RotationService) ManualReset(ctx context.Context, playerUUID string, periodType domain.PeriodType) (*domain.HistoricalRecord, error) {
	if !periodType.Valid() {
		return nil, fmt.Errorf("invalid period type %q", periodType)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	resetCfg, err := s.resetTimes.Resolve(ctx, playerUUID)
	if err != nil {
		return nil, err
	}

	live, err := s.fetchLive(ctx, playerUUID)
	if err != nil {
		return nil, err
	}

	baseline, err := s.store.GetBaseline(ctx, playerUUID, periodType)
	if err != nil {
		return nil, err
	}

	local := resetCfg.LocalTime(s.now())
	delta := domain.Derive(live, &baseline.Stats)
	rec, err := newHistoricalRecord(playerUUID, periodType, periodType.Label(local), delta, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Archive(ctx, rec); err != nil && !errors.Is(err, domain.ErrAlreadyArchived) {
		return nil, err
	}
	if err := s.store.Rebase(ctx, playerUUID, periodType, live); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("player_uuid", playerUUID).
		Str("period_label", rec.PeriodLabel).
		Msg("manual reset completed")
	return rec, nil
}

func newHistoricalRecord(playerUUID string, periodType domain.PeriodType, label string, delta domain.DeltaStats, archivedAt time.Time) (*domain.HistoricalRecord, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}
	return &domain.HistoricalRecord{
		ID:          id,
		PlayerUUID:  playerUUID,
		PeriodLabel: label,
		PeriodType:  periodType,
		Stats:       delta.Stats,
		LevelGained: delta.LevelGained,
		Anomalous:   delta.Anomalous,
		ArchivedAt:  archivedAt,
	}, nil
}
