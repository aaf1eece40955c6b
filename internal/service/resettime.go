package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Luciism/statalytics/internal/domain"

	"github.com/rs/zerolog"
)

// ResetTimeService resolves the effective reset time of a player: the linked
// account's configured override when one exists, otherwise a per-player
// default assigned once and then stable forever.
type ResetTimeService struct {
	resetTimes ResetTimeStore
	accounts   AccountStore
	logger     zerolog.Logger

	// randHour picks the hour for a fresh player default; swapped out in
	// tests.
	randHour func() int
}

func NewResetTimeService(resetTimes ResetTimeStore, accounts AccountStore, logger zerolog.Logger) *ResetTimeService {
	return &ResetTimeService{
		resetTimes: resetTimes,
		accounts:   accounts,
		logger:     logger,
		randHour:   func() int { return rand.IntN(24) },
	}
}

// Resolve returns the player's effective reset configuration. Account
// override wins over the player default; a missing default is created here,
// so repeated calls return the same value. When an account override is in
// effect it is also copied into the player default (without overwriting an
// existing one), so the preference survives a later unlink.
func (s *ResetTimeService) Resolve(ctx context.Context, playerUUID string) (domain.ResetTimeConfig, error) {
	discordID, err := s.accounts.LinkedAccountByPlayer(ctx, playerUUID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.ResetTimeConfig{}, err
	}

	if discordID != "" {
		cfg, err := s.resetTimes.AccountConfig(ctx, discordID)
		if err == nil {
			if _, err := s.resetTimes.CreatePlayerConfigIfAbsent(ctx, playerUUID, *cfg); err != nil {
				s.logger.Warn().Err(err).Str("player_uuid", playerUUID).Msg("failed to copy account reset time to player default")
			}
			return *cfg, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.ResetTimeConfig{}, err
		}
	}

	cfg, err := s.resetTimes.PlayerConfig(ctx, playerUUID)
	if err == nil {
		return *cfg, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.ResetTimeConfig{}, err
	}

	// First sighting of this player: assign UTC+0 with a random hour so the
	// fleet's resets spread across the day.
	def := domain.ResetTimeConfig{UTCOffset: 0, ResetHour: s.randHour()}
	created, err := s.resetTimes.CreatePlayerConfigIfAbsent(ctx, playerUUID, def)
	if err != nil {
		return domain.ResetTimeConfig{}, err
	}
	if !created {
		// Lost the race to a concurrent assignment; the stored value wins.
		stored, err := s.resetTimes.PlayerConfig(ctx, playerUUID)
		if err != nil {
			return domain.ResetTimeConfig{}, err
		}
		return *stored, nil
	}

	s.logger.Info().
		Str("player_uuid", playerUUID).
		Int("reset_hour", def.ResetHour).
		Msg("assigned player reset time default")
	return def, nil
}

// SetAccountOverride stores the account's reset preference and propagates it
// to the linked player's default, but only if that player has none stored
// yet: the first writer wins on shared player records.
func (s *ResetTimeService) SetAccountOverride(ctx context.Context, discordID string, cfg domain.ResetTimeConfig) error {
	if !cfg.Valid() {
		return fmt.Errorf("reset time out of range: offset %d, hour %d", cfg.UTCOffset, cfg.ResetHour)
	}

	if err := s.resetTimes.SetAccountConfig(ctx, discordID, cfg); err != nil {
		return err
	}

	playerUUID, err := s.accounts.PlayerByAccount(ctx, discordID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.resetTimes.CreatePlayerConfigIfAbsent(ctx, playerUUID, cfg); err != nil {
		return err
	}
	return nil
}
