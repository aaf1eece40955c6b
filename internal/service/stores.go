package service

import (
	"context"

	"github.com/Luciism/statalytics/internal/domain"
)

// RotationStore is the persistence surface the tracking services need.
// *repository.RotationRepository satisfies it.
type RotationStore interface {
	Initialize(ctx context.Context, playerUUID string, periodTypes []domain.PeriodType, live *domain.StatFields) error
	GetBaseline(ctx context.Context, playerUUID string, periodType domain.PeriodType) (*domain.RotationBaseline, error)
	Rebase(ctx context.Context, playerUUID string, periodType domain.PeriodType, live *domain.StatFields) error
	Archive(ctx context.Context, rec *domain.HistoricalRecord) error
	GetHistorical(ctx context.Context, playerUUID, periodLabel string) (*domain.HistoricalRecord, error)
	ListTrackedPlayers(ctx context.Context, periodType domain.PeriodType, afterUUID string, limit int) ([]string, error)
}

// ResetTimeStore holds reset-time overrides and defaults.
// *repository.ResetTimeRepository satisfies it.
type ResetTimeStore interface {
	AccountConfig(ctx context.Context, discordID string) (*domain.ResetTimeConfig, error)
	SetAccountConfig(ctx context.Context, discordID string, cfg domain.ResetTimeConfig) error
	PlayerConfig(ctx context.Context, playerUUID string) (*domain.ResetTimeConfig, error)
	CreatePlayerConfigIfAbsent(ctx context.Context, playerUUID string, cfg domain.ResetTimeConfig) (bool, error)
}

// AccountStore resolves account links and permissions.
// *repository.AccountRepository satisfies it.
type AccountStore interface {
	LinkedAccountByPlayer(ctx context.Context, playerUUID string) (string, error)
	PlayerByAccount(ctx context.Context, discordID string) (string, error)
	Permissions(ctx context.Context, discordID string) ([]string, error)
}

// StatsProvider fetches live cumulative stats from the upstream API.
// *api.HypixelClient satisfies it. Callers self-throttle; the provider is
// rate limited.
type StatsProvider interface {
	FetchPlayerStats(ctx context.Context, playerUUID string) (*domain.StatFields, error)
}
