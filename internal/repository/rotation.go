package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Luciism/statalytics/internal/domain"

	"github.com/rs/zerolog"
)

// statColumns and the derived SQL fragments are built once from the domain
// counter order so the schema, the binds and the scans cannot drift apart.
var (
	statColumns    = domain.StatColumns()
	statColumnList = strings.Join(statColumns, ", ")
	statPlaceholds = strings.TrimSuffix(strings.Repeat("?, ", len(statColumns)), ", ")
	statSetClause  = buildSetClause(statColumns)
)

func buildSetClause(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " = ?"
	}
	return strings.Join(parts, ", ")
}

func counterArgs(s *domain.StatFields) []any {
	ptrs := s.Counters()
	args := make([]any, len(ptrs))
	for i, p := range ptrs {
		args[i] = *p
	}
	return args
}

func counterDests(s *domain.StatFields) []any {
	ptrs := s.Counters()
	dests := make([]any, len(ptrs))
	for i, p := range ptrs {
		dests[i] = p
	}
	return dests
}

type RotationRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRotationRepository(sqlDB *sql.DB, logger zerolog.Logger) *RotationRepository {
	return &RotationRepository{db: sqlDB, logger: logger}
}

// Initialize creates a baseline for every given period type that does not
// already have one, seeded from live. Existing baselines are left untouched,
// so redundant calls are harmless.
func (r *RotationRepository) Initialize(ctx context.Context, playerUUID string, periodTypes []domain.PeriodType, live *domain.StatFields) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		"INSERT OR IGNORE INTO rotation_baselines (player_uuid, period_type, %s, created_at, updated_at) VALUES (?, ?, %s, ?, ?)",
		statColumnList, statPlaceholds,
	)

	now := time.Now().UTC()
	for _, pt := range periodTypes {
		args := append([]any{playerUUID, string(pt)}, counterArgs(live)...)
		args = append(args, now, now)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to initialize %s baseline for %s: %w", pt, playerUUID, err)
		}
	}

	return tx.Commit()
}

func (r *RotationRepository) GetBaseline(ctx context.Context, playerUUID string, periodType domain.PeriodType) (*domain.RotationBaseline, error) {
	query := fmt.Sprintf(
		"SELECT %s, created_at, updated_at FROM rotation_baselines WHERE player_uuid = ? AND period_type = ?",
		statColumnList,
	)

	b := &domain.RotationBaseline{PlayerUUID: playerUUID, PeriodType: periodType}
	dests := append(counterDests(&b.Stats), &b.CreatedAt, &b.UpdatedAt)

	err := r.db.QueryRowContext(ctx, query, playerUUID, string(periodType)).Scan(dests...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s baseline for %s: %w", periodType, playerUUID, err)
	}
	return b, nil
}

// Rebase overwrites the baseline counters with live, starting a new period.
// The row is rewritten in a single statement, so concurrent readers observe
// either the old or the new baseline, never a mix.
func (r *RotationRepository) Rebase(ctx context.Context, playerUUID string, periodType domain.PeriodType, live *domain.StatFields) error {
	query := fmt.Sprintf(
		"UPDATE rotation_baselines SET %s, updated_at = ? WHERE player_uuid = ? AND period_type = ?",
		statSetClause,
	)

	args := append(counterArgs(live), time.Now().UTC(), playerUUID, string(periodType))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to rebase %s baseline for %s: %w", periodType, playerUUID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	r.logger.Debug().
		Str("player_uuid", playerUUID).
		Str("period_type", string(periodType)).
		Msg("baseline rebased")
	return nil
}

// Archive inserts a historical record. A record already stored for the same
// (player, period label) wins: the insert is skipped and ErrAlreadyArchived
// returned, making retries after partial failures converge.
func (r *RotationRepository) Archive(ctx context.Context, rec *domain.HistoricalRecord) error {
	query := fmt.Sprintf(
		"INSERT OR IGNORE INTO historical_records (id, player_uuid, period_label, period_type, %s, level_gained, anomalous, archived_at) VALUES (?, ?, ?, ?, %s, ?, ?, ?)",
		statColumnList, statPlaceholds,
	)

	args := append([]any{rec.ID, rec.PlayerUUID, rec.PeriodLabel, string(rec.PeriodType)}, counterArgs(&rec.Stats)...)
	args = append(args, rec.LevelGained, rec.Anomalous, rec.ArchivedAt)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to archive %s for %s: %w", rec.PeriodLabel, rec.PlayerUUID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrAlreadyArchived
	}

	r.logger.Debug().
		Str("player_uuid", rec.PlayerUUID).
		Str("period_label", rec.PeriodLabel).
		Msg("period archived")
	return nil
}

func (r *RotationRepository) GetHistorical(ctx context.Context, playerUUID, periodLabel string) (*domain.HistoricalRecord, error) {
	query := fmt.Sprintf(
		"SELECT id, period_type, %s, level_gained, anomalous, archived_at FROM historical_records WHERE player_uuid = ? AND period_label = ?",
		statColumnList,
	)

	rec := &domain.HistoricalRecord{PlayerUUID: playerUUID, PeriodLabel: periodLabel}
	dests := append([]any{&rec.ID, &rec.PeriodType}, counterDests(&rec.Stats)...)
	dests = append(dests, &rec.LevelGained, &rec.Anomalous, &rec.ArchivedAt)

	err := r.db.QueryRowContext(ctx, query, playerUUID, periodLabel).Scan(dests...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s for %s: %w", periodLabel, playerUUID, err)
	}
	return rec, nil
}

// CountTracked returns how many players hold a baseline for the period type.
func (r *RotationRepository) CountTracked(ctx context.Context, periodType domain.PeriodType) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rotation_baselines WHERE period_type = ?", string(periodType),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracked players: %w", err)
	}
	return count, nil
}

// ListTrackedPlayers pages through players holding a baseline for the given
// period type, keyset style: pass the last uuid of the previous page (or ""
// for the first) and players strictly after it are returned in uuid order.
func (r *RotationRepository) ListTrackedPlayers(ctx context.Context, periodType domain.PeriodType, afterUUID string, limit int) ([]string, error) {
	query := "SELECT player_uuid FROM rotation_baselines WHERE period_type = ? AND player_uuid > ? ORDER BY player_uuid LIMIT ?"

	rows, err := r.db.QueryContext(ctx, query, string(periodType), afterUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked players: %w", err)
	}
	defer rows.Close()

	var players []string
	for rows.Next() {
		var uuid string
		if err := rows.Scan(&uuid); err != nil {
			return nil, fmt.Errorf("failed to scan player uuid: %w", err)
		}
		players = append(players, uuid)
	}
	return players, rows.Err()
}
