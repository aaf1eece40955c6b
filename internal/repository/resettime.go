package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Luciism/statalytics/internal/domain"

	"github.com/rs/zerolog"
)

// reset_times rows are keyed by (subject_type, subject_id) so account
// overrides and player defaults live in one small table.
const (
	subjectAccount = "account"
	subjectPlayer  = "player"
)

type ResetTimeRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewResetTimeRepository(sqlDB *sql.DB, logger zerolog.Logger) *ResetTimeRepository {
	return &ResetTimeRepository{db: sqlDB, logger: logger}
}

func (r *ResetTimeRepository) AccountConfig(ctx context.Context, discordID string) (*domain.ResetTimeConfig, error) {
	return r.get(ctx, subjectAccount, discordID)
}

func (r *ResetTimeRepository) PlayerConfig(ctx context.Context, playerUUID string) (*domain.ResetTimeConfig, error) {
	return r.get(ctx, subjectPlayer, playerUUID)
}

func (r *ResetTimeRepository) SetAccountConfig(ctx context.Context, discordID string, cfg domain.ResetTimeConfig) error {
	query := `
		INSERT INTO reset_times (subject_type, subject_id, utc_offset, reset_hour)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (subject_type, subject_id)
		DO UPDATE SET utc_offset = excluded.utc_offset, reset_hour = excluded.reset_hour
	`
	if _, err := r.db.ExecContext(ctx, query, subjectAccount, discordID, cfg.UTCOffset, cfg.ResetHour); err != nil {
		return fmt.Errorf("failed to set account reset time for %s: %w", discordID, err)
	}
	return nil
}

// CreatePlayerConfigIfAbsent stores cfg as the player's default unless one
// already exists. Returns whether this call created the row; a stored
// default is never overwritten.
func (r *ResetTimeRepository) CreatePlayerConfigIfAbsent(ctx context.Context, playerUUID string, cfg domain.ResetTimeConfig) (bool, error) {
	query := "INSERT OR IGNORE INTO reset_times (subject_type, subject_id, utc_offset, reset_hour) VALUES (?, ?, ?, ?)"

	res, err := r.db.ExecContext(ctx, query, subjectPlayer, playerUUID, cfg.UTCOffset, cfg.ResetHour)
	if err != nil {
		return false, fmt.Errorf("failed to set player reset time for %s: %w", playerUUID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected > 0 {
		r.logger.Debug().
			Str("player_uuid", playerUUID).
			Int("utc_offset", cfg.UTCOffset).
			Int("reset_hour", cfg.ResetHour).
			Msg("player reset time default stored")
	}
	return affected > 0, nil
}

func (r *ResetTimeRepository) get(ctx context.Context, subjectType, subjectID string) (*domain.ResetTimeConfig, error) {
	query := "SELECT utc_offset, reset_hour FROM reset_times WHERE subject_type = ? AND subject_id = ?"

	var cfg domain.ResetTimeConfig
	err := r.db.QueryRowContext(ctx, query, subjectType, subjectID).Scan(&cfg.UTCOffset, &cfg.ResetHour)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s reset time for %s: %w", subjectType, subjectID, err)
	}
	return &cfg, nil
}
