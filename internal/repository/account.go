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

type AccountRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAccountRepository(sqlDB *sql.DB, logger zerolog.Logger) *AccountRepository {
	return &AccountRepository{db: sqlDB, logger: logger}
}

// CreateAccount inserts an account row if one does not exist yet.
func (r *AccountRepository) CreateAccount(ctx context.Context, discordID string) error {
	query := "INSERT OR IGNORE INTO accounts (discord_id, permissions, creation_timestamp) VALUES (?, '', ?)"
	if _, err := r.db.ExecContext(ctx, query, discordID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to create account %s: %w", discordID, err)
	}
	return nil
}

// LinkedAccountByPlayer returns the discord id of the account linked to the
// player, or ErrNotFound when the player has no link.
func (r *AccountRepository) LinkedAccountByPlayer(ctx context.Context, playerUUID string) (string, error) {
	var discordID string
	err := r.db.QueryRowContext(ctx,
		"SELECT discord_id FROM linked_accounts WHERE player_uuid = ?", playerUUID,
	).Scan(&discordID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get linked account for %s: %w", playerUUID, err)
	}
	return discordID, nil
}

// PlayerByAccount returns the player uuid the account is linked to.
func (r *AccountRepository) PlayerByAccount(ctx context.Context, discordID string) (string, error) {
	var playerUUID string
	err := r.db.QueryRowContext(ctx,
		"SELECT player_uuid FROM linked_accounts WHERE discord_id = ?", discordID,
	).Scan(&playerUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get linked player for %s: %w", discordID, err)
	}
	return playerUUID, nil
}

// Link binds an account to a player, replacing any previous link held by the
// same account.
func (r *AccountRepository) Link(ctx context.Context, discordID, playerUUID string) error {
	query := `
		INSERT INTO linked_accounts (discord_id, player_uuid)
		VALUES (?, ?)
		ON CONFLICT (discord_id) DO UPDATE SET player_uuid = excluded.player_uuid
	`
	if _, err := r.db.ExecContext(ctx, query, discordID, playerUUID); err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", discordID, playerUUID, err)
	}

	r.logger.Debug().Str("discord_id", discordID).Str("player_uuid", playerUUID).Msg("account linked")
	return nil
}

// Unlink removes the account's player link if present.
func (r *AccountRepository) Unlink(ctx context.Context, discordID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM linked_accounts WHERE discord_id = ?", discordID); err != nil {
		return fmt.Errorf("failed to unlink %s: %w", discordID, err)
	}
	return nil
}

// Permissions returns the account's permission strings. A missing account
// simply has no permissions.
func (r *AccountRepository) Permissions(ctx context.Context, discordID string) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT permissions FROM accounts WHERE discord_id = ?", discordID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions for %s: %w", discordID, err)
	}

	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	perms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	return perms, nil
}

// SetPermissions replaces the account's permission strings.
func (r *AccountRepository) SetPermissions(ctx context.Context, discordID string, perms []string) error {
	if err := r.CreateAccount(ctx, discordID); err != nil {
		return err
	}
	query := "UPDATE accounts SET permissions = ? WHERE discord_id = ?"
	if _, err := r.db.ExecContext(ctx, query, strings.Join(perms, ","), discordID); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", discordID, err)
	}
	return nil
}

// ActivePackage returns the account's current subscription package, or
// ErrNotFound when there is no unexpired subscription.
func (r *AccountRepository) ActivePackage(ctx context.Context, discordID string) (string, error) {
	var (
		pkg       string
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT package, expires_at FROM subscriptions WHERE discord_id = ?", discordID,
	).Scan(&pkg, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get subscription for %s: %w", discordID, err)
	}

	if expiresAt.Valid && expiresAt.Time.Before(time.Now().UTC()) {
		return "", domain.ErrNotFound
	}
	return pkg, nil
}

// SetSubscription stores the account's subscription package. A nil expiry
// means the subscription never lapses.
func (r *AccountRepository) SetSubscription(ctx context.Context, discordID, pkg string, expiresAt *time.Time) error {
	query := `
		INSERT INTO subscriptions (discord_id, package, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (discord_id) DO UPDATE SET package = excluded.package, expires_at = excluded.expires_at
	`
	var expires any
	if expiresAt != nil {
		expires = *expiresAt
	}
	if _, err := r.db.ExecContext(ctx, query, discordID, pkg, expires); err != nil {
		return fmt.Errorf("failed to set subscription for %s: %w", discordID, err)
	}
	return nil
}
