package repository

import (
	"context"
	"errors"
	"fmt"

	"voicecreate/database"
	"voicecreate/models"

	"github.com/jackc/pgx/v5"
)

// CategorySettingsRepository implements the CategorySettingsRepository interface
type CategorySettingsRepository struct {
	q       queryable
	guildID int64
}

// NewCategorySettingsRepository creates a category settings repository on the pool
func NewCategorySettingsRepository(db *database.DB, guildID int64) *CategorySettingsRepository {
	return &CategorySettingsRepository{q: db.Pool, guildID: guildID}
}

func newCategorySettingsRepositoryWithTx(tx queryable, guildID int64) *CategorySettingsRepository {
	return &CategorySettingsRepository{q: tx, guildID: guildID}
}

// Get returns the settings for a category or nil
func (r *CategorySettingsRepository) Get(ctx context.Context, categoryID int64) (*models.CategorySettings, error) {
	query := `
		SELECT guild_id, voice_category_id, channel_limit, channel_locked, bitrate,
		       default_role_id, auto_game, allow_soundboard, auto_name
		FROM category_settings
		WHERE guild_id = $1 AND voice_category_id = $2
	`

	rows, err := r.q.Query(ctx, query, r.guildID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category settings for %d: %w", categoryID, err)
	}

	settings, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.CategorySettings])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan category settings for %d: %w", categoryID, err)
	}

	return settings, nil
}

// Upsert replaces the settings for a category
func (r *CategorySettingsRepository) Upsert(ctx context.Context, settings *models.CategorySettings) error {
	query := `
		INSERT INTO category_settings (
			guild_id, voice_category_id, channel_limit, channel_locked, bitrate,
			default_role_id, auto_game, allow_soundboard, auto_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (guild_id, voice_category_id) DO UPDATE SET
			channel_limit = EXCLUDED.channel_limit,
			channel_locked = EXCLUDED.channel_locked,
			bitrate = EXCLUDED.bitrate,
			default_role_id = EXCLUDED.default_role_id,
			auto_game = EXCLUDED.auto_game,
			allow_soundboard = EXCLUDED.allow_soundboard,
			auto_name = EXCLUDED.auto_name
	`

	_, err := r.q.Exec(ctx, query,
		r.guildID,
		settings.CategoryID,
		settings.ChannelLimit,
		settings.ChannelLocked,
		settings.Bitrate,
		settings.DefaultRoleID,
		settings.AutoGame,
		settings.AllowSoundboard,
		settings.AutoName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert category settings for %d: %w", settings.CategoryID, err)
	}

	return nil
}

// UserSettingsRepository implements the UserSettingsRepository interface
type UserSettingsRepository struct {
	q       queryable
	guildID int64
}

// NewUserSettingsRepository creates a user settings repository on the pool
func NewUserSettingsRepository(db *database.DB, guildID int64) *UserSettingsRepository {
	return &UserSettingsRepository{q: db.Pool, guildID: guildID}
}

func newUserSettingsRepositoryWithTx(tx queryable, guildID int64) *UserSettingsRepository {
	return &UserSettingsRepository{q: tx, guildID: guildID}
}

// Get returns the member's settings or nil
func (r *UserSettingsRepository) Get(ctx context.Context, userID int64) (*models.UserSettings, error) {
	query := `
		SELECT guild_id, user_id, channel_name, channel_limit, bitrate
		FROM user_settings
		WHERE guild_id = $1 AND user_id = $2
	`

	rows, err := r.q.Query(ctx, query, r.guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings for %d: %w", userID, err)
	}

	settings, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.UserSettings])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user settings for %d: %w", userID, err)
	}

	return settings, nil
}

// Upsert writes the non-nil fields of settings; nil fields keep their stored value
func (r *UserSettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	query := `
		INSERT INTO user_settings (guild_id, user_id, channel_name, channel_limit, bitrate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			channel_name = COALESCE(EXCLUDED.channel_name, user_settings.channel_name),
			channel_limit = COALESCE(EXCLUDED.channel_limit, user_settings.channel_limit),
			bitrate = COALESCE(EXCLUDED.bitrate, user_settings.bitrate)
	`

	_, err := r.q.Exec(ctx, query,
		r.guildID,
		settings.UserID,
		settings.ChannelName,
		settings.ChannelLimit,
		settings.Bitrate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user settings for %d: %w", settings.UserID, err)
	}

	return nil
}
