package repository

import (
	"context"
	"errors"
	"fmt"

	"voicecreate/database"
	"voicecreate/models"

	"github.com/jackc/pgx/v5"
)

// GuildConfigRepository implements the GuildConfigRepository interface
type GuildConfigRepository struct {
	q       queryable
	guildID int64
}

// NewGuildConfigRepository creates a guild config repository on the pool
func NewGuildConfigRepository(db *database.DB, guildID int64) *GuildConfigRepository {
	return &GuildConfigRepository{q: db.Pool, guildID: guildID}
}

func newGuildConfigRepositoryWithTx(tx queryable, guildID int64) *GuildConfigRepository {
	return &GuildConfigRepository{q: tx, guildID: guildID}
}

const guildConfigColumns = `guild_id, admin_role_ids, prefixes, default_role_id, language, created_at, updated_at`

func scanGuildConfig(row pgx.Row) (*models.GuildConfig, error) {
	var config models.GuildConfig
	err := row.Scan(
		&config.GuildID,
		&config.AdminRoleIDs,
		&config.Prefixes,
		&config.DefaultRoleID,
		&config.Language,
		&config.CreatedAt,
		&config.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// Get returns the guild's config or nil
func (r *GuildConfigRepository) Get(ctx context.Context) (*models.GuildConfig, error) {
	query := `SELECT ` + guildConfigColumns + ` FROM guild_config WHERE guild_id = $1`

	config, err := scanGuildConfig(r.q.QueryRow(ctx, query, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config for guild %d: %w", r.guildID, err)
	}

	return config, nil
}

// GetOrCreate returns the guild's config, inserting defaults when missing
func (r *GuildConfigRepository) GetOrCreate(ctx context.Context, defaults *models.GuildConfig) (*models.GuildConfig, error) {
	// First try to get existing config
	config, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if config != nil {
		return config, nil
	}

	adminRoles := defaults.AdminRoleIDs
	if adminRoles == nil {
		adminRoles = []int64{}
	}
	prefixes := defaults.Prefixes
	if prefixes == nil {
		prefixes = []string{}
	}

	// A concurrent first sight may have inserted it; the no-op update returns that row
	insertQuery := `
		INSERT INTO guild_config (guild_id, admin_role_ids, prefixes, default_role_id, language)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING ` + guildConfigColumns

	config, err = scanGuildConfig(r.q.QueryRow(ctx, insertQuery,
		r.guildID,
		adminRoles,
		prefixes,
		defaults.DefaultRoleID,
		defaults.Language,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create guild config for guild %d: %w", r.guildID, err)
	}

	return config, nil
}

// Update persists every field of config
func (r *GuildConfigRepository) Update(ctx context.Context, config *models.GuildConfig) error {
	query := `
		UPDATE guild_config
		SET admin_role_ids = $2,
		    prefixes = $3,
		    default_role_id = $4,
		    language = $5
		WHERE guild_id = $1
	`

	adminRoles := config.AdminRoleIDs
	if adminRoles == nil {
		adminRoles = []int64{}
	}
	prefixes := config.Prefixes
	if prefixes == nil {
		prefixes = []string{}
	}

	result, err := r.q.Exec(ctx, query,
		r.guildID,
		adminRoles,
		prefixes,
		config.DefaultRoleID,
		config.Language,
	)
	if err != nil {
		return fmt.Errorf("failed to update guild config for guild %d: %w", r.guildID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guild config for guild %d not found", r.guildID)
	}

	return nil
}

// CreateChannelRepository implements the CreateChannelRepository interface
type CreateChannelRepository struct {
	q       queryable
	guildID int64
}

// NewCreateChannelRepository creates a create channel repository on the pool
func NewCreateChannelRepository(db *database.DB, guildID int64) *CreateChannelRepository {
	return &CreateChannelRepository{q: db.Pool, guildID: guildID}
}

func newCreateChannelRepositoryWithTx(tx queryable, guildID int64) *CreateChannelRepository {
	return &CreateChannelRepository{q: tx, guildID: guildID}
}

// Add registers a create channel, replacing an earlier registration of the same channel
func (r *CreateChannelRepository) Add(ctx context.Context, channel *models.CreateChannel) error {
	query := `
		INSERT INTO create_channels (guild_id, voice_channel_id, category_id, user_id, use_stage)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, voice_channel_id) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			user_id = EXCLUDED.user_id,
			use_stage = EXCLUDED.use_stage
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		channel.VoiceChannelID,
		channel.CategoryID,
		channel.OwnerID,
		channel.UseStage,
	).Scan(&channel.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add create channel %d: %w", channel.VoiceChannelID, err)
	}

	channel.GuildID = r.guildID
	return nil
}

// Get returns the create channel or nil
func (r *CreateChannelRepository) Get(ctx context.Context, voiceChannelID int64) (*models.CreateChannel, error) {
	query := `
		SELECT guild_id, voice_channel_id, category_id, user_id, use_stage, created_at
		FROM create_channels
		WHERE guild_id = $1 AND voice_channel_id = $2
	`

	rows, err := r.q.Query(ctx, query, r.guildID, voiceChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get create channel %d: %w", voiceChannelID, err)
	}

	channel, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.CreateChannel])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan create channel %d: %w", voiceChannelID, err)
	}

	return channel, nil
}

// List returns the guild's create channels in registration order
func (r *CreateChannelRepository) List(ctx context.Context) ([]*models.CreateChannel, error) {
	query := `
		SELECT guild_id, voice_channel_id, category_id, user_id, use_stage, created_at
		FROM create_channels
		WHERE guild_id = $1
		ORDER BY created_at, voice_channel_id
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list create channels: %w", err)
	}

	channels, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.CreateChannel])
	if err != nil {
		return nil, fmt.Errorf("failed to scan create channels: %w", err)
	}

	return channels, nil
}

// Remove deletes a create channel; returns false if it was not registered
func (r *CreateChannelRepository) Remove(ctx context.Context, voiceChannelID int64) (bool, error) {
	query := `DELETE FROM create_channels WHERE guild_id = $1 AND voice_channel_id = $2`

	result, err := r.q.Exec(ctx, query, r.guildID, voiceChannelID)
	if err != nil {
		return false, fmt.Errorf("failed to remove create channel %d: %w", voiceChannelID, err)
	}

	return result.RowsAffected() > 0, nil
}

// MemberRepository implements the MemberRepository interface
type MemberRepository struct {
	q       queryable
	guildID int64
}

// NewMemberRepository creates a member repository on the pool
func NewMemberRepository(db *database.DB, guildID int64) *MemberRepository {
	return &MemberRepository{q: db.Pool, guildID: guildID}
}

func newMemberRepositoryWithTx(tx queryable, guildID int64) *MemberRepository {
	return &MemberRepository{q: tx, guildID: guildID}
}

// Upsert records the member's current names
func (r *MemberRepository) Upsert(ctx context.Context, member *models.KnownMember) error {
	query := `
		INSERT INTO guild_members (guild_id, user_id, username, display_name, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			updated_at = NOW()
	`

	_, err := r.q.Exec(ctx, query, r.guildID, member.UserID, member.Username, member.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to upsert member %d: %w", member.UserID, err)
	}

	return nil
}

// Get returns the member or nil
func (r *MemberRepository) Get(ctx context.Context, userID int64) (*models.KnownMember, error) {
	query := `
		SELECT guild_id, user_id, username, display_name, updated_at
		FROM guild_members
		WHERE guild_id = $1 AND user_id = $2
	`

	var member models.KnownMember
	err := r.q.QueryRow(ctx, query, r.guildID, userID).Scan(
		&member.GuildID,
		&member.UserID,
		&member.Username,
		&member.DisplayName,
		&member.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d: %w", userID, err)
	}

	return &member, nil
}
