package repository

import (
	"context"
	"errors"
	"fmt"

	"voicecreate/database"
	"voicecreate/models"

	"github.com/jackc/pgx/v5"
)

// TrackedChannelRepository implements the TrackedChannelRepository interface
type TrackedChannelRepository struct {
	q       queryable
	guildID int64
}

// NewTrackedChannelRepository creates a tracked channel repository on the pool, scoped to guildID
func NewTrackedChannelRepository(db *database.DB, guildID int64) *TrackedChannelRepository {
	return &TrackedChannelRepository{q: db.Pool, guildID: guildID}
}

// newTrackedChannelRepositoryWithTx creates a tracked channel repository with a transaction
func newTrackedChannelRepositoryWithTx(tx queryable, guildID int64) *TrackedChannelRepository {
	return &TrackedChannelRepository{q: tx, guildID: guildID}
}

// CreateVoiceChannel inserts a voice record; returns false on conflict
func (r *TrackedChannelRepository) CreateVoiceChannel(ctx context.Context, ownerID, voiceChannelID int64) (bool, error) {
	query := `
		INSERT INTO voice_channels (guild_id, voice_channel_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, r.guildID, voiceChannelID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to create voice channel %d: %w", voiceChannelID, err)
	}

	return result.RowsAffected() == 1, nil
}

// CreateTextChannel inserts a pairing; returns false if either side is already paired
func (r *TrackedChannelRepository) CreateTextChannel(ctx context.Context, ownerID, voiceChannelID, textChannelID int64) (bool, error) {
	query := `
		INSERT INTO text_channels (guild_id, voice_channel_id, text_channel_id, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, r.guildID, voiceChannelID, textChannelID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to create text channel %d: %w", textChannelID, err)
	}

	return result.RowsAffected() == 1, nil
}

// GetVoiceChannel returns the voice record or nil
func (r *TrackedChannelRepository) GetVoiceChannel(ctx context.Context, voiceChannelID int64) (*models.TrackedVoiceChannel, error) {
	query := `
		SELECT guild_id, voice_channel_id, user_id, created_at
		FROM voice_channels
		WHERE guild_id = $1 AND voice_channel_id = $2
	`

	var voice models.TrackedVoiceChannel
	err := r.q.QueryRow(ctx, query, r.guildID, voiceChannelID).Scan(
		&voice.GuildID,
		&voice.VoiceChannelID,
		&voice.OwnerID,
		&voice.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voice channel %d: %w", voiceChannelID, err)
	}

	return &voice, nil
}

// GetTextChannel returns the pairing for a voice channel or nil
func (r *TrackedChannelRepository) GetTextChannel(ctx context.Context, voiceChannelID int64) (*models.TrackedTextChannel, error) {
	query := `
		SELECT guild_id, voice_channel_id, text_channel_id, user_id, created_at
		FROM text_channels
		WHERE guild_id = $1 AND voice_channel_id = $2
	`

	text, err := scanTextChannel(r.q.QueryRow(ctx, query, r.guildID, voiceChannelID))
	if err != nil {
		return nil, fmt.Errorf("failed to get text channel for voice channel %d: %w", voiceChannelID, err)
	}
	return text, nil
}

// GetTextChannelByTextID returns the pairing for a text channel or nil
func (r *TrackedChannelRepository) GetTextChannelByTextID(ctx context.Context, textChannelID int64) (*models.TrackedTextChannel, error) {
	query := `
		SELECT guild_id, voice_channel_id, text_channel_id, user_id, created_at
		FROM text_channels
		WHERE guild_id = $1 AND text_channel_id = $2
	`

	text, err := scanTextChannel(r.q.QueryRow(ctx, query, r.guildID, textChannelID))
	if err != nil {
		return nil, fmt.Errorf("failed to get text channel %d: %w", textChannelID, err)
	}
	return text, nil
}

func scanTextChannel(row pgx.Row) (*models.TrackedTextChannel, error) {
	var text models.TrackedTextChannel
	err := row.Scan(
		&text.GuildID,
		&text.VoiceChannelID,
		&text.TextChannelID,
		&text.OwnerID,
		&text.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &text, nil
}

// CompareAndSetOwner moves the voice record and its pairing to toOwnerID if
// the voice record is still owned by fromOwnerID
func (r *TrackedChannelRepository) CompareAndSetOwner(ctx context.Context, voiceChannelID, fromOwnerID, toOwnerID int64) (bool, error) {
	query := `
		UPDATE voice_channels
		SET user_id = $4
		WHERE guild_id = $1 AND voice_channel_id = $2 AND user_id = $3
	`

	result, err := r.q.Exec(ctx, query, r.guildID, voiceChannelID, fromOwnerID, toOwnerID)
	if err != nil {
		return false, fmt.Errorf("failed to update owner of voice channel %d: %w", voiceChannelID, err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	textQuery := `
		UPDATE text_channels
		SET user_id = $3
		WHERE guild_id = $1 AND voice_channel_id = $2
	`

	if _, err := r.q.Exec(ctx, textQuery, r.guildID, voiceChannelID, toOwnerID); err != nil {
		return false, fmt.Errorf("failed to update owner of text channel for voice channel %d: %w", voiceChannelID, err)
	}

	return true, nil
}

// LockForTeardown selects the voice record and the pairing matching either id
// FOR UPDATE, so a concurrent teardown of the same pair waits and then sees nothing
func (r *TrackedChannelRepository) LockForTeardown(ctx context.Context, voiceChannelID int64, textChannelID *int64) (*models.TrackedVoiceChannel, *models.TrackedTextChannel, error) {
	voiceQuery := `
		SELECT guild_id, voice_channel_id, user_id, created_at
		FROM voice_channels
		WHERE guild_id = $1 AND voice_channel_id = $2
		FOR UPDATE
	`

	var voice *models.TrackedVoiceChannel
	var v models.TrackedVoiceChannel
	err := r.q.QueryRow(ctx, voiceQuery, r.guildID, voiceChannelID).Scan(
		&v.GuildID,
		&v.VoiceChannelID,
		&v.OwnerID,
		&v.CreatedAt,
	)
	switch {
	case err == nil:
		voice = &v
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, nil, fmt.Errorf("failed to lock voice channel %d: %w", voiceChannelID, err)
	}

	textQuery := `
		SELECT guild_id, voice_channel_id, text_channel_id, user_id, created_at
		FROM text_channels
		WHERE guild_id = $1 AND (voice_channel_id = $2 OR text_channel_id = $3)
		ORDER BY (voice_channel_id = $2) DESC
		LIMIT 1
		FOR UPDATE
	`

	text, err := scanTextChannel(r.q.QueryRow(ctx, textQuery, r.guildID, voiceChannelID, textChannelID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock text channel for voice channel %d: %w", voiceChannelID, err)
	}

	return voice, text, nil
}

// DeletePair removes the voice record and any pairing by voice or text id
func (r *TrackedChannelRepository) DeletePair(ctx context.Context, voiceChannelID int64, textChannelID *int64) error {
	textQuery := `
		DELETE FROM text_channels
		WHERE guild_id = $1 AND (voice_channel_id = $2 OR text_channel_id = $3)
	`

	if _, err := r.q.Exec(ctx, textQuery, r.guildID, voiceChannelID, textChannelID); err != nil {
		return fmt.Errorf("failed to delete text channel for voice channel %d: %w", voiceChannelID, err)
	}

	voiceQuery := `
		DELETE FROM voice_channels
		WHERE guild_id = $1 AND voice_channel_id = $2
	`

	if _, err := r.q.Exec(ctx, voiceQuery, r.guildID, voiceChannelID); err != nil {
		return fmt.Errorf("failed to delete voice channel %d: %w", voiceChannelID, err)
	}

	return nil
}

// RecordHistory appends a teardown history row and sets its ID
func (r *TrackedChannelRepository) RecordHistory(ctx context.Context, history *models.TrackedChannelHistory) error {
	query := `
		INSERT INTO tracked_channels_history (guild_id, user_id, voice_channel_id, text_channel_id, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		history.OwnerID,
		history.VoiceChannelID,
		history.TextChannelID,
		history.Timestamp,
	).Scan(&history.ID)

	if err != nil {
		return fmt.Errorf("failed to record history for voice channel %d: %w", history.VoiceChannelID, err)
	}

	return nil
}

// GetHistory returns the history rows for a voice channel, oldest first
func (r *TrackedChannelRepository) GetHistory(ctx context.Context, voiceChannelID int64) ([]*models.TrackedChannelHistory, error) {
	query := `
		SELECT id, guild_id, voice_channel_id, text_channel_id, user_id, timestamp
		FROM tracked_channels_history
		WHERE guild_id = $1 AND voice_channel_id = $2
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, voiceChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for voice channel %d: %w", voiceChannelID, err)
	}
	defer rows.Close()

	var history []*models.TrackedChannelHistory
	for rows.Next() {
		var h models.TrackedChannelHistory
		if err := rows.Scan(
			&h.ID,
			&h.GuildID,
			&h.VoiceChannelID,
			&h.TextChannelID,
			&h.OwnerID,
			&h.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return history, nil
}

// ListVoiceChannels returns every voice record in the guild
func (r *TrackedChannelRepository) ListVoiceChannels(ctx context.Context) ([]*models.TrackedVoiceChannel, error) {
	query := `
		SELECT guild_id, voice_channel_id, user_id, created_at
		FROM voice_channels
		WHERE guild_id = $1
		ORDER BY created_at, voice_channel_id
	`
	return r.queryVoiceChannels(ctx, query, r.guildID)
}

// ListByOwner returns the voice records owned by ownerID
func (r *TrackedChannelRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.TrackedVoiceChannel, error) {
	query := `
		SELECT guild_id, voice_channel_id, user_id, created_at
		FROM voice_channels
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY created_at, voice_channel_id
	`
	return r.queryVoiceChannels(ctx, query, r.guildID, ownerID)
}

func (r *TrackedChannelRepository) queryVoiceChannels(ctx context.Context, query string, args ...any) ([]*models.TrackedVoiceChannel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query voice channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.TrackedVoiceChannel
	for rows.Next() {
		var v models.TrackedVoiceChannel
		if err := rows.Scan(&v.GuildID, &v.VoiceChannelID, &v.OwnerID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan voice channel: %w", err)
		}
		channels = append(channels, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voice channels: %w", err)
	}

	return channels, nil
}

// ListTextChannels returns every pairing in the guild
func (r *TrackedChannelRepository) ListTextChannels(ctx context.Context) ([]*models.TrackedTextChannel, error) {
	query := `
		SELECT guild_id, voice_channel_id, text_channel_id, user_id, created_at
		FROM text_channels
		WHERE guild_id = $1
		ORDER BY created_at, voice_channel_id
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query text channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.TrackedTextChannel
	for rows.Next() {
		var t models.TrackedTextChannel
		if err := rows.Scan(&t.GuildID, &t.VoiceChannelID, &t.TextChannelID, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan text channel: %w", err)
		}
		channels = append(channels, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating text channels: %w", err)
	}

	return channels, nil
}

// GetGuildsWithTrackedChannels lists every guild with a voice or text record
func (r *TrackedChannelRepository) GetGuildsWithTrackedChannels(ctx context.Context) ([]int64, error) {
	query := `
		SELECT guild_id FROM voice_channels
		UNION
		SELECT guild_id FROM text_channels
		ORDER BY guild_id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query guilds with tracked channels: %w", err)
	}
	defer rows.Close()

	guildIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect guild ids: %w", err)
	}
	return guildIDs, nil
}
