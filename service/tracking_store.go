package service

import (
	"context"
	"fmt"
	"time"

	"voicecreate/events"
	"voicecreate/models"

	log "github.com/sirupsen/logrus"
)

type trackingStore struct {
	uowFactory UnitOfWorkFactory
}

// NewTrackingStore creates a TrackingStore that runs each operation in its own unit of work
func NewTrackingStore(uowFactory UnitOfWorkFactory) TrackingStore {
	return &trackingStore{uowFactory: uowFactory}
}

func (s *trackingStore) begin(ctx context.Context, guildID int64) (UnitOfWork, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return uow, nil
}

// CreateVoiceChannel records a newly provisioned voice channel
func (s *trackingStore) CreateVoiceChannel(ctx context.Context, guildID, ownerID, voiceChannelID int64) error {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	created, err := uow.TrackedChannelRepository().CreateVoiceChannel(ctx, ownerID, voiceChannelID)
	if err != nil {
		return fmt.Errorf("failed to create voice channel record: %w", err)
	}
	if !created {
		log.WithFields(log.Fields{
			"guild_id":         guildID,
			"voice_channel_id": voiceChannelID,
		}).Error("Voice channel is already tracked")
		return fmt.Errorf("voice channel %d: %w", voiceChannelID, ErrDuplicateKey)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PairTextChannel links a text channel to a tracked voice channel
func (s *trackingStore) PairTextChannel(ctx context.Context, guildID, ownerID, voiceChannelID, textChannelID int64) error {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	repo := uow.TrackedChannelRepository()

	voice, err := repo.GetVoiceChannel(ctx, voiceChannelID)
	if err != nil {
		return fmt.Errorf("failed to get voice channel: %w", err)
	}
	if voice == nil {
		return fmt.Errorf("voice channel %d is not tracked: %w", voiceChannelID, ErrNotFound)
	}

	created, err := repo.CreateTextChannel(ctx, ownerID, voiceChannelID, textChannelID)
	if err != nil {
		return fmt.Errorf("failed to create text channel record: %w", err)
	}
	if !created {
		return fmt.Errorf("voice channel %d: %w", voiceChannelID, ErrAlreadyPaired)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetOwner returns the owner of a voice or text channel, nil when untracked
func (s *trackingStore) GetOwner(ctx context.Context, guildID, channelID int64) (*int64, error) {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.TrackedChannelRepository()

	voice, err := repo.GetVoiceChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get voice channel: %w", err)
	}
	if voice != nil {
		return &voice.OwnerID, nil
	}

	text, err := repo.GetTextChannelByTextID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get text channel: %w", err)
	}
	if text != nil {
		return &text.OwnerID, nil
	}

	return nil, nil
}

// TransferOwnership moves a channel from one owner to another with compare-and-set
func (s *trackingStore) TransferOwnership(ctx context.Context, guildID, voiceChannelID, fromOwnerID, toOwnerID int64) error {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	repo := uow.TrackedChannelRepository()

	swapped, err := repo.CompareAndSetOwner(ctx, voiceChannelID, fromOwnerID, toOwnerID)
	if err != nil {
		return fmt.Errorf("failed to update owner: %w", err)
	}

	if !swapped {
		current, err := repo.GetVoiceChannel(ctx, voiceChannelID)
		if err != nil {
			return fmt.Errorf("failed to get voice channel: %w", err)
		}
		switch {
		case current == nil:
			return fmt.Errorf("voice channel %d is not tracked: %w", voiceChannelID, ErrNotFound)
		case current.OwnerID == toOwnerID:
			return nil
		default:
			return fmt.Errorf("voice channel %d is owned by %d: %w", voiceChannelID, current.OwnerID, ErrOwnerChanged)
		}
	}

	if fromOwnerID != toOwnerID {
		uow.EventBus().Publish(events.OwnershipChangedEvent{
			GuildID:        guildID,
			VoiceChannelID: voiceChannelID,
			OldOwnerID:     fromOwnerID,
			NewOwnerID:     toOwnerID,
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Teardown writes one history row for whatever part of the pair still exists
// and then deletes it. Concurrent callers serialize on the row locks, and only
// the first sees the records.
func (s *trackingStore) Teardown(ctx context.Context, guildID, voiceChannelID int64, textChannelID *int64) (*models.TrackedChannelHistory, error) {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.TrackedChannelRepository()

	voice, text, err := repo.LockForTeardown(ctx, voiceChannelID, textChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock tracked channels: %w", err)
	}
	if voice == nil && text == nil {
		return nil, nil
	}

	history := &models.TrackedChannelHistory{
		GuildID:        guildID,
		VoiceChannelID: voiceChannelID,
		Timestamp:      time.Now().UTC(),
	}
	if voice != nil {
		history.OwnerID = voice.OwnerID
	} else {
		history.OwnerID = text.OwnerID
	}
	if text != nil {
		id := text.TextChannelID
		history.TextChannelID = &id
	} else if textChannelID != nil {
		id := *textChannelID
		history.TextChannelID = &id
	}

	if err := repo.RecordHistory(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record history: %w", err)
	}

	if err := repo.DeletePair(ctx, voiceChannelID, history.TextChannelID); err != nil {
		return nil, fmt.Errorf("failed to delete tracked channels: %w", err)
	}

	uow.EventBus().Publish(events.ChannelTornDownEvent{
		GuildID:        guildID,
		OwnerID:        history.OwnerID,
		VoiceChannelID: voiceChannelID,
		TextChannelID:  history.TextChannelID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return history, nil
}

func (s *trackingStore) GetTextChannel(ctx context.Context, guildID, voiceChannelID int64) (*models.TrackedTextChannel, error) {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	text, err := uow.TrackedChannelRepository().GetTextChannel(ctx, voiceChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get text channel: %w", err)
	}
	return text, nil
}

func (s *trackingStore) ListTrackedVoiceChannelIDs(ctx context.Context, guildID int64) ([]int64, error) {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	channels, err := uow.TrackedChannelRepository().ListVoiceChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice channels: %w", err)
	}

	ids := make([]int64, 0, len(channels))
	for _, ch := range channels {
		ids = append(ids, ch.VoiceChannelID)
	}
	return ids, nil
}

func (s *trackingStore) ListByOwner(ctx context.Context, guildID, ownerID int64) ([]*models.TrackedVoiceChannel, error) {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	channels, err := uow.TrackedChannelRepository().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels by owner: %w", err)
	}
	return channels, nil
}

// ListTrackedChannels returns every voice record with its pairing, if any
func (s *trackingStore) ListTrackedChannels(ctx context.Context, guildID int64) ([]*models.TrackedChannel, error) {
	uow, err := s.begin(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.TrackedChannelRepository()

	voices, err := repo.ListVoiceChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice channels: %w", err)
	}
	texts, err := repo.ListTextChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list text channels: %w", err)
	}

	byVoice := make(map[int64]*models.TrackedTextChannel, len(texts))
	for _, text := range texts {
		byVoice[text.VoiceChannelID] = text
	}

	result := make([]*models.TrackedChannel, 0, len(voices))
	for _, voice := range voices {
		result = append(result, &models.TrackedChannel{
			Voice: *voice,
			Text:  byVoice[voice.VoiceChannelID],
		})
	}
	return result, nil
}

// ListGuildIDs returns every guild with at least one tracked channel
func (s *trackingStore) ListGuildIDs(ctx context.Context) ([]int64, error) {
	uow, err := s.begin(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	guildIDs, err := uow.TrackedChannelRepository().GetGuildsWithTrackedChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	return guildIDs, nil
}
