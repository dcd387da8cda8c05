package service

import (
	"context"
	"fmt"
	"strings"

	"voicecreate/models"

	log "github.com/sirupsen/logrus"
)

// GuildDefaults seeds the config of a guild seen for the first time
type GuildDefaults struct {
	Prefixes []string
	Language string
}

type guildConfigService struct {
	uowFactory UnitOfWorkFactory
	defaults   GuildDefaults
}

// NewGuildConfigService creates a new guild config service
func NewGuildConfigService(uowFactory UnitOfWorkFactory, defaults GuildDefaults) GuildConfigService {
	return &guildConfigService{
		uowFactory: uowFactory,
		defaults:   defaults,
	}
}

// withUnitOfWork runs fn in a transaction and commits when it returns nil
func (s *guildConfigService) withUnitOfWork(ctx context.Context, guildID int64, fn func(uow UnitOfWork) error) error {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *guildConfigService) seed(guildID int64) *models.GuildConfig {
	prefixes := make([]string, len(s.defaults.Prefixes))
	copy(prefixes, s.defaults.Prefixes)
	return &models.GuildConfig{
		GuildID:      guildID,
		AdminRoleIDs: []int64{},
		Prefixes:     prefixes,
		Language:     s.defaults.Language,
	}
}

// EnsureGuild returns the guild's config, creating it with defaults on first sight
func (s *guildConfigService) EnsureGuild(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	var config *models.GuildConfig
	err := s.withUnitOfWork(ctx, guildID, func(uow UnitOfWork) error {
		var err error
		config, err = uow.GuildConfigRepository().GetOrCreate(ctx, s.seed(guildID))
		if err != nil {
			return fmt.Errorf("failed to get or create guild config: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return config, nil
}

func (s *guildConfigService) GetGuildConfig(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	return s.EnsureGuild(ctx, guildID)
}

// updateConfig loads the guild's config, applies mutate, and saves it
func (s *guildConfigService) updateConfig(ctx context.Context, guildID int64, mutate func(config *models.GuildConfig) error) error {
	return s.withUnitOfWork(ctx, guildID, func(uow UnitOfWork) error {
		repo := uow.GuildConfigRepository()
		config, err := repo.GetOrCreate(ctx, s.seed(guildID))
		if err != nil {
			return fmt.Errorf("failed to get guild config: %w", err)
		}
		if err := mutate(config); err != nil {
			return err
		}
		if err := repo.Update(ctx, config); err != nil {
			return fmt.Errorf("failed to update guild config: %w", err)
		}
		return nil
	})
}

func (s *guildConfigService) AddAdminRole(ctx context.Context, guildID, roleID int64) error {
	return s.updateConfig(ctx, guildID, func(config *models.GuildConfig) error {
		for _, id := range config.AdminRoleIDs {
			if id == roleID {
				return nil
			}
		}
		config.AdminRoleIDs = append(config.AdminRoleIDs, roleID)
		return nil
	})
}

func (s *guildConfigService) RemoveAdminRole(ctx context.Context, guildID, roleID int64) error {
	return s.updateConfig(ctx, guildID, func(config *models.GuildConfig) error {
		kept := config.AdminRoleIDs[:0]
		for _, id := range config.AdminRoleIDs {
			if id != roleID {
				kept = append(kept, id)
			}
		}
		config.AdminRoleIDs = kept
		return nil
	})
}

// SetPrefixes replaces the prefix list; the first prefix is canonical
func (s *guildConfigService) SetPrefixes(ctx context.Context, guildID int64, prefixes []string) error {
	cleaned := make([]string, 0, len(prefixes))
	seen := make(map[string]bool, len(prefixes))
	for _, p := range prefixes {
		if strings.TrimSpace(p) == "" || seen[p] {
			continue
		}
		seen[p] = true
		cleaned = append(cleaned, p)
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("at least one prefix is required: %w", ErrInvalidInput)
	}

	return s.updateConfig(ctx, guildID, func(config *models.GuildConfig) error {
		config.Prefixes = cleaned
		return nil
	})
}

// SetDefaultRole sets the role locks apply to; nil restores @everyone
func (s *guildConfigService) SetDefaultRole(ctx context.Context, guildID int64, roleID *int64) error {
	return s.updateConfig(ctx, guildID, func(config *models.GuildConfig) error {
		config.DefaultRoleID = roleID
		return nil
	})
}

func (s *guildConfigService) SetLanguage(ctx context.Context, guildID int64, language string) error {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return fmt.Errorf("language is required: %w", ErrInvalidInput)
	}
	return s.updateConfig(ctx, guildID, func(config *models.GuildConfig) error {
		config.Language = language
		return nil
	})
}

func (s *guildConfigService) GetCategorySettings(ctx context.Context, guildID, categoryID int64) (*models.CategorySettings, error) {
	var settings *models.CategorySettings
	err := s.withUnitOfWork(ctx, guildID, func(uow UnitOfWork) error {
		var err error
		settings, err = uow.CategorySettingsRepository().Get(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("failed to get category settings: %w", err)
		}
		return nil
	})
	return settings, err
}

// SetCategorySettings validates and upserts a category's defaults
func (s *guildConfigService) SetCategorySettings(ctx context.Context, settings *models.CategorySettings) error {
	if settings.ChannelLimit < 0 || settings.ChannelLimit > models.MaxChannelLimit {
		return fmt.Errorf("limit must be between 0 and %d: %w", models.MaxChannelLimit, ErrInvalidInput)
	}
	if settings.Bitrate < models.MinBitrateKbps {
		return fmt.Errorf("bitrate must be at least %d kbps: %w", models.MinBitrateKbps, ErrInvalidInput)
	}

	err := s.withUnitOfWork(ctx, settings.GuildID, func(uow UnitOfWork) error {
		if err := uow.CategorySettingsRepository().Upsert(ctx, settings); err != nil {
			return fmt.Errorf("failed to save category settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"guild_id":    settings.GuildID,
		"category_id": settings.CategoryID,
		"limit":       settings.ChannelLimit,
		"locked":      settings.ChannelLocked,
		"bitrate":     settings.Bitrate,
	}).Info("Category settings updated")
	return nil
}

func (s *guildConfigService) GetCreateChannel(ctx context.Context, guildID, voiceChannelID int64) (*models.CreateChannel, error) {
	var channel *models.CreateChannel
	err := s.withUnitOfWork(ctx, guildID, func(uow UnitOfWork) error {
		var err error
		channel, err = uow.CreateChannelRepository().Get(ctx, voiceChannelID)
		if err != nil {
			return fmt.Errorf("failed to get create channel: %w", err)
		}
		return nil
	})
	return channel, err
}

func (s *guildConfigService) AddCreateChannel(ctx context.Context, channel *models.CreateChannel) error {
	return s.withUnitOfWork(ctx, channel.GuildID, func(uow UnitOfWork) error {
		if err := uow.CreateChannelRepository().Add(ctx, channel); err != nil {
			return fmt.Errorf("failed to add create channel: %w", err)
		}
		return nil
	})
}

func (s *guildConfigService) RemoveCreateChannel(ctx context.Context, guildID, voiceChannelID int64) error {
	return s.withUnitOfWork(ctx, guildID, func(uow UnitOfWork) error {
		removed, err := uow.CreateChannelRepository().Remove(ctx, voiceChannelID)
		if err != nil {
			return fmt.Errorf("failed to remove create channel: %w", err)
		}
		if !removed {
			return fmt.Errorf("channel %d is not a create channel: %w", voiceChannelID, ErrNotFound)
		}
		return nil
	})
}

func (s *guildConfigService) ListCreateChannels(ctx context.Context, guildID int64) ([]*models.CreateChannel, error) {
	var channels []*models.CreateChannel
	err := s.withUnitOfWork(ctx, guildID, func(uow UnitOfWork) error {
		var err error
		channels, err = uow.CreateChannelRepository().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list create channels: %w", err)
		}
		return nil
	})
	return channels, err
}

func (s *guildConfigService) TrackMember(ctx context.Context, member *models.KnownMember) error {
	return s.withUnitOfWork(ctx, member.GuildID, func(uow UnitOfWork) error {
		if err := uow.MemberRepository().Upsert(ctx, member); err != nil {
			return fmt.Errorf("failed to track member: %w", err)
		}
		return nil
	})
}

func (s *guildConfigService) GetMember(ctx context.Context, guildID, userID int64) (*models.KnownMember, error) {
	var member *models.KnownMember
	err := s.withUnitOfWork(ctx, guildID, func(uow UnitOfWork) error {
		var err error
		member, err = uow.MemberRepository().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}
		return nil
	})
	return member, err
}
