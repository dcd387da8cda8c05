package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"voicecreate/models"

	log "github.com/sirupsen/logrus"
)

const maxChannelNameLength = 100

type channelControlService struct {
	uowFactory UnitOfWorkFactory
	store      TrackingStore
	ownership  OwnershipService
	gateway    ChannelGateway
	resolver   SettingsResolver
	admins     AdminChecker
}

// NewChannelControlService creates the service behind the owner commands
func NewChannelControlService(uowFactory UnitOfWorkFactory, store TrackingStore, ownership OwnershipService, gateway ChannelGateway, resolver SettingsResolver, admins AdminChecker) ChannelControlService {
	return &channelControlService{
		uowFactory: uowFactory,
		store:      store,
		ownership:  ownership,
		gateway:    gateway,
		resolver:   resolver,
		admins:     admins,
	}
}

// lockRole picks the role a lock or mute applies to
func (s *channelControlService) lockRole(ctx context.Context, guildID, voiceChannelID, ownerID int64, roleID *int64) int64 {
	if roleID != nil {
		return *roleID
	}
	categoryID, err := s.gateway.ChannelParentID(ctx, voiceChannelID)
	if err != nil {
		categoryID = 0
	}
	settings := s.resolver.Resolve(ctx, guildID, categoryID, ownerID, "")
	return LockTarget(settings, guildID)
}

// Lock denies connect to the role and keeps the owner able to join
func (s *channelControlService) Lock(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error {
	owner, err := s.ownership.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return err
	}

	target := models.RolePrincipal(s.lockRole(ctx, guildID, voiceChannelID, owner, roleID))
	if err := s.gateway.SetPermissionOverwrite(ctx, voiceChannelID, models.PermissionOverwrite{
		Target: models.MemberPrincipal(owner),
		Allow:  models.OwnerVoicePermissions,
	}); err != nil {
		return fmt.Errorf("failed to keep owner access: %w", err)
	}
	if err := s.gateway.SetPermissionOverwrite(ctx, voiceChannelID, models.PermissionOverwrite{
		Target: target,
		Allow:  models.PermissionViewChannel,
		Deny:   models.PermissionConnect,
	}); err != nil {
		return fmt.Errorf("failed to lock channel: %w", err)
	}
	return nil
}

// Unlock restores connect for the role
func (s *channelControlService) Unlock(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error {
	owner, err := s.ownership.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return err
	}

	target := models.RolePrincipal(s.lockRole(ctx, guildID, voiceChannelID, owner, roleID))
	if err := s.gateway.SetPermissionOverwrite(ctx, voiceChannelID, models.PermissionOverwrite{
		Target: target,
		Allow:  models.VoiceAccessPermissions,
	}); err != nil {
		return fmt.Errorf("failed to unlock channel: %w", err)
	}
	return nil
}

// Mute denies speak to the role
func (s *channelControlService) Mute(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error {
	owner, err := s.ownership.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return err
	}

	target := models.RolePrincipal(s.lockRole(ctx, guildID, voiceChannelID, owner, roleID))
	if err := s.gateway.SetPermissionOverwrite(ctx, voiceChannelID, models.PermissionOverwrite{
		Target: target,
		Allow:  models.VoiceAccessPermissions,
		Deny:   models.PermissionSpeak,
	}); err != nil {
		return fmt.Errorf("failed to mute channel: %w", err)
	}
	return nil
}

// Unmute restores speak for the role
func (s *channelControlService) Unmute(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error {
	owner, err := s.ownership.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return err
	}

	target := models.RolePrincipal(s.lockRole(ctx, guildID, voiceChannelID, owner, roleID))
	if err := s.gateway.SetPermissionOverwrite(ctx, voiceChannelID, models.PermissionOverwrite{
		Target: target,
		Allow:  models.VoiceAccessPermissions | models.PermissionSpeak,
	}); err != nil {
		return fmt.Errorf("failed to unmute channel: %w", err)
	}
	return nil
}

// SetLimit applies a user limit and saves it as the owner's preference
func (s *channelControlService) SetLimit(ctx context.Context, guildID, voiceChannelID, requesterID int64, limit int) error {
	if limit < 0 || limit > models.MaxChannelLimit {
		return fmt.Errorf("limit must be between 0 and %d: %w", models.MaxChannelLimit, ErrInvalidInput)
	}

	owner, err := s.ownership.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return err
	}

	if err := s.gateway.EditChannel(ctx, voiceChannelID, models.ChannelEdit{UserLimit: &limit}); err != nil {
		return fmt.Errorf("failed to edit channel: %w", err)
	}

	return s.saveUserSettings(ctx, &models.UserSettings{GuildID: guildID, UserID: owner, ChannelLimit: &limit})
}

// SetBitrate clamps kbps to the guild's range, applies it and saves it
func (s *channelControlService) SetBitrate(ctx context.Context, guildID, voiceChannelID, requesterID int64, kbps int) (int, error) {
	owner, err := s.ownership.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return 0, err
	}

	maxKbps, err := s.gateway.GuildBitrateLimit(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("failed to get guild bitrate limit: %w", err)
	}
	applied := ClampBitrate(kbps, maxKbps)

	bitrate := applied * 1000
	if err := s.gateway.EditChannel(ctx, voiceChannelID, models.ChannelEdit{Bitrate: &bitrate}); err != nil {
		return 0, fmt.Errorf("failed to edit channel: %w", err)
	}

	if err := s.saveUserSettings(ctx, &models.UserSettings{GuildID: guildID, UserID: owner, Bitrate: &applied}); err != nil {
		return 0, err
	}
	return applied, nil
}

// ClampBitrate bounds kbps to [MinBitrateKbps, maxKbps]
func ClampBitrate(kbps, maxKbps int) int {
	if maxKbps < models.MinBitrateKbps {
		maxKbps = models.DefaultBitrateKbps
	}
	if kbps < models.MinBitrateKbps {
		return models.MinBitrateKbps
	}
	if kbps > maxKbps {
		return maxKbps
	}
	return kbps
}

// Rename renames the voice channel and its paired text channel. A forced
// rename is admin-only and leaves the owner's saved name alone.
func (s *channelControlService) Rename(ctx context.Context, guildID, voiceChannelID, requesterID int64, name string, force bool) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxChannelNameLength {
		return fmt.Errorf("name must be 1-%d characters: %w", maxChannelNameLength, ErrInvalidInput)
	}

	if force {
		isAdmin, err := s.admins.IsAdmin(ctx, guildID, requesterID)
		if err != nil {
			return fmt.Errorf("failed to check admin: %w", err)
		}
		if !isAdmin {
			return ErrPermissionDenied
		}
	}

	owner, err := s.ownership.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return err
	}

	if err := s.gateway.EditChannel(ctx, voiceChannelID, models.ChannelEdit{Name: &name}); err != nil {
		return fmt.Errorf("failed to rename voice channel: %w", err)
	}

	paired, err := s.store.GetTextChannel(ctx, guildID, voiceChannelID)
	if err != nil {
		return fmt.Errorf("failed to get paired text channel: %w", err)
	}
	if paired != nil {
		textName := TextChannelName(name)
		err := s.gateway.EditChannel(ctx, paired.TextChannelID, models.ChannelEdit{Name: &textName})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to rename text channel: %w", err)
		}
	}

	if force {
		return nil
	}
	return s.saveUserSettings(ctx, &models.UserSettings{GuildID: guildID, UserID: owner, ChannelName: &name})
}

func (s *channelControlService) saveUserSettings(ctx context.Context, settings *models.UserSettings) error {
	uow := s.uowFactory.CreateForGuild(settings.GuildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserSettingsRepository().Upsert(ctx, settings); err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id": settings.GuildID,
		"user_id":  settings.UserID,
	}).Debug("Saved user channel settings")
	return nil
}

// TextChannelName turns a voice channel name into a valid text channel name
func TextChannelName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), "-")
	name = strings.ReplaceAll(name, "'", "")
	if name == "" {
		return "voice-chat"
	}
	return name
}
