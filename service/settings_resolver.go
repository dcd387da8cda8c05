package service

import (
	"context"

	"voicecreate/models"

	log "github.com/sirupsen/logrus"
)

type settingsResolver struct {
	uowFactory UnitOfWorkFactory
}

// NewSettingsResolver creates a resolver that reads user, category and guild layers
func NewSettingsResolver(uowFactory UnitOfWorkFactory) SettingsResolver {
	return &settingsResolver{uowFactory: uowFactory}
}

// Resolve reads every layer in one read-only transaction. A failing read is
// logged and treated as an absent layer.
func (r *settingsResolver) Resolve(ctx context.Context, guildID, categoryID, userID int64, displayName string) *models.ChannelSettings {
	logger := log.WithFields(log.Fields{
		"guild_id":    guildID,
		"category_id": categoryID,
		"user_id":     userID,
	})

	uow := r.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		logger.WithError(err).Warn("Settings lookup unavailable, using defaults")
		return MergeChannelSettings(nil, nil, nil, displayName)
	}
	defer uow.Rollback()

	user, err := uow.UserSettingsRepository().Get(ctx, userID)
	if err != nil {
		logger.WithError(err).Warn("Failed to read user settings")
		user = nil
	}

	var category *models.CategorySettings
	if categoryID != 0 {
		category, err = uow.CategorySettingsRepository().Get(ctx, categoryID)
		if err != nil {
			logger.WithError(err).Warn("Failed to read category settings")
			category = nil
		}
	}

	guild, err := uow.GuildConfigRepository().Get(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to read guild config")
		guild = nil
	}

	return MergeChannelSettings(user, category, guild, displayName)
}

// MergeChannelSettings layers user over category over defaults, field by field.
// A nil user field is unset, so a user limit of 0 still overrides the category.
func MergeChannelSettings(user *models.UserSettings, category *models.CategorySettings, guild *models.GuildConfig, displayName string) *models.ChannelSettings {
	settings := &models.ChannelSettings{
		Name:    models.DefaultChannelName(displayName),
		Limit:   models.DefaultChannelLimit,
		Bitrate: models.DefaultBitrateKbps,
		Locked:  false,
	}

	if guild != nil && guild.DefaultRoleID != nil {
		settings.DefaultRoleID = guild.DefaultRoleID
	}

	if category != nil {
		settings.Limit = category.ChannelLimit
		settings.Locked = category.ChannelLocked
		if category.Bitrate > 0 {
			settings.Bitrate = category.Bitrate
		}
		if category.DefaultRoleID != nil {
			settings.DefaultRoleID = category.DefaultRoleID
		}
	}

	if user != nil {
		if user.ChannelName != nil && *user.ChannelName != "" {
			settings.Name = *user.ChannelName
		}
		if user.ChannelLimit != nil {
			settings.Limit = *user.ChannelLimit
		}
		if user.Bitrate != nil && *user.Bitrate > 0 {
			settings.Bitrate = *user.Bitrate
		}
	}

	return settings
}

// LockTarget returns the role a lock applies to: the default role or @everyone
func LockTarget(settings *models.ChannelSettings, guildID int64) int64 {
	if settings != nil && settings.DefaultRoleID != nil {
		return *settings.DefaultRoleID
	}
	// @everyone shares the guild's id
	return guildID
}
