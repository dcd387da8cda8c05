package testutil

import (
	"time"

	"voicecreate/models"
)

// CreateTestCategorySettings returns category defaults with a limit, lock and bitrate
func CreateTestCategorySettings(guildID, categoryID int64) *models.CategorySettings {
	return &models.CategorySettings{
		GuildID:       guildID,
		CategoryID:    categoryID,
		ChannelLimit:  5,
		ChannelLocked: true,
		Bitrate:       32,
		AutoName:      true,
	}
}

// CreateTestCreateChannel returns a create channel registered by ownerID
func CreateTestCreateChannel(guildID, voiceChannelID, categoryID, ownerID int64) *models.CreateChannel {
	return &models.CreateChannel{
		GuildID:        guildID,
		VoiceChannelID: voiceChannelID,
		CategoryID:     categoryID,
		OwnerID:        ownerID,
	}
}

// CreateTestGuildConfig returns a guild config with one prefix and no admin roles
func CreateTestGuildConfig(guildID int64) *models.GuildConfig {
	return &models.GuildConfig{
		GuildID:      guildID,
		AdminRoleIDs: []int64{},
		Prefixes:     []string{"!"},
		Language:     "en-us",
	}
}

// CreateTestMember returns a known member with matching names
func CreateTestMember(guildID, userID int64, name string) *models.KnownMember {
	return &models.KnownMember{
		GuildID:     guildID,
		UserID:      userID,
		Username:    name,
		DisplayName: name,
		UpdatedAt:   time.Now(),
	}
}
