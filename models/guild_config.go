package models

import (
	"time"
)

// GuildConfig represents per-guild bot configuration
type GuildConfig struct {
	GuildID       int64     `db:"guild_id"`
	AdminRoleIDs  []int64   `db:"admin_role_ids"`
	Prefixes      []string  `db:"prefixes"`
	DefaultRoleID *int64    `db:"default_role_id"`
	Language      string    `db:"language"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// HasAdminRole reports whether any of roleIDs is a configured admin role
func (c *GuildConfig) HasAdminRole(roleIDs []int64) bool {
	for _, have := range roleIDs {
		for _, admin := range c.AdminRoleIDs {
			if have == admin {
				return true
			}
		}
	}
	return false
}

// CreateChannel is a voice channel that provisions a new channel when joined
type CreateChannel struct {
	GuildID        int64     `db:"guild_id"`
	VoiceChannelID int64     `db:"voice_channel_id"`
	CategoryID     int64     `db:"category_id"`
	OwnerID        int64     `db:"user_id"`
	UseStage       bool      `db:"use_stage"`
	CreatedAt      time.Time `db:"created_at"`
}

// KnownMember caches the names of members the bot has seen
type KnownMember struct {
	GuildID     int64     `db:"guild_id"`
	UserID      int64     `db:"user_id"`
	Username    string    `db:"username"`
	DisplayName string    `db:"display_name"`
	UpdatedAt   time.Time `db:"updated_at"`
}
