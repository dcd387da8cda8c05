package models

import (
	"fmt"
)

const (
	DefaultChannelLimit = 0
	DefaultBitrateKbps  = 64
	MinBitrateKbps      = 8
	MaxChannelLimit     = 99
)

// CategorySettings holds per-category defaults for provisioned channels
type CategorySettings struct {
	GuildID         int64  `db:"guild_id"`
	CategoryID      int64  `db:"voice_category_id"`
	ChannelLimit    int    `db:"channel_limit"`
	ChannelLocked   bool   `db:"channel_locked"`
	Bitrate         int    `db:"bitrate"`         // kbps
	DefaultRoleID   *int64 `db:"default_role_id"` // nil means @everyone
	AutoGame        bool   `db:"auto_game"`
	AllowSoundboard bool   `db:"allow_soundboard"`
	AutoName        bool   `db:"auto_name"`
}

// UserSettings holds a member's own channel preferences. A nil field is unset;
// a ChannelLimit of 0 is an explicit "unlimited".
type UserSettings struct {
	GuildID      int64   `db:"guild_id"`
	UserID       int64   `db:"user_id"`
	ChannelName  *string `db:"channel_name"`
	ChannelLimit *int    `db:"channel_limit"`
	Bitrate      *int    `db:"bitrate"`
}

// ChannelSettings is the effective configuration for a channel about to be provisioned
type ChannelSettings struct {
	Name          string
	Limit         int
	Bitrate       int // kbps
	Locked        bool
	DefaultRoleID *int64
}

// DefaultChannelName returns the name used when a member has not chosen one
func DefaultChannelName(displayName string) string {
	return fmt.Sprintf("%s's Channel", displayName)
}
