package models

import (
	"time"
)

// TrackedVoiceChannel is a bot-provisioned voice channel and its current owner
type TrackedVoiceChannel struct {
	GuildID        int64     `db:"guild_id"`
	VoiceChannelID int64     `db:"voice_channel_id"`
	OwnerID        int64     `db:"user_id"`
	CreatedAt      time.Time `db:"created_at"`
}

// TrackedTextChannel is the text channel paired 1:1 with a tracked voice channel
type TrackedTextChannel struct {
	GuildID        int64     `db:"guild_id"`
	VoiceChannelID int64     `db:"voice_channel_id"`
	TextChannelID  int64     `db:"text_channel_id"`
	OwnerID        int64     `db:"user_id"`
	CreatedAt      time.Time `db:"created_at"`
}

// TrackedChannelHistory is written once when a tracked pair is torn down
type TrackedChannelHistory struct {
	ID             int64     `db:"id"`
	GuildID        int64     `db:"guild_id"`
	VoiceChannelID int64     `db:"voice_channel_id"`
	TextChannelID  *int64    `db:"text_channel_id"`
	OwnerID        int64     `db:"user_id"`
	Timestamp      time.Time `db:"timestamp"`
}

// TrackedChannel joins a voice record with its optional pairing, used for listings
type TrackedChannel struct {
	Voice TrackedVoiceChannel
	Text  *TrackedTextChannel
}
