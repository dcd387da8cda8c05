package common

import (
	"fmt"

	"voicecreate/gateway"

	"github.com/bwmarrin/discordgo"
)

// CommandContext is built once per interaction. ChannelID is the voice
// channel the acting member sits in, nil when they are not connected.
type CommandContext struct {
	ActingUserID int64
	GuildID      int64
	ChannelID    *int64

	// InvokedInID is the text channel the command was used in
	InvokedInID int64
}

// NewCommandContext reads the acting member, guild and current voice channel
func NewCommandContext(s *discordgo.Session, i *discordgo.InteractionCreate) (CommandContext, error) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return CommandContext{}, NewUserError("This command only works in a server.", "command used outside a guild")
	}

	guildID, err := gateway.ParseID(i.GuildID)
	if err != nil {
		return CommandContext{}, fmt.Errorf("failed to parse guild id: %w", err)
	}
	userID, err := gateway.ParseID(i.Member.User.ID)
	if err != nil {
		return CommandContext{}, fmt.Errorf("failed to parse user id: %w", err)
	}
	invokedIn, err := gateway.ParseID(i.ChannelID)
	if err != nil {
		return CommandContext{}, fmt.Errorf("failed to parse channel id: %w", err)
	}

	cc := CommandContext{ActingUserID: userID, GuildID: guildID, InvokedInID: invokedIn}

	if vs, err := s.State.VoiceState(i.GuildID, i.Member.User.ID); err == nil && vs.ChannelID != "" {
		channelID, err := gateway.ParseID(vs.ChannelID)
		if err != nil {
			return CommandContext{}, fmt.Errorf("failed to parse voice channel id: %w", err)
		}
		cc.ChannelID = &channelID
	}

	return cc, nil
}

// RequireVoiceChannel returns the member's voice channel or a user error
func (c CommandContext) RequireVoiceChannel() (int64, error) {
	if c.ChannelID == nil {
		return 0, NewUserError("Join a voice channel first.", "member not in a voice channel")
	}
	return *c.ChannelID, nil
}
