package bot

import (
	"errors"
	"fmt"

	"voicecreate/gateway"
	"voicecreate/models"

	"github.com/bwmarrin/discordgo"
)

// DecodeVoiceState turns a voice state update into a VoiceStateChange. The
// previous channel comes from the cached state discordgo attaches as
// BeforeUpdate; without one the member is treated as newly connected.
func DecodeVoiceState(v *discordgo.VoiceStateUpdate) (models.VoiceStateChange, error) {
	var change models.VoiceStateChange
	if v.VoiceState == nil {
		return change, errors.New("voice state update without state")
	}

	var err error
	if change.GuildID, err = gateway.ParseID(v.GuildID); err != nil {
		return change, fmt.Errorf("failed to parse guild id: %w", err)
	}
	if change.UserID, err = gateway.ParseID(v.UserID); err != nil {
		return change, fmt.Errorf("failed to parse user id: %w", err)
	}
	if change.AfterChannelID, err = gateway.ParseID(v.ChannelID); err != nil {
		return change, fmt.Errorf("failed to parse channel id: %w", err)
	}
	if v.BeforeUpdate != nil {
		if change.BeforeChannelID, err = gateway.ParseID(v.BeforeUpdate.ChannelID); err != nil {
			return change, fmt.Errorf("failed to parse previous channel id: %w", err)
		}
	}

	if v.Member != nil && v.Member.User != nil {
		change.DisplayName = gateway.DisplayName(v.Member)
	}

	return change, nil
}

// knownMember builds the record kept for listings, nil for bots or partial members
func knownMember(guildID int64, member *discordgo.Member) *models.KnownMember {
	if member == nil || member.User == nil || member.User.Bot {
		return nil
	}
	userID, err := gateway.ParseID(member.User.ID)
	if err != nil {
		return nil
	}
	return &models.KnownMember{
		GuildID:     guildID,
		UserID:      userID,
		Username:    member.User.Username,
		DisplayName: gateway.DisplayName(member),
	}
}
