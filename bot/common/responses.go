package common

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Replier sends messages back to whoever invoked a command
type Replier interface {
	Reply(content string) error
	ReplyEmbed(embed *discordgo.MessageEmbed) error
}

// Prompter waits for the next message a member sends in a channel
type Prompter interface {
	Wait(ctx context.Context, channelID, userID int64) (string, error)
}

// DeferResponse sends a deferred response to give more time for processing
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// FollowUpWithEmbed sends an embed as a follow-up message
func FollowUpWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) (*discordgo.Message, error) {
	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.FollowupMessageCreate(i.Interaction, false, params)
}

// FollowUp sends a text follow-up message
func FollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) (*discordgo.Message, error) {
	params := &discordgo.WebhookParams{Content: content}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.FollowupMessageCreate(i.Interaction, false, params)
}

// InteractionReplier replies through follow-ups to an already deferred interaction
type InteractionReplier struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Ephemeral   bool
}

func (r *InteractionReplier) Reply(content string) error {
	_, err := FollowUp(r.Session, r.Interaction, content, r.Ephemeral)
	return err
}

func (r *InteractionReplier) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := FollowUpWithEmbed(r.Session, r.Interaction, embed, r.Ephemeral)
	return err
}
