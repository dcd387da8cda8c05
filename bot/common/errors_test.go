package common

import (
	"errors"
	"fmt"
	"testing"

	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestFromServiceError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		userMessage string
		system      bool
	}{
		{
			name:        "permission denied",
			err:         fmt.Errorf("failed to lock: %w", service.ErrPermissionDenied),
			userMessage: "You must own this channel or be a bot admin to do that.",
		},
		{
			name:        "owner still present",
			err:         service.ErrOwnerStillPresent,
			userMessage: "The owner is still in the channel, so it cannot be claimed.",
		},
		{
			name:        "untracked channel",
			err:         fmt.Errorf("channel 5 is not tracked: %w", service.ErrNotFound),
			userMessage: "That channel is not managed by the bot.",
		},
		{
			name:        "invalid input keeps detail",
			err:         fmt.Errorf("limit must be between 0 and 99: %w", service.ErrInvalidInput),
			userMessage: "Limit must be between 0 and 99.",
		},
		{
			name:        "bare invalid input",
			err:         service.ErrInvalidInput,
			userMessage: "That value is not valid.",
		},
		{
			name:        "prompt timeout",
			err:         ErrPromptTimeout,
			userMessage: "Timed out waiting for your reply.",
		},
		{
			name:        "gateway outage",
			err:         fmt.Errorf("move member: %w", service.ErrGatewayUnavailable),
			userMessage: "Discord is not responding right now. Please try again in a moment.",
		},
		{
			name:        "unexpected error hides detail",
			err:         errors.New("pq: connection reset"),
			userMessage: genericFailure,
			system:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			botErr := FromServiceError(tt.err, "command failed")
			assert.Equal(t, tt.userMessage, botErr.UserMessage)
			assert.True(t, botErr.Ephemeral)
			assert.ErrorIs(t, botErr, tt.err)
			if tt.system {
				assert.NotContains(t, botErr.UserMessage, "pq")
			}
		})
	}
}

func TestFromServiceError_PassesBotErrorThrough(t *testing.T) {
	original := NewUserError("Join a voice channel first.", "member not in a voice channel")
	wrapped := fmt.Errorf("voice lock: %w", original)

	assert.Same(t, original, FromServiceError(wrapped, "ignored"))
}

func TestCommandName(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "setup",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "admin-role",
				Type: discordgo.ApplicationCommandOptionSubCommandGroup,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{{
					Name: "add",
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandInteractionDataOption{{
						Name:  "role",
						Type:  discordgo.ApplicationCommandOptionRole,
						Value: "70",
					}},
				}},
			}},
		},
	}}

	assert.Equal(t, "setup admin-role add", CommandName(i))

	path, opts := SubcommandOptions(i.ApplicationCommandData().Options)
	assert.Equal(t, []string{"admin-role", "add"}, path)
	roleID, ok := opts.ID("role")
	assert.True(t, ok)
	assert.Equal(t, int64(70), roleID)
}
