package common

import (
	"errors"
	"fmt"
	"strings"

	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// ErrPromptTimeout is returned when a member does not answer a prompt in time
var ErrPromptTimeout = errors.New("prompt timed out")

const genericFailure = "Something went wrong. Please try again later."

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string      // Message shown to Discord user
	LogMessage  string      // Internal message for logging
	Ephemeral   bool        // Whether the error message should be ephemeral
	Err         error       // Underlying error
	Context     interface{} // Additional context for logging
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (permissions, bad values, wrong channel)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
	}
}

// NewSystemError creates an error for system issues (database, platform outage, unexpected state)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: genericFailure,
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

// FromServiceError maps a service error onto a BotError. Errors the member can
// act on get a specific message; everything else is a system error.
func FromServiceError(err error, logMessage string) *BotError {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr
	}

	var userMessage string
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		userMessage = "You must own this channel or be a bot admin to do that."
	case errors.Is(err, service.ErrOwnerStillPresent):
		userMessage = "The owner is still in the channel, so it cannot be claimed."
	case errors.Is(err, service.ErrNotFound):
		userMessage = "That channel is not managed by the bot."
	case errors.Is(err, service.ErrAlreadyPaired):
		userMessage = "That channel already has a paired text channel."
	case errors.Is(err, service.ErrDuplicateKey):
		userMessage = "That channel is already tracked."
	case errors.Is(err, service.ErrOwnerChanged):
		userMessage = "The owner changed while you were asking. Try again."
	case errors.Is(err, service.ErrInvalidInput):
		userMessage = invalidInputMessage(err)
	case errors.Is(err, ErrPromptTimeout):
		userMessage = "Timed out waiting for your reply."
	case service.IsTransient(err):
		userMessage = "Discord is not responding right now. Please try again in a moment."
	default:
		return NewSystemError(err, logMessage)
	}

	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

// invalidInputMessage keeps the validation detail and drops the sentinel text
func invalidInputMessage(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+service.ErrInvalidInput.Error())
	if msg == "" || msg == service.ErrInvalidInput.Error() {
		return "That value is not valid."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

// RespondWithError sends an error message as an interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// FollowUpWithError sends an error message as a follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", message),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error sending follow-up error message: %v", err)
	}
}

// HandleError processes a BotError and responds appropriately
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, deferred bool) {
	botErr := FromServiceError(err, "Command failed")

	fields := log.Fields{
		"command":      CommandName(i),
		"error":        botErr.Error(),
		"user_message": botErr.UserMessage,
		"context":      botErr.Context,
	}
	if i.Member != nil && i.Member.User != nil {
		fields["user_id"] = i.Member.User.ID
	}
	entry := log.WithFields(fields)
	if botErr.UserMessage == genericFailure {
		entry.Error(botErr.LogMessage)
	} else {
		entry.Info(botErr.LogMessage)
	}

	if deferred {
		FollowUpWithError(s, i, botErr.UserMessage)
	} else {
		RespondWithError(s, i, botErr.UserMessage)
	}
}

// CommandName returns "command subcommand" for logging and metrics
func CommandName(i *discordgo.InteractionCreate) string {
	if i.Type != discordgo.InteractionApplicationCommand {
		return ""
	}
	data := i.ApplicationCommandData()
	path, _ := SubcommandOptions(data.Options)
	return strings.Join(append([]string{data.Name}, path...), " ")
}
