package setup

import (
	"context"
	"fmt"
	"time"

	"voicecreate/bot/common"
	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultCreateChannelName is used when /setup create-channel gets no name
	DefaultCreateChannelName = "CREATE CHANNEL 🔊"

	createChannelBitrate = 64000
)

// Feature handles the admin-only /setup commands
type Feature struct {
	guilds        service.GuildConfigService
	admins        service.AdminChecker
	gateway       service.ChannelGateway
	prompts       common.Prompter
	promptTimeout time.Duration
}

// NewFeature creates a new setup feature instance
func NewFeature(guilds service.GuildConfigService, admins service.AdminChecker, gateway service.ChannelGateway, prompts common.Prompter, promptTimeout time.Duration) *Feature {
	return &Feature{
		guilds:        guilds,
		admins:        admins,
		gateway:       gateway,
		prompts:       prompts,
		promptTimeout: promptTimeout,
	}
}

// HandleCommand defers the interaction and routes it to Execute. The context
// outlives the prompt timeout so a member can still answer a follow-up.
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring setup command: %v", err)
		return
	}

	cc, err := common.NewCommandContext(s, i)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.promptTimeout+30*time.Second)
	defer cancel()

	path, opts := common.SubcommandOptions(i.ApplicationCommandData().Options)
	reply := &common.InteractionReplier{Session: s, Interaction: i, Ephemeral: true}
	if err := f.Execute(ctx, cc, path, opts, reply); err != nil {
		common.HandleError(s, i, err, true)
	}
}

// Execute runs one /setup subcommand. path holds the subcommand group and
// subcommand names.
func (f *Feature) Execute(ctx context.Context, cc common.CommandContext, path []string, opts common.Options, reply common.Replier) error {
	if len(path) == 0 {
		return common.NewUserError("Pick a setup command.", "setup without subcommand")
	}

	isAdmin, err := f.admins.IsAdmin(ctx, cc.GuildID, cc.ActingUserID)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if !isAdmin {
		return common.NewUserError("You are not an administrator of the bot. You cannot use this command.", "setup denied")
	}

	switch path[0] {
	case "create-channel":
		return f.handleCreateChannel(ctx, cc, opts, reply)
	case "remove-channel":
		return f.handleRemoveChannel(ctx, cc, opts, reply)
	case "list":
		return f.handleList(ctx, cc, reply)
	case "category":
		return f.handleCategory(ctx, cc, opts, reply)
	case "admin-role":
		if len(path) < 2 {
			return common.NewUserError("Choose add or remove.", "admin-role without action")
		}
		return f.handleAdminRole(ctx, cc, path[1], opts, reply)
	case "prefix":
		return f.handlePrefix(ctx, cc, opts, reply)
	case "default-role":
		return f.handleDefaultRole(ctx, cc, opts, reply)
	case "language":
		return f.handleLanguage(ctx, cc, opts, reply)
	default:
		return common.NewUserError("Unknown setup command.", "unknown setup subcommand "+path[0])
	}
}
