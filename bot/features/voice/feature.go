package voice

import (
	"context"
	"time"

	"voicecreate/bot/common"
	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const commandTimeout = 30 * time.Second

// Feature handles the /voice commands used by channel owners and admins
type Feature struct {
	ownership service.OwnershipService
	control   service.ChannelControlService
	store     service.TrackingStore
	guilds    service.GuildConfigService
	admins    service.AdminChecker
	gateway   service.ChannelGateway
}

// NewFeature creates a new voice feature instance
func NewFeature(
	ownership service.OwnershipService,
	control service.ChannelControlService,
	store service.TrackingStore,
	guilds service.GuildConfigService,
	admins service.AdminChecker,
	gateway service.ChannelGateway,
) *Feature {
	return &Feature{
		ownership: ownership,
		control:   control,
		store:     store,
		guilds:    guilds,
		admins:    admins,
		gateway:   gateway,
	}
}

// HandleCommand defers the interaction and routes it to Execute
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring voice command: %v", err)
		return
	}

	cc, err := common.NewCommandContext(s, i)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	path, opts := common.SubcommandOptions(i.ApplicationCommandData().Options)
	if len(path) == 0 {
		return
	}

	reply := &common.InteractionReplier{Session: s, Interaction: i, Ephemeral: true}
	if err := f.Execute(ctx, cc, path[0], opts, reply); err != nil {
		common.HandleError(s, i, err, true)
	}
}

// Execute runs one /voice subcommand
func (f *Feature) Execute(ctx context.Context, cc common.CommandContext, subcommand string, opts common.Options, reply common.Replier) error {
	switch subcommand {
	case "owner":
		return f.handleOwner(ctx, cc, opts, reply)
	case "claim":
		return f.handleClaim(ctx, cc, reply)
	case "permit":
		return f.handlePermit(ctx, cc, opts, reply)
	case "reject":
		return f.handleReject(ctx, cc, opts, reply)
	case "lock", "unlock", "mute", "unmute":
		return f.handleToggle(ctx, cc, subcommand, opts, reply)
	case "limit":
		return f.handleLimit(ctx, cc, opts, reply)
	case "bitrate":
		return f.handleBitrate(ctx, cc, opts, reply)
	case "name":
		return f.handleName(ctx, cc, opts, reply)
	case "whoowns":
		return f.handleWhoOwns(ctx, cc, opts, reply)
	case "rename":
		return f.handleRename(ctx, cc, opts, reply)
	case "channels":
		return f.handleChannels(ctx, cc, reply)
	case "track":
		return f.handleTrack(ctx, cc, reply)
	case "track-text":
		return f.handleTrackText(ctx, cc, opts, reply)
	default:
		return common.NewUserError("Unknown voice command.", "unknown voice subcommand "+subcommand)
	}
}
