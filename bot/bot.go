package bot

import (
	"context"
	"fmt"
	"time"

	"voicecreate/bot/common"
	"voicecreate/bot/features/setup"
	"voicecreate/bot/features/voice"
	"voicecreate/models"
	"voicecreate/observability"
	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Intents the bot needs: guild and voice state caches for the lifecycle,
// members for display names, and message content for prompt replies
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent

// Config holds bot configuration
type Config struct {
	PromptTimeout     time.Duration
	ReconcileInterval time.Duration
}

// Engine is the part of the lifecycle engine driven by gateway events
type Engine interface {
	HandleVoiceStateUpdate(ctx context.Context, change models.VoiceStateChange)
	Sweep(ctx context.Context, guildID int64) (int, error)
	Reconcile(ctx context.Context, guildIDs []int64) int
}

// Services groups what the features and event handlers call into
type Services struct {
	Ownership service.OwnershipService
	Control   service.ChannelControlService
	Store     service.TrackingStore
	Guilds    service.GuildConfigService
	Admins    service.AdminChecker
	Gateway   service.ChannelGateway
	Engine    Engine
}

// Bot manages the Discord session and all feature modules
type Bot struct {
	// Core components
	config   Config
	session  *discordgo.Session
	services Services
	prompts  *PromptWaiter
	metrics  *observability.MetricsProvider

	// Feature modules
	voice *voice.Feature
	setup *setup.Feature

	// Worker cleanup functions
	stopReconcileWorker func()
}

// NewSession creates the discordgo session with the bot's intents. It is
// created before the bot so the gateway adapter can share it.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = Intents
	dg.StateEnabled = true
	dg.State.TrackVoice = true
	dg.State.TrackMembers = true
	dg.State.TrackChannels = true
	dg.State.TrackRoles = true
	return dg, nil
}

// New creates a bot with all features and registers its handlers. Call Start
// to connect.
func New(config Config, session *discordgo.Session, services Services, metrics *observability.MetricsProvider) *Bot {
	prompts := NewPromptWaiter(config.PromptTimeout)

	bot := &Bot{
		config:   config,
		session:  session,
		services: services,
		prompts:  prompts,
		metrics:  metrics,
	}

	// Create feature modules
	bot.voice = voice.NewFeature(services.Ownership, services.Control, services.Store, services.Guilds, services.Admins, services.Gateway)
	bot.setup = setup.NewFeature(services.Guilds, services.Admins, services.Gateway, prompts, config.PromptTimeout)

	// Register handlers
	session.AddHandler(bot.handleReady)
	session.AddHandler(bot.handleGuildCreate)
	session.AddHandler(bot.handleGuildUpdate)
	session.AddHandler(bot.handleGuildMemberAdd)
	session.AddHandler(bot.handleGuildMemberUpdate)
	session.AddHandler(bot.handleVoiceStateUpdate)
	session.AddHandler(bot.handleCommands)
	session.AddHandler(bot.handleMessageCreate)

	return bot
}

// Start opens the websocket, registers slash commands and starts workers
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}

	b.stopReconcileWorker = b.StartReconcileWorker(ctx)
	log.Info("Background workers started")

	return nil
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	if b.stopReconcileWorker != nil {
		b.stopReconcileWorker()
	}
	log.Info("Background workers stopped")

	return b.session.Close()
}

// handleCommands routes slash commands to the feature that owns them
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "voice":
		b.voice.HandleCommand(s, i)
	case "setup":
		b.setup.HandleCommand(s, i)
	default:
		return
	}

	b.metrics.RecordCommand(observability.CommandTypeSlash, common.CommandName(i))
}
