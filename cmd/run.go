package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"voicecreate/bot"
	"voicecreate/config"
	"voicecreate/database"
	"voicecreate/events"
	"voicecreate/gateway"
	"voicecreate/observability"
	"voicecreate/repository"
	"voicecreate/service"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the level and formatter from configuration
func ConfigureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)
	log.SetLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	log.Info("Starting voicecreate bot...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics.SubscribeToBus(eventBus)

	// Initialize NATS publishing when configured
	var natsClient *events.NATSClient
	if cfg.NATSServers != "" {
		log.Infof("Connecting to NATS at %s...", cfg.NATSServers)
		natsClient = events.NewNATSClient(cfg.NATSServers)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := natsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher := events.NewNATSEventPublisher(natsClient, cfg.NATSSubjectPrefix)
		publisher.OnPublished = metrics.RecordNATSMessagePublished
		publisher.SubscribeTo(eventBus)
		log.Info("NATS event publishing enabled")
	}

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize Discord session and gateway adapter
	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	retry := gateway.DefaultRetryOptions()
	retry.MaxRetries = cfg.GatewayMaxRetries
	retry.OnRetry = metrics.RecordGatewayRetry
	channelGateway := gateway.New(session, retry)

	// Initialize services
	log.Info("Initializing services...")
	store := service.NewTrackingStore(uowFactory)
	resolver := service.NewSettingsResolver(uowFactory)
	admins := service.NewAccessService(uowFactory, channelGateway, cfg.BotOwnerIDs)
	guilds := service.NewGuildConfigService(uowFactory, service.GuildDefaults{
		Prefixes: cfg.DefaultPrefixes,
		Language: cfg.Language,
	})
	ownership := service.NewOwnershipService(store, channelGateway, admins)
	control := service.NewChannelControlService(uowFactory, store, ownership, channelGateway, resolver, admins)
	engine := service.NewLifecycleEngine(channelGateway, store, resolver, guilds, eventBus, service.LifecycleConfig{
		CleanupDelay:       cfg.CleanupDelay,
		CreateTextChannels: cfg.CreateTextChannels,
		WelcomeMessage:     cfg.WelcomeMessage,
		OnSweep:            metrics.RecordSweep,
	})
	log.Info("Services initialized successfully")

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot := bot.New(bot.Config{
		PromptTimeout:     cfg.PromptTimeout,
		ReconcileInterval: cfg.ReconcileInterval,
	}, session, bot.Services{
		Ownership: ownership,
		Control:   control,
		Store:     store,
		Guilds:    guilds,
		Admins:    admins,
		Gateway:   channelGateway,
		Engine:    engine,
	}, metrics)
	if err := discordBot.Start(ctx); err != nil {
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down bot...")

	// Close Discord bot connection
	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	// Let pending sweeps finish before the database goes away
	engine.Close()

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Errorf("Error closing NATS connection: %v", err)
		}
	}

	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Shutdown completed")
	return nil
}
