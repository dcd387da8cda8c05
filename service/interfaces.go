package service

import (
	"context"

	"voicecreate/events"
	"voicecreate/models"
)

// TrackedChannelRepository defines data access for tracked voice/text channels.
// Implementations are scoped to a single guild.
type TrackedChannelRepository interface {
	// CreateVoiceChannel inserts a voice record; returns false if one already exists
	CreateVoiceChannel(ctx context.Context, ownerID, voiceChannelID int64) (bool, error)

	// CreateTextChannel inserts a pairing; returns false if the voice channel is
	// already paired or the text channel is paired elsewhere
	CreateTextChannel(ctx context.Context, ownerID, voiceChannelID, textChannelID int64) (bool, error)

	// GetVoiceChannel returns the voice record or nil
	GetVoiceChannel(ctx context.Context, voiceChannelID int64) (*models.TrackedVoiceChannel, error)

	// GetTextChannel returns the pairing for a voice channel or nil
	GetTextChannel(ctx context.Context, voiceChannelID int64) (*models.TrackedTextChannel, error)

	// GetTextChannelByTextID returns the pairing for a text channel or nil
	GetTextChannelByTextID(ctx context.Context, textChannelID int64) (*models.TrackedTextChannel, error)

	// CompareAndSetOwner moves ownership of the voice record and its pairing from
	// fromOwnerID to toOwnerID; returns false when the voice owner was not fromOwnerID
	CompareAndSetOwner(ctx context.Context, voiceChannelID, fromOwnerID, toOwnerID int64) (bool, error)

	// LockForTeardown row-locks whatever records exist for the pair
	LockForTeardown(ctx context.Context, voiceChannelID int64, textChannelID *int64) (*models.TrackedVoiceChannel, *models.TrackedTextChannel, error)

	// DeletePair removes the voice record and any pairing by voice or text id
	DeletePair(ctx context.Context, voiceChannelID int64, textChannelID *int64) error

	// RecordHistory appends a teardown history row
	RecordHistory(ctx context.Context, history *models.TrackedChannelHistory) error

	// GetHistory returns the history rows for a voice channel, oldest first
	GetHistory(ctx context.Context, voiceChannelID int64) ([]*models.TrackedChannelHistory, error)

	ListVoiceChannels(ctx context.Context) ([]*models.TrackedVoiceChannel, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.TrackedVoiceChannel, error)
	ListTextChannels(ctx context.Context) ([]*models.TrackedTextChannel, error)

	// GetGuildsWithTrackedChannels ignores the guild scope
	GetGuildsWithTrackedChannels(ctx context.Context) ([]int64, error)
}

// CategorySettingsRepository defines data access for per-category defaults
type CategorySettingsRepository interface {
	// Get returns the settings for a category or nil
	Get(ctx context.Context, categoryID int64) (*models.CategorySettings, error)

	// Upsert replaces the settings for a category
	Upsert(ctx context.Context, settings *models.CategorySettings) error
}

// UserSettingsRepository defines data access for per-member channel preferences
type UserSettingsRepository interface {
	// Get returns the member's settings or nil
	Get(ctx context.Context, userID int64) (*models.UserSettings, error)

	// Upsert writes the non-nil fields of settings and keeps the rest
	Upsert(ctx context.Context, settings *models.UserSettings) error
}

// GuildConfigRepository defines data access for guild configuration
type GuildConfigRepository interface {
	// Get returns the guild's config or nil
	Get(ctx context.Context) (*models.GuildConfig, error)

	// GetOrCreate returns the guild's config, inserting defaults when missing
	GetOrCreate(ctx context.Context, defaults *models.GuildConfig) (*models.GuildConfig, error)

	// Update persists every field of config
	Update(ctx context.Context, config *models.GuildConfig) error
}

// CreateChannelRepository defines data access for the guild's create channels
type CreateChannelRepository interface {
	Add(ctx context.Context, channel *models.CreateChannel) error
	Get(ctx context.Context, voiceChannelID int64) (*models.CreateChannel, error)
	List(ctx context.Context) ([]*models.CreateChannel, error)

	// Remove returns false if the channel was not a create channel
	Remove(ctx context.Context, voiceChannelID int64) (bool, error)
}

// MemberRepository defines data access for known guild members
type MemberRepository interface {
	Upsert(ctx context.Context, member *models.KnownMember) error
	Get(ctx context.Context, userID int64) (*models.KnownMember, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction; safe to call after Commit
	Rollback() error

	// Repository getters
	TrackedChannelRepository() TrackedChannelRepository
	CategorySettingsRepository() CategorySettingsRepository
	UserSettingsRepository() UserSettingsRepository
	GuildConfigRepository() GuildConfigRepository
	CreateChannelRepository() CreateChannelRepository
	MemberRepository() MemberRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForGuild creates a new UnitOfWork instance scoped to a specific guild
	CreateForGuild(guildID int64) UnitOfWork
}

// ChannelGateway is the outbound side of the chat platform. Every method treats
// a missing channel as ErrNotFound except DeleteChannel, which returns nil.
type ChannelGateway interface {
	CreateVoiceChannel(ctx context.Context, guildID, categoryID int64, name string, bitrate, userLimit int, stage bool) (int64, error)
	CreateTextChannel(ctx context.Context, guildID, categoryID int64, name string) (int64, error)
	CreateCategory(ctx context.Context, guildID int64, name string) (int64, error)
	EditChannel(ctx context.Context, channelID int64, edit models.ChannelEdit) error
	DeleteChannel(ctx context.Context, channelID int64) error
	SetPermissionOverwrite(ctx context.Context, channelID int64, overwrite models.PermissionOverwrite) error
	MoveMember(ctx context.Context, guildID, userID, channelID int64) error
	DisconnectMember(ctx context.Context, guildID, userID int64) error

	// ChannelMemberIDs lists members currently connected to a voice channel
	ChannelMemberIDs(ctx context.Context, guildID, channelID int64) ([]int64, error)

	// ChannelParentID returns the category of a channel, 0 when it has none
	ChannelParentID(ctx context.Context, channelID int64) (int64, error)

	GuildMember(ctx context.Context, guildID, userID int64) (*models.MemberInfo, error)

	// GuildBitrateLimit returns the guild's maximum voice bitrate in kbps
	GuildBitrateLimit(ctx context.Context, guildID int64) (int, error)

	SendMessage(ctx context.Context, channelID int64, content string) error
}

// SettingsResolver computes effective channel settings
type SettingsResolver interface {
	// Resolve never fails; missing or unreadable layers fall through to defaults
	Resolve(ctx context.Context, guildID, categoryID, userID int64, displayName string) *models.ChannelSettings
}

// TrackingStore records tracked channels. Every operation runs in its own
// transaction and is safe to retry.
type TrackingStore interface {
	// CreateVoiceChannel fails with ErrDuplicateKey if the channel is already tracked
	CreateVoiceChannel(ctx context.Context, guildID, ownerID, voiceChannelID int64) error

	// PairTextChannel fails with ErrNotFound without a voice record and
	// ErrAlreadyPaired when a pairing exists
	PairTextChannel(ctx context.Context, guildID, ownerID, voiceChannelID, textChannelID int64) error

	// GetOwner looks up by voice id, then text id; nil means untracked
	GetOwner(ctx context.Context, guildID, channelID int64) (*int64, error)

	// TransferOwnership is a no-op when the owner is already toOwnerID
	TransferOwnership(ctx context.Context, guildID, voiceChannelID, fromOwnerID, toOwnerID int64) error

	// Teardown writes history then deletes whatever records exist. It returns
	// nil history when nothing was tracked.
	Teardown(ctx context.Context, guildID, voiceChannelID int64, textChannelID *int64) (*models.TrackedChannelHistory, error)

	GetTextChannel(ctx context.Context, guildID, voiceChannelID int64) (*models.TrackedTextChannel, error)
	ListTrackedVoiceChannelIDs(ctx context.Context, guildID int64) ([]int64, error)
	ListByOwner(ctx context.Context, guildID, ownerID int64) ([]*models.TrackedVoiceChannel, error)
	ListTrackedChannels(ctx context.Context, guildID int64) ([]*models.TrackedChannel, error)
	ListGuildIDs(ctx context.Context) ([]int64, error)
}

// AdminChecker answers whether a member may administer the bot in a guild
type AdminChecker interface {
	IsAdmin(ctx context.Context, guildID, userID int64) (bool, error)
}

// CreateChannelProvider looks up create channels for the lifecycle engine
type CreateChannelProvider interface {
	GetCreateChannel(ctx context.Context, guildID, voiceChannelID int64) (*models.CreateChannel, error)
}

// GuildConfigService manages guild configuration, category settings and create channels
type GuildConfigService interface {
	CreateChannelProvider

	// EnsureGuild creates the guild's config on first sight
	EnsureGuild(ctx context.Context, guildID int64) (*models.GuildConfig, error)
	GetGuildConfig(ctx context.Context, guildID int64) (*models.GuildConfig, error)

	AddAdminRole(ctx context.Context, guildID, roleID int64) error
	RemoveAdminRole(ctx context.Context, guildID, roleID int64) error
	SetPrefixes(ctx context.Context, guildID int64, prefixes []string) error
	SetDefaultRole(ctx context.Context, guildID int64, roleID *int64) error
	SetLanguage(ctx context.Context, guildID int64, language string) error

	GetCategorySettings(ctx context.Context, guildID, categoryID int64) (*models.CategorySettings, error)
	SetCategorySettings(ctx context.Context, settings *models.CategorySettings) error

	AddCreateChannel(ctx context.Context, channel *models.CreateChannel) error
	RemoveCreateChannel(ctx context.Context, guildID, voiceChannelID int64) error
	ListCreateChannels(ctx context.Context, guildID int64) ([]*models.CreateChannel, error)

	// TrackMember records the names of a member for listings
	TrackMember(ctx context.Context, member *models.KnownMember) error
	GetMember(ctx context.Context, guildID, userID int64) (*models.KnownMember, error)
}

// OwnershipService handles transfer, claim and access requests on tracked channels
type OwnershipService interface {
	Claim(ctx context.Context, guildID, voiceChannelID, claimantID int64) error
	Transfer(ctx context.Context, guildID, voiceChannelID, requesterID, newOwnerID int64) error
	GrantAccess(ctx context.Context, guildID, voiceChannelID, requesterID int64, target models.Principal) error
	DenyAccess(ctx context.Context, guildID, voiceChannelID, requesterID int64, target models.Principal) error

	// WhoOwns resolves voice or text channel ids; ErrNotFound when untracked
	WhoOwns(ctx context.Context, guildID, channelID int64) (int64, error)

	// Authorize returns the owner when requester is the owner or an admin
	Authorize(ctx context.Context, guildID, voiceChannelID, requesterID int64) (int64, error)
}

// ChannelControlService changes settings of a tracked channel on behalf of its owner
type ChannelControlService interface {
	Lock(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error
	Unlock(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error
	Mute(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error
	Unmute(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error
	SetLimit(ctx context.Context, guildID, voiceChannelID, requesterID int64, limit int) error

	// SetBitrate returns the applied bitrate in kbps after clamping
	SetBitrate(ctx context.Context, guildID, voiceChannelID, requesterID int64, kbps int) (int, error)

	// Rename with force set is the admin rename that leaves saved preferences alone
	Rename(ctx context.Context, guildID, voiceChannelID, requesterID int64, name string, force bool) error
}
