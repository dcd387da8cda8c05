package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voicecreate/events"
	"voicecreate/models"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultCleanupDelay is how long the engine waits after a voice-state
	// update before checking tracked channels for emptiness
	DefaultCleanupDelay = 2 * time.Second

	// maxDebounceMultiple bounds how long a busy guild can postpone its sweep
	maxDebounceMultiple = 10

	rollbackTimeout = 15 * time.Second

	DefaultWelcomeMessage = "This channel will be deleted when everyone leaves the associated voice chat."
)

// LifecycleConfig holds the engine's policy knobs
type LifecycleConfig struct {
	CleanupDelay       time.Duration
	CreateTextChannels bool
	WelcomeMessage     string

	// OnSweep, when set, is called after every sweep of a guild
	OnSweep func(guildID int64, checked, removed int, elapsed time.Duration)
}

type memberKey struct {
	guildID int64
	userID  int64
}

type pendingSweep struct {
	timer *time.Timer
	first time.Time
}

// LifecycleEngine provisions channels when members join a create channel and
// tears tracked channels down once they are empty or gone
type LifecycleEngine struct {
	gateway   ChannelGateway
	store     TrackingStore
	resolver  SettingsResolver
	creates   CreateChannelProvider
	publisher EventPublisher
	config    LifecycleConfig

	mu           sync.Mutex
	provisioning map[memberKey]struct{}
	pending      map[int64]*pendingSweep
	closed       bool
	sweeps       sync.WaitGroup
}

// NewLifecycleEngine creates a new lifecycle engine
func NewLifecycleEngine(gateway ChannelGateway, store TrackingStore, resolver SettingsResolver, creates CreateChannelProvider, publisher EventPublisher, config LifecycleConfig) *LifecycleEngine {
	if config.WelcomeMessage == "" {
		config.WelcomeMessage = DefaultWelcomeMessage
	}
	return &LifecycleEngine{
		gateway:      gateway,
		store:        store,
		resolver:     resolver,
		creates:      creates,
		publisher:    publisher,
		config:       config,
		provisioning: make(map[memberKey]struct{}),
		pending:      make(map[int64]*pendingSweep),
	}
}

// HandleVoiceStateUpdate reacts to one voice-state change. It never returns
// an error; failures are logged with guild context.
func (e *LifecycleEngine) HandleVoiceStateUpdate(ctx context.Context, change models.VoiceStateChange) {
	logger := log.WithFields(log.Fields{
		"guild_id": change.GuildID,
		"user_id":  change.UserID,
		"before":   change.BeforeChannelID,
		"after":    change.AfterChannelID,
	})

	if change.Joined() {
		create, err := e.creates.GetCreateChannel(ctx, change.GuildID, change.AfterChannelID)
		if err != nil {
			logger.WithError(err).Error("Failed to look up create channel")
		} else if create != nil {
			if _, err := e.Provision(ctx, change, create); err != nil {
				logger.WithError(err).Error("Failed to provision channel")
			}
		}
	}

	e.scheduleSweep(ctx, change.GuildID)
}

// Provision creates and records a channel pair for the member who joined
// create. It returns nil without error if a provisioning for the same member
// is already in flight.
func (e *LifecycleEngine) Provision(ctx context.Context, change models.VoiceStateChange, create *models.CreateChannel) (*models.TrackedChannel, error) {
	key := memberKey{guildID: change.GuildID, userID: change.UserID}
	if !e.beginProvisioning(key) {
		log.WithFields(log.Fields{
			"guild_id": change.GuildID,
			"user_id":  change.UserID,
		}).Debug("Provisioning already in flight for member")
		return nil, nil
	}
	defer e.endProvisioning(key)

	// A replayed or stale join must not provision again once the member has
	// been moved out of the create channel.
	present, err := e.memberPresent(ctx, change.GuildID, create.VoiceChannelID, change.UserID)
	if err != nil {
		log.WithError(err).WithField("guild_id", change.GuildID).Warn("Could not verify member presence, provisioning anyway")
	} else if !present {
		log.WithFields(log.Fields{
			"guild_id": change.GuildID,
			"user_id":  change.UserID,
		}).Debug("Member is no longer in the create channel")
		return nil, nil
	}

	p := &provisioning{engine: e, change: change, create: create}
	tracked, err := p.run(ctx)
	if err != nil {
		p.rollback(ctx)
		e.publisher.Publish(events.ProvisioningFailedEvent{
			GuildID:         change.GuildID,
			UserID:          change.UserID,
			CreateChannelID: create.VoiceChannelID,
			Stage:           p.stage,
			Reason:          err.Error(),
		})
		return nil, fmt.Errorf("failed to %s: %w", p.stage, err)
	}

	var textID *int64
	if tracked.Text != nil {
		id := tracked.Text.TextChannelID
		textID = &id
	}
	e.publisher.Publish(events.ChannelProvisionedEvent{
		GuildID:         change.GuildID,
		OwnerID:         change.UserID,
		CreateChannelID: create.VoiceChannelID,
		VoiceChannelID:  tracked.Voice.VoiceChannelID,
		TextChannelID:   textID,
		Locked:          p.settings.Locked,
	})

	logger := log.WithFields(log.Fields{
		"guild_id":         change.GuildID,
		"owner_id":         change.UserID,
		"voice_channel_id": tracked.Voice.VoiceChannelID,
	})
	if textID != nil {
		logger = logger.WithField("text_channel_id", *textID)
	}
	logger.Info("Provisioned channel")

	if textID != nil {
		if err := e.gateway.SendMessage(ctx, *textID, e.config.WelcomeMessage); err != nil {
			log.WithError(err).WithField("text_channel_id", *textID).Warn("Failed to send welcome message")
		}
	}

	return tracked, nil
}

func (e *LifecycleEngine) memberPresent(ctx context.Context, guildID, channelID, userID int64) (bool, error) {
	members, err := e.gateway.ChannelMemberIDs(ctx, guildID, channelID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, id := range members {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (e *LifecycleEngine) beginProvisioning(key memberKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.provisioning[key]; busy {
		return false
	}
	e.provisioning[key] = struct{}{}
	return true
}

func (e *LifecycleEngine) endProvisioning(key memberKey) {
	e.mu.Lock()
	delete(e.provisioning, key)
	e.mu.Unlock()
}

// provisioning carries one run of the Provisioning state so a failure can
// undo exactly what was created
type provisioning struct {
	engine   *LifecycleEngine
	change   models.VoiceStateChange
	create   *models.CreateChannel
	settings *models.ChannelSettings
	stage    string

	voiceID       int64
	textID        int64
	voiceRecorded bool
}

func (p *provisioning) run(ctx context.Context) (*models.TrackedChannel, error) {
	e := p.engine
	guildID, userID := p.change.GuildID, p.change.UserID

	p.stage = "resolve settings"
	p.settings = e.resolver.Resolve(ctx, guildID, p.create.CategoryID, userID, p.change.DisplayName)
	if maxKbps, err := e.gateway.GuildBitrateLimit(ctx, guildID); err == nil {
		p.settings.Bitrate = ClampBitrate(p.settings.Bitrate, maxKbps)
	}

	p.stage = "create voice channel"
	voiceID, err := e.gateway.CreateVoiceChannel(ctx, guildID, p.create.CategoryID, p.settings.Name, p.settings.Bitrate*1000, p.settings.Limit, p.create.UseStage)
	if err != nil {
		return nil, err
	}
	p.voiceID = voiceID

	if e.config.CreateTextChannels {
		p.stage = "create text channel"
		textID, err := e.gateway.CreateTextChannel(ctx, guildID, p.create.CategoryID, TextChannelName(p.settings.Name))
		if err != nil {
			return nil, err
		}
		p.textID = textID
	}

	p.stage = "set permissions"
	if err := p.applyPermissions(ctx); err != nil {
		return nil, err
	}

	p.stage = "move member"
	if err := e.gateway.MoveMember(ctx, guildID, userID, p.voiceID); err != nil {
		return nil, err
	}

	p.stage = "record voice channel"
	if err := e.store.CreateVoiceChannel(ctx, guildID, userID, p.voiceID); err != nil {
		return nil, err
	}
	p.voiceRecorded = true

	now := time.Now().UTC()
	tracked := &models.TrackedChannel{
		Voice: models.TrackedVoiceChannel{GuildID: guildID, VoiceChannelID: p.voiceID, OwnerID: userID, CreatedAt: now},
	}

	if p.textID != 0 {
		p.stage = "record text channel"
		if err := e.store.PairTextChannel(ctx, guildID, userID, p.voiceID, p.textID); err != nil {
			return nil, err
		}
		tracked.Text = &models.TrackedTextChannel{
			GuildID: guildID, VoiceChannelID: p.voiceID, TextChannelID: p.textID, OwnerID: userID, CreatedAt: now,
		}
	}

	return tracked, nil
}

// applyPermissions grants the owner control of both channels and, when locked,
// hides them from the lock role
func (p *provisioning) applyPermissions(ctx context.Context) error {
	e := p.engine
	owner := models.MemberPrincipal(p.change.UserID)

	if err := e.gateway.SetPermissionOverwrite(ctx, p.voiceID, models.PermissionOverwrite{
		Target: owner,
		Allow:  models.OwnerVoicePermissions,
	}); err != nil {
		return err
	}
	if p.textID != 0 {
		if err := e.gateway.SetPermissionOverwrite(ctx, p.textID, models.PermissionOverwrite{
			Target: owner,
			Allow:  models.OwnerTextPermissions,
		}); err != nil {
			return err
		}
	}

	if !p.settings.Locked {
		return nil
	}

	lockRole := models.RolePrincipal(LockTarget(p.settings, p.change.GuildID))
	if err := e.gateway.SetPermissionOverwrite(ctx, p.voiceID, models.PermissionOverwrite{
		Target: lockRole,
		Deny:   models.PermissionConnect | models.PermissionViewChannel,
	}); err != nil {
		return err
	}
	if p.textID != 0 {
		if err := e.gateway.SetPermissionOverwrite(ctx, p.textID, models.PermissionOverwrite{
			Target: lockRole,
			Deny:   models.PermissionViewChannel | models.PermissionSendMessages,
		}); err != nil {
			return err
		}
	}
	return nil
}

// rollback best-effort deletes whatever this run created. It runs on a fresh
// context so a cancelled request still cleans up.
func (p *provisioning) rollback(ctx context.Context) {
	e := p.engine
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	logger := log.WithFields(log.Fields{
		"guild_id": p.change.GuildID,
		"user_id":  p.change.UserID,
		"stage":    p.stage,
	})

	deleted := true
	if p.textID != 0 {
		if err := e.gateway.DeleteChannel(ctx, p.textID); err != nil {
			deleted = false
			logger.WithError(err).WithField("text_channel_id", p.textID).Error("Failed to delete text channel after provisioning failure")
		}
	}
	if p.voiceID != 0 {
		if err := e.gateway.DeleteChannel(ctx, p.voiceID); err != nil {
			deleted = false
			logger.WithError(err).WithField("voice_channel_id", p.voiceID).Error("Failed to delete voice channel after provisioning failure")
		}
	}

	// a record whose channels survived stays for the sweep to reclaim
	if p.voiceRecorded && deleted {
		if _, err := e.store.Teardown(ctx, p.change.GuildID, p.voiceID, nil); err != nil {
			logger.WithError(err).Error("Failed to remove voice record after provisioning failure")
		}
	}
}

// Sweep checks every tracked voice channel in a guild and tears down the ones
// that are empty or no longer exist. It returns how many were torn down.
func (e *LifecycleEngine) Sweep(ctx context.Context, guildID int64) (int, error) {
	started := time.Now()
	ids, err := e.store.ListTrackedVoiceChannelIDs(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("failed to list tracked channels: %w", err)
	}

	removed := 0
	for _, voiceID := range ids {
		logger := log.WithFields(log.Fields{
			"guild_id":         guildID,
			"voice_channel_id": voiceID,
		})

		members, err := e.gateway.ChannelMemberIDs(ctx, guildID, voiceID)
		missing := errors.Is(err, ErrNotFound)
		if err != nil && !missing {
			logger.WithError(err).Warn("Could not check channel members, skipping")
			continue
		}
		if !missing && len(members) > 0 {
			continue
		}

		tornDown, err := e.teardown(ctx, guildID, voiceID)
		if err != nil {
			logger.WithError(err).Error("Failed to tear down channel")
			continue
		}
		if tornDown {
			removed++
			logger.WithField("missing", missing).Info("Tore down tracked channel")
		}
	}

	if e.config.OnSweep != nil {
		e.config.OnSweep(guildID, len(ids), removed, time.Since(started))
	}
	return removed, nil
}

// teardown deletes the channels first and the records last. A failed delete
// leaves the records for the next sweep; a channel already gone deletes as nil.
func (e *LifecycleEngine) teardown(ctx context.Context, guildID, voiceID int64) (bool, error) {
	paired, err := e.store.GetTextChannel(ctx, guildID, voiceID)
	if err != nil {
		return false, fmt.Errorf("failed to get paired text channel: %w", err)
	}

	if err := e.gateway.DeleteChannel(ctx, voiceID); err != nil {
		return false, fmt.Errorf("failed to delete voice channel: %w", err)
	}

	var textID *int64
	if paired != nil {
		id := paired.TextChannelID
		textID = &id
		if err := e.gateway.DeleteChannel(ctx, id); err != nil {
			return false, fmt.Errorf("failed to delete text channel: %w", err)
		}
	}

	history, err := e.store.Teardown(ctx, guildID, voiceID, textID)
	if err != nil {
		return false, err
	}
	return history != nil, nil
}

// Reconcile sweeps the given guilds plus every guild with tracked records, so
// channels abandoned while the bot was offline are reclaimed
func (e *LifecycleEngine) Reconcile(ctx context.Context, guildIDs []int64) int {
	seen := make(map[int64]bool, len(guildIDs))
	all := make([]int64, 0, len(guildIDs))
	for _, id := range guildIDs {
		if !seen[id] {
			seen[id] = true
			all = append(all, id)
		}
	}

	stored, err := e.store.ListGuildIDs(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list guilds with tracked channels")
	}
	for _, id := range stored {
		if !seen[id] {
			seen[id] = true
			all = append(all, id)
		}
	}

	total := 0
	for _, guildID := range all {
		if ctx.Err() != nil {
			break
		}
		removed, err := e.Sweep(ctx, guildID)
		if err != nil {
			log.WithError(err).WithField("guild_id", guildID).Error("Reconciliation sweep failed")
			continue
		}
		total += removed
	}

	log.WithFields(log.Fields{
		"guilds":  len(all),
		"removed": total,
	}).Info("Reconciliation complete")
	return total
}

// scheduleSweep debounces sweeps per guild. Each event pushes the pending
// sweep back by CleanupDelay, up to maxDebounceMultiple delays after the first.
func (e *LifecycleEngine) scheduleSweep(ctx context.Context, guildID int64) {
	delay := e.config.CleanupDelay
	if delay <= 0 {
		if _, err := e.Sweep(ctx, guildID); err != nil {
			log.WithError(err).WithField("guild_id", guildID).Error("Sweep failed")
		}
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	if p, ok := e.pending[guildID]; ok {
		if time.Since(p.first) >= delay*maxDebounceMultiple {
			return
		}
		if p.timer.Stop() {
			p.timer.Reset(delay)
			return
		}
		// the timer already fired; queue a fresh sweep behind it
	}

	sweepCtx := context.WithoutCancel(ctx)
	p := &pendingSweep{first: time.Now()}
	e.sweeps.Add(1)
	p.timer = time.AfterFunc(delay, func() {
		defer e.sweeps.Done()

		e.mu.Lock()
		if e.pending[guildID] == p {
			delete(e.pending, guildID)
		}
		e.mu.Unlock()

		if _, err := e.Sweep(sweepCtx, guildID); err != nil {
			log.WithError(err).WithField("guild_id", guildID).Error("Sweep failed")
		}
	})
	e.pending[guildID] = p
}

// Close cancels pending sweeps and waits for running ones
func (e *LifecycleEngine) Close() {
	e.mu.Lock()
	e.closed = true
	for guildID, p := range e.pending {
		if p.timer.Stop() {
			e.sweeps.Done()
		}
		delete(e.pending, guildID)
	}
	e.mu.Unlock()

	e.sweeps.Wait()
}
