package bot

import (
	"context"
	"time"

	"voicecreate/gateway"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const eventTimeout = time.Minute

// handleReady reconciles every guild in the ready payload plus every guild
// with tracked records
func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	guildIDs := make([]int64, 0, len(r.Guilds))
	for _, g := range r.Guilds {
		id, err := gateway.ParseID(g.ID)
		if err != nil {
			log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
			continue
		}
		guildIDs = append(guildIDs, id)
	}

	log.WithFields(log.Fields{
		"user":   r.User.Username,
		"guilds": len(guildIDs),
	}).Info("Connected to Discord")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.config.ReconcileInterval)
		defer cancel()
		b.services.Engine.Reconcile(ctx, guildIDs)
	}()
}

// handleGuildCreate makes sure the guild has a config and sweeps it once its
// voice states are cached
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	guildID, err := gateway.ParseID(g.ID)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
		return
	}

	config, err := b.services.Guilds.EnsureGuild(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to track guild %s (%s): %v", g.Name, g.ID, err)
		return
	}

	log.WithFields(log.Fields{
		"guild_id":    guildID,
		"guild_name":  g.Name,
		"admin_roles": len(config.AdminRoleIDs),
		"language":    config.Language,
	}).Info("Guild available")

	removed, err := b.services.Engine.Sweep(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Guild sweep failed")
		return
	}
	if removed > 0 {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"removed":  removed,
		}).Info("Removed channels abandoned while offline")
	}
}

func (b *Bot) handleGuildUpdate(s *discordgo.Session, g *discordgo.GuildUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	guildID, err := gateway.ParseID(g.ID)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
		return
	}
	if _, err := b.services.Guilds.EnsureGuild(ctx, guildID); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Failed to refresh guild config")
	}
}

func (b *Bot) handleGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.trackMember(m.GuildID, m.Member)
}

func (b *Bot) handleGuildMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	b.trackMember(m.GuildID, m.Member)
}

func (b *Bot) trackMember(rawGuildID string, member *discordgo.Member) {
	guildID, err := gateway.ParseID(rawGuildID)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", rawGuildID, err)
		return
	}
	known := knownMember(guildID, member)
	if known == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	if err := b.services.Guilds.TrackMember(ctx, known); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id": guildID,
			"user_id":  known.UserID,
		}).Warn("Failed to track member")
	}
}

// handleVoiceStateUpdate feeds the lifecycle engine
func (b *Bot) handleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	change, err := DecodeVoiceState(v)
	if err != nil {
		log.WithError(err).Warn("Ignoring malformed voice state update")
		return
	}

	if change.DisplayName == "" {
		if member, err := s.State.Member(v.GuildID, v.UserID); err == nil {
			change.DisplayName = gateway.DisplayName(member)
		}
	}

	b.trackMember(v.GuildID, v.Member)

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	b.services.Engine.HandleVoiceStateUpdate(ctx, change)
}

// handleMessageCreate passes replies to pending prompts
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Skip messages from bots, ours included
	if m.Author == nil || m.Author.Bot {
		return
	}

	// Skip if message is not from a guild
	if m.GuildID == "" {
		return
	}

	channelID, err := gateway.ParseID(m.ChannelID)
	if err != nil {
		return
	}
	userID, err := gateway.ParseID(m.Author.ID)
	if err != nil {
		return
	}

	if b.prompts.Deliver(channelID, userID, m.Content) {
		log.WithFields(log.Fields{
			"channel_id": channelID,
			"user_id":    userID,
		}).Debug("Prompt answered")
	}
}
