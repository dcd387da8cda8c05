package voice

import (
	"context"
	"fmt"
	"strings"

	"voicecreate/bot/common"
	"voicecreate/models"
	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// maxListLength keeps the channel listing inside an embed description
const maxListLength = 3900

func (f *Feature) requireAdmin(ctx context.Context, cc common.CommandContext) error {
	isAdmin, err := f.admins.IsAdmin(ctx, cc.GuildID, cc.ActingUserID)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if !isAdmin {
		return common.NewUserError("Only bot admins can use this command.", "admin command denied")
	}
	return nil
}

// principal reads the user or role a permit/reject targets
func principal(opts common.Options) (models.Principal, error) {
	if userID, ok := opts.ID("user"); ok {
		return models.MemberPrincipal(userID), nil
	}
	if roleID, ok := opts.ID("role"); ok {
		return models.RolePrincipal(roleID), nil
	}
	return models.Principal{}, common.NewUserError("Pick a member or a role.", "no permission target given")
}

func mentionPrincipal(guildID int64, p models.Principal) string {
	if p.Type == models.PrincipalRole {
		return common.RoleMention(guildID, p.ID)
	}
	return common.UserMention(p.ID)
}

func optionalRole(opts common.Options) *int64 {
	if roleID, ok := opts.ID("role"); ok {
		return &roleID
	}
	return nil
}

func (f *Feature) handleOwner(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}
	newOwnerID, ok := opts.ID("user")
	if !ok {
		return common.NewUserError("Pick the member who should own the channel.", "owner target missing")
	}

	if err := f.ownership.Transfer(ctx, cc.GuildID, channelID, cc.ActingUserID, newOwnerID); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("%s now owns %s.", common.UserMention(newOwnerID), common.ChannelMention(channelID)))
}

func (f *Feature) handleClaim(ctx context.Context, cc common.CommandContext, reply common.Replier) error {
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}

	if err := f.ownership.Claim(ctx, cc.GuildID, channelID, cc.ActingUserID); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("You now own %s.", common.ChannelMention(channelID)))
}

func (f *Feature) handlePermit(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}
	target, err := principal(opts)
	if err != nil {
		return err
	}

	if err := f.ownership.GrantAccess(ctx, cc.GuildID, channelID, cc.ActingUserID, target); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("%s can now join %s.", mentionPrincipal(cc.GuildID, target), common.ChannelMention(channelID)))
}

func (f *Feature) handleReject(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}
	target, err := principal(opts)
	if err != nil {
		return err
	}
	if target.Type == models.PrincipalMember && target.ID == cc.ActingUserID {
		return common.NewUserError("You cannot reject yourself.", "self reject")
	}

	if err := f.ownership.DenyAccess(ctx, cc.GuildID, channelID, cc.ActingUserID, target); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("%s can no longer join %s.", mentionPrincipal(cc.GuildID, target), common.ChannelMention(channelID)))
}

func (f *Feature) handleToggle(ctx context.Context, cc common.CommandContext, action string, opts common.Options, reply common.Replier) error {
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}
	roleID := optionalRole(opts)

	var (
		apply   func(context.Context, int64, int64, int64, *int64) error
		message string
	)
	switch action {
	case "lock":
		apply, message = f.control.Lock, "%s is now locked."
	case "unlock":
		apply, message = f.control.Unlock, "%s is now unlocked."
	case "mute":
		apply, message = f.control.Mute, "%s is now muted."
	default:
		apply, message = f.control.Unmute, "%s is no longer muted."
	}

	if err := apply(ctx, cc.GuildID, channelID, cc.ActingUserID, roleID); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf(message, common.ChannelMention(channelID)))
}

func (f *Feature) handleLimit(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}
	limit, ok := opts.Int("value")
	if !ok {
		return common.NewUserError("Give a limit between 0 and 99.", "limit value missing")
	}

	if err := f.control.SetLimit(ctx, cc.GuildID, channelID, cc.ActingUserID, limit); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("User limit of %s set to %s.", common.ChannelMention(channelID), common.FormatLimit(limit)))
}

func (f *Feature) handleBitrate(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}
	kbps, ok := opts.Int("value")
	if !ok {
		return common.NewUserError("Give a bitrate in kbps.", "bitrate value missing")
	}

	applied, err := f.control.SetBitrate(ctx, cc.GuildID, channelID, cc.ActingUserID, kbps)
	if err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("Bitrate of %s set to %d kbps.", common.ChannelMention(channelID), applied))
}

func (f *Feature) handleName(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}
	name, _ := opts.String("value")

	if err := f.control.Rename(ctx, cc.GuildID, channelID, cc.ActingUserID, name, false); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("Channel renamed to **%s**.", strings.TrimSpace(name)))
}

func (f *Feature) handleWhoOwns(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, ok := opts.ID("channel")
	if !ok {
		var err error
		if channelID, err = cc.RequireVoiceChannel(); err != nil {
			return err
		}
	}

	ownerID, err := f.ownership.WhoOwns(ctx, cc.GuildID, channelID)
	if err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("%s is owned by %s.", common.ChannelMention(channelID), common.UserMention(ownerID)))
}

// handleRename is the admin rename. It accepts any tracked channel and
// leaves the owner's saved name untouched.
func (f *Feature) handleRename(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, ok := opts.ID("channel")
	if !ok {
		var err error
		if channelID, err = cc.RequireVoiceChannel(); err != nil {
			return err
		}
	}
	name, _ := opts.String("name")

	if err := f.control.Rename(ctx, cc.GuildID, channelID, cc.ActingUserID, name, true); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("%s renamed to **%s**.", common.ChannelMention(channelID), strings.TrimSpace(name)))
}

func (f *Feature) handleChannels(ctx context.Context, cc common.CommandContext, reply common.Replier) error {
	if err := f.requireAdmin(ctx, cc); err != nil {
		return err
	}

	channels, err := f.store.ListTrackedChannels(ctx, cc.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list tracked channels: %w", err)
	}
	if len(channels) == 0 {
		return reply.Reply("No channels are being tracked.")
	}

	var b strings.Builder
	for n, ch := range channels {
		line := fmt.Sprintf("%s owned by %s", common.ChannelMention(ch.Voice.VoiceChannelID), f.ownerLabel(ctx, cc.GuildID, ch.Voice.OwnerID))
		if ch.Text != nil {
			line += fmt.Sprintf(" (text %s)", common.ChannelMention(ch.Text.TextChannelID))
		}
		line += "\n"

		if b.Len()+len(line) > maxListLength {
			fmt.Fprintf(&b, "…and %d more", len(channels)-n)
			break
		}
		b.WriteString(line)
	}

	return reply.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Tracked channels (%d)", len(channels)),
		Description: b.String(),
		Color:       common.ColorInfo,
	})
}

// ownerLabel prefers the known display name and falls back to a mention
func (f *Feature) ownerLabel(ctx context.Context, guildID, userID int64) string {
	member, err := f.guilds.GetMember(ctx, guildID, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Known member lookup failed")
	}
	if member == nil || member.DisplayName == "" {
		return common.UserMention(userID)
	}
	return fmt.Sprintf("**%s** (%s)", member.DisplayName, common.UserMention(userID))
}

func (f *Feature) handleTrack(ctx context.Context, cc common.CommandContext, reply common.Replier) error {
	if err := f.requireAdmin(ctx, cc); err != nil {
		return err
	}
	channelID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}

	createChannel, err := f.guilds.GetCreateChannel(ctx, cc.GuildID, channelID)
	if err != nil {
		return fmt.Errorf("failed to check create channel: %w", err)
	}
	if createChannel != nil {
		return common.NewUserError("A create channel cannot be tracked.", "track on create channel")
	}

	if err := f.store.CreateVoiceChannel(ctx, cc.GuildID, cc.ActingUserID, channelID); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("Now tracking %s. You own it.", common.ChannelMention(channelID)))
}

func (f *Feature) handleTrackText(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	if err := f.requireAdmin(ctx, cc); err != nil {
		return err
	}
	voiceID, err := cc.RequireVoiceChannel()
	if err != nil {
		return err
	}
	textID, ok := opts.ID("channel")
	if !ok {
		return common.NewUserError("Pick the text channel to pair.", "track-text channel missing")
	}

	owner, err := f.store.GetOwner(ctx, cc.GuildID, voiceID)
	if err != nil {
		return fmt.Errorf("failed to get owner: %w", err)
	}
	if owner == nil {
		return fmt.Errorf("voice channel %d is not tracked: %w", voiceID, service.ErrNotFound)
	}

	voiceParent, err := f.gateway.ChannelParentID(ctx, voiceID)
	if err != nil {
		return fmt.Errorf("failed to get voice channel category: %w", err)
	}
	textParent, err := f.gateway.ChannelParentID(ctx, textID)
	if err != nil {
		return fmt.Errorf("failed to get text channel category: %w", err)
	}
	if voiceParent != textParent {
		return common.NewUserError("The text channel must be in the same category as your voice channel.", "track-text category mismatch")
	}

	if err := f.store.PairTextChannel(ctx, cc.GuildID, *owner, voiceID, textID); err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("%s is now paired with %s.", common.ChannelMention(textID), common.ChannelMention(voiceID)))
}
