package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"voicecreate/models"
	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
)

// Gateway implements service.ChannelGateway on a discordgo session. Reads are
// served from the session state when it has them and from REST otherwise.
type Gateway struct {
	session *discordgo.Session
	retry   RetryOptions
}

// New wraps session. The session should track voice states.
func New(session *discordgo.Session, retry RetryOptions) *Gateway {
	return &Gateway{session: session, retry: retry}
}

var _ service.ChannelGateway = (*Gateway)(nil)

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// ParseID converts a snowflake string; an empty string is 0
func ParseID(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	return v, nil
}

func parentID(categoryID int64) string {
	if categoryID == 0 {
		return ""
	}
	return id(categoryID)
}

func (g *Gateway) createChannel(ctx context.Context, op string, guildID int64, data discordgo.GuildChannelCreateData) (int64, error) {
	var created *discordgo.Channel
	err := g.do(ctx, op, func() error {
		var err error
		created, err = g.session.GuildChannelCreateComplex(id(guildID), data, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return 0, err
	}
	return ParseID(created.ID)
}

// CreateVoiceChannel creates a voice or stage channel; bitrate is in bits per second
func (g *Gateway) CreateVoiceChannel(ctx context.Context, guildID, categoryID int64, name string, bitrate, userLimit int, stage bool) (int64, error) {
	channelType := discordgo.ChannelTypeGuildVoice
	if stage {
		channelType = discordgo.ChannelTypeGuildStageVoice
	}
	return g.createChannel(ctx, "create voice channel", guildID, discordgo.GuildChannelCreateData{
		Name:      name,
		Type:      channelType,
		Bitrate:   bitrate,
		UserLimit: userLimit,
		ParentID:  parentID(categoryID),
	})
}

func (g *Gateway) CreateTextChannel(ctx context.Context, guildID, categoryID int64, name string) (int64, error) {
	return g.createChannel(ctx, "create text channel", guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: parentID(categoryID),
	})
}

func (g *Gateway) CreateCategory(ctx context.Context, guildID int64, name string) (int64, error) {
	return g.createChannel(ctx, "create category", guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})
}

// EditChannel sends only the fields set in edit. A zero user limit must reach
// the API (unlimited), which discordgo.ChannelEdit's omitempty drops.
func (g *Gateway) EditChannel(ctx context.Context, channelID int64, edit models.ChannelEdit) error {
	payload := make(map[string]any, 3)
	if edit.Name != nil {
		payload["name"] = *edit.Name
	}
	if edit.UserLimit != nil {
		payload["user_limit"] = *edit.UserLimit
	}
	if edit.Bitrate != nil {
		payload["bitrate"] = *edit.Bitrate
	}
	if len(payload) == 0 {
		return nil
	}

	endpoint := discordgo.EndpointChannel(id(channelID))
	return g.do(ctx, "edit channel", func() error {
		_, err := g.session.RequestWithBucketID(http.MethodPatch, endpoint, payload, endpoint, discordgo.WithContext(ctx))
		return err
	})
}

// DeleteChannel deletes a channel; an already-deleted channel is not an error
func (g *Gateway) DeleteChannel(ctx context.Context, channelID int64) error {
	err := g.do(ctx, "delete channel", func() error {
		_, err := g.session.ChannelDelete(id(channelID), discordgo.WithContext(ctx))
		return err
	})
	if errors.Is(err, service.ErrNotFound) {
		return nil
	}
	return err
}

func (g *Gateway) SetPermissionOverwrite(ctx context.Context, channelID int64, overwrite models.PermissionOverwrite) error {
	targetType := discordgo.PermissionOverwriteTypeRole
	if overwrite.Target.Type == models.PrincipalMember {
		targetType = discordgo.PermissionOverwriteTypeMember
	}
	return g.do(ctx, "set permission overwrite", func() error {
		return g.session.ChannelPermissionSet(id(channelID), id(overwrite.Target.ID), targetType, overwrite.Allow, overwrite.Deny, discordgo.WithContext(ctx))
	})
}

func (g *Gateway) MoveMember(ctx context.Context, guildID, userID, channelID int64) error {
	target := id(channelID)
	return g.do(ctx, "move member", func() error {
		return g.session.GuildMemberMove(id(guildID), id(userID), &target, discordgo.WithContext(ctx))
	})
}

func (g *Gateway) DisconnectMember(ctx context.Context, guildID, userID int64) error {
	return g.do(ctx, "disconnect member", func() error {
		return g.session.GuildMemberMove(id(guildID), id(userID), nil, discordgo.WithContext(ctx))
	})
}

// channel returns a channel from state, falling back to REST
func (g *Gateway) channel(ctx context.Context, channelID int64) (*discordgo.Channel, error) {
	if ch, err := g.session.State.Channel(id(channelID)); err == nil {
		return ch, nil
	}

	var ch *discordgo.Channel
	err := g.do(ctx, "get channel", func() error {
		var err error
		ch, err = g.session.Channel(id(channelID), discordgo.WithContext(ctx))
		return err
	})
	return ch, err
}

// ChannelMemberIDs lists the members the session state sees in a voice channel
func (g *Gateway) ChannelMemberIDs(ctx context.Context, guildID, channelID int64) ([]int64, error) {
	if _, err := g.channel(ctx, channelID); err != nil {
		return nil, err
	}

	guild, err := g.session.State.Guild(id(guildID))
	if err != nil {
		return nil, fmt.Errorf("guild %d not in state: %w", guildID, service.ErrGatewayUnavailable)
	}

	g.session.State.RLock()
	defer g.session.State.RUnlock()

	target := id(channelID)
	var members []int64
	for _, vs := range guild.VoiceStates {
		if vs == nil || vs.ChannelID != target {
			continue
		}
		userID, err := ParseID(vs.UserID)
		if err != nil {
			continue
		}
		members = append(members, userID)
	}
	return members, nil
}

func (g *Gateway) ChannelParentID(ctx context.Context, channelID int64) (int64, error) {
	ch, err := g.channel(ctx, channelID)
	if err != nil {
		return 0, err
	}
	return ParseID(ch.ParentID)
}

// GuildMember resolves a member and what they may administer
func (g *Gateway) GuildMember(ctx context.Context, guildID, userID int64) (*models.MemberInfo, error) {
	member, err := g.session.State.Member(id(guildID), id(userID))
	if err != nil {
		err = g.do(ctx, "get guild member", func() error {
			var err error
			member, err = g.session.GuildMember(id(guildID), id(userID), discordgo.WithContext(ctx))
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	info := &models.MemberInfo{UserID: userID}
	if member.User != nil {
		info.IsBot = member.User.Bot
		info.DisplayName = DisplayName(member)
	}

	if guild, err := g.session.State.Guild(id(guildID)); err == nil {
		info.IsGuildOwner = guild.OwnerID == id(userID)
	}

	var permissions int64
	if everyone, err := g.session.State.Role(id(guildID), id(guildID)); err == nil {
		permissions |= everyone.Permissions
	}
	for _, roleID := range member.Roles {
		parsed, err := ParseID(roleID)
		if err != nil {
			continue
		}
		info.RoleIDs = append(info.RoleIDs, parsed)
		if role, err := g.session.State.Role(id(guildID), roleID); err == nil {
			permissions |= role.Permissions
		}
	}
	info.CanManageGuild = permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageGuild) != 0

	return info, nil
}

func DisplayName(member *discordgo.Member) string {
	switch {
	case member.Nick != "":
		return member.Nick
	case member.User.GlobalName != "":
		return member.User.GlobalName
	default:
		return member.User.Username
	}
}

// GuildBitrateLimit returns the highest voice bitrate the guild's boost tier allows, in kbps
func (g *Gateway) GuildBitrateLimit(ctx context.Context, guildID int64) (int, error) {
	guild, err := g.session.State.Guild(id(guildID))
	if err != nil {
		return models.DefaultBitrateKbps, fmt.Errorf("guild %d not in state: %w", guildID, service.ErrGatewayUnavailable)
	}
	return BitrateLimitForTier(guild.PremiumTier), nil
}

// BitrateLimitForTier maps a boost tier to its maximum bitrate in kbps
func BitrateLimitForTier(tier discordgo.PremiumTier) int {
	switch tier {
	case discordgo.PremiumTier1:
		return 128
	case discordgo.PremiumTier2:
		return 256
	case discordgo.PremiumTier3:
		return 384
	default:
		return 96
	}
}

func (g *Gateway) SendMessage(ctx context.Context, channelID int64, content string) error {
	return g.do(ctx, "send message", func() error {
		_, err := g.session.ChannelMessageSend(id(channelID), content, discordgo.WithContext(ctx))
		return err
	})
}
