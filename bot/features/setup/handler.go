package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"voicecreate/bot/common"
	"voicecreate/models"
	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) ask(ctx context.Context, cc common.CommandContext, reply common.Replier, question string) (string, error) {
	prompt := fmt.Sprintf("%s Reply in %s within %d seconds.", question, common.ChannelMention(cc.InvokedInID), int(f.promptTimeout.Seconds()))
	if err := reply.Reply(prompt); err != nil {
		return "", fmt.Errorf("failed to send prompt: %w", err)
	}
	answer, err := f.prompts.Wait(ctx, cc.InvokedInID, cc.ActingUserID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (f *Feature) handleCreateChannel(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	name, _ := opts.String("name")
	if name = strings.TrimSpace(name); name == "" {
		name = DefaultCreateChannelName
	}
	useStage, _ := opts.Bool("use_stage")

	// channels this command created, newest first, removed again on failure
	var created []int64
	discard := func() {
		for _, id := range created {
			if err := f.gateway.DeleteChannel(ctx, id); err != nil {
				log.WithError(err).WithField("channel_id", id).Warn("Failed to delete channel after create-channel failure")
			}
		}
	}

	categoryID, ok := opts.ID("category")
	if !ok {
		categoryName, err := f.ask(ctx, cc, reply, "No category was given. What should the new category be called?")
		if err != nil {
			return err
		}
		if categoryName == "" {
			return common.NewUserError("The category name cannot be empty.", "empty category name")
		}

		categoryID, err = f.gateway.CreateCategory(ctx, cc.GuildID, categoryName)
		if err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		created = append(created, categoryID)
	}

	voiceID, err := f.gateway.CreateVoiceChannel(ctx, cc.GuildID, categoryID, name, createChannelBitrate, 0, useStage)
	if err != nil {
		discard()
		return fmt.Errorf("failed to create voice channel: %w", err)
	}
	created = append([]int64{voiceID}, created...)

	err = f.guilds.AddCreateChannel(ctx, &models.CreateChannel{
		GuildID:        cc.GuildID,
		VoiceChannelID: voiceID,
		CategoryID:     categoryID,
		OwnerID:        cc.ActingUserID,
		UseStage:       useStage,
	})
	if err != nil {
		discard()
		return err
	}

	log.WithFields(log.Fields{
		"guild_id":    cc.GuildID,
		"channel_id":  voiceID,
		"category_id": categoryID,
		"use_stage":   useStage,
	}).Info("Create channel added")

	return reply.Reply(fmt.Sprintf("Channel %s created. Members who join it get their own channel.", common.ChannelMention(voiceID)))
}

func (f *Feature) handleRemoveChannel(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	channelID, ok := opts.ID("channel")
	if !ok {
		return common.NewUserError("Pick the create channel to remove.", "remove-channel without channel")
	}

	existing, err := f.guilds.GetCreateChannel(ctx, cc.GuildID, channelID)
	if err != nil {
		return fmt.Errorf("failed to get create channel: %w", err)
	}
	if existing == nil {
		return common.NewUserError("That is not a create channel.", "remove-channel on unknown channel")
	}

	answer, err := f.ask(ctx, cc, reply, fmt.Sprintf("Remove %s and delete the channel? (yes/no)", common.ChannelMention(channelID)))
	if err != nil {
		return err
	}
	yes, valid := common.ParseYesNo(answer)
	if !valid || !yes {
		return reply.Reply("Nothing was removed.")
	}

	if err := f.guilds.RemoveCreateChannel(ctx, cc.GuildID, channelID); err != nil {
		return err
	}
	if err := f.gateway.DeleteChannel(ctx, channelID); err != nil {
		return fmt.Errorf("failed to delete create channel: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":   cc.GuildID,
		"channel_id": channelID,
	}).Info("Create channel removed")

	return reply.Reply("Create channel removed.")
}

func (f *Feature) handleList(ctx context.Context, cc common.CommandContext, reply common.Replier) error {
	channels, err := f.guilds.ListCreateChannels(ctx, cc.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list create channels: %w", err)
	}
	if len(channels) == 0 {
		return reply.Reply("There are no create channels. Add one with `/setup create-channel`.")
	}

	var b strings.Builder
	for _, ch := range channels {
		fmt.Fprintf(&b, "%s in %s", common.ChannelMention(ch.VoiceChannelID), common.ChannelMention(ch.CategoryID))
		if ch.UseStage {
			b.WriteString(" (stage)")
		}
		b.WriteString("\n")
	}

	return reply.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Create channels",
		Description: b.String(),
		Color:       common.ColorPrimary,
	})
}

// handleCategory changes the given options and keeps the rest of the
// category's saved settings
func (f *Feature) handleCategory(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	categoryID, ok := opts.ID("category")
	if !ok {
		return common.NewUserError("Pick the category to configure.", "category without category")
	}

	settings, err := f.guilds.GetCategorySettings(ctx, cc.GuildID, categoryID)
	if err != nil {
		return fmt.Errorf("failed to get category settings: %w", err)
	}
	if settings == nil {
		settings = &models.CategorySettings{
			GuildID:      cc.GuildID,
			CategoryID:   categoryID,
			ChannelLimit: models.DefaultChannelLimit,
			Bitrate:      models.DefaultBitrateKbps,
			AutoName:     true,
		}
	}

	if limit, ok := opts.Int("limit"); ok {
		settings.ChannelLimit = limit
	}
	if bitrate, ok := opts.Int("bitrate"); ok {
		settings.Bitrate = bitrate
	}
	if locked, ok := opts.Bool("locked"); ok {
		settings.ChannelLocked = locked
	}
	if autoGame, ok := opts.Bool("auto_game"); ok {
		settings.AutoGame = autoGame
	}
	if allow, ok := opts.Bool("allow_soundboard"); ok {
		settings.AllowSoundboard = allow
	}
	if autoName, ok := opts.Bool("auto_name"); ok {
		settings.AutoName = autoName
	}
	if roleID, ok := opts.ID("default_role"); ok {
		settings.DefaultRoleID = &roleID
	}

	if err := f.guilds.SetCategorySettings(ctx, settings); err != nil {
		return err
	}

	role := "@everyone"
	if settings.DefaultRoleID != nil {
		role = common.RoleMention(cc.GuildID, *settings.DefaultRoleID)
	}
	return reply.ReplyEmbed(&discordgo.MessageEmbed{
		Title: "Category settings updated",
		Color: common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Category", Value: common.ChannelMention(categoryID), Inline: true},
			{Name: "Limit", Value: common.FormatLimit(settings.ChannelLimit), Inline: true},
			{Name: "Bitrate", Value: fmt.Sprintf("%d kbps", settings.Bitrate), Inline: true},
			{Name: "Locked", Value: fmt.Sprintf("%t", settings.ChannelLocked), Inline: true},
			{Name: "Default role", Value: role, Inline: true},
		},
	})
}

func (f *Feature) handleAdminRole(ctx context.Context, cc common.CommandContext, action string, opts common.Options, reply common.Replier) error {
	roleID, ok := opts.ID("role")
	if !ok {
		return common.NewUserError("Pick a role.", "admin-role without role")
	}

	switch action {
	case "add":
		if err := f.guilds.AddAdminRole(ctx, cc.GuildID, roleID); err != nil {
			return err
		}
		return reply.Reply(fmt.Sprintf("Added %s as a bot admin role.", common.RoleMention(cc.GuildID, roleID)))
	case "remove":
		if err := f.guilds.RemoveAdminRole(ctx, cc.GuildID, roleID); err != nil {
			return err
		}
		return reply.Reply(fmt.Sprintf("Removed %s from the bot admin roles.", common.RoleMention(cc.GuildID, roleID)))
	default:
		return common.NewUserError("Choose add or remove.", "unknown admin-role action "+action)
	}
}

// handlePrefix accepts prefixes separated by spaces or commas
func (f *Feature) handlePrefix(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	raw, _ := opts.String("prefixes")
	prefixes := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	if err := f.guilds.SetPrefixes(ctx, cc.GuildID, prefixes); err != nil {
		return err
	}

	quoted := make([]string, len(prefixes))
	for n, p := range prefixes {
		quoted[n] = "`" + p + "`"
	}
	return reply.Reply("Prefixes set to " + strings.Join(quoted, ", ") + ".")
}

func (f *Feature) handleDefaultRole(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	var roleID *int64
	if id, ok := opts.ID("role"); ok && id != cc.GuildID {
		roleID = &id
	}

	if err := f.guilds.SetDefaultRole(ctx, cc.GuildID, roleID); err != nil {
		return err
	}
	if roleID == nil {
		return reply.Reply("Default role reset to @everyone.")
	}
	return reply.Reply(fmt.Sprintf("Default role set to %s.", common.RoleMention(cc.GuildID, *roleID)))
}

func (f *Feature) handleLanguage(ctx context.Context, cc common.CommandContext, opts common.Options, reply common.Replier) error {
	language, _ := opts.String("language")

	err := f.guilds.SetLanguage(ctx, cc.GuildID, language)
	if errors.Is(err, service.ErrInvalidInput) {
		return common.NewUserError("Give a language code such as en-us.", "empty language")
	}
	if err != nil {
		return err
	}
	return reply.Reply(fmt.Sprintf("Language set to `%s`.", strings.ToLower(strings.TrimSpace(language))))
}
