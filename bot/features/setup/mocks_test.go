package setup

import (
	"context"

	"voicecreate/bot/common"
	"voicecreate/models"
	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
)

type mockGuilds struct {
	mock.Mock
	service.GuildConfigService
}

func (m *mockGuilds) GetCreateChannel(ctx context.Context, guildID, voiceChannelID int64) (*models.CreateChannel, error) {
	args := m.Called(ctx, guildID, voiceChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateChannel), args.Error(1)
}

func (m *mockGuilds) AddCreateChannel(ctx context.Context, channel *models.CreateChannel) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *mockGuilds) RemoveCreateChannel(ctx context.Context, guildID, voiceChannelID int64) error {
	return m.Called(ctx, guildID, voiceChannelID).Error(0)
}

func (m *mockGuilds) ListCreateChannels(ctx context.Context, guildID int64) ([]*models.CreateChannel, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CreateChannel), args.Error(1)
}

func (m *mockGuilds) GetCategorySettings(ctx context.Context, guildID, categoryID int64) (*models.CategorySettings, error) {
	args := m.Called(ctx, guildID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CategorySettings), args.Error(1)
}

func (m *mockGuilds) SetCategorySettings(ctx context.Context, settings *models.CategorySettings) error {
	return m.Called(ctx, settings).Error(0)
}

func (m *mockGuilds) AddAdminRole(ctx context.Context, guildID, roleID int64) error {
	return m.Called(ctx, guildID, roleID).Error(0)
}

func (m *mockGuilds) RemoveAdminRole(ctx context.Context, guildID, roleID int64) error {
	return m.Called(ctx, guildID, roleID).Error(0)
}

func (m *mockGuilds) SetPrefixes(ctx context.Context, guildID int64, prefixes []string) error {
	return m.Called(ctx, guildID, prefixes).Error(0)
}

func (m *mockGuilds) SetDefaultRole(ctx context.Context, guildID int64, roleID *int64) error {
	return m.Called(ctx, guildID, roleID).Error(0)
}

func (m *mockGuilds) SetLanguage(ctx context.Context, guildID int64, language string) error {
	return m.Called(ctx, guildID, language).Error(0)
}

type mockAdmins struct {
	mock.Mock
}

func (m *mockAdmins) IsAdmin(ctx context.Context, guildID, userID int64) (bool, error) {
	args := m.Called(ctx, guildID, userID)
	return args.Bool(0), args.Error(1)
}

type mockGateway struct {
	mock.Mock
	service.ChannelGateway
}

func (m *mockGateway) CreateCategory(ctx context.Context, guildID int64, name string) (int64, error) {
	args := m.Called(ctx, guildID, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGateway) CreateVoiceChannel(ctx context.Context, guildID, categoryID int64, name string, bitrate, userLimit int, stage bool) (int64, error) {
	args := m.Called(ctx, guildID, categoryID, name, bitrate, userLimit, stage)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGateway) DeleteChannel(ctx context.Context, channelID int64) error {
	return m.Called(ctx, channelID).Error(0)
}

// scriptedPrompter answers prompts in order; an exhausted script times out
type scriptedPrompter struct {
	answers []string
	asked   []int64
}

func (p *scriptedPrompter) Wait(ctx context.Context, channelID, userID int64) (string, error) {
	p.asked = append(p.asked, channelID)
	if len(p.answers) == 0 {
		return "", common.ErrPromptTimeout
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

type recordingReplier struct {
	messages []string
	embeds   []*discordgo.MessageEmbed
}

func (r *recordingReplier) Reply(content string) error {
	r.messages = append(r.messages, content)
	return nil
}

func (r *recordingReplier) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	r.embeds = append(r.embeds, embed)
	return nil
}

func options(values map[string]interface{}) common.Options {
	opts := make(common.Options, len(values))
	for name, value := range values {
		if n, ok := value.(int); ok {
			value = float64(n)
		}
		opts[name] = &discordgo.ApplicationCommandInteractionDataOption{Name: name, Value: value}
	}
	return opts
}
