package voice

import (
	"context"

	"voicecreate/bot/common"
	"voicecreate/models"
	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
)

type mockOwnership struct {
	mock.Mock
	service.OwnershipService
}

func (m *mockOwnership) Claim(ctx context.Context, guildID, voiceChannelID, claimantID int64) error {
	return m.Called(ctx, guildID, voiceChannelID, claimantID).Error(0)
}

func (m *mockOwnership) Transfer(ctx context.Context, guildID, voiceChannelID, requesterID, newOwnerID int64) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, newOwnerID).Error(0)
}

func (m *mockOwnership) GrantAccess(ctx context.Context, guildID, voiceChannelID, requesterID int64, target models.Principal) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, target).Error(0)
}

func (m *mockOwnership) DenyAccess(ctx context.Context, guildID, voiceChannelID, requesterID int64, target models.Principal) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, target).Error(0)
}

func (m *mockOwnership) WhoOwns(ctx context.Context, guildID, channelID int64) (int64, error) {
	args := m.Called(ctx, guildID, channelID)
	return args.Get(0).(int64), args.Error(1)
}

type mockControl struct {
	mock.Mock
	service.ChannelControlService
}

func (m *mockControl) Lock(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, roleID).Error(0)
}

func (m *mockControl) Unlock(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, roleID).Error(0)
}

func (m *mockControl) Mute(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, roleID).Error(0)
}

func (m *mockControl) Unmute(ctx context.Context, guildID, voiceChannelID, requesterID int64, roleID *int64) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, roleID).Error(0)
}

func (m *mockControl) SetLimit(ctx context.Context, guildID, voiceChannelID, requesterID int64, limit int) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, limit).Error(0)
}

func (m *mockControl) SetBitrate(ctx context.Context, guildID, voiceChannelID, requesterID int64, kbps int) (int, error) {
	args := m.Called(ctx, guildID, voiceChannelID, requesterID, kbps)
	return args.Int(0), args.Error(1)
}

func (m *mockControl) Rename(ctx context.Context, guildID, voiceChannelID, requesterID int64, name string, force bool) error {
	return m.Called(ctx, guildID, voiceChannelID, requesterID, name, force).Error(0)
}

type mockStore struct {
	mock.Mock
	service.TrackingStore
}

func (m *mockStore) CreateVoiceChannel(ctx context.Context, guildID, ownerID, voiceChannelID int64) error {
	return m.Called(ctx, guildID, ownerID, voiceChannelID).Error(0)
}

func (m *mockStore) PairTextChannel(ctx context.Context, guildID, ownerID, voiceChannelID, textChannelID int64) error {
	return m.Called(ctx, guildID, ownerID, voiceChannelID, textChannelID).Error(0)
}

func (m *mockStore) GetOwner(ctx context.Context, guildID, channelID int64) (*int64, error) {
	args := m.Called(ctx, guildID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *mockStore) ListTrackedChannels(ctx context.Context, guildID int64) ([]*models.TrackedChannel, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrackedChannel), args.Error(1)
}

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

func (m *mockGuilds) GetMember(ctx context.Context, guildID, userID int64) (*models.KnownMember, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnownMember), args.Error(1)
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

func (m *mockGateway) ChannelParentID(ctx context.Context, channelID int64) (int64, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(int64), args.Error(1)
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

// options builds leaf options the way discordgo decodes them: snowflakes as
// strings and integers as float64
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
