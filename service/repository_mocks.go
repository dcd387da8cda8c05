package service

import (
	"context"

	"voicecreate/events"
	"voicecreate/models"

	"github.com/stretchr/testify/mock"
)

// MockTrackedChannelRepository is a mock implementation of TrackedChannelRepository
type MockTrackedChannelRepository struct {
	mock.Mock
}

func (m *MockTrackedChannelRepository) CreateVoiceChannel(ctx context.Context, ownerID, voiceChannelID int64) (bool, error) {
	args := m.Called(ctx, ownerID, voiceChannelID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrackedChannelRepository) CreateTextChannel(ctx context.Context, ownerID, voiceChannelID, textChannelID int64) (bool, error) {
	args := m.Called(ctx, ownerID, voiceChannelID, textChannelID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrackedChannelRepository) GetVoiceChannel(ctx context.Context, voiceChannelID int64) (*models.TrackedVoiceChannel, error) {
	args := m.Called(ctx, voiceChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrackedVoiceChannel), args.Error(1)
}

func (m *MockTrackedChannelRepository) GetTextChannel(ctx context.Context, voiceChannelID int64) (*models.TrackedTextChannel, error) {
	args := m.Called(ctx, voiceChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrackedTextChannel), args.Error(1)
}

func (m *MockTrackedChannelRepository) GetTextChannelByTextID(ctx context.Context, textChannelID int64) (*models.TrackedTextChannel, error) {
	args := m.Called(ctx, textChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrackedTextChannel), args.Error(1)
}

func (m *MockTrackedChannelRepository) CompareAndSetOwner(ctx context.Context, voiceChannelID, fromOwnerID, toOwnerID int64) (bool, error) {
	args := m.Called(ctx, voiceChannelID, fromOwnerID, toOwnerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrackedChannelRepository) LockForTeardown(ctx context.Context, voiceChannelID int64, textChannelID *int64) (*models.TrackedVoiceChannel, *models.TrackedTextChannel, error) {
	args := m.Called(ctx, voiceChannelID, textChannelID)
	var voice *models.TrackedVoiceChannel
	var text *models.TrackedTextChannel
	if args.Get(0) != nil {
		voice = args.Get(0).(*models.TrackedVoiceChannel)
	}
	if args.Get(1) != nil {
		text = args.Get(1).(*models.TrackedTextChannel)
	}
	return voice, text, args.Error(2)
}

func (m *MockTrackedChannelRepository) DeletePair(ctx context.Context, voiceChannelID int64, textChannelID *int64) error {
	args := m.Called(ctx, voiceChannelID, textChannelID)
	return args.Error(0)
}

func (m *MockTrackedChannelRepository) RecordHistory(ctx context.Context, history *models.TrackedChannelHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockTrackedChannelRepository) GetHistory(ctx context.Context, voiceChannelID int64) ([]*models.TrackedChannelHistory, error) {
	args := m.Called(ctx, voiceChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrackedChannelHistory), args.Error(1)
}

func (m *MockTrackedChannelRepository) ListVoiceChannels(ctx context.Context) ([]*models.TrackedVoiceChannel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrackedVoiceChannel), args.Error(1)
}

func (m *MockTrackedChannelRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.TrackedVoiceChannel, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrackedVoiceChannel), args.Error(1)
}

func (m *MockTrackedChannelRepository) ListTextChannels(ctx context.Context) ([]*models.TrackedTextChannel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrackedTextChannel), args.Error(1)
}

func (m *MockTrackedChannelRepository) GetGuildsWithTrackedChannels(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockCategorySettingsRepository is a mock implementation of CategorySettingsRepository
type MockCategorySettingsRepository struct {
	mock.Mock
}

func (m *MockCategorySettingsRepository) Get(ctx context.Context, categoryID int64) (*models.CategorySettings, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CategorySettings), args.Error(1)
}

func (m *MockCategorySettingsRepository) Upsert(ctx context.Context, settings *models.CategorySettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockUserSettingsRepository is a mock implementation of UserSettingsRepository
type MockUserSettingsRepository struct {
	mock.Mock
}

func (m *MockUserSettingsRepository) Get(ctx context.Context, userID int64) (*models.UserSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSettings), args.Error(1)
}

func (m *MockUserSettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockGuildConfigRepository is a mock implementation of GuildConfigRepository
type MockGuildConfigRepository struct {
	mock.Mock
}

func (m *MockGuildConfigRepository) Get(ctx context.Context) (*models.GuildConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigRepository) GetOrCreate(ctx context.Context, defaults *models.GuildConfig) (*models.GuildConfig, error) {
	args := m.Called(ctx, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigRepository) Update(ctx context.Context, config *models.GuildConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

// MockCreateChannelRepository is a mock implementation of CreateChannelRepository
type MockCreateChannelRepository struct {
	mock.Mock
}

func (m *MockCreateChannelRepository) Add(ctx context.Context, channel *models.CreateChannel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockCreateChannelRepository) Get(ctx context.Context, voiceChannelID int64) (*models.CreateChannel, error) {
	args := m.Called(ctx, voiceChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateChannel), args.Error(1)
}

func (m *MockCreateChannelRepository) List(ctx context.Context) ([]*models.CreateChannel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CreateChannel), args.Error(1)
}

func (m *MockCreateChannelRepository) Remove(ctx context.Context, voiceChannelID int64) (bool, error) {
	args := m.Called(ctx, voiceChannelID)
	return args.Bool(0), args.Error(1)
}

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Upsert(ctx context.Context, member *models.KnownMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Get(ctx context.Context, userID int64) (*models.KnownMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnownMember), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories left
// nil panic when requested, like an unstarted unit of work.
type MockUnitOfWork struct {
	mock.Mock

	TrackedChannels  TrackedChannelRepository
	CategorySettings CategorySettingsRepository
	UserSettings     UserSettingsRepository
	GuildConfigs     GuildConfigRepository
	CreateChannels   CreateChannelRepository
	Members          MemberRepository
	Events           EventPublisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) TrackedChannelRepository() TrackedChannelRepository {
	if m.TrackedChannels == nil {
		panic("MockUnitOfWork: TrackedChannels not set")
	}
	return m.TrackedChannels
}

func (m *MockUnitOfWork) CategorySettingsRepository() CategorySettingsRepository {
	if m.CategorySettings == nil {
		panic("MockUnitOfWork: CategorySettings not set")
	}
	return m.CategorySettings
}

func (m *MockUnitOfWork) UserSettingsRepository() UserSettingsRepository {
	if m.UserSettings == nil {
		panic("MockUnitOfWork: UserSettings not set")
	}
	return m.UserSettings
}

func (m *MockUnitOfWork) GuildConfigRepository() GuildConfigRepository {
	if m.GuildConfigs == nil {
		panic("MockUnitOfWork: GuildConfigs not set")
	}
	return m.GuildConfigs
}

func (m *MockUnitOfWork) CreateChannelRepository() CreateChannelRepository {
	if m.CreateChannels == nil {
		panic("MockUnitOfWork: CreateChannels not set")
	}
	return m.CreateChannels
}

func (m *MockUnitOfWork) MemberRepository() MemberRepository {
	if m.Members == nil {
		panic("MockUnitOfWork: Members not set")
	}
	return m.Members
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.Events == nil {
		panic("MockUnitOfWork: Events not set")
	}
	return m.Events
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) CreateForGuild(guildID int64) UnitOfWork {
	args := m.Called(guildID)
	return args.Get(0).(UnitOfWork)
}
