package service

import (
	"context"
	"errors"
	"testing"

	"voicecreate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

func TestMergeChannelSettings(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.UserSettings
		category *models.CategorySettings
		guild    *models.GuildConfig
		expected models.ChannelSettings
	}{
		{
			name:     "defaults only",
			expected: models.ChannelSettings{Name: "M's Channel", Limit: 0, Bitrate: 64},
		},
		{
			name:     "category applies",
			category: &models.CategorySettings{ChannelLimit: 10, ChannelLocked: true, Bitrate: 64},
			expected: models.ChannelSettings{Name: "M's Channel", Limit: 10, Bitrate: 64, Locked: true},
		},
		{
			name:     "user bitrate wins, category limit kept",
			user:     &models.UserSettings{Bitrate: intPtr(96)},
			category: &models.CategorySettings{ChannelLimit: 10, Bitrate: 64},
			expected: models.ChannelSettings{Name: "M's Channel", Limit: 10, Bitrate: 96},
		},
		{
			name:     "explicit zero limit overrides category",
			user:     &models.UserSettings{ChannelLimit: intPtr(0)},
			category: &models.CategorySettings{ChannelLimit: 10},
			expected: models.ChannelSettings{Name: "M's Channel", Limit: 0, Bitrate: 64},
		},
		{
			name:     "user name",
			user:     &models.UserSettings{ChannelName: strPtr("Study Room")},
			expected: models.ChannelSettings{Name: "Study Room", Bitrate: 64},
		},
		{
			name:     "empty user name ignored",
			user:     &models.UserSettings{ChannelName: strPtr("")},
			expected: models.ChannelSettings{Name: "M's Channel", Bitrate: 64},
		},
		{
			name:     "category default role beats guild",
			category: &models.CategorySettings{DefaultRoleID: int64Ptr(22)},
			guild:    &models.GuildConfig{DefaultRoleID: int64Ptr(11)},
			expected: models.ChannelSettings{Name: "M's Channel", Bitrate: 64, DefaultRoleID: int64Ptr(22)},
		},
		{
			name:     "guild default role",
			guild:    &models.GuildConfig{DefaultRoleID: int64Ptr(11)},
			expected: models.ChannelSettings{Name: "M's Channel", Bitrate: 64, DefaultRoleID: int64Ptr(11)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeChannelSettings(tt.user, tt.category, tt.guild, "M")
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestLockTarget(t *testing.T) {
	assert.Equal(t, int64(1), LockTarget(&models.ChannelSettings{}, 1))
	assert.Equal(t, int64(5), LockTarget(&models.ChannelSettings{DefaultRoleID: int64Ptr(5)}, 1))
}

func TestSettingsResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	users := new(MockUserSettingsRepository)
	categories := new(MockCategorySettingsRepository)
	guilds := new(MockGuildConfigRepository)
	uow := &MockUnitOfWork{UserSettings: users, CategorySettings: categories, GuildConfigs: guilds}
	factory := new(MockUnitOfWorkFactory)

	factory.On("CreateForGuild", int64(1)).Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	users.On("Get", ctx, int64(7)).Return(&models.UserSettings{Bitrate: intPtr(96)}, nil)
	categories.On("Get", ctx, int64(50)).Return(&models.CategorySettings{ChannelLimit: 10, Bitrate: 64}, nil)
	guilds.On("Get", ctx).Return(nil, nil)

	got := NewSettingsResolver(factory).Resolve(ctx, 1, 50, 7, "M")

	assert.Equal(t, models.ChannelSettings{Name: "M's Channel", Limit: 10, Bitrate: 96}, *got)
	uow.AssertExpectations(t)
	users.AssertExpectations(t)
	categories.AssertExpectations(t)
}

func TestSettingsResolver_FailingLayersFallBackToDefaults(t *testing.T) {
	ctx := context.Background()

	users := new(MockUserSettingsRepository)
	guilds := new(MockGuildConfigRepository)
	uow := &MockUnitOfWork{UserSettings: users, GuildConfigs: guilds}
	factory := new(MockUnitOfWorkFactory)

	factory.On("CreateForGuild", int64(1)).Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	users.On("Get", ctx, int64(7)).Return(nil, errors.New("connection reset"))
	guilds.On("Get", ctx).Return(nil, errors.New("connection reset"))

	// category 0 means the create channel has no category, so it is never read
	got := NewSettingsResolver(factory).Resolve(ctx, 1, 0, 7, "M")

	assert.Equal(t, models.ChannelSettings{Name: "M's Channel", Bitrate: 64}, *got)
	users.AssertExpectations(t)
}

func TestSettingsResolver_BeginFailureUsesDefaults(t *testing.T) {
	ctx := context.Background()

	uow := new(MockUnitOfWork)
	factory := new(MockUnitOfWorkFactory)
	factory.On("CreateForGuild", int64(1)).Return(uow)
	uow.On("Begin", mock.Anything).Return(errors.New("pool closed"))

	got := NewSettingsResolver(factory).Resolve(ctx, 1, 50, 7, "M")

	assert.Equal(t, "M's Channel", got.Name)
	assert.Equal(t, models.DefaultBitrateKbps, got.Bitrate)
	uow.AssertNotCalled(t, "Rollback")
}
