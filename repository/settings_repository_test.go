package repository

import (
	"context"
	"testing"

	"voicecreate/events"
	"voicecreate/models"
	"voicecreate/repository/testutil"
	"voicecreate/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepositories(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	guildID := int64(4004)

	t.Run("category settings upsert", func(t *testing.T) {
		repo := NewCategorySettingsRepository(testDB.DB, guildID)

		missing, err := repo.Get(ctx, 50)
		require.NoError(t, err)
		assert.Nil(t, missing)

		settings := testutil.CreateTestCategorySettings(guildID, 50)
		require.NoError(t, repo.Upsert(ctx, settings))

		settings.ChannelLimit = 10
		settings.DefaultRoleID = int64Ptr(77)
		require.NoError(t, repo.Upsert(ctx, settings))

		got, err := repo.Get(ctx, 50)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 10, got.ChannelLimit)
		assert.True(t, got.ChannelLocked)
		assert.Equal(t, 32, got.Bitrate)
		require.NotNil(t, got.DefaultRoleID)
		assert.Equal(t, int64(77), *got.DefaultRoleID)
	})

	t.Run("user settings keep unset fields", func(t *testing.T) {
		repo := NewUserSettingsRepository(testDB.DB, guildID)

		name := "Study Room"
		require.NoError(t, repo.Upsert(ctx, &models.UserSettings{UserID: 7, ChannelName: &name}))

		limit := 0
		require.NoError(t, repo.Upsert(ctx, &models.UserSettings{UserID: 7, ChannelLimit: &limit}))

		got, err := repo.Get(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.ChannelName)
		assert.Equal(t, "Study Room", *got.ChannelName)
		require.NotNil(t, got.ChannelLimit)
		assert.Equal(t, 0, *got.ChannelLimit)
		assert.Nil(t, got.Bitrate)
	})

	t.Run("resolver reads every layer", func(t *testing.T) {
		bitrate := 96
		require.NoError(t, NewUserSettingsRepository(testDB.DB, guildID).Upsert(ctx, &models.UserSettings{UserID: 8, Bitrate: &bitrate}))

		resolver := service.NewSettingsResolver(NewUnitOfWorkFactory(testDB.DB, events.NewBus()))
		got := resolver.Resolve(ctx, guildID, 50, 8, "M")

		assert.Equal(t, "M's Channel", got.Name)
		assert.Equal(t, 10, got.Limit)
		assert.Equal(t, 96, got.Bitrate)
		assert.True(t, got.Locked)
	})
}

func TestGuildConfigRepositories(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	guildID := int64(5005)

	t.Run("get or create then update", func(t *testing.T) {
		repo := NewGuildConfigRepository(testDB.DB, guildID)

		missing, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, missing)

		config, err := repo.GetOrCreate(ctx, testutil.CreateTestGuildConfig(guildID))
		require.NoError(t, err)
		assert.Equal(t, []string{"!"}, config.Prefixes)
		assert.Empty(t, config.AdminRoleIDs)

		config.AdminRoleIDs = []int64{70, 71}
		config.DefaultRoleID = int64Ptr(72)
		require.NoError(t, repo.Update(ctx, config))

		again, err := repo.GetOrCreate(ctx, testutil.CreateTestGuildConfig(guildID))
		require.NoError(t, err)
		assert.Equal(t, []int64{70, 71}, again.AdminRoleIDs)
		require.NotNil(t, again.DefaultRoleID)
		assert.Equal(t, int64(72), *again.DefaultRoleID)
		assert.True(t, again.HasAdminRole([]int64{71}))
	})

	t.Run("create channels", func(t *testing.T) {
		repo := NewCreateChannelRepository(testDB.DB, guildID)

		require.NoError(t, repo.Add(ctx, testutil.CreateTestCreateChannel(guildID, 100, 50, 7)))
		require.NoError(t, repo.Add(ctx, testutil.CreateTestCreateChannel(guildID, 101, 51, 7)))

		got, err := repo.Get(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(50), got.CategoryID)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		removed, err := repo.Remove(ctx, 100)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Remove(ctx, 100)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("members", func(t *testing.T) {
		repo := NewMemberRepository(testDB.DB, guildID)

		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestMember(guildID, 7, "mira")))
		member := testutil.CreateTestMember(guildID, 7, "mira")
		member.DisplayName = "Mira"
		require.NoError(t, repo.Upsert(ctx, member))

		got, err := repo.Get(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Mira", got.DisplayName)

		missing, err := repo.Get(ctx, 8)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func int64Ptr(v int64) *int64 { return &v }
