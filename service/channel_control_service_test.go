package service

import (
	"context"
	"strings"
	"testing"

	"voicecreate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClampBitrate(t *testing.T) {
	tests := []struct {
		name     string
		kbps     int
		max      int
		expected int
	}{
		{"within range", 64, 96, 64},
		{"below minimum", 2, 96, 8},
		{"above guild limit", 384, 128, 128},
		{"unknown limit uses default", 96, 0, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampBitrate(tt.kbps, tt.max))
		})
	}
}

func TestTextChannelName(t *testing.T) {
	assert.Equal(t, "ms-channel", TextChannelName("M's Channel"))
	assert.Equal(t, "study-room", TextChannelName("  Study   Room "))
	assert.Equal(t, "voice-chat", TextChannelName("   "))
}

type controlFixture struct {
	gateway *fakeGateway
	users   *MockUserSettingsRepository
	uow     *MockUnitOfWork
	svc     ChannelControlService
}

func newControlFixture(t *testing.T) *controlFixture {
	t.Helper()
	gateway, store, ownership := newOwnershipFixture(t)

	users := new(MockUserSettingsRepository)
	uow := &MockUnitOfWork{UserSettings: users}
	factory := new(MockUnitOfWorkFactory)
	factory.On("CreateForGuild", testGuildID).Return(uow)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback").Return(nil)
	uow.On("Commit").Return(nil)

	resolver := &layeredResolver{categories: map[int64]*models.CategorySettings{}}
	admins := staticAdmins{adminID: true}

	return &controlFixture{
		gateway: gateway,
		users:   users,
		uow:     uow,
		svc:     NewChannelControlService(factory, store, ownership, gateway, resolver, admins),
	}
}

func TestChannelControl_LockUsesEveryoneByDefault(t *testing.T) {
	ctx := context.Background()
	f := newControlFixture(t)

	require.NoError(t, f.svc.Lock(ctx, testGuildID, ownerVoiceID, ownerID, nil))

	overwrites := f.gateway.channel(ownerVoiceID).overwrites
	assert.Equal(t, models.PermissionConnect, overwrites[models.RolePrincipal(testGuildID)].Deny)
	assert.Equal(t, models.OwnerVoicePermissions, overwrites[models.MemberPrincipal(ownerID)].Allow)

	require.NoError(t, f.svc.Unlock(ctx, testGuildID, ownerVoiceID, ownerID, nil))
	assert.Zero(t, f.gateway.channel(ownerVoiceID).overwrites[models.RolePrincipal(testGuildID)].Deny)
}

func TestChannelControl_MuteExplicitRole(t *testing.T) {
	ctx := context.Background()
	f := newControlFixture(t)
	role := int64(44)

	require.NoError(t, f.svc.Mute(ctx, testGuildID, ownerVoiceID, ownerID, &role))
	assert.Equal(t, models.PermissionSpeak, f.gateway.channel(ownerVoiceID).overwrites[models.RolePrincipal(role)].Deny)

	require.NoError(t, f.svc.Unmute(ctx, testGuildID, ownerVoiceID, ownerID, &role))
	assert.Zero(t, f.gateway.channel(ownerVoiceID).overwrites[models.RolePrincipal(role)].Deny)
}

func TestChannelControl_SetLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("out of range", func(t *testing.T) {
		f := newControlFixture(t)
		err := f.svc.SetLimit(ctx, testGuildID, ownerVoiceID, ownerID, 100)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("applies and saves", func(t *testing.T) {
		f := newControlFixture(t)
		f.users.On("Upsert", ctx, mock.MatchedBy(func(s *models.UserSettings) bool {
			return s.UserID == ownerID && s.ChannelLimit != nil && *s.ChannelLimit == 4 && s.Bitrate == nil
		})).Return(nil)

		require.NoError(t, f.svc.SetLimit(ctx, testGuildID, ownerVoiceID, ownerID, 4))
		assert.Equal(t, 4, f.gateway.channel(ownerVoiceID).userLimit)
		f.users.AssertExpectations(t)
	})

	t.Run("stranger denied", func(t *testing.T) {
		f := newControlFixture(t)
		err := f.svc.SetLimit(ctx, testGuildID, ownerVoiceID, otherID, 4)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestChannelControl_SetBitrateClamps(t *testing.T) {
	ctx := context.Background()
	f := newControlFixture(t)
	f.users.On("Upsert", ctx, mock.Anything).Return(nil)

	applied, err := f.svc.SetBitrate(ctx, testGuildID, ownerVoiceID, ownerID, 320)
	require.NoError(t, err)
	assert.Equal(t, 96, applied)
	assert.Equal(t, 96000, f.gateway.channel(ownerVoiceID).bitrate)
}

func TestChannelControl_Rename(t *testing.T) {
	ctx := context.Background()

	t.Run("owner rename saves preference", func(t *testing.T) {
		f := newControlFixture(t)
		f.users.On("Upsert", ctx, mock.MatchedBy(func(s *models.UserSettings) bool {
			return s.ChannelName != nil && *s.ChannelName == "Late Night"
		})).Return(nil)

		require.NoError(t, f.svc.Rename(ctx, testGuildID, ownerVoiceID, ownerID, " Late Night ", false))
		assert.Equal(t, "Late Night", f.gateway.channel(ownerVoiceID).name)
		assert.Equal(t, "late-night", f.gateway.channel(ownerTextID).name)
		f.users.AssertExpectations(t)
	})

	t.Run("forced rename requires admin", func(t *testing.T) {
		f := newControlFixture(t)
		err := f.svc.Rename(ctx, testGuildID, ownerVoiceID, ownerID, "Nope", true)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("forced rename leaves preference", func(t *testing.T) {
		f := newControlFixture(t)
		require.NoError(t, f.svc.Rename(ctx, testGuildID, ownerVoiceID, adminID, "Moderated", true))
		assert.Equal(t, "Moderated", f.gateway.channel(ownerVoiceID).name)
		f.users.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("length counts characters", func(t *testing.T) {
		f := newControlFixture(t)
		f.users.On("Upsert", ctx, mock.Anything).Return(nil)

		name := strings.Repeat("夜", 40) + strings.Repeat("🎧", 10)
		require.NoError(t, f.svc.Rename(ctx, testGuildID, ownerVoiceID, ownerID, name, false))
		assert.Equal(t, name, f.gateway.channel(ownerVoiceID).name)

		err := f.svc.Rename(ctx, testGuildID, ownerVoiceID, ownerID, strings.Repeat("夜", 101), false)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("empty name", func(t *testing.T) {
		f := newControlFixture(t)
		err := f.svc.Rename(ctx, testGuildID, ownerVoiceID, ownerID, "  ", false)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
