package service

import (
	"context"
	"testing"

	"voicecreate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerVoiceID int64 = 500
	ownerTextID  int64 = 501
	ownerID      int64 = 7
	otherID      int64 = 8
	adminID      int64 = 9
)

func newOwnershipFixture(t *testing.T) (*fakeGateway, *memoryStore, OwnershipService) {
	t.Helper()
	ctx := context.Background()

	gateway := newFakeGateway()
	gateway.addVoiceChannel(testGuildID, ownerVoiceID, testCategoryID)
	gateway.addVoiceChannel(testGuildID, ownerTextID, testCategoryID)

	store := newMemoryStore()
	require.NoError(t, store.CreateVoiceChannel(ctx, testGuildID, ownerID, ownerVoiceID))
	require.NoError(t, store.PairTextChannel(ctx, testGuildID, ownerID, ownerVoiceID, ownerTextID))

	return gateway, store, NewOwnershipService(store, gateway, staticAdmins{adminID: true})
}

func TestOwnershipService_ClaimWhileOwnerPresent(t *testing.T) {
	ctx := context.Background()
	gateway, store, svc := newOwnershipFixture(t)
	gateway.connect(ownerID, ownerVoiceID)
	gateway.connect(otherID, ownerVoiceID)

	err := svc.Claim(ctx, testGuildID, ownerVoiceID, otherID)
	assert.ErrorIs(t, err, ErrOwnerStillPresent)

	owner, err := store.GetOwner(ctx, testGuildID, ownerVoiceID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, *owner)
}

func TestOwnershipService_ClaimAbandonedChannel(t *testing.T) {
	ctx := context.Background()
	gateway, store, svc := newOwnershipFixture(t)
	gateway.connect(otherID, ownerVoiceID)

	require.NoError(t, svc.Claim(ctx, testGuildID, ownerVoiceID, otherID))

	owner, err := store.GetOwner(ctx, testGuildID, ownerVoiceID)
	require.NoError(t, err)
	assert.Equal(t, otherID, *owner)

	owner, err = store.GetOwner(ctx, testGuildID, ownerTextID)
	require.NoError(t, err)
	assert.Equal(t, otherID, *owner)

	claimant := models.MemberPrincipal(otherID)
	assert.Equal(t, models.OwnerVoicePermissions, gateway.channel(ownerVoiceID).overwrites[claimant].Allow)
	assert.Equal(t, models.OwnerTextPermissions, gateway.channel(ownerTextID).overwrites[claimant].Allow)
}

func TestOwnershipService_ClaimOwnChannel(t *testing.T) {
	_, _, svc := newOwnershipFixture(t)
	assert.NoError(t, svc.Claim(context.Background(), testGuildID, ownerVoiceID, ownerID))
}

func TestOwnershipService_ClaimUntracked(t *testing.T) {
	_, _, svc := newOwnershipFixture(t)
	err := svc.Claim(context.Background(), testGuildID, 404, otherID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnershipService_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("stranger is denied", func(t *testing.T) {
		_, store, svc := newOwnershipFixture(t)

		err := svc.Transfer(ctx, testGuildID, ownerVoiceID, otherID, otherID)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		owner, _ := store.GetOwner(ctx, testGuildID, ownerVoiceID)
		assert.Equal(t, ownerID, *owner)
	})

	t.Run("owner transfers", func(t *testing.T) {
		_, store, svc := newOwnershipFixture(t)

		require.NoError(t, svc.Transfer(ctx, testGuildID, ownerVoiceID, ownerID, otherID))

		owner, _ := store.GetOwner(ctx, testGuildID, ownerVoiceID)
		assert.Equal(t, otherID, *owner)
	})

	t.Run("admin transfers", func(t *testing.T) {
		_, store, svc := newOwnershipFixture(t)

		require.NoError(t, svc.Transfer(ctx, testGuildID, ownerVoiceID, adminID, otherID))

		owner, _ := store.GetOwner(ctx, testGuildID, ownerVoiceID)
		assert.Equal(t, otherID, *owner)
	})
}

func TestOwnershipService_GrantAccess(t *testing.T) {
	ctx := context.Background()
	gateway, _, svc := newOwnershipFixture(t)

	role := models.RolePrincipal(33)
	require.NoError(t, svc.GrantAccess(ctx, testGuildID, ownerVoiceID, ownerID, role))

	assert.Equal(t, models.VoiceAccessPermissions, gateway.channel(ownerVoiceID).overwrites[role].Allow)
	assert.Equal(t, models.TextAccessPermissions, gateway.channel(ownerTextID).overwrites[role].Allow)

	err := svc.GrantAccess(ctx, testGuildID, ownerVoiceID, otherID, role)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestOwnershipService_DenyAccessDisconnectsMember(t *testing.T) {
	ctx := context.Background()
	gateway, _, svc := newOwnershipFixture(t)
	gateway.connect(otherID, ownerVoiceID)

	target := models.MemberPrincipal(otherID)
	require.NoError(t, svc.DenyAccess(ctx, testGuildID, ownerVoiceID, ownerID, target))

	voice := gateway.channel(ownerVoiceID).overwrites[target]
	assert.Equal(t, models.PermissionConnect, voice.Deny)
	assert.Equal(t, models.TextAccessPermissions, gateway.channel(ownerTextID).overwrites[target].Deny)
	assert.Zero(t, gateway.connectedTo(otherID))
	assert.Equal(t, []int64{otherID}, gateway.disconnected)
}

func TestOwnershipService_DenyOwnerIsInvalid(t *testing.T) {
	_, _, svc := newOwnershipFixture(t)
	err := svc.DenyAccess(context.Background(), testGuildID, ownerVoiceID, adminID, models.MemberPrincipal(ownerID))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOwnershipService_WhoOwns(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newOwnershipFixture(t)

	owner, err := svc.WhoOwns(ctx, testGuildID, ownerTextID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, owner)

	_, err = svc.WhoOwns(ctx, testGuildID, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
