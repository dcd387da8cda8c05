package service

import (
	"context"
	"testing"

	"voicecreate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccessService_IsAdmin(t *testing.T) {
	ctx := context.Background()

	setup := func(config *models.GuildConfig) (*fakeGateway, *MockUnitOfWorkFactory) {
		gateway := newFakeGateway()
		gateway.members[10] = &models.MemberInfo{UserID: 10, IsGuildOwner: true}
		gateway.members[11] = &models.MemberInfo{UserID: 11, CanManageGuild: true}
		gateway.members[12] = &models.MemberInfo{UserID: 12, RoleIDs: []int64{70, 71}}
		gateway.members[13] = &models.MemberInfo{UserID: 13, RoleIDs: []int64{72}}

		guilds := new(MockGuildConfigRepository)
		guilds.On("Get", mock.Anything).Return(config, nil)
		uow := &MockUnitOfWork{GuildConfigs: guilds}
		uow.On("Begin", mock.Anything).Return(nil)
		uow.On("Rollback").Return(nil)

		factory := new(MockUnitOfWorkFactory)
		factory.On("CreateForGuild", testGuildID).Return(uow)
		return gateway, factory
	}

	config := &models.GuildConfig{GuildID: testGuildID, AdminRoleIDs: []int64{71}}

	tests := []struct {
		name     string
		userID   int64
		config   *models.GuildConfig
		expected bool
	}{
		{"bot owner", 1, config, true},
		{"guild owner", 10, config, true},
		{"manage guild", 11, config, true},
		{"admin role", 12, config, true},
		{"plain member", 13, config, false},
		{"no config", 12, nil, false},
		{"unknown member", 99, config, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway, factory := setup(tt.config)
			svc := NewAccessService(factory, gateway, []int64{1})

			got, err := svc.IsAdmin(ctx, testGuildID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
