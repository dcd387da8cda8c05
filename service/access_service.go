package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type accessService struct {
	uowFactory  UnitOfWorkFactory
	gateway     ChannelGateway
	botOwnerIDs map[int64]struct{}
}

// NewAccessService creates the admin predicate. botOwnerIDs are treated as admins in every guild.
func NewAccessService(uowFactory UnitOfWorkFactory, gateway ChannelGateway, botOwnerIDs []int64) AdminChecker {
	owners := make(map[int64]struct{}, len(botOwnerIDs))
	for _, id := range botOwnerIDs {
		owners[id] = struct{}{}
	}
	return &accessService{
		uowFactory:  uowFactory,
		gateway:     gateway,
		botOwnerIDs: owners,
	}
}

// IsAdmin reports whether userID is a bot owner, the guild owner, holds a
// configured admin role, or has manage-guild.
func (s *accessService) IsAdmin(ctx context.Context, guildID, userID int64) (bool, error) {
	if _, ok := s.botOwnerIDs[userID]; ok {
		return true, nil
	}

	member, err := s.gateway.GuildMember(ctx, guildID, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get guild member: %w", err)
	}

	if member.IsGuildOwner || member.CanManageGuild {
		return true, nil
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().Get(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get guild config: %w", err)
	}
	if config == nil {
		return false, nil
	}

	isAdmin := config.HasAdminRole(member.RoleIDs)
	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"is_admin": isAdmin,
	}).Debug("Checked configured admin roles")

	return isAdmin, nil
}
