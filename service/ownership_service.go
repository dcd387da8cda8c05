package service

import (
	"context"
	"errors"
	"fmt"

	"voicecreate/models"

	log "github.com/sirupsen/logrus"
)

type ownershipService struct {
	store   TrackingStore
	gateway ChannelGateway
	admins  AdminChecker
}

// NewOwnershipService creates the ownership and access controller
func NewOwnershipService(store TrackingStore, gateway ChannelGateway, admins AdminChecker) OwnershipService {
	return &ownershipService{
		store:   store,
		gateway: gateway,
		admins:  admins,
	}
}

func (s *ownershipService) owner(ctx context.Context, guildID, voiceChannelID int64) (int64, error) {
	owner, err := s.store.GetOwner(ctx, guildID, voiceChannelID)
	if err != nil {
		return 0, err
	}
	if owner == nil {
		return 0, fmt.Errorf("channel %d is not tracked: %w", voiceChannelID, ErrNotFound)
	}
	return *owner, nil
}

// Authorize returns the current owner if requesterID is the owner or an admin
func (s *ownershipService) Authorize(ctx context.Context, guildID, voiceChannelID, requesterID int64) (int64, error) {
	owner, err := s.owner(ctx, guildID, voiceChannelID)
	if err != nil {
		return 0, err
	}
	if owner == requesterID {
		return owner, nil
	}

	isAdmin, err := s.admins.IsAdmin(ctx, guildID, requesterID)
	if err != nil {
		return 0, fmt.Errorf("failed to check admin: %w", err)
	}
	if !isAdmin {
		return 0, ErrPermissionDenied
	}
	return owner, nil
}

// Claim hands an abandoned channel to claimantID
func (s *ownershipService) Claim(ctx context.Context, guildID, voiceChannelID, claimantID int64) error {
	owner, err := s.owner(ctx, guildID, voiceChannelID)
	if err != nil {
		return err
	}
	if owner == claimantID {
		return nil
	}

	members, err := s.gateway.ChannelMemberIDs(ctx, guildID, voiceChannelID)
	if err != nil {
		return fmt.Errorf("failed to list channel members: %w", err)
	}
	for _, id := range members {
		if id == owner {
			return ErrOwnerStillPresent
		}
	}

	if err := s.store.TransferOwnership(ctx, guildID, voiceChannelID, owner, claimantID); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"guild_id":         guildID,
		"voice_channel_id": voiceChannelID,
		"old_owner":        owner,
		"new_owner":        claimantID,
	}).Info("Channel claimed")

	s.grantOwner(ctx, guildID, voiceChannelID, claimantID)
	return nil
}

// Transfer gives the channel to newOwnerID on behalf of the owner or an admin
func (s *ownershipService) Transfer(ctx context.Context, guildID, voiceChannelID, requesterID, newOwnerID int64) error {
	owner, err := s.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return err
	}
	if owner == newOwnerID {
		return nil
	}

	if err := s.store.TransferOwnership(ctx, guildID, voiceChannelID, owner, newOwnerID); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"guild_id":         guildID,
		"voice_channel_id": voiceChannelID,
		"old_owner":        owner,
		"new_owner":        newOwnerID,
		"requester":        requesterID,
	}).Info("Channel ownership transferred")

	s.grantOwner(ctx, guildID, voiceChannelID, newOwnerID)
	return nil
}

// grantOwner gives the new owner the same overwrites provisioning would have.
// Failures are logged; the record is already authoritative.
func (s *ownershipService) grantOwner(ctx context.Context, guildID, voiceChannelID, ownerID int64) {
	voice := models.PermissionOverwrite{Target: models.MemberPrincipal(ownerID), Allow: models.OwnerVoicePermissions}
	text := models.PermissionOverwrite{Target: models.MemberPrincipal(ownerID), Allow: models.OwnerTextPermissions}
	if err := s.applyToPair(ctx, guildID, voiceChannelID, voice, text); err != nil {
		log.WithFields(log.Fields{
			"guild_id":         guildID,
			"voice_channel_id": voiceChannelID,
			"owner_id":         ownerID,
			"error":            err,
		}).Warn("Failed to grant owner permissions")
	}
}

// GrantAccess lets target connect to the voice channel and use the text channel
func (s *ownershipService) GrantAccess(ctx context.Context, guildID, voiceChannelID, requesterID int64, target models.Principal) error {
	if _, err := s.Authorize(ctx, guildID, voiceChannelID, requesterID); err != nil {
		return err
	}

	voice := models.PermissionOverwrite{Target: target, Allow: models.VoiceAccessPermissions}
	text := models.PermissionOverwrite{Target: target, Allow: models.TextAccessPermissions}
	return s.applyToPair(ctx, guildID, voiceChannelID, voice, text)
}

// DenyAccess blocks target from the pair and disconnects a denied member
func (s *ownershipService) DenyAccess(ctx context.Context, guildID, voiceChannelID, requesterID int64, target models.Principal) error {
	owner, err := s.Authorize(ctx, guildID, voiceChannelID, requesterID)
	if err != nil {
		return err
	}
	if target.Type == models.PrincipalMember && target.ID == owner {
		return fmt.Errorf("cannot deny the channel owner: %w", ErrInvalidInput)
	}

	voice := models.PermissionOverwrite{Target: target, Allow: models.PermissionViewChannel, Deny: models.PermissionConnect}
	text := models.PermissionOverwrite{Target: target, Deny: models.TextAccessPermissions}
	if err := s.applyToPair(ctx, guildID, voiceChannelID, voice, text); err != nil {
		return err
	}

	if target.Type != models.PrincipalMember {
		return nil
	}

	members, err := s.gateway.ChannelMemberIDs(ctx, guildID, voiceChannelID)
	if err != nil {
		return fmt.Errorf("failed to list channel members: %w", err)
	}
	for _, id := range members {
		if id == target.ID {
			if err := s.gateway.DisconnectMember(ctx, guildID, target.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("failed to disconnect member: %w", err)
			}
			break
		}
	}
	return nil
}

// WhoOwns returns the owner of a voice or text channel
func (s *ownershipService) WhoOwns(ctx context.Context, guildID, channelID int64) (int64, error) {
	return s.owner(ctx, guildID, channelID)
}

// applyToPair sets voice on the voice channel and text on its paired text
// channel, if there is one
func (s *ownershipService) applyToPair(ctx context.Context, guildID, voiceChannelID int64, voice, text models.PermissionOverwrite) error {
	if err := s.gateway.SetPermissionOverwrite(ctx, voiceChannelID, voice); err != nil {
		return fmt.Errorf("failed to set voice channel permissions: %w", err)
	}

	paired, err := s.store.GetTextChannel(ctx, guildID, voiceChannelID)
	if err != nil {
		return fmt.Errorf("failed to get paired text channel: %w", err)
	}
	if paired == nil {
		return nil
	}

	err = s.gateway.SetPermissionOverwrite(ctx, paired.TextChannelID, text)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to set text channel permissions: %w", err)
	}
	return nil
}
