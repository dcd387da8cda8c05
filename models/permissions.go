package models

// Permission bits, identical to Discord's layout so they pass through the
// gateway unchanged.
const (
	PermissionManageChannels     int64 = 1 << 4
	PermissionPrioritySpeaker    int64 = 1 << 8
	PermissionViewChannel        int64 = 1 << 10
	PermissionSendMessages       int64 = 1 << 11
	PermissionReadMessageHistory int64 = 1 << 16
	PermissionConnect            int64 = 1 << 20
	PermissionSpeak              int64 = 1 << 21
	PermissionMoveMembers        int64 = 1 << 24
)

const (
	// OwnerVoicePermissions is granted to the owner of a provisioned voice channel
	OwnerVoicePermissions = PermissionViewChannel | PermissionConnect | PermissionSpeak |
		PermissionPrioritySpeaker | PermissionMoveMembers | PermissionManageChannels
	// OwnerTextPermissions is granted to the owner of a paired text channel
	OwnerTextPermissions = PermissionViewChannel | PermissionSendMessages |
		PermissionReadMessageHistory | PermissionManageChannels

	VoiceAccessPermissions = PermissionViewChannel | PermissionConnect
	TextAccessPermissions  = PermissionViewChannel | PermissionSendMessages
)
