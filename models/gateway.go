package models

// VoiceStateChange is a decoded voice-state-update. A zero channel id means
// the member was not in a voice channel on that side of the change.
type VoiceStateChange struct {
	GuildID         int64
	UserID          int64
	DisplayName     string
	BeforeChannelID int64
	AfterChannelID  int64
}

// Joined reports whether the member moved into a different channel
func (v VoiceStateChange) Joined() bool {
	return v.AfterChannelID != 0 && v.AfterChannelID != v.BeforeChannelID
}

// PrincipalType distinguishes member and role permission targets
type PrincipalType int

const (
	PrincipalRole PrincipalType = iota
	PrincipalMember
)

// Principal is the target of a permission overwrite
type Principal struct {
	ID   int64
	Type PrincipalType
}

// RolePrincipal returns a role target
func RolePrincipal(roleID int64) Principal {
	return Principal{ID: roleID, Type: PrincipalRole}
}

// MemberPrincipal returns a member target
func MemberPrincipal(userID int64) Principal {
	return Principal{ID: userID, Type: PrincipalMember}
}

// PermissionOverwrite is an allow/deny pair for one principal on one channel.
// Allow and Deny use the platform permission bit layout.
type PermissionOverwrite struct {
	Target Principal
	Allow  int64
	Deny   int64
}

// ChannelEdit carries optional channel changes; nil fields are left untouched
type ChannelEdit struct {
	Name      *string
	UserLimit *int
	Bitrate   *int // bits per second
}

// MemberInfo is what authorization needs to know about a guild member
type MemberInfo struct {
	UserID         int64
	DisplayName    string
	RoleIDs        []int64
	IsGuildOwner   bool
	CanManageGuild bool
	IsBot          bool
}
