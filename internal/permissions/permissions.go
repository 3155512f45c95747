// Package permissions computes the final permission mask for a (user,
// channel) pair. It is a pure function over already-fetched data: it makes
// no network or database call, unlike the teacher's own computePermissions
// (api/permissions.go), which dereferences a live Guild fetch mid-calculation.
package permissions

import "github.com/veteran-software/discord-archive/internal/snowflake"

// Bits is the 64-bit permission bitfield. Only the subset the archiver
// inspects is named below; unnamed bits are carried but never tested.
type Bits uint64

//goland:noinspection GoUnusedConst
const (
	CreateInstantInvite Bits = 1 << 0
	KickMembers         Bits = 1 << 1
	BanMembers          Bits = 1 << 2
	Administrator       Bits = 1 << 3
	ManageChannels      Bits = 1 << 4
	ManageGuild         Bits = 1 << 5
	AddReactions        Bits = 1 << 6
	ViewAuditLog        Bits = 1 << 7
	PrioritySpeaker     Bits = 1 << 8
	Stream              Bits = 1 << 9
	ViewChannel         Bits = 1 << 10
	SendMessages        Bits = 1 << 11
	SendTtsMessages     Bits = 1 << 12
	ManageMessages      Bits = 1 << 13
	EmbedLinks          Bits = 1 << 14
	AttachFiles         Bits = 1 << 15
	ReadMessageHistory  Bits = 1 << 16
	MentionEveryone     Bits = 1 << 17
	UseExternalEmojis   Bits = 1 << 18
	ViewGuildInsights   Bits = 1 << 19
	Connect             Bits = 1 << 20
	Speak               Bits = 1 << 21
	MuteMembers         Bits = 1 << 22
	DeafenMembers       Bits = 1 << 23
	MoveMembers         Bits = 1 << 24
	UseVad              Bits = 1 << 25
	ChangeNickname      Bits = 1 << 26
	ManageNicknames     Bits = 1 << 27
	ManageRoles         Bits = 1 << 28
	ManageWebhooks      Bits = 1 << 29
	ManageGuildExpressions Bits = 1 << 30
	UseApplicationCommands Bits = 1 << 31
	RequestToSpeak      Bits = 1 << 32
	ManageEvents        Bits = 1 << 33
	ManageThreads       Bits = 1 << 34
	CreatePublicThreads Bits = 1 << 35
	CreatePrivateThreads Bits = 1 << 36
	UseExternalStickers Bits = 1 << 37
	SendMessagesInThreads Bits = 1 << 38
	UseEmbeddedActivities Bits = 1 << 39
	ModerateMembers     Bits = 1 << 40

	AllBits Bits = 0xFFFFFFFFFFFFFFFF
)

// OverwriteType distinguishes a role overwrite from a member overwrite.
type OverwriteType int

const (
	OverwriteRole   OverwriteType = 0
	OverwriteMember OverwriteType = 1
)

// Overwrite is a (type, allow, deny) triple scoped to one channel, layered
// over base role permissions. Allow/Deny arrive from the wire as decimal
// strings (the mask overflows many JSON number parsers), already parsed to
// Bits by the mapper layer.
type Overwrite struct {
	ID    snowflake.ID
	Type  OverwriteType
	Allow Bits
	Deny  Bits
}

// Role is the minimal slice of a guild role needed for permission math.
type Role struct {
	ID          snowflake.ID
	Permissions Bits
}

// ChannelType mirrors internal/discord.ChannelType without importing it, to
// keep this package free of any DTO dependency; the caller maps types.
type ChannelType int

const (
	ChannelVoice ChannelType = 2
	ChannelStage ChannelType = 13
)

// BasePermissions computes the guild-level (channel-independent) mask.
// everyoneRoleID is always the guild ID. userRoleIDs is every role the
// member holds, excluding @everyone itself.
func BasePermissions(guildRoles []Role, everyoneRoleID snowflake.ID, userRoleIDs []snowflake.ID) Bits {
	byID := make(map[snowflake.ID]Bits, len(guildRoles))
	for _, r := range guildRoles {
		byID[r.ID] = r.Permissions
	}

	permissions := byID[everyoneRoleID]
	held := make(map[snowflake.ID]struct{}, len(userRoleIDs))
	for _, id := range userRoleIDs {
		held[id] = struct{}{}
	}
	for id := range held {
		permissions |= byID[id]
	}

	if permissions&Administrator != 0 {
		return AllBits
	}
	return permissions
}

// ChannelPermissions layers a channel's permission overwrites over an
// already-computed base mask:
//  1. @everyone overwrite: clear denies, then set allows.
//  2. Role overwrites applicable to this user: union denies, clear; union
//     allows, set.
//  3. Member-specific overwrite for this user, if any: clear denies, set
//     allows.
func ChannelPermissions(base Bits, userID snowflake.ID, userRoleIDs []snowflake.ID, everyoneRoleID snowflake.ID, overwrites []Overwrite) Bits {
	if base == AllBits {
		return AllBits
	}

	permissions := base
	held := make(map[snowflake.ID]struct{}, len(userRoleIDs))
	for _, id := range userRoleIDs {
		held[id] = struct{}{}
	}

	// 1. @everyone
	for _, ow := range overwrites {
		if ow.Type == OverwriteRole && ow.ID == everyoneRoleID {
			permissions &^= ow.Deny
			permissions |= ow.Allow
		}
	}

	// 2. Applicable role overwrites, combined before application.
	var roleDeny, roleAllow Bits
	for _, ow := range overwrites {
		if ow.Type != OverwriteRole || ow.ID == everyoneRoleID {
			continue
		}
		if _, ok := held[ow.ID]; !ok {
			continue
		}
		roleDeny |= ow.Deny
		roleAllow |= ow.Allow
	}
	permissions &^= roleDeny
	permissions |= roleAllow

	// 3. Member-specific overwrite.
	for _, ow := range overwrites {
		if ow.Type == OverwriteMember && ow.ID == userID {
			permissions &^= ow.Deny
			permissions |= ow.Allow
		}
	}

	return permissions
}

// CanView reports whether permissions grants VIEW_CHANNEL.
func CanView(p Bits) bool { return p&ViewChannel != 0 }

// CanReadHistory reports whether permissions grants READ_MESSAGE_HISTORY.
func CanReadHistory(p Bits) bool { return p&ReadMessageHistory != 0 }

// CanManageThreads reports whether permissions grants MANAGE_THREADS.
func CanManageThreads(p Bits) bool { return p&ManageThreads != 0 }

// CanConnect reports whether permissions grants CONNECT.
func CanConnect(p Bits) bool { return p&Connect != 0 }

// IsMessageAccessible reports whether a channel of the given type is
// accessible for message-archival purposes: VIEW_CHANNEL always required,
// plus CONNECT for the voice family (voice, stage).
func IsMessageAccessible(p Bits, channelType ChannelType) bool {
	if !CanView(p) {
		return false
	}
	if channelType == ChannelVoice || channelType == ChannelStage {
		return CanConnect(p)
	}
	return true
}
