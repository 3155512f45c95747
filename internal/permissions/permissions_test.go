package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

func TestBasePermissionsAdministratorShortCircuits(t *testing.T) {
	everyone := snowflake.ID(1)
	admin := snowflake.ID(2)
	roles := []Role{
		{ID: everyone, Permissions: ViewChannel},
		{ID: admin, Permissions: Administrator},
	}
	got := BasePermissions(roles, everyone, []snowflake.ID{admin})
	assert.Equal(t, AllBits, got)
}

func TestBasePermissionsUnionsRoles(t *testing.T) {
	everyone := snowflake.ID(1)
	roleA := snowflake.ID(2)
	roleB := snowflake.ID(3)
	roles := []Role{
		{ID: everyone, Permissions: ViewChannel},
		{ID: roleA, Permissions: SendMessages},
		{ID: roleB, Permissions: ReadMessageHistory},
	}
	got := BasePermissions(roles, everyone, []snowflake.ID{roleA, roleB})
	assert.Equal(t, ViewChannel|SendMessages|ReadMessageHistory, got)
}

func TestChannelPermissionsOrdering(t *testing.T) {
	everyone := snowflake.ID(1)
	role := snowflake.ID(2)
	user := snowflake.ID(3)

	base := ViewChannel | SendMessages
	overwrites := []Overwrite{
		{ID: everyone, Type: OverwriteRole, Deny: SendMessages},
		{ID: role, Type: OverwriteRole, Allow: SendMessages},
		{ID: user, Type: OverwriteMember, Deny: SendMessages},
	}

	got := ChannelPermissions(base, user, []snowflake.ID{role}, everyone, overwrites)
	// @everyone deny clears SendMessages, role allow restores it, member
	// deny clears it again -- member overwrite wins as the last layer.
	assert.False(t, got&SendMessages != 0)
	assert.True(t, got&ViewChannel != 0)
}

func TestChannelPermissionsCombinesRoleOverwritesBeforeApplying(t *testing.T) {
	everyone := snowflake.ID(1)
	roleA := snowflake.ID(2)
	roleB := snowflake.ID(3)

	base := ViewChannel
	overwrites := []Overwrite{
		{ID: roleA, Type: OverwriteRole, Deny: SendMessages},
		{ID: roleB, Type: OverwriteRole, Allow: SendMessages},
	}
	// A role-deny and a different role-allow on the same bit: combined
	// deny then combined allow means allow wins (deny applied first, then
	// allow is set), matching the teacher-independent spec ordering.
	got := ChannelPermissions(base, snowflake.ID(99), []snowflake.ID{roleA, roleB}, everyone, overwrites)
	assert.True(t, got&SendMessages != 0)
}

func TestChannelPermissionsAllBitsShortCircuit(t *testing.T) {
	got := ChannelPermissions(AllBits, snowflake.ID(1), nil, snowflake.ID(2), []Overwrite{
		{ID: snowflake.ID(2), Type: OverwriteRole, Deny: AllBits},
	})
	assert.Equal(t, AllBits, got)
}

func TestIsMessageAccessible(t *testing.T) {
	assert.True(t, IsMessageAccessible(ViewChannel, 0))
	assert.False(t, IsMessageAccessible(ViewChannel, ChannelVoice))
	assert.True(t, IsMessageAccessible(ViewChannel|Connect, ChannelVoice))
	assert.False(t, IsMessageAccessible(0, 0))
}
