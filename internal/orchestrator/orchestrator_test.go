package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

func TestResolveAccountForGuildFindsOwningAccount(t *testing.T) {
	o := &Orchestrator{Accounts: []Account{
		{Name: "bot-a", GuildIDs: []snowflake.ID{100, 200}},
		{Name: "bot-b", GuildIDs: []snowflake.ID{300}},
	}}

	acct, ok := o.resolveAccountForGuild(200)
	assert.True(t, ok)
	assert.Equal(t, "bot-a", acct.Name)

	acct, ok = o.resolveAccountForGuild(300)
	assert.True(t, ok)
	assert.Equal(t, "bot-b", acct.Name)
}

func TestResolveAccountForGuildMissesUnknownGuild(t *testing.T) {
	o := &Orchestrator{Accounts: []Account{
		{Name: "bot-a", GuildIDs: []snowflake.ID{100}},
	}}

	_, ok := o.resolveAccountForGuild(999)
	assert.False(t, ok)
}
