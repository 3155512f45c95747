package mappers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

func TestSanitizeNulBytes(t *testing.T) {
	in := map[string]any{
		"content": "hi\x00bye",
		"nested":  []any{"a\x00b", map[string]any{"x": "y\x00z"}},
	}
	out := SanitizeNulBytes(in).(map[string]any)
	assert.Equal(t, "hibye", out["content"])
	nested := out["nested"].([]any)
	assert.Equal(t, "ab", nested[0])
	assert.Equal(t, "yz", nested[1].(map[string]any)["x"])
}

func TestEmojiKeyCustom(t *testing.T) {
	id := snowflake.MustParse("123")
	name := "pepe"
	e := discord.Emoji{ID: &id, Name: &name}
	assert.Equal(t, "custom:123", EmojiKey(e))
}

func TestEmojiKeyUnicode(t *testing.T) {
	name := "🔥"
	e := discord.Emoji{Name: &name}
	assert.Equal(t, "unicode:🔥", EmojiKey(e))
}

func TestMapMessageStripsNulAndPrefersOwnGuildID(t *testing.T) {
	msgGuild := snowflake.MustParse("999")
	m := discord.Message{
		ID:        snowflake.MustParse("1"),
		ChannelID: snowflake.MustParse("2"),
		GuildID:   &msgGuild,
		Author:    discord.User{ID: snowflake.MustParse("3")},
		Content:   "hi\x00bye",
	}
	mapped, _, _ := MapMessage(m, snowflake.MustParse("111"))
	assert.Equal(t, "hibye", mapped.Content)
	assert.Equal(t, msgGuild, mapped.GuildID)
}

func TestMapMessageFallsBackToPassedGuildID(t *testing.T) {
	m := discord.Message{
		ID:        snowflake.MustParse("1"),
		ChannelID: snowflake.MustParse("2"),
		Author:    discord.User{ID: snowflake.MustParse("3")},
	}
	mapped, _, _ := MapMessage(m, snowflake.MustParse("111"))
	assert.Equal(t, snowflake.MustParse("111"), mapped.GuildID)
}

func TestExtractUsersFromMessageIncludesAuthorAndMentionsWithDuplicates(t *testing.T) {
	author := discord.User{ID: snowflake.MustParse("1")}
	m := discord.Message{
		Author: author,
		Mentions: []discord.User{
			{ID: snowflake.MustParse("1")}, // author mentioned themselves
			{ID: snowflake.MustParse("2")},
		},
	}
	users := ExtractUsersFromMessage(m)
	assert.Len(t, users, 3)
	assert.Equal(t, snowflake.MustParse("1"), users[0].ID)
	assert.Equal(t, snowflake.MustParse("1"), users[1].ID)
	assert.Equal(t, snowflake.MustParse("2"), users[2].ID)
}

func TestParsePermissionMask(t *testing.T) {
	assert.Equal(t, uint64(8), uint64(ParsePermissionMask("8")))
	assert.Equal(t, uint64(0), uint64(ParsePermissionMask("")))
}
