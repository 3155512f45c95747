package guildproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veteran-software/discord-archive/internal/channelfetcher"
	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/discordhttp"
	"github.com/veteran-software/discord-archive/internal/permissions"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

func TestIsForbiddenRecognizesForbiddenAndNotFound(t *testing.T) {
	assert.True(t, isForbidden(&discordhttp.APIError{StatusCode: 403, Message: "missing access"}))
	assert.True(t, isForbidden(&discordhttp.APIError{StatusCode: 404, Message: "unknown channel"}))
	assert.False(t, isForbidden(&discordhttp.APIError{StatusCode: 500, Message: "internal"}))
	assert.False(t, isForbidden(nil))
}

func TestFilterViewableTextChannelsExcludesCategoryForumMediaAndInaccessible(t *testing.T) {
	pc := channelfetcher.PermissionContext{
		UserID:         1,
		EveryoneRoleID: 100,
		BasePerms:      permissions.ViewChannel | permissions.ReadMessageHistory | permissions.Connect,
	}

	text := discord.Channel{ID: 10, Type: discord.ChannelText}
	category := discord.Channel{ID: 11, Type: discord.ChannelCategory}
	forum := discord.Channel{ID: 12, Type: discord.ChannelForum}
	media := discord.Channel{ID: 13, Type: discord.ChannelMedia}
	voice := discord.Channel{ID: 14, Type: discord.ChannelVoice}

	hiddenOverwrite := discord.Overwrite{ID: 100, Type: 0, Allow: "0", Deny: "1024"}
	hiddenText := discord.Channel{ID: 15, Type: discord.ChannelText, PermissionOverwrites: []discord.Overwrite{hiddenOverwrite}}

	channels := []discord.Channel{text, category, forum, media, voice, hiddenText}

	viewable, skipped := filterViewableTextChannels(channels, pc)

	ids := map[snowflake.ID]bool{}
	for _, c := range viewable {
		ids[c.ID] = true
	}
	assert.True(t, ids[10])
	assert.True(t, ids[14])
	assert.False(t, ids[11], "category channels are never text-based")
	assert.False(t, ids[12], "forum channels carry no messages of their own")
	assert.False(t, ids[13], "media channels carry no messages of their own")
	assert.False(t, ids[15], "permission-denied channel must be excluded, not just skip-counted zero")
	assert.Equal(t, 1, skipped)
}
