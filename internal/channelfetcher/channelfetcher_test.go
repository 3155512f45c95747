package channelfetcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/permissions"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

type fakeClient struct {
	channels     []discord.Channel
	active       discord.ThreadListResponse
	publicPages  map[snowflake.ID][]discord.ThreadListResponse
	privatePages map[snowflake.ID][]discord.ThreadListResponse
	publicCalls  int
	privateCalls int
	publicNext   map[snowflake.ID]int
	privateNext  map[snowflake.ID]int
}

func (f *fakeClient) GetGuildChannels(context.Context, snowflake.ID) ([]discord.Channel, error) {
	return f.channels, nil
}

func (f *fakeClient) GetActiveThreads(context.Context, snowflake.ID) (*discord.ThreadListResponse, error) {
	return &f.active, nil
}

func (f *fakeClient) GetPublicArchivedThreads(_ context.Context, channelID snowflake.ID, _ string, _ int) (*discord.ThreadListResponse, error) {
	f.publicCalls++
	if f.publicNext == nil {
		f.publicNext = map[snowflake.ID]int{}
	}
	pages := f.publicPages[channelID]
	i := f.publicNext[channelID]
	if i >= len(pages) {
		return &discord.ThreadListResponse{}, nil
	}
	f.publicNext[channelID] = i + 1
	return &pages[i], nil
}

func (f *fakeClient) GetPrivateArchivedThreads(_ context.Context, channelID snowflake.ID, _ string, _ int) (*discord.ThreadListResponse, error) {
	f.privateCalls++
	if f.privateNext == nil {
		f.privateNext = map[snowflake.ID]int{}
	}
	pages := f.privatePages[channelID]
	i := f.privateNext[channelID]
	if i >= len(pages) {
		return &discord.ThreadListResponse{}, nil
	}
	f.privateNext[channelID] = i + 1
	return &pages[i], nil
}

func everyonePC(everyoneID snowflake.ID, base permissions.Bits) PermissionContext {
	return PermissionContext{UserID: 1, EveryoneRoleID: everyoneID, UserRoleIDs: nil, BasePerms: base}
}

// FetchAllChannels returns every top-level channel the guild-channel
// listing reports, regardless of type or permission -- matching
// original_source's fetch_all_channels, which does channels.extend(...)
// unconditionally before any filtering. Type/permission only gate which
// channels are eligible for thread-pagination recursion.
func TestFetchAllChannelsReturnsEveryTopLevelChannelUnfiltered(t *testing.T) {
	visible := discord.Channel{ID: 10, Type: discord.ChannelText, Name: strPtr("general")}
	voiceHidden := discord.Channel{ID: 11, Type: discord.ChannelVoice, Name: strPtr("vc")}
	category := discord.Channel{ID: 12, Type: discord.ChannelCategory, Name: strPtr("cat")}

	client := &fakeClient{
		channels:     []discord.Channel{visible, voiceHidden, category},
		publicPages:  map[snowflake.ID][]discord.ThreadListResponse{},
		privatePages: map[snowflake.ID][]discord.ThreadListResponse{},
	}
	f := &Fetcher{Client: client}

	base := permissions.ViewChannel | permissions.ReadMessageHistory
	out, err := f.FetchAllChannels(context.Background(), 1, everyonePC(1, base))
	require.NoError(t, err)

	ids := map[snowflake.ID]bool{}
	for _, c := range out {
		ids[c.ID] = true
	}
	assert.True(t, ids[10])
	assert.True(t, ids[11])
	assert.True(t, ids[12])
	assert.Len(t, out, 3)
}

func TestFetchAllChannelsPaginatesForumAndMediaPublicThreadsOnly(t *testing.T) {
	forum := discord.Channel{ID: 40, Type: discord.ChannelForum}
	media := discord.Channel{ID: 41, Type: discord.ChannelMedia}
	forumThread := discord.Channel{ID: 42, Type: discord.ChannelPublicThread, ThreadMetadata: &discord.ThreadMetadata{ArchiveTimestamp: time.Now()}}
	mediaThread := discord.Channel{ID: 43, Type: discord.ChannelPublicThread, ThreadMetadata: &discord.ThreadMetadata{ArchiveTimestamp: time.Now()}}

	client := &fakeClient{
		channels: []discord.Channel{forum, media},
		publicPages: map[snowflake.ID][]discord.ThreadListResponse{
			40: {{Threads: []discord.Channel{forumThread}}},
			41: {{Threads: []discord.Channel{mediaThread}}},
		},
		privatePages: map[snowflake.ID][]discord.ThreadListResponse{},
	}
	f := &Fetcher{Client: client}

	base := permissions.ViewChannel | permissions.ReadMessageHistory | permissions.ManageThreads
	out, err := f.FetchAllChannels(context.Background(), 1, everyonePC(1, base))
	require.NoError(t, err)

	ids := map[snowflake.ID]bool{}
	for _, c := range out {
		ids[c.ID] = true
	}
	assert.True(t, ids[40])
	assert.True(t, ids[41])
	assert.True(t, ids[42], "forum channel's archived threads should be discovered")
	assert.True(t, ids[43], "media channel's archived threads should be discovered")
	assert.Equal(t, 0, client.privateCalls, "forum/media channels must never paginate private archived threads")
}

func TestFetchAllChannelsIncludesArchivedThreadsAcrossPages(t *testing.T) {
	parent := discord.Channel{ID: 20, Type: discord.ChannelText}
	t1 := discord.Channel{ID: 21, Type: discord.ChannelPublicThread, ThreadMetadata: &discord.ThreadMetadata{ArchiveTimestamp: time.Now()}}
	t2 := discord.Channel{ID: 22, Type: discord.ChannelPublicThread}

	client := &fakeClient{
		channels: []discord.Channel{parent},
		publicPages: map[snowflake.ID][]discord.ThreadListResponse{
			20: {
				{Threads: []discord.Channel{t1}, HasMore: true},
				{Threads: []discord.Channel{t2}, HasMore: false},
			},
		},
		privatePages: map[snowflake.ID][]discord.ThreadListResponse{},
	}
	f := &Fetcher{Client: client}

	base := permissions.ViewChannel | permissions.ReadMessageHistory
	out, err := f.FetchAllChannels(context.Background(), 1, everyonePC(1, base))
	require.NoError(t, err)

	ids := map[snowflake.ID]bool{}
	for _, c := range out {
		ids[c.ID] = true
	}
	assert.True(t, ids[20])
	assert.True(t, ids[21])
	assert.True(t, ids[22])
}

func TestFetchAllChannelsSkipsPrivateArchivedWithoutManageThreads(t *testing.T) {
	parent := discord.Channel{ID: 30, Type: discord.ChannelText}
	privateThread := discord.Channel{ID: 31, Type: discord.ChannelPrivateThread}

	client := &fakeClient{
		channels:    []discord.Channel{parent},
		publicPages: map[snowflake.ID][]discord.ThreadListResponse{},
		privatePages: map[snowflake.ID][]discord.ThreadListResponse{
			30: {{Threads: []discord.Channel{privateThread}}},
		},
	}
	f := &Fetcher{Client: client}

	base := permissions.ViewChannel | permissions.ReadMessageHistory // no ManageThreads
	out, err := f.FetchAllChannels(context.Background(), 1, everyonePC(1, base))
	require.NoError(t, err)

	for _, c := range out {
		assert.NotEqual(t, snowflake.ID(31), c.ID, "private archived threads require MANAGE_THREADS")
	}
}

func strPtr(s string) *string { return &s }
