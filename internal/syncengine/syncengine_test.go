package syncengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/discordhttp"
	"github.com/veteran-software/discord-archive/internal/mappers"
	"github.com/veteran-software/discord-archive/internal/snowflake"
	"github.com/veteran-software/discord-archive/internal/store"
)

type fakeMessages struct {
	pages [][]discord.Message
	calls []discordhttp.MessagesQuery
}

func (f *fakeMessages) GetMessages(_ context.Context, _ snowflake.ID, q discordhttp.MessagesQuery) ([]discord.Message, error) {
	f.calls = append(f.calls, q)
	if len(f.pages) == 0 {
		return nil, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

type fakeStore struct {
	checkpoints map[snowflake.ID]*store.Checkpoint
	persisted   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{checkpoints: map[snowflake.ID]*store.Checkpoint{}}
}

func (f *fakeStore) CreateOrGetCheckpoint(_ context.Context, channelID, guildID snowflake.ID) (*store.Checkpoint, error) {
	if cp, ok := f.checkpoints[channelID]; ok {
		return cp, nil
	}
	cp := &store.Checkpoint{ChannelID: channelID, GuildID: guildID}
	f.checkpoints[channelID] = cp
	return cp, nil
}

func (f *fakeStore) UpdateOldest(_ context.Context, channelID, _ snowflake.ID, id snowflake.ID) error {
	cp := f.checkpoints[channelID]
	if cp.OldestMessageID == nil || id < *cp.OldestMessageID {
		v := id
		cp.OldestMessageID = &v
	}
	return nil
}

func (f *fakeStore) UpdateNewest(_ context.Context, channelID, _ snowflake.ID, id snowflake.ID) error {
	cp := f.checkpoints[channelID]
	if cp.NewestMessageID == nil || id > *cp.NewestMessageID {
		v := id
		cp.NewestMessageID = &v
	}
	return nil
}

func (f *fakeStore) MarkBackfillComplete(_ context.Context, channelID snowflake.ID) error {
	f.checkpoints[channelID].BackfillComplete = true
	return nil
}

func (f *fakeStore) PersistMessagesBatch(_ context.Context, messages []mappers.MappedMessage, _ []mappers.MappedAttachment, _ []mappers.MappedReaction, _ []mappers.MappedUser) (int, error) {
	f.persisted += len(messages)
	return len(messages), nil
}

func msg(id snowflake.ID) discord.Message {
	return discord.Message{ID: id, ChannelID: 1, Author: discord.User{ID: 900}, Content: "hi"}
}

func TestBackfillSeedsNewestOnFirstBatchOnly(t *testing.T) {
	oldInitial := PageSize
	PageSize = 3
	defer func() { PageSize = oldInitial }()

	client := &fakeMessages{pages: [][]discord.Message{
		{msg(10), msg(9), msg(8)},
		{msg(7)},
	}}
	st := newFakeStore()
	e := New(client, st)

	total, err := e.Backfill(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	cp := st.checkpoints[1]
	require.NotNil(t, cp.OldestMessageID)
	require.NotNil(t, cp.NewestMessageID)
	assert.Equal(t, snowflake.ID(7), *cp.OldestMessageID)
	assert.Equal(t, snowflake.ID(10), *cp.NewestMessageID, "newest is seeded from the first batch only")
	assert.True(t, cp.BackfillComplete)
}

func TestBackfillSkipsAlreadyCompleteChannel(t *testing.T) {
	client := &fakeMessages{}
	st := newFakeStore()
	st.checkpoints[1] = &store.Checkpoint{ChannelID: 1, GuildID: 100, BackfillComplete: true}

	e := New(client, st)
	total, err := e.Backfill(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, client.calls)
}

func TestIncrementalNoopsWithoutPriorBackfill(t *testing.T) {
	client := &fakeMessages{}
	st := newFakeStore()

	e := New(client, st)
	total, err := e.Incremental(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, client.calls, "incremental must not fetch before a newest frontier exists")
}

func TestIncrementalAdvancesNewestForward(t *testing.T) {
	oldInitial := PageSize
	PageSize = 2
	defer func() { PageSize = oldInitial }()

	client := &fakeMessages{pages: [][]discord.Message{
		{msg(11), msg(12)},
		{msg(13)},
	}}
	st := newFakeStore()
	seed := snowflake.ID(10)
	st.checkpoints[1] = &store.Checkpoint{ChannelID: 1, GuildID: 100, NewestMessageID: &seed}

	e := New(client, st)
	total, err := e.Incremental(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, snowflake.ID(13), *st.checkpoints[1].NewestMessageID)
}
