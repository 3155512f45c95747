// Package syncengine drives the two-frontier per-channel message sync:
// Backfill walks a channel's history backwards from its oldest known point
// (or the present, on first run) toward message zero; Incremental walks
// forward from the newest known point toward the present. Both are
// grounded on
// original_source/discord_archive/ingest/backfill.py and
// original_source/discord_archive/ingest/incremental.py.
package syncengine

import (
	"context"

	"github.com/pkg/errors"
	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/discordhttp"
	"github.com/veteran-software/discord-archive/internal/mappers"
	"github.com/veteran-software/discord-archive/internal/snowflake"
	"github.com/veteran-software/discord-archive/internal/store"
)

// PageSize is the number of messages requested per call to the messages
// endpoint; Discord's own ceiling is 100.
var PageSize = 100

// Messages is the subset of discordhttp.Client this package depends on, so
// tests can substitute a fake without standing up an HTTP server.
type Messages interface {
	GetMessages(ctx context.Context, channelID snowflake.ID, q discordhttp.MessagesQuery) ([]discord.Message, error)
}

// Persister is the subset of *store.Store this package depends on.
type Persister interface {
	CreateOrGetCheckpoint(ctx context.Context, channelID, guildID snowflake.ID) (*store.Checkpoint, error)
	UpdateOldest(ctx context.Context, channelID, guildID snowflake.ID, id snowflake.ID) error
	UpdateNewest(ctx context.Context, channelID, guildID snowflake.ID, id snowflake.ID) error
	MarkBackfillComplete(ctx context.Context, channelID snowflake.ID) error
	PersistMessagesBatch(ctx context.Context, messages []mappers.MappedMessage, attachments []mappers.MappedAttachment, reactions []mappers.MappedReaction, users []mappers.MappedUser) (int, error)
}

// Engine runs backfill and incremental sync for one channel at a time.
type Engine struct {
	Client Messages
	Store  Persister
}

func New(client Messages, st Persister) *Engine {
	return &Engine{Client: client, Store: st}
}

// persistPage maps and writes one page of raw messages, returning the
// number of messages persisted.
func (e *Engine) persistPage(ctx context.Context, raw []discord.Message, guildID snowflake.ID) (int, error) {
	messages, attachments, reactions := mappers.MapMessages(raw, guildID)

	var users []mappers.MappedUser
	for _, m := range raw {
		users = append(users, mappers.ExtractUsersFromMessage(m)...)
	}

	return e.Store.PersistMessagesBatch(ctx, messages, attachments, reactions, users)
}

// Backfill walks backward in time (before = oldest known message, or
// unset on the very first call) until the channel is exhausted or already
// marked complete. On the channel's first-ever batch (both frontiers
// unset), it seeds the newest frontier to that batch's newest id as well,
// matching original_source/ingest/backfill.py's run_backfill: the newest
// frontier is only ever initialized this way, never advanced further by
// backfill itself.
func (e *Engine) Backfill(ctx context.Context, channelID, guildID snowflake.ID) (int, error) {
	cp, err := e.Store.CreateOrGetCheckpoint(ctx, channelID, guildID)
	if err != nil {
		return 0, errors.Wrap(err, "syncengine: backfill checkpoint")
	}
	if cp.BackfillComplete {
		return 0, nil
	}

	total := 0
	before := snowflake.ID(0)
	if cp.OldestMessageID != nil {
		before = *cp.OldestMessageID
	}
	firstBatch := cp.OldestMessageID == nil && cp.NewestMessageID == nil

	for {
		page, err := e.Client.GetMessages(ctx, channelID, discordhttp.MessagesQuery{Limit: PageSize, Before: before})
		if err != nil {
			return total, errors.Wrap(err, "syncengine: backfill fetch")
		}
		if len(page) == 0 {
			if err := e.Store.MarkBackfillComplete(ctx, channelID); err != nil {
				return total, errors.Wrap(err, "syncengine: mark backfill complete")
			}
			return total, nil
		}

		n, err := e.persistPage(ctx, page, guildID)
		if err != nil {
			return total, errors.Wrap(err, "syncengine: backfill persist")
		}
		total += n

		oldestInPage, newestInPage := frontiersOf(page)

		if err := e.Store.UpdateOldest(ctx, channelID, guildID, oldestInPage); err != nil {
			return total, errors.Wrap(err, "syncengine: backfill update oldest")
		}
		if firstBatch {
			if err := e.Store.UpdateNewest(ctx, channelID, guildID, newestInPage); err != nil {
				return total, errors.Wrap(err, "syncengine: backfill seed newest")
			}
			firstBatch = false
		}

		if len(page) < PageSize {
			if err := e.Store.MarkBackfillComplete(ctx, channelID); err != nil {
				return total, errors.Wrap(err, "syncengine: mark backfill complete")
			}
			return total, nil
		}

		before = oldestInPage
	}
}

// Incremental walks forward from the newest known message toward the
// present. If the channel has no checkpoint yet (never backfilled),
// nothing is fetched: backfill always runs first and seeds the newest
// frontier, matching original_source/ingest/incremental.py's
// run_incremental guard.
func (e *Engine) Incremental(ctx context.Context, channelID, guildID snowflake.ID) (int, error) {
	cp, err := e.Store.CreateOrGetCheckpoint(ctx, channelID, guildID)
	if err != nil {
		return 0, errors.Wrap(err, "syncengine: incremental checkpoint")
	}
	if cp.NewestMessageID == nil {
		return 0, nil
	}

	total := 0
	after := *cp.NewestMessageID

	for {
		page, err := e.Client.GetMessages(ctx, channelID, discordhttp.MessagesQuery{Limit: PageSize, After: after})
		if err != nil {
			return total, errors.Wrap(err, "syncengine: incremental fetch")
		}
		if len(page) == 0 {
			return total, nil
		}

		n, err := e.persistPage(ctx, page, guildID)
		if err != nil {
			return total, errors.Wrap(err, "syncengine: incremental persist")
		}
		total += n

		_, newestInPage := frontiersOf(page)
		if err := e.Store.UpdateNewest(ctx, channelID, guildID, newestInPage); err != nil {
			return total, errors.Wrap(err, "syncengine: incremental update newest")
		}

		if len(page) < PageSize {
			return total, nil
		}
		after = newestInPage
	}
}

// frontiersOf returns the smallest and largest message IDs in a page.
// Discord returns messages newest-first, but this does not assume that
// ordering: it scans explicitly so a differently-ordered page (e.g. from
// a test fake) still resolves correctly.
func frontiersOf(page []discord.Message) (oldest, newest snowflake.ID) {
	oldest = page[0].ID
	newest = page[0].ID
	for _, m := range page[1:] {
		if m.ID < oldest {
			oldest = m.ID
		}
		if m.ID > newest {
			newest = m.ID
		}
	}
	return oldest, newest
}
