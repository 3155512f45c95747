package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

// Checkpoint is the per-channel sync state: the two message-id frontiers
// plus the backfill-complete flag that together drive resumable sync.
type Checkpoint struct {
	ChannelID        snowflake.ID
	GuildID          snowflake.ID
	OldestMessageID  *snowflake.ID
	NewestMessageID  *snowflake.ID
	BackfillComplete bool
	LastSyncedAt     time.Time
}

// GetCheckpoint looks up a channel's checkpoint, if one exists.
func (s *Store) GetCheckpoint(ctx context.Context, channelID snowflake.ID) (*Checkpoint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT channel_id, guild_id, oldest_message_id, newest_message_id, backfill_complete, last_synced_at
		FROM ingest_checkpoints WHERE channel_id = $1`, int64(channelID))
	return scanCheckpoint(row)
}

// CreateOrGetCheckpoint is a read-through lookup: it inserts a fresh row
// (both frontiers null, backfill_complete false) on miss.
func (s *Store) CreateOrGetCheckpoint(ctx context.Context, channelID, guildID snowflake.ID) (*Checkpoint, error) {
	cp, err := s.GetCheckpoint(ctx, channelID)
	if err == nil {
		return cp, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO ingest_checkpoints (channel_id, guild_id, oldest_message_id, newest_message_id, backfill_complete, last_synced_at)
		VALUES ($1, $2, NULL, NULL, false, now())
		ON CONFLICT (channel_id) DO NOTHING`, int64(channelID), int64(guildID))
	if err != nil {
		return nil, errors.Wrap(err, "store: create checkpoint")
	}
	return s.GetCheckpoint(ctx, channelID)
}

// UpdateOldest only ever decreases the oldest frontier. On the very first
// batch (both frontiers null), it also initializes newest to the same id,
// matching
// original_source/ingest/state.py's update_oldest.
func (s *Store) UpdateOldest(ctx context.Context, channelID, guildID snowflake.ID, id snowflake.ID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_checkpoints (channel_id, guild_id, oldest_message_id, newest_message_id, backfill_complete, last_synced_at)
		VALUES ($1, $2, $3, $3, false, now())
		ON CONFLICT (channel_id) DO UPDATE SET
			oldest_message_id = CASE
				WHEN ingest_checkpoints.oldest_message_id IS NULL OR $3 < ingest_checkpoints.oldest_message_id
				THEN $3 ELSE ingest_checkpoints.oldest_message_id END,
			newest_message_id = CASE
				WHEN ingest_checkpoints.oldest_message_id IS NULL AND ingest_checkpoints.newest_message_id IS NULL
				THEN $3 ELSE ingest_checkpoints.newest_message_id END,
			last_synced_at = now()`,
		int64(channelID), int64(guildID), int64(id))
	return errors.Wrap(err, "store: update oldest")
}

// UpdateNewest only ever increases the newest frontier.
func (s *Store) UpdateNewest(ctx context.Context, channelID, guildID snowflake.ID, id snowflake.ID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_checkpoints (channel_id, guild_id, oldest_message_id, newest_message_id, backfill_complete, last_synced_at)
		VALUES ($1, $2, NULL, $3, false, now())
		ON CONFLICT (channel_id) DO UPDATE SET
			newest_message_id = CASE
				WHEN ingest_checkpoints.newest_message_id IS NULL OR $3 > ingest_checkpoints.newest_message_id
				THEN $3 ELSE ingest_checkpoints.newest_message_id END,
			last_synced_at = now()`,
		int64(channelID), int64(guildID), int64(id))
	return errors.Wrap(err, "store: update newest")
}

// UpdateBounds combines the two guarded assignments; a nil pointer for
// either bound is a no-op for that bound.
func (s *Store) UpdateBounds(ctx context.Context, channelID, guildID snowflake.ID, oldest, newest *snowflake.ID) error {
	if _, err := s.CreateOrGetCheckpoint(ctx, channelID, guildID); err != nil {
		return err
	}
	if oldest != nil {
		if err := s.UpdateOldest(ctx, channelID, guildID, *oldest); err != nil {
			return err
		}
	}
	if newest != nil {
		if err := s.UpdateNewest(ctx, channelID, guildID, *newest); err != nil {
			return err
		}
	}
	return nil
}

// MarkBackfillComplete marks a channel's backfill as finished. Idempotent:
// once true it is never cleared.
func (s *Store) MarkBackfillComplete(ctx context.Context, channelID snowflake.ID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE ingest_checkpoints SET backfill_complete = true, last_synced_at = now()
		WHERE channel_id = $1`, int64(channelID))
	return errors.Wrap(err, "store: mark backfill complete")
}

// IsBackfillComplete reports whether a channel's backfill has finished.
func (s *Store) IsBackfillComplete(ctx context.Context, channelID snowflake.ID) (bool, error) {
	cp, err := s.GetCheckpoint(ctx, channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return cp.BackfillComplete, nil
}

// GetIncompleteBackfills returns every channel in guildID whose checkpoint
// has not yet reached backfill_complete.
func (s *Store) GetIncompleteBackfills(ctx context.Context, guildID snowflake.ID) ([]snowflake.ID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT channel_id FROM ingest_checkpoints
		WHERE guild_id = $1 AND backfill_complete = false`, int64(guildID))
	if err != nil {
		return nil, errors.Wrap(err, "store: get incomplete backfills")
	}
	defer rows.Close()

	var ids []snowflake.ID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, snowflake.ID(id))
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row rowScanner) (*Checkpoint, error) {
	var (
		channelID, guildID      int64
		oldest, newest          *int64
		backfillComplete        bool
		lastSyncedAt            time.Time
	)
	if err := row.Scan(&channelID, &guildID, &oldest, &newest, &backfillComplete, &lastSyncedAt); err != nil {
		return nil, err
	}
	cp := &Checkpoint{
		ChannelID:        snowflake.ID(channelID),
		GuildID:          snowflake.ID(guildID),
		BackfillComplete: backfillComplete,
		LastSyncedAt:     lastSyncedAt,
	}
	if oldest != nil {
		id := snowflake.ID(*oldest)
		cp.OldestMessageID = &id
	}
	if newest != nil {
		id := snowflake.ID(*newest)
		cp.NewestMessageID = &id
	}
	return cp, nil
}
