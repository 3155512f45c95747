package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/veteran-software/discord-archive/internal/mappers"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

// upsertChannel inserts or updates one channel row, matching
// original_source/db/repositories/channel_repository.py's upsert_channel.
// parentID is passed separately from c.ParentID so BulkUpsertChannels can
// null it out for pass 1 of the two-pass insertion below.
func (s *Store) upsertChannel(ctx context.Context, c mappers.MappedChannel, parentID *snowflake.ID) error {
	overwrites, _ := json.Marshal(c.PermissionOverwrites)
	threadMeta, _ := json.Marshal(c.ThreadMetadata)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO channels (channel_id, guild_id, type, name, topic, position, permission_overwrites, parent_id,
			nsfw, last_message_id, thread_metadata, message_count, member_count, raw, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, now())
		ON CONFLICT (channel_id) DO UPDATE SET
			name = excluded.name,
			topic = excluded.topic,
			position = excluded.position,
			last_message_id = excluded.last_message_id,
			thread_metadata = excluded.thread_metadata,
			message_count = excluded.message_count,
			raw = excluded.raw,
			updated_at = now()`,
		int64(c.ID), int64(c.GuildID), int(c.Type), c.Name, c.Topic, c.Position, overwrites,
		optionalID(parentID), c.Nsfw, optionalID(c.LastMessageID), threadMeta, c.MessageCount, c.MemberCount, []byte(c.Raw))
	return errors.Wrap(err, "store: upsert channel")
}

// UpdateChannelParent sets parent_id directly, used by pass 2 of the
// two-pass insertion to avoid an FK violation within a batch.
func (s *Store) UpdateChannelParent(ctx context.Context, channelID, parentID snowflake.ID) error {
	_, err := s.pool.Exec(ctx, `UPDATE channels SET parent_id = $2 WHERE channel_id = $1`, int64(channelID), int64(parentID))
	return errors.Wrap(err, "store: update channel parent")
}

// BulkUpsertChannels implements a two-pass channel insertion: pass 1 writes
// every channel with parent_id = NULL, pass 2 fills parent_id for channels
// whose parent is in knownParentIDs (the batch's own set of channel IDs),
// matching
// original_source/db/repositories/channel_repository.py's
// bulk_upsert_channels.
func (s *Store) BulkUpsertChannels(ctx context.Context, channels []mappers.MappedChannel, knownParentIDs map[snowflake.ID]struct{}) error {
	for _, c := range channels {
		if err := s.upsertChannel(ctx, c, nil); err != nil {
			return err
		}
	}
	for _, c := range channels {
		if c.ParentID == nil {
			continue
		}
		if _, ok := knownParentIDs[*c.ParentID]; !ok {
			continue
		}
		if err := s.UpdateChannelParent(ctx, c.ID, *c.ParentID); err != nil {
			return err
		}
	}
	return nil
}

// ChannelKnownIDs extracts the set of channel IDs present in a batch, the
// set BulkUpsertChannels's second pass resolves parents against.
func ChannelKnownIDs(channels []mappers.MappedChannel) map[snowflake.ID]struct{} {
	ids := make(map[snowflake.ID]struct{}, len(channels))
	for _, c := range channels {
		ids[c.ID] = struct{}{}
	}
	return ids
}

// ListChannelsByGuild is a small maintenance helper that returns the IDs of
// every archived channel row belonging to guildID.
func (s *Store) ListChannelsByGuild(ctx context.Context, guildID snowflake.ID) ([]snowflake.ID, error) {
	rows, err := s.pool.Query(ctx, `SELECT channel_id FROM channels WHERE guild_id = $1`, int64(guildID))
	if err != nil {
		return nil, err
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
