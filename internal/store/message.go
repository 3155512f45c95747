package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/veteran-software/discord-archive/internal/mappers"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

// BulkUpsertUsers dedups within the batch (first occurrence of a user_id
// wins), then upserts with every column replaced on conflict (latest-wins),
// matching
// original_source/db/repositories/message_repository.py's
// bulk_upsert_users.
func (s *Store) BulkUpsertUsers(ctx context.Context, users []mappers.MappedUser) error {
	if len(users) == 0 {
		return nil
	}

	seen := make(map[snowflake.ID]struct{}, len(users))
	unique := make([]mappers.MappedUser, 0, len(users))
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		unique = append(unique, u)
	}

	batch := &pgx.Batch{}
	for _, u := range unique {
		batch.Queue(`
			INSERT INTO users (user_id, username, discriminator, global_name, avatar, banner, accent_color, bot, "system", public_flags, premium_type, raw, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
			ON CONFLICT (user_id) DO UPDATE SET
				username = excluded.username,
				discriminator = excluded.discriminator,
				global_name = excluded.global_name,
				avatar = excluded.avatar,
				banner = excluded.banner,
				accent_color = excluded.accent_color,
				bot = excluded.bot,
				"system" = excluded."system",
				public_flags = excluded.public_flags,
				premium_type = excluded.premium_type,
				raw = excluded.raw,
				updated_at = now()`,
			int64(u.ID), u.Username, u.Discriminator, u.GlobalName, u.Avatar, u.Banner,
			u.AccentColor, u.Bot, u.System, u.PublicFlags, u.PremiumType, []byte(u.Raw))
	}
	return s.runBatch(ctx, batch, "bulk upsert users")
}

// BulkInsertMessages inserts, on conflict do nothing -- messages are
// immutable and append-only once archived.
func (s *Store) BulkInsertMessages(ctx context.Context, messages []mappers.MappedMessage) error {
	if len(messages) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range messages {
		mentionIDs := toInt64Slice(m.MentionIDs)
		mentionRoleIDs := toInt64Slice(m.MentionRoleIDs)
		batch.Queue(`
			INSERT INTO messages (message_id, channel_id, author_id, guild_id, content, created_at, edited_timestamp,
				type, tts, flags, pinned, mention_everyone, mentions, mention_roles, webhook_id, application_id,
				referenced_message_id, raw)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			ON CONFLICT (message_id) DO NOTHING`,
			int64(m.ID), int64(m.ChannelID), int64(m.AuthorID), int64(m.GuildID), m.Content,
			m.CreatedAt, m.EditedTimestamp, m.Type, m.TTS, m.Flags, m.Pinned, m.MentionEveryone,
			mentionIDs, mentionRoleIDs, optionalID(m.WebhookID), optionalID(m.ApplicationID),
			optionalID(m.ReferencedMsgID), []byte(m.Raw))
	}
	return s.runBatch(ctx, batch, "bulk insert messages")
}

// BulkInsertAttachments inserts, on conflict do nothing.
func (s *Store) BulkInsertAttachments(ctx context.Context, attachments []mappers.MappedAttachment) error {
	if len(attachments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range attachments {
		batch.Queue(`
			INSERT INTO attachments (attachment_id, message_id, filename, description, content_type, size, url,
				proxy_url, height, width, duration_secs, waveform, ephemeral, flags, title, raw)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (attachment_id) DO NOTHING`,
			int64(a.ID), int64(a.MessageID), a.Filename, a.Description, a.ContentType, a.Size, a.URL,
			a.ProxyURL, a.Height, a.Width, a.DurationSec, a.Waveform, a.Ephemeral, a.Flags, a.Title, []byte(a.Raw))
	}
	return s.runBatch(ctx, batch, "bulk insert attachments")
}

// BulkUpsertReactions upserts on (message_id, emoji_key), replacing only
// count/count_details/burst_colors/raw.
func (s *Store) BulkUpsertReactions(ctx context.Context, reactions []mappers.MappedReaction) error {
	if len(reactions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range reactions {
		batch.Queue(`
			INSERT INTO reactions (message_id, emoji_key, emoji_id, emoji_name, emoji_animated, count, count_details, burst_colors, raw, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
			ON CONFLICT (message_id, emoji_key) DO UPDATE SET
				count = excluded.count,
				count_details = excluded.count_details,
				burst_colors = excluded.burst_colors,
				raw = excluded.raw,
				updated_at = now()`,
			int64(r.MessageID), r.EmojiKey, optionalID(r.EmojiID), r.EmojiName, r.EmojiAnimated,
			r.Count, mustJSON(r.CountDetails), r.BurstColors, []byte(r.Raw))
	}
	return s.runBatch(ctx, batch, "bulk upsert reactions")
}

// GetChannelMessageCount reports how many message rows exist for
// channelID, mirroring
// original_source/db/repositories/message_repository.py's
// get_channel_message_count.
func (s *Store) GetChannelMessageCount(ctx context.Context, channelID snowflake.ID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM messages WHERE channel_id = $1`, int64(channelID)).Scan(&count)
	return count, errors.Wrap(err, "store: count channel messages")
}

// PersistMessagesBatch writes a whole batch end to end: users, then
// messages, then attachments, then reactions, in that order. Sanitization
// happens upstream in the mapper layer before this is called. Returns the
// number of messages processed.
func (s *Store) PersistMessagesBatch(ctx context.Context, rawMessages []mappers.MappedMessage, attachments []mappers.MappedAttachment, reactions []mappers.MappedReaction, users []mappers.MappedUser) (int, error) {
	if len(rawMessages) == 0 {
		return 0, nil
	}

	if err := s.BulkUpsertUsers(ctx, users); err != nil {
		return 0, err
	}
	if err := s.BulkInsertMessages(ctx, rawMessages); err != nil {
		return 0, err
	}
	if err := s.BulkInsertAttachments(ctx, attachments); err != nil {
		return 0, err
	}
	if err := s.BulkUpsertReactions(ctx, reactions); err != nil {
		return 0, err
	}

	return len(rawMessages), nil
}

func (s *Store) runBatch(ctx context.Context, batch *pgx.Batch, opName string) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return errors.Wrapf(err, "store: %s (item %d)", opName, i)
		}
	}
	return nil
}

func toInt64Slice(ids []snowflake.ID) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func optionalID(id *snowflake.ID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
