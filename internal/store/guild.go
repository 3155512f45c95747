package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/veteran-software/discord-archive/internal/mappers"
)

// UpsertGuild inserts or updates one guild row, matching
// original_source/db/repositories/guild_repository.py's upsert_guild.
func (s *Store) UpsertGuild(ctx context.Context, g mappers.MappedGuild) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guilds (guild_id, name, icon, owner_id, description, raw, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		ON CONFLICT (guild_id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			description = excluded.description,
			raw = excluded.raw,
			updated_at = now()`,
		int64(g.ID), g.Name, g.Icon, int64(g.OwnerID), g.Description, []byte(g.Raw))
	return errors.Wrap(err, "store: upsert guild")
}

// UpsertRole inserts or updates one role row. Unlike
// original_source/ingest/entity_ingestor.py's _upsert_role (which only
// refreshes name/color/raw on conflict), this replaces every column --
// "latest-state snapshot" treatment applies equally to every mutable
// entity, not just the ones the Python predecessor happened to narrow;
// see DESIGN.md's Open Question resolution.
func (s *Store) UpsertRole(ctx context.Context, r mappers.MappedRole) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roles (role_id, guild_id, name, color, hoist, position, permissions, managed, mentionable, raw, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now())
		ON CONFLICT (role_id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			hoist = excluded.hoist,
			position = excluded.position,
			permissions = excluded.permissions,
			managed = excluded.managed,
			mentionable = excluded.mentionable,
			raw = excluded.raw,
			updated_at = now()`,
		int64(r.ID), int64(r.GuildID), r.Name, r.Color, r.Hoist, r.Position, int64(r.Permissions), r.Managed, r.Mentionable, []byte(r.Raw))
	return errors.Wrap(err, "store: upsert role")
}

// UpsertEmoji inserts or updates one emoji row (full-column replace).
func (s *Store) UpsertEmoji(ctx context.Context, e mappers.MappedEmoji) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO emojis (emoji_id, guild_id, name, animated, available, managed, raw, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now())
		ON CONFLICT (emoji_id) DO UPDATE SET
			name = excluded.name,
			animated = excluded.animated,
			available = excluded.available,
			managed = excluded.managed,
			raw = excluded.raw,
			updated_at = now()`,
		int64(e.ID), int64(e.GuildID), e.Name, e.Animated, e.Available, e.Managed, []byte(e.Raw))
	return errors.Wrap(err, "store: upsert emoji")
}

// UpsertSticker inserts or updates one sticker row (full-column replace).
func (s *Store) UpsertSticker(ctx context.Context, st mappers.MappedSticker) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stickers (sticker_id, guild_id, name, description, tags, format_type, available, raw, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now())
		ON CONFLICT (sticker_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			tags = excluded.tags,
			format_type = excluded.format_type,
			available = excluded.available,
			raw = excluded.raw,
			updated_at = now()`,
		int64(st.ID), int64(st.GuildID), st.Name, st.Description, st.Tags, st.FormatType, st.Available, []byte(st.Raw))
	return errors.Wrap(err, "store: upsert sticker")
}

// UpsertScheduledEvent inserts or updates one scheduled-event row
// (full-column replace).
func (s *Store) UpsertScheduledEvent(ctx context.Context, e mappers.MappedScheduledEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduled_events (event_id, guild_id, channel_id, name, description, status, raw, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now())
		ON CONFLICT (event_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			raw = excluded.raw,
			updated_at = now()`,
		int64(e.ID), int64(e.GuildID), optionalID(e.ChannelID), e.Name, e.Description, e.Status, []byte(e.Raw))
	return errors.Wrap(err, "store: upsert scheduled event")
}
