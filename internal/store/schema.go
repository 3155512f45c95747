package store

import "context"

// schemaDDL creates every table the repositories below address, if it does
// not already exist. The relational schema itself is treated as external
// infrastructure rather than a core semantic concern; this DDL is the
// minimal shape needed to exercise the persistence semantics end to end,
// shaped after original_source/discord_archive/db/models/*.py's column sets.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS guilds (
	guild_id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	icon TEXT,
	owner_id BIGINT,
	description TEXT,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS channels (
	channel_id BIGINT PRIMARY KEY,
	guild_id BIGINT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
	type INT NOT NULL,
	name TEXT,
	topic TEXT,
	position INT,
	permission_overwrites JSONB,
	parent_id BIGINT,
	nsfw BOOLEAN NOT NULL DEFAULT false,
	last_message_id BIGINT,
	thread_metadata JSONB,
	message_count INT,
	member_count INT,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	user_id BIGINT PRIMARY KEY,
	username TEXT NOT NULL,
	discriminator TEXT,
	global_name TEXT,
	avatar TEXT,
	banner TEXT,
	accent_color INT,
	bot BOOLEAN NOT NULL DEFAULT false,
	"system" BOOLEAN NOT NULL DEFAULT false,
	public_flags BIGINT,
	premium_type INT,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
	message_id BIGINT PRIMARY KEY,
	channel_id BIGINT NOT NULL REFERENCES channels(channel_id) ON DELETE CASCADE,
	author_id BIGINT NOT NULL,
	guild_id BIGINT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	edited_timestamp TIMESTAMPTZ,
	type INT NOT NULL,
	tts BOOLEAN NOT NULL DEFAULT false,
	flags INT NOT NULL DEFAULT 0,
	pinned BOOLEAN NOT NULL DEFAULT false,
	mention_everyone BOOLEAN NOT NULL DEFAULT false,
	mentions BIGINT[],
	mention_roles BIGINT[],
	webhook_id BIGINT,
	application_id BIGINT,
	referenced_message_id BIGINT,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS messages_channel_id_idx ON messages(channel_id);

CREATE TABLE IF NOT EXISTS attachments (
	attachment_id BIGINT PRIMARY KEY,
	message_id BIGINT NOT NULL REFERENCES messages(message_id) ON DELETE CASCADE,
	filename TEXT NOT NULL,
	description TEXT,
	content_type TEXT,
	size INT NOT NULL DEFAULT 0,
	url TEXT NOT NULL,
	proxy_url TEXT NOT NULL,
	height INT,
	width INT,
	duration_secs DOUBLE PRECISION,
	waveform TEXT,
	ephemeral BOOLEAN NOT NULL DEFAULT false,
	flags INT NOT NULL DEFAULT 0,
	title TEXT,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reactions (
	message_id BIGINT NOT NULL REFERENCES messages(message_id) ON DELETE CASCADE,
	emoji_key TEXT NOT NULL,
	emoji_id BIGINT,
	emoji_name TEXT,
	emoji_animated BOOLEAN NOT NULL DEFAULT false,
	count INT NOT NULL DEFAULT 0,
	count_details JSONB,
	burst_colors TEXT[],
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (message_id, emoji_key)
);

CREATE TABLE IF NOT EXISTS roles (
	role_id BIGINT PRIMARY KEY,
	guild_id BIGINT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	color INT NOT NULL DEFAULT 0,
	hoist BOOLEAN NOT NULL DEFAULT false,
	position INT NOT NULL DEFAULT 0,
	permissions BIGINT NOT NULL DEFAULT 0,
	managed BOOLEAN NOT NULL DEFAULT false,
	mentionable BOOLEAN NOT NULL DEFAULT false,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS emojis (
	emoji_id BIGINT PRIMARY KEY,
	guild_id BIGINT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
	name TEXT,
	animated BOOLEAN NOT NULL DEFAULT false,
	available BOOLEAN NOT NULL DEFAULT true,
	managed BOOLEAN NOT NULL DEFAULT false,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stickers (
	sticker_id BIGINT PRIMARY KEY,
	guild_id BIGINT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT,
	tags TEXT,
	format_type INT NOT NULL DEFAULT 0,
	available BOOLEAN NOT NULL DEFAULT true,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scheduled_events (
	event_id BIGINT PRIMARY KEY,
	guild_id BIGINT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
	channel_id BIGINT,
	name TEXT NOT NULL,
	description TEXT,
	status INT NOT NULL DEFAULT 0,
	raw JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ingest_checkpoints (
	channel_id BIGINT PRIMARY KEY,
	guild_id BIGINT NOT NULL,
	oldest_message_id BIGINT,
	newest_message_id BIGINT,
	backfill_complete BOOLEAN NOT NULL DEFAULT false,
	last_synced_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates every table used by the repositories, if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaDDL)
	return err
}
