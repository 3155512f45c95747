package discordhttp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

// GetGuild fetches a guild by ID (/guilds/{id}).
func (c *Client) GetGuild(ctx context.Context, guildID snowflake.ID) (*discord.Guild, error) {
	var g discord.Guild
	if _, err := c.Get(ctx, fmt.Sprintf("/guilds/%s", guildID), url.Values{"with_counts": {"true"}}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGuildChannels lists a guild's channels (/guilds/{id}/channels).
func (c *Client) GetGuildChannels(ctx context.Context, guildID snowflake.ID) ([]discord.Channel, error) {
	var channels []discord.Channel
	if _, err := c.Get(ctx, fmt.Sprintf("/guilds/%s/channels", guildID), nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// GetActiveThreads lists a guild's currently-active threads
// (/guilds/{id}/threads/active).
func (c *Client) GetActiveThreads(ctx context.Context, guildID snowflake.ID) (*discord.ThreadListResponse, error) {
	var resp discord.ThreadListResponse
	if _, err := c.Get(ctx, fmt.Sprintf("/guilds/%s/threads/active", guildID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPublicArchivedThreads paginates a channel's archived public threads
// (/channels/{id}/threads/archived/public), cursor = archive_timestamp of
// the last thread in the previous page.
func (c *Client) GetPublicArchivedThreads(ctx context.Context, channelID snowflake.ID, before string, limit int) (*discord.ThreadListResponse, error) {
	return c.getArchivedThreads(ctx, fmt.Sprintf("/channels/%s/threads/archived/public", channelID), before, limit)
}

// GetPrivateArchivedThreads paginates a channel's archived private threads
// (/channels/{id}/threads/archived/private). Only called when the caller
// has MANAGE_THREADS and READ_MESSAGE_HISTORY.
func (c *Client) GetPrivateArchivedThreads(ctx context.Context, channelID snowflake.ID, before string, limit int) (*discord.ThreadListResponse, error) {
	return c.getArchivedThreads(ctx, fmt.Sprintf("/channels/%s/threads/archived/private", channelID), before, limit)
}

func (c *Client) getArchivedThreads(ctx context.Context, path, before string, limit int) (*discord.ThreadListResponse, error) {
	q := url.Values{}
	if before != "" {
		q.Set("before", before)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp discord.ThreadListResponse
	if _, err := c.Get(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetChannel fetches a single channel by ID (/channels/{id}), used by the
// orchestrator's channel-scoped mode to discover a channel's guild.
func (c *Client) GetChannel(ctx context.Context, channelID snowflake.ID) (*discord.Channel, error) {
	var ch discord.Channel
	if _, err := c.Get(ctx, fmt.Sprintf("/channels/%s", channelID), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// MessagesQuery carries the optional before/after/around/limit parameters
// accepted by GetMessages.
type MessagesQuery struct {
	Limit  int
	Before snowflake.ID
	After  snowflake.ID
	Around snowflake.ID
}

// GetMessages fetches up to q.Limit messages from a channel
// (/channels/{id}/messages). Limit is clamped to [1, 100] per the
// platform's own ceiling.
func (c *Client) GetMessages(ctx context.Context, channelID snowflake.ID, q MessagesQuery) ([]discord.Message, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if q.Before != 0 {
		query.Set("before", q.Before.String())
	}
	if q.After != 0 {
		query.Set("after", q.After.String())
	}
	if q.Around != 0 {
		query.Set("around", q.Around.String())
	}

	var messages []discord.Message
	if _, err := c.Get(ctx, fmt.Sprintf("/channels/%s/messages", channelID), query, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetCurrentUser fetches the authenticated account's own user object
// (/users/@me).
func (c *Client) GetCurrentUser(ctx context.Context) (*discord.User, error) {
	var u discord.User
	if _, err := c.Get(ctx, "/users/@me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCurrentUserGuildMember fetches the authenticated account's member
// record (and therefore role list) in a guild
// (/users/@me/guilds/{id}/member).
func (c *Client) GetCurrentUserGuildMember(ctx context.Context, guildID snowflake.ID) (*discord.GuildMember, error) {
	var m discord.GuildMember
	if _, err := c.Get(ctx, fmt.Sprintf("/users/@me/guilds/%s/member", guildID), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetUser fetches a user by ID (/users/{id}).
func (c *Client) GetUser(ctx context.Context, userID snowflake.ID) (*discord.User, error) {
	var u discord.User
	if _, err := c.Get(ctx, fmt.Sprintf("/users/%s", userID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetGuildEmojis lists a guild's custom emoji (/guilds/{id}/emojis).
func (c *Client) GetGuildEmojis(ctx context.Context, guildID snowflake.ID) ([]discord.Emoji, error) {
	var emojis []discord.Emoji
	if _, err := c.Get(ctx, fmt.Sprintf("/guilds/%s/emojis", guildID), nil, &emojis); err != nil {
		return nil, err
	}
	return emojis, nil
}

// GetGuildStickers lists a guild's custom stickers (/guilds/{id}/stickers).
func (c *Client) GetGuildStickers(ctx context.Context, guildID snowflake.ID) ([]discord.Sticker, error) {
	var stickers []discord.Sticker
	if _, err := c.Get(ctx, fmt.Sprintf("/guilds/%s/stickers", guildID), nil, &stickers); err != nil {
		return nil, err
	}
	return stickers, nil
}

// GetGuildScheduledEvents lists a guild's scheduled events
// (/guilds/{id}/scheduled-events).
func (c *Client) GetGuildScheduledEvents(ctx context.Context, guildID snowflake.ID) ([]discord.GuildScheduledEvent, error) {
	var events []discord.GuildScheduledEvent
	if _, err := c.Get(ctx, fmt.Sprintf("/guilds/%s/scheduled-events", guildID), url.Values{"with_user_counts": {"true"}}, &events); err != nil {
		return nil, err
	}
	return events, nil
}
