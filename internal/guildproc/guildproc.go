// Package guildproc processes one guild end to end: fetch and upsert the
// guild itself, build the authenticated account's permission context,
// ingest its roles/emojis/stickers/scheduled-events, discover and upsert
// its channels, and run backfill+incremental sync on every channel the
// account can read. Grounded on
// original_source/discord_archive/ingest/guild_processor.py.
package guildproc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/veteran-software/discord-archive/internal/channelfetcher"
	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/discordhttp"
	"github.com/veteran-software/discord-archive/internal/ingestlog"
	"github.com/veteran-software/discord-archive/internal/mappers"
	"github.com/veteran-software/discord-archive/internal/permissions"
	"github.com/veteran-software/discord-archive/internal/snowflake"
	"github.com/veteran-software/discord-archive/internal/store"
	"github.com/veteran-software/discord-archive/internal/syncengine"
)

// Processor walks one guild's full ingest lifecycle.
type Processor struct {
	Client    *discordhttp.Client
	Store     *store.Store
	Fetcher   *channelfetcher.Fetcher
	Sync      *syncengine.Engine
	Log       *logrus.Entry
}

func New(client *discordhttp.Client, st *store.Store, log *logrus.Entry) *Processor {
	return &Processor{
		Client:  client,
		Store:   st,
		Fetcher: channelfetcher.New(client),
		Sync:    syncengine.New(client, st),
		Log:     log,
	}
}

// isForbidden reports whether err is the kind of access error the
// pipeline should soft-skip and continue past, rather than abort on --
// matching original_source's pattern of catching discord.Forbidden around
// each optional entity-ingest step.
func isForbidden(err error) bool {
	return discordhttp.IsForbidden(err) || discordhttp.IsNotFound(err)
}

// buildPermissionContext resolves the account's own member record and
// computes its base (guild-level) permission mask.
func (p *Processor) buildPermissionContext(ctx context.Context, guild *discord.Guild) (channelfetcher.PermissionContext, error) {
	member, err := p.Client.GetCurrentUserGuildMember(ctx, guild.ID)
	if err != nil {
		return channelfetcher.PermissionContext{}, errors.Wrap(err, "guildproc: fetch own member")
	}

	var userID snowflake.ID
	if member.User != nil {
		userID = member.User.ID
	}

	roles := make([]permissions.Role, 0, len(guild.Roles))
	for _, r := range guild.Roles {
		roles = append(roles, permissions.Role{ID: r.ID, Permissions: mappers.ParsePermissionMask(r.Permissions)})
	}

	base := permissions.BasePermissions(roles, guild.ID, member.Roles)

	return channelfetcher.PermissionContext{
		UserID:         userID,
		EveryoneRoleID: guild.ID,
		UserRoleIDs:    member.Roles,
		BasePerms:      base,
	}, nil
}

// ingestEntities upserts roles, emojis, stickers, and scheduled events for
// a guild. Each kind is independently soft-skipped on a permission error
// so, e.g., a missing scheduled-events grant doesn't block role ingest.
func (p *Processor) ingestEntities(ctx context.Context, guild *discord.Guild) {
	for _, r := range guild.Roles {
		if err := p.Store.UpsertRole(ctx, mappers.MapRole(r, guild.ID)); err != nil {
			p.logError("upsert role", err)
		}
	}
	for _, e := range guild.Emojis {
		if err := p.Store.UpsertEmoji(ctx, mappers.MapEmoji(e, guild.ID)); err != nil {
			p.logError("upsert emoji", err)
		}
	}

	stickers, err := p.Client.GetGuildStickers(ctx, guild.ID)
	if err != nil {
		if !isForbidden(err) {
			p.logError("fetch stickers", err)
		}
	} else {
		for _, s := range stickers {
			if err := p.Store.UpsertSticker(ctx, mappers.MapSticker(s, guild.ID)); err != nil {
				p.logError("upsert sticker", err)
			}
		}
	}

	events, err := p.Client.GetGuildScheduledEvents(ctx, guild.ID)
	if err != nil {
		if !isForbidden(err) {
			p.logError("fetch scheduled events", err)
		}
	} else {
		for _, e := range events {
			if err := p.Store.UpsertScheduledEvent(ctx, mappers.MapScheduledEvent(e)); err != nil {
				p.logError("upsert scheduled event", err)
			}
		}
	}
}

func (p *Processor) logError(action string, err error) {
	if p.Log == nil {
		return
	}
	p.Log.WithError(err).Warn(action + " failed")
}

// ProcessGuild runs the full pipeline for one guild: fetch+upsert the
// guild, build the permission context, ingest its entities, discover and
// upsert its channels, then process every accessible channel.
func (p *Processor) ProcessGuild(ctx context.Context, guildID snowflake.ID) (int, error) {
	runID := uuid.New().String()

	guild, err := p.Client.GetGuild(ctx, guildID)
	if err != nil {
		return 0, errors.Wrap(err, "guildproc: fetch guild")
	}
	if err := p.Store.UpsertGuild(ctx, mappers.MapGuild(*guild)); err != nil {
		return 0, errors.Wrap(err, "guildproc: upsert guild")
	}

	pc, err := p.buildPermissionContext(ctx, guild)
	if err != nil {
		return 0, err
	}

	p.ingestEntities(ctx, guild)

	channels, err := p.Fetcher.FetchAllChannels(ctx, guildID, pc)
	if err != nil {
		return 0, errors.Wrap(err, "guildproc: fetch channels")
	}

	mapped := make([]mappers.MappedChannel, 0, len(channels))
	for _, c := range channels {
		mapped = append(mapped, mappers.MapChannel(c, guildID))
	}
	knownIDs := store.ChannelKnownIDs(mapped)
	if err := p.Store.BulkUpsertChannels(ctx, mapped, knownIDs); err != nil {
		return 0, errors.Wrap(err, "guildproc: upsert channels")
	}

	viewable, skippedNoPermission := filterViewableTextChannels(channels, pc)
	if p.Log != nil && skippedNoPermission > 0 {
		block := ingestlog.NewBlock(p.Log.WithField("run_id", runID), "guild:"+guildID.String())
		block.Skip(fmt.Sprintf("%d channel(s) (no permission)", skippedNoPermission))
	}

	skipped := 0
	total := 0
	for _, c := range viewable {
		n, err := p.ProcessChannel(ctx, c, guildID)
		if err != nil {
			if isForbidden(err) {
				skipped++
				continue
			}
			return total, err
		}
		total += n
	}

	if p.Log != nil {
		block := ingestlog.NewBlock(p.Log.WithField("run_id", runID), "guild:"+guildID.String())
		block.Field("channels_processed", len(viewable)-skipped)
		if skipped > 0 {
			block.Skip(fmt.Sprintf("%d channel(s) inaccessible mid-run", skipped))
		}
		block.Result(fmt.Sprintf("archived %d messages", total), true)
	}

	return total, nil
}

// filterViewableTextChannels narrows FetchAllChannels's unfiltered return
// value to the text-based, non-category channels the account can actually
// read, matching original_source's _filter_viewable_text_channels. Category
// channels (and forum/media containers, which carry no messages of their
// own) are excluded regardless of permission.
func filterViewableTextChannels(channels []discord.Channel, pc channelfetcher.PermissionContext) ([]discord.Channel, int) {
	viewable := make([]discord.Channel, 0, len(channels))
	skipped := 0
	for _, c := range channels {
		if !c.Type.IsTextBased() || c.Type == discord.ChannelCategory {
			continue
		}
		if !channelfetcher.IsAccessible(pc, c) {
			skipped++
			continue
		}
		viewable = append(viewable, c)
	}
	return viewable, skipped
}

// ProcessChannel runs backfill (if not yet complete) then incremental sync
// for one channel, returning the number of messages persisted.
func (p *Processor) ProcessChannel(ctx context.Context, c discord.Channel, guildID snowflake.ID) (int, error) {
	total := 0

	n, err := p.Sync.Backfill(ctx, c.ID, guildID)
	if err != nil {
		return total, err
	}
	total += n

	n, err = p.Sync.Incremental(ctx, c.ID, guildID)
	if err != nil {
		return total, err
	}
	total += n

	if p.Log != nil && total > 0 {
		ingestlog.NewBlock(p.Log, "channel:"+c.ID.String()).BatchProgress(total, nil, nil, nil, "messages")
	}

	return total, nil
}
