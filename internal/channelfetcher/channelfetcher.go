// Package channelfetcher discovers every channel and archived thread in a
// guild: every top-level channel the guild-channel listing returns,
// unfiltered, plus active threads and (for the types that can have them)
// archived threads, each filtered down to what the authenticated account
// can actually read. Grounded on
// original_source/discord_archive/ingest/channel_fetcher.py.
package channelfetcher

import (
	"context"
	"time"

	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/discordhttp"
	"github.com/veteran-software/discord-archive/internal/permissions"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

// threadBearingTypes are the top-level channel types that can have archived
// threads worth paginating: text, announcement, forum, media.
var threadBearingTypes = map[discord.ChannelType]struct{}{
	discord.ChannelText:         {},
	discord.ChannelAnnouncement: {},
	discord.ChannelForum:        {},
	discord.ChannelMedia:        {},
}

// textThreadTypes are the threadBearingTypes that paginate both public and
// private archived threads (private gated on MANAGE_THREADS +
// READ_MESSAGE_HISTORY). The remaining threadBearingTypes (forum, media)
// paginate public archived threads only -- the private-archived-threads
// endpoint does not apply to them.
var textThreadTypes = map[discord.ChannelType]struct{}{
	discord.ChannelText:         {},
	discord.ChannelAnnouncement: {},
}

// PermissionContext carries everything ChannelPermissions needs to
// evaluate one guild member against a channel's overwrites.
type PermissionContext struct {
	UserID         snowflake.ID
	EveryoneRoleID snowflake.ID
	UserRoleIDs    []snowflake.ID
	BasePerms      permissions.Bits
}

// Fetcher discovers channels for one guild. Client is the discordhttp
// surface it depends on, narrowed to an interface so tests can substitute
// a fake.
type Fetcher struct {
	Client interface {
		GetGuildChannels(ctx context.Context, guildID snowflake.ID) ([]discord.Channel, error)
		GetActiveThreads(ctx context.Context, guildID snowflake.ID) (*discord.ThreadListResponse, error)
		GetPublicArchivedThreads(ctx context.Context, channelID snowflake.ID, before string, limit int) (*discord.ThreadListResponse, error)
		GetPrivateArchivedThreads(ctx context.Context, channelID snowflake.ID, before string, limit int) (*discord.ThreadListResponse, error)
	}
}

func New(client *discordhttp.Client) *Fetcher {
	return &Fetcher{Client: client}
}

// channelPermissions resolves one channel's effective mask for pc.
func channelPermissions(pc PermissionContext, c discord.Channel) permissions.Bits {
	overwrites := make([]permissions.Overwrite, 0, len(c.PermissionOverwrites))
	for _, ow := range c.PermissionOverwrites {
		overwrites = append(overwrites, permissions.Overwrite{
			ID:    ow.ID,
			Type:  permissions.OverwriteType(ow.Type),
			Allow: parsePermString(ow.Allow),
			Deny:  parsePermString(ow.Deny),
		})
	}
	return permissions.ChannelPermissions(pc.BasePerms, pc.UserID, pc.UserRoleIDs, pc.EveryoneRoleID, overwrites)
}

func parsePermString(s string) permissions.Bits {
	if s == "" {
		return 0
	}
	var v uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		v = v*10 + uint64(r-'0')
	}
	return permissions.Bits(v)
}

// IsAccessible reports whether a channel is readable under pc, matching
// the IsMessageAccessible rule applied per channel type. Exported so
// guildproc can reuse the same check for its own post-discovery
// permission filter.
func IsAccessible(pc PermissionContext, c discord.Channel) bool {
	mask := channelPermissions(pc, c)
	return permissions.IsMessageAccessible(mask, permissions.ChannelType(c.Type))
}

// archivedThreadsPageSize is the page size used when paginating archived
// threads; kept a var so tests can shrink it.
var archivedThreadsPageSize = 100

// fetchAllArchivedThreads pages through either the public or private
// archived-thread listing for one channel until HasMore is false,
// swallowing any error from a single page (a 403 on a channel the account
// lost access to mid-run should not abort discovery for the rest of the
// guild), matching original_source's silent-skip-on-error semantics.
func fetchAllArchivedThreads(ctx context.Context, fetch func(ctx context.Context, channelID snowflake.ID, before string, limit int) (*discord.ThreadListResponse, error), channelID snowflake.ID) []discord.Channel {
	var out []discord.Channel
	before := ""
	for {
		resp, err := fetch(ctx, channelID, before, archivedThreadsPageSize)
		if err != nil {
			return out
		}
		out = append(out, resp.Threads...)
		if !resp.HasMore || len(resp.Threads) == 0 {
			return out
		}
		last := resp.Threads[len(resp.Threads)-1]
		if last.ThreadMetadata != nil {
			before = last.ThreadMetadata.ArchiveTimestamp.Format(time.RFC3339)
		} else {
			return out
		}
	}
}

// FetchAllChannels returns every channel the guild-channel listing reports
// (unfiltered by type or permission -- callers disambiguate and filter
// later), plus active threads and archived threads under each
// thread-bearing, accessible parent, each filtered down to what pc can
// read. Text/announcement parents paginate both public and private
// archived threads (private gated on MANAGE_THREADS +
// READ_MESSAGE_HISTORY); forum/media parents paginate public archived
// threads only.
func (f *Fetcher) FetchAllChannels(ctx context.Context, guildID snowflake.ID, pc PermissionContext) ([]discord.Channel, error) {
	top, err := f.Client.GetGuildChannels(ctx, guildID)
	if err != nil {
		return nil, err
	}

	out := make([]discord.Channel, 0, len(top))
	var textParents []discord.Channel
	var forumParents []discord.Channel
	for _, c := range top {
		out = append(out, c)

		if _, ok := threadBearingTypes[c.Type]; !ok {
			continue
		}
		if !IsAccessible(pc, c) {
			continue
		}
		if _, ok := textThreadTypes[c.Type]; ok {
			textParents = append(textParents, c)
		} else {
			forumParents = append(forumParents, c)
		}
	}

	active, err := f.Client.GetActiveThreads(ctx, guildID)
	if err == nil {
		for _, th := range active.Threads {
			if IsAccessible(pc, th) {
				out = append(out, th)
			}
		}
	}

	for _, parent := range textParents {
		for _, th := range fetchAllArchivedThreads(ctx, f.Client.GetPublicArchivedThreads, parent.ID) {
			if IsAccessible(pc, th) {
				out = append(out, th)
			}
		}

		mask := channelPermissions(pc, parent)
		if permissions.CanManageThreads(mask) && permissions.CanReadHistory(mask) {
			for _, th := range fetchAllArchivedThreads(ctx, f.Client.GetPrivateArchivedThreads, parent.ID) {
				if IsAccessible(pc, th) {
					out = append(out, th)
				}
			}
		}
	}

	for _, parent := range forumParents {
		for _, th := range fetchAllArchivedThreads(ctx, f.Client.GetPublicArchivedThreads, parent.ID) {
			if IsAccessible(pc, th) {
				out = append(out, th)
			}
		}
	}

	return out, nil
}
