// Package orchestrator is the top-level entry point the CLI drives: given
// one or more configured accounts, it runs full-backfill, guild-scoped, or
// single-channel ingestion and owns schema setup. Grounded on
// original_source/discord_archive/ingest/run.py.
package orchestrator

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/veteran-software/discord-archive/internal/discordhttp"
	"github.com/veteran-software/discord-archive/internal/guildproc"
	"github.com/veteran-software/discord-archive/internal/snowflake"
	"github.com/veteran-software/discord-archive/internal/store"
	"github.com/veteran-software/discord-archive/internal/utilities"
)

// Account is one configured token/user-agent/guild-scope triple, the Go
// analogue of original_source/config/settings.py's AccountConfig.
type Account struct {
	Name      string
	Token     string
	UserAgent string
	GuildIDs  []snowflake.ID
}

// Orchestrator drives one or more accounts against a single store.
type Orchestrator struct {
	Store    *store.Store
	Accounts []Account
	Log      *logrus.Entry
	// Debug, when true, attaches Log to every discordhttp.Client this
	// orchestrator creates so each request is traced at debug level --
	// the driver-level half of the CLI's --debug flag.
	Debug bool
}

func New(st *store.Store, accounts []Account, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{Store: st, Accounts: accounts, Log: log}
}

// newClient builds a discordhttp.Client for acct, wiring in debug-level
// request tracing when o.Debug is set.
func (o *Orchestrator) newClient(acct Account) *discordhttp.Client {
	client := discordhttp.NewClient(acct.Token, acct.UserAgent)
	if o.Debug && o.Log != nil {
		client.Log = o.Log.WithField("component", "discordhttp")
	}
	return client
}

// RunFull processes every configured account and every guild it lists.
func (o *Orchestrator) RunFull(ctx context.Context) (int, error) {
	if err := o.Store.EnsureSchema(ctx); err != nil {
		return 0, errors.Wrap(err, "orchestrator: ensure schema")
	}

	total := 0
	for _, acct := range o.Accounts {
		n, err := o.processAccount(ctx, acct)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// RunGuild processes a single guild using whichever configured account
// lists it.
func (o *Orchestrator) RunGuild(ctx context.Context, guildID snowflake.ID) (int, error) {
	if err := o.Store.EnsureSchema(ctx); err != nil {
		return 0, errors.Wrap(err, "orchestrator: ensure schema")
	}

	acct, ok := o.resolveAccountForGuild(guildID)
	if !ok {
		return 0, errors.Errorf("orchestrator: no configured account lists guild %s", guildID)
	}

	client := o.newClient(acct)
	proc := guildproc.New(client, o.Store, o.Log)
	return proc.ProcessGuild(ctx, guildID)
}

// RunChannel processes a single channel, trying each configured account in
// turn until one can resolve the channel's guild (matching
// original_source/ingest/run.py's _process_single_channel try-each-account
// pattern). DM and group-DM channels are skipped: guild-scoped archival
// has no home for them.
func (o *Orchestrator) RunChannel(ctx context.Context, channelID snowflake.ID) (int, error) {
	if err := o.Store.EnsureSchema(ctx); err != nil {
		return 0, errors.Wrap(err, "orchestrator: ensure schema")
	}

	for _, acct := range o.Accounts {
		client := o.newClient(acct)
		ch, err := client.GetChannel(ctx, channelID)
		if err != nil {
			continue
		}
		if ch.GuildID == nil {
			if o.Log != nil {
				o.Log.WithField("channel_id", channelID.String()).Warn("skipping DM/group-DM channel: not archivable")
			}
			return 0, nil
		}

		proc := guildproc.New(client, o.Store, o.Log)
		return proc.ProcessChannel(ctx, *ch, *ch.GuildID)
	}

	if o.Log != nil {
		o.Log.WithField("channel_id", channelID.String()).Warn("no configured account could resolve channel")
	}
	return 0, errors.Errorf("orchestrator: channel %s not resolvable by any configured account", channelID)
}

// ResumeIncomplete re-drives backfill for every channel in guildID whose
// checkpoint has not reached backfill_complete, exercising
// GetIncompleteBackfills directly rather than relying on ProcessGuild's
// full discovery sweep -- useful after a crash mid-backfill, matching
// original_source/ingest/run.py's resume path.
func (o *Orchestrator) ResumeIncomplete(ctx context.Context, guildID snowflake.ID) (int, error) {
	acct, ok := o.resolveAccountForGuild(guildID)
	if !ok {
		return 0, errors.Errorf("orchestrator: no configured account lists guild %s", guildID)
	}

	incomplete, err := o.Store.GetIncompleteBackfills(ctx, guildID)
	if err != nil {
		return 0, errors.Wrap(err, "orchestrator: list incomplete backfills")
	}

	client := o.newClient(acct)
	proc := guildproc.New(client, o.Store, o.Log)

	total := 0
	for _, channelID := range incomplete {
		ch, err := client.GetChannel(ctx, channelID)
		if err != nil {
			if discordhttp.IsForbidden(err) {
				continue
			}
			return total, err
		}
		n, err := proc.ProcessChannel(ctx, *ch, guildID)
		if err != nil {
			if discordhttp.IsForbidden(err) {
				continue
			}
			return total, err
		}
		total += n
	}
	return total, nil
}

func (o *Orchestrator) processAccount(ctx context.Context, acct Account) (int, error) {
	client := o.newClient(acct)
	proc := guildproc.New(client, o.Store, o.Log)

	total := 0
	for _, guildID := range acct.GuildIDs {
		n, err := proc.ProcessGuild(ctx, guildID)
		if err != nil {
			if o.Log != nil {
				o.Log.WithError(err).WithField("guild_id", guildID.String()).Error("guild processing failed")
			}
			continue
		}
		total += n
	}
	return total, nil
}

func (o *Orchestrator) resolveAccountForGuild(guildID snowflake.ID) (Account, bool) {
	for _, acct := range o.Accounts {
		if utilities.Contains(acct.GuildIDs, guildID) {
			return acct, true
		}
	}
	return Account{}, false
}
