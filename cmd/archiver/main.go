// Command archiver is the CLI entry point for the Discord message archive
// pipeline: it loads account configuration, opens the store, and drives
// the orchestrator in full, guild-scoped, or channel-scoped mode,
// following the documented flag surface and exit-code contract.
// Grounded on original_source/discord_archive/ingest/run.py's __main__
// block, translated to urfave/cli/v2 flags/commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/veteran-software/discord-archive/internal/config"
	"github.com/veteran-software/discord-archive/internal/ingestlog"
	"github.com/veteran-software/discord-archive/internal/orchestrator"
	"github.com/veteran-software/discord-archive/internal/snowflake"
	"github.com/veteran-software/discord-archive/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "archiver",
		Usage: "archive Discord guild messages into a relational store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.json", Usage: "path to the account/database config file"},
			&cli.StringFlag{Name: "guild-id", Usage: "restrict the run to a single guild"},
			&cli.StringFlag{Name: "channel-id", Usage: "restrict the run to a single channel"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug-level logging"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug-level logging for third-party libraries as well"},
			&cli.StringFlag{Name: "log-file", Usage: "additionally write logs to this file"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "archiver:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log, err := ingestlog.New(c.Bool("verbose") || c.Bool("debug"), c.String("log-file"))
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	entry := log.WithField("component", "archiver")

	settings, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	debug := c.Bool("debug")
	st, err := store.Open(ctx, settings.DatabaseURL, debug, entry)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	accounts := make([]orchestrator.Account, 0, len(settings.Accounts))
	for _, a := range settings.Accounts {
		accounts = append(accounts, orchestrator.Account{
			Name:      a.Name,
			Token:     a.Token,
			UserAgent: a.UserAgent,
			GuildIDs:  a.GuildIDs(),
		})
	}

	orch := orchestrator.New(st, accounts, entry)
	orch.Debug = debug

	var total int
	var runErr error

	switch {
	case c.String("channel-id") != "":
		channelID, parseErr := snowflake.Parse(c.String("channel-id"))
		if parseErr != nil {
			return fmt.Errorf("invalid --channel-id: %w", parseErr)
		}
		total, runErr = orch.RunChannel(ctx, channelID)

	case c.String("guild-id") != "":
		guildID, parseErr := snowflake.Parse(c.String("guild-id"))
		if parseErr != nil {
			return fmt.Errorf("invalid --guild-id: %w", parseErr)
		}
		total, runErr = orch.RunGuild(ctx, guildID)

	default:
		total, runErr = orch.RunFull(ctx)
	}

	if runErr != nil {
		if ctx.Err() != nil {
			entry.WithField("messages_archived", total).Warn("run interrupted")
			return cli.Exit("interrupted", 1)
		}
		entry.WithError(runErr).Error("run failed")
		return cli.Exit(runErr.Error(), 1)
	}

	entry.WithField("messages_archived", total).Info("run complete")
	return nil
}
