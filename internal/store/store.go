// Package store implements idempotent bulk upsert/insert repositories for
// each entity family, plus the per-channel checkpoint CRUD. Grounded on
// original_source/discord_archive/db/repositories/*.py, translated from
// SQLAlchemy's postgresql dialect insert().on_conflict_do_update/_do_nothing
// into jackc/pgx/v5 raw SQL, since pgx is the pack's own idiomatic-Go
// Postgres driver (erauner12-toolbridge-api).
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Store wraps a pgxpool.Pool with the repository methods the ingest
// pipeline needs. One Store is shared across every account: the database
// engine is not per-account state.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and returns a ready Store. Call EnsureSchema
// once at startup before issuing any repository call. When debug is true and
// log is non-nil, every query the pool issues is traced at debug level
// through log -- the driver-level half of the CLI's --debug flag, as
// opposed to --verbose, which only raises the application's own log level.
func Open(ctx context.Context, databaseURL string, debug bool, log *logrus.Entry) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "store: parse database url")
	}
	if debug && log != nil {
		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   logrusTracer{log.WithField("component", "pgx")},
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "store: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "store: ping")
	}
	return &Store{pool: pool}, nil
}

// logrusTracer adapts a logrus.Entry to tracelog.Logger so pgx query traces
// flow through the same structured logger as the rest of the pipeline.
type logrusTracer struct {
	entry *logrus.Entry
}

func (t logrusTracer) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	fields := make(logrus.Fields, len(data))
	for k, v := range data {
		fields[k] = v
	}
	entry := t.entry.WithFields(fields)
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		entry.Debug(msg)
	case tracelog.LogLevelInfo:
		entry.Info(msg)
	case tracelog.LogLevelWarn:
		entry.Warn(msg)
	case tracelog.LogLevelError:
		entry.Error(msg)
	default:
		entry.Debug(msg)
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pgxpool.Pool for callers (migrations, ad-hoc
// maintenance queries) that need it directly.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
