// Package ingestlog wraps sirupsen/logrus with the
// t-tomalak/logrus-easy-formatter formatter the teacher itself uses
// (logging/logging.go), and layers the "block of structured progress
// lines" vocabulary original_source/utils/pipeline_logger.py's
// BasePipelineLogger exposes to its ingest pipeline: titled blocks,
// labeled fields, and batch-progress lines, adapted here to logrus fields
// instead of a Rich console renderer.
package ingestlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

// New builds a logger writing to stderr plus, if logFilePath is non-empty,
// a tee'd file sink, matching original_source/utils/logging.py's
// setup_logging(level, log_file). verbose maps to logrus.DebugLevel,
// anything else to logrus.InfoLevel.
func New(verbose bool, logFilePath string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05",
		LogFormat:       "%time% | %lvl% | %msg%\n",
	})

	level := logrus.InfoLevel
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	var out io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	log.SetOutput(out)

	return log, nil
}

// Block is a titled group of related log lines, the Go analogue of
// BasePipelineLogger.block(title): a context-scoped set of structured
// entries sharing a correlation field.
type Block struct {
	entry *logrus.Entry
	title string
}

// NewBlock starts a block under log, tagging every line within it with
// "block": title. log accepts either a *logrus.Logger or an existing
// *logrus.Entry, so a block can nest under a component's own fields.
func NewBlock(log logrus.FieldLogger, title string) *Block {
	return &Block{entry: log.WithField("block", title), title: title}
}

// Field logs one labeled key/value pair within the block.
func (b *Block) Field(key string, value any) {
	b.entry.WithField(key, value).Info(b.title)
}

// Progress logs a free-form progress line within the block.
func (b *Block) Progress(message string) {
	b.entry.Info(message)
}

// Result logs the block's outcome; success=false logs at Warn instead of
// Info, matching BasePipelineLogger.result's success/failure branching.
func (b *Block) Result(message string, success bool) {
	if success {
		b.entry.Info(message)
		return
	}
	b.entry.Warn(message)
}

// Skip logs that this block's work was skipped, with a reason.
func (b *Block) Skip(reason string) {
	b.entry.WithField("skipped", true).Info(reason)
}

// BatchProgress logs a running count of items processed, optionally
// against a known total and an oldest/newest timestamp pair -- the shape
// original_source/utils/pipeline_logger.py's batch_progress reports for
// each page of messages archived.
func (b *Block) BatchProgress(count int, total *int, oldest, newest *time.Time, unit string) {
	fields := logrus.Fields{"count": count, "unit": unit}
	if total != nil {
		fields["total"] = *total
	}
	if oldest != nil {
		fields["oldest"] = oldest.Format(time.RFC3339)
	}
	if newest != nil {
		fields["newest"] = newest.Format(time.RFC3339)
	}
	b.entry.WithFields(fields).Info(fmt.Sprintf("processed %d %s", count, unit))
}
