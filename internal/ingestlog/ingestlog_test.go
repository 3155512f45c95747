package ingestlog

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFileWhenPathGiven(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archiver.log")
	log, err := New(true, path)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.Info("hello")
}

func TestNewDefaultsToInfoLevel(t *testing.T) {
	log, err := New(false, "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestBlockResultLogsWarnOnFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.InfoLevel)

	b := NewBlock(log, "sync channel")
	b.Result("something went wrong", false)

	assert.Contains(t, buf.String(), "level=warning")
}

func TestBlockBatchProgressIncludesUnit(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.InfoLevel)

	b := NewBlock(log, "backfill")
	b.BatchProgress(42, nil, nil, nil, "messages")

	assert.Contains(t, buf.String(), "42 messages")
}
