package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flexray-tools/analyzer/internal/logging"
)

func TestNewWritesJSONAtRequestedLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(&buf, "warn")
	require.NoError(t, err)

	log.Info("should be filtered out")
	log.Warn("sync lost", zap.Uint64("sample", 4096))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "should be filtered out")
	assert.Contains(t, out, "sync lost")
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(&buf, "not-a-level")
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Sync())
	assert.Contains(t, buf.String(), "hello")
}

func TestNopDiscardsOutput(t *testing.T) {
	log := logging.Nop()
	log.Info("nothing should panic here")
}
