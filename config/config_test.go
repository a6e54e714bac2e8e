package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesAndParsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10000000, cfg.Channel.BitRate)
	assert.Equal(t, 80000000, cfg.Channel.SampleRate)
	assert.False(t, cfg.Channel.Inverted)
	assert.Equal(t, "memory", cfg.Export.Format)

	spb, err := cfg.SamplesPerBit()
	require.NoError(t, err)
	assert.Equal(t, uint64(8), spb)
}

func TestSamplesPerBitRejectsNonMultiple(t *testing.T) {
	cfg := Config{Channel: Channel{BitRate: 3, SampleRate: 10}}
	_, err := cfg.SamplesPerBit()
	assert.Error(t, err)
}

func TestSamplesPerBitRejectsZeroBitRate(t *testing.T) {
	cfg := Config{Channel: Channel{BitRate: 0, SampleRate: 10}}
	_, err := cfg.SamplesPerBit()
	assert.Error(t, err)
}
