package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexray-tools/analyzer/clock"
)

func TestNewRateComputesSamplesPerBit(t *testing.T) {
	r, err := clock.NewRate(80_000_000, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), r.SamplesPerBit)
}

func TestNewRateRejectsNonMultiple(t *testing.T) {
	_, err := clock.NewRate(80_000_001, 10_000_000)
	assert.Error(t, err)
}

func TestNewRateRejectsZero(t *testing.T) {
	_, err := clock.NewRate(0, 10_000_000)
	assert.Error(t, err)
	_, err = clock.NewRate(80_000_000, 0)
	assert.Error(t, err)
}

func TestNanosecondsRoundTrip(t *testing.T) {
	r, err := clock.NewRate(80_000_000, 10_000_000)
	require.NoError(t, err)

	ns := r.Nanoseconds(80_000_000)
	assert.Equal(t, uint64(1_000_000_000), ns)
	assert.Equal(t, uint64(80_000_000), r.SampleAt(ns))
}

func TestBitDuration(t *testing.T) {
	r, err := clock.NewRate(80_000_000, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), r.BitDuration())
}

func TestSince(t *testing.T) {
	r, err := clock.NewRate(80_000_000, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), r.Since(80_000_000, 120_000_000))
}
