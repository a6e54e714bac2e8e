package signal_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexray-tools/analyzer/signal"
)

func TestPolarityMap(t *testing.T) {
	normal := signal.Polarity{Inverted: false}
	assert.Equal(t, signal.Recessive, normal.Map(true))
	assert.Equal(t, signal.Dominant, normal.Map(false))

	inverted := signal.Polarity{Inverted: true}
	assert.Equal(t, signal.Dominant, inverted.Map(true))
	assert.Equal(t, signal.Recessive, inverted.Map(false))
}

func TestInvertFlipsEveryLevel(t *testing.T) {
	src := signal.NewSliceSource([]signal.Edge{
		{Sample: 0, NewLevel: signal.Dominant},
		{Sample: 10, NewLevel: signal.Recessive},
	})
	inverted := signal.Invert(src, signal.Polarity{Inverted: true})

	e, err := inverted.Next()
	require.NoError(t, err)
	assert.Equal(t, signal.Recessive, e.NewLevel)

	e, err = inverted.Next()
	require.NoError(t, err)
	assert.Equal(t, signal.Dominant, e.NewLevel)

	_, err = inverted.Next()
	assert.Equal(t, io.EOF, err)
}

func TestInvertIsNoOpWhenNotInverted(t *testing.T) {
	src := signal.NewSliceSource(nil)
	assert.Same(t, src, signal.Invert(src, signal.Polarity{Inverted: false}))
}

func TestEdgesFromBitsProducesOneEdgePerLevelChange(t *testing.T) {
	edges := signal.EdgesFromBits([]bool{true, true, false}, 4, 2)
	require.Len(t, edges, 2)
	assert.Equal(t, uint64(8), edges[0].Sample)
	assert.Equal(t, signal.Dominant, edges[0].NewLevel)
	assert.Equal(t, uint64(16), edges[1].Sample)
	assert.Equal(t, signal.Recessive, edges[1].NewLevel)
}

func TestSliceSourceExhaustsToEOF(t *testing.T) {
	src := signal.NewSliceSource([]signal.Edge{{Sample: 1, NewLevel: signal.Dominant}})
	_, err := src.Next()
	require.NoError(t, err)
	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}
