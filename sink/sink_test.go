package sink_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexray-tools/analyzer/frame"
	"github.com/flexray-tools/analyzer/sink"
)

func TestMemoryCommitsAndCancels(t *testing.T) {
	m := sink.NewMemory()
	assert.False(t, m.IsOpen())

	m.OpenPacket()
	assert.True(t, m.IsOpen())
	m.Commit(frame.FieldRecord{Kind: frame.KindFrameID, Data1: 7})
	m.CancelPacket()
	assert.False(t, m.IsOpen())
	assert.Empty(t, m.Packets)

	m.OpenPacket()
	m.Commit(frame.FieldRecord{Kind: frame.KindFrameID, Data1: 7})
	id := m.CommitPacket()
	assert.Equal(t, uint64(0), id)
	require.Len(t, m.Packets, 1)
	assert.Equal(t, uint32(7), m.Packets[0].Records[0].Data1)
}

func TestMultiFansOutToAllMembers(t *testing.T) {
	a, b := sink.NewMemory(), sink.NewMemory()
	multi := sink.Multi{a, b}

	multi.OpenPacket()
	multi.Commit(frame.FieldRecord{Kind: frame.KindFrameID, Data1: 42})
	multi.CommitPacket()

	require.Len(t, a.Packets, 1)
	require.Len(t, b.Packets, 1)
	assert.Equal(t, uint32(42), a.Packets[0].Records[0].Data1)
	assert.Equal(t, uint32(42), b.Packets[0].Records[0].Data1)
}

func TestOpenUnknownFactory(t *testing.T) {
	_, err := sink.Open("does-not-exist", "")
	assert.Error(t, err)
}

func TestOpenMemoryFactory(t *testing.T) {
	s, err := sink.Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &sink.Memory{}, s)
}
