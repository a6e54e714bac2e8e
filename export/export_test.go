package export_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/flexray-tools/analyzer/export"
	"github.com/flexray-tools/analyzer/frame"
)

func sampleRecords() []frame.FieldRecord {
	return []frame.FieldRecord{
		{Kind: frame.KindFlags, Data1: 0x2},
		{Kind: frame.KindFrameID, Data1: 5},
		{Kind: frame.KindPayloadLength, Data1: 0},
		{Kind: frame.KindHeaderCRC, Data1: 123},
		{Kind: frame.KindCycleCount, Data1: 17},
		{Kind: frame.KindFrameCRC, Data1: 456, Flags: frame.FlagCRCError},
	}
}

func TestCSVWritesHeaderAndRows(t *testing.T) {
	path := t.TempDir() + "/out.csv"
	c, err := export.NewCSV(path)
	require.NoError(t, err)

	c.OpenPacket()
	for _, r := range sampleRecords() {
		c.Commit(r)
	}
	id := c.CommitPacket()
	assert.Equal(t, uint64(0), id)
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "packet,kind,data1,data2,flags,start_sample,end_sample")
	assert.Contains(t, content, "FrameId")
	assert.Contains(t, content, "HeaderCrc")
}

func TestCSVCancelPacketDropsRows(t *testing.T) {
	path := t.TempDir() + "/out.csv"
	c, err := export.NewCSV(path)
	require.NoError(t, err)

	c.OpenPacket()
	c.Commit(frame.FieldRecord{Kind: frame.KindFrameID, Data1: 9})
	c.CancelPacket()
	c.Commit(frame.FieldRecord{Kind: frame.KindFrameID, Data1: 9})
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "9")
}

func TestYAMLWritesSessionSummary(t *testing.T) {
	path := t.TempDir() + "/out.yaml"
	y, err := export.NewYAML(path)
	require.NoError(t, err)

	y.OpenPacket()
	for _, r := range sampleRecords() {
		y.Commit(r)
	}
	y.CommitPacket()
	require.NoError(t, y.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Frames []struct {
			FrameID    uint16 `yaml:"frame_id"`
			CycleCount uint8  `yaml:"cycle_count"`
			CRCError   bool   `yaml:"crc_error"`
		} `yaml:"frames"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.Len(t, doc.Frames, 1)
	assert.Equal(t, uint16(5), doc.Frames[0].FrameID)
	assert.Equal(t, uint8(17), doc.Frames[0].CycleCount)
	assert.True(t, doc.Frames[0].CRCError)
}
