package export

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flexray-tools/analyzer/frame"
	"github.com/flexray-tools/analyzer/sink"
)

// frameSummary is one decoded frame's session-summary entry, the
// human-readable counterpart to CSV's raw field dump.
type frameSummary struct {
	FrameID       uint16 `yaml:"frame_id"`
	CycleCount    uint8  `yaml:"cycle_count"`
	PayloadLength uint8  `yaml:"payload_length"`
	SyncFrame     bool   `yaml:"sync_frame"`
	StartupFrame  bool   `yaml:"startup_frame"`
	NullFrame     bool   `yaml:"null_frame"`
	CRCError      bool   `yaml:"crc_error"`
	ProtocolError bool   `yaml:"protocol_error"`
}

type sessionSummary struct {
	Frames []frameSummary `yaml:"frames"`
}

// YAML accumulates one summary entry per decoded packet and writes
// the whole document on Close.
type YAML struct {
	path    string
	summary sessionSummary
	current []frame.FieldRecord
	packet  uint64
}

// NewYAML prepares a YAML summary sink writing to destination on Close
// ("-" for standard output).
func NewYAML(destination string) (*YAML, error) {
	return &YAML{path: destination}, nil
}

// OpenPacket implements frame.Sink.
func (y *YAML) OpenPacket() {
	y.current = y.current[:0]
}

// Commit implements frame.Sink.
func (y *YAML) Commit(record frame.FieldRecord) {
	y.current = append(y.current, record)
}

// CommitPacket implements frame.Sink.
func (y *YAML) CommitPacket() uint64 {
	id := y.packet
	y.packet++
	y.summary.Frames = append(y.summary.Frames, summarize(y.current))
	y.current = nil
	return id
}

func summarize(records []frame.FieldRecord) frameSummary {
	f := frame.Reassemble(records)
	s := frameSummary{
		FrameID:       f.FrameID,
		CycleCount:    f.CycleCount,
		PayloadLength: f.PayloadLength,
		SyncFrame:     f.SyncFrame,
		StartupFrame:  f.StartupFrame,
		NullFrame:     f.NullFrame,
	}
	for _, r := range records {
		if r.Flags.CRCError() {
			s.CRCError = true
		}
		if r.Flags.ProtocolError() {
			s.ProtocolError = true
		}
	}
	return s
}

// CancelPacket implements frame.Sink.
func (y *YAML) CancelPacket() {
	y.current = nil
}

// Close writes the accumulated document to disk.
func (y *YAML) Close() error {
	f := os.Stdout
	if y.path != "-" {
		var err error
		f, err = os.Create(y.path)
		if err != nil {
			return fmt.Errorf("export: creating YAML file %s: %w", y.path, err)
		}
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	defer enc.Close()
	if err := enc.Encode(y.summary); err != nil {
		return fmt.Errorf("export: encoding YAML summary: %w", err)
	}
	return nil
}

func init() {
	sink.Register("yaml", func(destination string) (frame.Sink, error) {
		return NewYAML(destination)
	})
}
