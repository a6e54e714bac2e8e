// Package frame implements the FlexRay framing state machine of
// spec.md §4.4 and §4.5: the Frame value type, the FieldRecord output
// atom, the FrameParser decode loop, and the FrameBuilder encode
// path. It is the layer that turns bit.DecoderBit cells from the
// sampler into semantic, CRC-checked fields, and the mirror-image
// layer that turns a Frame value back into wire bits.
package frame

import "fmt"

// Frame is the semantic FlexRay frame value described in spec.md §3.
type Frame struct {
	FrameID uint16 // 11-bit, 1..2047

	PayloadPreamble bool
	NullFrame       bool
	SyncFrame       bool
	StartupFrame    bool

	PayloadLength uint8 // 7-bit word count, 0..127
	HeaderCRC     uint16 // 11-bit
	CycleCount    uint8  // 6-bit, 0..63
	Payload       []byte // exactly 2*PayloadLength bytes
	FrameCRC      uint32 // 24-bit
}

// ProtocolError reports an illegal field value: frame_id == 0, or a
// null frame with a non-zero payload length (spec.md §4.4, §7). It
// flags the offending record but does not abort the frame.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "frame: protocol error: " + e.Reason }

// InvalidFrame reports a Frame value that fails FrameBuilder's
// construction-time validation (spec.md §4.5, §7). It is fatal to
// the one encode call.
type InvalidFrame struct {
	Reason string
}

func (e *InvalidFrame) Error() string { return "frame: invalid frame: " + e.Reason }

// Kind identifies which field a FieldRecord describes. The set is
// closed (spec.md §3, §9).
type Kind int

const (
	KindTSS Kind = iota
	KindFSS
	KindBSS
	KindFES
	KindFlags
	KindFrameID
	KindPayloadLength
	KindHeaderCRC
	KindCycleCount
	KindDataByte
	KindFrameCRC
)

func (k Kind) String() string {
	switch k {
	case KindTSS:
		return "TSS"
	case KindFSS:
		return "FSS"
	case KindBSS:
		return "BSS"
	case KindFES:
		return "FES"
	case KindFlags:
		return "Flags"
	case KindFrameID:
		return "FrameId"
	case KindPayloadLength:
		return "PayloadLength"
	case KindHeaderCRC:
		return "HeaderCrc"
	case KindCycleCount:
		return "CycleCount"
	case KindDataByte:
		return "DataByte"
	case KindFrameCRC:
		return "FrameCrc"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// RecordFlags carries the non-fatal error annotations a FieldRecord
// may be emitted with (spec.md §7).
type RecordFlags uint8

const (
	FlagCRCError RecordFlags = 1 << iota
	FlagProtocolError
)

func (f RecordFlags) CRCError() bool      { return f&FlagCRCError != 0 }
func (f RecordFlags) ProtocolError() bool { return f&FlagProtocolError != 0 }

// FieldRecord is the output atom described in spec.md §3. For
// KindDataByte, Data1 is the byte value and Data2 is its 0-based
// payload index; for every other kind Data1 holds the field's
// numeric value and Data2 is unused.
type FieldRecord struct {
	Kind       Kind
	Data1      uint32
	Data2      uint32
	Flags      RecordFlags
	StartSample uint64
	EndSample   uint64
}

// Sink is the interface FrameParser delivers records through
// (spec.md §4.6). Implementations live in package sink.
type Sink interface {
	Commit(record FieldRecord)
	OpenPacket()
	CommitPacket() uint64
	CancelPacket()
}
