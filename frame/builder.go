package frame

import (
	"fmt"

	"github.com/flexray-tools/analyzer/bit"
	"github.com/flexray-tools/analyzer/crc"
	"github.com/flexray-tools/analyzer/sampler"
)

// Builder implements spec.md §4.5's FrameBuilder: it turns a Frame
// value into the wire bit sequence a line driver would transmit,
// including TSS, FSS, per-byte BSS, and FES framing.
type Builder struct {
	headerCRC *crc.Engine
	frameCRC  *crc.Engine
}

// NewBuilder returns a Builder using the two standard FlexRay CRC
// engines.
func NewBuilder() *Builder {
	return &Builder{headerCRC: crc.HeaderCRC(), frameCRC: crc.FrameCRC()}
}

// Build validates f and returns the full wire bit sequence for it,
// most-significant-bit first within each field, ready to hand to
// signal.EdgesFromBits or a physical line driver.
func (b *Builder) Build(f Frame) ([]bool, error) {
	if err := validateFrame(f); err != nil {
		return nil, err
	}

	flagsBits := []bool{f.PayloadPreamble, f.NullFrame, f.SyncFrame, f.StartupFrame}
	frameIDBits := bit.ToBits(uint64(f.FrameID), lenFrameID)
	payloadLenBits := bit.ToBits(uint64(f.PayloadLength), lenPayloadLength)

	headerScope := make([]bool, 0, lenHeaderCRC+lenPayloadLength+lenFrameID+1)
	headerScope = append(headerScope, false) // reserved
	headerScope = append(headerScope, flagsBits...)
	headerScope = append(headerScope, frameIDBits...)
	headerScope = append(headerScope, payloadLenBits...)
	headerCRCBits := bit.ToBits(uint64(b.headerCRC.Table(headerScope)), lenHeaderCRC)

	cycleBits := bit.ToBits(uint64(f.CycleCount), lenCycleCount)
	payloadBits := bytesToBits(f.Payload)

	frameScope := make([]bool, 0, len(flagsBits)+len(frameIDBits)+len(payloadLenBits)+len(headerCRCBits)+len(cycleBits)+len(payloadBits))
	frameScope = append(frameScope, flagsBits...)
	frameScope = append(frameScope, frameIDBits...)
	frameScope = append(frameScope, payloadLenBits...)
	frameScope = append(frameScope, headerCRCBits...)
	frameScope = append(frameScope, cycleBits...)
	frameScope = append(frameScope, payloadBits...)
	frameCRCBits := bit.ToBits(uint64(b.frameCRC.Table(frameScope)), lenFrameCRC)

	body := make([]bool, 0, 1+len(frameScope)+len(frameCRCBits))
	body = append(body, false) // reserved
	body = append(body, frameScope...)
	body = append(body, frameCRCBits...)

	extended, err := bit.ExtendWithBSS(body)
	if err != nil {
		return nil, fmt.Errorf("frame: building wire bits: %w", err)
	}

	wire := make([]bool, 0, sampler.TSSBits+1+len(extended)+2)
	for i := 0; i < sampler.TSSBits; i++ {
		wire = append(wire, true) // TSS: dominant
	}
	wire = append(wire, false) // FSS: recessive
	wire = append(wire, extended...)
	wire = append(wire, true, false) // FES: dominant, recessive

	return wire, nil
}

func bytesToBits(data []byte) []bool {
	bits := make([]bool, 0, len(data)*8)
	for _, b := range data {
		bits = append(bits, bit.ToBits(uint64(b), 8)...)
	}
	return bits
}

// validateFrame enforces spec.md §4.4's construction invariants:
// frame_id in [1,2047], cycle_count in [0,63], payload_length <= 127,
// a null frame carries no payload, and Payload's length matches
// PayloadLength.
func validateFrame(f Frame) error {
	if f.FrameID == 0 || f.FrameID > 2047 {
		return &InvalidFrame{Reason: fmt.Sprintf("frame_id %d out of range [1,2047]", f.FrameID)}
	}
	if f.CycleCount > 63 {
		return &InvalidFrame{Reason: fmt.Sprintf("cycle_count %d out of range [0,63]", f.CycleCount)}
	}
	if f.PayloadLength > 127 {
		return &InvalidFrame{Reason: fmt.Sprintf("payload_length %d out of range [0,127]", f.PayloadLength)}
	}
	if len(f.Payload) != 2*int(f.PayloadLength) {
		return &InvalidFrame{Reason: fmt.Sprintf("payload is %d bytes, want %d for payload_length=%d", len(f.Payload), 2*f.PayloadLength, f.PayloadLength)}
	}
	if f.NullFrame && f.PayloadLength != 0 {
		return &InvalidFrame{Reason: "null_frame set with non-zero payload_length"}
	}
	return nil
}
