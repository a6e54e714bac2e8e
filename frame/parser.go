package frame

import (
	"errors"

	"github.com/flexray-tools/analyzer/bit"
	"github.com/flexray-tools/analyzer/crc"
	"github.com/flexray-tools/analyzer/sampler"
)

// Bit offsets within the BSS-stripped frame body, per spec.md §4.4's
// layout. headerCRCScope and frameCRCScope describe the ranges fed to
// each CRC engine: HeaderCrc covers the reserved bit through
// PayloadLength (spec.md §3's literal scope), FrameCrc covers Flags
// through the payload, excluding the reserved bit (spec.md §4.5 step
// 5's literal "steps 2-7").
const (
	offFlags         = 0
	offFrameID       = 5
	offPayloadLength = 16
	offHeaderCRC     = 23
	offCycleCount    = 34
	offPayload       = 40

	lenFlags         = 5
	lenFrameID       = 11
	lenPayloadLength = 7
	lenHeaderCRC     = 11
	lenCycleCount    = 6
	lenFrameCRC      = 24
)

// frameState is the in-progress decode of one frame, kept on the
// Parser so that signal.ErrNeedMore mid-frame loses no work: the next
// call to ParseNext picks back up from exactly this state.
type frameState struct {
	bits  []bool
	cells []bit.DecoderBit

	k             int // bytes consumed so far
	totalBytes    int // -1 until PayloadLength is known
	payloadLength int

	flagsDone, frameIDDone, payloadLenDone, headerDone bool
	awaitingFES                                        bool
}

// Parser implements spec.md §4.4's FrameParser: it drives a
// *sampler.Sampler byte by byte, extracts fields as soon as enough
// bits have accumulated, validates both CRCs, and commits FieldRecord
// values to a Sink.
type Parser struct {
	sampler   *sampler.Sampler
	sink      Sink
	headerCRC *crc.Engine
	frameCRC  *crc.Engine

	current *frameState
}

// NewParser builds a Parser over s, delivering records to sink.
func NewParser(s *sampler.Sampler, sink Sink) *Parser {
	return &Parser{
		sampler:   s,
		sink:      sink,
		headerCRC: crc.HeaderCRC(),
		frameCRC:  crc.FrameCRC(),
	}
}

// ParseNext decodes one frame. It returns signal.ErrNeedMore (via the
// sampler) when the edge source runs dry; the caller should retry
// once more input is available, and the parser resumes without
// re-decoding anything already extracted. It returns io.EOF when the
// source is permanently exhausted between frames. A *sampler.SyncError
// means the frame was abandoned (logged as non-fatal by the caller);
// ParseNext is ready to hunt the next frame on the following call.
func (p *Parser) ParseNext() error {
	if p.current == nil {
		fs, err := p.sampler.AwaitFrameStart()
		if err != nil {
			return err
		}
		p.sink.OpenPacket()
		p.sink.Commit(FieldRecord{Kind: KindTSS, Data1: uint32(fs.TSS.Len()), StartSample: fs.TSS.Start, EndSample: fs.TSS.End})
		p.sink.Commit(FieldRecord{Kind: KindFSS, Data1: 1, StartSample: fs.FSS.Start, EndSample: fs.FSS.End})
		p.current = &frameState{totalBytes: -1}
	}
	st := p.current

	for !st.awaitingFES {
		value, bssCell, dataCells, err := p.sampler.NextByte()
		if err != nil {
			var syncErr *sampler.SyncError
			if errors.As(err, &syncErr) {
				p.sink.CancelPacket()
				p.current = nil
				return syncErr
			}
			return err
		}

		p.sink.Commit(FieldRecord{Kind: KindBSS, Data1: uint32(st.k), StartSample: bssCell.Start, EndSample: bssCell.End})
		for _, c := range dataCells {
			st.bits = append(st.bits, c.Value)
			st.cells = append(st.cells, c)
		}

		if err := p.extractFixedFields(st, value); err != nil {
			return err
		}

		st.k++
		if st.totalBytes >= 0 && st.k == st.totalBytes {
			st.awaitingFES = true
		}
	}

	fesCell, err := p.sampler.ExpectFES()
	if err != nil {
		var syncErr *sampler.SyncError
		if errors.As(err, &syncErr) {
			p.sink.CancelPacket()
			p.current = nil
			return syncErr
		}
		return err
	}
	p.sink.Commit(FieldRecord{Kind: KindFES, Data1: 1, StartSample: fesCell.Start, EndSample: fesCell.End})
	p.sink.CommitPacket()
	p.current = nil
	return nil
}

// extractFixedFields emits a FieldRecord for every fixed-header field
// and data byte that became fully available after the byte just
// appended to st.bits, and for FrameCrc once the final byte arrives.
// Payload bytes are byte-aligned in the wire layout, so value (the
// byte sampler.NextByte just returned) can be used directly instead
// of re-slicing the bit buffer.
func (p *Parser) extractFixedFields(st *frameState, value byte) error {
	n := len(st.bits)

	if !st.flagsDone && n >= offFlags+lenFlags {
		v, err := bit.FromBits(st.bits, offFlags, lenFlags)
		if err != nil {
			return err
		}
		rec := FieldRecord{Kind: KindFlags, Data1: uint32(v), StartSample: st.cells[offFlags].Start, EndSample: st.cells[offFlags+lenFlags-1].End}
		p.sink.Commit(rec)
		st.flagsDone = true
	}

	if !st.frameIDDone && n >= offFrameID+lenFrameID {
		v, err := bit.FromBits(st.bits, offFrameID, lenFrameID)
		if err != nil {
			return err
		}
		rec := FieldRecord{Kind: KindFrameID, Data1: uint32(v), StartSample: st.cells[offFrameID].Start, EndSample: st.cells[offFrameID+lenFrameID-1].End}
		if v == 0 {
			rec.Flags |= FlagProtocolError
		}
		p.sink.Commit(rec)
		st.frameIDDone = true
	}

	if !st.payloadLenDone && n >= offPayloadLength+lenPayloadLength {
		v, err := bit.FromBits(st.bits, offPayloadLength, lenPayloadLength)
		if err != nil {
			return err
		}
		st.payloadLength = int(v)
		st.totalBytes = 8 + 2*st.payloadLength
		rec := FieldRecord{Kind: KindPayloadLength, Data1: uint32(v), StartSample: st.cells[offPayloadLength].Start, EndSample: st.cells[offPayloadLength+lenPayloadLength-1].End}
		if st.bits[offFlags+2] && v != 0 { // null frame carrying a payload
			rec.Flags |= FlagProtocolError
		}
		p.sink.Commit(rec)
		st.payloadLenDone = true
	}

	if !st.headerDone && n >= offCycleCount+lenCycleCount {
		gotCRC := p.headerCRC.Table(st.bits[offFlags:offHeaderCRC])

		crcBits, err := bit.FromBits(st.bits, offHeaderCRC, lenHeaderCRC)
		if err != nil {
			return err
		}
		crcRec := FieldRecord{Kind: KindHeaderCRC, Data1: uint32(crcBits), StartSample: st.cells[offHeaderCRC].Start, EndSample: st.cells[offHeaderCRC+lenHeaderCRC-1].End}
		if uint32(crcBits) != gotCRC {
			crcRec.Flags |= FlagCRCError
		}
		p.sink.Commit(crcRec)

		cycleBits, err := bit.FromBits(st.bits, offCycleCount, lenCycleCount)
		if err != nil {
			return err
		}
		p.sink.Commit(FieldRecord{Kind: KindCycleCount, Data1: uint32(cycleBits), StartSample: st.cells[offCycleCount].Start, EndSample: st.cells[offCycleCount+lenCycleCount-1].End})
		st.headerDone = true
	}

	if n > offPayload && (n-offPayload)%8 == 0 {
		byteIdx := (n-offPayload)/8 - 1
		if byteIdx >= 0 && st.totalBytes >= 0 {
			lastPayloadByteIdx := 2*st.payloadLength - 1
			if byteIdx <= lastPayloadByteIdx {
				p.sink.Commit(FieldRecord{Kind: KindDataByte, Data1: uint32(value), Data2: uint32(byteIdx), StartSample: st.cells[n-8].Start, EndSample: st.cells[n-1].End})
			}
		}
	}

	if st.totalBytes >= 0 {
		totalBits := offPayload + 16*st.payloadLength + lenFrameCRC
		if n == totalBits {
			// FrameCrc's scope is the reserved bit's single sibling
			// bits through the payload (spec.md §4.5 step 5's literal
			// "steps 2-7"): skip only bit 0, not the whole Flags field.
			const frameCRCScopeStart = offFlags + 1
			got := p.frameCRC.Table(st.bits[frameCRCScopeStart : totalBits-lenFrameCRC])

			crcBits, err := bit.FromBits(st.bits, totalBits-lenFrameCRC, lenFrameCRC)
			if err != nil {
				return err
			}
			rec := FieldRecord{Kind: KindFrameCRC, Data1: uint32(crcBits), StartSample: st.cells[totalBits-lenFrameCRC].Start, EndSample: st.cells[totalBits-1].End}
			if uint32(crcBits) != got {
				rec.Flags |= FlagCRCError
			}
			p.sink.Commit(rec)
		}
	}

	return nil
}
