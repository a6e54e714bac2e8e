// Package sampler implements the edge-driven bit sampler of
// spec.md §4.1: it turns a lazy stream of signal.Edge transitions
// into a sequence of mid-bit DecoderBit cells, handling idle
// detection, TSS/FSS lock-on, and per-byte BSS resync.
//
// The sampler is pull-based (spec.md §5): callers ask for the next
// frame start, the next byte, or the FES trailer, and the sampler
// pulls exactly as many edges from its signal.EdgeSource as it needs
// to answer. If the source reports signal.ErrNeedMore, the sampler
// keeps the edges and cells it has already consumed, and the same call
// can be repeated once more edges are available to continue where it
// stopped.
package sampler

import (
	"errors"
	"fmt"
	"io"

	"github.com/flexray-tools/analyzer/bit"
	"github.com/flexray-tools/analyzer/signal"
)

// Tunable framing constants from spec.md §4.1.
const (
	MinIdleBits = 9 // MIN_IDLE_LEN
	TSSBits     = 5 // TSS_LEN
)

// SyncError reports a BSS, TSS, or FES pattern violation. It is
// non-fatal: the caller abandons the current frame and returns to
// idle hunting (spec.md §7).
type SyncError struct {
	Reason string
	Sample uint64
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sampler: sync error at sample %d: %s", e.Sample, e.Reason)
}

// InvariantViolation reports edge-ordering violations: a fatal
// condition per spec.md §7 that the host must restart the pipeline
// to clear.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("sampler: invariant violation: %s", e.Reason)
}

// Config holds the sampler's read-once construction parameters
// (spec.md §6). SamplesPerBit is precomputed by the caller as
// sample_rate / bit_rate.
type Config struct {
	SamplesPerBit uint64
}

// Sampler converts edges into DecoderBit cells. It is single-threaded
// and performs no I/O of its own beyond pulling from its EdgeSource
// (spec.md §5).
type Sampler struct {
	src signal.EdgeSource
	spb uint64

	// Rolling level state, shared by the edge-driven hunt phase and
	// the clock-driven locked-sampling phase.
	level        signal.Level
	levelSince   uint64
	haveLevel    bool
	havePulled   bool
	lastPulled   uint64
	eof          bool
	peeked       *signal.Edge
	sawIdle      bool
	dominantRise uint64
	haveDominant bool

	// Locked-sampling phase state.
	locked    bool
	cellCount uint64 // number of bit cells sampled since lock-on (0-based index of next cell)
	origin    uint64 // sample index at which the locked clock began (FSS cell start)

	// pendingCells/pendingWant let a multi-cell read (NextByte,
	// ExpectFES) survive signal.ErrNeedMore: cells already sampled
	// stay buffered here instead of being discarded on a failed
	// retry, so resuming the same call continues exactly where it
	// left off rather than re-sampling or mislabeling cells.
	pendingCells []bit.DecoderBit
	pendingWant  int
}

// New builds a Sampler over src with the given configuration.
func New(src signal.EdgeSource, cfg Config) *Sampler {
	return &Sampler{src: src, spb: cfg.SamplesPerBit}
}

// pullOne pulls exactly one edge, validating monotonic ordering and
// translating io.EOF into s.eof. It leaves no half-applied state on
// signal.ErrNeedMore or on a fatal error.
func (s *Sampler) pullOne() (signal.Edge, bool, error) {
	e, err := s.src.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return signal.Edge{}, false, nil
		}
		return signal.Edge{}, false, err
	}
	if s.havePulled && e.Sample < s.lastPulled {
		return signal.Edge{}, false, &InvariantViolation{
			Reason: fmt.Sprintf("edge at sample %d arrived after sample %d", e.Sample, s.lastPulled),
		}
	}
	s.havePulled = true
	s.lastPulled = e.Sample
	return e, true, nil
}

// applyEdge folds a freshly pulled edge into the rolling level state
// and returns the level and length (in samples) of the run that just
// ended.
func (s *Sampler) applyEdge(e signal.Edge) (prevLevel signal.Level, runLen uint64) {
	if !s.haveLevel {
		s.level = signal.Recessive
		s.levelSince = 0
		s.haveLevel = true
	}
	prevLevel = s.level
	if e.Sample > s.levelSince {
		runLen = e.Sample - s.levelSince
	}
	s.level = e.NewLevel
	s.levelSince = e.Sample
	return
}

// FrameStart is the result of locking onto a new frame's TSS/FSS.
type FrameStart struct {
	TSS bit.DecoderBit // synthesized run covering the whole TSS
	FSS bit.DecoderBit
}

// AwaitFrameStart hunts for idle, then TSS, then FSS, the way
// spec.md §4.1 describes. It returns signal.ErrNeedMore
// when the edge source runs dry mid-hunt; calling it again resumes
// from where it left off. It returns io.EOF when the source is
// permanently exhausted while still hunting.
func (s *Sampler) AwaitFrameStart() (FrameStart, error) {
	idleSamples := MinIdleBits * s.spb
	tssSamples := TSSBits * s.spb

	for {
		e, ok, err := s.nextEdge()
		if err != nil {
			return FrameStart{}, err
		}
		if !ok {
			if s.eof {
				return FrameStart{}, io.EOF
			}
			return FrameStart{}, signal.ErrNeedMore
		}

		prevLevel, runLen := s.applyEdge(e)

		if prevLevel == signal.Recessive {
			if runLen >= idleSamples {
				s.sawIdle = true
			}
			if s.sawIdle {
				s.dominantRise = e.Sample
				s.haveDominant = true
			}
			continue
		}

		// A dominant run just ended at e.Sample (bus went recessive).
		if !s.sawIdle || !s.haveDominant {
			continue
		}
		if runLen < tssSamples {
			// Dominant glitch too short to be TSS; keep hunting
			// without losing the idle flag.
			s.haveDominant = false
			continue
		}

		fssStart := e.Sample
		s.locked = true
		s.origin = fssStart
		s.cellCount = 0
		s.sawIdle = false
		s.haveDominant = false
		s.pendingCells = nil
		s.pendingWant = 0

		tssCells := splitRun(s.dominantRise, fssStart-1, s.spb)
		fssCell := bit.DecoderBit{Start: fssStart, End: fssStart + s.spb - 1, Value: false}
		s.cellCount = 1 // the FSS cell itself occupies clock slot 0

		return FrameStart{
			TSS: mergeRuns(tssCells, true),
			FSS: fssCell,
		}, nil
	}
}

// splitRun divides [start,end] into spb-wide cells, used only to
// report a representative TSS span; see mergeRuns.
func splitRun(start, end, spb uint64) []bit.DecoderBit {
	if end < start {
		return nil
	}
	n := (end - start + 1) / spb
	if n == 0 {
		n = 1
	}
	cells := make([]bit.DecoderBit, 0, n)
	width := (end - start + 1) / n
	for i := uint64(0); i < n; i++ {
		cs := start + i*width
		ce := cs + width - 1
		if i == n-1 {
			ce = end
		}
		cells = append(cells, bit.DecoderBit{Start: cs, End: ce, Value: true})
	}
	return cells
}

// mergeRuns collapses a slice of abutting cells of the same value
// into one DecoderBit spanning all of them, which is how the TSS run
// as a whole is reported to the parser for annotation.
func mergeRuns(cells []bit.DecoderBit, value bool) bit.DecoderBit {
	if len(cells) == 0 {
		return bit.DecoderBit{}
	}
	return bit.DecoderBit{Start: cells[0].Start, End: cells[len(cells)-1].End, Value: value}
}

// nextCellBounds returns the sample range of the next locked bit
// cell, without consuming anything from the source.
func (s *Sampler) nextCellBounds() (start, end uint64) {
	start = s.origin + s.cellCount*s.spb
	end = start + s.spb - 1
	return
}

// nextEdge returns the next edge, consuming the buffered lookahead in
// s.peeked first if one is present, otherwise pulling from the
// source. It is the single point both the idle/TSS hunt phase
// (AwaitFrameStart) and the locked-clock advance (advanceTo) read
// edges through, so an edge buffered by one phase - such as the next
// frame's TSS-rise edge, left in s.peeked by the final advanceTo of
// the frame just finished - is never silently dropped when the other
// phase takes over.
func (s *Sampler) nextEdge() (signal.Edge, bool, error) {
	if s.peeked != nil {
		e := *s.peeked
		s.peeked = nil
		return e, true, nil
	}
	return s.pullOne()
}

// advanceTo ensures the rolling level state is valid at least through
// sample t, pulling edges (and buffering at most one lookahead edge
// in s.peeked) as needed.
func (s *Sampler) advanceTo(t uint64) error {
	for {
		e, ok, err := s.nextEdge()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if e.Sample > t {
			s.peeked = &e
			return nil
		}
		s.applyEdge(e)
	}
}

// sampleCell reads one locked bit cell at the sampler's current clock
// position and advances the clock by one cell.
func (s *Sampler) sampleCell() (bit.DecoderBit, error) {
	start, end := s.nextCellBounds()
	mid := start + s.spb/2
	if err := s.advanceTo(mid); err != nil {
		return bit.DecoderBit{}, err
	}
	cell := bit.DecoderBit{Start: start, End: end, Value: bool(s.level)}
	s.cellCount++
	return cell, nil
}

// sampleCells reads the next n locked bit cells as one unit. It is
// safe to call again after signal.ErrNeedMore: cells already sampled
// are kept in s.pendingCells rather than re-sampled or discarded, so
// the caller always sees a cell at the same clock position it would
// have on an uninterrupted run.
func (s *Sampler) sampleCells(n int) ([]bit.DecoderBit, error) {
	if s.pendingWant != n {
		s.pendingCells = s.pendingCells[:0]
		s.pendingWant = n
	}
	for len(s.pendingCells) < n {
		c, err := s.sampleCell()
		if err != nil {
			return nil, err
		}
		s.pendingCells = append(s.pendingCells, c)
	}
	out := make([]bit.DecoderBit, n)
	copy(out, s.pendingCells)
	s.pendingCells = s.pendingCells[:0]
	s.pendingWant = 0
	return out, nil
}

// NextByte samples one BSS-prefixed byte: a {dominant, recessive}
// preamble followed by 8 data bits, each read at the mid-point of its
// cell on the clock locked at FSS. The BSS pattern is checked, but the
// clock is not re-aligned to it (see the note at the realignToEdge
// call below).
//
// On a BSS violation, NextByte returns a *SyncError and the sampler
// must not be reused for this frame; call AwaitFrameStart to hunt
// the next one.
func (s *Sampler) NextByte() (value byte, bssCell bit.DecoderBit, dataCells [8]bit.DecoderBit, err error) {
	if !s.locked {
		err = fmt.Errorf("sampler: NextByte called before a frame was locked")
		return
	}

	cells, err := s.sampleCells(10)
	if err != nil {
		return 0, bit.DecoderBit{}, dataCells, err
	}
	dominant, recessive := cells[0], cells[1]
	if dominant.Value != true || recessive.Value != false {
		s.locked = false
		return 0, bit.DecoderBit{}, dataCells, &SyncError{
			Reason: "BSS pattern violated", Sample: dominant.Start,
		}
	}
	// recessive.Start is the locked clock's own cell boundary, not the
	// sample of an observed edge, so the drift realignToEdge computes
	// here is always zero and the clock keeps its FSS-derived phase for
	// the whole frame.
	s.realignToEdge(dominant.Start, recessive.Start)
	bssCell = bit.DecoderBit{Start: dominant.Start, End: recessive.End, Value: true}

	var v byte
	for i := 0; i < 8; i++ {
		c := cells[2+i]
		dataCells[i] = c
		v <<= 1
		if c.Value {
			v |= 1
		}
	}
	return v, bssCell, dataCells, nil
}

// realignToEdge nudges the locked clock's phase to the observed
// dominant->recessive BSS transition if it falls within half a bit
// of where the clock expected it, tolerating the jitter spec.md §4.1
// allows ("re-align ... tolerating jitter <= 1/2 bit"). expectedStart
// is where the BSS dominant cell's sample window began.
func (s *Sampler) realignToEdge(expectedDominantStart, observedRecessiveStart uint64) {
	expectedRecessiveStart := expectedDominantStart + s.spb
	var drift int64
	if observedRecessiveStart >= expectedRecessiveStart {
		drift = int64(observedRecessiveStart - expectedRecessiveStart)
	} else {
		drift = -int64(expectedRecessiveStart - observedRecessiveStart)
	}
	half := int64(s.spb / 2)
	if drift > half || drift < -half {
		return // outside tolerance; leave clock alone, BSS already validated
	}
	s.origin = uint64(int64(s.origin) + drift)
}

// ExpectFES samples the {dominant, recessive} Frame End Sequence. A
// pattern violation returns *SyncError.
func (s *Sampler) ExpectFES() (bit.DecoderBit, error) {
	if !s.locked {
		return bit.DecoderBit{}, fmt.Errorf("sampler: ExpectFES called before a frame was locked")
	}
	cells, err := s.sampleCells(2)
	if err != nil {
		return bit.DecoderBit{}, err
	}
	dominant, recessive := cells[0], cells[1]
	s.locked = false
	if dominant.Value != true || recessive.Value != false {
		return bit.DecoderBit{}, &SyncError{Reason: "FES pattern violated", Sample: dominant.Start}
	}
	return bit.DecoderBit{Start: dominant.Start, End: recessive.End, Value: true}, nil
}

// Abandon releases the lock without validating FES, for a caller that
// gives up on a frame mid-decode (spec.md §4.6, §5). The frame.Parser
// does not call it: a SyncError from NextByte or ExpectFES already
// releases the lock.
func (s *Sampler) Abandon() {
	s.locked = false
	s.pendingCells = nil
	s.pendingWant = 0
}

// IsLocked reports whether the sampler currently believes it is
// inside a frame (past FSS, not yet past FES or abandoned).
func (s *Sampler) IsLocked() bool { return s.locked }
