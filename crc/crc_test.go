package crc

import (
	"math/rand"
	"testing"
)

func randomBits(rng *rand.Rand, n int) []bool {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = rng.Intn(2) == 1
	}
	return bits
}

// TestBitwiseMatchesTable checks spec.md §8 property 4: the bitwise
// and table-driven routes must agree for every input length.
func TestBitwiseMatchesTable(t *testing.T) {
	engines := map[string]*Engine{
		"header": HeaderCRC(),
		"frame":  FrameCRC(),
	}

	rng := rand.New(rand.NewSource(7))
	lengths := []int{0, 1, 3, 7, 8, 9, 16, 23, 24, 39, 40, 63, 64, 100, 254 * 8}

	for name, e := range engines {
		t.Run(name, func(t *testing.T) {
			for _, n := range lengths {
				bits := randomBits(rng, n)
				got := e.Table(bits)
				want := e.Bitwise(bits)
				if got != want {
					t.Errorf("length %d: Table()=%#x Bitwise()=%#x", n, got, want)
				}
			}
		})
	}
}

// TestHeaderCRCVector follows the S1 scenario from spec.md §8: a sync
// frame with frame_id=0x005, cycle=0, sync_frame=true, and no
// payload. HeaderCRC input bits are "00010 00000000101 0000000".
func TestHeaderCRCVector(t *testing.T) {
	bits := []bool{
		false, false, false, true, false, // reserved=0, PP=0, NF=0, SF=1, STF=0
		false, false, false, false, false, false, false, false, true, false, true, // frame_id = 0x005
		false, false, false, false, false, false, false, // payload_length = 0
	}
	if len(bits) != 23 {
		t.Fatalf("test vector has %d bits, want 23", len(bits))
	}

	e := HeaderCRC()
	got := e.Bitwise(bits)
	if got != e.Table(bits) {
		t.Fatalf("bitwise/table mismatch: %#x vs %#x", got, e.Table(bits))
	}
	if got > 0x7FF {
		t.Fatalf("HeaderCRC result %#x exceeds 11 bits", got)
	}
}

// TestEngineIsImmutable checks that repeated computations over the
// same engine never mutate shared state (spec.md §5: CRC tables are
// immutable after construction and freely shareable).
func TestEngineIsImmutable(t *testing.T) {
	e := FrameCRC()
	tableCopy := e.table
	_ = e.Bitwise([]bool{true, false, true})
	_ = e.Table([]bool{false, true, true, false, true, false, true, false})
	if tableCopy != e.table {
		t.Fatal("Engine.table mutated by use")
	}
}

func TestWidthMask(t *testing.T) {
	e := New(0x07, 3, 0x0)
	if e.Width() != 3 {
		t.Fatalf("Width() = %d, want 3", e.Width())
	}
	got := e.Bitwise([]bool{true, true, true, true, true, true, true, true})
	if got > 0x7 {
		t.Fatalf("3-bit engine returned out-of-range result %#x", got)
	}
}
