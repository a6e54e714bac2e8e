package bit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToBitsFromBitsRoundTrip(t *testing.T) {
	cases := []struct {
		value uint64
		n     int
	}{
		{0, 7}, {1, 7}, {127, 7}, {0x005, 11}, {2047, 11}, {0xFEDCBA, 24},
	}
	for _, c := range cases {
		bits := ToBits(c.value, c.n)
		if len(bits) != c.n {
			t.Fatalf("ToBits(%d,%d) returned %d bits", c.value, c.n, len(bits))
		}
		got, err := FromBits(bits, 0, c.n)
		if err != nil {
			t.Fatalf("FromBits: %v", err)
		}
		if got != c.value {
			t.Errorf("round trip mismatch: got %d want %d", got, c.value)
		}
	}
}

func TestToBitsIsMSBFirst(t *testing.T) {
	got := ToBits(0b101, 3)
	want := []bool{true, false, true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToBits mismatch (-want +got):\n%s", diff)
	}
}

func TestFromBitsOutOfRange(t *testing.T) {
	bits := ToBits(0, 8)
	if _, err := FromBits(bits, 4, 8); err == nil {
		t.Fatal("expected error reading past end of buffer")
	}
	if _, err := FromBits(bits, -1, 4); err == nil {
		t.Fatal("expected error for negative start")
	}
}

// TestExtendStripBSSIdentity checks spec.md §8 property 5:
// ExtendWithBSS then StripBSS is the identity on inputs whose length
// is a multiple of 8.
func TestExtendStripBSSIdentity(t *testing.T) {
	for _, n := range []int{0, 8, 16, 40, 2032} {
		bits := make([]bool, n)
		for i := range bits {
			bits[i] = i%3 == 0
		}
		extended, err := ExtendWithBSS(bits)
		if err != nil {
			t.Fatalf("ExtendWithBSS(%d bits): %v", n, err)
		}
		if want := n + 2*(n/8); len(extended) != want {
			t.Fatalf("ExtendWithBSS(%d bits) length = %d, want %d", n, len(extended), want)
		}
		stripped, err := StripBSS(extended)
		if err != nil {
			t.Fatalf("StripBSS: %v", err)
		}
		if diff := cmp.Diff(bits, stripped); diff != "" {
			t.Errorf("round trip mismatch for %d bits (-want +got):\n%s", n, diff)
		}
	}
}

func TestExtendWithBSSRejectsNonByteMultiple(t *testing.T) {
	if _, err := ExtendWithBSS(make([]bool, 5)); err == nil {
		t.Fatal("expected error for non-multiple-of-8 input")
	}
}

func TestStripBSSDetectsViolation(t *testing.T) {
	bits := make([]bool, 10)
	bits[0] = false // should be dominant (true)
	bits[1] = false
	if _, err := StripBSS(bits); err == nil {
		t.Fatal("expected BSS violation error")
	}
}
