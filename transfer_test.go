package bitring_test

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/mycophonic/bitring"
)

func TestFeedFetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		advance int // bytes pushed through first, to place the cursors
		count   int
	}{
		{"linear", 0, 5},
		{"full", 0, 8},
		{"wrapping", 5, 7},
		{"wrapping full", 3, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ring := newRing(t, 8)
			scratch := make([]byte, 8)

			if left := ring.Feed(make([]byte, tt.advance), tt.advance); left != 0 {
				t.Fatalf("advance Feed left %d", left)
			}

			if got := ring.Fetch(scratch[:tt.advance]); got != tt.advance {
				t.Fatalf("advance Fetch = %d", got)
			}

			input := make([]byte, tt.count)
			for i := range input {
				input[i] = byte(0xC0 + i)
			}

			if left := ring.Feed(input, len(input)); left != 0 {
				t.Fatalf("Feed left %d bytes", left)
			}

			if ring.ValidBits() != tt.count*8 {
				t.Fatalf("ValidBits() = %d, want %d", ring.ValidBits(), tt.count*8)
			}

			out := make([]byte, 16)
			if got := ring.Fetch(out); got != tt.count {
				t.Fatalf("Fetch = %d, want %d", got, tt.count)
			}

			if !bytes.Equal(out[:tt.count], input) {
				t.Fatalf("fetched %x, want %x", out[:tt.count], input)
			}

			checkAccounting(t, ring)
		})
	}
}

func TestFeedLimits(t *testing.T) {
	t.Parallel()

	ring := newRing(t, 4)

	// Only the tail of the input is consumed.
	if left := ring.Feed([]byte{1, 2, 3, 4, 5, 6}, 2); left != 0 {
		t.Fatalf("Feed left %d", left)
	}

	if got := ring.ReadForward(16); got != 0x0506 {
		t.Fatalf("ReadForward(16) = %#x, want 0x0506", got)
	}

	ring.Reset()

	// A partial byte of valid data leaves only whole free bytes.
	ring.WriteForward(1, 3)

	if left := ring.Feed([]byte{9, 9, 9, 9, 9}, 5); left != 2 {
		t.Fatalf("Feed left %d, want 2", left)
	}

	if ring.FreeBits() != 5 {
		t.Fatalf("FreeBits() = %d, want 5", ring.FreeBits())
	}

	if left := ring.Feed([]byte{9}, 1); left != 1 {
		t.Fatalf("Feed into a full ring left %d, want 1", left)
	}

	if got := ring.Fetch(nil); got != 0 {
		t.Fatalf("Fetch(nil) = %d", got)
	}
}

func TestFetchWholeBytesOnly(t *testing.T) {
	t.Parallel()

	ring := newRing(t, 4)
	ring.Feed([]byte{0xAA, 0xBB}, 2)
	ring.PushBack(4, bitring.Writing)

	out := make([]byte, 4)
	if got := ring.Fetch(out); got != 1 || out[0] != 0xAA {
		t.Fatalf("Fetch = %d (%x), want 1 byte 0xaa", got, out)
	}

	if ring.ValidBits() != 4 {
		t.Fatalf("ValidBits() = %d, want 4", ring.ValidBits())
	}
}

func randomRing(t *testing.T, rng *rand.Rand, size int) ([]byte, *bitring.BitBuffer) {
	t.Helper()

	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rng.Uint32())
	}

	ring, err := bitring.Attach(bytes.Clone(data), size*8)
	if err != nil {
		t.Fatal(err)
	}

	return data, ring
}

func TestCopyFromMatchesReadForward(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(5, 5)) //nolint:gosec // deterministic test data

	tests := []struct {
		name      string
		srcOffset uint32 // bits the src cursor is moved before the copy
		dstOffset int    // bytes pushed through dst before the copy
		budget    int
		want      int
	}{
		{"aligned", 0, 0, 100, 8},
		{"aligned wrapping src", 96, 0, 100, 8},
		{"aligned wrapping dst", 8, 5, 6, 6},
		{"unaligned", 3, 0, 100, 8},
		{"unaligned wrapping both", 101, 6, 100, 8},
		{"budget", 16, 2, 3, 3},
		{"zero budget", 0, 0, 0, 0},
		{"negative budget", 5, 0, -1, 0},
	}

	for _, tt := range tests {
		data, src := randomRing(t, rng, 16)

		reference, err := bitring.Attach(bytes.Clone(data), 16*8)
		if err != nil {
			t.Fatal(err)
		}

		// Writing accounting keeps a full ring of bits valid past the cursor.
		src.PushForward(tt.srcOffset, bitring.Writing)
		reference.PushForward(tt.srcOffset, bitring.Writing)

		dst := newRing(t, 8)
		dst.Feed(make([]byte, tt.dstOffset), tt.dstOffset)
		dst.Fetch(make([]byte, tt.dstOffset))

		got := dst.CopyFrom(src, tt.budget)
		if got != tt.want {
			t.Fatalf("%s: CopyFrom = %d, want %d", tt.name, got, tt.want)
		}

		want := make([]byte, got)
		for i := range want {
			want[i] = byte(reference.ReadForward(8))
		}

		out := make([]byte, 8)
		if n := dst.Fetch(out); n != got || !bytes.Equal(out[:n], want) {
			t.Fatalf("%s: dst holds %x, want %x", tt.name, out[:n], want)
		}

		if src.BitPosition() != reference.BitPosition() || src.ValidBits() != reference.ValidBits() {
			t.Fatalf("%s: src cursor %d valid %d, want %d and %d",
				tt.name, src.BitPosition(), src.ValidBits(), reference.BitPosition(), reference.ValidBits())
		}

		checkAccounting(t, src)
		checkAccounting(t, dst)
	}
}

func TestCopyFromBoundedByFreeBytes(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(6, 6)) //nolint:gosec // deterministic test data
	_, src := randomRing(t, rng, 16)

	dst := newRing(t, 4)
	dst.WriteForward(0, 12)

	// 20 free bits hold 2 whole bytes.
	if got := dst.CopyFrom(src, 16); got != 2 {
		t.Fatalf("CopyFrom = %d, want 2", got)
	}

	if src.ValidBits() != 16*8-16 {
		t.Fatalf("src ValidBits() = %d, want %d", src.ValidBits(), 16*8-16)
	}

	src.PushForward(uint32(src.ValidBits()-12), bitring.Reading) //nolint:gosec // positive

	// 12 valid bits in src hold 1 whole byte.
	empty := newRing(t, 4)
	if got := empty.CopyFrom(src, 16); got != 1 {
		t.Fatalf("CopyFrom from 12 valid bits = %d, want 1", got)
	}
}
