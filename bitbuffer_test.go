package bitring_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mycophonic/bitring"
)

func newRing(t *testing.T, size int) *bitring.BitBuffer {
	t.Helper()

	storage, err := bitring.Alloc(size)
	if err != nil {
		t.Fatalf("Alloc(%d): %v", size, err)
	}

	ring, err := bitring.New(storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return ring
}

func checkAccounting(t *testing.T, ring *bitring.BitBuffer) {
	t.Helper()

	if ring.FreeBits()+ring.ValidBits() != ring.Capacity() {
		t.Fatalf("free %d + valid %d != capacity %d", ring.FreeBits(), ring.ValidBits(), ring.Capacity())
	}

	if ring.BitPosition() >= uint32(ring.Capacity()) { //nolint:gosec // test sizes are small
		t.Fatalf("bit cursor %d outside ring of %d bits", ring.BitPosition(), ring.Capacity())
	}
}

func TestConstructionRejectsBadSizes(t *testing.T) {
	t.Parallel()

	for _, size := range []int{-8, 0, 3, 6, 12, 1000, bitring.MaxSize * 2, bitring.MaxSize + 1} {
		if _, err := bitring.Alloc(size); !errors.Is(err, bitring.ErrInvalidSize) {
			t.Errorf("Alloc(%d) = %v, want ErrInvalidSize", size, err)
		}
	}

	for _, size := range []int{0, 3, 24} {
		if _, err := bitring.New(make([]byte, size)); !errors.Is(err, bitring.ErrInvalidSize) {
			t.Errorf("New(%d bytes) = %v, want ErrInvalidSize", size, err)
		}
	}

	for _, size := range []int{1, 2, 4, 1024} {
		if _, err := bitring.Alloc(size); err != nil {
			t.Errorf("Alloc(%d): %v", size, err)
		}
	}
}

func TestNewClearsStorage(t *testing.T) {
	t.Parallel()

	storage := []byte{1, 2, 3, 4}

	ring, err := bitring.New(storage)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(storage, make([]byte, 4)) {
		t.Fatalf("storage = %x, want zeroes", storage)
	}

	if ring.Size() != 4 || ring.Capacity() != 32 || ring.ValidBits() != 0 || ring.FreeBits() != 32 {
		t.Fatalf("size=%d capacity=%d valid=%d free=%d", ring.Size(), ring.Capacity(), ring.ValidBits(), ring.FreeBits())
	}
}

func TestAttach(t *testing.T) {
	t.Parallel()

	storage := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	for _, valid := range []int{-1, 33} {
		if _, err := bitring.Attach(storage, valid); !errors.Is(err, bitring.ErrInvalidValidBits) {
			t.Errorf("Attach(valid=%d) = %v, want ErrInvalidValidBits", valid, err)
		}
	}

	ring, err := bitring.Attach(storage, 32)
	if err != nil {
		t.Fatal(err)
	}

	if got := ring.ReadForward(16); got != 0xDEAD {
		t.Fatalf("ReadForward(16) = %#x, want 0xdead", got)
	}

	if ring.ValidBits() != 16 {
		t.Fatalf("ValidBits() = %d, want 16", ring.ValidBits())
	}
}

// A writer and a reader attached to the same storage: the reader sees the word
// the writer produced and ends with nothing left.
func TestWriteThenReadScenario(t *testing.T) {
	t.Parallel()

	writer := newRing(t, 8)
	writer.WriteForward(0xABCDEF01, 32)

	if writer.ValidBits() != 32 {
		t.Fatalf("writer ValidBits() = %d, want 32", writer.ValidBits())
	}

	reader, err := bitring.Attach(writer.Bytes(), writer.ValidBits())
	if err != nil {
		t.Fatal(err)
	}

	if got := reader.ReadForward(32); got != 0xABCDEF01 {
		t.Fatalf("ReadForward(32) = %#x, want 0xabcdef01", got)
	}

	if reader.ValidBits() != 0 {
		t.Fatalf("reader ValidBits() = %d, want 0", reader.ValidBits())
	}
}

// A full-ring write wraps the cursor back to the word's first bit.
func TestWriteThenReadFullRing(t *testing.T) {
	t.Parallel()

	ring := newRing(t, 4)
	ring.WriteForward(0xABCDEF01, 32)

	if ring.BitPosition() != 0 || ring.FreeBits() != 0 {
		t.Fatalf("cursor=%d free=%d after filling the ring", ring.BitPosition(), ring.FreeBits())
	}

	if got := ring.ReadForward(32); got != 0xABCDEF01 {
		t.Fatalf("ReadForward(32) = %#x, want 0xabcdef01", got)
	}

	if ring.ValidBits() != 0 {
		t.Fatalf("ValidBits() = %d, want 0", ring.ValidBits())
	}
}

func TestWriteForwardZeroBits(t *testing.T) {
	t.Parallel()

	ring := newRing(t, 4)
	ring.WriteForward(0xFFFFFFFF, 0)
	ring.WriteBackward(0xFFFFFFFF, 0)

	if ring.ValidBits() != 0 || ring.BitPosition() != 0 || !bytes.Equal(ring.Bytes(), make([]byte, 4)) {
		t.Fatalf("zero-bit writes changed the ring: valid=%d bit=%d storage=%x",
			ring.ValidBits(), ring.BitPosition(), ring.Bytes())
	}
}

func TestWriteForwardPreservesNeighbours(t *testing.T) {
	t.Parallel()

	for _, size := range []int{1, 2, 4, 8} {
		for pos := range uint32(size * 8) {
			for n := uint32(1); n <= min(32, uint32(size*8)); n++ {
				storage := bytes.Repeat([]byte{0xA5}, size)

				ring, err := bitring.Attach(storage, 0)
				if err != nil {
					t.Fatal(err)
				}

				ring.PushForward(pos, bitring.Reading)
				ring.WriteForward(0, n)

				// Exactly n bits cleared, counted over the whole ring.
				cleared := 0
				for _, b := range storage {
					for bit := range 8 {
						if (0xA5>>bit)&1 == 1 && (b>>bit)&1 == 0 {
							cleared++
						}
					}
				}

				set := 0
				for i := range n {
					p := (pos + i) % uint32(size*8)
					if (0xA5>>(7-p%8))&1 == 1 {
						set++
					}
				}

				if cleared != set {
					t.Fatalf("size %d pos %d n %d: %d bits cleared, want %d (storage %x)", size, pos, n, cleared, set, storage)
				}
			}
		}
	}
}

func TestResetAndRelease(t *testing.T) {
	t.Parallel()

	ring := newRing(t, 4)
	ring.WriteForward(0x1F, 5)
	ring.Feed([]byte{0x77}, 1)

	ring.Reset()

	if ring.ValidBits() != 0 || ring.BitPosition() != 0 {
		t.Fatalf("Reset left valid=%d bit=%d", ring.ValidBits(), ring.BitPosition())
	}

	if ring.Bytes()[0] != 0x77 {
		t.Fatalf("Reset touched storage: %x", ring.Bytes())
	}

	// Feed restarts at byte 0 after Reset.
	ring.Feed([]byte{0x11}, 1)

	if got := ring.ReadForward(8); got != 0x11 {
		t.Fatalf("ReadForward(8) after Reset = %#x, want 0x11", got)
	}

	storage := ring.Release()
	if len(storage) != 4 || ring.Size() != 0 || ring.Bytes() != nil {
		t.Fatalf("Release: storage %d bytes, ring size %d", len(storage), ring.Size())
	}

	if err := ring.Init(storage, 8); err != nil {
		t.Fatalf("Init after Release: %v", err)
	}

	if got := ring.ReadForward(8); got != 0x11 {
		t.Fatalf("ReadForward(8) after Init = %#x, want 0x11", got)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		data []byte
		size int
	}{
		{nil, 1},
		{[]byte{1}, 1},
		{[]byte{1, 2}, 2},
		{[]byte{1, 2, 3}, 4},
		{[]byte{1, 2, 3, 4, 5}, 8},
		{make([]byte, 4096), 4096},
	}

	for _, tt := range tests {
		ring, err := bitring.Load(tt.data)
		if err != nil {
			t.Fatalf("Load(%d bytes): %v", len(tt.data), err)
		}

		if ring.Size() != tt.size || ring.ValidBits() != len(tt.data)*8 {
			t.Fatalf("Load(%d bytes): size %d valid %d", len(tt.data), ring.Size(), ring.ValidBits())
		}
	}
}
