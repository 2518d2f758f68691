package bitring

import (
	"fmt"
	"math/bits"
)

// MaxSize is the largest storage size, in bytes, a BitBuffer accepts.
const MaxSize = 1 << 28

// BitBuffer is a fixed-capacity circular buffer of bits.
//
// Storage is a plain MSB-first bitstream: the most significant bit of byte 0
// is bit 0 of the ring. Every index into storage is masked with size-1, so the
// size must be a power of two.
//
// Bit-level access (ReadForward, WriteForward, ReadBackward, WriteBackward,
// PushBack, PushForward) moves a single bit cursor. Bulk streaming (Feed,
// Write, Fill on the input side, Fetch, Read, Drain on the output side) uses
// two independent byte cursors. All of them share one valid-bit counter.
//
// The engine trusts its caller: it never checks that enough valid or free
// bits exist. Build with the bitring_debug tag to turn contract violations
// into panics.
//
// A BitBuffer is not safe for concurrent use.
type BitBuffer struct {
	buf       []byte
	size      uint32 // bytes, power of two
	bits      uint32 // size * 8
	validBits int
	bitNdx    uint32 // bit cursor, always < bits
	feedOff   uint32 // byte cursor for incoming bulk data
	fetchOff  uint32 // byte cursor for outgoing bulk data
}

// Alloc returns a zero-filled storage block suitable for New.
func Alloc(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}

	return make([]byte, size), nil
}

// New wraps storage in a BitBuffer. Storage is cleared and all cursors start at zero.
func New(storage []byte) (*BitBuffer, error) {
	b := &BitBuffer{}
	if err := b.Init(storage, 0); err != nil {
		return nil, err
	}

	clear(b.buf)

	return b, nil
}

// Attach wraps storage that already holds validBits bits of data, starting at bit 0.
// Storage is left untouched.
func Attach(storage []byte, validBits int) (*BitBuffer, error) {
	b := &BitBuffer{}
	if err := b.Init(storage, validBits); err != nil {
		return nil, err
	}

	return b, nil
}

// Init (re)initializes b in place over storage without clearing it.
func (b *BitBuffer) Init(storage []byte, validBits int) error {
	if err := checkSize(len(storage)); err != nil {
		return err
	}

	capacity := len(storage) << 3
	if validBits < 0 || validBits > capacity {
		return fmt.Errorf("%w: %d (capacity %d)", ErrInvalidValidBits, validBits, capacity)
	}

	*b = BitBuffer{
		buf:       storage,
		size:      uint32(len(storage)), //nolint:gosec // bounded by MaxSize
		bits:      uint32(capacity),     //nolint:gosec // bounded by MaxSize*8
		validBits: validBits,
	}

	return nil
}

// Load allocates the smallest ring that holds data and feeds data into it.
func Load(data []byte) (*BitBuffer, error) {
	size := 1
	if len(data) > 1 {
		size = 1 << bits.Len(uint(len(data)-1))
	}

	storage, err := Alloc(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes of data", err, len(data))
	}

	b, err := New(storage)
	if err != nil {
		return nil, err
	}

	b.Feed(data, len(data))

	return b, nil
}

func checkSize(size int) error {
	if size <= 0 || size > MaxSize || size&(size-1) != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	return nil
}

// Reset drops all valid bits and rewinds every cursor. Storage is untouched.
func (b *BitBuffer) Reset() {
	b.validBits = 0
	b.bitNdx = 0
	b.feedOff = 0
	b.fetchOff = 0
}

// Release detaches and returns the storage. b must be re-initialized before further use.
func (b *BitBuffer) Release() []byte {
	storage := b.buf
	*b = BitBuffer{}

	return storage
}

// Bytes returns the storage without copying it.
func (b *BitBuffer) Bytes() []byte {
	return b.buf
}

// ValidBits returns the number of unconsumed bits. It may be negative after
// push operations that consume more than was accounted.
func (b *BitBuffer) ValidBits() int {
	return b.validBits
}

// FreeBits returns the capacity minus the valid bits.
func (b *BitBuffer) FreeBits() int {
	return int(b.bits) - b.validBits
}

// Size returns the storage size in bytes.
func (b *BitBuffer) Size() int {
	return int(b.size)
}

// Capacity returns the storage size in bits.
func (b *BitBuffer) Capacity() int {
	return int(b.bits)
}

// BitPosition returns the bit cursor, in [0, Capacity()).
func (b *BitBuffer) BitPosition() uint32 {
	return b.bitNdx
}
