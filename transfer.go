package bitring

// freeBytes is the free space in whole bytes, clamped to the storage size.
func (b *BitBuffer) freeBytes() int {
	return min(int(b.bits), max(0, b.FreeBits())) >> 3
}

// wholeBytes is the valid data in whole bytes, zero when the count is negative.
func (b *BitBuffer) wholeBytes() int {
	return max(0, b.validBits) >> 3
}

// Feed appends the last bytesValid bytes of input at the feed cursor, as many
// as fit in whole free bytes, and returns how many of them were left over.
// The copy splits at the physical end of storage.
func (b *BitBuffer) Feed(input []byte, bytesValid int) int {
	assert(bytesValid >= 0 && bytesValid <= len(input), "Feed bytesValid out of range")

	src := input[len(input)-bytesValid:]
	remaining := min(b.freeBytes(), bytesValid)
	total := 0

	for remaining > 0 {
		chunk := min(int(b.size-b.feedOff), remaining)

		copy(b.buf[b.feedOff:], src[:chunk])

		b.validBits += chunk << 3
		b.feedOff = (b.feedOff + uint32(chunk)) & (b.size - 1) //nolint:gosec // chunk <= size
		src = src[chunk:]
		total += chunk
		remaining -= chunk
	}

	return bytesValid - total
}

// Fetch copies up to len(dst) whole valid bytes from the fetch cursor into dst
// and returns the number copied.
func (b *BitBuffer) Fetch(dst []byte) int {
	remaining := min(b.wholeBytes(), len(dst))
	total := 0

	for remaining > 0 {
		chunk := min(int(b.size-b.fetchOff), remaining)

		copy(dst[total:], b.buf[b.fetchOff:b.fetchOff+uint32(chunk)]) //nolint:gosec // chunk <= size

		b.validBits -= chunk << 3
		b.fetchOff = (b.fetchOff + uint32(chunk)) & (b.size - 1) //nolint:gosec // chunk <= size
		total += chunk
		remaining -= chunk
	}

	return total
}

// CopyFrom moves up to maxBytes whole bytes from src, starting at its bit
// cursor, to b at its feed cursor. The transfer is bounded by the whole valid
// bytes of src and the whole free bytes of b. It returns the number of bytes moved.
//
// When the src cursor is byte aligned the bytes are block copied out of src
// storage; otherwise each byte is read with src.ReadForward(8).
func (b *BitBuffer) CopyFrom(src *BitBuffer, maxBytes int) int {
	assert(src != b, "CopyFrom onto itself")

	remaining := min(src.wholeBytes(), max(0, maxBytes), b.freeBytes())
	total := 0

	for remaining > 0 {
		chunk := min(int(b.size-b.feedOff), remaining)
		dst := b.buf[b.feedOff : b.feedOff+uint32(chunk)] //nolint:gosec // chunk <= size

		if src.bitNdx&7 == 0 {
			src.copyAligned(dst)
		} else {
			for i := range dst {
				dst[i] = byte(src.ReadForward(8))
			}
		}

		b.validBits += chunk << 3
		b.feedOff = (b.feedOff + uint32(chunk)) & (b.size - 1) //nolint:gosec // chunk <= size
		total += chunk
		remaining -= chunk
	}

	return total
}

// copyAligned fills dst from the byte-aligned bit cursor and consumes those bits.
func (b *BitBuffer) copyAligned(dst []byte) {
	start := b.bitNdx >> 3
	head := copy(dst, b.buf[start:])
	copy(dst[head:], b.buf)

	n := uint32(len(dst)) << 3 //nolint:gosec // len(dst) <= size

	b.bitNdx = (b.bitNdx + n) & (b.bits - 1)
	b.validBits -= int(n)
}
