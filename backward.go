package bitring

// Backward access treats the bit cursor as exclusive: at cursor p, an n-bit
// backward access covers bit positions p-1 down to p-n, and the first bit met
// (p-1) is the most significant bit of the value.

// ReadBackward returns the n bits (1 to 32) preceding the bit cursor, in
// reverse storage order, and moves the cursor back by n. The bits are returned
// to the valid count.
func (b *BitBuffer) ReadBackward(n uint32) uint32 {
	assert(n >= 1 && n <= 32, "ReadBackward bit count out of range")

	byteOffset := b.bitNdx >> 3
	bitOffset := b.bitNdx & 7

	b.bitNdx = (b.bitNdx - n) & (b.bits - 1)
	b.validBits += int(n)

	// Bit k of tx is position p-1-k.
	tx := b.load32(byteOffset-3) >> (8 - bitOffset)
	if n > 24+bitOffset {
		tx |= uint32(b.buf[(byteOffset-4)&(b.size-1)]) << (24 + bitOffset)
	}

	return reverse(tx, n)
}

// WriteBackward stores the n low bits of value (0 to 32) in the n positions
// preceding the bit cursor, MSB nearest the cursor, and moves the cursor back
// by n. The bits are taken from the valid count. Writing 0 bits does nothing.
func (b *BitBuffer) WriteBackward(value, n uint32) {
	if n == 0 {
		return
	}

	assert(n <= 32, "WriteBackward bit count out of range")

	b.bitNdx = (b.bitNdx - n) & (b.bits - 1)
	b.validBits -= int(n)

	// In storage order the span holds the value mirrored.
	b.store(b.bitNdx, reverse(value, n), n)
}
