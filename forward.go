package bitring

// load32 assembles four ring bytes starting at byteOffset, big-endian, with wrap.
func (b *BitBuffer) load32(byteOffset uint32) uint32 {
	m := b.size - 1

	return uint32(b.buf[byteOffset&m])<<24 |
		uint32(b.buf[(byteOffset+1)&m])<<16 |
		uint32(b.buf[(byteOffset+2)&m])<<8 |
		uint32(b.buf[(byteOffset+3)&m])
}

// ReadForward returns the next n bits (1 to 32), MSB first, right-aligned,
// and advances the bit cursor.
func (b *BitBuffer) ReadForward(n uint32) uint32 {
	assert(n >= 1 && n <= 32, "ReadForward bit count out of range")
	assert(int(n) <= b.validBits, "ReadForward past valid bits")

	byteOffset := b.bitNdx >> 3
	bitOffset := b.bitNdx & 7

	b.bitNdx = (b.bitNdx + n) & (b.bits - 1)
	b.validBits -= int(n)

	tx := b.load32(byteOffset)
	if bitOffset != 0 {
		tx <<= bitOffset
		tx |= uint32(b.buf[(byteOffset+4)&(b.size-1)]) >> (8 - bitOffset)
	}

	return tx >> (32 - n)
}

// ReadForward32 is ReadForward(32) without the generic shift: when the 32 bits
// do not wrap, bytes are indexed directly.
func (b *BitBuffer) ReadForward32() uint32 {
	assert(b.validBits >= 32, "ReadForward32 past valid bits")

	end := b.bitNdx + 32
	b.bitNdx = end & (b.bits - 1)
	b.validBits -= 32

	last := (end - 1) >> 3
	tail := end & 7

	if end <= b.bits {
		cache := uint32(b.buf[last-3])<<24 |
			uint32(b.buf[last-2])<<16 |
			uint32(b.buf[last-1])<<8 |
			uint32(b.buf[last])
		if tail != 0 {
			cache = cache>>(8-tail) | uint32(b.buf[last-4])<<(24+tail)
		}

		return cache
	}

	m := b.size - 1

	cache := b.load32(last - 3)
	if tail != 0 {
		cache = cache>>(8-tail) | uint32(b.buf[(last-4)&m])<<(24+tail)
	}

	return cache
}

// WriteForward stores the n low bits of value (0 to 32), MSB first, at the bit
// cursor and advances it. Writing 0 bits does nothing.
func (b *BitBuffer) WriteForward(value, n uint32) {
	if n == 0 {
		return
	}

	assert(n <= 32, "WriteForward bit count out of range")
	assert(int(n) <= b.FreeBits(), "WriteForward past free bits")

	pos := b.bitNdx

	b.bitNdx = (b.bitNdx + n) & (b.bits - 1)
	b.validBits += int(n)

	b.store(pos, value, n)
}

// store writes the n low bits of value, MSB first, at bit position pos.
// It patches a 4-byte window and, when the span crosses it, a 5th byte.
func (b *BitBuffer) store(pos, value, n uint32) {
	if b.size < 4 {
		b.storeBits(pos, value, n)

		return
	}

	m := b.size - 1
	o0 := pos >> 3
	bitOffset := pos & 7
	o1 := (o0 + 1) & m
	o2 := (o0 + 2) & m
	o3 := (o0 + 3) & m
	o0 &= m

	// Value bits left-aligned behind bitOffset leading bits that must be kept.
	tmp := (value << (32 - n)) >> bitOffset
	keep := ^((mask(n) << (32 - n)) >> bitOffset)

	cache := uint32(b.buf[o0])<<24 | uint32(b.buf[o1])<<16 | uint32(b.buf[o2])<<8 | uint32(b.buf[o3])
	cache = cache&keep | tmp

	b.buf[o0] = byte(cache >> 24)
	b.buf[o1] = byte(cache >> 16)
	b.buf[o2] = byte(cache >> 8)
	b.buf[o3] = byte(cache)

	if bitOffset+n > 32 {
		o4 := (o0 + 4) & m
		// 1 to 7 bits spill into the MSBs of the 5th byte.
		spill := (bitOffset + n) & 7
		last := uint32(b.buf[o4]) &^ (mask(spill) << (8 - spill))
		b.buf[o4] = byte(last | value<<(8-spill))
	}
}

// storeBits is the bit-at-a-time variant of store for rings too small to hold
// a 4-byte window without aliasing.
func (b *BitBuffer) storeBits(pos, value, n uint32) {
	for i := range n {
		p := (pos + i) & (b.bits - 1)
		shift := 7 - p&7
		bit := byte(value>>(n-1-i)) & 1
		b.buf[p>>3] = b.buf[p>>3]&^(1<<shift) | bit<<shift
	}
}
