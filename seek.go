package bitring

// Accounting selects how PushBack and PushForward adjust the valid-bit count.
type Accounting uint8

const (
	// Reading treats the bit cursor as a read cursor: moving back un-reads
	// bits (valid count grows), moving forward skips them (valid count shrinks).
	Reading Accounting = iota
	// Writing treats the bit cursor as a write cursor: moving back retracts
	// written bits (valid count shrinks), moving forward reserves them (valid count grows).
	Writing
)

// PushBack moves the bit cursor back by n without touching storage.
func (b *BitBuffer) PushBack(n uint32, acct Accounting) {
	if acct == Reading {
		b.validBits += int(n)
	} else {
		b.validBits -= int(n)
	}

	b.bitNdx = (b.bitNdx - n) & (b.bits - 1)
}

// PushForward moves the bit cursor forward by n without touching storage.
func (b *BitBuffer) PushForward(n uint32, acct Accounting) {
	if acct == Reading {
		b.validBits -= int(n)
	} else {
		b.validBits += int(n)
	}

	b.bitNdx = (b.bitNdx + n) & (b.bits - 1)
}

// ByteAlign skips forward to the next byte boundary of the bit cursor and
// returns the number of bits skipped.
func (b *BitBuffer) ByteAlign(acct Accounting) uint32 {
	pad := -b.bitNdx & 7
	b.PushForward(pad, acct)

	return pad
}
