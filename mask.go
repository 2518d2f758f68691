package bitring

import "math/bits"

// mask returns the n low bits set, for n in [0, 32].
func mask(n uint32) uint32 {
	return uint32(uint64(1)<<n - 1)
}

// reverse mirrors the n low bits of value into the n low bits of the result.
func reverse(value, n uint32) uint32 {
	return bits.Reverse32(value) >> (32 - n)
}
