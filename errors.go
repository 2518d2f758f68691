package bitring

import "errors"

var (
	// ErrInvalidSize is returned when storage is empty, larger than MaxSize or not a power of two.
	ErrInvalidSize = errors.New("bitring: storage size must be a power of two in [1, MaxSize]")
	// ErrInvalidValidBits is returned when a preexisting valid-bit count does not fit the storage.
	ErrInvalidValidBits = errors.New("bitring: valid bits out of range")
)
