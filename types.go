package bitring

import (
	"errors"
	"fmt"
)

// BitDepth represents the bit depth of PCM audio samples.
type BitDepth uint

// Standard PCM bit depths.
const (
	Depth4  BitDepth = 4
	Depth8  BitDepth = 8
	Depth12 BitDepth = 12
	Depth16 BitDepth = 16
	Depth20 BitDepth = 20
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// BytesPerSample returns the number of bytes needed to store one sample.
// Sub-byte depths (4-bit) are stored in 1 byte.
// 12-bit samples are stored in 2 bytes, 20-bit samples in 3 bytes.
func (d BitDepth) BytesPerSample() int {
	switch d {
	case Depth4, Depth8:
		return 1
	case Depth12, Depth16:
		return 2
	case Depth20, Depth24:
		return 3
	case Depth32:
		return 4
	default:
		panic(fmt.Sprintf("bitring: BytesPerSample called with unsupported bit depth %d", d))
	}
}

var errUnsupportedBitDepth = errors.New("unsupported bit depth")

// ToBitDepth converts a numeric bit depth to the BitDepth type.
func ToBitDepth(bps uint8) (BitDepth, error) {
	switch d := BitDepth(bps); d {
	case Depth4, Depth8, Depth12, Depth16, Depth20, Depth24, Depth32:
		return d, nil
	default:
		return 0, fmt.Errorf("%d-bit: %w", bps, errUnsupportedBitDepth)
	}
}

// StreamInfo is what a header probe learns about an audio stream.
// Zero values mean the header does not carry the field.
type StreamInfo struct {
	Codec        string
	SampleRate   int
	BitDepth     BitDepth
	Channels     uint
	TotalSamples uint64 // per channel
	BitRate      int    // bits per second
}

// Duration returns the stream length in seconds, 0 if unknown.
func (s StreamInfo) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}

	return float64(s.TotalSamples) / float64(s.SampleRate)
}
