package alac

import (
	"fmt"

	"github.com/mycophonic/bitring"
)

// Config holds the ALACSpecificConfig carried in the magic cookie.
type Config struct {
	FrameLength   uint32
	BitDepth      uint8
	NumChannels   uint8
	PB            uint8
	MB            uint8
	KB            uint8
	MaxRun        uint16
	MaxFrameBytes uint32
	AvgBitRate    uint32
	SampleRate    uint32
}

const (
	configSize = 24
	atomHeader = 12

	fourCCFrma = 0x66726D61 // "frma"
	fourCCAlac = 0x616C6163 // "alac"
)

// ParseConfig reads an ALACSpecificConfig from a magic cookie byte slice.
// Handles legacy wrappers ('frma' and 'alac' atoms).
func ParseConfig(cookie []byte) (Config, error) {
	if len(cookie) < configSize {
		return Config{}, errInvalidCookie
	}

	ring, err := bitring.Load(cookie)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", errInvalidCookie, err)
	}

	// Each wrapper is [size:4][type:4][payload:4]; peek the type and rewind when absent.
	for _, wrapper := range []uint32{fourCCFrma, fourCCAlac} {
		if ring.ValidBits() < atomHeader*8 {
			break
		}

		ring.PushForward(32, bitring.Reading)

		if ring.ReadForward32() == wrapper {
			ring.PushForward(32, bitring.Reading)
		} else {
			ring.PushBack(64, bitring.Reading)
		}
	}

	if ring.ValidBits() < configSize*8 {
		return Config{}, errInvalidCookie
	}

	config := Config{FrameLength: ring.ReadForward32()}

	if compatibleVersion := ring.ReadForward(8); compatibleVersion > 0 {
		return Config{}, fmt.Errorf("%w: %d", errUnsupportedVersion, compatibleVersion)
	}

	config.BitDepth = uint8(ring.ReadForward(8))    //nolint:gosec // 8-bit field
	config.PB = uint8(ring.ReadForward(8))          //nolint:gosec // 8-bit field
	config.MB = uint8(ring.ReadForward(8))          //nolint:gosec // 8-bit field
	config.KB = uint8(ring.ReadForward(8))          //nolint:gosec // 8-bit field
	config.NumChannels = uint8(ring.ReadForward(8)) //nolint:gosec // 8-bit field
	config.MaxRun = uint16(ring.ReadForward(16))    //nolint:gosec // 16-bit field
	config.MaxFrameBytes = ring.ReadForward32()
	config.AvgBitRate = ring.ReadForward32()
	config.SampleRate = ring.ReadForward32()

	return config, nil
}
