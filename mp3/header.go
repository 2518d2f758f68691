package mp3

import (
	"errors"
	"fmt"
)

// ErrBadHeader is returned for a 32-bit word that is not a usable MPEG audio frame header.
var ErrBadHeader = errors.New("mp3: invalid frame header")

// Version is the MPEG audio version.
type Version uint8

// MPEG versions, as coded in the two version bits.
const (
	Version25 Version = 0
	Version2  Version = 2
	Version1  Version = 3
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "MPEG-1"
	case Version2:
		return "MPEG-2"
	case Version25:
		return "MPEG-2.5"
	}

	return "reserved"
}

// Channel mode values.
const (
	ModeStereo = iota
	ModeJointStereo
	ModeDualChannel
	ModeMono
)

// FrameHeader is a decoded MPEG audio frame header.
type FrameHeader struct {
	Version    Version
	Layer      int // 1, 2 or 3
	Protected  bool
	BitRate    int // bits per second
	SampleRate int
	Padding    bool
	Mode       int
}

//nolint:gochecknoglobals
var (
	// kbps, indexed [version1?0:1][layer-1][index].
	bitRates = [2][3][15]int{
		{
			{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448},
			{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384},
			{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320},
		},
		{
			{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
			{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
			{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
		},
	}

	sampleRates = map[Version][3]int{
		Version1:  {44100, 48000, 32000},
		Version2:  {22050, 24000, 16000},
		Version25: {11025, 12000, 8000},
	}
)

// ParseFrameHeader decodes a frame header word (sync bits included).
// Free-format bit rates are rejected.
func ParseFrameHeader(word uint32) (FrameHeader, error) {
	if word>>21 != 0x7FF {
		return FrameHeader{}, fmt.Errorf("%w: no sync", ErrBadHeader)
	}

	version := Version(word >> 19 & 3)
	layerBits := word >> 17 & 3
	rateIdx := word >> 12 & 0xF
	srIdx := word >> 10 & 3

	rates, ok := sampleRates[version]
	if !ok || layerBits == 0 || rateIdx == 0 || rateIdx == 0xF || srIdx == 3 {
		return FrameHeader{}, fmt.Errorf("%w: %#08x", ErrBadHeader, word)
	}

	layer := int(4 - layerBits)

	table := 1
	if version == Version1 {
		table = 0
	}

	return FrameHeader{
		Version:    version,
		Layer:      layer,
		Protected:  word>>16&1 == 0,
		BitRate:    bitRates[table][layer-1][rateIdx] * 1000,
		SampleRate: rates[srIdx],
		Padding:    word>>9&1 == 1,
		Mode:       int(word >> 6 & 3),
	}, nil
}

// Channels returns 1 for mono frames, 2 otherwise.
func (h FrameHeader) Channels() uint {
	if h.Mode == ModeMono {
		return 1
	}

	return 2
}

// SamplesPerFrame returns the number of PCM samples per channel in one frame.
func (h FrameHeader) SamplesPerFrame() int {
	switch {
	case h.Layer == 1:
		return 384
	case h.Layer == 3 && h.Version != Version1:
		return 576
	default:
		return 1152
	}
}

// FrameLength returns the frame size in bytes, header included.
func (h FrameHeader) FrameLength() int {
	if h.Layer == 1 {
		pad := 0
		if h.Padding {
			pad = 4
		}

		return 12*h.BitRate/h.SampleRate*4 + pad
	}

	pad := 0
	if h.Padding {
		pad = 1
	}

	return h.SamplesPerFrame()/8*h.BitRate/h.SampleRate + pad
}

// sideInfoLen is the Layer III side information size following the header (and CRC).
func (h FrameHeader) sideInfoLen() int {
	switch {
	case h.Version == Version1 && h.Mode != ModeMono:
		return 32
	case h.Version == Version1, h.Mode != ModeMono:
		return 17
	default:
		return 9
	}
}
