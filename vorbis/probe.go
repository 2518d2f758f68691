// Package vorbis reads Ogg Vorbis identification headers through a bit ring.
package vorbis

import (
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/bitring"
)

var (
	// ErrNotOgg is returned when the stream does not start with an Ogg page.
	ErrNotOgg = errors.New("vorbis: missing OggS capture pattern")
	// ErrNotVorbis is returned when the first packet is not a Vorbis identification header.
	ErrNotVorbis = errors.New("vorbis: first packet is not a vorbis identification header")
)

const (
	capturePattern = 0x4F676753 // "OggS"
	pageHeaderLen  = 27
	identLen       = 30
	packetIdent    = 1
	vorbisHi       = 0x766F7262 // "vorb"
	vorbisLo       = 0x6973     // "is"
)

// Ident is the Vorbis identification header.
type Ident struct {
	Version        uint32
	Channels       uint8
	SampleRate     uint32
	BitRateMax     int32
	BitRateNominal int32
	BitRateMin     int32
	BlockSize0     int
	BlockSize1     int
}

// Probe reads the first Ogg page and its Vorbis identification header.
func Probe(reader io.Reader) (bitring.StreamInfo, error) {
	ident, err := ReadIdent(reader)
	if err != nil {
		return bitring.StreamInfo{}, err
	}

	return bitring.StreamInfo{
		Codec:      "Vorbis",
		SampleRate: int(ident.SampleRate),
		Channels:   uint(ident.Channels),
		BitRate:    int(max(0, ident.BitRateNominal)),
	}, nil
}

// ReadIdent reads the first page header, its segment table and the identification packet.
func ReadIdent(reader io.Reader) (Ident, error) {
	page := make([]byte, pageHeaderLen, pageHeaderLen+255+identLen)

	if _, err := io.ReadFull(reader, page); err != nil {
		return Ident{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	segments := int(page[pageHeaderLen-1])
	page = page[:pageHeaderLen+segments+identLen]

	if _, err := io.ReadFull(reader, page[pageHeaderLen:]); err != nil {
		return Ident{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return ParseIdent(page)
}

// ParseIdent parses an Ogg page that starts with a Vorbis identification packet.
func ParseIdent(page []byte) (Ident, error) {
	if len(page) < pageHeaderLen {
		return Ident{}, ErrNotOgg
	}

	ring, err := bitring.Load(page)
	if err != nil {
		return Ident{}, err
	}

	if ring.ReadForward32() != capturePattern {
		return Ident{}, ErrNotOgg
	}

	// version, header type, granule, serial, sequence, crc
	ring.PushForward((1+1+8+4+4+4)*8, bitring.Reading)

	segments := ring.ReadForward(8)
	ring.PushForward(segments*8, bitring.Reading)

	if ring.ValidBits() < identLen*8 {
		return Ident{}, fmt.Errorf("%w: truncated", ErrNotVorbis)
	}

	if ring.ReadForward(8) != packetIdent || ring.ReadForward32() != vorbisHi || ring.ReadForward(16) != vorbisLo {
		return Ident{}, ErrNotVorbis
	}

	ident := Ident{
		Version:        readLE32(ring),
		Channels:       uint8(ring.ReadForward(8)), //nolint:gosec // 8-bit field
		SampleRate:     readLE32(ring),
		BitRateMax:     int32(readLE32(ring)), //nolint:gosec // signed on the wire
		BitRateNominal: int32(readLE32(ring)), //nolint:gosec // signed on the wire
		BitRateMin:     int32(readLE32(ring)), //nolint:gosec // signed on the wire
	}

	// Vorbis packs fields LSB first: the low nibble is blocksize_0.
	sizes := ring.ReadForward(8)
	ident.BlockSize1 = 1 << (sizes >> 4)
	ident.BlockSize0 = 1 << (sizes & 0xF)

	framing := ring.ReadForward(8)

	switch {
	case ident.Version != 0:
		return Ident{}, fmt.Errorf("%w: version %d", ErrNotVorbis, ident.Version)
	case ident.Channels == 0 || ident.SampleRate == 0:
		return Ident{}, fmt.Errorf("%w: zero channels or sample rate", ErrNotVorbis)
	case ident.BlockSize0 > ident.BlockSize1:
		return Ident{}, fmt.Errorf("%w: blocksize_0 %d > blocksize_1 %d", ErrNotVorbis, ident.BlockSize0, ident.BlockSize1)
	case framing&1 == 0:
		return Ident{}, fmt.Errorf("%w: framing bit unset", ErrNotVorbis)
	}

	return ident, nil
}

// readLE32 reads a little-endian 32-bit field off the MSB-first ring.
func readLE32(ring *bitring.BitBuffer) uint32 {
	return bits.ReverseBytes32(ring.ReadForward32())
}
