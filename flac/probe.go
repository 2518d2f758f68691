// Package flac reads FLAC stream headers through a bit ring.
package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/bitring"
)

var (
	// ErrNotFLAC is returned when the stream does not start with "fLaC".
	ErrNotFLAC = errors.New("flac: missing fLaC marker")
	// ErrNoStreamInfo is returned when the first metadata block is not a valid STREAMINFO.
	ErrNoStreamInfo = errors.New("flac: first metadata block is not STREAMINFO")
	// ErrBitDepth is returned when a FLAC stream has an unsupported bit depth.
	ErrBitDepth = errors.New("flac: unsupported bit depth")
)

const (
	marker         = 0x664C6143 // "fLaC"
	blockHeaderLen = 4
	streamInfoLen  = 34
	streamInfoType = 0
	headerLen      = 4 + blockHeaderLen + streamInfoLen
)

// StreamInfo is the content of the mandatory STREAMINFO metadata block.
type StreamInfo struct {
	BlockSizeMin  uint16
	BlockSizeMax  uint16
	FrameSizeMin  uint32
	FrameSizeMax  uint32
	SampleRate    uint32
	NChannels     uint8
	BitsPerSample uint8
	NSamples      uint64
	MD5           [16]byte
}

// Probe reads the STREAMINFO block at the start of reader.
func Probe(reader io.Reader) (bitring.StreamInfo, error) {
	info, err := ReadStreamInfo(reader)
	if err != nil {
		return bitring.StreamInfo{}, err
	}

	depth, err := bitring.ToBitDepth(info.BitsPerSample)
	if err != nil {
		return bitring.StreamInfo{}, fmt.Errorf("%w: %w", ErrBitDepth, err)
	}

	return bitring.StreamInfo{
		Codec:        "FLAC",
		SampleRate:   int(info.SampleRate),
		BitDepth:     depth,
		Channels:     uint(info.NChannels),
		TotalSamples: info.NSamples,
	}, nil
}

// ReadStreamInfo reads the marker, the first metadata block header and STREAMINFO.
func ReadStreamInfo(reader io.Reader) (StreamInfo, error) {
	var header [headerLen]byte

	if _, err := io.ReadFull(reader, header[:]); err != nil {
		return StreamInfo{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return ParseStreamInfo(header[:])
}

// ParseStreamInfo parses the first 42 bytes of a FLAC stream.
func ParseStreamInfo(header []byte) (StreamInfo, error) {
	if len(header) < headerLen {
		return StreamInfo{}, ErrNotFLAC
	}

	ring, err := bitring.Load(header[:headerLen])
	if err != nil {
		return StreamInfo{}, err
	}

	if ring.ReadForward32() != marker {
		return StreamInfo{}, ErrNotFLAC
	}

	ring.ReadForward(1) // last-metadata-block flag

	if blockType := ring.ReadForward(7); blockType != streamInfoType {
		return StreamInfo{}, fmt.Errorf("%w: block type %d", ErrNoStreamInfo, blockType)
	}

	if length := ring.ReadForward(24); length != streamInfoLen {
		return StreamInfo{}, fmt.Errorf("%w: length %d", ErrNoStreamInfo, length)
	}

	var info StreamInfo

	info.BlockSizeMin = uint16(ring.ReadForward(16)) //nolint:gosec // 16-bit field
	info.BlockSizeMax = uint16(ring.ReadForward(16)) //nolint:gosec // 16-bit field
	info.FrameSizeMin = ring.ReadForward(24)
	info.FrameSizeMax = ring.ReadForward(24)
	info.SampleRate = ring.ReadForward(20)
	info.NChannels = uint8(ring.ReadForward(3)) + 1      //nolint:gosec // 3-bit field
	info.BitsPerSample = uint8(ring.ReadForward(5)) + 1 //nolint:gosec // 5-bit field

	// 36-bit sample count.
	info.NSamples = uint64(ring.ReadForward(4))<<32 | uint64(ring.ReadForward32())

	for i := range info.MD5 {
		info.MD5[i] = byte(ring.ReadForward(8))
	}

	if info.SampleRate == 0 {
		return StreamInfo{}, fmt.Errorf("%w: zero sample rate", ErrNoStreamInfo)
	}

	return info, nil
}
