// Package mp3 reads MPEG audio stream headers through a bit ring.
package mp3

import (
	"errors"
	"fmt"
	"io"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/bitring"
)

// ErrNoFrame is returned when no valid frame header is found in the scan window.
var ErrNoFrame = errors.New("mp3: no frame header found")

const (
	id3HeaderLen = 10
	id3Magic     = 0x494433 // "ID3"
	id3Footer    = 0x10

	// scanWindow bounds how far past the tag Probe looks for a sync word.
	scanWindow = 8192

	xingTag      = 0x58696E67 // "Xing"
	infoTag      = 0x496E666F // "Info"
	xingHasCount = 1
)

// Probe skips an ID3v2 tag if present and decodes the first frame header.
// A Xing/Info frame, when present, supplies the total sample count.
func Probe(reader io.ReadSeeker) (bitring.StreamInfo, error) {
	skip, err := tagLength(reader)
	if err != nil {
		return bitring.StreamInfo{}, err
	}

	if _, err := reader.Seek(skip, io.SeekStart); err != nil {
		return bitring.StreamInfo{}, fmt.Errorf("seeking past ID3 tag: %w", err)
	}

	window := make([]byte, scanWindow)

	n, err := io.ReadFull(reader, window)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return bitring.StreamInfo{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	ring, err := bitring.Load(window[:n])
	if err != nil {
		return bitring.StreamInfo{}, err
	}

	header, err := Scan(ring)
	if err != nil {
		return bitring.StreamInfo{}, err
	}

	info := bitring.StreamInfo{
		Codec:      "MP3",
		SampleRate: header.SampleRate,
		Channels:   header.Channels(),
		BitRate:    header.BitRate,
	}

	if frames, ok := xingFrames(ring, header); ok {
		info.TotalSamples = uint64(frames) * uint64(header.SamplesPerFrame())
	}

	return info, nil
}

// tagLength returns the size of a leading ID3v2 tag, 0 when there is none.
func tagLength(reader io.ReadSeeker) (int64, error) {
	var raw [id3HeaderLen]byte

	n, err := io.ReadFull(reader, raw[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if n < id3HeaderLen {
		return 0, nil
	}

	ring, err := bitring.Load(raw[:])
	if err != nil {
		return 0, err
	}

	if ring.ReadForward(24) != id3Magic {
		return 0, nil
	}

	ring.PushForward(16, bitring.Reading) // version

	flags := ring.ReadForward(8)

	// Syncsafe size: four bytes of seven bits each.
	var size int64
	for range 4 {
		ring.ReadForward(1)
		size = size<<7 | int64(ring.ReadForward(7))
	}

	size += id3HeaderLen
	if flags&id3Footer != 0 {
		size += id3HeaderLen
	}

	return size, nil
}

// Scan searches the ring, from its bit cursor, for the first byte-aligned
// valid frame header. On success the cursor sits right after the header.
// The sync word is peeked and the cursor rewound, so a miss costs one byte.
func Scan(ring *bitring.BitBuffer) (FrameHeader, error) {
	ring.ByteAlign(bitring.Reading)

	for ring.ValidBits() >= 32 {
		if ring.ReadForward(11) != 0x7FF {
			ring.PushBack(3, bitring.Reading)

			continue
		}

		ring.PushBack(11, bitring.Reading)

		header, err := ParseFrameHeader(ring.ReadForward32())
		if err == nil {
			return header, nil
		}

		ring.PushBack(24, bitring.Reading)
	}

	return FrameHeader{}, ErrNoFrame
}

// xingFrames reads the frame count of a Xing/Info tag in the frame whose
// header was just consumed. The ring cursor is restored before returning.
func xingFrames(ring *bitring.BitBuffer, header FrameHeader) (uint32, bool) {
	if header.Layer != 3 {
		return 0, false
	}

	offset := header.sideInfoLen()
	if header.Protected {
		offset += 2
	}

	need := (offset + 12) * 8
	if ring.ValidBits() < need {
		return 0, false
	}

	skipped := uint32(offset * 8) //nolint:gosec // small constant offsets
	ring.PushForward(skipped, bitring.Reading)

	defer ring.PushBack(skipped+96, bitring.Reading)

	tag := ring.ReadForward32()
	flags := ring.ReadForward32()

	if (tag != xingTag && tag != infoTag) || flags&xingHasCount == 0 {
		ring.PushForward(32, bitring.Reading)

		return 0, false
	}

	return ring.ReadForward32(), true
}
