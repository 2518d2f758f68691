// Package wav reads RIFF/WAVE format headers through a bit ring.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/bitring"
)

// WAV format constants.
const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE

	fmtMinLen = 16
	fmtExtLen = 40
)

// GUID for PCM in WAVEFORMATEXTENSIBLE.
//
//nolint:gochecknoglobals
var wavGUIDPCM = [16]byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71,
}

var (
	ErrNotWAV          = errors.New("not a WAV file")
	ErrUnsupportedFmt  = errors.New("unsupported WAV format")
	ErrNoFmtChunk      = errors.New("missing fmt chunk")
	ErrNoDataChunk     = errors.New("missing data chunk")
	ErrInvalidBitDepth = errors.New("invalid bit depth")
)

// Format is the content of a fmt chunk.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Probe walks the RIFF chunks up to the data chunk and returns the stream format.
// The data chunk itself is not read.
func Probe(rs io.ReadSeeker) (bitring.StreamInfo, error) {
	var riffHeader [12]byte
	if _, err := io.ReadFull(rs, riffHeader[:]); err != nil {
		return bitring.StreamInfo{}, fmt.Errorf("%w: reading RIFF header: %w", fault.ErrReadFailure, err)
	}

	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return bitring.StreamInfo{}, ErrNotWAV
	}

	var (
		format   Format
		fmtFound bool
	)

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(rs, chunkHeader[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return bitring.StreamInfo{}, fmt.Errorf("%w: reading chunk header: %w", fault.ErrReadFailure, err)
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			parsed, err := readFmtChunk(rs, chunkSize)
			if err != nil {
				return bitring.StreamInfo{}, err
			}

			format = parsed
			fmtFound = true

		case "data":
			if !fmtFound {
				return bitring.StreamInfo{}, ErrNoFmtChunk
			}

			return format.streamInfo(chunkSize), nil

		default:
			// Skip unknown chunks
			if _, err := rs.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return bitring.StreamInfo{}, fmt.Errorf("skipping chunk %s: %w", chunkID, err)
			}
		}

		// Chunks are word-aligned (pad byte if odd size)
		if chunkSize%2 == 1 {
			if _, err := rs.Seek(1, io.SeekCurrent); err != nil {
				return bitring.StreamInfo{}, fmt.Errorf("seeking past pad byte: %w", err)
			}
		}
	}

	if !fmtFound {
		return bitring.StreamInfo{}, ErrNoFmtChunk
	}

	return bitring.StreamInfo{}, ErrNoDataChunk
}

func (f Format) streamInfo(dataSize uint32) bitring.StreamInfo {
	info := bitring.StreamInfo{
		Codec:      "WAV",
		SampleRate: int(f.SampleRate),
		BitDepth:   bitring.BitDepth(f.BitsPerSample),
		Channels:   uint(f.Channels),
		BitRate:    int(f.ByteRate) * 8,
	}

	if f.BlockAlign > 0 {
		info.TotalSamples = uint64(dataSize / uint32(f.BlockAlign))
	}

	return info
}

func readFmtChunk(rs io.ReadSeeker, size uint32) (Format, error) {
	if size < fmtMinLen {
		return Format{}, ErrUnsupportedFmt
	}

	var buf [fmtExtLen]byte

	toRead := min(size, fmtExtLen)

	if _, err := io.ReadFull(rs, buf[:toRead]); err != nil {
		return Format{}, fmt.Errorf("%w: reading fmt chunk: %w", fault.ErrReadFailure, err)
	}

	// Skip remaining bytes if chunk is larger than what we consumed.
	if size > fmtExtLen {
		if _, err := rs.Seek(int64(size-fmtExtLen), io.SeekCurrent); err != nil {
			return Format{}, fmt.Errorf("skipping fmt chunk tail: %w", err)
		}
	}

	return ParseFmt(buf[:toRead])
}

// ParseFmt parses the payload of a fmt chunk (16 bytes, or 40 for WAVEFORMATEXTENSIBLE).
func ParseFmt(payload []byte) (Format, error) {
	if len(payload) < fmtMinLen {
		return Format{}, ErrUnsupportedFmt
	}

	ring, err := bitring.Load(payload)
	if err != nil {
		return Format{}, err
	}

	format := Format{
		AudioFormat:   readLE16(ring),
		Channels:      readLE16(ring),
		SampleRate:    readLE32(ring),
		ByteRate:      readLE32(ring),
		BlockAlign:    readLE16(ring),
		BitsPerSample: readLE16(ring),
	}

	switch format.AudioFormat {
	case wavFormatPCM:
		// Standard PCM, we're good

	case wavFormatExtensible:
		if len(payload) < fmtExtLen {
			return Format{}, ErrUnsupportedFmt
		}

		// cbSize, validBitsPerSample, channelMask
		ring.PushForward((2+2+4)*8, bitring.Reading)

		var subFormat [16]byte
		for i := range subFormat {
			subFormat[i] = byte(ring.ReadForward(8))
		}

		if subFormat != wavGUIDPCM {
			return Format{}, ErrUnsupportedFmt // Not PCM (could be float, etc.)
		}

	case wavFormatIEEEFloat:
		return Format{}, ErrUnsupportedFmt

	default:
		return Format{}, ErrUnsupportedFmt
	}

	switch format.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return Format{}, fmt.Errorf("%w: %d", ErrInvalidBitDepth, format.BitsPerSample)
	}

	return format, nil
}

func readLE16(ring *bitring.BitBuffer) uint16 {
	return bits.ReverseBytes16(uint16(ring.ReadForward(16))) //nolint:gosec // 16-bit field
}

func readLE32(ring *bitring.BitBuffer) uint32 {
	return bits.ReverseBytes32(ring.ReadForward32())
}
