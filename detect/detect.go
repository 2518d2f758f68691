package detect

import (
	"fmt"
	"io"

	"github.com/mycophonic/bitring"
)

// Codec represents a recognized audio container or codec.
type Codec uint8

const (
	// Unknown indicates the file format was not recognized.
	Unknown Codec = iota
	// FLAC is the Free Lossless Audio Codec.
	FLAC
	// ALAC is the Apple Lossless Audio Codec (inside an M4A/MP4 container).
	ALAC
	// MP3 is MPEG-1/2 Audio Layer III.
	MP3
	// Vorbis is Ogg Vorbis.
	Vorbis
	// WAV is RIFF/WAVE.
	WAV
)

// String returns the human-readable name of the codec.
func (c Codec) String() string {
	switch c {
	case Unknown:
		return "unknown"
	case FLAC:
		return "FLAC"
	case ALAC:
		return "ALAC"
	case MP3:
		return "MP3"
	case Vorbis:
		return "Vorbis"
	case WAV:
		return "WAV"
	}

	return "unknown"
}

// Magic words, read MSB first.
const (
	magicFLAC = 0x664C6143 // "fLaC"
	magicOgg  = 0x4F676753 // "OggS"
	magicFtyp = 0x66747970 // "ftyp"
	magicRIFF = 0x52494646 // "RIFF"
	magicWAVE = 0x57415645 // "WAVE"
	magicID3  = 0x494433   // "ID3"

	// mpegSync is the 11-bit MPEG audio frame sync word.
	mpegSync     = 0x7FF
	mpegSyncBits = 11
)

// headerSize is the number of bytes needed to identify any supported codec.
// WAV needs the most: "RIFF" at 0 and "WAVE" at 8. Every other codec is
// recognized from the first minHeaderSize bytes.
const (
	headerSize    = 12
	minHeaderSize = 8
)

// Identify reads the header from reader and returns the detected codec.
// Inputs of 8 to 11 bytes are classified without the WAVE check.
// The reader position is reset to the start before returning.
func Identify(reader io.ReadSeeker) (Codec, error) {
	var header [headerSize]byte

	n, err := io.ReadAtLeast(reader, header[:], minHeaderSize)
	if err != nil {
		return Unknown, fmt.Errorf("reading header: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Unknown, fmt.Errorf("seeking to start: %w", err)
	}

	return IdentifyBytes(header[:n]), nil
}

// IdentifyBytes classifies a header of at least 8 bytes. WAV needs 12.
func IdentifyBytes(header []byte) Codec {
	if len(header) < minHeaderSize {
		return Unknown
	}

	ring, err := bitring.Load(header[:min(len(header), headerSize)])
	if err != nil {
		return Unknown
	}

	word0 := ring.ReadForward32()
	word1 := ring.ReadForward32()

	// Left zero for short headers, so RIFF alone never matches WAV.
	word2 := uint32(0)
	if ring.ValidBits() >= 32 {
		word2 = ring.ReadForward32()
	}

	switch {
	case word0 == magicFLAC:
		return FLAC
	case word0 == magicOgg:
		return Vorbis
	case word0 == magicRIFF && word2 == magicWAVE:
		return WAV
	case word1 == magicFtyp:
		return ALAC
	case word0>>8 == magicID3:
		return MP3
	case word0>>(32-mpegSyncBits) == mpegSync:
		return MP3
	}

	return Unknown
}
