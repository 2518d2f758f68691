// Package alac reads the ALAC configuration of an M4A/MP4 file through a bit ring.
package alac

import (
	"fmt"
	"io"

	mp4 "github.com/abema/go-mp4"

	"github.com/mycophonic/bitring"
)

// Probe locates the first ALAC track and returns its stream info.
// The total sample count is the packet count times the frame length, which
// overestimates by the padding of the last packet.
func Probe(rs io.ReadSeeker) (bitring.StreamInfo, error) {
	cookie, packets, err := findALACTrack(rs)
	if err != nil {
		return bitring.StreamInfo{}, err
	}

	config, err := ParseConfig(cookie)
	if err != nil {
		return bitring.StreamInfo{}, fmt.Errorf("parsing ALAC config: %w", err)
	}

	depth, err := bitring.ToBitDepth(config.BitDepth)
	if err != nil {
		return bitring.StreamInfo{}, fmt.Errorf("%w: %w", errBitDepth, err)
	}

	return bitring.StreamInfo{
		Codec:        "ALAC",
		SampleRate:   int(config.SampleRate),
		BitDepth:     depth,
		Channels:     uint(config.NumChannels),
		TotalSamples: uint64(packets) * uint64(config.FrameLength),
		BitRate:      int(config.AvgBitRate),
	}, nil
}

// findALACTrack walks the MP4 box tree to locate the first track containing
// an ALAC sample entry. It returns the magic cookie and the packet count.
func findALACTrack(rs io.ReadSeeker) ([]byte, uint32, error) {
	stbls, err := mp4.ExtractBox(rs, nil, mp4.BoxPath{
		mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(),
		mp4.BoxTypeMinf(), mp4.BoxTypeStbl(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("reading container structure: %w", err)
	}

	for _, stbl := range stbls {
		cookie, err := extractCookie(rs, stbl)
		if err != nil {
			continue // not an ALAC track
		}

		packets, err := readSampleCount(rs, stbl)
		if err != nil {
			return nil, 0, err
		}

		return cookie, packets, nil
	}

	return nil, 0, errNoALACTrack
}

const (
	sampleEntryHeaderSize = 8  // box header: size(4) + type(4)
	sampleEntryBaseSize   = 28 // standard AudioSampleEntry fields
	sampleEntryV1Extra    = 16 // QuickTime version 1 extra fields
	stsdPayloadHeader     = 8  // version(1) + flags(3) + entryCount(4)
)

// extractCookie reads the stsd box from stbl, finds an 'alac' sample entry,
// and extracts the raw magic cookie (possibly wrapped in 'frma'+'alac' atoms
// which ParseConfig handles).
func extractCookie(rs io.ReadSeeker, stbl *mp4.BoxInfo) ([]byte, error) {
	stsds, err := mp4.ExtractBox(rs, stbl, mp4.BoxPath{mp4.BoxTypeStsd()})
	if err != nil || len(stsds) == 0 {
		return nil, errNoALACTrack
	}

	stsd := stsds[0]
	data := make([]byte, int(stsd.Size-stsd.HeaderSize))

	if _, err := rs.Seek(int64(stsd.Offset+stsd.HeaderSize), io.SeekStart); err != nil { //nolint:gosec // box offsets fit int64
		return nil, fmt.Errorf("seeking to stsd payload: %w", err)
	}

	if _, err := io.ReadFull(rs, data); err != nil {
		return nil, fmt.Errorf("reading stsd payload: %w", err)
	}

	return cookieFromStsd(data)
}

// cookieFromStsd scans the sample entries of an stsd payload for 'alac'.
func cookieFromStsd(data []byte) ([]byte, error) {
	if len(data) < stsdPayloadHeader {
		return nil, errNoALACTrack
	}

	ring, err := bitring.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNoALACTrack, err)
	}

	ring.PushForward(32, bitring.Reading) // version, flags

	entryCount := ring.ReadForward32()
	pos := stsdPayloadHeader

	for range entryCount {
		if ring.ValidBits() < sampleEntryHeaderSize*8 {
			break
		}

		entrySize := int(ring.ReadForward32())
		fourCC := ring.ReadForward32()

		body := entrySize - sampleEntryHeaderSize
		if entrySize < sampleEntryHeaderSize+sampleEntryBaseSize || body > ring.ValidBits()/8 {
			break
		}

		if fourCC != fourCCAlac {
			ring.PushForward(uint32(body)*8, bitring.Reading) //nolint:gosec // bounded by the payload

			pos += entrySize

			continue
		}

		// reserved(6) + dataRefIdx(2), then the sample entry version
		ring.PushForward(64, bitring.Reading)

		skip := sampleEntryHeaderSize + sampleEntryBaseSize
		if ring.ReadForward(16) == 1 {
			skip += sampleEntryV1Extra
		}

		cookieStart := pos + skip
		cookieEnd := pos + entrySize

		if cookieStart >= cookieEnd {
			return nil, errInvalidCookie
		}

		return data[cookieStart:cookieEnd], nil
	}

	return nil, errNoALACTrack
}

func readSampleCount(rs io.ReadSeeker, stbl *mp4.BoxInfo) (uint32, error) {
	boxes, err := mp4.ExtractBoxWithPayload(rs, stbl, mp4.BoxPath{mp4.BoxTypeStsz()})
	if err != nil || len(boxes) == 0 {
		return 0, errNoStsz
	}

	stsz, ok := boxes[0].Payload.(*mp4.Stsz)
	if !ok {
		return 0, errInvalidStsz
	}

	return stsz.SampleCount, nil
}
