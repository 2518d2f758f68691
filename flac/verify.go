package flac

import (
	"errors"
	"fmt"
	"io"

	goflac "github.com/mewkiz/flac"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/bitring"
)

// ErrMismatch is returned when the reference decoder disagrees with Probe.
var ErrMismatch = errors.New("flac: reference decoder disagrees")

// Reference reads stream info with the mewkiz/flac decoder.
func Reference(reader io.Reader) (bitring.StreamInfo, error) {
	stream, err := goflac.New(reader)
	if err != nil {
		return bitring.StreamInfo{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer stream.Close()

	info := stream.Info

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

// Verify probes reader and compares the result with the reference decoder.
func Verify(reader io.ReadSeeker) (bitring.StreamInfo, error) {
	probed, err := Probe(reader)
	if err != nil {
		return bitring.StreamInfo{}, err
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return bitring.StreamInfo{}, fmt.Errorf("seeking to start: %w", err)
	}

	ref, err := Reference(reader)
	if err != nil {
		return bitring.StreamInfo{}, err
	}

	if probed != ref {
		return probed, fmt.Errorf("%w: probed %+v, reference %+v", ErrMismatch, probed, ref)
	}

	return probed, nil
}
