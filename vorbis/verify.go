package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/bitring"
)

// ErrMismatch is returned when the reference decoder disagrees with Probe.
var ErrMismatch = errors.New("vorbis: reference decoder disagrees")

// Reference reads the sample rate and channel count with jfreymuth/oggvorbis.
func Reference(reader io.Reader) (bitring.StreamInfo, error) {
	decoder, err := oggvorbis.NewReader(reader)
	if err != nil {
		return bitring.StreamInfo{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return bitring.StreamInfo{
		Codec:      "Vorbis",
		SampleRate: decoder.SampleRate(),
		Channels:   uint(decoder.Channels()), //nolint:gosec // channel count is always small positive
	}, nil
}

// Verify probes reader and checks rate and channels against the reference decoder.
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

	if probed.SampleRate != ref.SampleRate || probed.Channels != ref.Channels {
		return probed, fmt.Errorf("%w: probed %d Hz/%d ch, reference %d Hz/%d ch",
			ErrMismatch, probed.SampleRate, probed.Channels, ref.SampleRate, ref.Channels)
	}

	return probed, nil
}
