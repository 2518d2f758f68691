package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/bitring"
	"github.com/mycophonic/bitring/alac"
	"github.com/mycophonic/bitring/detect"
	"github.com/mycophonic/bitring/flac"
	"github.com/mycophonic/bitring/mp3"
	"github.com/mycophonic/bitring/vorbis"
	"github.com/mycophonic/bitring/wav"
)

var (
	errUnsupportedFormat = errors.New("unsupported audio format")
	errInvalidArgCount   = errors.New("expected exactly one argument: file path")
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Print stream information read from the file header",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "cross-check the header against a reference decoder (FLAC, Vorbis)",
			},
		},
		Action: runProbe,
	}
}

type probeFunc func(io.ReadSeeker) (bitring.StreamInfo, error)

func probers(codec detect.Codec, verify bool) (probeFunc, bool) {
	switch codec {
	case detect.FLAC:
		if verify {
			return flac.Verify, true
		}

		return func(rs io.ReadSeeker) (bitring.StreamInfo, error) { return flac.Probe(rs) }, true
	case detect.Vorbis:
		if verify {
			return vorbis.Verify, true
		}

		return func(rs io.ReadSeeker) (bitring.StreamInfo, error) { return vorbis.Probe(rs) }, true
	case detect.MP3:
		return mp3.Probe, false
	case detect.ALAC:
		return alac.Probe, false
	case detect.WAV:
		return wav.Probe, false
	case detect.Unknown:
	}

	return nil, false
}

func runProbe(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	path := cmd.Args().First()

	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	codec, err := detect.Identify(file)
	if err != nil {
		return fmt.Errorf("detecting codec: %w", err)
	}

	probe, verified := probers(codec, cmd.Bool("verify"))
	if probe == nil {
		return fmt.Errorf("%s: %w", path, errUnsupportedFormat)
	}

	if cmd.Bool("verify") && !verified {
		slog.Warn("no reference decoder, header not cross-checked", "codec", codec.String())
	}

	info, err := probe(file)
	if err != nil {
		return fmt.Errorf("probing %s: %w", codec, err)
	}

	slog.Debug("probed", "path", path, "codec", codec.String(), "verified", verified)

	printStreamInfo(os.Stdout, info)

	return nil
}

func printStreamInfo(w io.Writer, info bitring.StreamInfo) {
	_, _ = fmt.Fprintf(w, "codec:       %s\n", info.Codec)
	_, _ = fmt.Fprintf(w, "sample rate: %d Hz\n", info.SampleRate)

	if info.BitDepth != 0 {
		_, _ = fmt.Fprintf(w, "bit depth:   %d\n", info.BitDepth)
	}

	_, _ = fmt.Fprintf(w, "channels:    %d\n", info.Channels)

	if info.TotalSamples != 0 {
		_, _ = fmt.Fprintf(w, "samples:     %d\n", info.TotalSamples)
		_, _ = fmt.Fprintf(w, "duration:    %.3f s\n", info.Duration())
	}

	if info.BitRate != 0 {
		_, _ = fmt.Fprintf(w, "bit rate:    %d bps\n", info.BitRate)
	}
}
