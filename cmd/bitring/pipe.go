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
)

var errSkipTooLarge = errors.New("skip exceeds the first ring of data")

const defaultCapacity = 4096

func capacityFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "capacity",
		Aliases: []string{"c"},
		Value:   defaultCapacity,
		Usage:   "ring size in bytes (power of two)",
		Sources: cli.EnvVars("BITRING_CAPACITY"),
	}
}

func newRing(capacity int) (*bitring.BitBuffer, error) {
	storage, err := bitring.Alloc(capacity)
	if err != nil {
		return nil, fmt.Errorf("capacity: %w", err)
	}

	return bitring.New(storage)
}

func pipeCommand() *cli.Command {
	return &cli.Command{
		Name:      "pipe",
		Usage:     "Stream a file through two rings, optionally dropping leading bits",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "-",
				Usage:   "output file path (- for stdout)",
			},
			capacityFlag(),
			&cli.IntFlag{
				Name:  "skip-bits",
				Usage: "bits to drop from the start; a count that is not a multiple of 8 shifts every byte",
			},
		},
		Action: runPipe,
	}
}

func runPipe(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	path := cmd.Args().First()

	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	var out io.Writer = os.Stdout

	if output := cmd.String("output"); output != "-" {
		dst, err := os.Create(output) //nolint:gosec // CLI tool creates user-specified output files
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer dst.Close()

		out = dst
	}

	capacity := int(cmd.Int("capacity"))

	source, err := newRing(capacity)
	if err != nil {
		return err
	}

	sink, err := newRing(capacity)
	if err != nil {
		return err
	}

	total, err := pipe(file, out, source, sink, int(cmd.Int("skip-bits")))
	if err != nil {
		return err
	}

	slog.Info("piped", "path", path, "bytes", total, "capacity", capacity, "skip_bits", cmd.Int("skip-bits"))

	return nil
}

// pipe moves reader to writer through source and sink. Bits are skipped on
// source before the first copy; a trailing partial byte is dropped.
func pipe(reader io.Reader, writer io.Writer, source, sink *bitring.BitBuffer, skip int) (int, error) {
	if skip < 0 {
		return 0, fmt.Errorf("%w: %d", errSkipTooLarge, skip)
	}

	total := 0
	eof := false
	skipped := false

	for {
		if !eof {
			if _, err := source.Fill(reader); err != nil {
				if !errors.Is(err, io.EOF) {
					return total, err
				}

				eof = true
			}
		}

		if !skipped {
			if skip > source.ValidBits() {
				return total, fmt.Errorf("%w: %d bits, %d available", errSkipTooLarge, skip, source.ValidBits())
			}

			source.PushForward(uint32(skip), bitring.Reading) //nolint:gosec // checked above

			skipped = true
		}

		moved := sink.CopyFrom(source, sink.Size())

		n, err := sink.Drain(writer)
		total += n

		if err != nil {
			return total, err
		}

		if eof && moved == 0 {
			return total, nil
		}
	}
}
