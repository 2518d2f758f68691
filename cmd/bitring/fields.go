package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/bitring/internal/layout"
)

func fieldsCommand() *cli.Command {
	return &cli.Command{
		Name:      "fields",
		Usage:     "Extract the bit fields described by a YAML layout",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "layout",
				Aliases:  []string{"l"},
				Required: true,
				Usage:    "YAML layout file",
				Sources:  cli.EnvVars("BITRING_LAYOUT"),
			},
			&cli.IntFlag{
				Name:    "length",
				Aliases: []string{"n"},
				Usage:   "bytes read from the start of the file; 0 reads it all",
			},
		},
		Action: runFields,
	}
}

func runFields(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	fieldLayout, err := layout.Load(cmd.String("layout"))
	if err != nil {
		return err
	}

	data, err := readPrefix(cmd.Args().First(), int(cmd.Int("length")))
	if err != nil {
		return err
	}

	values, err := fieldLayout.Extract(data)
	if err != nil {
		return fmt.Errorf("extracting fields: %w", err)
	}

	printValues(os.Stdout, values)

	return nil
}

func readPrefix(path string, length int) ([]byte, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified files
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if length > 0 {
		reader = io.LimitReader(file, int64(length))
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return data, nil
}

func printValues(w io.Writer, values []layout.Value) {
	for _, v := range values {
		direction := ""
		if v.Backward {
			direction = " (from end)"
		}

		_, _ = fmt.Fprintf(w, "%-16s %2d bits  %#x (%d)%s\n", v.Name, v.Bits, v.Value, v.Value, direction)
	}
}
