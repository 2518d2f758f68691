package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/mycophonic/bitring"
	"github.com/mycophonic/bitring/internal/console"
)

var errTooManyArgs = errors.New("expected at most one argument: file path")

func shellCommand() *cli.Command {
	return &cli.Command{
		Name:      "shell",
		Usage:     "Interactive bit-level access to a ring, optionally loaded from a file",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			capacityFlag(),
			&cli.StringSliceFlag{
				Name:    "exec",
				Aliases: []string{"e"},
				Usage:   "run a command and exit instead of prompting (repeatable)",
			},
		},
		Action: runShell,
	}
}

func runShell(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 1 {
		return fmt.Errorf("%w: got %d", errTooManyArgs, cmd.NArg())
	}

	ring, err := newRing(int(cmd.Int("capacity")))
	if err != nil {
		return err
	}

	if cmd.NArg() == 1 {
		if err := loadFile(ring, cmd.Args().First()); err != nil {
			return err
		}
	}

	if script := cmd.StringSlice("exec"); len(script) > 0 {
		return runScript(console.New(ring, os.Stdout), script)
	}

	return interact(ring)
}

func loadFile(ring *bitring.BitBuffer, path string) error {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified files
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	n, err := ring.Fill(file)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	slog.Debug("loaded", "path", path, "bytes", n, "capacity", ring.Size())

	return nil
}

func runScript(c *console.Console, script []string) error {
	for _, line := range script {
		if err := c.Exec(line); err != nil {
			if errors.Is(err, console.ErrQuit) {
				return nil
			}

			return fmt.Errorf("%s: %w", line, err)
		}
	}

	return nil
}

func interact(ring *bitring.BitBuffer) error {
	rl, err := readline.New("bitring> ")
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer rl.Close()

	c := console.New(ring, rl.Stdout())
	lastLine := ""

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}

			return fmt.Errorf("reading command: %w", err)
		}

		// An empty line repeats the previous command.
		line = strings.TrimSpace(line)
		if line == "" {
			line = lastLine
		}

		lastLine = line

		if err := c.Exec(line); err != nil {
			if errors.Is(err, console.ErrQuit) {
				return nil
			}

			_, _ = fmt.Fprintf(rl.Stderr(), "%v\n", err)
		}
	}
}
