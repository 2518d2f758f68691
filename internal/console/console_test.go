package console_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mycophonic/bitring"
	"github.com/mycophonic/bitring/internal/console"
)

func newConsole(t *testing.T, size int) (*console.Console, *bitring.BitBuffer, *bytes.Buffer) {
	t.Helper()

	storage, err := bitring.Alloc(size)
	if err != nil {
		t.Fatal(err)
	}

	ring, err := bitring.New(storage)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer

	return console.New(ring, &out), ring, &out
}

func run(t *testing.T, c *console.Console, lines ...string) {
	t.Helper()

	for _, line := range lines {
		if err := c.Exec(line); err != nil {
			t.Fatalf("Exec(%q): %v", line, err)
		}
	}
}

func TestPutGet(t *testing.T) {
	t.Parallel()

	// 32 bits fill a 4-byte ring and the cursor wraps to the start.
	c, ring, out := newConsole(t, 4)

	run(t, c, "put 0xABCDEF01 32")
	out.Reset()

	run(t, c, "get32")

	if !strings.Contains(out.String(), "0xabcdef01") {
		t.Fatalf("output %q lacks 0xabcdef01", out.String())
	}

	if ring.ValidBits() != 0 {
		t.Fatalf("ValidBits() = %d, want 0", ring.ValidBits())
	}
}

func TestFeedGetFetch(t *testing.T) {
	t.Parallel()

	c, ring, out := newConsole(t, 4)

	run(t, c, "feed ff fb 90", "get 11")

	if !strings.Contains(out.String(), "0x7ff (2047)") {
		t.Fatalf("output %q lacks the sync word", out.String())
	}

	if ring.ValidBits() != 13 {
		t.Fatalf("ValidBits() = %d, want 13", ring.ValidBits())
	}

	out.Reset()
	run(t, c, "reset", "feed 0102", "fetch 8")

	if !strings.Contains(out.String(), "2 bytes: 0102") {
		t.Fatalf("output %q lacks fetched bytes", out.String())
	}
}

func TestBackwardCommands(t *testing.T) {
	t.Parallel()

	c, _, out := newConsole(t, 4)

	run(t, c, "fwd 16 w", "putb 0x5 3", "fwd 3 r")
	out.Reset()

	run(t, c, "getb 3")

	if !strings.Contains(out.String(), "0x5 (5) 101") {
		t.Fatalf("output %q lacks 0x5", out.String())
	}
}

func TestRejectsBeforeTouchingRing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want error
	}{
		{"get 0", console.ErrUsage},
		{"get 33", console.ErrUsage},
		{"get 8", console.ErrRange},
		{"get32", console.ErrRange},
		{"getb 0", console.ErrUsage},
		{"put 1 33", console.ErrUsage},
		{"put x 3", console.ErrUsage},
		{"putb 1 1", console.ErrRange},
		{"back 1 w", console.ErrRange},
		{"fwd 1 r", console.ErrRange},
		{"fwd 33 w", console.ErrRange},
		{"fwd 1 x", console.ErrUsage},
		{"feed zz", console.ErrUsage},
		{"fetch -1", console.ErrUsage},
		{"frobnicate", console.ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			c, ring, _ := newConsole(t, 4)

			if err := c.Exec(tt.line); !errors.Is(err, tt.want) {
				t.Fatalf("Exec(%q) = %v, want %v", tt.line, err, tt.want)
			}

			if ring.ValidBits() != 0 || ring.BitPosition() != 0 {
				t.Fatalf("ring changed: valid=%d bit=%d", ring.ValidBits(), ring.BitPosition())
			}
		})
	}
}

func TestFetchOversizedCount(t *testing.T) {
	t.Parallel()

	c, ring, out := newConsole(t, 8)

	run(t, c, "feed 0102030405060708", "fetch 9223372036854775807")

	if !strings.Contains(out.String(), "8 bytes: 0102030405060708") {
		t.Fatalf("output %q lacks the fetched bytes", out.String())
	}

	if ring.ValidBits() != 0 {
		t.Fatalf("ValidBits() = %d, want 0", ring.ValidBits())
	}

	if err := c.Exec("fetch 99999999999999999999"); !errors.Is(err, console.ErrUsage) {
		t.Fatalf("count beyond int: %v, want ErrUsage", err)
	}
}

func TestMisc(t *testing.T) {
	t.Parallel()

	c, _, out := newConsole(t, 2)

	run(t, c, "", "# comment", "help", "state", "dump")

	for _, fragment := range []string{"get n", "size=2 valid=0 free=16 bit=0", "00000000  00 00"} {
		if !strings.Contains(out.String(), fragment) {
			t.Errorf("output lacks %q", fragment)
		}
	}

	if err := c.Exec("quit"); !errors.Is(err, console.ErrQuit) {
		t.Fatalf("quit = %v", err)
	}
}
