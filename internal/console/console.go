// Package console is a line-oriented command interpreter over a single ring.
package console

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mycophonic/bitring"
)

var (
	// ErrUsage is returned for malformed commands.
	ErrUsage = errors.New("usage")
	// ErrRange is returned when a command would overrun the valid or free bits.
	ErrRange = errors.New("out of range")
	// ErrQuit is returned by the quit command.
	ErrQuit = errors.New("quit")
)

const help = `get n          read n bits forward (1-32)
get32          read 32 bits forward
getb n         read n bits backward (1-32)
put v n        write the n low bits of v forward (0-32)
putb v n       write the n low bits of v backward (0-32)
back n [r|w]   move the bit cursor back, reading or writing accounting
fwd n [r|w]    move the bit cursor forward, reading or writing accounting
feed hex       append bytes at the feed cursor
fetch n        remove up to n bytes at the fetch cursor
state          show counters and cursors
dump           hex dump of storage
reset          drop all data
quit           leave
`

// Console runs commands against a ring and prints results to out.
type Console struct {
	ring *bitring.BitBuffer
	out  io.Writer
}

// New returns a console over ring.
func New(ring *bitring.BitBuffer, out io.Writer) *Console {
	return &Console{ring: ring, out: out}
}

// Exec runs one command line. Blank lines and lines starting with # are ignored.
func (c *Console) Exec(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}

	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "get":
		return c.get(args, false)
	case "getb":
		return c.get(args, true)
	case "get32":
		return c.get32(args)
	case "put":
		return c.put(args, false)
	case "putb":
		return c.put(args, true)
	case "back":
		return c.push(args, true)
	case "fwd":
		return c.push(args, false)
	case "feed":
		return c.feed(args)
	case "fetch":
		return c.fetch(args)
	case "state":
		c.state()
	case "dump":
		fmt.Fprint(c.out, hex.Dump(c.ring.Bytes()))
	case "reset":
		c.ring.Reset()
		c.state()
	case "help", "?":
		fmt.Fprint(c.out, help)
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("%w: unknown command %q, try help", ErrUsage, cmd)
	}

	return nil
}

func (c *Console) get(args []string, backward bool) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: get n", ErrUsage)
	}

	n, err := bitCount(args[0], 1)
	if err != nil {
		return err
	}

	var value uint32

	if backward {
		if int(n) > c.ring.FreeBits() {
			return fmt.Errorf("%w: %d bits back, %d consumed", ErrRange, n, c.ring.FreeBits())
		}

		value = c.ring.ReadBackward(n)
	} else {
		if int(n) > c.ring.ValidBits() {
			return fmt.Errorf("%w: %d bits wanted, %d valid", ErrRange, n, c.ring.ValidBits())
		}

		value = c.ring.ReadForward(n)
	}

	fmt.Fprintf(c.out, "%#x (%d) %0*b\n", value, value, int(n), value)

	return nil
}

func (c *Console) get32(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: get32", ErrUsage)
	}

	if c.ring.ValidBits() < 32 {
		return fmt.Errorf("%w: 32 bits wanted, %d valid", ErrRange, c.ring.ValidBits())
	}

	value := c.ring.ReadForward32()
	fmt.Fprintf(c.out, "%#08x (%d)\n", value, value)

	return nil
}

func (c *Console) put(args []string, backward bool) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: put v n", ErrUsage)
	}

	value, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("%w: value %q: %w", ErrUsage, args[0], err)
	}

	n, err := bitCount(args[1], 0)
	if err != nil {
		return err
	}

	if backward {
		if int(n) > c.ring.ValidBits() {
			return fmt.Errorf("%w: %d bits back, %d valid", ErrRange, n, c.ring.ValidBits())
		}

		c.ring.WriteBackward(uint32(value), n)
	} else {
		if int(n) > c.ring.FreeBits() {
			return fmt.Errorf("%w: %d bits wanted, %d free", ErrRange, n, c.ring.FreeBits())
		}

		c.ring.WriteForward(uint32(value), n)
	}

	c.state()

	return nil
}

func (c *Console) push(args []string, back bool) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: back|fwd n [r|w]", ErrUsage)
	}

	count, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("%w: count %q: %w", ErrUsage, args[0], err)
	}

	acct := bitring.Reading

	if len(args) == 2 {
		switch args[1] {
		case "r":
		case "w":
			acct = bitring.Writing
		default:
			return fmt.Errorf("%w: accounting must be r or w", ErrUsage)
		}
	}

	// Moving back while reading, or forward while writing, grows the valid count.
	delta := int(count)
	if back != (acct == bitring.Reading) {
		delta = -delta
	}

	if valid := c.ring.ValidBits() + delta; valid < 0 || valid > c.ring.Capacity() {
		return fmt.Errorf("%w: valid bits would become %d", ErrRange, valid)
	}

	n := uint32(count)
	if back {
		c.ring.PushBack(n, acct)
	} else {
		c.ring.PushForward(n, acct)
	}

	c.state()

	return nil
}

func (c *Console) feed(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: feed hex", ErrUsage)
	}

	data, err := hex.DecodeString(strings.Join(args, ""))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	left := c.ring.Feed(data, len(data))
	fmt.Fprintf(c.out, "fed %d bytes, %d left over\n", len(data)-left, left)

	return nil
}

func (c *Console) fetch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: fetch n", ErrUsage)
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return fmt.Errorf("%w: byte count %q", ErrUsage, args[0])
	}

	// Never more than the ring holds.
	dst := make([]byte, min(n, c.ring.Size()))
	got := c.ring.Fetch(dst)
	fmt.Fprintf(c.out, "%d bytes: %s\n", got, hex.EncodeToString(dst[:got]))

	return nil
}

func (c *Console) state() {
	fmt.Fprintf(c.out, "size=%d valid=%d free=%d bit=%d\n",
		c.ring.Size(), c.ring.ValidBits(), c.ring.FreeBits(), c.ring.BitPosition())
}

func bitCount(arg string, lowest uint32) (uint32, error) {
	n, err := strconv.ParseUint(arg, 0, 32)
	if err != nil || n < uint64(lowest) || n > 32 {
		return 0, fmt.Errorf("%w: bit count %q not in [%d, 32]", ErrUsage, arg, lowest)
	}

	return uint32(n), nil
}
