package bitring

import (
	"errors"
	"fmt"
	"io"
)

// maxEmptyReads bounds consecutive (0, nil) reads in Fill, as bufio does.
const maxEmptyReads = 100

// Write feeds p into the ring. It implements io.Writer and returns
// io.ErrShortWrite when p does not fit in the free whole bytes.
func (b *BitBuffer) Write(p []byte) (int, error) {
	n := len(p) - b.Feed(p, len(p))
	if n < len(p) {
		return n, io.ErrShortWrite
	}

	return n, nil
}

// Read fetches whole valid bytes into p. It implements io.Reader and returns
// io.EOF when no whole byte is valid.
func (b *BitBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := b.Fetch(p)
	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

// Fill reads from reader straight into the free region at the feed cursor
// until the ring has no whole free byte or reader fails. It returns the number
// of bytes added; io.EOF from reader is passed through.
func (b *BitBuffer) Fill(reader io.Reader) (int, error) {
	total := 0
	empty := 0

	for {
		free := b.freeBytes()
		if free == 0 {
			return total, nil
		}

		chunk := min(int(b.size-b.feedOff), free)

		n, err := reader.Read(b.buf[b.feedOff : b.feedOff+uint32(chunk)]) //nolint:gosec // chunk <= size
		if n > 0 {
			b.validBits += n << 3
			b.feedOff = (b.feedOff + uint32(n)) & (b.size - 1) //nolint:gosec // n <= chunk
			total += n
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, io.EOF
			}

			return total, fmt.Errorf("filling ring: %w", err)
		}

		if n > 0 {
			empty = 0
		} else if empty++; empty >= maxEmptyReads {
			return total, io.ErrNoProgress
		}
	}
}

// Drain writes every whole valid byte from the fetch cursor to writer, in at
// most two writes, and returns the number of bytes written.
func (b *BitBuffer) Drain(writer io.Writer) (int, error) {
	total := 0

	for remaining := b.wholeBytes(); remaining > 0; {
		chunk := min(int(b.size-b.fetchOff), remaining)

		n, err := writer.Write(b.buf[b.fetchOff : b.fetchOff+uint32(chunk)]) //nolint:gosec // chunk <= size

		b.validBits -= n << 3
		b.fetchOff = (b.fetchOff + uint32(n)) & (b.size - 1) //nolint:gosec // n <= chunk
		total += n
		remaining -= n

		if err != nil {
			return total, fmt.Errorf("draining ring: %w", err)
		}

		if n < chunk {
			return total, io.ErrShortWrite
		}
	}

	return total, nil
}
