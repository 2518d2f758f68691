package main

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/icza/bitio"

	"github.com/mycophonic/bitring"
)

func rings(t *testing.T, capacity int) (*bitring.BitBuffer, *bitring.BitBuffer) {
	t.Helper()

	source, err := newRing(capacity)
	if err != nil {
		t.Fatal(err)
	}

	sink, err := newRing(capacity)
	if err != nil {
		t.Fatal(err)
	}

	return source, sink
}

func testInput(size int) []byte {
	input := make([]byte, size)
	for i := range input {
		input[i] = byte(i*31 + 7)
	}

	return input
}

func TestPipeCopiesBytes(t *testing.T) {
	t.Parallel()

	input := testInput(1000)

	for _, capacity := range []int{1, 8, 64, 4096} {
		source, sink := rings(t, capacity)

		var out bytes.Buffer

		n, err := pipe(iotest.HalfReader(bytes.NewReader(input)), &out, source, sink, 0)
		if err != nil {
			t.Fatalf("capacity %d: pipe: %v", capacity, err)
		}

		if n != len(input) || !bytes.Equal(out.Bytes(), input) {
			t.Fatalf("capacity %d: piped %d bytes, content equal: %v", capacity, n, bytes.Equal(out.Bytes(), input))
		}
	}
}

func TestPipeSkipsBits(t *testing.T) {
	t.Parallel()

	input := testInput(300)

	for _, skip := range []int{3, 8, 13} {
		// The expected output is the input shifted left by skip bits, trailing partial byte dropped.
		reader := bitio.NewReader(bytes.NewReader(input))
		if _, err := reader.ReadBits(uint8(skip)); err != nil {
			t.Fatal(err)
		}

		want := make([]byte, (len(input)*8-skip)/8)
		for i := range want {
			b, err := reader.ReadByte()
			if err != nil {
				t.Fatal(err)
			}

			want[i] = b
		}

		source, sink := rings(t, 16)

		var out bytes.Buffer

		n, err := pipe(bytes.NewReader(input), &out, source, sink, skip)
		if err != nil {
			t.Fatalf("skip %d: pipe: %v", skip, err)
		}

		if n != len(want) || !bytes.Equal(out.Bytes(), want) {
			t.Fatalf("skip %d: got %d bytes, want %d; equal %v", skip, n, len(want), bytes.Equal(out.Bytes(), want))
		}
	}
}

func TestPipeErrors(t *testing.T) {
	t.Parallel()

	source, sink := rings(t, 4)

	if _, err := pipe(bytes.NewReader([]byte{1}), &bytes.Buffer{}, source, sink, 9); !errors.Is(err, errSkipTooLarge) {
		t.Fatalf("skip past data: %v", err)
	}

	boom := errors.New("boom")
	source, sink = rings(t, 4)

	if _, err := pipe(iotest.ErrReader(boom), &bytes.Buffer{}, source, sink, 0); !errors.Is(err, boom) {
		t.Fatalf("reader error: %v", err)
	}

	if _, err := newRing(3); err == nil {
		t.Fatal("newRing(3) succeeded")
	}
}
