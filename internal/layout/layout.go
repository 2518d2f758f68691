// Package layout extracts named bit fields described by a YAML document.
//
// Fields are read forward from the start of the data; trailer fields are read
// backward from the end of the data, the way side information is parsed from
// the tail of a frame.
//
//	capacity: 4096
//	fields:
//	  - {name: sync, bits: 11}
//	  - {name: version, bits: 2}
//	  - {bits: 3, skip: true}
//	trailer:
//	  - {name: crc, bits: 16}
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/mycophonic/bitring"
)

var (
	ErrInvalid  = errors.New("layout: invalid")
	ErrTooLarge = errors.New("layout: fields exceed data")
)

// Field is one bit field.
type Field struct {
	Name string `yaml:"name"`
	Bits uint32 `yaml:"bits"`
	Skip bool   `yaml:"skip"`
}

// Layout is a list of forward fields and a list of backward trailer fields.
type Layout struct {
	// Capacity is the ring size in bytes used by Extract; 0 sizes the ring to the data.
	Capacity int     `yaml:"capacity"`
	Fields   []Field `yaml:"fields"`
	Trailer  []Field `yaml:"trailer"`
}

// Value is an extracted field.
type Value struct {
	Name     string
	Bits     uint32
	Value    uint32
	Backward bool
}

// Load reads and validates a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified layout files
	if err != nil {
		return nil, fmt.Errorf("reading layout %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML layout.
func Parse(data []byte) (*Layout, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var layout Layout
	if err := decoder.Decode(&layout); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}

	return &layout, nil
}

// Validate reports every problem in the layout at once.
func (l *Layout) Validate() error {
	var result *multierror.Error

	if l.Capacity != 0 {
		if _, err := bitring.Alloc(l.Capacity); err != nil {
			result = multierror.Append(result, fmt.Errorf("capacity: %w", err))
		}
	}

	if len(l.Fields) == 0 && len(l.Trailer) == 0 {
		result = multierror.Append(result, errors.New("no fields"))
	}

	seen := map[string]bool{}

	check := func(section string, fields []Field) {
		for i, f := range fields {
			if f.Bits < 1 || f.Bits > 32 {
				result = multierror.Append(result, fmt.Errorf("%s[%d]: bits %d not in [1, 32]", section, i, f.Bits))
			}

			if f.Skip {
				continue
			}

			switch {
			case f.Name == "":
				result = multierror.Append(result, fmt.Errorf("%s[%d]: missing name", section, i))
			case seen[f.Name]:
				result = multierror.Append(result, fmt.Errorf("%s[%d]: duplicate name %q", section, i, f.Name))
			}

			seen[f.Name] = true
		}
	}

	check("fields", l.Fields)
	check("trailer", l.Trailer)

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

// Bits returns the total number of bits the layout reads.
func (l *Layout) Bits() int {
	total := 0
	for _, f := range l.Fields {
		total += int(f.Bits)
	}

	for _, f := range l.Trailer {
		total += int(f.Bits)
	}

	return total
}

// Extract reads the layout from data. Skipped fields are not returned.
func (l *Layout) Extract(data []byte) ([]Value, error) {
	if l.Bits() > len(data)*8 {
		return nil, fmt.Errorf("%w: %d bits needed, %d available", ErrTooLarge, l.Bits(), len(data)*8)
	}

	ring, err := l.ring(data)
	if err != nil {
		return nil, err
	}

	values := make([]Value, 0, len(l.Fields)+len(l.Trailer))

	for _, f := range l.Fields {
		v := ring.ReadForward(f.Bits)
		if !f.Skip {
			values = append(values, Value{Name: f.Name, Bits: f.Bits, Value: v})
		}
	}

	if len(l.Trailer) == 0 {
		return values, nil
	}

	// Jump to the end of the data; backward reads give the bits back.
	ring.PushForward(uint32(ring.ValidBits()), bitring.Reading) //nolint:gosec // checked against data size

	for _, f := range l.Trailer {
		v := ring.ReadBackward(f.Bits)
		if !f.Skip {
			values = append(values, Value{Name: f.Name, Bits: f.Bits, Value: v, Backward: true})
		}
	}

	return values, nil
}

func (l *Layout) ring(data []byte) (*bitring.BitBuffer, error) {
	if l.Capacity == 0 {
		return bitring.Load(data)
	}

	if len(data) > l.Capacity {
		return nil, fmt.Errorf("%w: %d bytes of data, capacity %d", ErrTooLarge, len(data), l.Capacity)
	}

	storage, err := bitring.Alloc(l.Capacity)
	if err != nil {
		return nil, err
	}

	ring, err := bitring.New(storage)
	if err != nil {
		return nil, err
	}

	if _, err := ring.Write(data); err != nil {
		return nil, fmt.Errorf("loading data: %w", err)
	}

	return ring, nil
}
