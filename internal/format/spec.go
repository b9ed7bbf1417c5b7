// Package format renders raw integers as fixed-layout identifiers and parses
// them back. A layout is described by a Spec value; the UUID-shaped and
// card-number-shaped identifiers are both Specs over one Codec.
package format

import (
	"fmt"
	"sort"
	"strings"
)

// Checksum selects the trailing check discipline of a format.
type Checksum int

const (
	ChecksumNone Checksum = iota
	ChecksumLuhn
)

const (
	Separator = '-'

	// Template sentinels. None of them is a hex or decimal digit.
	Wildcard    = 'X'
	Constrained = 'V'
	CheckDigit  = 'C'
)

const (
	hexDigits     = "0123456789abcdef"
	decimalDigits = "0123456789"
)

// Fixed pins bits of the hex character at template position Pos:
// the character value c must satisfy c&Mask == Value.
type Fixed struct {
	Name  string
	Pos   int
	Mask  byte
	Value byte
}

// Spec declares an identifier layout.
type Spec struct {
	Name string
	// Radix is 16 (hex digits) or 10 (decimal digits).
	Radix int
	// Sections lists the character width of each separator-delimited group.
	// For Luhn formats the last group includes the check digit.
	Sections []int
	Fixed    []Fixed
	Checksum Checksum
	// Width is the number of index bits the format carries; BlockBits is the
	// right block width of the permutation over those bits.
	Width     int
	BlockBits int
	// RFC4122 marks hex layouts that must also parse as version 4 RFC 4122 UUIDs.
	RFC4122 bool
	Summary string
}

// Length returns the identifier length including separators.
func (s Spec) Length() int {
	n := len(s.Sections) - 1
	for _, w := range s.Sections {
		n += w
	}
	return n
}

var (
	// UUID is a version 4, RFC 4122 variant UUID carrying 122 index bits.
	UUID = Spec{
		Name:     "uuid",
		Radix:    16,
		Sections: []int{8, 4, 4, 4, 12},
		Fixed: []Fixed{
			{Name: "version", Pos: 14, Mask: 0xf, Value: 0x4},
			{Name: "variant", Pos: 19, Mask: 0xc, Value: 0x8},
		},
		Width:     122,
		BlockBits: 61,
		RFC4122:   true,
		Summary:   "v4 UUID, 122 bits, 61/61 split",
	}

	// UUIDWide is UUID with an unbalanced 58/64 block split.
	UUIDWide = Spec{
		Name:      "uuid-wide",
		Radix:     16,
		Sections:  UUID.Sections,
		Fixed:     UUID.Fixed,
		Width:     122,
		BlockBits: 64,
		RFC4122:   true,
		Summary:   "v4 UUID, 122 bits, 58/64 split",
	}

	// Hex128 uses every bit of a UUID-shaped string.
	Hex128 = Spec{
		Name:      "hex128",
		Radix:     16,
		Sections:  []int{8, 4, 4, 4, 12},
		Width:     128,
		BlockBits: 64,
		Summary:   "UUID-shaped hex, 128 bits, no version or variant",
	}

	// Card is a 16 digit card number: 15 payload digits and a Luhn check digit.
	// 2^49 is the largest power of two below 10^15.
	Card = Spec{
		Name:      "card",
		Radix:     10,
		Sections:  []int{4, 4, 4, 4},
		Checksum:  ChecksumLuhn,
		Width:     49,
		BlockBits: 25,
		Summary:   "16 digit card number with Luhn check digit, 49 bits",
	}
)

// DefaultName is the format used when none is configured.
const DefaultName = "uuid"

var registry = map[string]Spec{
	UUID.Name:     UUID,
	UUIDWide.Name: UUIDWide,
	Hex128.Name:   Hex128,
	Card.Name:     Card,
}

// Lookup returns the built-in spec with the given name.
func Lookup(name string) (Spec, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Spec{}, fmt.Errorf("unknown format %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names lists the built-in format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
