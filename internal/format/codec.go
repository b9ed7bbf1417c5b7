package format

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"slices"
	"strings"

	"github.com/bunchhieng/uuidspace/internal/model"
	"github.com/google/uuid"
)

type slotKind int

const (
	slotSeparator slotKind = iota
	slotFree
	slotFixed
	slotCheck
)

type slot struct {
	kind     slotKind
	mask     byte
	value    byte
	freeBits int
	name     string
}

// Codec encodes raw integers of a Spec's Width into identifiers and back.
// It holds no mutable state.
type Codec struct {
	spec     Spec
	slots    []slot
	template string
	alphabet string
	payload  int // digits carrying index data, decimal formats only
	size     *big.Int
	// canonical is set for 8-4-4-4-12 hex layouts, which round-trip
	// through the 16 bytes of a uuid.UUID.
	canonical bool
}

// NewCodec validates spec and builds its codec.
func NewCodec(spec Spec) (*Codec, error) {
	if len(spec.Sections) == 0 {
		return nil, errors.New("format needs at least one section")
	}
	c := &Codec{
		spec: spec,
		size: new(big.Int).Lsh(big.NewInt(1), uint(spec.Width)),
	}
	switch spec.Radix {
	case 16:
		c.alphabet = hexDigits
	case 10:
		c.alphabet = decimalDigits
	default:
		return nil, fmt.Errorf("unsupported radix %d", spec.Radix)
	}
	if spec.Checksum == ChecksumLuhn && spec.Radix != 10 {
		return nil, errors.New("luhn checksum needs a decimal format")
	}
	if spec.Radix == 10 && len(spec.Fixed) > 0 {
		return nil, errors.New("fixed characters are only supported in hex formats")
	}

	c.slots = make([]slot, 0, spec.Length())
	for i, w := range spec.Sections {
		if w <= 0 {
			return nil, fmt.Errorf("section %d has width %d", i, w)
		}
		if i > 0 {
			c.slots = append(c.slots, slot{kind: slotSeparator})
		}
		for j := 0; j < w; j++ {
			c.slots = append(c.slots, slot{kind: slotFree, freeBits: 4})
		}
	}
	if spec.Checksum == ChecksumLuhn {
		c.slots[len(c.slots)-1] = slot{kind: slotCheck}
	}

	for _, f := range spec.Fixed {
		if f.Pos < 0 || f.Pos >= len(c.slots) || c.slots[f.Pos].kind != slotFree {
			return nil, fmt.Errorf("fixed %s at position %d is not a digit position", f.Name, f.Pos)
		}
		if f.Mask == 0 || f.Mask&^0xf != 0 || f.Value&^f.Mask != 0 {
			return nil, fmt.Errorf("fixed %s has invalid mask %#x / value %#x", f.Name, f.Mask, f.Value)
		}
		c.slots[f.Pos] = slot{
			kind:     slotFixed,
			mask:     f.Mask,
			value:    f.Value,
			freeBits: 4 - bits.OnesCount8(f.Mask),
			name:     f.Name,
		}
	}

	switch spec.Radix {
	case 16:
		total := 0
		for _, s := range c.slots {
			total += s.freeBits
		}
		if total != spec.Width {
			return nil, fmt.Errorf("layout carries %d bits, width is %d", total, spec.Width)
		}
	case 10:
		for _, s := range c.slots {
			if s.kind == slotFree {
				c.payload++
			}
		}
		limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.payload)), nil)
		if c.size.Cmp(limit) > 0 {
			return nil, fmt.Errorf("2^%d does not fit in %d decimal digits", spec.Width, c.payload)
		}
	}

	var b strings.Builder
	for _, s := range c.slots {
		switch s.kind {
		case slotSeparator:
			b.WriteByte(Separator)
		case slotFree:
			b.WriteByte(Wildcard)
		case slotCheck:
			b.WriteByte(CheckDigit)
		case slotFixed:
			if s.freeBits == 0 {
				b.WriteByte(hexDigits[s.value])
			} else {
				b.WriteByte(Constrained)
			}
		}
	}
	c.template = b.String()
	c.canonical = spec.Radix == 16 && slices.Equal(spec.Sections, canonicalSections)
	return c, nil
}

var canonicalSections = []int{8, 4, 4, 4, 12}


// MustCodec is NewCodec for the built-in specs.
func MustCodec(spec Spec) *Codec {
	c, err := NewCodec(spec)
	if err != nil {
		panic(fmt.Sprintf("format %s: %v", spec.Name, err))
	}
	return c
}

// Spec returns the layout the codec was built from.
func (c *Codec) Spec() Spec { return c.spec }

// Name returns the format name.
func (c *Codec) Name() string { return c.spec.Name }

// Radix returns 16 or 10.
func (c *Codec) Radix() int { return c.spec.Radix }

// Alphabet returns the digit characters of the format.
func (c *Codec) Alphabet() string { return c.alphabet }

// Length returns the identifier length including separators.
func (c *Codec) Length() int { return len(c.slots) }

// Size returns 2^Width. The caller must not modify the result.
func (c *Codec) Size() *big.Int { return c.size }

// Template returns the canonical template: Wildcard for free characters,
// Constrained for partially fixed ones, the literal for fully fixed ones,
// CheckDigit for a Luhn digit and Separator between sections.
func (c *Codec) Template() string { return c.template }

// IsCheckDigit reports whether pos holds the derived check digit.
func (c *Codec) IsCheckDigit(pos int) bool {
	return pos >= 0 && pos < len(c.slots) && c.slots[pos].kind == slotCheck
}

// Allowed returns the characters legal at template position pos.
func (c *Codec) Allowed(pos int) string {
	if pos < 0 || pos >= len(c.slots) {
		return ""
	}
	s := c.slots[pos]
	switch s.kind {
	case slotSeparator:
		return string(Separator)
	case slotFixed:
		var b strings.Builder
		for v := 0; v < 16; v++ {
			if byte(v)&s.mask == s.value {
				b.WriteByte(hexDigits[v])
			}
		}
		return b.String()
	default:
		return c.alphabet
	}
}

// Encode renders raw, which must lie in [0, 2^Width).
func (c *Codec) Encode(raw *big.Int) (string, error) {
	if raw.Sign() < 0 || raw.Cmp(c.size) >= 0 {
		return "", &model.RangeError{Index: new(big.Int).Set(raw), Size: c.size}
	}
	if c.spec.Radix == 10 {
		return c.encodeDecimal(raw), nil
	}
	return c.encodeHex(raw), nil
}

func (c *Codec) encodeHex(raw *big.Int) string {
	nibbles := make([]byte, 0, len(c.slots))
	off := 0
	// The last character holds the least significant bits.
	for i := len(c.slots) - 1; i >= 0; i-- {
		s := c.slots[i]
		if s.kind == slotSeparator {
			continue
		}
		var v byte
		free := ^s.mask & 0xf
		for b := 0; b < 4; b++ {
			if free&(1<<b) == 0 {
				continue
			}
			v |= byte(raw.Bit(off)) << b
			off++
		}
		nibbles = append(nibbles, v|s.value)
	}
	slices.Reverse(nibbles)

	if c.canonical {
		var u uuid.UUID
		for k, v := range nibbles {
			u[k/2] |= v << (4 * (1 - k%2))
		}
		return u.String()
	}
	out := make([]byte, len(c.slots))
	k := 0
	for i, s := range c.slots {
		if s.kind == slotSeparator {
			out[i] = Separator
			continue
		}
		out[i] = hexDigits[nibbles[k]]
		k++
	}
	return string(out)
}

func (c *Codec) encodeDecimal(raw *big.Int) string {
	digits := raw.Text(10)
	digits = strings.Repeat("0", c.payload-len(digits)) + digits
	out := make([]byte, 0, len(c.slots))
	d := 0
	for _, s := range c.slots {
		switch s.kind {
		case slotSeparator:
			out = append(out, Separator)
		case slotCheck:
			out = append(out, Luhn(digits))
		default:
			out = append(out, digits[d])
			d++
		}
	}
	return string(out)
}

// Decode parses an identifier back to its raw integer. Every structural
// check is re-run; a violation yields a *model.FormatError.
func (c *Codec) Decode(s string) (*big.Int, error) {
	if len(s) != len(c.slots) {
		return nil, &model.FormatError{Input: s, Reason: fmt.Sprintf("length %d, want %d", len(s), len(c.slots))}
	}
	if c.spec.Radix == 16 {
		s = strings.ToLower(s)
	}
	for i := 0; i < len(s) && !c.canonical; i++ {
		ch := s[i]
		isSep := c.slots[i].kind == slotSeparator
		if isSep != (ch == Separator) {
			return nil, &model.FormatError{Input: s, Reason: fmt.Sprintf("separator mismatch at position %d", i)}
		}
		if !isSep && strings.IndexByte(c.alphabet, ch) < 0 {
			return nil, &model.FormatError{Input: s, Reason: fmt.Sprintf("character %q at position %d is not a digit", ch, i)}
		}
	}

	var raw *big.Int
	var err error
	if c.spec.Radix == 10 {
		raw, err = c.decodeDecimal(s)
	} else {
		raw, err = c.decodeHex(s)
	}
	if err != nil {
		return nil, err
	}
	if raw.Cmp(c.size) >= 0 {
		return nil, &model.FormatError{Input: s, Reason: fmt.Sprintf("value exceeds 2^%d", c.spec.Width)}
	}
	return raw, nil
}

func (c *Codec) decodeHex(s string) (*big.Int, error) {
	nibbles, err := c.hexNibbles(s)
	if err != nil {
		return nil, err
	}
	raw := new(big.Int)
	k := 0
	for i, sl := range c.slots {
		if sl.kind == slotSeparator {
			continue
		}
		v := nibbles[k]
		k++
		if v&sl.mask != sl.value {
			return nil, &model.FormatError{
				Input:  s,
				Reason: fmt.Sprintf("%s character %q at position %d, want one of %q", sl.name, s[i], i, c.Allowed(i)),
			}
		}
		free := ^sl.mask & 0xf
		for b := 3; b >= 0; b-- {
			if free&(1<<b) == 0 {
				continue
			}
			raw.Lsh(raw, 1)
			if v&(1<<b) != 0 {
				raw.SetBit(raw, 0, 1)
			}
		}
	}
	return raw, nil
}

// hexNibbles returns the digit values of s in order, separators dropped.
// Canonical layouts are parsed by uuid.Parse, which also checks the
// separators and alphabet.
func (c *Codec) hexNibbles(s string) ([]byte, error) {
	if !c.canonical {
		nibbles := make([]byte, 0, len(s))
		for i, sl := range c.slots {
			if sl.kind != slotSeparator {
				nibbles = append(nibbles, byte(strings.IndexByte(hexDigits, s[i])))
			}
		}
		return nibbles, nil
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return nil, &model.FormatError{Input: s, Reason: err.Error()}
	}
	if c.spec.RFC4122 {
		if u.Version() != 4 {
			return nil, &model.FormatError{Input: s, Reason: fmt.Sprintf("uuid version %d, want 4", u.Version())}
		}
		if u.Variant() != uuid.RFC4122 {
			return nil, &model.FormatError{Input: s, Reason: fmt.Sprintf("uuid variant %s, want RFC4122", u.Variant())}
		}
	}
	nibbles := make([]byte, 2*len(u))
	for k := range nibbles {
		shift := 4 * (1 - k%2)
		nibbles[k] = u[k/2] >> shift & 0xf
	}
	return nibbles, nil
}

func (c *Codec) decodeDecimal(s string) (*big.Int, error) {
	digits := strings.ReplaceAll(s, string(Separator), "")
	if c.spec.Checksum == ChecksumLuhn && !LuhnValid(digits) {
		return nil, &model.FormatError{Input: s, Reason: "bad check digit"}
	}

	payload := digits[:c.payload]
	raw := new(big.Int)
	ten := big.NewInt(10)
	start := 0
	for i, w := range c.spec.Sections {
		if c.spec.Checksum == ChecksumLuhn && i == len(c.spec.Sections)-1 {
			w--
		}
		section, ok := new(big.Int).SetString(payload[start:start+w], 10)
		limit := new(big.Int).Exp(ten, big.NewInt(int64(w)), nil)
		if !ok || section.Cmp(limit) >= 0 {
			return nil, &model.FormatError{Input: s, Reason: fmt.Sprintf("section %d out of range", i)}
		}
		raw.Mul(raw, limit)
		raw.Add(raw, section)
		start += w
	}
	return raw, nil
}
