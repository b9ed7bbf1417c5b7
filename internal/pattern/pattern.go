// Package pattern places partial identifier fragments inside a format's
// template and fills the remaining positions with random legal characters.
package pattern

import (
	"math/big"
	"strings"

	"github.com/bunchhieng/uuidspace/internal/format"
)

// Layout is the part of a format codec the enumerator and generator need.
type Layout interface {
	Template() string
	Alphabet() string
	Allowed(pos int) string
	IsCheckDigit(pos int) bool
	Decode(s string) (*big.Int, error)
}

// Placement is a fragment embedded in the template at Offset. Template holds
// the fragment's characters at [Offset, Offset+len(fragment)) and template
// sentinels everywhere it does not reach.
type Placement struct {
	Template string
	Offset   int
}

// Clean lower-cases query and drops everything that is neither a character
// of alphabet nor a separator.
func Clean(query, alphabet string) string {
	query = strings.ToLower(query)
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch == format.Separator || strings.IndexByte(alphabet, ch) >= 0 {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// Overlay writes fragment over s starting at offset. The caller guarantees
// the fragment fits.
func Overlay(s, fragment string, offset int) string {
	return s[:offset] + fragment + s[offset+len(fragment):]
}

func isSentinel(ch byte) bool {
	return ch == format.Wildcard || ch == format.Constrained || ch == format.CheckDigit
}

// Complete reports whether t has no sentinel left, i.e. is a full identifier.
func Complete(t string) bool {
	for i := 0; i < len(t); i++ {
		if isSentinel(t[i]) {
			return false
		}
	}
	return true
}

// Enumerator lists every placement of a fragment in a layout's template.
type Enumerator struct {
	layout   Layout
	template string
	sections []int
}

// NewEnumerator builds an enumerator for layout.
func NewEnumerator(layout Layout) *Enumerator {
	tmpl := layout.Template()
	return &Enumerator{
		layout:   layout,
		template: tmpl,
		sections: sectionLengths(tmpl),
	}
}

// Placements returns every valid placement of fragment, in offset order.
// An empty result means the fragment cannot appear in any identifier.
func (e *Enumerator) Placements(fragment string) []Placement {
	if fragment == "" || len(fragment) > len(e.template) {
		return nil
	}
	var out []Placement
	for offset := 0; offset <= len(e.template)-len(fragment); offset++ {
		if p, ok := e.At(fragment, offset); ok {
			out = append(out, p)
		}
	}
	return out
}

// At returns the placement of fragment at offset, if it is valid.
func (e *Enumerator) At(fragment string, offset int) (Placement, bool) {
	if fragment == "" || offset < 0 || offset+len(fragment) > len(e.template) {
		return Placement{}, false
	}
	for k := 0; k < len(fragment); k++ {
		pos := offset + k
		ch := fragment[k]
		if (ch == format.Separator) != (e.template[pos] == format.Separator) {
			return Placement{}, false
		}
		if strings.IndexByte(e.layout.Allowed(pos), ch) < 0 {
			return Placement{}, false
		}
	}

	t := Overlay(e.template, fragment, offset)
	if !equalInts(sectionLengths(t), e.sections) {
		return Placement{}, false
	}
	// A fragment covering every position must already be an identifier,
	// check digit included.
	if Complete(t) {
		if _, err := e.layout.Decode(t); err != nil {
			return Placement{}, false
		}
	}
	return Placement{Template: t, Offset: offset}, true
}

func sectionLengths(s string) []int {
	parts := strings.Split(s, string(format.Separator))
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = len(p)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
