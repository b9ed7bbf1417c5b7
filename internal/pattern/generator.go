package pattern

import (
	"math/rand/v2"
	"strings"

	"github.com/bunchhieng/uuidspace/internal/format"
)

// Generator fills placements with legal characters.
type Generator struct {
	layout   Layout
	rng      *rand.Rand
	checkPos int
}

// NewGenerator returns a generator drawing from rng.
func NewGenerator(layout Layout, rng *rand.Rand) *Generator {
	g := &Generator{layout: layout, rng: rng, checkPos: -1}
	for pos := range layout.Template() {
		if layout.IsCheckDigit(pos) {
			g.checkPos = pos
		}
	}
	return g
}

// Candidate returns one well-formed identifier matching p, every open
// position drawn uniformly from its legal characters.
func (g *Generator) Candidate(p Placement) string {
	return g.fill(p, "")
}

// Fill is Candidate with open positions copied from base, an identifier of
// the same format. Only the check digit is recomputed.
func (g *Generator) Fill(p Placement, base string) string {
	if len(base) != len(p.Template) {
		base = ""
	}
	return g.fill(p, base)
}

// For check digit formats the payload is settled first and the check digit
// derived from it. When the fragment pins the check digit, one payload
// wildcard is re-solved so the checksum agrees.
func (g *Generator) fill(p Placement, base string) string {
	b := []byte(p.Template)
	var wild []int
	for pos, ch := range b {
		if ch == format.Wildcard {
			wild = append(wild, pos)
		}
		if ch != format.Wildcard && ch != format.Constrained {
			continue
		}
		if base != "" {
			b[pos] = base[pos]
			continue
		}
		allowed := g.layout.Allowed(pos)
		b[pos] = allowed[g.rng.IntN(len(allowed))]
	}
	if g.checkPos < 0 {
		return string(b)
	}

	if b[g.checkPos] == format.CheckDigit {
		b[g.checkPos] = format.Luhn(payload(b, g.checkPos))
		return string(b)
	}
	if format.Luhn(payload(b, g.checkPos)) == b[g.checkPos] || len(wild) == 0 {
		return string(b)
	}
	w := wild[g.rng.IntN(len(wild))]
	for d := byte('0'); d <= '9'; d++ {
		b[w] = d
		if format.Luhn(payload(b, g.checkPos)) == b[g.checkPos] {
			break
		}
	}
	return string(b)
}

func payload(b []byte, checkPos int) string {
	var sb strings.Builder
	for pos, ch := range b {
		if pos == checkPos || ch == format.Separator {
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}
