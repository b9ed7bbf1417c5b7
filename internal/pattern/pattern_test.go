package pattern

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/bunchhieng/uuidspace/internal/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offsets(ps []Placement) []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.Offset
	}
	return out
}

func TestClean(t *testing.T) {
	assert.Equal(t, "abc-12", Clean("ABC-xyz 12", "0123456789abcdef"))
	assert.Equal(t, "4111-11", Clean("4111 - 11ab", "0123456789"))
	assert.Equal(t, "", Clean("zzz", "0123456789abcdef"))
}

func TestPlacementsCompleteForShortFragment(t *testing.T) {
	c := format.MustCodec(format.UUID)
	e := NewEnumerator(c)
	tmpl := c.Template()

	var want []int
	for o := 0; o+1 < len(tmpl); o++ {
		if tmpl[o] == format.Wildcard && tmpl[o+1] == format.Wildcard {
			want = append(want, o)
		}
	}
	got := offsets(e.Placements("12"))
	assert.Equal(t, want, got)
	assert.Len(t, got, 25)
}

func TestPlacementsRespectFixedCharacters(t *testing.T) {
	e := NewEnumerator(format.MustCodec(format.UUID))

	assert.Equal(t, []int{8, 13, 23}, offsets(e.Placements("-4")))
	assert.Equal(t, []int{8, 23}, offsets(e.Placements("-5")))
	assert.Equal(t, []int{8, 18, 23}, offsets(e.Placements("-8")))
	assert.Equal(t, []int{24, 25, 26, 27}, offsets(e.Placements("123456789")))
	assert.Empty(t, e.Placements("1234567890123"))
	assert.Empty(t, e.Placements(""))
	assert.Empty(t, e.Placements(strings.Repeat("0", 40)))
}

func TestPlacementSoundness(t *testing.T) {
	for _, spec := range []format.Spec{format.UUID, format.Hex128, format.Card} {
		c := format.MustCodec(spec)
		e := NewEnumerator(c)
		g := NewGenerator(c, rand.New(rand.NewPCG(7, 7)))

		for _, frag := range []string{"12", "0-1", "4", "9", "-", "00-0", "1234"} {
			for _, p := range e.Placements(frag) {
				assert.Equal(t, frag, p.Template[p.Offset:p.Offset+len(frag)], "%s at %d", frag, p.Offset)
				assert.Len(t, p.Template, c.Length())

				cand := g.Candidate(p)
				assert.Equal(t, frag, cand[p.Offset:p.Offset+len(frag)])
				for pos := 0; pos < len(cand); pos++ {
					assert.Contains(t, c.Allowed(pos), string(cand[pos]), "%s: %s position %d", spec.Name, cand, pos)
				}
				if spec.Checksum == format.ChecksumLuhn {
					assert.True(t, format.LuhnValid(strings.ReplaceAll(cand, "-", "")), cand)
				} else {
					_, err := c.Decode(cand)
					assert.NoError(t, err, cand)
				}
			}
		}
	}
}

func TestFullFragment(t *testing.T) {
	c := format.MustCodec(format.UUID)
	e := NewEnumerator(c)

	ps := e.Placements("497dcba3-ecbf-4587-a2dd-5eb0665e6880")
	require.Len(t, ps, 1)
	assert.Equal(t, 0, ps[0].Offset)
	assert.True(t, Complete(ps[0].Template))

	assert.Empty(t, e.Placements("497dcba3-ecbf-4587-c2dd-5eb0665e6880"))

	card := NewEnumerator(format.MustCodec(format.Card))
	assert.Len(t, card.Placements("1909-9650-4396-9140"), 1)
	assert.Empty(t, card.Placements("1909-9650-4396-9141"))
}

func TestCandidateSolvesPinnedCheckDigit(t *testing.T) {
	c := format.MustCodec(format.Card)
	e := NewEnumerator(c)
	g := NewGenerator(c, rand.New(rand.NewPCG(3, 4)))

	p, ok := e.At("7", 18)
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		cand := g.Candidate(p)
		assert.Equal(t, byte('7'), cand[18])
		assert.True(t, format.LuhnValid(strings.ReplaceAll(cand, "-", "")), cand)
	}

	p, ok = e.At("12-345", 7)
	require.True(t, ok)
	cand := g.Candidate(p)
	assert.Equal(t, "12-345", cand[7:13])
	assert.True(t, format.LuhnValid(strings.ReplaceAll(cand, "-", "")), cand)
}

func TestAtRejectsOutOfBounds(t *testing.T) {
	e := NewEnumerator(format.MustCodec(format.UUID))
	_, ok := e.At("12", -1)
	assert.False(t, ok)
	_, ok = e.At("12", 35)
	assert.False(t, ok)
	_, ok = e.At("12", 8)
	assert.False(t, ok)
}

func TestGeneratorIsDeterministicForSeed(t *testing.T) {
	c := format.MustCodec(format.UUID)
	p := NewEnumerator(c).Placements("abc")[0]

	a := NewGenerator(c, rand.New(rand.NewPCG(1, 1))).Candidate(p)
	b := NewGenerator(c, rand.New(rand.NewPCG(1, 1))).Candidate(p)
	assert.Equal(t, a, b)
}

func TestFillKeepsBase(t *testing.T) {
	c := format.MustCodec(format.Card)
	e := NewEnumerator(c)
	g := NewGenerator(c, rand.New(rand.NewPCG(5, 5)))
	base := "1909-9650-4396-9140"

	p, ok := e.At("77", 5)
	require.True(t, ok)
	got := g.Fill(p, base)
	assert.Equal(t, "1909-7750-4396-914", got[:len(got)-1])
	assert.True(t, format.LuhnValid(strings.ReplaceAll(got, "-", "")), got)

	u := format.MustCodec(format.UUID)
	ue := NewEnumerator(u)
	up, ok := ue.At("abc", 0)
	require.True(t, ok)
	ug := NewGenerator(u, rand.New(rand.NewPCG(5, 5)))
	assert.Equal(t, "abcdcba3-ecbf-4587-a2dd-5eb0665e6880", ug.Fill(up, "497dcba3-ecbf-4587-a2dd-5eb0665e6880"))
}
