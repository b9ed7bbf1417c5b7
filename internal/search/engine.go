// Package search finds identifiers containing a fragment near a reference
// ordinal and keeps an undo history of where it has been.
//
// An Engine is not safe for concurrent use; one caller drives it.
package search

import (
	"fmt"
	"math/big"
	"math/rand/v2"
	"strings"

	"github.com/bunchhieng/uuidspace/internal/format"
	"github.com/bunchhieng/uuidspace/internal/log"
	"github.com/bunchhieng/uuidspace/internal/model"
	"github.com/bunchhieng/uuidspace/internal/pattern"
	"github.com/rs/zerolog"
)

// Space is the bijection the engine searches.
type Space interface {
	IndexToIdentifier(i *big.Int) (string, error)
	IdentifierToIndex(s string) (*big.Int, error)
	Size() *big.Int
	Codec() *format.Codec
}

// Source says where a result came from.
type Source int

const (
	SourceHistory Source = iota
	SourceNarrowed
	SourceWindow
	SourceNeighbour
	SourceRandom
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceHistory:
		return "history"
	case SourceNarrowed:
		return "narrowed"
	case SourceWindow:
		return "window"
	case SourceNeighbour:
		return "neighbour"
	case SourceRandom:
		return "random"
	case SourceFallback:
		return "fallback"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// View is the caller's snapshot for one call: the ordinal it is looking at
// and the entries it already has on screen.
type View struct {
	Reference *big.Int
	Visible   []model.Entry
}

// Result is the outcome of a successful call. Exhausted marks the soft
// failure where no candidate satisfied the requested direction and an
// arbitrary matching identifier was returned instead. When no sampled
// candidate is usable at all, the call returns model.ErrSearchExhausted
// instead, so callers must handle both.
type Result struct {
	Entry     model.Entry
	Source    Source
	Exhausted bool
}

// Options bounds the search.
type Options struct {
	LookAhead int
	LookBack  int
	Attempts  int
	Rand      *rand.Rand
	Logger    *zerolog.Logger
}

const (
	DefaultLookAhead = 32
	DefaultLookBack  = 32
	DefaultAttempts  = 100
)

type direction int

const (
	anyDirection direction = iota
	forward
	backward
)

type state struct {
	entry     model.Entry
	placement pattern.Placement
}

// Engine is the stateful search/navigation engine.
type Engine struct {
	space     Space
	enum      *pattern.Enumerator
	gen       *pattern.Generator
	alphabet  string
	lookAhead int
	lookBack  int
	attempts  int
	rng       *rand.Rand
	logger    zerolog.Logger

	fragment string
	history  []state // top is the current state; empty while idle
}

// New returns an idle engine over sp.
func New(sp Space, opts Options) *Engine {
	if opts.LookAhead <= 0 {
		opts.LookAhead = DefaultLookAhead
	}
	if opts.LookBack <= 0 {
		opts.LookBack = DefaultLookBack
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	codec := sp.Codec()
	return &Engine{
		space:     sp,
		enum:      pattern.NewEnumerator(codec),
		gen:       pattern.NewGenerator(codec, opts.Rand),
		alphabet:  codec.Alphabet(),
		lookAhead: opts.LookAhead,
		lookBack:  opts.LookBack,
		attempts:  opts.Attempts,
		rng:       opts.Rand,
		logger:    logger.With().Str(log.FieldComponent, "search").Str(log.FieldFormat, codec.Name()).Logger(),
	}
}

// Active reports whether a fragment is set.
func (e *Engine) Active() bool { return len(e.history) > 0 }

// Fragment returns the cleaned active fragment, or "" while idle.
func (e *Engine) Fragment() string { return e.fragment }

// Current returns the current entry.
func (e *Engine) Current() (model.Entry, bool) {
	if !e.Active() {
		return model.Entry{}, false
	}
	return e.top().entry, true
}

// History returns the visited entries, oldest first; the last is current.
func (e *Engine) History() []model.Entry {
	out := make([]model.Entry, len(e.history))
	for i, s := range e.history {
		out[i] = s.entry
	}
	return out
}

// Reset returns the engine to idle.
func (e *Engine) Reset() {
	e.fragment = ""
	e.history = nil
}

func (e *Engine) top() state { return e.history[len(e.history)-1] }

// Search sets a new fragment and jumps to an identifier containing it,
// as close to view.Reference as the bounded search finds. History restarts
// at the result. An empty or unplaceable fragment returns
// model.ErrUnsatisfiableFragment and leaves the engine unchanged.
func (e *Engine) Search(query string, view View) (Result, error) {
	frag := pattern.Clean(query, e.alphabet)
	if frag == "" {
		return Result{}, model.ErrUnsatisfiableFragment
	}

	if e.Active() {
		if st, ok := e.narrow(frag); ok {
			e.fragment = frag
			e.history = []state{st}
			e.logResult(frag, Result{Entry: st.entry, Source: SourceNarrowed}, 0)
			return Result{Entry: st.entry, Source: SourceNarrowed}, nil
		}
	}

	placements := e.enum.Placements(frag)
	if len(placements) == 0 {
		return Result{}, model.ErrUnsatisfiableFragment
	}

	ref := e.clamp(view.Reference)
	st, res, err := e.find(frag, placements, nil, ref, anyDirection, view, nil)
	if err != nil {
		return Result{}, err
	}
	e.fragment = frag
	e.history = []state{st}
	return res, nil
}

// Next moves to an identifier containing the fragment whose index is greater
// than the current one, skipping identifiers already in history.
func (e *Engine) Next(view View) (Result, error) {
	if !e.Active() {
		return Result{}, model.ErrNoActiveSearch
	}
	cur := e.top()
	st, res, err := e.find(e.fragment, e.enum.Placements(e.fragment), &cur.placement, cur.entry.Index, forward, view, e.visited())
	if err != nil {
		return Result{}, err
	}
	e.history = append(e.history, st)
	return res, nil
}

// Previous undoes the last Next. Once history holds only the current entry
// it searches for an identifier with a smaller index instead, which then
// becomes the whole history.
func (e *Engine) Previous(view View) (Result, error) {
	if !e.Active() {
		return Result{}, model.ErrNoActiveSearch
	}
	if len(e.history) > 1 {
		e.history = e.history[:len(e.history)-1]
		res := Result{Entry: e.top().entry, Source: SourceHistory}
		e.logResult(e.fragment, res, 0)
		return res, nil
	}
	cur := e.top()
	st, res, err := e.find(e.fragment, e.enum.Placements(e.fragment), &cur.placement, cur.entry.Index, backward, view, e.visited())
	if err != nil {
		return Result{}, err
	}
	e.history = []state{st}
	return res, nil
}

// narrow reuses the current identifier when frag extends or trims the
// active fragment at either end, keeping the previous offset.
func (e *Engine) narrow(frag string) (state, bool) {
	old := e.fragment
	cur := e.top()
	offset := cur.placement.Offset
	switch {
	case strings.HasPrefix(frag, old):
	case strings.HasSuffix(frag, old):
		offset -= len(frag) - len(old)
	case strings.HasPrefix(old, frag):
	case strings.HasSuffix(old, frag):
		offset += len(old) - len(frag)
	default:
		return state{}, false
	}

	p, ok := e.enum.At(frag, offset)
	if !ok {
		return state{}, false
	}
	kept := e.gen.Fill(p, cur.entry.Identifier)
	idx, err := e.space.IdentifierToIndex(kept)
	if err != nil {
		return state{}, false
	}
	return state{entry: model.NewEntry(idx, kept), placement: p}, true
}

func (e *Engine) visited() map[string]bool {
	seen := make(map[string]bool, len(e.history))
	for _, s := range e.history {
		seen[s.entry.Identifier] = true
	}
	return seen
}

// find runs the bounded search: visible window, computed neighbours, then
// random sampling keeping the closest candidate in the requested direction.
func (e *Engine) find(frag string, placements []pattern.Placement, preferred *pattern.Placement, ref *big.Int, dir direction, view View, exclude map[string]bool) (state, Result, error) {
	if len(placements) == 0 {
		return state{}, Result{}, model.ErrUnsatisfiableFragment
	}

	if st, ok := e.fromWindow(frag, ref, dir, view.Visible, exclude); ok {
		return e.resolve(frag, st, SourceWindow)
	}
	if st, ok := e.fromNeighbours(frag, ref, dir, exclude); ok {
		return e.resolve(frag, st, SourceNeighbour)
	}

	var best, fallback *state
	var bestDist *big.Int
	for i := 0; i < e.attempts; i++ {
		p := placements[e.rng.IntN(len(placements))]
		if preferred != nil && i%2 == 0 && preferred.Template != "" {
			if pp, ok := e.enum.At(frag, preferred.Offset); ok {
				p = pp
			}
		}
		cand := e.gen.Candidate(p)
		if exclude[cand] {
			continue
		}
		idx, err := e.space.IdentifierToIndex(cand)
		if err != nil {
			// Decimal payloads above 2^W have no index.
			continue
		}
		st := &state{entry: model.Entry{Index: idx, Identifier: cand}, placement: p}
		if fallback == nil {
			fallback = st
		}
		if !accepts(dir, idx, ref) {
			continue
		}
		dist := new(big.Int).Sub(idx, ref)
		dist.Abs(dist)
		if best == nil || dist.Cmp(bestDist) < 0 {
			best, bestDist = st, dist
		}
	}

	switch {
	case best != nil:
		res := Result{Entry: best.entry, Source: SourceRandom}
		e.logResult(frag, res, e.attempts)
		return *best, res, nil
	case fallback != nil:
		res := Result{Entry: fallback.entry, Source: SourceFallback, Exhausted: true}
		e.logger.Warn().Str(log.FieldFragment, frag).Str(log.FieldReference, ref.String()).Msg("no candidate in requested direction")
		return *fallback, res, nil
	default:
		e.logger.Warn().Str(log.FieldFragment, frag).Int(log.FieldAttempts, e.attempts).Msg("search exhausted")
		return state{}, Result{}, model.ErrSearchExhausted
	}
}

func (e *Engine) resolve(frag string, st state, src Source) (state, Result, error) {
	res := Result{Entry: st.entry, Source: src}
	e.logResult(frag, res, 0)
	return st, res, nil
}

// place anchors frag at its first occurrence in entry that the template
// accepts.
func (e *Engine) place(frag string, entry model.Entry) (state, bool) {
	id := entry.Identifier
	for off := strings.Index(id, frag); off >= 0; {
		if p, ok := e.enum.At(frag, off); ok {
			return state{entry: model.NewEntry(entry.Index, id), placement: p}, true
		}
		next := strings.Index(id[off+1:], frag)
		if next < 0 {
			break
		}
		off += next + 1
	}
	return state{}, false
}

// fromWindow picks the closest visible entry containing frag. Without a
// direction, entries at or after ref win over entries before it. Entries
// whose identifier does not decode to their index are ignored.
func (e *Engine) fromWindow(frag string, ref *big.Int, dir direction, visible []model.Entry, exclude map[string]bool) (state, bool) {
	var ahead, behind *state
	for _, v := range visible {
		if v.Index == nil || exclude[v.Identifier] || !strings.Contains(v.Identifier, frag) {
			continue
		}
		if !accepts(dir, v.Index, ref) {
			continue
		}
		idx, err := e.space.IdentifierToIndex(v.Identifier)
		if err != nil || idx.Cmp(v.Index) != 0 {
			e.logger.Debug().Str(log.FieldIdentifier, v.Identifier).Str(log.FieldIndex, v.Index.String()).Msg("ignoring visible entry")
			continue
		}
		st, ok := e.place(frag, v)
		if !ok {
			continue
		}
		if v.Index.Cmp(ref) >= 0 {
			if ahead == nil || v.Index.Cmp(ahead.entry.Index) < 0 {
				ahead = &st
			}
		} else if behind == nil || v.Index.Cmp(behind.entry.Index) > 0 {
			behind = &st
		}
	}
	if ahead != nil {
		return *ahead, true
	}
	if behind != nil {
		return *behind, true
	}
	return state{}, false
}

// fromNeighbours scans freshly computed identifiers next to ref.
func (e *Engine) fromNeighbours(frag string, ref *big.Int, dir direction, exclude map[string]bool) (state, bool) {
	one := big.NewInt(1)
	if dir != backward {
		i := new(big.Int).Set(ref)
		if dir == forward {
			i.Add(i, one)
		}
		for k := 0; k < e.lookAhead && i.Cmp(e.space.Size()) < 0; k++ {
			if st, ok := e.match(frag, i, exclude); ok {
				return st, true
			}
			i.Add(i, one)
		}
	}
	if dir != forward {
		i := new(big.Int).Sub(ref, one)
		for k := 0; k < e.lookBack && i.Sign() >= 0; k++ {
			if st, ok := e.match(frag, i, exclude); ok {
				return st, true
			}
			i.Sub(i, one)
		}
	}
	return state{}, false
}

func (e *Engine) match(frag string, i *big.Int, exclude map[string]bool) (state, bool) {
	id, err := e.space.IndexToIdentifier(i)
	if err != nil || exclude[id] || !strings.Contains(id, frag) {
		return state{}, false
	}
	return e.place(frag, model.NewEntry(i, id))
}

func accepts(dir direction, idx, ref *big.Int) bool {
	switch dir {
	case forward:
		return idx.Cmp(ref) > 0
	case backward:
		return idx.Cmp(ref) < 0
	default:
		return true
	}
}

func (e *Engine) clamp(ref *big.Int) *big.Int {
	if ref == nil || ref.Sign() < 0 {
		return new(big.Int)
	}
	if ref.Cmp(e.space.Size()) >= 0 {
		return new(big.Int).Sub(e.space.Size(), big.NewInt(1))
	}
	return new(big.Int).Set(ref)
}

func (e *Engine) logResult(frag string, res Result, attempts int) {
	e.logger.Debug().
		Str(log.FieldFragment, frag).
		Str(log.FieldSource, res.Source.String()).
		Str(log.FieldIndex, res.Entry.Index.String()).
		Str(log.FieldIdentifier, res.Entry.Identifier).
		Int(log.FieldAttempts, attempts).
		Msg("search resolved")
}
