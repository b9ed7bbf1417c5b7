// Package space maps ordinal indices in [0, 2^W) to identifiers and back.
package space

import (
	"fmt"
	"math/big"

	"github.com/bunchhieng/uuidspace/internal/feistel"
	"github.com/bunchhieng/uuidspace/internal/format"
	"github.com/bunchhieng/uuidspace/internal/model"
)

// Space is the bijection index -> identifier for one format.
type Space struct {
	codec   *format.Codec
	network *feistel.Network
}

// New builds the space for spec using the default round schedule.
func New(spec format.Spec) (*Space, error) {
	return NewWithParams(spec, feistel.DefaultParams(spec.Width, spec.BlockBits))
}

// NewWithParams builds the space with an explicit permutation schedule.
func NewWithParams(spec format.Spec, p feistel.Params) (*Space, error) {
	if p.Width != spec.Width {
		return nil, fmt.Errorf("permutation width %d, format width %d", p.Width, spec.Width)
	}
	codec, err := format.NewCodec(spec)
	if err != nil {
		return nil, fmt.Errorf("build codec: %w", err)
	}
	network, err := feistel.New(p)
	if err != nil {
		return nil, fmt.Errorf("build permutation: %w", err)
	}
	return &Space{codec: codec, network: network}, nil
}

// Open looks up a built-in format by name and builds its space.
func Open(name string) (*Space, error) {
	spec, err := format.Lookup(name)
	if err != nil {
		return nil, err
	}
	return New(spec)
}

// Codec returns the format codec.
func (s *Space) Codec() *format.Codec { return s.codec }

// Name returns the format name.
func (s *Space) Name() string { return s.codec.Name() }

// Size returns N = 2^W. The caller must not modify the result.
func (s *Space) Size() *big.Int { return s.network.Size() }

// Max returns N-1.
func (s *Space) Max() *big.Int {
	return new(big.Int).Sub(s.Size(), big.NewInt(1))
}

// Contains reports whether 0 <= i < N.
func (s *Space) Contains(i *big.Int) bool {
	return i != nil && i.Sign() >= 0 && i.Cmp(s.Size()) < 0
}

// IndexToIdentifier returns the identifier at ordinal i.
func (s *Space) IndexToIdentifier(i *big.Int) (string, error) {
	if !s.Contains(i) {
		return "", &model.RangeError{Index: cloneOrZero(i), Size: s.Size()}
	}
	return s.codec.Encode(s.network.Forward(i))
}

// IdentifierToIndex returns the ordinal of identifier.
func (s *Space) IdentifierToIndex(identifier string) (*big.Int, error) {
	raw, err := s.codec.Decode(identifier)
	if err != nil {
		return nil, err
	}
	return s.network.Inverse(raw), nil
}

// Entry returns the entry at ordinal i.
func (s *Space) Entry(i *big.Int) (model.Entry, error) {
	id, err := s.IndexToIdentifier(i)
	if err != nil {
		return model.Entry{}, err
	}
	return model.NewEntry(i, id), nil
}

// Window returns up to n consecutive entries starting at start. The start is
// clamped into the domain and the window stops at N-1.
func (s *Space) Window(start *big.Int, n int) ([]model.Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	i := s.Clamp(start)
	entries := make([]model.Entry, 0, n)
	for k := 0; k < n && i.Cmp(s.Size()) < 0; k++ {
		e, err := s.Entry(i)
		if err != nil {
			return nil, fmt.Errorf("window entry %s: %w", i, err)
		}
		entries = append(entries, e)
		i.Add(i, big.NewInt(1))
	}
	return entries, nil
}

// Clamp returns a copy of i limited to [0, N-1]. A nil i clamps to 0.
func (s *Space) Clamp(i *big.Int) *big.Int {
	if i == nil || i.Sign() < 0 {
		return new(big.Int)
	}
	if i.Cmp(s.Size()) >= 0 {
		return s.Max()
	}
	return new(big.Int).Set(i)
}

func cloneOrZero(i *big.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i)
}
