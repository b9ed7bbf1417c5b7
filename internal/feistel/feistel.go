// Package feistel implements a keyed, invertible permutation of [0, 2^Width)
// built from a Feistel network over two blocks of up to 64 bits each.
//
// The permutation is an obfuscation: it makes sequential inputs look
// scattered, it is not a cipher.
package feistel

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
)

// DefaultConstants are the per-round constants. Only the first Rounds are used.
var DefaultConstants = []uint64{
	0x47f5417d6b82b5d1,
	0x90a7c5fe8c345af2,
	0xd8796c3b2a1e4f8d,
	0x6f4a3c8e7d5b9102,
	0xb3f8c7d6e5a49201,
	0x2d9e8b7c6f5a3d4e,
	0xa1b2c3d4e5f6789a,
	0x123456789abcdef0,
}

const (
	DefaultRounds     = 4
	DefaultMultiplier = 0x6c8e944d1f5aa3b7
	DefaultRotateA    = 7
	DefaultRotateB    = 13
)

// Params configures a Network.
type Params struct {
	// Width is the total number of bits permuted.
	Width int
	// BlockBits is the width of the right (low) block. The left block
	// holds the remaining Width-BlockBits high bits.
	BlockBits  int
	Rounds     int
	Constants  []uint64
	Multiplier uint64
	RotateA    int
	RotateB    int
}

// DefaultParams returns the standard round schedule for a width/block split.
func DefaultParams(width, blockBits int) Params {
	return Params{
		Width:      width,
		BlockBits:  blockBits,
		Rounds:     DefaultRounds,
		Constants:  DefaultConstants,
		Multiplier: DefaultMultiplier,
		RotateA:    DefaultRotateA,
		RotateB:    DefaultRotateB,
	}
}

// Network is an immutable Feistel permutation. It is safe for concurrent use.
type Network struct {
	p         Params
	leftBits  int
	rightBits int
	size      *big.Int
}

// New validates p and returns a Network.
func New(p Params) (*Network, error) {
	if p.BlockBits <= 0 || p.BlockBits > 64 {
		return nil, fmt.Errorf("block bits %d not in (0, 64]", p.BlockBits)
	}
	left := p.Width - p.BlockBits
	if left <= 0 || left > 64 {
		return nil, fmt.Errorf("left block of %d bits not in (0, 64]", left)
	}
	if p.Rounds <= 0 {
		return nil, errors.New("rounds must be positive")
	}
	if p.Rounds > len(p.Constants) {
		return nil, fmt.Errorf("%d rounds need %d constants, have %d", p.Rounds, p.Rounds, len(p.Constants))
	}
	if p.Multiplier&1 == 0 {
		return nil, errors.New("multiplier must be odd")
	}
	return &Network{
		p:         p,
		leftBits:  left,
		rightBits: p.BlockBits,
		size:      new(big.Int).Lsh(big.NewInt(1), uint(p.Width)),
	}, nil
}

// Width returns the number of bits permuted.
func (n *Network) Width() int { return n.p.Width }

// Size returns 2^Width. The caller must not modify the result.
func (n *Network) Size() *big.Int { return n.size }

// Round is the round function applied to a block of the given width.
func (n *Network) Round(block uint64, round, width int) uint64 {
	m := mask(width)
	x := (block ^ n.p.Constants[round]) & m
	x = rotl(x, n.p.RotateA, width)
	x = (x * n.p.Multiplier) & m
	x = rotl(x, n.p.RotateB, width)
	return x
}

// Forward maps x in [0, 2^Width) to its permuted value. x is not modified.
func (n *Network) Forward(x *big.Int) *big.Int {
	left, right := n.split(x)
	lb, rb := n.leftBits, n.rightBits
	for r := 0; r < n.p.Rounds; r++ {
		next := left ^ (n.Round(right, r, rb) & mask(lb))
		left, right = right, next
		lb, rb = rb, lb
	}
	return join(left, right, rb)
}

// Inverse undoes Forward.
func (n *Network) Inverse(y *big.Int) *big.Int {
	// Halves swap widths every round, so an odd round count leaves them swapped.
	lb, rb := n.leftBits, n.rightBits
	if n.p.Rounds%2 == 1 {
		lb, rb = rb, lb
	}
	left, right := splitAt(y, rb)
	for r := n.p.Rounds - 1; r >= 0; r-- {
		prevRight := left
		prevLeft := right ^ (n.Round(prevRight, r, lb) & mask(rb))
		left, right = prevLeft, prevRight
		lb, rb = rb, lb
	}
	return join(left, right, rb)
}

func (n *Network) split(x *big.Int) (uint64, uint64) {
	return splitAt(x, n.rightBits)
}

func splitAt(x *big.Int, rightBits int) (uint64, uint64) {
	lo := new(big.Int).And(x, maskBig(rightBits))
	hi := new(big.Int).Rsh(x, uint(rightBits))
	return hi.Uint64(), lo.Uint64()
}

func join(left, right uint64, rightBits int) *big.Int {
	out := new(big.Int).SetUint64(left)
	out.Lsh(out, uint(rightBits))
	return out.Or(out, new(big.Int).SetUint64(right))
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func maskBig(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

func rotl(x uint64, shift, width int) uint64 {
	if width == 64 {
		return bits.RotateLeft64(x, shift)
	}
	shift %= width
	if shift == 0 {
		return x
	}
	return ((x << uint(shift)) | (x >> uint(width-shift))) & mask(width)
}
