package model

import (
	"errors"
	"math/big"
	"strings"
	"time"
)

// Favorite is an identifier the user starred, together with the format
// and ordinal it was starred under.
type Favorite struct {
	Identifier string    `json:"identifier"`
	Format     string    `json:"format"`
	Index      string    `json:"index,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the favorite carries an identifier and, when set, a
// non-negative decimal index.
func (f *Favorite) Validate() error {
	if strings.TrimSpace(f.Identifier) == "" {
		return errors.New("identifier is required")
	}
	if f.Format == "" {
		return errors.New("format is required")
	}
	if f.Index != "" {
		n, ok := new(big.Int).SetString(f.Index, 10)
		if !ok || n.Sign() < 0 {
			return errors.New("index must be a non-negative decimal integer")
		}
	}
	return nil
}

// Ordinal returns the stored index, or nil if the favorite has none.
func (f *Favorite) Ordinal() *big.Int {
	if f.Index == "" {
		return nil
	}
	n, ok := new(big.Int).SetString(f.Index, 10)
	if !ok {
		return nil
	}
	return n
}
