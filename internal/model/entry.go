package model

import "math/big"

// Entry pairs an ordinal index with the identifier it encodes to.
type Entry struct {
	Index      *big.Int `json:"index"`
	Identifier string   `json:"identifier"`
}

// NewEntry copies index so the entry never aliases caller state.
func NewEntry(index *big.Int, identifier string) Entry {
	return Entry{Index: new(big.Int).Set(index), Identifier: identifier}
}

// IsZero returns true if the entry holds no identifier.
func (e Entry) IsZero() bool {
	return e.Identifier == "" && e.Index == nil
}
