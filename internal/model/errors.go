package model

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNotFound indicates a favorite was not found.
	ErrNotFound = errors.New("favorite not found")

	// ErrDuplicate indicates the identifier is already a favorite.
	ErrDuplicate = errors.New("duplicate favorite")

	// ErrUnsatisfiableFragment indicates a fragment that is empty after cleaning
	// or cannot be placed anywhere in the format's template.
	ErrUnsatisfiableFragment = errors.New("fragment cannot appear in any identifier")

	// ErrSearchExhausted indicates the bounded search produced no candidate at all.
	ErrSearchExhausted = errors.New("search exhausted")

	// ErrNoActiveSearch indicates next/previous was requested without a fragment.
	ErrNoActiveSearch = errors.New("no active search")
)

// RangeError reports an ordinal index outside [0, Size).
type RangeError struct {
	Index *big.Int
	Size  *big.Int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("index %s out of range [0, %s)", e.Index, e.Size)
}

// FormatError reports an identifier that fails a structural or checksum check.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Input, e.Reason)
}

// IsRangeError reports whether err is or wraps a *RangeError.
func IsRangeError(err error) bool {
	var re *RangeError
	return errors.As(err, &re)
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
