package model

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFavoriteValidate(t *testing.T) {
	assert.NoError(t, (&Favorite{Identifier: "x", Format: "uuid"}).Validate())
	assert.NoError(t, (&Favorite{Identifier: "x", Format: "uuid", Index: "123456789012345678901234567890"}).Validate())
	assert.Error(t, (&Favorite{Identifier: " ", Format: "uuid"}).Validate())
	assert.Error(t, (&Favorite{Identifier: "x"}).Validate())
	assert.Error(t, (&Favorite{Identifier: "x", Format: "uuid", Index: "-3"}).Validate())
	assert.Error(t, (&Favorite{Identifier: "x", Format: "uuid", Index: "0x10"}).Validate())
}

func TestFavoriteOrdinal(t *testing.T) {
	assert.Nil(t, (&Favorite{}).Ordinal())
	assert.Equal(t, int64(42), (&Favorite{Index: "42"}).Ordinal().Int64())
}

func TestNewEntryCopiesIndex(t *testing.T) {
	i := big.NewInt(7)
	e := NewEntry(i, "id")
	i.SetInt64(8)
	assert.Equal(t, int64(7), e.Index.Int64())
	assert.False(t, e.IsZero())
	assert.True(t, Entry{}.IsZero())
}

func TestErrorHelpers(t *testing.T) {
	err := fmt.Errorf("encode: %w", &RangeError{Index: big.NewInt(-1), Size: big.NewInt(16)})
	assert.True(t, IsRangeError(err))
	assert.False(t, IsFormatError(err))
	assert.EqualError(t, err, "encode: index -1 out of range [0, 16)")

	err = fmt.Errorf("decode: %w", &FormatError{Input: "zz", Reason: "wrong length"})
	assert.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), `"zz"`)
}
