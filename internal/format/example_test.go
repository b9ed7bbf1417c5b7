package format_test

import (
	"fmt"
	"math/big"

	"github.com/bunchhieng/uuidspace/internal/format"
)

func ExampleCodec_Encode() {
	c := format.MustCodec(format.Card)
	s, _ := c.Encode(big.NewInt(12345))
	raw, _ := c.Decode(s)
	fmt.Println(s)
	fmt.Println(raw)
	// Output:
	// 0000-0000-0012-3455
	// 12345
}
