package catalog

import (
	"fmt"
	"math/big"
	"strings"
)

// IDPrefix starts every allocated identifier.
const IDPrefix = "strip-"

// NextID returns the identifier following the highest numeric id in ids.
//
// Each id is reduced to its digits; ids without digits count as 0. Suffixes
// are compared without a size limit, so the result is above every suffix in
// ids and never one of them. The result is strip-NNN with at least three
// digits.
func NextID(ids []string) string {
	max := new(big.Int)
	for _, id := range ids {
		if n := numericPart(id); n.Cmp(max) > 0 {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", IDPrefix, max.Add(max, big.NewInt(1)))
}

func numericPart(id string) *big.Int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, id)
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return new(big.Int)
	}
	return n
}
