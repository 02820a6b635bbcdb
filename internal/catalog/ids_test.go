package catalog

import (
	"math/big"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNextID(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{"empty", nil, "strip-001"},
		{"gap and junk", []string{"strip-001", "strip-003", "x"}, "strip-004"},
		{"only junk", []string{"abc", ""}, "strip-001"},
		{"width grows", []string{"strip-999"}, "strip-1000"},
		{"digits anywhere", []string{"a1b2"}, "strip-013"},
		{"beyond int64", []string{"strip-99999999999999999999", "strip-002"}, "strip-100000000000000000000"},
		{"at int64 max", []string{"strip-9223372036854775806", "strip-9223372036854775807"}, "strip-9223372036854775808"},
		{"leading zeros", []string{"strip-0007"}, "strip-008"},
		{"unordered", []string{"strip-010", "strip-002"}, "strip-011"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextID(tc.ids))
		})
	}
}

func TestNextID_Properties(t *testing.T) {
	idGen := rapid.OneOf(
		rapid.StringMatching(`strip-[0-9]{1,6}`),
		rapid.StringMatching(`strip-[0-9]{18,22}`),
		rapid.StringMatching(`[a-z-]{0,8}`),
	)

	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOf(idGen).Draw(t, "ids")
		next := NextID(ids)

		if slices.Contains(ids, next) {
			t.Fatalf("allocated %q already present in %v", next, ids)
		}
		if !strings.HasPrefix(next, IDPrefix) {
			t.Fatalf("missing prefix: %q", next)
		}
		digits := strings.TrimPrefix(next, IDPrefix)
		if len(digits) < 3 {
			t.Fatalf("expected at least three digits: %q", next)
		}
		n, ok := new(big.Int).SetString(digits, 10)
		if !ok {
			t.Fatalf("not numeric: %q", next)
		}
		for _, id := range ids {
			if numericPart(id).Cmp(n) >= 0 {
				t.Fatalf("%q is not above %q", next, id)
			}
		}
	})
}

func TestNextID_Monotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		var ids []string
		for i := 0; i < steps; i++ {
			ids = append(ids, NextID(ids))
		}
		if got := ids[len(ids)-1]; numericPart(got).Cmp(big.NewInt(int64(steps))) != 0 {
			t.Fatalf("after %d allocations got %q", steps, got)
		}
	})
}
