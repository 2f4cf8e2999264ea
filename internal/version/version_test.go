package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"0.3.9", "0.3.9", 0},
		{"v0.3.9", "0.3.9", 0},
		{"0.3.9", "0.4.0", -1},
		{"0.3.9", "0.3.10", -1},
		{"1.0.0", "0.9.9", 1},
		{"0.3.9", "0.3.9.1", -1},
		{"0.3", "0.3.0", 0},
		{"0.3.9", "garbage", 1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, compare(tc.a, tc.b), "compare(%q, %q)", tc.a, tc.b)
	}
}
