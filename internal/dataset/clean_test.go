package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanID(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"int", 1610612737, "1610612737"},
		{"int64", int64(22400001), "22400001"},
		{"float", 1610612737.0, "1610612737"},
		{"float truncates", 12.7, "12"},
		{"nan", math.NaN(), ""},
		{"float string", "22400001.0", "22400001"},
		{"padded string", "  0022400001 ", "0022400001"},
		{"plain string", "abc", "abc"},
		{"blank", "   ", ""},
		{"nan string", "NaN", ""},
		{"decimal string kept", "1.5", "1.5"},
		{"huge float", 1e20, "100000000000000000000"},
		{"huge negative float", -1e20, "-100000000000000000000"},
		{"huge float string", "100000000000000000000.0", "100000000000000000000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanID(tc.in))
		})
	}
}

func TestCleanID_Idempotent(t *testing.T) {
	inputs := []any{nil, 7, 7.0, 7.9, "7.0", " 7 ", "x.0", "", math.NaN(), "0022400001", "1e3.0", 1e20, "100000000000000000000.0"}
	for _, in := range inputs {
		once := CleanID(in)
		assert.Equal(t, once, CleanID(once), "CleanID should be idempotent for %v", in)
	}
}
