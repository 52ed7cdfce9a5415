package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"String", "red", "red"},
		{"Whole float", float64(42), "42"},
		{"Fraction", 0.25, "0.25"},
		{"Bool", true, "true"},
		{"Nil", nil, ""},
		{"Number", json.Number("7.50"), "7.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToString(tt.in))
		})
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", false},
		{float64(1), true},
		{float64(0), false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToBool(tt.in), "ToBool(%#v)", tt.in)
	}
}

func TestParseFloat(t *testing.T) {
	f, ok := ParseFloat("12.5")
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	_, ok = ParseFloat("twelve")
	assert.False(t, ok)

	_, ok = ParseFloat(map[string]any{})
	assert.False(t, ok)

	assert.Equal(t, 3, ToInt(3.9))
}
