package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoll(t *testing.T) {
	tests := []struct {
		spec  string
		count int
		sides int
	}{
		{"2d6", 2, 6},
		{"1d2", 1, 2},
		{"100d1000", 100, 1000},
		{"  3D20  ", 3, 20},
	}
	for _, tt := range tests {
		count, sides, err := parseRoll(tt.spec)
		require.NoError(t, err, tt.spec)
		assert.Equal(t, tt.count, count, tt.spec)
		assert.Equal(t, tt.sides, sides, tt.spec)
	}
}

func TestParseRollRejects(t *testing.T) {
	bad := []string{
		"",
		"d6",
		"2d",
		"2x6",
		"0d6",
		"101d6",
		"2d1",
		"2d1001",
		"-1d6",
		"2d6 extra",
	}
	for _, spec := range bad {
		_, _, err := parseRoll(spec)
		assert.Error(t, err, spec)
	}
}

func TestFormatRoll(t *testing.T) {
	assert.Equal(t, "2d6 → [3, 5] = **8**", formatRoll("2d6", []int{3, 5}))
	assert.Equal(t, "1d20 → [20] = **20**", formatRoll("1d20", []int{20}))
}

func TestCommandsDeclared(t *testing.T) {
	c := New()
	names := make([]string, 0)
	for _, cmd := range c.Commands() {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"ping", "echo", "roll"}, names)
}
