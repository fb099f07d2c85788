package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"!", false},
		{"hello", false},
		{"!go", true},
		{"  !go  ", true},
		{"! ", false},
		{"!hello world", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCommand(tt.input, '!'))
		})
	}
}

func TestParseCommand(t *testing.T) {
	cmd, args, ok := ParseCommand("!hello world", '!')
	assert.True(t, ok)
	assert.Equal(t, "hello", cmd)
	assert.Equal(t, "world", args)
}

func TestParseCommand_NoArguments(t *testing.T) {
	cmd, args, ok := ParseCommand("!go", '!')
	assert.True(t, ok)
	assert.Equal(t, "go", cmd)
	assert.Empty(t, args)
}

func TestParseCommand_TrimsArguments(t *testing.T) {
	cmd, args, ok := ParseCommand("  !roll   2d6  ", '!')
	assert.True(t, ok)
	assert.Equal(t, "roll", cmd)
	assert.Equal(t, "2d6", args)
}

func TestParseCommand_NotACommand(t *testing.T) {
	for _, input := range []string{"", "!", "hello", "   "} {
		_, _, ok := ParseCommand(input, '!')
		assert.False(t, ok, "input %q", input)
	}
}

func TestParseCommand_CustomPrefix(t *testing.T) {
	cmd, _, ok := ParseCommand("#stats", '#')
	assert.True(t, ok)
	assert.Equal(t, "stats", cmd)

	_, _, ok = ParseCommand("!stats", '#')
	assert.False(t, ok)
}
