package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerator_ContainsViolation(t *testing.T) {
	mod, err := NewModerator([]string{"badger", "snake", "Badger"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"clean text", "hello there", false},
		{"plain word", "the badger is here", true},
		{"uppercase with noise", "S-N-A-K-E", true},
		{"leet speak", "b4dg3r", true},
		{"empty", "", false},
		{"only punctuation", "!!! ...", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mod.ContainsViolation(tt.input))
		})
	}
}

func TestModerator_EmptyWordList(t *testing.T) {
	mod, err := NewModerator(nil)
	require.NoError(t, err)

	assert.False(t, mod.ContainsViolation("anything at all"))

	// words made only of noise normalize to nothing
	mod, err = NewModerator([]string{"...", " "})
	require.NoError(t, err)
	assert.False(t, mod.ContainsViolation("..."))
}
