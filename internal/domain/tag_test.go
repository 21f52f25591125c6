package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTagName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims leading whitespace", "  work", "work"},
		{"trims trailing whitespace", "work  ", "work"},
		{"trims both sides", "\t ideas \n", "ideas"},
		{"preserves case", "Work", "Work"},
		{"preserves interior spaces", "project alpha", "project alpha"},
		{"empty stays empty", "", ""},
		{"whitespace only collapses to empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTagName(tt.input))
		})
	}
}

func TestNormalizeTagName_CaseSensitivity(t *testing.T) {
	// "Work" and "work" normalize to different names and so remain distinct tags.
	assert.NotEqual(t, NormalizeTagName("Work"), NormalizeTagName("work"))
}
