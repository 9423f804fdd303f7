package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryMatches(t *testing.T) {
	tests := []struct {
		name     string
		category string
		match    string
		contains bool
		expected bool
	}{
		{"prefix", "tv-hd", "tv", false, true},
		{"not prefix", "hd-tv", "tv", false, false},
		{"contains", "hd-tv", "tv", true, true},
		{"case sensitive", "TV-hd", "tv", false, false},
		{"empty match", "tv", "", false, false},
		{"empty category", "", "tv", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryMatches(tt.category, tt.match, tt.contains))
		})
	}
}

func TestStringSliceContains(t *testing.T) {
	assert.True(t, StringSliceContains([]string{"a", "B"}, "b", true))
	assert.False(t, StringSliceContains([]string{"a", "B"}, "b", false))
	assert.False(t, StringSliceContains(nil, "a", true))
}
