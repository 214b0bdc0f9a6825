package discography

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEssenceKey(t *testing.T) {
	tests := []struct {
		title     string
		key       string
		ambiguous bool
	}{
		{"Album", "album", false},
		{"  Album  ", "album", false},
		{"Album (Deluxe)", "album", false},
		{"Album [Remastered]", "album", false},
		{"Album (Live) [Remastered]", "album (live)", false},
		{"Album (Live (Tokyo))", "album", false},
		{"Album (Deluxe", "album (deluxe", true},
		{"Album )Deluxe(", "album )deluxe(", true},
		{"Album (Deluxe]", "album (deluxe]", true},
		{"(Untitled)", "(untitled)", false},
		{"Album (Part 1) Reprise", "album (part 1) reprise", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			key, ambiguous := EssenceKey(tt.title)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.ambiguous, ambiguous)
		})
	}
}

func TestClassifier(t *testing.T) {
	tests := []struct {
		title, version string
		types          []string
	}{
		{"Album", "", nil},
		{"Album (Remastered)", "", []string{TypeRemaster}},
		{"Album", "2011 Remaster", []string{TypeRemaster}},
		{"Album", "Deluxe Edition", []string{TypeExtra}},
		{"Alive in Paris", "", []string{TypeExtra}},
		{"Album (25th Anniversary Remastered)", "", []string{TypeRemaster, TypeExtra}},
	}

	for _, tt := range tests {
		t.Run(tt.title+"/"+tt.version, func(t *testing.T) {
			a := album(tt.title, 16, 44.1, "X")
			a.Version = tt.version
			assert.Equal(t, tt.types, DefaultClassifier.Types(a))
		})
	}

	assert.False(t, DefaultClassifier.Is("bonus", album("Bonus Tracks", 16, 44.1, "X")))
}
