package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAlpha3 covers two-letter, three-letter and regional inputs.
func TestAlpha3(t *testing.T) {
	cases := map[string]string{
		"en":    "eng",
		"EN":    "eng",
		"fr":    "fra",
		"de":    "deu",
		"eng":   "eng",
		"en-GB": "eng",
		" es ":  "spa",
	}
	for in, want := range cases {
		got, ok := Alpha3(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}

// TestAlpha3Unknown rejects codes that name no language.
func TestAlpha3Unknown(t *testing.T) {
	for _, in := range []string{"", "zz", "und", "not a language"} {
		_, ok := Alpha3(in)
		assert.False(t, ok, in)
	}
}

// TestAlpha3All drops unknown and duplicate codes.
func TestAlpha3All(t *testing.T) {
	assert.Equal(t, []string{"eng", "fra"}, Alpha3All([]string{"en", "zz", "fra", "eng"}))
}
