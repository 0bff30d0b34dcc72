// Package mediatype sniffs content types and matches them against
// registration patterns.
package mediatype

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wailsapp/mimetype"
)

// Detector derives a media type from raw content.
type Detector func(content []byte) string

// Detect returns the sniffed media type of content, including parameters
// such as charset (e.g. "text/plain; charset=utf-8").
func Detect(content []byte) string {
	return mimetype.Detect(content).String()
}

// Essence strips parameters from a media type: "text/plain; charset=utf-8"
// becomes "text/plain".
func Essence(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Pattern is a compiled media type matcher. Matching is unanchored, so
// "text/.*" matches "text/plain; charset=utf-8".
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// Compile parses a media type pattern.
func Compile(pattern string) (Pattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return Pattern{}, fmt.Errorf("empty media type pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Pattern{}, fmt.Errorf("media type pattern %q: %w", pattern, err)
	}
	return Pattern{source: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether mediaType satisfies the pattern.
func (p Pattern) Match(mediaType string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(mediaType)
}

// String returns the pattern source.
func (p Pattern) String() string {
	return p.source
}

// Extension returns the conventional file extension for content, with the
// leading dot, or "" when none is known.
func Extension(content []byte) string {
	return mimetype.Detect(content).Extension()
}
