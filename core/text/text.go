// Package text provides the plain-text transforms the merge and diff
// engines operate on: granularity conversion between line-, word- and
// grapheme-per-line representations, plus the small string filters the
// editing pipeline shares (trimming, whitespace collapsing, Unicode
// validation).
package text

import (
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/graphemes"
)

// newlineToken is the placeholder that keeps newlines alive while a text
// blob is re-split on another boundary. The surrounding spaces make the
// token a word of its own at word granularity.
const newlineToken = " new__line "

// ToWords converts a text blob to one word per line. Newlines are
// replaced with a placeholder token first so they survive the re-split.
func ToWords(data string) string {
	data = strings.ReplaceAll(data, "\n", newlineToken)
	return strings.ReplaceAll(data, " ", "\n")
}

// FromWords is the inverse of ToWords.
func FromWords(data string) string {
	data = strings.ReplaceAll(data, "\n", " ")
	return strings.ReplaceAll(data, newlineToken, "\n")
}

// ToGraphemes converts a text blob to one Unicode grapheme cluster per
// line. This is the finest granularity the merge engine falls back to.
// Segmentation follows UAX #29 grapheme cluster boundaries, so combining
// marks stay attached to their base character.
func ToGraphemes(data string) string {
	data = strings.ReplaceAll(data, "\n", newlineToken)
	var b strings.Builder
	b.Grow(2 * len(data))
	iter := graphemes.FromString(data)
	for iter.Next() {
		b.WriteString(iter.Value())
		b.WriteByte('\n')
	}
	return b.String()
}

// FromGraphemes is the inverse of ToGraphemes.
func FromGraphemes(data string) string {
	data = strings.ReplaceAll(data, "\n", "")
	return strings.ReplaceAll(data, newlineToken, "\n")
}

// Trim removes leading and trailing whitespace.
func Trim(data string) string {
	return strings.TrimSpace(data)
}

// CollapseWhitespace reduces any run of repeated spaces to a single
// space. The operation is idempotent.
func CollapseWhitespace(data string) string {
	for strings.Contains(data, "  ") {
		data = strings.ReplaceAll(data, "  ", " ")
	}
	return data
}

// ValidUTF8 reports whether data is well-formed UTF-8.
func ValidUTF8(data string) bool {
	return utf8.ValidString(data)
}
