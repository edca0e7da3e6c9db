// Package usfm provides utilities for working with USFM code: the
// backslash-prefixed marker convention Bible translation text is
// structured in. The merge engine and the editors use it to take a
// chapter apart into verses and put it back together.
package usfm

import (
	"strings"
)

// Verse marker prefixes. Published verse markers (\vp) and alternate
// verse markers (\va) carry presentation numbers, not canonical ones.
const (
	markerVerse          = `\v`
	markerVerseAlternate = `\va`
	markerVersePublished = `\vp`
	markerChapter        = `\c`
)

// MarkersAndText splits USFM code into an alternating sequence of
// markers and text. A marker fragment keeps its trailing space or
// asterisk, for example `\id `, `GEN`, `\c `, `10`. If the code does
// not start with a marker this shows in the output too.
func MarkersAndText(code string) []string {
	var out []string
	// A newline before a backslash is redundant; a bare newline counts
	// as a space, per the USFM specification.
	code = strings.ReplaceAll(code, "\n\\", "\\")
	code = strings.ReplaceAll(code, "\n", " ")
	code = strings.TrimSpace(code)
	for code != "" {
		if code[0] == '\\' {
			// The marker ends after the first space or asterisk, at
			// the next backslash, or at the end of the string,
			// whichever comes first.
			pos := len(code)
			if i := strings.Index(code, " "); i >= 0 && i+1 < pos {
				pos = i + 1
			}
			if i := strings.Index(code, "*"); i >= 0 && i+1 < pos {
				pos = i + 1
			}
			if i := strings.Index(code[1:], "\\"); i >= 0 && i+1 < pos {
				pos = i + 1
			}
			out = append(out, code[:pos])
			code = code[pos:]
		} else {
			// Text runs to the next backslash or the end.
			pos := strings.Index(code, "\\")
			if pos < 0 {
				pos = len(code)
			}
			out = append(out, code[:pos])
			code = code[pos:]
		}
	}
	return out
}

// Marker extracts the marker name from a USFM fragment, or returns an
// empty string when the fragment is text.
// Examples: `\id ` → "id", `\add*` → "add", `\+add` → "add".
func Marker(fragment string) string {
	if fragment == "" || fragment[0] != '\\' {
		return ""
	}
	s := fragment[1:]
	// Embedded markers carry a plus prefix.
	s = strings.TrimPrefix(s, "+")
	end := len(s)
	for _, sep := range " *\\" {
		if i := strings.IndexRune(s, sep); i >= 0 && i < end {
			end = i
		}
	}
	return s[:end]
}

// IsMarker reports whether the fragment is a USFM marker.
func IsMarker(fragment string) bool {
	return strings.HasPrefix(fragment, `\`)
}

// IsOpeningMarker reports whether the marker fragment opens its scope.
// Closing markers carry a trailing asterisk.
func IsOpeningMarker(fragment string) bool {
	return !strings.Contains(fragment, "*")
}

// IsEmbeddedMarker reports whether the marker is embedded in another
// character style, like `\+nd`.
func IsEmbeddedMarker(fragment string) bool {
	return strings.Contains(fragment, "+")
}

// OpeningUsfm renders the opening USFM code for a marker name.
func OpeningUsfm(marker string, embedded bool) string {
	if embedded {
		return `\+` + marker + " "
	}
	return `\` + marker + " "
}

// ClosingUsfm renders the closing USFM code for a marker name.
func ClosingUsfm(marker string, embedded bool) string {
	if embedded {
		return `\+` + marker + "*"
	}
	return `\` + marker + "*"
}

// GetVerseNumbers returns the verse numbers found in the USFM code, in
// order, always starting with 0 for the chapter prelude. It handles
// single verses, ranges ("10-12b") and sequences ("10,11a").
func GetVerseNumbers(code string) []int {
	verseNumbers := []int{0}
	extract := false
	for _, fragment := range MarkersAndText(code) {
		if extract {
			verseNumbers = append(verseNumbers, expandVerseExpression(peekVerseNumber(fragment))...)
			extract = false
		}
		if strings.HasPrefix(fragment, markerVerse) {
			extract = true
		}
		if strings.HasPrefix(fragment, markerVerseAlternate) || strings.HasPrefix(fragment, markerVersePublished) {
			extract = false
		}
	}
	return verseNumbers
}

// GetChapterNumbers returns the chapter numbers found in the USFM code,
// always starting with 0.
func GetChapterNumbers(code string) []int {
	chapterNumbers := []int{0}
	extract := false
	for _, fragment := range MarkersAndText(code) {
		if extract {
			chapterNumbers = append(chapterNumbers, expandVerseExpression(peekVerseNumber(fragment))...)
			extract = false
		}
		if strings.HasPrefix(fragment, markerChapter) {
			extract = true
		}
	}
	return chapterNumbers
}

// GetVerseText returns the USFM lines belonging to the given verse
// number. Combined verses are included; verse 0 selects the chapter
// prelude before the first verse marker.
func GetVerseText(code string, verseNumber int) string {
	var result []string
	hit := verseNumber == 0

	for _, line := range strings.Split(code, "\n") {
		verses := GetVerseNumbers(line)
		if verseNumber == 0 {
			// The prelude ends at the first line with a verse marker.
			if len(verses) != 1 {
				hit = false
			}
			if hit {
				result = append(result, line)
			}
		} else {
			if containsInt(verses, verseNumber) {
				hit = true
			} else if len(verses) != 1 {
				// A line with other verse markers ends the range.
				hit = false
			}
			if hit {
				result = append(result, line)
			}
		}
	}

	return strings.Join(result, "\n")
}

// GetVerseTextQuill returns the verse's USFM the way the visual editor
// carves up a chapter: opening markers without content at the end of a
// verse fragment, like a bare `\p` announcing the paragraph the next
// verse starts, move to the beginning of the verse that follows. With
// this carving, converting an editor fragment back to USFM reproduces
// the exact fragment it replaces in the chapter.
func GetVerseTextQuill(code string, verseNumber int) string {
	raw := GetVerseText(code, verseNumber)
	if raw == "" {
		return ""
	}

	verseUsfm := trimTrailingOpeningMarkers(raw)
	if verseUsfm == "" {
		return ""
	}

	// Pick up the empty opening markers the previous verse sheds. For
	// combined verses both lookups return the same fragment; nothing
	// moves then.
	if verseNumber > 0 {
		previous := GetVerseText(code, verseNumber-1)
		if previous != "" && previous != raw {
			items := MarkersAndText(previous)
			for i := len(items) - 1; i >= 0; i-- {
				item := items[i]
				if !IsMarker(item) || !IsOpeningMarker(item) {
					break
				}
				verseUsfm = strings.TrimSpace(item) + "\n" + verseUsfm
			}
		}
	}

	return verseUsfm
}

// trimTrailingOpeningMarkers strips opening markers without content off
// the end of a verse fragment.
func trimTrailingOpeningMarkers(verseUsfm string) string {
	verseUsfm = strings.TrimSpace(verseUsfm)
	for verseUsfm != "" {
		items := MarkersAndText(verseUsfm)
		if len(items) == 0 {
			break
		}
		last := items[len(items)-1]
		if !IsMarker(last) || !IsOpeningMarker(last) {
			break
		}
		verseUsfm = strings.TrimSpace(strings.TrimSuffix(verseUsfm, strings.TrimSpace(last)))
	}
	return verseUsfm
}

// PeekVerseNumber extracts the leading verse number expression from a
// text fragment following a verse marker. Robust against running text
// straight after the number, like `1-2“Moi`.
func PeekVerseNumber(fragment string) string {
	return peekVerseNumber(fragment)
}

func peekVerseNumber(fragment string) string {
	i := 0
	for ; i < len(fragment); i++ {
		c := fragment[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if c == ',' || c == '-' || c == 'a' || c == 'b' {
			continue
		}
		break
	}
	return strings.TrimSpace(fragment[:i])
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
