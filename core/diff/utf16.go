package diff

import (
	"strings"
	"unicode/utf8"
)

// utf16Newline protects newlines embedded in sequence elements while
// the sequence itself is diffed, so they are not conflated with element
// separators.
const utf16Newline = "_newline_"

// Patch is a sequence of position-tagged editor operations. Positions
// and sizes are in UTF-16 code units, the unit the remote rich-text
// editor counts in. Replaying the operations in order against the
// editor's buffer, inserting then advancing and deleting in place,
// reproduces the new sequence exactly.
type Patch struct {
	Positions    []int
	Sizes        []int
	Additions    []bool
	Content      []string
	NewlineDiffs int // operations whose content starts with a newline
}

// Len returns the number of operations in the patch.
func (p *Patch) Len() int {
	return len(p.Positions)
}

// UTF16 diffs two sequences of formatted characters and translates the
// edit script into editor patch operations. Each element is one
// document character optionally followed by format metadata; the
// character is what occupies UTF-16 code units in the editor, so
// positions advance by its UTF-16 width on equal and insert operations
// and stand still on delete.
func UTF16(oldElements, newElements []string) Patch {
	ops := Tokens(protectNewlines(oldElements), protectNewlines(newElements))

	var p Patch
	position := 0
	for _, op := range ops {
		content := strings.ReplaceAll(op.Token, utf16Newline, "\n")
		size := utf16CharSize(content)
		switch op.Tag {
		case Equal:
			position += size
		case Insert:
			p.Positions = append(p.Positions, position)
			p.Sizes = append(p.Sizes, size)
			p.Additions = append(p.Additions, true)
			p.Content = append(p.Content, content)
			position += size
		case Delete:
			p.Positions = append(p.Positions, position)
			p.Sizes = append(p.Sizes, size)
			p.Additions = append(p.Additions, false)
			p.Content = append(p.Content, content)
			// The deleted character is gone from the target,
			// so the position does not advance.
		}
		if op.Tag != Equal && strings.HasPrefix(content, "\n") {
			p.NewlineDiffs++
		}
	}
	return p
}

func protectNewlines(elements []string) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = strings.ReplaceAll(e, "\n", utf16Newline)
	}
	return out
}

// utf16CharSize returns the UTF-16 width of the first character of s:
// 2 code units for characters outside the Basic Multilingual Plane
// (surrogate pairs), 1 otherwise.
func utf16CharSize(s string) int {
	if s == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r > 0xFFFF {
		return 2
	}
	return 1
}
