package editor

import (
	"math"
	"unicode/utf8"

	"github.com/davidrees/scriptorium/core/diff"
)

// Operators the editor applies when replaying a patch.
const (
	OpInsert          = "i"
	OpDelete          = "d"
	OpFormatParagraph = "p"
	OpFormatCharacter = "c"
)

// Operation is one step of an editor patch. Position and Size are in
// UTF-16 code units. For insert and delete operations Content holds the
// character followed by its format; for format operations it holds the
// format alone.
type Operation struct {
	Position int
	Size     int
	Op       string
	Content  string
}

// Updates computes the operations that patch the open editor from the
// HTML it holds to the HTML the server settled on after merging and
// saving. The two documents are flattened to formatted characters,
// diffed in UTF-16 positions, and condensed for the editor.
func Updates(editorHTML, serverHTML string) ([]Operation, error) {
	editorTexts, editorFormats, err := FormatLoad(editorHTML)
	if err != nil {
		return nil, err
	}
	serverTexts, serverFormats, err := FormatLoad(serverHTML)
	if err != nil {
		return nil, err
	}

	editorElements := formattedCharacters(editorTexts, editorFormats)
	serverElements := formattedCharacters(serverTexts, serverFormats)

	patch := diff.UTF16(editorElements, serverElements)
	operations := condense(patch)

	// Removing or adding a new line makes a paragraph take the style
	// of its neighbor in the editor. When that happened, re-apply
	// every paragraph format of the server text.
	if patch.NewlineDiffs > 0 {
		position := 0
		for _, element := range serverElements {
			character, format := splitElement(element)
			size := utf16Size(character)
			if character == "\n" {
				operations = append(operations, Operation{
					Position: position,
					Size:     size,
					Op:       OpFormatParagraph,
					Content:  format,
				})
			}
			position += size
		}
	}

	return operations, nil
}

// formattedCharacters explodes text/format runs into one element per
// character, each carrying its format behind it.
func formattedCharacters(texts, formats []string) []string {
	var elements []string
	for i, text := range texts {
		format := formats[i]
		for _, r := range text {
			elements = append(elements, string(r)+format)
		}
	}
	return elements
}

// condense rewrites raw diff operations for the editor. Changing a
// paragraph style arrives as a delete of a new line plus an insert of
// the same new line at the same position with the new format; replayed
// literally that bleeds the next paragraph's style into the previous
// one, so the pair collapses into a single format-paragraph operation.
func condense(p diff.Patch) []Operation {
	var out []Operation
	previousPosition := math.MinInt
	previousAddition := false
	previousCharacter := ""
	for i := 0; i < p.Len(); i++ {
		position := p.Positions[i]
		size := p.Sizes[i]
		addition := p.Additions[i]
		character, format := splitElement(p.Content[i])

		newlineFlag := addition && !previousAddition &&
			character == "\n" && character == previousCharacter &&
			position == previousPosition
		if newlineFlag {
			out = out[:len(out)-1]
			out = append(out, Operation{
				Position: position,
				Size:     size,
				Op:       OpFormatParagraph,
				Content:  format,
			})
		} else {
			op := OpDelete
			if addition {
				op = OpInsert
			}
			out = append(out, Operation{
				Position: position,
				Size:     size,
				Op:       op,
				Content:  character + format,
			})
		}

		previousPosition = position
		previousAddition = addition
		previousCharacter = character
	}
	return out
}

// splitElement separates a formatted character element into its
// character and its format metadata.
func splitElement(element string) (character, format string) {
	if element == "" {
		return "", ""
	}
	_, n := utf8.DecodeRuneInString(element)
	return element[:n], element[n:]
}

func utf16Size(character string) int {
	if character == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(character)
	if r > 0xFFFF {
		return 2
	}
	return 1
}
