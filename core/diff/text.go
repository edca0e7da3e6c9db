package diff

import (
	"math"
	"strings"
)

// newlinePlaceholder keeps newlines alive while text is diffed at word
// granularity. The surrounding spaces make it a word of its own.
const newlinePlaceholder = " newline_newline_newline "

// Text diffs two text blobs at word granularity and returns the result
// as marked-up HTML: insertions in bold, deletions struck through.
// It also returns the removed and added word fragments in order.
func Text(oldText, newText string) (html string, removed, added []string) {
	oldText = strings.ReplaceAll(oldText, "\n", newlinePlaceholder)
	newText = strings.ReplaceAll(newText, "\n", newlinePlaceholder)

	oldWords := strings.Split(oldText, " ")
	newWords := strings.Split(newText, " ")

	ops := Tokens(oldWords, newWords)

	out := make([]string, 0, len(ops))
	for _, op := range ops {
		token := op.Token
		if token == "" {
			continue
		}
		switch op.Tag {
		case Insert:
			added = append(added, restoreNewlines(token))
			token = `<span style="font-weight: bold;"> ` + token + ` </span>`
		case Delete:
			removed = append(removed, restoreNewlines(token))
			token = `<span style="text-decoration: line-through;"> ` + token + ` </span>`
		}
		out = append(out, token)
	}

	html = strings.Join(out, " ")
	html = strings.ReplaceAll(html, strings.TrimSpace(newlinePlaceholder), "\n")
	return html, removed, added
}

func restoreNewlines(s string) string {
	return strings.ReplaceAll(s, strings.TrimSpace(newlinePlaceholder), "\n")
}

// CharacterSimilarity calculates the similarity between two strings at
// character granularity as a percentage. 100 means identical, 0 means
// completely different. Malformed input never propagates an error:
// similarity scoring is a best-effort heuristic, so any failure counts
// as no similarity at all.
func CharacterSimilarity(oldText, newText string) (percentage int) {
	defer func() {
		if recover() != nil {
			percentage = 0
		}
	}()
	oldChars := splitCharacters(oldText)
	newChars := splitCharacters(newText)
	return similarity(oldChars, newChars)
}

// WordSimilarity calculates the similarity between two strings at word
// granularity as a percentage.
func WordSimilarity(oldText, newText string) int {
	oldWords := strings.Split(strings.ReplaceAll(oldText, "\n", " "), " ")
	newWords := strings.Split(strings.ReplaceAll(newText, "\n", " "), " ")
	return similarity(oldWords, newWords)
}

func similarity(oldTokens, newTokens []string) int {
	ops := Tokens(oldTokens, newTokens)
	elements := 0
	similar := 0
	for _, op := range ops {
		elements++
		if op.Tag == Equal {
			similar++
		}
	}
	if elements == 0 {
		return 100
	}
	return int(math.Round(100 * float64(similar) / float64(elements)))
}

func splitCharacters(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}
