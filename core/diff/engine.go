// Package diff computes shortest edit scripts over token sequences and
// the translations the editors need: marked-up text diffs, similarity
// percentages, and UTF-16 position-tagged patches for the remote
// rich-text editor.
package diff

import (
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Tag classifies an operation in an edit script.
type Tag int

const (
	Equal  Tag = iota // Token is unchanged between old and new.
	Insert            // Token is present in new only.
	Delete            // Token is present in old only.
)

// Op is a single operation in an edit script. Replaying the script in
// order, keeping Equal tokens, applying Insert tokens and skipping
// Delete tokens, reconstructs the new sequence exactly.
type Op struct {
	Tag   Tag
	Token string
}

// engineMu serializes every call into the diffmatchpatch engine.
// The library has not been proven safe for concurrent invocation with
// our usage pattern, and diff/merge work is short compared to the
// request I/O around it, so one process-wide lock is acceptable.
// Do not remove the lock without verifying reentrancy.
var engineMu sync.Mutex

// Tokens computes the shortest edit script transforming oldTokens into
// newTokens. Tokens may be lines, words, graphemes or any other ordered
// string sequence; they must not contain newlines.
func Tokens(oldTokens, newTokens []string) []Op {
	engineMu.Lock()
	defer engineMu.Unlock()
	return tokensLocked(oldTokens, newTokens)
}

func tokensLocked(oldTokens, newTokens []string) []Op {
	oldText := encodeTokens(oldTokens)
	newText := encodeTokens(newTokens)

	// Map each token to a single rune so the engine compares whole
	// tokens, then decode the runes back through the token table.
	dmp := diffmatchpatch.New()
	rOld, rNew, tokenTable := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	var ops []Op
	for _, d := range diffs {
		var tag Tag
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			tag = Equal
		case diffmatchpatch.DiffInsert:
			tag = Insert
		case diffmatchpatch.DiffDelete:
			tag = Delete
		}
		for _, r := range d.Text {
			idx := int(r)
			if idx <= 0 || idx >= len(tokenTable) {
				continue
			}
			token := strings.TrimSuffix(tokenTable[idx], "\n")
			ops = append(ops, Op{Tag: tag, Token: token})
		}
	}
	return ops
}

// encodeTokens renders a token sequence as newline-terminated lines,
// the representation DiffLinesToRunes maps through its token table.
func encodeTokens(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	return b.String()
}
