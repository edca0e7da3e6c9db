// Package merge reconciles concurrent edits to USFM text with a
// three-way merge. It aligns a user's change and the server's
// prioritized change against the base the editor loaded, escalating
// from line to word to grapheme granularity when a coarse merge fails,
// with an optional per-verse fallback for structured content. In case
// of total failure the prioritized change wins and a conflict is
// recorded for human adjudication.
package merge

import (
	"strings"

	"github.com/davidrees/scriptorium/core/text"
)

// Conflict records a merge anomaly with enough context for a human to
// adjudicate it later. Book and Chapter are attached by the caller via
// AddBookChapter.
type Conflict struct {
	Base        string
	Change      string
	Prioritized string
	Result      string
	Subject     string
	Book        int
	Chapter     int
}

// level is one granularity the merge engine can operate at. The encode
// transform rewrites a text blob so a line-oriented merge works at a
// finer boundary; decode is its inverse.
type level struct {
	encode func(string) string
	decode func(string) string
}

// levels are tried in order. Most real edits are disjoint at line
// granularity; the word and grapheme levels exist to resolve edits to
// the same line.
var levels = []level{
	{encode: identity, decode: identity},
	{encode: text.ToWords, decode: text.FromWords},
	{encode: text.ToGraphemes, decode: text.FromGraphemes},
}

func identity(s string) string { return s }

// Run merges base, change and prioritized into one text.
// base is the text the editor loaded, change is the user's edit, and
// prioritized is the text currently on the server, which wins on
// conflict. When clever is set and all granularities fail, the merge is
// retried independently per verse. Detected anomalies are appended to
// conflicts; the function always returns a usable result.
func Run(base, change, prioritized string, clever bool, conflicts *[]Conflict) string {
	base = text.Trim(base)
	change = text.Trim(change)
	prioritized = text.Trim(prioritized)

	for _, lv := range levels {
		merged, ok := Sequences(
			explode(lv.encode(base)),
			explode(lv.encode(change)),
			explode(lv.encode(prioritized)),
		)
		if !ok || len(merged) == 0 {
			continue
		}
		result := lv.decode(strings.Join(merged, "\n"))
		Detect(base, change, prioritized, result, conflicts)
		return result
	}

	if clever {
		// All granularities failed: retry the merge per verse.
		result := runClever(base, change, prioritized, conflicts)
		Detect(base, change, prioritized, result, conflicts)
		return result
	}

	// The data could not be merged no matter how hard it was tried.
	// The prioritized change wins, and that is detected as a conflict.
	Detect(base, change, prioritized, prioritized, conflicts)
	return prioritized
}

// explode splits a text blob into lines. An empty blob yields no lines,
// which makes a merge of all-empty inputs fail and escalate rather than
// succeed vacuously.
func explode(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// AddBookChapter tags every conflict in the list with its location.
func AddBookChapter(conflicts []Conflict, book, chapter int) {
	for i := range conflicts {
		conflicts[i].Book = book
		conflicts[i].Chapter = chapter
	}
}
