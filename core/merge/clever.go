package merge

import (
	"strconv"
	"strings"

	"github.com/davidrees/scriptorium/core/usfm"
)

// runClever merges USFM data per verse after the whole-text merge
// failed at every granularity. Each verse found in the changed text is
// merged independently, so a conflict in one verse no longer blocks the
// rest of the chapter.
func runClever(base, change, prioritized string, conflicts *[]Conflict) string {
	verses := usfm.GetVerseNumbers(change)

	var results []string
	var previousChange string

	for _, verse := range verses {
		baseText := usfm.GetVerseText(base, verse)
		changeText := usfm.GetVerseText(change, verse)
		prioritizedText := usfm.GetVerseText(prioritized, verse)

		// Combined verses share one content block; merge it once.
		if changeText == previousChange {
			continue
		}
		previousChange = changeText

		// A fragment not longer than its bare verse marker carries no
		// content. The threshold follows the actual marker for this
		// verse number, "\v N ".
		emptyLength := len(`\v `) + len(strconv.Itoa(verse)) + 1
		baseEmpty := len(baseText) <= emptyLength
		changeEmpty := len(changeText) <= emptyLength
		prioritizedEmpty := len(prioritizedText) <= emptyLength

		// If the prioritized change has nothing for this verse while
		// both other texts do, let it follow the change. Otherwise the
		// merge would discard real content in favor of the empty
		// prioritized verse.
		if prioritizedEmpty && !baseEmpty && !changeEmpty {
			prioritizedText = changeText
		}

		// Merge with the clever flag cleared to guard against
		// re-entering this routine.
		result := Run(baseText, changeText, prioritizedText, false, conflicts)
		results = append(results, result)
	}

	return strings.Join(results, "\n")
}
