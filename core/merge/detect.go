package merge

import (
	"github.com/davidrees/scriptorium/core/text"
)

// Anomaly subjects, in detection priority order.
const (
	SubjectNoBase        = "There was no text to base the merge upon"
	SubjectNoChange      = "There was no changed text to merge with"
	SubjectNoPrioritized = "There was no existing text to merge with"
	SubjectEmptyResult   = "The merge resulted in empty text"
	SubjectChangeDropped = "Failed to merge your changes"
)

// Detect inspects a base/change/prioritized/result quadruple for
// heuristic anomalies and appends at most one conflict. The conditions
// are evaluated in priority order and the first match wins; later
// conditions that also hold are not recorded.
func Detect(base, change, prioritized, result string, conflicts *[]Conflict) {
	base = text.Trim(base)
	change = text.Trim(change)
	prioritized = text.Trim(prioritized)
	result = text.Trim(result)

	var subject string
	switch {
	case base == "":
		subject = SubjectNoBase
	case change == "":
		subject = SubjectNoChange
	case prioritized == "":
		subject = SubjectNoPrioritized
	case result == "":
		subject = SubjectEmptyResult
	case change != base && prioritized != change && prioritized == result:
		// The user's edit was silently dropped in favor of the
		// server's version.
		subject = SubjectChangeDropped
	default:
		return
	}

	*conflicts = append(*conflicts, Conflict{
		Base:        base,
		Change:      change,
		Prioritized: prioritized,
		Result:      result,
		Subject:     subject,
	})
}
