package merge

import (
	"github.com/davidrees/scriptorium/core/diff"
)

// chunk is a contiguous region of the base together with one side's
// replacement tokens for that region.
type chunk struct {
	baseStart, baseEnd int // range [baseStart, baseEnd) in base
	tokens             []string
	changed            bool
}

// Sequences performs a three-way merge of token sequences. Both sides
// are aligned against the base; non-overlapping edits are taken from
// either side and identical edits collapse. When the two sides change
// the same base region differently the merge fails and ok is false:
// the caller escalates to a finer granularity instead of emitting
// conflict markers.
func Sequences(base, change, prioritized []string) (merged []string, ok bool) {
	changeChunks := buildChunks(base, change)
	prioritizedChunks := buildChunks(base, prioritized)
	return mergeChunks(changeChunks, prioritizedChunks)
}

// buildChunks converts a two-way diff (base → side) into a list of
// chunks. Each chunk covers a contiguous range of base tokens and
// carries the corresponding replacement tokens from the side.
func buildChunks(base, side []string) []chunk {
	ops := diff.Tokens(base, side)

	var chunks []chunk
	baseIdx := 0

	i := 0
	for i < len(ops) {
		op := ops[i]

		if op.Tag == diff.Equal {
			chunks = append(chunks, chunk{
				baseStart: baseIdx,
				baseEnd:   baseIdx + 1,
				tokens:    []string{op.Token},
			})
			baseIdx++
			i++
			continue
		}

		// Accumulate a contiguous changed region.
		chunkStart := baseIdx
		var sideTokens []string
		for i < len(ops) && ops[i].Tag != diff.Equal {
			if ops[i].Tag == diff.Delete {
				baseIdx++
			} else {
				sideTokens = append(sideTokens, ops[i].Token)
			}
			i++
		}

		chunks = append(chunks, chunk{
			baseStart: chunkStart,
			baseEnd:   baseIdx,
			tokens:    sideTokens,
			changed:   true,
		})
	}

	return chunks
}

// mergeChunks walks the two chunk sequences in parallel, aligned by
// base positions.
func mergeChunks(changeChunks, prioritizedChunks []chunk) ([]string, bool) {
	var merged []string

	ci := 0
	pi := 0

	for ci < len(changeChunks) || pi < len(prioritizedChunks) {
		var cc, pc *chunk
		if ci < len(changeChunks) {
			cc = &changeChunks[ci]
		}
		if pi < len(prioritizedChunks) {
			pc = &prioritizedChunks[pi]
		}

		if cc == nil {
			merged = append(merged, pc.tokens...)
			pi++
			continue
		}
		if pc == nil {
			merged = append(merged, cc.tokens...)
			ci++
			continue
		}

		if cc.baseStart == pc.baseStart && cc.baseEnd == pc.baseEnd {
			// Aligned chunks over the same base region.
			switch {
			case !cc.changed && !pc.changed:
				merged = append(merged, cc.tokens...)
			case cc.changed && !pc.changed:
				merged = append(merged, cc.tokens...)
			case !cc.changed && pc.changed:
				merged = append(merged, pc.tokens...)
			default:
				if !tokensEqual(cc.tokens, pc.tokens) {
					return nil, false
				}
				merged = append(merged, cc.tokens...)
			}
			ci++
			pi++
			continue
		}

		// Misaligned chunks: one side's change spans several of the
		// other side's base-aligned chunks. Gather the full
		// overlapping region from both sides.
		regionEnd := max(cc.baseEnd, pc.baseEnd)

		var changeRegion []chunk
		for ci < len(changeChunks) && changeChunks[ci].baseStart < regionEnd {
			changeRegion = append(changeRegion, changeChunks[ci])
			if changeChunks[ci].baseEnd > regionEnd {
				regionEnd = changeChunks[ci].baseEnd
			}
			ci++
		}
		var prioritizedRegion []chunk
		for pi < len(prioritizedChunks) && prioritizedChunks[pi].baseStart < regionEnd {
			prioritizedRegion = append(prioritizedRegion, prioritizedChunks[pi])
			if prioritizedChunks[pi].baseEnd > regionEnd {
				regionEnd = prioritizedChunks[pi].baseEnd
			}
			pi++
		}

		changeOut := assembleRegion(changeRegion)
		prioritizedOut := assembleRegion(prioritizedRegion)

		switch {
		case !anyChanged(changeRegion) && !anyChanged(prioritizedRegion):
			merged = append(merged, changeOut...)
		case anyChanged(changeRegion) && !anyChanged(prioritizedRegion):
			merged = append(merged, changeOut...)
		case !anyChanged(changeRegion) && anyChanged(prioritizedRegion):
			merged = append(merged, prioritizedOut...)
		default:
			if !tokensEqual(changeOut, prioritizedOut) {
				return nil, false
			}
			merged = append(merged, changeOut...)
		}
	}

	return merged, true
}

func assembleRegion(chunks []chunk) []string {
	var tokens []string
	for _, c := range chunks {
		tokens = append(tokens, c.tokens...)
	}
	return tokens
}

func anyChanged(chunks []chunk) bool {
	for _, c := range chunks {
		if c.changed {
			return true
		}
	}
	return false
}

func tokensEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
