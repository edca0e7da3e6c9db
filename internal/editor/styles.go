// Package editor converts between USFM and the Quill-flavored HTML the
// web editors hold, and computes the position-tagged update operations
// that patch an open editor after a save.
package editor

// Quill is fussy about class names: it accepts one hyphen but not two,
// so block and inline styles get a short prefix and stacked character
// styles are joined with "0" instead of a space.
const (
	classPrefixBlock  = "b-"
	classPrefixInline = "i-"
	styleSeparator    = "0"
)

// monoStyle renders markers the converter has no style for as plain
// USFM in a monospace paragraph, so nothing is lost on a round trip.
const monoStyle = "mono"

const verseStyle = "v"

// paragraphMarkers are the USFM markers that start a new paragraph in
// the editor. Chapter numbers and identifiers get a paragraph of their
// own as well.
var paragraphMarkers = map[string]bool{
	"id": true, "h": true, "toc1": true, "toc2": true, "toc3": true,
	"mt": true, "mt1": true, "mt2": true, "mt3": true,
	"ms": true, "ms1": true, "mr": true,
	"s": true, "s1": true, "s2": true, "s3": true, "r": true,
	"c": true, "d": true, "sp": true, "cl": true,
	"p": true, "m": true, "po": true, "pr": true, "cls": true,
	"pi": true, "pi1": true, "pi2": true, "mi": true, "nb": true,
	"q": true, "q1": true, "q2": true, "q3": true, "qr": true, "qc": true,
	"b": true, "pc": true,
	"li": true, "li1": true, "li2": true, "li3": true,
}

// characterMarkers are the inline character styles the editor shows as
// styled spans.
var characterMarkers = map[string]bool{
	"add": true, "nd": true, "wj": true, "qt": true, "sig": true,
	"it": true, "bd": true, "bdit": true, "em": true, "sc": true,
	"qs": true, "qac": true, "k": true, "tl": true, "sls": true,
	"w": true, "pn": true, "ord": true, "no": true,
}
