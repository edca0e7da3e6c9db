package usfm

import (
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// verseExpr is the participle grammar for verse number expressions as
// they appear after a \v marker.
// Examples: "10", "10b", "10-12b", "10,11a", "10,12"
//
//nolint:govet // participle grammar tags are not standard struct tags
type verseExpr struct {
	First verseRef    `@@`
	Tail  []verseTail `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type verseTail struct {
	Sep   string   `@Sep`
	Verse verseRef `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type verseRef struct {
	Number int    `@Int`
	Suffix string `@Suffix?`
}

// verseLexer tokenizes verse expressions. Suffixes are the "a"/"b"
// sub-verse letters; separators distinguish ranges from sequences.
var verseLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Suffix", Pattern: `[ab]`},
	{Name: "Sep", Pattern: `[-,]`},
})

var verseParser = participle.MustBuild[verseExpr](
	participle.Lexer(verseLexer),
)

// expandVerseExpression expands a verse number expression into whole
// verse numbers: a range "10-12b" yields 10, 11, 12; a sequence
// "10,12" yields 10, 12; a single verse yields itself.
func expandVerseExpression(expr string) []int {
	if expr == "" {
		return nil
	}

	parsed, err := verseParser.ParseString("", expr)
	if err != nil {
		// Fall back to the leading whole number for unusual
		// formations the grammar does not cover.
		if n, convErr := strconv.Atoi(leadingDigits(expr)); convErr == nil {
			return []int{n}
		}
		return nil
	}

	verses := []int{parsed.First.Number}
	last := parsed.First.Number
	for _, tail := range parsed.Tail {
		if tail.Sep == "-" {
			for v := last + 1; v <= tail.Verse.Number; v++ {
				verses = append(verses, v)
			}
		} else {
			verses = append(verses, tail.Verse.Number)
		}
		last = tail.Verse.Number
	}
	return verses
}

func leadingDigits(s string) string {
	i := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
	}
	return s[:i]
}
