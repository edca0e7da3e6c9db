package diff

import (
	"strings"
	"sync"
	"testing"
)

// replay applies an edit script the way a patch consumer would: keep
// equal tokens, apply inserts, skip deletes.
func replay(ops []Op) []string {
	var out []string
	for _, op := range ops {
		if op.Tag == Delete {
			continue
		}
		out = append(out, op.Token)
	}
	return out
}

func TestTokensReplayReconstructsNew(t *testing.T) {
	tests := []struct {
		name     string
		old, new []string
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"insertion", []string{"a", "c"}, []string{"a", "b", "c"}},
		{"deletion", []string{"a", "b", "c"}, []string{"a", "c"}},
		{"replacement", []string{"a", "b", "c"}, []string{"a", "x", "c"}},
		{"disjoint", []string{"a", "b"}, []string{"x", "y"}},
		{"empty old", nil, []string{"a", "b"}},
		{"empty new", []string{"a", "b"}, nil},
		{"both empty", nil, nil},
		{"repeated tokens", []string{"a", "a", "a"}, []string{"a", "a"}},
		{"unicode", []string{"Ἐν", "ἀρχῇ"}, []string{"Ἐν", "τέλει"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ops := Tokens(tc.old, tc.new)
			got := replay(ops)
			if strings.Join(got, "\x00") != strings.Join(tc.new, "\x00") {
				t.Errorf("replay = %q; want %q", got, tc.new)
			}
		})
	}
}

func TestTokensDeterministic(t *testing.T) {
	old := []string{"the", "cat", "sat", "on", "the", "mat"}
	new := []string{"the", "dog", "sat", "on", "a", "mat"}
	first := Tokens(old, new)
	for i := 0; i < 10; i++ {
		again := Tokens(old, new)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d ops; want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: op %d = %+v; want %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestTokensConcurrentCallers(t *testing.T) {
	// The engine is serialized behind a single mutex; concurrent
	// callers must each get a correct script.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			old := []string{"a", "b", "c", "d"}
			new := []string{"a", "x", "c", "y"}
			ops := Tokens(old, new)
			got := replay(ops)
			if strings.Join(got, " ") != "a x c y" {
				t.Errorf("replay = %q", got)
			}
		}()
	}
	wg.Wait()
}

func TestTextMarkup(t *testing.T) {
	html, removed, added := Text("The cat sat", "The dog sat")
	if !strings.Contains(html, `<span style="font-weight: bold;"> dog </span>`) {
		t.Errorf("missing bold insertion markup in %q", html)
	}
	if !strings.Contains(html, `<span style="text-decoration: line-through;"> cat </span>`) {
		t.Errorf("missing strikethrough deletion markup in %q", html)
	}
	if len(removed) != 1 || removed[0] != "cat" {
		t.Errorf("removed = %q; want [cat]", removed)
	}
	if len(added) != 1 || added[0] != "dog" {
		t.Errorf("added = %q; want [dog]", added)
	}
}

func TestTextPreservesNewlines(t *testing.T) {
	html, _, _ := Text("one\ntwo", "one\ntwo three")
	if !strings.Contains(html, "\n") {
		t.Errorf("newline not restored in %q", html)
	}
}

func TestCharacterSimilarity(t *testing.T) {
	tests := []struct {
		old, new string
		want     int
	}{
		{"abcd", "abcd", 100},
		{"", "", 100},
		{"abcd", "wxyz", 0},
	}
	for _, tc := range tests {
		if got := CharacterSimilarity(tc.old, tc.new); got != tc.want {
			t.Errorf("CharacterSimilarity(%q, %q) = %d; want %d", tc.old, tc.new, got, tc.want)
		}
	}
	// Partial overlap lands strictly between the extremes.
	got := CharacterSimilarity("abcdefgh", "abcdwxyz")
	if got <= 0 || got >= 100 {
		t.Errorf("CharacterSimilarity partial = %d; want between 0 and 100", got)
	}
}

func TestWordSimilarity(t *testing.T) {
	if got := WordSimilarity("the cat sat", "the cat sat"); got != 100 {
		t.Errorf("identical = %d; want 100", got)
	}
	got := WordSimilarity("the cat sat", "the dog sat")
	if got <= 0 || got >= 100 {
		t.Errorf("one word changed = %d; want between 0 and 100", got)
	}
}

func TestUTF16Sizes(t *testing.T) {
	// Inserting a BMP character reports size 1.
	p := UTF16([]string{"a"}, []string{"a", "x"})
	if p.Len() != 1 {
		t.Fatalf("ops = %d; want 1", p.Len())
	}
	if !p.Additions[0] || p.Sizes[0] != 1 {
		t.Errorf("insert x: addition=%v size=%d; want true, 1", p.Additions[0], p.Sizes[0])
	}
	if p.Positions[0] != 1 {
		t.Errorf("insert x: position=%d; want 1", p.Positions[0])
	}

	// A character outside the BMP occupies a surrogate pair.
	p = UTF16([]string{"a"}, []string{"a", "😀"})
	if p.Len() != 1 {
		t.Fatalf("ops = %d; want 1", p.Len())
	}
	if p.Sizes[0] != 2 {
		t.Errorf("insert 😀: size=%d; want 2", p.Sizes[0])
	}
}

func TestUTF16PositionsAdvancePastWideCharacters(t *testing.T) {
	// The astral character before the insertion point counts as two
	// UTF-16 code units.
	p := UTF16([]string{"😀", "b"}, []string{"😀", "b", "c"})
	if p.Len() != 1 {
		t.Fatalf("ops = %d; want 1", p.Len())
	}
	if p.Positions[0] != 3 {
		t.Errorf("position = %d; want 3", p.Positions[0])
	}
}

func TestUTF16DeleteDoesNotAdvance(t *testing.T) {
	p := UTF16([]string{"a", "b", "c"}, []string{"a", "c"})
	if p.Len() != 1 {
		t.Fatalf("ops = %d; want 1", p.Len())
	}
	if p.Additions[0] {
		t.Error("expected a delete operation")
	}
	if p.Positions[0] != 1 {
		t.Errorf("position = %d; want 1", p.Positions[0])
	}
}

func TestUTF16NewlineDiffCount(t *testing.T) {
	p := UTF16([]string{"a"}, []string{"a", "\np"})
	if p.NewlineDiffs != 1 {
		t.Errorf("NewlineDiffs = %d; want 1", p.NewlineDiffs)
	}
	if p.Content[0] != "\np" {
		t.Errorf("content = %q; want %q", p.Content[0], "\np")
	}
}

func TestUTF16PositionsMonotonic(t *testing.T) {
	old := []string{"a", "b", "c", "d", "e"}
	new := []string{"a", "x", "c", "y", "e", "z"}
	p := UTF16(old, new)
	last := -1
	for i, pos := range p.Positions {
		if pos < last {
			t.Errorf("op %d: position %d after %d; want non-decreasing", i, pos, last)
		}
		last = pos
	}
}

func TestUTF16FormatMetadataDoesNotCount(t *testing.T) {
	// Elements carry format metadata after the first character; only
	// the character itself occupies editor positions.
	old := []string{"aBOLD", "bBOLD"}
	new := []string{"aBOLD", "bBOLD", "cBOLD"}
	p := UTF16(old, new)
	if p.Len() != 1 {
		t.Fatalf("ops = %d; want 1", p.Len())
	}
	if p.Positions[0] != 2 {
		t.Errorf("position = %d; want 2", p.Positions[0])
	}
	if p.Content[0] != "cBOLD" {
		t.Errorf("content = %q; want %q", p.Content[0], "cBOLD")
	}
}
