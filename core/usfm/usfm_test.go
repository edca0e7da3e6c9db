package usfm

import (
	"reflect"
	"testing"
)

func TestMarkersAndText(t *testing.T) {
	got := MarkersAndText("\\id GEN\n\\c 10\n\\v 1 In the beginning")
	want := []string{`\id `, "GEN", `\c `, "10", `\v `, "1 In the beginning"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MarkersAndText = %q; want %q", got, want)
	}
}

func TestMarkersAndTextClosingMarker(t *testing.T) {
	got := MarkersAndText(`\v 1 word \add addition\add* more`)
	want := []string{`\v `, "1 word ", `\add `, "addition", `\add*`, " more"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MarkersAndText = %q; want %q", got, want)
	}
}

func TestMarker(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`\id`, "id"},
		{`\id `, "id"},
		{`\add*`, "add"},
		{`\+add*`, "add"},
		{"plain text", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Marker(tc.in); got != tc.want {
			t.Errorf("Marker(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetVerseNumbers(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []int
	}{
		{"single", "\\v 10 text", []int{0, 10}},
		{"range", "\\v 10-12b text", []int{0, 10, 11, 12}},
		{"sequence", "\\v 10,11a text", []int{0, 10, 11}},
		{"gapped sequence", "\\v 10,12 text", []int{0, 10, 12}},
		{"several markers", "\\v 1 one\n\\v 2 two\n\\v 3 three", []int{0, 1, 2, 3}},
		{"no markers", "\\p plain paragraph", []int{0}},
		{"published verse ignored", "\\vp 1b text", []int{0}},
		{"alternate verse ignored", "\\va 2 text", []int{0}},
		{"no space after number", "\\v 1-2“Moi", []int{0, 1, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GetVerseNumbers(tc.code)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("GetVerseNumbers(%q) = %v; want %v", tc.code, got, tc.want)
			}
		})
	}
}

func TestGetChapterNumbers(t *testing.T) {
	got := GetChapterNumbers("\\c 1\n\\v 1 one\n\\c 2\n\\v 1 one again")
	want := []int{0, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetChapterNumbers = %v; want %v", got, want)
	}
}

func TestGetVerseText(t *testing.T) {
	chapter := "\\c 1\n\\p\n\\v 1 In the beginning.\n\\v 2 And the earth was empty.\n\\v 3 And God said."

	tests := []struct {
		verse int
		want  string
	}{
		{0, "\\c 1\n\\p"},
		{1, "\\v 1 In the beginning."},
		{2, "\\v 2 And the earth was empty."},
		{3, "\\v 3 And God said."},
		{4, ""},
	}
	for _, tc := range tests {
		if got := GetVerseText(chapter, tc.verse); got != tc.want {
			t.Errorf("GetVerseText(verse %d) = %q; want %q", tc.verse, got, tc.want)
		}
	}
}

func TestGetVerseTextCombined(t *testing.T) {
	chapter := "\\v 1 One.\n\\v 2-3 Two and three together.\n\\v 4 Four."
	for _, verse := range []int{2, 3} {
		got := GetVerseText(chapter, verse)
		want := "\\v 2-3 Two and three together."
		if got != want {
			t.Errorf("GetVerseText(verse %d) = %q; want %q", verse, got, want)
		}
	}
}

func TestGetVerseTextQuill(t *testing.T) {
	chapter := "\\c 1\n\\p\n\\v 1 In the beginning.\n\\v 2 And the earth was empty.\n\\q1\n\\v 3 And God said."

	tests := []struct {
		verse int
		want  string
	}{
		// The bare paragraph markers move to the verse they open.
		{0, "\\c 1"},
		{1, "\\p\n\\v 1 In the beginning."},
		{2, "\\v 2 And the earth was empty."},
		{3, "\\q1\n\\v 3 And God said."},
		{4, ""},
	}
	for _, tc := range tests {
		if got := GetVerseTextQuill(chapter, tc.verse); got != tc.want {
			t.Errorf("GetVerseTextQuill(verse %d) = %q; want %q", tc.verse, got, tc.want)
		}
	}
}

func TestGetVerseTextQuillCombined(t *testing.T) {
	chapter := "\\p\n\\v 1 One.\n\\v 2-3 Two and three together.\n\\v 4 Four."
	for _, verse := range []int{2, 3} {
		got := GetVerseTextQuill(chapter, verse)
		want := "\\v 2-3 Two and three together."
		if got != want {
			t.Errorf("GetVerseTextQuill(verse %d) = %q; want %q", verse, got, want)
		}
	}
}

func TestExpandVerseExpression(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"10", []int{10}},
		{"10b", []int{10}},
		{"10-12", []int{10, 11, 12}},
		{"10,11a", []int{10, 11}},
		{"", nil},
	}
	for _, tc := range tests {
		got := expandVerseExpression(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("expandVerseExpression(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
}
