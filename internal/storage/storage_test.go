package storage

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const testChapter = "\\c 1\n\\p\n\\v 1 In the beginning God created the heavens and the earth.\n\\v 2 And the earth was without form."

func TestGetChapterMissing(t *testing.T) {
	s := testStore(t)
	got, err := s.GetChapter("demo", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("GetChapter on missing chapter = %q; want empty", got)
	}
}

func TestStoreChapterRoundTrip(t *testing.T) {
	s := testStore(t)
	revision, err := s.StoreChapter("demo", 1, 1, testChapter, time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if revision == "" {
		t.Fatal("StoreChapter returned empty revision")
	}

	got, err := s.GetChapter("demo", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != testChapter {
		t.Errorf("GetChapter = %q; want stored text", got)
	}

	id, err := s.ChapterID("demo", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if id != revision {
		t.Errorf("ChapterID = %q; want %q", id, revision)
	}
}

func TestStoreChapterBumpsRevision(t *testing.T) {
	s := testStore(t)
	first, err := s.StoreChapter("demo", 1, 1, testChapter, time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.StoreChapter("demo", 1, 1, testChapter+"\n\\v 3 More.", time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("revision did not change on second store")
	}
}

func TestSafelyStoreVerse(t *testing.T) {
	s := testStore(t)
	if _, err := s.StoreChapter("demo", 1, 1, testChapter, time.Now().Unix()); err != nil {
		t.Fatal(err)
	}

	edited := "\\p\n\\v 1 In the beginning God created the heavens and the earth indeed."
	message, explanation, err := s.SafelyStoreVerse("alice", "demo", 1, 1, 1, edited, time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if message != "" {
		t.Fatalf("save refused: %s (%s)", message, explanation)
	}

	got, err := s.GetChapter("demo", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "earth indeed.") {
		t.Errorf("verse edit not stored: %q", got)
	}
	if !strings.Contains(got, "\\v 2 And the earth was without form.") {
		t.Errorf("other verse damaged: %q", got)
	}
}

func TestSafelyStoreVerseMismatch(t *testing.T) {
	s := testStore(t)
	if _, err := s.StoreChapter("demo", 1, 1, testChapter, time.Now().Unix()); err != nil {
		t.Fatal(err)
	}

	message, _, err := s.SafelyStoreVerse("alice", "demo", 1, 1, 1, "\\v 2 Wrong verse.", time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if message != "Verse mismatch" {
		t.Errorf("message = %q; want Verse mismatch", message)
	}
}

func TestSafelyStoreVerseMissingNumber(t *testing.T) {
	s := testStore(t)
	if _, err := s.StoreChapter("demo", 1, 1, testChapter, time.Now().Unix()); err != nil {
		t.Fatal(err)
	}

	message, _, err := s.SafelyStoreVerse("alice", "demo", 1, 1, 1, "no verse markers here", time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if message != "Missing verse number" {
		t.Errorf("message = %q; want Missing verse number", message)
	}
}

func TestSafelyStoreVerseRefusesLargeChange(t *testing.T) {
	s := testStore(t)
	if _, err := s.StoreChapter("demo", 1, 1, testChapter, time.Now().Unix()); err != nil {
		t.Fatal(err)
	}

	huge := "\\p\n\\v 1 " + strings.Repeat("completely different text ", 30)
	message, explanation, err := s.SafelyStoreVerse("alice", "demo", 1, 1, 1, huge, time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if message != "Text length differs too much" {
		t.Errorf("message = %q (%s); want length refusal", message, explanation)
	}

	// The chapter must be untouched.
	got, err := s.GetChapter("demo", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != testChapter {
		t.Error("refused save still modified the chapter")
	}
}

func TestSafelyStoreVerseNoOp(t *testing.T) {
	s := testStore(t)
	if _, err := s.StoreChapter("demo", 1, 1, testChapter, time.Now().Unix()); err != nil {
		t.Fatal(err)
	}
	before, _ := s.ChapterID("demo", 1, 1)

	existing := "\\p\n\\v 1 In the beginning God created the heavens and the earth."
	message, _, err := s.SafelyStoreVerse("alice", "demo", 1, 1, 1, existing, time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if message != "" {
		t.Errorf("no-op save refused: %q", message)
	}

	after, _ := s.ChapterID("demo", 1, 1)
	if before != after {
		t.Error("no-op save changed the revision")
	}
}

func TestSafelyStoreChapterRefusesLargeChange(t *testing.T) {
	s := testStore(t)
	if _, err := s.StoreChapter("demo", 1, 1, testChapter, time.Now().Unix()); err != nil {
		t.Fatal(err)
	}

	message, _, err := s.SafelyStoreChapter("alice", "demo", 1, 1, "\\c 1\n\\p\n\\v 1 Nothing alike.", time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if message == "" {
		t.Error("expected the chapter save to be refused")
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	s := testStore(t)
	if err := s.RecordUserSave("alice", "demo", 1, 1, testChapter, "rev-1"); err != nil {
		t.Fatal(err)
	}

	entries, err := s.History("demo", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d; want 1", len(entries))
	}
	e := entries[0]
	if e.OldUsfm != testChapter {
		t.Errorf("OldUsfm = %q; want original chapter", e.OldUsfm)
	}
	if e.User != "alice" || e.NewRevision != "rev-1" {
		t.Errorf("entry = %+v", e)
	}
}
