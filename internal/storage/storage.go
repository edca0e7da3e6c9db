// Package storage persists Bible chapters and their change history in
// SQLite. Every save runs through safety checks that refuse text
// differing too much from what is already stored, so a corrupted
// editor cannot silently destroy a chapter.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/davidrees/scriptorium/core/diff"
	"github.com/davidrees/scriptorium/core/errors"
	"github.com/davidrees/scriptorium/core/sqlite"
	"github.com/davidrees/scriptorium/core/text"
	"github.com/davidrees/scriptorium/core/usfm"
	"github.com/davidrees/scriptorium/internal/logging"
)

// Allowed percentage difference between the stored text and the text
// being saved. A verse editor may legitimately replace a whole short
// verse, so it gets more slack than a chapter save.
const (
	allowedDifferenceChapter = 20
	allowedDifferenceVerse   = 75
)

// Store is the SQLite-backed chapter store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and prepares the schema.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database handle and prepares the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle so the access and notification
// collaborators can share one database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS chapters (
			bible    TEXT    NOT NULL,
			book     INTEGER NOT NULL,
			chapter  INTEGER NOT NULL,
			usfm     TEXT    NOT NULL,
			revision TEXT    NOT NULL,
			modified INTEGER NOT NULL,
			PRIMARY KEY (bible, book, chapter)
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			id          TEXT PRIMARY KEY,
			user        TEXT    NOT NULL,
			bible       TEXT    NOT NULL,
			book        INTEGER NOT NULL,
			chapter     INTEGER NOT NULL,
			oldusfm     BLOB    NOT NULL,
			newrevision TEXT    NOT NULL,
			saved       INTEGER NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.NewIO("migrate", "storage schema", err)
		}
	}
	return nil
}

// GetChapter returns the stored USFM for a chapter, or an empty string
// when the chapter does not exist yet.
func (s *Store) GetChapter(bible string, book, chapter int) (string, error) {
	var code string
	err := s.db.QueryRow(
		`SELECT usfm FROM chapters WHERE bible = ? AND book = ? AND chapter = ?`,
		bible, book, chapter).Scan(&code)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewIO("read", chapterKey(bible, book, chapter), err)
	}
	return code, nil
}

// ChapterID returns the revision identifier of a chapter. The
// identifier changes on every store, so editors compare it to find out
// whether the chapter changed underneath them. An empty string means
// the chapter does not exist.
func (s *Store) ChapterID(bible string, book, chapter int) (string, error) {
	var revision string
	err := s.db.QueryRow(
		`SELECT revision FROM chapters WHERE bible = ? AND book = ? AND chapter = ?`,
		bible, book, chapter).Scan(&revision)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewIO("read", chapterKey(bible, book, chapter), err)
	}
	return revision, nil
}

// StoreChapter stores the USFM for a chapter under a fresh revision
// identifier and verifies the write by reading it back. It returns the
// new revision.
func (s *Store) StoreChapter(bible string, book, chapter int, code string, modified int64) (string, error) {
	key := chapterKey(bible, book, chapter)
	revision := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", errors.NewIO("store", key, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO chapters (bible, book, chapter, usfm, revision, modified)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (bible, book, chapter) DO UPDATE SET
		   usfm = excluded.usfm,
		   revision = excluded.revision,
		   modified = excluded.modified`,
		bible, book, chapter, code, revision, modified)
	if err != nil {
		return "", errors.NewIO("store", key, err)
	}

	// Read the chapter back to be sure it arrived intact.
	var stored string
	err = tx.QueryRow(
		`SELECT usfm FROM chapters WHERE bible = ? AND book = ? AND chapter = ?`,
		bible, book, chapter).Scan(&stored)
	if err != nil {
		return "", errors.NewIO("verify", key, err)
	}
	if stored != code {
		return "", errors.NewIO("verify", key, fmt.Errorf("stored text does not match"))
	}

	if err := tx.Commit(); err != nil {
		return "", errors.NewIO("store", key, err)
	}
	return revision, nil
}

// SafelyStoreChapter saves a whole chapter if the new USFM does not
// differ too much from what is stored. On refusal it returns a short
// user-facing message plus a longer explanation; both are empty when
// the text was stored or needed no storing.
func (s *Store) SafelyStoreChapter(user, bible string, book, chapter int, code string, modified int64) (message, explanation string, err error) {
	existing, err := s.GetChapter(bible, book, chapter)
	if err != nil {
		return "", "", err
	}
	if code == existing {
		return "", "", nil
	}

	message, explanation = saveIsSafe(existing, code, true)
	if message != "" {
		logging.SaveRejected(user, bible, book, chapter, message)
		return message, explanation, nil
	}

	if _, err := s.StoreChapter(bible, book, chapter, code, modified); err != nil {
		return "", "", err
	}
	logging.SaveEvent(user, bible, book, chapter, "scope", "chapter")
	return "", "", nil
}

// SafelyStoreVerse saves a verse fragment into its chapter if it passes
// the safety checks: the fragment must belong to the requested verse,
// match the verse numbers it overwrites, and not differ too much from
// the stored text. Combined verses are handled. On refusal it returns
// a short user-facing message plus a longer explanation.
func (s *Store) SafelyStoreVerse(user, bible string, book, chapter, verse int, code string, modified int64) (message, explanation string, err error) {
	code = text.Trim(code)

	// The USFM to save must carry the verse it wants to save to.
	saveVerses := usfm.GetVerseNumbers(code)
	if verse != 0 && len(saveVerses) > 0 {
		saveVerses = saveVerses[1:]
	}
	if len(saveVerses) == 0 {
		explanation = "The USFM contains no verse information"
		logging.SaveRejected(user, bible, book, chapter, explanation)
		return "Missing verse number", explanation, nil
	}
	if !containsInt(saveVerses, verse) {
		explanation = fmt.Sprintf("The USFM contains verse(s) %s while it wants to save to verse %d",
			joinInts(saveVerses), verse)
		logging.SaveRejected(user, bible, book, chapter, explanation)
		return "Verse mismatch", explanation, nil
	}

	chapterUsfm, err := s.GetChapter(bible, book, chapter)
	if err != nil {
		return "", "", err
	}
	existingVerseUsfm := text.Trim(usfm.GetVerseTextQuill(chapterUsfm, verse))

	// The verse numbers in the fragment must match the verse numbers
	// it overwrites, or a combined verse would be clobbered.
	existingVerses := usfm.GetVerseNumbers(existingVerseUsfm)
	saveVerses = usfm.GetVerseNumbers(code)
	if !equalInts(saveVerses, existingVerses) {
		explanation = fmt.Sprintf("The USFM contains verse(s) %s which would overwrite a fragment that contains verse(s) %s",
			joinInts(saveVerses), joinInts(existingVerses))
		logging.SaveRejected(user, bible, book, chapter, explanation)
		return "Cannot overwrite another verse", explanation, nil
	}

	if code == existingVerseUsfm {
		return "", "", nil
	}

	message, explanation = saveIsSafe(existingVerseUsfm, code, false)
	if message != "" {
		logging.SaveRejected(user, bible, book, chapter, message)
		return message, explanation, nil
	}

	// Splice the new verse USFM into the chapter.
	pos := strings.Index(chapterUsfm, existingVerseUsfm)
	if pos < 0 {
		explanation = "Cannot find the exact location in the chapter where to save this USFM fragment"
		logging.SaveRejected(user, bible, book, chapter, explanation)
		return "Doesn't know where to save", explanation, nil
	}
	chapterUsfm = chapterUsfm[:pos] + code + chapterUsfm[pos+len(existingVerseUsfm):]

	if _, err := s.StoreChapter(bible, book, chapter, chapterUsfm, modified); err != nil {
		return "", "", err
	}
	logging.SaveEvent(user, bible, book, chapter, "verse", verse)
	return "", "", nil
}

// saveIsSafe checks whether replacing oldText with newText stays within
// the allowed difference. It returns empty strings when saving is safe,
// else a short message and a longer explanation.
func saveIsSafe(oldText, newText string, chapterScope bool) (message, explanation string) {
	if newText == oldText {
		return "", ""
	}

	const explanation1 = "The text was not saved for safety reasons."
	const explanation2 = "Make smaller changes and save more often."

	allowedPercentage := allowedDifferenceVerse
	if chapterScope {
		allowedPercentage = allowedDifferenceChapter
	}
	// An empty or nearly empty verse may be filled in completely.
	if !chapterScope && len(oldText) < 10 {
		allowedPercentage = 100
	}

	// The length should not differ more than the allowed percentage.
	if len(oldText) > 0 {
		percentage := 100 * (len(newText) - len(oldText)) / len(oldText)
		if percentage < 0 {
			percentage = -percentage
		}
		if percentage > 100 {
			percentage = 100
		}
		if percentage > allowedPercentage {
			explanation = fmt.Sprintf("%s The length differs %d%% from the existing text. %s",
				explanation1, percentage, explanation2)
			return "Text length differs too much", explanation
		}
	}

	// The new text should be sufficiently similar to the old text.
	// Chapters compare at the word level for performance, verses at
	// the character level for accuracy.
	var percentage int
	if chapterScope {
		percentage = diff.WordSimilarity(oldText, newText)
	} else {
		percentage = diff.CharacterSimilarity(oldText, newText)
	}
	if percentage < 100-allowedPercentage {
		explanation = fmt.Sprintf("%s The new text is %d%% similar to the existing text. %s",
			explanation1, percentage, explanation2)
		return "Text content differs too much", explanation
	}

	return "", ""
}

func chapterKey(bible string, book, chapter int) string {
	return fmt.Sprintf("%s/%d/%d", bible, book, chapter)
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func equalInts(a, b []int) bool {
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

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, " ")
}
