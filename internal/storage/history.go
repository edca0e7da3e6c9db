package storage

import (
	"bytes"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	"github.com/davidrees/scriptorium/core/errors"
)

// HistoryEntry is one recorded user save: the chapter USFM as it was
// before the save, and the revision the save produced.
type HistoryEntry struct {
	ID          string
	User        string
	Bible       string
	Book        int
	Chapter     int
	OldUsfm     string
	NewRevision string
	Saved       time.Time
}

// RecordUserSave records a user save in the change history. The old
// chapter USFM is stored xz-compressed; chapters repeat most of their
// text between revisions, so the history stays small.
func (s *Store) RecordUserSave(user, bible string, book, chapter int, oldUsfm, newRevision string) error {
	compressed, err := compress(oldUsfm)
	if err != nil {
		return errors.Wrap(err, "compressing history entry")
	}
	_, err = s.db.Exec(
		`INSERT INTO history (id, user, bible, book, chapter, oldusfm, newrevision, saved)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), user, bible, book, chapter, compressed, newRevision, time.Now().Unix())
	if err != nil {
		return errors.NewIO("store", "history", err)
	}
	return nil
}

// History returns the recorded saves for a chapter, oldest first.
func (s *Store) History(bible string, book, chapter int) ([]HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, user, bible, book, chapter, oldusfm, newrevision, saved
		 FROM history WHERE bible = ? AND book = ? AND chapter = ?
		 ORDER BY saved ASC`,
		bible, book, chapter)
	if err != nil {
		return nil, errors.NewIO("read", "history", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var compressed []byte
		var saved int64
		if err := rows.Scan(&e.ID, &e.User, &e.Bible, &e.Book, &e.Chapter, &compressed, &e.NewRevision, &saved); err != nil {
			return nil, errors.NewIO("read", "history", err)
		}
		e.OldUsfm, err = decompress(compressed)
		if err != nil {
			return nil, errors.Wrap(err, "decompressing history entry")
		}
		e.Saved = time.Unix(saved, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func compress(data string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) (string, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
