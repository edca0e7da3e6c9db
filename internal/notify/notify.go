// Package notify queues notification mail in the database. The save
// pipeline never discards text silently: a merge that dropped changes
// or a save the safety checks refused always leaves a queued message
// showing the user exactly what happened. Delivery is someone else's
// job; the queue is the interface.
package notify

import (
	"database/sql"
	"fmt"
	stdhtml "html"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidrees/scriptorium/core/diff"
	"github.com/davidrees/scriptorium/core/errors"
	"github.com/davidrees/scriptorium/core/merge"
	"github.com/davidrees/scriptorium/core/usfm"
)

// Message is one queued notification.
type Message struct {
	ID        string
	User      string
	Subject   string
	Body      string
	Scheduled time.Time
}

// Queue is the SQLite-backed mail queue. It shares the storage
// database handle.
type Queue struct {
	db *sql.DB
}

// New prepares the mail queue schema on the given database.
func New(db *sql.DB) (*Queue, error) {
	q := &Queue{db: db}
	_, err := q.db.Exec(
		`CREATE TABLE IF NOT EXISTS mail (
			id        TEXT PRIMARY KEY,
			user      TEXT NOT NULL,
			subject   TEXT NOT NULL,
			body      TEXT NOT NULL,
			scheduled INTEGER NOT NULL
		)`)
	if err != nil {
		return nil, errors.NewIO("migrate", "mail schema", err)
	}
	return q, nil
}

// Schedule queues a message for the user.
func (q *Queue) Schedule(user, subject, body string) error {
	_, err := q.db.Exec(
		`INSERT INTO mail (id, user, subject, body, scheduled) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), user, subject, body, time.Now().Unix())
	if err != nil {
		return errors.NewIO("store", "mail", err)
	}
	return nil
}

// Pending returns the queued messages in scheduling order.
func (q *Queue) Pending() ([]Message, error) {
	rows, err := q.db.Query(
		`SELECT id, user, subject, body, scheduled FROM mail ORDER BY scheduled ASC, id ASC`)
	if err != nil {
		return nil, errors.NewIO("read", "mail", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var scheduled int64
		if err := rows.Scan(&m.ID, &m.User, &m.Subject, &m.Body, &scheduled); err != nil {
			return nil, errors.NewIO("read", "mail", err)
		}
		m.Scheduled = time.Unix(scheduled, 0)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ScheduleMergeConflicts queues one message per conflict for each user:
// a marked-up per-verse diff between what the user sent and what was
// saved, followed by the full base, change, existing and result texts.
func (q *Queue) ScheduleMergeConflicts(users []string, conflicts []merge.Conflict) error {
	for _, conflict := range conflicts {
		subject := conflict.Subject
		if conflict.Book != 0 {
			subject += fmt.Sprintf(" | book %d chapter %d", conflict.Book, conflict.Chapter)
		}

		var b strings.Builder
		b.WriteString("<h3>" + stdhtml.EscapeString(subject) + "</h3>")
		b.WriteString("<p>Your changes were merged with other changes already saved. The crossed out parts below could not be merged. They were replaced with the bold text below. You may want to check the changes or resend them.</p>")

		// One marked-up diff per verse where what the user sent
		// differs from what was saved.
		for _, verse := range usfm.GetVerseNumbers(conflict.Result) {
			change := usfm.GetVerseText(conflict.Change, verse)
			result := usfm.GetVerseText(conflict.Result, verse)
			if change == result {
				continue
			}
			markup, _, _ := diff.Text(change, result)
			b.WriteString("<p>" + markup + "</p>")
		}

		b.WriteString("<hr/><div style=\"font-size: 30%\">")
		b.WriteString("<p>Full details follow below.</p>")
		writeDetail(&b, "Base text loaded in your editor", conflict.Base)
		writeDetail(&b, "Changed text by you", conflict.Change)
		writeDetail(&b, "Existing text on the server", conflict.Prioritized)
		writeDetail(&b, "The text that was actually saved to the chapter", conflict.Result)
		b.WriteString("</div>")

		for _, user := range users {
			if err := q.Schedule(user, subject, b.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ScheduleUnsafeSave queues a message about a save the safety checks
// refused, including the text that failed to save.
func (q *Queue) ScheduleUnsafeSave(user, message, explanation, code string) error {
	if message == "" {
		return nil
	}
	var b strings.Builder
	b.WriteString("<h3>" + stdhtml.EscapeString(message) + "</h3>")
	b.WriteString("<p>" + stdhtml.EscapeString(explanation) + "</p>")
	b.WriteString("<p>Failed to save the text below.</p>")
	b.WriteString("<pre>" + stdhtml.EscapeString(code) + "</pre>")
	return q.Schedule(user, message, b.String())
}

func writeDetail(b *strings.Builder, caption, content string) {
	b.WriteString("<br/><p>" + stdhtml.EscapeString(caption) + "</p>")
	b.WriteString("<pre>" + stdhtml.EscapeString(content) + "</pre>")
}
