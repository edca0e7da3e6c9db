// Package web serves the editor endpoints. The verse and chapter
// update handlers run the whole reconciliation pipeline: checksum the
// payload, convert the editor HTML to USFM, three-way merge against
// whatever was saved meanwhile, store the result safely, and send the
// editor the patch that brings it in line with the server.
package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/davidrees/scriptorium/core/checksum"
	"github.com/davidrees/scriptorium/core/diff"
	"github.com/davidrees/scriptorium/core/merge"
	"github.com/davidrees/scriptorium/core/text"
	"github.com/davidrees/scriptorium/core/usfm"
	"github.com/davidrees/scriptorium/internal/access"
	"github.com/davidrees/scriptorium/internal/editor"
	"github.com/davidrees/scriptorium/internal/logging"
	"github.com/davidrees/scriptorium/internal/notify"
	"github.com/davidrees/scriptorium/internal/storage"
)

// separator frames the fields of an editor update response.
const separator = "#_be_#"

// Config holds server configuration.
type Config struct {
	Port   int
	DBPath string
}

// Server wires the editor endpoints to their collaborators.
type Server struct {
	store  *storage.Store
	access *access.Control
	queue  *notify.Queue
	hub    *Hub
}

// NewServer opens the database at cfg.DBPath and prepares all
// collaborators on it.
func NewServer(cfg Config) (*Server, error) {
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	control, err := access.New(store.DB())
	if err != nil {
		store.Close()
		return nil, err
	}
	queue, err := notify.New(store.DB())
	if err != nil {
		store.Close()
		return nil, err
	}
	return &Server{
		store:  store,
		access: control,
		queue:  queue,
		hub:    NewHub(),
	}, nil
}

// Close releases the server's database handle.
func (s *Server) Close() error {
	return s.store.Close()
}

// Store exposes the chapter store, for seeding and inspection.
func (s *Server) Store() *storage.Store { return s.store }

// Access exposes the access control collaborator.
func (s *Server) Access() *access.Control { return s.access }

// Queue exposes the notification queue.
func (s *Server) Queue() *notify.Queue { return s.queue }

// Handler returns the server's routes wrapped in the logging
// middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /editone/update", s.handleVerseUpdate)
	mux.HandleFunc("POST /edit/update", s.handleChapterUpdate)
	mux.HandleFunc("GET /chapter", s.handleChapterLoad)
	mux.HandleFunc("GET /diff", s.handleDiff)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return logging.CombinedMiddleware(securityHeaders(mux))
}

// Start runs the hub and serves HTTP on the configured port. It blocks
// until the listener fails.
func (s *Server) Start(port int) error {
	go s.hub.Run()
	logging.ServerStartup("editor", "http", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.Handler())
}

// handleChapterLoad serves a chapter's USFM wrapped in checksum
// framing, with the readwrite flag reflecting the user's access.
func (s *Server) handleChapterLoad(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bible := q.Get("bible")
	book, _ := strconv.Atoi(q.Get("book"))
	chapter, _ := strconv.Atoi(q.Get("chapter"))
	user := username(q.Get("user"))

	code, err := s.store.GetChapter(bible, book, chapter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	write, err := s.access.WriteAccess(user, bible)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, checksum.Send(code, write))
}

// handleDiff serves the marked-up difference between two stored
// revisions of a chapter, for the change viewer.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bible := q.Get("bible")
	book, _ := strconv.Atoi(q.Get("book"))
	chapter, _ := strconv.Atoi(q.Get("chapter"))
	oldRevision := q.Get("old")

	newCode, err := s.store.GetChapter(bible, book, chapter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	oldCode := ""
	entries, err := s.store.History(bible, book, chapter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, entry := range entries {
		if entry.NewRevision == oldRevision {
			oldCode = entry.OldUsfm
			break
		}
	}
	markup, _, _ := diff.Text(oldCode, newCode)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, markup)
}

// handleVerseUpdate saves one verse from the editor and sends back the
// patch that updates the editor to what the server now holds.
func (s *Server) handleVerseUpdate(w http.ResponseWriter, r *http.Request) {
	good2go := true
	responseCode := http.StatusOK
	var messages []string

	if err := r.ParseForm(); err != nil {
		good2go = false
		messages = append(messages, "Don't know what to update")
	}

	if good2go {
		for _, field := range []string{"bible", "book", "chapter", "verse", "loaded", "edited"} {
			if !r.PostForm.Has(field) {
				good2go = false
			}
		}
		if !good2go {
			messages = append(messages, "Don't know what to update")
		}
	}

	bible := r.PostFormValue("bible")
	book, _ := strconv.Atoi(r.PostFormValue("book"))
	chapter, _ := strconv.Atoi(r.PostFormValue("chapter"))
	verse, _ := strconv.Atoi(r.PostFormValue("verse"))
	loadedHTML := r.PostFormValue("loaded")
	editedHTML := r.PostFormValue("edited")
	user := username(r.PostFormValue("user"))

	// The editors checksum what they send so a corrupted payload
	// cannot reach the merge.
	if good2go && !checksum.Verify(loadedHTML, r.PostFormValue("checksum1")) {
		good2go = false
		responseCode = http.StatusConflict
		messages = append(messages, "Checksum error")
	}
	if good2go && !checksum.Verify(editedHTML, r.PostFormValue("checksum2")) {
		good2go = false
		responseCode = http.StatusConflict
		messages = append(messages, "Checksum error")
	}

	loadedHTML = text.Trim(loadedHTML)
	editedHTML = text.Trim(editedHTML)

	if good2go && (!text.ValidUTF8(loadedHTML) || !text.ValidUTF8(editedHTML)) {
		good2go = false
		messages = append(messages, "Cannot update: Needs Unicode")
	}

	writeAccess := false
	if good2go {
		var err error
		writeAccess, err = s.access.WriteAccess(user, bible)
		if err != nil {
			logging.Error("write access lookup failed", "user", user, "bible", bible, "error", err)
		}
	}

	oldChapterUsfm := ""
	if good2go {
		var err error
		oldChapterUsfm, err = s.store.GetChapter(bible, book, chapter)
		if err != nil {
			logging.Error("chapter load failed", "bible", bible, "book", book, "chapter", chapter, "error", err)
		}
	}

	// The loaded USFM is the ancestor, the edited USFM the change,
	// and the verse currently in the chapter the prioritized change.
	loadedUsfm, loadedErr := editor.HTMLToUsfm(loadedHTML)
	editedUsfm, editedErr := editor.HTMLToUsfm(editedHTML)
	if good2go && (loadedErr != nil || editedErr != nil) {
		good2go = false
		messages = append(messages, "Don't know what to update")
	}
	existingUsfm := text.Trim(usfm.GetVerseTextQuill(oldChapterUsfm, verse))

	// The same endpoint both saves editor text and refreshes it. Only
	// actual edits are saved, or an unchanged editor would overwrite
	// saves made by others.
	textWasEdited := loadedUsfm != editedUsfm

	if good2go && writeAccess && textWasEdited && loadedUsfm != existingUsfm {
		var conflicts []merge.Conflict
		editedUsfm = merge.Run(loadedUsfm, editedUsfm, existingUsfm, true, &conflicts)
		merge.AddBookChapter(conflicts, book, chapter)
		if err := s.queue.ScheduleMergeConflicts([]string{user}, conflicts); err != nil {
			logging.Error("conflict mail failed", "user", user, "error", err)
		}
		logging.MergeEvent(bible, book, chapter, len(conflicts))
	}

	if good2go && writeAccess && textWasEdited {
		editedUsfm = text.CollapseWhitespace(editedUsfm)
	}

	message := ""
	if good2go && writeAccess && textWasEdited {
		var explanation string
		var err error
		message, explanation, err = s.store.SafelyStoreVerse(user, bible, book, chapter, verse, editedUsfm, time.Now().Unix())
		if err != nil {
			logging.Error("verse save failed", "bible", bible, "error", err)
			message = "Failed to save"
		}
		if err := s.queue.ScheduleUnsafeSave(user, message, explanation, editedUsfm); err != nil {
			logging.Error("unsafe save mail failed", "user", user, "error", err)
		}
	}

	newRevision, _ := s.store.ChapterID(bible, book, chapter)
	newChapterUsfm := ""
	if good2go {
		newChapterUsfm, _ = s.store.GetChapter(bible, book, chapter)
	}

	if good2go && writeAccess && textWasEdited {
		if message == "" {
			if err := s.store.RecordUserSave(user, bible, book, chapter, oldChapterUsfm, newRevision); err != nil {
				logging.Error("history record failed", "bible", bible, "error", err)
			}
			s.hub.BroadcastChapterUpdate(bible, book, chapter, newRevision)
			messages = append(messages, "Saved")
		} else {
			messages = append(messages, message)
		}
	}

	if len(messages) == 0 {
		messages = append(messages, "Updated")
	}

	var response strings.Builder
	response.WriteString(strings.Join(messages, " | "))
	response.WriteString(separator)
	response.WriteString(newRevision)

	// Send the editor the differences between what it holds and what
	// the server now holds, so it can patch itself into agreement.
	if good2go {
		serverHTML := editor.UsfmToHTML(usfm.GetVerseTextQuill(newChapterUsfm, verse))
		appendOperations(&response, editedHTML, serverHTML)
	}

	w.WriteHeader(responseCode)
	fmt.Fprint(w, checksum.Send(response.String(), writeAccess))
}

// handleChapterUpdate is the whole-chapter variant of the verse save.
func (s *Server) handleChapterUpdate(w http.ResponseWriter, r *http.Request) {
	good2go := true
	responseCode := http.StatusOK
	var messages []string

	if err := r.ParseForm(); err != nil {
		good2go = false
		messages = append(messages, "Don't know what to update")
	}

	if good2go {
		for _, field := range []string{"bible", "book", "chapter", "loaded", "edited"} {
			if !r.PostForm.Has(field) {
				good2go = false
			}
		}
		if !good2go {
			messages = append(messages, "Don't know what to update")
		}
	}

	bible := r.PostFormValue("bible")
	book, _ := strconv.Atoi(r.PostFormValue("book"))
	chapter, _ := strconv.Atoi(r.PostFormValue("chapter"))
	loadedHTML := r.PostFormValue("loaded")
	editedHTML := r.PostFormValue("edited")
	user := username(r.PostFormValue("user"))

	if good2go && !checksum.Verify(loadedHTML, r.PostFormValue("checksum1")) {
		good2go = false
		responseCode = http.StatusConflict
		messages = append(messages, "Checksum error")
	}
	if good2go && !checksum.Verify(editedHTML, r.PostFormValue("checksum2")) {
		good2go = false
		responseCode = http.StatusConflict
		messages = append(messages, "Checksum error")
	}

	loadedHTML = text.Trim(loadedHTML)
	editedHTML = text.Trim(editedHTML)

	if good2go && (!text.ValidUTF8(loadedHTML) || !text.ValidUTF8(editedHTML)) {
		good2go = false
		messages = append(messages, "Cannot update: Needs Unicode")
	}

	writeAccess := false
	if good2go {
		var err error
		writeAccess, err = s.access.WriteAccess(user, bible)
		if err != nil {
			logging.Error("write access lookup failed", "user", user, "bible", bible, "error", err)
		}
	}

	oldChapterUsfm := ""
	if good2go {
		var err error
		oldChapterUsfm, err = s.store.GetChapter(bible, book, chapter)
		if err != nil {
			logging.Error("chapter load failed", "bible", bible, "book", book, "chapter", chapter, "error", err)
		}
	}

	loadedUsfm, loadedErr := editor.HTMLToUsfm(loadedHTML)
	editedUsfm, editedErr := editor.HTMLToUsfm(editedHTML)
	if good2go && (loadedErr != nil || editedErr != nil) {
		good2go = false
		messages = append(messages, "Don't know what to update")
	}
	existingUsfm := text.Trim(oldChapterUsfm)

	// The edited USFM must carry exactly the chapter that was loaded.
	if good2go && writeAccess {
		chapters := usfm.GetChapterNumbers(editedUsfm)
		chapterOk := len(chapters) <= 2 && containsInt(chapters, chapter)
		if !chapterOk {
			good2go = false
			messages = append(messages, "Incorrect chapter")
		}
	}

	textWasEdited := loadedUsfm != editedUsfm

	if good2go && writeAccess && textWasEdited && loadedUsfm != existingUsfm {
		var conflicts []merge.Conflict
		editedUsfm = merge.Run(loadedUsfm, editedUsfm, existingUsfm, true, &conflicts)
		merge.AddBookChapter(conflicts, book, chapter)
		if err := s.queue.ScheduleMergeConflicts([]string{user}, conflicts); err != nil {
			logging.Error("conflict mail failed", "user", user, "error", err)
		}
		logging.MergeEvent(bible, book, chapter, len(conflicts))
	}

	if good2go && writeAccess && textWasEdited {
		editedUsfm = text.CollapseWhitespace(editedUsfm)
	}

	message := ""
	if good2go && writeAccess && textWasEdited {
		var explanation string
		var err error
		message, explanation, err = s.store.SafelyStoreChapter(user, bible, book, chapter, editedUsfm, time.Now().Unix())
		if err != nil {
			logging.Error("chapter save failed", "bible", bible, "error", err)
			message = "Failed to save"
		}
		if err := s.queue.ScheduleUnsafeSave(user, message, explanation, editedUsfm); err != nil {
			logging.Error("unsafe save mail failed", "user", user, "error", err)
		}
	}

	newRevision, _ := s.store.ChapterID(bible, book, chapter)
	newChapterUsfm := ""
	if good2go {
		newChapterUsfm, _ = s.store.GetChapter(bible, book, chapter)
	}

	if good2go && writeAccess && textWasEdited {
		if message == "" {
			if err := s.store.RecordUserSave(user, bible, book, chapter, oldChapterUsfm, newRevision); err != nil {
				logging.Error("history record failed", "bible", bible, "error", err)
			}
			s.hub.BroadcastChapterUpdate(bible, book, chapter, newRevision)
			messages = append(messages, "Saved")
		} else {
			messages = append(messages, message)
		}
	}

	if len(messages) == 0 {
		messages = append(messages, "Saved")
	}

	var response strings.Builder
	response.WriteString(strings.Join(messages, " | "))
	response.WriteString(separator)
	response.WriteString(newRevision)

	if good2go {
		serverHTML := editor.UsfmToHTML(newChapterUsfm)
		appendOperations(&response, editedHTML, serverHTML)
	}

	w.WriteHeader(responseCode)
	fmt.Fprint(w, checksum.Send(response.String(), writeAccess))
}

// appendOperations encodes the patch from the editor's HTML to the
// server's HTML onto the response. Inserts carry the character, its
// format and its UTF-16 size; deletes carry the size; format
// operations carry the format.
func appendOperations(response *strings.Builder, editorHTML, serverHTML string) {
	operations, err := editor.Updates(editorHTML, serverHTML)
	if err != nil {
		logging.Error("editor patch failed", "error", err)
		return
	}
	for _, op := range operations {
		response.WriteString(separator)
		response.WriteString(strconv.Itoa(op.Position))
		response.WriteString(separator)
		response.WriteString(op.Op)
		switch op.Op {
		case editor.OpInsert:
			character, format := splitContent(op.Content)
			response.WriteString(separator)
			response.WriteString(character)
			response.WriteString(separator)
			response.WriteString(format)
			response.WriteString(separator)
			response.WriteString(strconv.Itoa(op.Size))
		case editor.OpDelete:
			response.WriteString(separator)
			response.WriteString(strconv.Itoa(op.Size))
		case editor.OpFormatParagraph, editor.OpFormatCharacter:
			response.WriteString(separator)
			response.WriteString(op.Content)
		}
	}
}

// splitContent separates an insert operation's content into the
// character and the format behind it.
func splitContent(content string) (character, format string) {
	for i := range content {
		if i > 0 {
			return content[:i], content[i:]
		}
	}
	return content, ""
}

// username maps a missing user field to the anonymous account so the
// access rules still apply.
func username(user string) string {
	if user == "" {
		return "anonymous"
	}
	return user
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
