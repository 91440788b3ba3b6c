package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/tasmee/tasmee/internal/auth/middleware"
	"github.com/tasmee/tasmee/internal/practice"
	"github.com/tasmee/tasmee/internal/rbac"
)

// ownerScope returns the store userID filter for read endpoints: "" (no
// filter) when the caller's role holds viewAllPerm, otherwise the caller's
// own subject.
func ownerScope(r *http.Request, viewAllPerm string) string {
	if rbac.Has(rbac.RoleFromContext(r.Context()), viewAllPerm) {
		return ""
	}
	return authmw.SubjectFromContext(r.Context())
}

// POST /sessions  { "chapter_id": "..." }
func StartSessionHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ChapterID string `json:"chapter_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ChapterID == "" {
			http.Error(w, "chapter_id required", http.StatusBadRequest)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		s, err := store.StartSession(r.Context(), req.ChapterID, sub)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		respondJSON(w, http.StatusCreated, s)
	}
}

type sessionView struct {
	practice.Session
	ChapterTitle string `json:"chapter_title"`
	TotalVerses  int    `json:"total_verses"`
	CurrentVerse int    `json:"current_verse,omitempty"` // 1-based number to recite next
	PrevVerse    string `json:"prev_verse,omitempty"`    // preceding verse content, shown as recall hint
	Done         bool   `json:"done"`
}

// GET /sessions/{sessionID}
// The current verse's content never appears in this response; it is what the
// learner must produce. Only the previous verse is echoed, as a recall cue.
func GetSessionHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := ownerScope(r, "session:view-all")
		s, err := store.GetSession(r.Context(), chi.URLParam(r, "sessionID"), userID)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		c, err := store.GetChapter(r.Context(), s.ChapterID)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		view := sessionView{Session: s, ChapterTitle: c.Title, TotalVerses: len(c.Verses)}
		if s.VerseIndex < len(c.Verses) {
			view.CurrentVerse = c.Verses[s.VerseIndex].Number
			if s.VerseIndex > 0 {
				view.PrevVerse = c.Verses[s.VerseIndex-1].Content
			}
		} else {
			view.Done = true
		}
		respondJSON(w, http.StatusOK, view)
	}
}

type attemptView struct {
	practice.Attempt
	Expected string `json:"expected"`
}

// POST /sessions/{sessionID}/attempts  { "text": "..." }
// Always scoped to the caller: recitation is personal, no view-all bypass.
func SubmitAttemptHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		a, v, err := store.SubmitAttempt(r.Context(), chi.URLParam(r, "sessionID"), sub, req.Text)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		respondJSON(w, http.StatusOK, attemptView{Attempt: a, Expected: v.Content})
	}
}

// POST /sessions/{sessionID}/advance
func AdvanceHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := authmw.SubjectFromContext(r.Context())
		s, err := store.Advance(r.Context(), chi.URLParam(r, "sessionID"), sub)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		respondJSON(w, http.StatusOK, s)
	}
}

// GET /sessions/{sessionID}/report
// Finalizes the session on first view.
func ReportHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := ownerScope(r, "report:view-all")
		rep, err := store.Report(r.Context(), chi.URLParam(r, "sessionID"), userID)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		respondJSON(w, http.StatusOK, rep)
	}
}

// GET /sessions?chapter_id=&user_id=&status=&limit=&offset=
// Callers without session:view-all are pinned to their own sessions.
func ListSessionsHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := practice.SessionListOpts{
			ChapterID: strings.TrimSpace(q.Get("chapter_id")),
			UserID:    strings.TrimSpace(q.Get("user_id")),
			Status:    strings.TrimSpace(q.Get("status")),
			Limit:     parseIntDefault(q.Get("limit"), 50),
			Offset:    parseIntDefault(q.Get("offset"), 0),
		}
		if scope := ownerScope(r, "session:view-all"); scope != "" {
			opts.UserID = scope
		}
		list, err := store.ListSessions(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
