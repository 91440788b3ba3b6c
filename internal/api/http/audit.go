package http

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	syncx "github.com/tasmee/tasmee/internal/sync"
)

// GET /audit/events?q=
// Recent event_log entries filtered by type or key.
func AuditSearchHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")

		rows, err := db.QueryContext(r.Context(),
			`SELECT typ, key, data, created_at FROM event_log
			 WHERE typ LIKE '%'||$1||'%' OR key LIKE '%'||$1||'%'
			 ORDER BY created_at DESC LIMIT 100`, q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		var out []map[string]any
		for rows.Next() {
			var typ, key, data string
			var createdAt int64
			if err := rows.Scan(&typ, &key, &data, &createdAt); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, map[string]any{
				"typ":        typ,
				"key":        key,
				"data":       data,
				"created_at": time.Unix(createdAt, 0),
			})
		}

		respondJSON(w, http.StatusOK, out)
	}
}

// GET /events?after=&limit=
// Ordered event pull for sync clients. Callers page by passing the last
// offset they have seen.
func EventsSinceHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		evs, err := events.Since(r.Context(), after, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if evs == nil {
			evs = []syncx.Event{}
		}
		respondJSON(w, http.StatusOK, evs)
	}
}
