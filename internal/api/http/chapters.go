package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tasmee/tasmee/internal/practice"
	"github.com/tasmee/tasmee/internal/storage"
)

// GET /chapters?q=&limit=&offset=
func ListChaptersHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		list, err := store.ListChapters(r.Context(), practice.ListOpts{Q: q, Limit: limit, Offset: offset})
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /chapters/{chapterID}
// Returns the full chapter with ordered verses.
func GetChapterHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetChapter(r.Context(), chi.URLParam(r, "chapterID"))
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// POST /chapters  { "id": "...", "title": "...", "verses": [{"content": "..."}] }
func PutChapterHandler(store practice.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c practice.Chapter
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(c.Title) == "" || len(c.Verses) == 0 {
			http.Error(w, "title and verses required", http.StatusBadRequest)
			return
		}
		out, err := store.PutChapter(r.Context(), c)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		respondJSON(w, http.StatusCreated, out)
	}
}

// POST /chapters/import  multipart: title=..., id=... (optional), file=<text>
// The file carries one verse per line; blank lines are skipped. The raw
// upload is kept in the blob store so the exact source can be served back.
func ImportChapterHandler(store practice.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		title := strings.TrimSpace(r.FormValue("title"))
		if title == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		raw, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "read file", http.StatusBadRequest)
			return
		}

		c := practice.Chapter{ID: strings.TrimSpace(r.FormValue("id")), Title: title}
		sc := bufio.NewScanner(bytes.NewReader(raw))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			c.Verses = append(c.Verses, practice.Verse{Content: line})
		}
		if err := sc.Err(); err != nil {
			http.Error(w, "read file", http.StatusBadRequest)
			return
		}
		if len(c.Verses) == 0 {
			http.Error(w, "no verses in file", http.StatusBadRequest)
			return
		}

		out, err := store.PutChapter(r.Context(), c)
		if err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		if _, err := blobs.Put("chapters/"+out.ID+"/source.txt", bytes.NewReader(raw)); err != nil {
			http.Error(w, "store source: "+err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusCreated, out)
	}
}

// GET /chapters/{chapterID}/source
// Serves the original uploaded file back.
func ChapterSourceHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "chapterID")
		rc, err := blobs.Get("chapters/" + id + "/source.txt")
		if err != nil {
			http.Error(w, "no source for chapter", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.Copy(w, rc)
	}
}

// DELETE /chapters/{chapterID}
func DeleteChapterHandler(store practice.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "chapterID")
		if err := store.DeleteChapter(r.Context(), id); err != nil {
			http.Error(w, err.Error(), storeStatus(err))
			return
		}
		// stale source files are harmless; ignore delete misses
		_ = blobs.Delete("chapters/" + id + "/source.txt")
		w.WriteHeader(http.StatusNoContent)
	}
}
