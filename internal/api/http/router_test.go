package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	apihttp "github.com/tasmee/tasmee/internal/api/http"
	authmw "github.com/tasmee/tasmee/internal/auth/middleware"
	"github.com/tasmee/tasmee/internal/grading"
	"github.com/tasmee/tasmee/internal/practice"
	"github.com/tasmee/tasmee/internal/rbac"
	"github.com/tasmee/tasmee/internal/storage"
	"github.com/tasmee/tasmee/internal/textnorm"
)

// testEnv wires the practice handlers over the in-memory store, mirroring the
// authenticated route group the server mounts. Auth context is injected per
// request instead of going through the JWT middleware.
type testEnv struct {
	router chi.Router
	store  practice.Store
	blobs  storage.BlobStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	eng := grading.NewEngine(grading.WithProfile(textnorm.Plain))
	store := practice.NewInMemoryStore(eng)
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/chapters", apihttp.ListChaptersHandler(store))
	r.Post("/chapters", apihttp.PutChapterHandler(store))
	r.Post("/chapters/import", apihttp.ImportChapterHandler(store, blobs))
	r.Get("/chapters/{chapterID}", apihttp.GetChapterHandler(store))
	r.Get("/chapters/{chapterID}/source", apihttp.ChapterSourceHandler(blobs))
	r.Delete("/chapters/{chapterID}", apihttp.DeleteChapterHandler(store, blobs))
	r.Post("/sessions", apihttp.StartSessionHandler(store))
	r.Get("/sessions", apihttp.ListSessionsHandler(store))
	r.Get("/sessions/{sessionID}", apihttp.GetSessionHandler(store))
	r.Post("/sessions/{sessionID}/attempts", apihttp.SubmitAttemptHandler(store))
	r.Post("/sessions/{sessionID}/advance", apihttp.AdvanceHandler(store))
	r.Get("/sessions/{sessionID}/report", apihttp.ReportHandler(store))

	return &testEnv{router: r, store: store, blobs: blobs}
}

// do issues a request with the given subject and role already on the context.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, sub, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := authmw.WithSubject(req.Context(), sub)
	ctx = rbac.WithRole(ctx, role)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, sub, role string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return e.do(t, method, path, bytes.NewReader(b), sub, role)
}

func (e *testEnv) doMultipart(t *testing.T, path string, body io.Reader, contentType, sub, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)
	ctx := authmw.WithSubject(req.Context(), sub)
	ctx = rbac.WithRole(ctx, role)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}
