package http_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/tasmee/tasmee/internal/practice"
)

func TestPutChapterAndGet(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/chapters", map[string]any{
		"title": "Evening Recital",
		"verses": []map[string]string{
			{"content": "first line here"},
			{"content": "second line here"},
		},
	}, "coach-1", "coach")
	wantStatus(t, rec, http.StatusCreated)

	var created practice.Chapter
	decodeBody(t, rec, &created)
	if created.ID == "" {
		t.Fatal("created chapter has empty id")
	}
	if created.VerseCount != 2 {
		t.Fatalf("verse_count = %d, want 2", created.VerseCount)
	}

	rec = env.do(t, http.MethodGet, "/chapters/"+created.ID, nil, "learner-1", "learner")
	wantStatus(t, rec, http.StatusOK)
	var got practice.Chapter
	decodeBody(t, rec, &got)
	if len(got.Verses) != 2 {
		t.Fatalf("verses = %d, want 2", len(got.Verses))
	}
	if got.Verses[0].Number != 1 || got.Verses[1].Number != 2 {
		t.Fatalf("verse numbers = %d,%d, want 1,2", got.Verses[0].Number, got.Verses[1].Number)
	}
	if got.Verses[1].Content != "second line here" {
		t.Fatalf("verse 2 content = %q", got.Verses[1].Content)
	}
}

func TestPutChapterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/chapters", map[string]any{
		"title": "  ",
		"verses": []map[string]string{
			{"content": "line"},
		},
	}, "coach-1", "coach")
	wantStatus(t, rec, http.StatusBadRequest)

	rec = env.doJSON(t, http.MethodPost, "/chapters", map[string]any{
		"title": "No Verses",
	}, "coach-1", "coach")
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestGetChapterMissing(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/chapters/nope", nil, "learner-1", "learner")
	wantStatus(t, rec, http.StatusNotFound)
}

func TestImportChapterRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	src := "first verse line\n\nsecond verse line\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("title", "Imported Chapter"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", "chapter.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(src)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	rec := env.doMultipart(t, "/chapters/import", &buf, mw.FormDataContentType(), "coach-1", "coach")
	wantStatus(t, rec, http.StatusCreated)

	var created practice.Chapter
	decodeBody(t, rec, &created)
	if created.VerseCount != 2 {
		t.Fatalf("verse_count = %d, want 2 (blank line must be skipped)", created.VerseCount)
	}

	rec = env.do(t, http.MethodGet, "/chapters/"+created.ID+"/source", nil, "coach-1", "coach")
	wantStatus(t, rec, http.StatusOK)
	if rec.Body.String() != src {
		t.Fatalf("source = %q, want original upload %q", rec.Body.String(), src)
	}

	rec = env.do(t, http.MethodDelete, "/chapters/"+created.ID, nil, "coach-1", "coach")
	wantStatus(t, rec, http.StatusNoContent)

	rec = env.do(t, http.MethodGet, "/chapters/"+created.ID+"/source", nil, "coach-1", "coach")
	wantStatus(t, rec, http.StatusNotFound)
}

func TestImportChapterRequiresTitleAndFile(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "chapter.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("some verse\n")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	rec := env.doMultipart(t, "/chapters/import", &buf, mw.FormDataContentType(), "coach-1", "coach")
	wantStatus(t, rec, http.StatusBadRequest)

	rec = env.doJSON(t, http.MethodPost, "/chapters/import", map[string]string{"title": "x"}, "coach-1", "coach")
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestListChaptersFilter(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"Morning Light", "Evening Calm"} {
		rec := env.doJSON(t, http.MethodPost, "/chapters", map[string]any{
			"title":  title,
			"verses": []map[string]string{{"content": "a verse"}},
		}, "coach-1", "coach")
		wantStatus(t, rec, http.StatusCreated)
	}

	rec := env.do(t, http.MethodGet, "/chapters?q=evening", nil, "learner-1", "learner")
	wantStatus(t, rec, http.StatusOK)
	var list []practice.ChapterSummary
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].Title != "Evening Calm" {
		t.Fatalf("filtered list = %+v, want just Evening Calm", list)
	}
}
