package practice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tasmee/tasmee/internal/grading"
	"github.com/tasmee/tasmee/internal/practice"
	"github.com/tasmee/tasmee/internal/textnorm"
)

func newTestStore() practice.Store {
	return practice.NewInMemoryStore(grading.NewEngine(grading.WithProfile(textnorm.Plain)))
}

func seedChapter(t *testing.T, store practice.Store, title string, verses ...string) practice.Chapter {
	t.Helper()
	c := practice.Chapter{Title: title}
	for _, content := range verses {
		c.Verses = append(c.Verses, practice.Verse{Content: content})
	}
	out, err := store.PutChapter(context.Background(), c)
	if err != nil {
		t.Fatalf("PutChapter: %v", err)
	}
	return out
}

func TestPutChapterAssignsIDAndNumbers(t *testing.T) {
	store := newTestStore()
	c := seedChapter(t, store, "Test Chapter", "alpha beta", "gamma delta")
	if c.ID == "" {
		t.Fatalf("expected generated chapter id")
	}
	if c.VerseCount != 2 {
		t.Fatalf("verse count = %d, want 2", c.VerseCount)
	}
	for i, v := range c.Verses {
		if v.Number != i+1 {
			t.Fatalf("verse %d numbered %d", i, v.Number)
		}
	}
	got, err := store.GetChapter(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetChapter: %v", err)
	}
	if got.Verses[1].Content != "gamma delta" {
		t.Fatalf("verse 2 content = %q", got.Verses[1].Content)
	}
}

func TestGetChapterMissing(t *testing.T) {
	store := newTestStore()
	if _, err := store.GetChapter(context.Background(), "nope"); !errors.Is(err, practice.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListChaptersFilter(t *testing.T) {
	store := newTestStore()
	seedChapter(t, store, "Opening", "a")
	seedChapter(t, store, "The Cave", "b")
	all, err := store.ListChapters(context.Background(), practice.ListOpts{})
	if err != nil {
		t.Fatalf("ListChapters: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	got, err := store.ListChapters(context.Background(), practice.ListOpts{Q: "cave"})
	if err != nil {
		t.Fatalf("ListChapters: %v", err)
	}
	if len(got) != 1 || got[0].Title != "The Cave" {
		t.Fatalf("filtered = %+v", got)
	}
}

func TestSessionFlow(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := seedChapter(t, store, "Flow", "alpha beta", "gamma delta")

	sess, err := store.StartSession(ctx, c.ID, "u1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sess.VerseIndex != 0 || sess.Status != practice.StatusInProgress {
		t.Fatalf("fresh session = %+v", sess)
	}

	a1, v1, err := store.SubmitAttempt(ctx, sess.ID, "u1", "alpha beta")
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if v1.Number != 1 {
		t.Fatalf("scored against verse %d, want 1", v1.Number)
	}
	if a1.Similarity != 1.0 || a1.Score != 100.0 {
		t.Fatalf("attempt 1 = %+v", a1)
	}

	if sess, err = store.Advance(ctx, sess.ID, "u1"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if sess.VerseIndex != 1 {
		t.Fatalf("cursor = %d, want 1", sess.VerseIndex)
	}

	a2, v2, err := store.SubmitAttempt(ctx, sess.ID, "u1", "gamma")
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if v2.Number != 2 {
		t.Fatalf("scored against verse %d, want 2", v2.Number)
	}
	if want := 2.0 / 3.0; a2.Similarity != want {
		t.Fatalf("attempt 2 similarity = %v, want %v", a2.Similarity, want)
	}

	rep, err := store.Report(ctx, sess.ID, "u1")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.AvgScore != 83.3 {
		t.Fatalf("avg = %v, want 83.3", rep.AvgScore)
	}
	if rep.Grade != "B" || rep.GradeClass != "primary" {
		t.Fatalf("grade = %q class = %q", rep.Grade, rep.GradeClass)
	}
	if len(rep.Verses) != 2 || rep.Verses[0].Number != 1 || rep.Verses[1].Number != 2 {
		t.Fatalf("verse results = %+v", rep.Verses)
	}
	if rep.Verses[1].Expected != "gamma delta" {
		t.Fatalf("expected content = %q", rep.Verses[1].Expected)
	}
	if len(rep.History) != 1 {
		t.Fatalf("history = %+v", rep.History)
	}

	sess, err = store.GetSession(ctx, sess.ID, "u1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Status != practice.StatusCompleted || sess.TotalScore == nil || *sess.TotalScore != 83.3 {
		t.Fatalf("finalized session = %+v", sess)
	}

	if _, _, err := store.SubmitAttempt(ctx, sess.ID, "u1", "more"); !errors.Is(err, practice.ErrSessionCompleted) {
		t.Fatalf("submit after completion: err = %v, want ErrSessionCompleted", err)
	}
}

func TestRepeatedAttemptsAllCount(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := seedChapter(t, store, "Repeats", "alpha")
	sess, _ := store.StartSession(ctx, c.ID, "u1")

	if _, _, err := store.SubmitAttempt(ctx, sess.ID, "u1", "alpha"); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if _, _, err := store.SubmitAttempt(ctx, sess.ID, "u1", ""); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	rep, err := store.Report(ctx, sess.ID, "u1")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.AvgScore != 50.0 {
		t.Fatalf("avg = %v, want 50.0", rep.AvgScore)
	}
	if rep.Grade != "F" {
		t.Fatalf("grade = %q, want F", rep.Grade)
	}
	if len(rep.Verses) != 2 {
		t.Fatalf("want both attempts on the report, got %+v", rep.Verses)
	}
}

func TestReportWithoutAttempts(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := seedChapter(t, store, "Empty", "alpha")
	sess, _ := store.StartSession(ctx, c.ID, "u1")
	if _, err := store.Report(ctx, sess.ID, "u1"); !errors.Is(err, practice.ErrNoAttempts) {
		t.Fatalf("err = %v, want ErrNoAttempts", err)
	}
}

func TestAdvanceClampsAtVerseCount(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := seedChapter(t, store, "Clamp", "one", "two")
	sess, _ := store.StartSession(ctx, c.ID, "u1")
	for i := 0; i < 5; i++ {
		var err error
		if sess, err = store.Advance(ctx, sess.ID, "u1"); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if sess.VerseIndex != 2 {
		t.Fatalf("cursor = %d, want 2", sess.VerseIndex)
	}
	// past the last verse there is nothing left to score
	if _, _, err := store.SubmitAttempt(ctx, sess.ID, "u1", "x"); !errors.Is(err, practice.ErrSessionCompleted) {
		t.Fatalf("err = %v, want ErrSessionCompleted", err)
	}
}

func TestSessionOwnership(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := seedChapter(t, store, "Owned", "alpha")
	sess, _ := store.StartSession(ctx, c.ID, "u1")

	if _, err := store.GetSession(ctx, sess.ID, "intruder"); !errors.Is(err, practice.ErrNotFound) {
		t.Fatalf("foreign GetSession err = %v, want ErrNotFound", err)
	}
	if _, _, err := store.SubmitAttempt(ctx, sess.ID, "intruder", "alpha"); !errors.Is(err, practice.ErrNotFound) {
		t.Fatalf("foreign SubmitAttempt err = %v, want ErrNotFound", err)
	}
	// empty userID is the view-all path
	if _, err := store.GetSession(ctx, sess.ID, ""); err != nil {
		t.Fatalf("view-all GetSession: %v", err)
	}
}

func TestStartSessionMissingChapter(t *testing.T) {
	store := newTestStore()
	if _, err := store.StartSession(context.Background(), "ghost", "u1"); !errors.Is(err, practice.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListSessionsFilters(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := seedChapter(t, store, "Lists", "alpha")
	s1, _ := store.StartSession(ctx, c.ID, "u1")
	store.StartSession(ctx, c.ID, "u2")

	if _, _, err := store.SubmitAttempt(ctx, s1.ID, "u1", "alpha"); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if _, err := store.Report(ctx, s1.ID, "u1"); err != nil {
		t.Fatalf("Report: %v", err)
	}

	own, err := store.ListSessions(ctx, practice.SessionListOpts{UserID: "u1"})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(own) != 1 || own[0].ID != s1.ID {
		t.Fatalf("own sessions = %+v", own)
	}
	done, err := store.ListSessions(ctx, practice.SessionListOpts{Status: practice.StatusCompleted})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(done) != 1 || done[0].ID != s1.ID {
		t.Fatalf("completed sessions = %+v", done)
	}
	all, err := store.ListSessions(ctx, practice.SessionListOpts{ChapterID: c.ID})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("chapter sessions = %+v", all)
	}
}

func TestReportHistoryCappedAtTen(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := seedChapter(t, store, "History", "alpha")

	var last practice.Report
	for i := 0; i < 12; i++ {
		sess, err := store.StartSession(ctx, c.ID, "u1")
		if err != nil {
			t.Fatalf("StartSession: %v", err)
		}
		if _, _, err := store.SubmitAttempt(ctx, sess.ID, "u1", "alpha"); err != nil {
			t.Fatalf("SubmitAttempt: %v", err)
		}
		if last, err = store.Report(ctx, sess.ID, "u1"); err != nil {
			t.Fatalf("Report: %v", err)
		}
	}
	if len(last.History) != 10 {
		t.Fatalf("history len = %d, want 10", len(last.History))
	}
}

func TestDeleteChapterCascades(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := seedChapter(t, store, "Doomed", "alpha")
	sess, _ := store.StartSession(ctx, c.ID, "u1")

	if err := store.DeleteChapter(ctx, c.ID); err != nil {
		t.Fatalf("DeleteChapter: %v", err)
	}
	if err := store.DeleteChapter(ctx, c.ID); !errors.Is(err, practice.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetSession(ctx, sess.ID, "u1"); !errors.Is(err, practice.ErrNotFound) {
		t.Fatalf("session survived chapter delete")
	}
}
