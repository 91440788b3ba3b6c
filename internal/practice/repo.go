package practice

import (
	"context"
	"errors"
)

var (
	// ErrNotFound covers missing rows and ownership misses alike: a learner
	// asking for someone else's session learns nothing about its existence.
	ErrNotFound = errors.New("practice: not found")

	// ErrSessionCompleted rejects writes against a finalized session.
	ErrSessionCompleted = errors.New("practice: session already completed")

	// ErrNoAttempts rejects a report over a session with nothing scored yet.
	ErrNoAttempts = errors.New("practice: session has no attempts")
)

type ListOpts struct {
	Q      string // substring match on title
	Limit  int
	Offset int
}

type SessionListOpts struct {
	ChapterID string
	UserID    string // empty lists all users (requires view-all)
	Status    string // optional: in_progress|completed
	Limit     int
	Offset    int
}

// Store persists chapters, sessions and attempts, and runs scoring at the
// submit boundary so every implementation grades identically. Methods taking
// userID restrict the operation to that owner when non-empty; callers holding
// a view-all grant pass "".
type Store interface {
	PutChapter(ctx context.Context, c Chapter) (Chapter, error)
	GetChapter(ctx context.Context, id string) (Chapter, error)
	ListChapters(ctx context.Context, opts ListOpts) ([]ChapterSummary, error)
	DeleteChapter(ctx context.Context, id string) error

	StartSession(ctx context.Context, chapterID, userID string) (Session, error)
	GetSession(ctx context.Context, id, userID string) (Session, error)
	ListSessions(ctx context.Context, opts SessionListOpts) ([]Session, error)

	// SubmitAttempt scores input against the verse at the session cursor and
	// records it. Every call inserts a row; retries of the same verse all
	// count toward the session average. Returns the stored attempt and the
	// verse it was scored against.
	SubmitAttempt(ctx context.Context, sessionID, userID, input string) (Attempt, Verse, error)

	// Advance moves the cursor one verse forward, clamped to the verse count.
	Advance(ctx context.Context, sessionID, userID string) (Session, error)

	// Report aggregates the session's attempts, finalizes the session row and
	// returns the full report including prior completed runs of the chapter.
	Report(ctx context.Context, sessionID, userID string) (Report, error)
}
