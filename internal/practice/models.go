package practice

import "github.com/tasmee/tasmee/internal/grading"

// Session status values.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Verse struct {
	ID        int64  `json:"id"`
	ChapterID string `json:"chapter_id"`
	Number    int    `json:"number"` // 1-based, unique per chapter
	Content   string `json:"content"`
}

type Chapter struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Verses     []Verse `json:"verses,omitempty"`
	VerseCount int     `json:"verse_count"`
	CreatedAt  int64   `json:"created_at,omitempty"`
}

type ChapterSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	VerseCount int    `json:"verse_count"`
}

// Session is one pass through a chapter. VerseIndex is the recitation cursor:
// the 0-based position of the verse the learner must produce next. It lives
// on the row so any process replica serves the same position.
type Session struct {
	ID          string   `json:"id"`
	ChapterID   string   `json:"chapter_id"`
	UserID      string   `json:"user_id"`
	VerseIndex  int      `json:"verse_index"`
	Status      string   `json:"status"` // in_progress|completed
	TotalScore  *float64 `json:"total_score,omitempty"`
	Grade       string   `json:"grade,omitempty"`
	StartedAt   int64    `json:"started_at"`
	CompletedAt *int64   `json:"completed_at,omitempty"`
}

// Attempt is one scored submission against one verse. Similarity is the raw
// ratio in [0,1] as persisted; Score is its display percentage.
type Attempt struct {
	ID          string                `json:"id"`
	SessionID   string                `json:"session_id"`
	VerseID     int64                 `json:"verse_id"`
	VerseNumber int                   `json:"verse_number"`
	UserInput   string                `json:"user_input"`
	Similarity  float64               `json:"similarity"`
	Score       float64               `json:"score"`
	Diff        []grading.DiffSegment `json:"diff"`
	AttemptedAt int64                 `json:"attempted_at"`
}

// VerseResult is one attempt on the session report, in verse order.
type VerseResult struct {
	Number    int                   `json:"number"`
	Expected  string                `json:"expected"`
	UserInput string                `json:"user_input"`
	Score     float64               `json:"score"`
	Diff      []grading.DiffSegment `json:"diff"`
}

type HistoryEntry struct {
	CompletedAt int64   `json:"completed_at"`
	TotalScore  float64 `json:"total_score"`
	Grade       string  `json:"grade"`
}

// Report finalizes a session: the averaged score, its letter grade and
// styling class, every attempt in verse order, and the learner's last
// completed runs over the same chapter.
type Report struct {
	SessionID    string         `json:"session_id"`
	ChapterID    string         `json:"chapter_id"`
	ChapterTitle string         `json:"chapter_title"`
	AvgScore     float64        `json:"avg_score"`
	Grade        string         `json:"grade"`
	GradeClass   string         `json:"grade_class"`
	Verses       []VerseResult  `json:"verses"`
	History      []HistoryEntry `json:"history,omitempty"`
}
