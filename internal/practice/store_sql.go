package practice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasmee/tasmee/internal/grading"
	syncx "github.com/tasmee/tasmee/internal/sync"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	engine *grading.Engine
	events *syncx.EventRepo
}

func NewSQLStore(db *sql.DB, driver string, engine *grading.Engine, events *syncx.EventRepo) *SQLStore {
	return &SQLStore{db: db, driver: driver, engine: engine, events: events}
}

func (s *SQLStore) PutChapter(ctx context.Context, c Chapter) (Chapter, error) {
	if c.ID == "" {
		c.ID = fmt.Sprintf("ch-%d", time.Now().UnixNano())
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Chapter{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chapters (id,title,created_at) VALUES ($1,$2,$3)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title`,
		c.ID, c.Title, c.CreatedAt)
	if err != nil {
		return Chapter{}, err
	}
	// Replace semantics: re-importing a chapter swaps its verse set wholesale.
	// Attempts against the old verses cascade away with them.
	if _, err := tx.ExecContext(ctx, `DELETE FROM verses WHERE chapter_id=$1`, c.ID); err != nil {
		return Chapter{}, err
	}
	for i := range c.Verses {
		c.Verses[i].ChapterID = c.ID
		if c.Verses[i].Number == 0 {
			c.Verses[i].Number = i + 1
		}
		err := tx.QueryRowContext(ctx,
			`INSERT INTO verses (chapter_id,number,content) VALUES ($1,$2,$3) RETURNING id`,
			c.ID, c.Verses[i].Number, c.Verses[i].Content).Scan(&c.Verses[i].ID)
		if err != nil {
			return Chapter{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Chapter{}, err
	}
	c.VerseCount = len(c.Verses)

	if s.events != nil {
		data, _ := json.Marshal(map[string]any{"chapter_id": c.ID, "verses": c.VerseCount})
		_ = s.events.Append(ctx, syncx.Event{Type: syncx.EventChapterImported, Key: c.ID, DataJSON: string(data)})
	}
	return c, nil
}

func (s *SQLStore) GetChapter(ctx context.Context, id string) (Chapter, error) {
	var c Chapter
	err := s.db.QueryRowContext(ctx,
		`SELECT id,title,created_at FROM chapters WHERE id=$1`, id).
		Scan(&c.ID, &c.Title, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Chapter{}, ErrNotFound
		}
		return Chapter{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,chapter_id,number,content FROM verses WHERE chapter_id=$1 ORDER BY number`, id)
	if err != nil {
		return Chapter{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var v Verse
		if err := rows.Scan(&v.ID, &v.ChapterID, &v.Number, &v.Content); err != nil {
			return Chapter{}, err
		}
		c.Verses = append(c.Verses, v)
	}
	if err := rows.Err(); err != nil {
		return Chapter{}, err
	}
	c.VerseCount = len(c.Verses)
	return c, nil
}

func (s *SQLStore) ListChapters(ctx context.Context, opts ListOpts) ([]ChapterSummary, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, COUNT(v.id)
		 FROM chapters c LEFT JOIN verses v ON v.chapter_id = c.id
		 WHERE ($1 = '' OR LOWER(c.title) LIKE '%'||LOWER($1)||'%')
		 GROUP BY c.id, c.title, c.created_at
		 ORDER BY c.created_at, c.id
		 LIMIT $2 OFFSET $3`,
		opts.Q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ChapterSummary{}
	for rows.Next() {
		var cs ChapterSummary
		if err := rows.Scan(&cs.ID, &cs.Title, &cs.VerseCount); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteChapter(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chapters WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) StartSession(ctx context.Context, chapterID, userID string) (Session, error) {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chapters WHERE id=$1`, chapterID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	sess := Session{
		ID:        uuid.NewString(),
		ChapterID: chapterID,
		UserID:    userID,
		Status:    StatusInProgress,
		StartedAt: time.Now().Unix(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memorization_sessions (id,chapter_id,user_id,verse_index,status,started_at)
		 VALUES ($1,$2,$3,0,$4,$5)`,
		sess.ID, sess.ChapterID, sess.UserID, sess.Status, sess.StartedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

const sessionCols = `id,chapter_id,user_id,verse_index,status,total_score,grade,started_at,completed_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var (
		sess      Session
		total     sql.NullFloat64
		grade     sql.NullString
		completed sql.NullInt64
	)
	err := row.Scan(&sess.ID, &sess.ChapterID, &sess.UserID, &sess.VerseIndex, &sess.Status,
		&total, &grade, &sess.StartedAt, &completed)
	if err != nil {
		return Session{}, err
	}
	if total.Valid {
		sess.TotalScore = &total.Float64
	}
	if grade.Valid {
		sess.Grade = grade.String
	}
	if completed.Valid {
		sess.CompletedAt = &completed.Int64
	}
	return sess, nil
}

func (s *SQLStore) GetSession(ctx context.Context, id, userID string) (Session, error) {
	q := `SELECT ` + sessionCols + ` FROM memorization_sessions WHERE id=$1`
	args := []any{id}
	if userID != "" {
		q += ` AND user_id=$2`
		args = append(args, userID)
	}
	sess, err := scanSession(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) ListSessions(ctx context.Context, opts SessionListOpts) ([]Session, error) {
	where := []string{}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.ChapterID != "" {
		add("chapter_id=$%d", opts.ChapterID)
	}
	if opts.UserID != "" {
		add("user_id=$%d", opts.UserID)
	}
	if opts.Status != "" {
		add("status=$%d", opts.Status)
	}
	q := `SELECT ` + sessionCols + ` FROM memorization_sessions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit, offset := clampPage(opts.Limit, opts.Offset)
	q += fmt.Sprintf(` ORDER BY started_at DESC, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) SubmitAttempt(ctx context.Context, sessionID, userID, input string) (Attempt, Verse, error) {
	sess, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return Attempt{}, Verse{}, err
	}
	if sess.Status == StatusCompleted {
		return Attempt{}, Verse{}, ErrSessionCompleted
	}
	var v Verse
	err = s.db.QueryRowContext(ctx,
		`SELECT id,chapter_id,number,content FROM verses
		 WHERE chapter_id=$1 ORDER BY number LIMIT 1 OFFSET $2`,
		sess.ChapterID, sess.VerseIndex).
		Scan(&v.ID, &v.ChapterID, &v.Number, &v.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// cursor is past the last verse; nothing left to recite
			return Attempt{}, Verse{}, ErrSessionCompleted
		}
		return Attempt{}, Verse{}, err
	}

	sim := s.engine.Score(v.Content, input)
	a := Attempt{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		VerseID:     v.ID,
		VerseNumber: v.Number,
		UserInput:   input,
		Similarity:  sim,
		Score:       grading.Percentage(sim),
		Diff:        s.engine.Diff(v.Content, input),
		AttemptedAt: time.Now().Unix(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verse_attempts (id,session_id,verse_id,user_input,similarity,attempted_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.SessionID, a.VerseID, a.UserInput, a.Similarity, a.AttemptedAt)
	if err != nil {
		return Attempt{}, Verse{}, err
	}

	if s.events != nil {
		data, _ := json.Marshal(map[string]any{"session_id": sessionID, "verse": v.Number, "similarity": sim})
		_ = s.events.Append(ctx, syncx.Event{Type: syncx.EventAttemptScored, Key: a.ID, DataJSON: string(data)})
	}
	return a, v, nil
}

func (s *SQLStore) Advance(ctx context.Context, sessionID, userID string) (Session, error) {
	sess, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return Session{}, err
	}
	if sess.Status == StatusCompleted {
		return Session{}, ErrSessionCompleted
	}
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verses WHERE chapter_id=$1`, sess.ChapterID).Scan(&count); err != nil {
		return Session{}, err
	}
	if sess.VerseIndex < count {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE memorization_sessions SET verse_index=verse_index+1 WHERE id=$1`, sessionID); err != nil {
			return Session{}, err
		}
		sess.VerseIndex++
	}
	return sess, nil
}

func (s *SQLStore) Report(ctx context.Context, sessionID, userID string) (Report, error) {
	sess, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return Report{}, err
	}
	var title string
	if err := s.db.QueryRowContext(ctx,
		`SELECT title FROM chapters WHERE id=$1`, sess.ChapterID).Scan(&title); err != nil {
		return Report{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT va.user_input, va.similarity, v.number, v.content
		 FROM verse_attempts va JOIN verses v ON v.id = va.verse_id
		 WHERE va.session_id=$1
		 ORDER BY v.number, va.attempted_at, va.id`, sessionID)
	if err != nil {
		return Report{}, err
	}
	defer rows.Close()
	var (
		results []VerseResult
		ratios  []float64
	)
	for rows.Next() {
		var (
			input   string
			sim     float64
			number  int
			content string
		)
		if err := rows.Scan(&input, &sim, &number, &content); err != nil {
			return Report{}, err
		}
		ratios = append(ratios, sim)
		results = append(results, VerseResult{
			Number:    number,
			Expected:  content,
			UserInput: input,
			Score:     grading.Percentage(sim),
			Diff:      s.engine.Diff(content, input),
		})
	}
	if err := rows.Err(); err != nil {
		return Report{}, err
	}
	if len(ratios) == 0 {
		return Report{}, ErrNoAttempts
	}

	avg, err := grading.Aggregate(ratios)
	if err != nil {
		return Report{}, err
	}
	grade := grading.GradeFor(avg)

	wasCompleted := sess.Status == StatusCompleted
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`UPDATE memorization_sessions
		 SET status=$1, total_score=$2, grade=$3, completed_at=COALESCE(completed_at,$4)
		 WHERE id=$5`,
		StatusCompleted, avg, string(grade), now, sessionID)
	if err != nil {
		return Report{}, err
	}

	hist, err := s.db.QueryContext(ctx,
		`SELECT completed_at, total_score, grade FROM memorization_sessions
		 WHERE user_id=$1 AND chapter_id=$2 AND status=$3 AND completed_at IS NOT NULL
		 ORDER BY completed_at DESC, id LIMIT 10`,
		sess.UserID, sess.ChapterID, StatusCompleted)
	if err != nil {
		return Report{}, err
	}
	defer hist.Close()
	var history []HistoryEntry
	for hist.Next() {
		var h HistoryEntry
		var total sql.NullFloat64
		var g sql.NullString
		if err := hist.Scan(&h.CompletedAt, &total, &g); err != nil {
			return Report{}, err
		}
		h.TotalScore = total.Float64
		h.Grade = g.String
		history = append(history, h)
	}
	if err := hist.Err(); err != nil {
		return Report{}, err
	}

	if !wasCompleted && s.events != nil {
		data, _ := json.Marshal(map[string]any{"session_id": sessionID, "total_score": avg, "grade": string(grade)})
		_ = s.events.Append(ctx, syncx.Event{Type: syncx.EventSessionCompleted, Key: sessionID, DataJSON: string(data)})
	}

	return Report{
		SessionID:    sess.ID,
		ChapterID:    sess.ChapterID,
		ChapterTitle: title,
		AvgScore:     avg,
		Grade:        string(grade),
		GradeClass:   grading.GradeColorClass(grade),
		Verses:       results,
		History:      history,
	}, nil
}
