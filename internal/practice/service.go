package practice

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tasmee/tasmee/internal/grading"
)

type memoryStore struct {
	mu          sync.RWMutex
	engine      *grading.Engine
	chapters    map[string]Chapter
	sessions    map[string]Session
	attempts    map[string][]Attempt // sessionID -> insertion order
	nextVerseID int64
}

// NewInMemoryStore backs the API without a database; used in development and
// in handler tests.
func NewInMemoryStore(engine *grading.Engine) Store {
	return &memoryStore{
		engine:   engine,
		chapters: map[string]Chapter{},
		sessions: map[string]Session{},
		attempts: map[string][]Attempt{},
	}
}

func (m *memoryStore) PutChapter(ctx context.Context, c Chapter) (Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = fmt.Sprintf("ch-%d", time.Now().UnixNano())
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	verses := make([]Verse, len(c.Verses))
	copy(verses, c.Verses)
	for i := range verses {
		m.nextVerseID++
		verses[i].ID = m.nextVerseID
		verses[i].ChapterID = c.ID
		if verses[i].Number == 0 {
			verses[i].Number = i + 1
		}
	}
	sort.Slice(verses, func(i, j int) bool { return verses[i].Number < verses[j].Number })
	c.Verses = verses
	c.VerseCount = len(verses)
	m.chapters[c.ID] = c
	return c, nil
}

func (m *memoryStore) GetChapter(ctx context.Context, id string) (Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chapters[id]
	if !ok {
		return Chapter{}, ErrNotFound
	}
	verses := make([]Verse, len(c.Verses))
	copy(verses, c.Verses)
	c.Verses = verses
	return c, nil
}

func (m *memoryStore) ListChapters(ctx context.Context, opts ListOpts) ([]ChapterSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Chapter
	for _, c := range m.chapters {
		if opts.Q != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(opts.Q)) {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt != all[j].CreatedAt {
			return all[i].CreatedAt < all[j].CreatedAt
		}
		return all[i].ID < all[j].ID
	})
	limit, offset := clampPage(opts.Limit, opts.Offset)
	out := []ChapterSummary{}
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, ChapterSummary{ID: all[i].ID, Title: all[i].Title, VerseCount: all[i].VerseCount})
	}
	return out, nil
}

func (m *memoryStore) DeleteChapter(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chapters[id]; !ok {
		return ErrNotFound
	}
	delete(m.chapters, id)
	for sid, s := range m.sessions {
		if s.ChapterID == id {
			delete(m.sessions, sid)
			delete(m.attempts, sid)
		}
	}
	return nil
}

func (m *memoryStore) StartSession(ctx context.Context, chapterID, userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chapters[chapterID]; !ok {
		return Session{}, ErrNotFound
	}
	s := Session{
		ID:        uuid.NewString(),
		ChapterID: chapterID,
		UserID:    userID,
		Status:    StatusInProgress,
		StartedAt: time.Now().Unix(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memoryStore) GetSession(ctx context.Context, id, userID string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getSessionLocked(id, userID)
}

func (m *memoryStore) getSessionLocked(id, userID string) (Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if userID != "" && s.UserID != userID {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) ListSessions(ctx context.Context, opts SessionListOpts) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Session
	for _, s := range m.sessions {
		if opts.ChapterID != "" && s.ChapterID != opts.ChapterID {
			continue
		}
		if opts.UserID != "" && s.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && s.Status != opts.Status {
			continue
		}
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].StartedAt != all[j].StartedAt {
			return all[i].StartedAt > all[j].StartedAt
		}
		return all[i].ID < all[j].ID
	})
	limit, offset := clampPage(opts.Limit, opts.Offset)
	out := []Session{}
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memoryStore) SubmitAttempt(ctx context.Context, sessionID, userID, input string) (Attempt, Verse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.getSessionLocked(sessionID, userID)
	if err != nil {
		return Attempt{}, Verse{}, err
	}
	if s.Status == StatusCompleted {
		return Attempt{}, Verse{}, ErrSessionCompleted
	}
	c := m.chapters[s.ChapterID]
	if s.VerseIndex >= len(c.Verses) {
		return Attempt{}, Verse{}, ErrSessionCompleted
	}
	v := c.Verses[s.VerseIndex]
	sim := m.engine.Score(v.Content, input)
	a := Attempt{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		VerseID:     v.ID,
		VerseNumber: v.Number,
		UserInput:   input,
		Similarity:  sim,
		Score:       grading.Percentage(sim),
		Diff:        m.engine.Diff(v.Content, input),
		AttemptedAt: time.Now().Unix(),
	}
	m.attempts[sessionID] = append(m.attempts[sessionID], a)
	return a, v, nil
}

func (m *memoryStore) Advance(ctx context.Context, sessionID, userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.getSessionLocked(sessionID, userID)
	if err != nil {
		return Session{}, err
	}
	if s.Status == StatusCompleted {
		return Session{}, ErrSessionCompleted
	}
	if s.VerseIndex < len(m.chapters[s.ChapterID].Verses) {
		s.VerseIndex++
	}
	m.sessions[sessionID] = s
	return s, nil
}

func (m *memoryStore) Report(ctx context.Context, sessionID, userID string) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.getSessionLocked(sessionID, userID)
	if err != nil {
		return Report{}, err
	}
	attempts := m.attempts[sessionID]
	if len(attempts) == 0 {
		return Report{}, ErrNoAttempts
	}
	ratios := make([]float64, len(attempts))
	for i, a := range attempts {
		ratios[i] = a.Similarity
	}
	avg, err := grading.Aggregate(ratios)
	if err != nil {
		return Report{}, err
	}
	grade := grading.GradeFor(avg)

	now := time.Now().Unix()
	s.Status = StatusCompleted
	s.TotalScore = &avg
	s.Grade = string(grade)
	if s.CompletedAt == nil {
		s.CompletedAt = &now
	}
	m.sessions[sessionID] = s

	c := m.chapters[s.ChapterID]
	contentByNumber := map[int]string{}
	for _, v := range c.Verses {
		contentByNumber[v.Number] = v.Content
	}
	ordered := make([]Attempt, len(attempts))
	copy(ordered, attempts)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].VerseNumber < ordered[j].VerseNumber })
	results := make([]VerseResult, len(ordered))
	for i, a := range ordered {
		results[i] = VerseResult{
			Number:    a.VerseNumber,
			Expected:  contentByNumber[a.VerseNumber],
			UserInput: a.UserInput,
			Score:     a.Score,
			Diff:      a.Diff,
		}
	}

	var history []HistoryEntry
	for _, prev := range m.sessions {
		if prev.UserID != s.UserID || prev.ChapterID != s.ChapterID || prev.Status != StatusCompleted {
			continue
		}
		if prev.CompletedAt == nil || prev.TotalScore == nil {
			continue
		}
		history = append(history, HistoryEntry{
			CompletedAt: *prev.CompletedAt,
			TotalScore:  *prev.TotalScore,
			Grade:       prev.Grade,
		})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].CompletedAt > history[j].CompletedAt })
	if len(history) > 10 {
		history = history[:10]
	}

	return Report{
		SessionID:    s.ID,
		ChapterID:    c.ID,
		ChapterTitle: c.Title,
		AvgScore:     avg,
		Grade:        string(grade),
		GradeClass:   grading.GradeColorClass(grade),
		Verses:       results,
		History:      history,
	}, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
