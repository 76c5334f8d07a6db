package app

import (
	"sort"
	"sync"
	"time"

	"lms-quiz-service/internal/domain"
)

// ProgressBoard is the in-memory class-progress view of one quiz, fanned out to teachers.
type ProgressBoard struct {
	quizID      string
	now         func() time.Time
	mu          sync.RWMutex
	learners    map[string]*domain.ProgressEntry
	subscribers map[chan domain.ClassProgress]struct{}
}

// NewProgressBoard is exported for infrastructure layers that need to seed boards.
func NewProgressBoard(quizID string) *ProgressBoard {
	return NewProgressBoardWithClock(quizID, time.Now)
}

// NewProgressBoardWithClock allows deterministic timestamps in tests.
func NewProgressBoardWithClock(quizID string, now func() time.Time) *ProgressBoard {
	return &ProgressBoard{
		quizID:      quizID,
		now:         now,
		learners:    make(map[string]*domain.ProgressEntry),
		subscribers: make(map[chan domain.ClassProgress]struct{}),
	}
}

func (b *ProgressBoard) record(rec domain.AttemptRecord, attemptNumber int) domain.ClassProgress {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.learners[rec.UserID]
	if !ok {
		entry = &domain.ProgressEntry{UserID: rec.UserID}
		b.learners[rec.UserID] = entry
	}
	if rec.DisplayName != "" {
		entry.DisplayName = rec.DisplayName
	}
	entry.Attempts++
	if attemptNumber > entry.Attempts {
		entry.Attempts = attemptNumber
	}
	entry.LastScore = rec.Result.Score
	if rec.Result.Score > entry.BestScore || entry.Attempts == 1 {
		entry.BestScore = rec.Result.Score
	}
	entry.Passed = entry.Passed || rec.Result.Passed
	entry.LastUpdated = b.now()

	return b.broadcastLocked()
}

// Snapshot returns the current ordered board.
func (b *ProgressBoard) Snapshot() domain.ClassProgress {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

func (b *ProgressBoard) subscribe() (<-chan domain.ClassProgress, func()) {
	ch := make(chan domain.ClassProgress, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	initial := b.snapshotLocked()
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *ProgressBoard) broadcastLocked() domain.ClassProgress {
	snapshot := b.snapshotLocked()
	for ch := range b.subscribers {
		select {
		case ch <- snapshot:
		default:
			// slow reader: replace its oldest pending update
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return snapshot
}

func (b *ProgressBoard) snapshotLocked() domain.ClassProgress {
	entries := make([]domain.ProgressEntry, 0, len(b.learners))
	for _, entry := range b.learners {
		entries = append(entries, *entry)
	}

	// best score first, then the earlier update, then name
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore > entries[j].BestScore
		}
		if !entries[i].LastUpdated.Equal(entries[j].LastUpdated) {
			return entries[i].LastUpdated.Before(entries[j].LastUpdated)
		}
		if entries[i].DisplayName != entries[j].DisplayName {
			return entries[i].DisplayName < entries[j].DisplayName
		}
		return entries[i].UserID < entries[j].UserID
	})

	return domain.ClassProgress{
		QuizID:    b.quizID,
		Entries:   entries,
		UpdatedAt: b.now(),
	}
}
