package memory

import (
	"context"
	"sync"

	"lms-quiz-service/internal/domain"
)

// ResultStore records submitted attempts in memory and enforces max attempts.
type ResultStore struct {
	mu      sync.Mutex
	records map[string][]domain.AttemptRecord
}

func NewResultStore() *ResultStore {
	return &ResultStore{records: make(map[string][]domain.AttemptRecord)}
}

func (s *ResultStore) Record(_ context.Context, record domain.AttemptRecord) (int, error) {
	key := attemptKey(record.Result.QuizID, record.UserID)
	s.mu.Lock()
	defer s.mu.Unlock()
	used := len(s.records[key])
	if record.MaxAttempts > 0 && used >= record.MaxAttempts {
		return used, domain.ErrAttemptLimitReached
	}
	s.records[key] = append(s.records[key], record)
	return used + 1, nil
}

// History returns the recorded attempts of a learner, oldest first.
func (s *ResultStore) History(_ context.Context, quizID, userID string) ([]domain.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AttemptRecord{}, s.records[attemptKey(quizID, userID)]...), nil
}
