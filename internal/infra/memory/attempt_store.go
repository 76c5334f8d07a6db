package memory

import (
	"sync"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(quiz domain.Quiz, userID string) *app.Attempt {
	key := attemptKey(quiz.ID, userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt, ok := s.attempts[key]; ok {
		return attempt
	}
	attempt := app.NewAttempt(quiz, userID)
	s.attempts[key] = attempt
	return attempt
}

func (s *AttemptStore) Get(quizID, userID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey(quizID, userID)]
	return attempt, ok
}

func (s *AttemptStore) Delete(quizID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptKey(quizID, userID))
}

func attemptKey(quizID, userID string) string {
	return quizID + "/" + userID
}
