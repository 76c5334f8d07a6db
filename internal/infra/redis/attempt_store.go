package redis

import (
	"context"
	"sync"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Runners hold unexported state, so attempts themselves stay in process; Redis carries a
// liveness marker per attempt that other instances and operators can inspect.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(quiz domain.Quiz, userID string) *app.Attempt {
	key := attemptKey(quiz.ID, userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt, ok := s.attempts[key]; ok {
		if s.ttl > 0 {
			_ = s.client.Expire(context.Background(), key, s.ttl).Err()
		}
		return attempt
	}
	attempt := app.NewAttempt(quiz, userID)
	s.attempts[key] = attempt
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), key, "1", s.ttl).Err()
	return attempt
}

func (s *AttemptStore) Get(quizID, userID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey(quizID, userID)]
	return attempt, ok
}

func (s *AttemptStore) Delete(quizID, userID string) {
	key := attemptKey(quizID, userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[key]; !ok {
		return
	}
	delete(s.attempts, key)
	_ = s.client.Del(context.Background(), key).Err()
}

func attemptKey(quizID, userID string) string {
	return "quiz:" + quizID + ":attempt:" + userID
}
