package redis

import (
	"context"
	"sync"
	"time"

	"lms-quiz-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// BoardStore keeps progress boards in process and marks active boards in Redis.
type BoardStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	boards map[string]*app.ProgressBoard
}

func NewBoardStore(client *redis.Client, ttl time.Duration) *BoardStore {
	return &BoardStore{
		client: client,
		ttl:    ttl,
		boards: make(map[string]*app.ProgressBoard),
	}
}

func (s *BoardStore) GetOrCreate(quizID string) *app.ProgressBoard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if board, ok := s.boards[quizID]; ok {
		return board
	}
	board := app.NewProgressBoard(quizID)
	s.boards[quizID] = board
	_ = s.client.Set(context.Background(), boardKey(quizID), "1", s.ttl).Err()
	return board
}

func (s *BoardStore) Get(quizID string) (*app.ProgressBoard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.boards[quizID]
	return board, ok
}

func boardKey(quizID string) string {
	return "quiz:" + quizID + ":board"
}
