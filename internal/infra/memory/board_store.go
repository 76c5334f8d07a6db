package memory

import (
	"sync"

	"lms-quiz-service/internal/app"
)

// BoardStore is an in-memory implementation of app.BoardRepository.
type BoardStore struct {
	mu     sync.RWMutex
	boards map[string]*app.ProgressBoard
}

func NewBoardStore() *BoardStore {
	return &BoardStore{boards: make(map[string]*app.ProgressBoard)}
}

func (s *BoardStore) GetOrCreate(quizID string) *app.ProgressBoard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if board, ok := s.boards[quizID]; ok {
		return board
	}
	board := app.NewProgressBoard(quizID)
	s.boards[quizID] = board
	return board
}

func (s *BoardStore) Get(quizID string) (*app.ProgressBoard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.boards[quizID]
	return board, ok
}
