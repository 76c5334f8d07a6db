package app

import (
	"sync"
	"time"

	"lms-quiz-service/internal/domain"
	"lms-quiz-service/internal/runner"

	"github.com/google/uuid"
)

// Attempt pairs a runner with the lock that serializes operations on it.
type Attempt struct {
	mu        sync.Mutex
	id        string
	userID    string
	runner    *runner.Runner
	opts      []runner.Option
	createdAt time.Time

	// pending is a graded submission the recorder has not accepted yet.
	pending *domain.AttemptRecord
}

// NewAttempt is exported for infrastructure layers that create attempts on demand.
func NewAttempt(quiz domain.Quiz, userID string, opts ...runner.Option) *Attempt {
	return &Attempt{
		userID:    userID,
		runner:    runner.New(quiz, opts...),
		opts:      opts,
		createdAt: time.Now(),
	}
}

// ID is the identifier of the current run; it changes every time a fresh run starts.
func (a *Attempt) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

// State reports the runner state.
func (a *Attempt) State() runner.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runner.State()
}

// start begins a fresh run on quiz, the content as currently loaded. A run already in
// progress or submitted keeps the quiz it started with.
func (a *Attempt) start(quiz domain.Quiz) error {
	if a.runner.State() != runner.NotStarted {
		return nil
	}
	a.runner = runner.New(quiz, a.opts...)
	if err := a.runner.Start(); err != nil {
		return err
	}
	a.id = uuid.NewString()
	return nil
}
