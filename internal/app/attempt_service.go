package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms-quiz-service/internal/domain"
	"lms-quiz-service/internal/runner"
)

// AttemptRepository abstracts where live attempts are kept (in-memory, Redis, etc).
type AttemptRepository interface {
	GetOrCreate(quiz domain.Quiz, userID string) *Attempt
	Get(quizID, userID string) (*Attempt, bool)
	Delete(quizID, userID string)
}

// BoardRepository keeps one class-progress board per quiz.
type BoardRepository interface {
	GetOrCreate(quizID string) *ProgressBoard
	Get(quizID string) (*ProgressBoard, bool)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultRecorder persists submitted attempts and returns the learner's attempt number.
// Recorders own the max-attempts rule and return domain.ErrAttemptLimitReached.
type ResultRecorder interface {
	Record(ctx context.Context, record domain.AttemptRecord) (int, error)
	History(ctx context.Context, quizID, userID string) ([]domain.AttemptRecord, error)
}

// ResultPublisher forwards submitted attempts to downstream consumers.
type ResultPublisher interface {
	Publish(ctx context.Context, record domain.AttemptRecord) error
}

// SubmitOutcome is returned from Submit.
type SubmitOutcome struct {
	View          View                 `json:"view"`
	Result        domain.AttemptResult `json:"result"`
	AttemptNumber int                  `json:"attemptNumber"`
	Recorded      bool                 `json:"recorded"`
}

// AttemptService contains the quiz-taking use cases.
type AttemptService struct {
	attempts  AttemptRepository
	boards    BoardRepository
	quizzes   QuizRepository
	recorder  ResultRecorder
	publisher ResultPublisher
	now       func() time.Time
}

func NewAttemptService(attempts AttemptRepository, boards BoardRepository, quizzes QuizRepository, recorder ResultRecorder) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		boards:   boards,
		quizzes:  quizzes,
		recorder: recorder,
		now:      time.Now,
	}
}

// WithPublisher attaches a publisher for submitted attempts.
func (s *AttemptService) WithPublisher(p ResultPublisher) *AttemptService {
	s.publisher = p
	return s
}

// Start opens (or resumes) the caller's attempt at a quiz.
func (s *AttemptService) Start(ctx context.Context, quizID string, session domain.Session) (View, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return View{}, err
	}

	attempt := s.attempts.GetOrCreate(quiz, session.UserID)
	attempt.mu.Lock()
	defer attempt.mu.Unlock()
	if err := attempt.start(quiz); err != nil {
		return View{}, err
	}
	return attempt.viewLocked(), nil
}

// Select records an option choice on the caller's attempt.
func (s *AttemptService) Select(_ context.Context, quizID string, session domain.Session, questionID, optionID string) (View, error) {
	return s.withAttempt(quizID, session, func(a *Attempt) error {
		return a.runner.SelectOption(questionID, optionID)
	})
}

// Next moves the caller's attempt to the following question.
func (s *AttemptService) Next(_ context.Context, quizID string, session domain.Session) (View, error) {
	return s.withAttempt(quizID, session, func(a *Attempt) error {
		a.runner.Next()
		return nil
	})
}

// Previous moves the caller's attempt to the preceding question.
func (s *AttemptService) Previous(_ context.Context, quizID string, session domain.Session) (View, error) {
	return s.withAttempt(quizID, session, func(a *Attempt) error {
		a.runner.Previous()
		return nil
	})
}

// Retry discards the caller's attempt so a fresh one can be started. A submission the
// recorder has not accepted yet gets one last try first.
func (s *AttemptService) Retry(ctx context.Context, quizID string, session domain.Session) (View, error) {
	return s.withAttempt(quizID, session, func(a *Attempt) error {
		s.flushOrDropLocked(ctx, quizID, a)
		a.runner.Retry()
		return nil
	})
}

// View returns the current projection of the caller's attempt.
func (s *AttemptService) View(_ context.Context, quizID string, session domain.Session) (View, error) {
	return s.withAttempt(quizID, session, func(*Attempt) error { return nil })
}

// Submit grades the caller's attempt. Only the submission that performs the transition is
// recorded, published and counted on the progress board. If the recorder fails, the graded
// submission stays pending and the next Submit records it.
func (s *AttemptService) Submit(ctx context.Context, quizID string, session domain.Session) (SubmitOutcome, error) {
	attempt, ok := s.attempts.Get(quizID, session.UserID)
	if !ok {
		return SubmitOutcome{}, domain.ErrAttemptNotFound
	}

	attempt.mu.Lock()
	defer attempt.mu.Unlock()

	result, first := attempt.runner.Submit()
	outcome := SubmitOutcome{View: attempt.viewLocked(), Result: result}
	if first {
		attempt.pending = &domain.AttemptRecord{
			AttemptID:   attempt.id,
			UserID:      session.UserID,
			DisplayName: session.DisplayName,
			MaxAttempts: attempt.runner.Quiz().MaxAttempts,
			SubmittedAt: s.now(),
			Result:      result,
		}
	}
	if attempt.pending == nil {
		return outcome, nil
	}

	number, recorded, err := s.flushLocked(ctx, quizID, attempt)
	outcome.AttemptNumber = number
	outcome.Recorded = recorded
	return outcome, err
}

// flushLocked hands the pending submission to the recorder. A refusal because of the
// attempt limit is final; any other failure leaves the submission pending.
func (s *AttemptService) flushLocked(ctx context.Context, quizID string, attempt *Attempt) (int, bool, error) {
	record := *attempt.pending
	number, err := s.recorder.Record(ctx, record)
	switch {
	case errors.Is(err, domain.ErrAttemptLimitReached):
		attempt.pending = nil
		log.Printf("attempt %s by %s on %s not recorded: %v", record.AttemptID, record.UserID, quizID, err)
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("record attempt %s: %w", record.AttemptID, err)
	}
	attempt.pending = nil

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, record); err != nil {
			log.Printf("publish attempt %s failed: %v", record.AttemptID, err)
		}
	}
	s.boards.GetOrCreate(quizID).record(record, number)
	return number, true, nil
}

// flushOrDropLocked is used when the attempt is about to be discarded.
func (s *AttemptService) flushOrDropLocked(ctx context.Context, quizID string, attempt *Attempt) {
	if attempt.pending == nil {
		return
	}
	if _, _, err := s.flushLocked(ctx, quizID, attempt); err != nil {
		log.Printf("dropping unrecorded attempt %s: %v", attempt.pending.AttemptID, err)
		attempt.pending = nil
	}
}

// History lists the caller's recorded attempts at a quiz, oldest first.
func (s *AttemptService) History(ctx context.Context, quizID string, session domain.Session) ([]domain.AttemptRecord, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.recorder.History(ctx, quizID, session.UserID)
}

// Subscribe returns a channel that receives class-progress updates for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AttemptService) Subscribe(ctx context.Context, quizID string) (<-chan domain.ClassProgress, func(), error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.boards.GetOrCreate(quizID).subscribe()
	return ch, cancel, nil
}

// Progress returns the current class-progress snapshot for a quiz.
func (s *AttemptService) Progress(ctx context.Context, quizID string) (domain.ClassProgress, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.ClassProgress{}, err
	}
	board, ok := s.boards.Get(quizID)
	if !ok {
		return domain.ClassProgress{QuizID: quizID, Entries: []domain.ProgressEntry{}, UpdatedAt: s.now()}, nil
	}
	return board.Snapshot(), nil
}

// Leave drops the caller's attempt unless it is still in progress, so a learner who
// reconnects mid-quiz resumes where they left off.
func (s *AttemptService) Leave(ctx context.Context, quizID string, session domain.Session) {
	attempt, ok := s.attempts.Get(quizID, session.UserID)
	if !ok {
		return
	}
	attempt.mu.Lock()
	state := attempt.runner.State()
	if state != runner.InProgress {
		s.flushOrDropLocked(ctx, quizID, attempt)
	}
	attempt.mu.Unlock()
	if state != runner.InProgress {
		s.attempts.Delete(quizID, session.UserID)
	}
}

func (s *AttemptService) withAttempt(quizID string, session domain.Session, fn func(*Attempt) error) (View, error) {
	attempt, ok := s.attempts.Get(quizID, session.UserID)
	if !ok {
		return View{}, domain.ErrAttemptNotFound
	}
	attempt.mu.Lock()
	defer attempt.mu.Unlock()
	if err := fn(attempt); err != nil {
		return View{}, err
	}
	return attempt.viewLocked(), nil
}

// Preview returns the caller's attempt if one exists, otherwise the not-started view of the
// quiz without opening an attempt.
func (s *AttemptService) Preview(ctx context.Context, quizID string, session domain.Session) (View, error) {
	if attempt, ok := s.attempts.Get(quizID, session.UserID); ok {
		attempt.mu.Lock()
		defer attempt.mu.Unlock()
		return attempt.viewLocked(), nil
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return View{}, err
	}
	return NewAttempt(quiz, session.UserID).viewLocked(), nil
}
