package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidQuiz wraps every validation failure raised when an attempt starts.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrAttemptNotFound is returned when acting on an attempt that was never opened.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptLimitReached is returned by recorders once max attempts are used up.
	ErrAttemptLimitReached = errors.New("attempt limit reached")
	// ErrUnauthorized indicates a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the session lacks the role for the action.
	ErrForbidden = errors.New("forbidden")
)
