// Package runner implements the client-side quiz state machine: an attempt is started,
// answered one question at a time, submitted for scoring, and optionally retried.
//
// A Runner is not safe for concurrent use. Each operation runs to completion and the
// caller is expected to serialize calls, as a UI event loop does.
package runner

import (
	"math/rand"
	"time"

	"lms-quiz-service/internal/domain"
)

// State is the lifecycle position of an attempt.
type State int

const (
	NotStarted State = iota
	InProgress
	Submitted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Shuffler permutes n elements in place through swap. *rand.Rand satisfies it with a
// Fisher-Yates shuffle.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Option configures a Runner.
type Option func(*Runner)

// WithShuffler replaces the default time-seeded source, mostly for tests.
func WithShuffler(s Shuffler) Option {
	return func(r *Runner) {
		r.shuffler = s
	}
}

// Runner holds one attempt at a quiz.
type Runner struct {
	quiz     domain.Quiz
	shuffler Shuffler

	state       State
	questions   []domain.Question
	index       int
	answers     map[string]map[string]struct{}
	score       float64
	correctness map[string]bool
}

func New(quiz domain.Quiz, opts ...Option) *Runner {
	r := &Runner{
		quiz:     quiz,
		shuffler: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start validates the quiz and freezes the attempt-local question and option order.
// It is a no-op unless the runner is NotStarted.
func (r *Runner) Start() error {
	if r.state != NotStarted {
		return nil
	}
	if err := Validate(r.quiz); err != nil {
		return err
	}

	questions := make([]domain.Question, len(r.quiz.Questions))
	for i, q := range r.quiz.Questions {
		q.Options = append([]domain.Option(nil), q.Options...)
		questions[i] = q
	}
	if r.quiz.ShuffleQuestions {
		r.shuffler.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if r.quiz.ShuffleOptions {
		for i := range questions {
			opts := questions[i].Options
			r.shuffler.Shuffle(len(opts), func(a, b int) {
				opts[a], opts[b] = opts[b], opts[a]
			})
		}
	}

	r.questions = questions
	r.answers = make(map[string]map[string]struct{})
	r.index = 0
	r.score = 0
	r.correctness = nil
	r.state = InProgress
	return nil
}

// SelectOption records a choice. Single questions keep at most one option, multiple
// questions toggle membership and open questions ignore option input. Outside
// InProgress the call is ignored.
func (r *Runner) SelectOption(questionID, optionID string) error {
	if r.state != InProgress {
		return nil
	}
	question, ok := r.question(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}

	switch question.Type {
	case domain.QuestionSingle:
		if _, ok := question.Option(optionID); !ok {
			return domain.ErrOptionNotFound
		}
		r.answers[questionID] = map[string]struct{}{optionID: {}}
	case domain.QuestionMultiple:
		if _, ok := question.Option(optionID); !ok {
			return domain.ErrOptionNotFound
		}
		selected := r.answers[questionID]
		if selected == nil {
			selected = make(map[string]struct{})
			r.answers[questionID] = selected
		}
		if _, ok := selected[optionID]; ok {
			delete(selected, optionID)
		} else {
			selected[optionID] = struct{}{}
		}
	case domain.QuestionOpen:
		// free-text answers are graded outside the runner
	}
	return nil
}

// Next moves to the following question, stopping at the last one.
func (r *Runner) Next() {
	if r.state != InProgress {
		return
	}
	if r.index < len(r.questions)-1 {
		r.index++
	}
}

// Previous moves to the preceding question, stopping at the first one.
func (r *Runner) Previous() {
	if r.state != InProgress {
		return
	}
	if r.index > 0 {
		r.index--
	}
}

// Submit scores the attempt and moves it to Submitted. The boolean is true only for the
// call that performed the transition; later calls return the stored result unchanged.
func (r *Runner) Submit() (domain.AttemptResult, bool) {
	switch r.state {
	case InProgress:
	case Submitted:
		return r.Result(), false
	default:
		return domain.AttemptResult{}, false
	}

	r.score, r.correctness = score(r.questions, r.answers, r.quiz.ScorablePoints())
	r.index = 0
	r.state = Submitted
	return r.Result(), true
}

// Retry discards the attempt. The next Start reshuffles and begins with no answers.
func (r *Runner) Retry() {
	if r.state == NotStarted {
		return
	}
	r.state = NotStarted
	r.questions = nil
	r.answers = nil
	r.index = 0
	r.score = 0
	r.correctness = nil
}

func (r *Runner) Quiz() domain.Quiz { return r.quiz }
func (r *Runner) State() State      { return r.state }
func (r *Runner) Index() int        { return r.index }
func (r *Runner) Score() float64    { return r.score }
func (r *Runner) TotalPoints() int  { return r.quiz.ScorablePoints() }

// Questions returns the attempt-local display order. Empty before Start.
func (r *Runner) Questions() []domain.Question {
	return r.questions
}

// Current returns the question under the cursor.
func (r *Runner) Current() (domain.Question, bool) {
	if r.state == NotStarted || len(r.questions) == 0 {
		return domain.Question{}, false
	}
	return r.questions[r.index], true
}

// Selected lists the chosen option ids of a question in display order.
func (r *Runner) Selected(questionID string) []string {
	selected := r.answers[questionID]
	if len(selected) == 0 {
		return nil
	}
	question, ok := r.question(questionID)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(selected))
	for _, opt := range question.Options {
		if _, ok := selected[opt.ID]; ok {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// Passed is derived from the stored score; it is false until the attempt is submitted.
func (r *Runner) Passed() bool {
	if r.state != Submitted {
		return false
	}
	return passed(r.score, r.quiz.ScorablePoints(), r.quiz.PassingScore)
}

// Result returns the graded outcome, or a zero value before submission.
func (r *Runner) Result() domain.AttemptResult {
	if r.state != Submitted {
		return domain.AttemptResult{}
	}
	correctness := make(map[string]bool, len(r.correctness))
	for id, ok := range r.correctness {
		correctness[id] = ok
	}
	return domain.AttemptResult{
		QuizID:                 r.quiz.ID,
		Score:                  r.score,
		Passed:                 r.Passed(),
		PerQuestionCorrectness: correctness,
	}
}

func (r *Runner) question(questionID string) (domain.Question, bool) {
	for _, q := range r.questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}
