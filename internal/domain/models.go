package domain

import "time"

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id" validate:"required"`
	Text    string `json:"option_text"`
	Correct bool   `json:"is_correct"`
	Order   int    `json:"order"`
}

// Question is a single quiz item. Open questions carry no options and are not auto-scored.
type Question struct {
	ID          string       `json:"id" validate:"required"`
	Text        string       `json:"question_text"`
	Type        QuestionType `json:"question_type" validate:"gte=1,lte=3"`
	Points      int          `json:"points" validate:"gt=0"`
	Explanation string       `json:"explanation,omitempty"`
	Options     []Option     `json:"options" validate:"dive"`
	Order       int          `json:"order"`
}

// CorrectOptionIDs returns the ids of options flagged as correct, in authored order.
func (q Question) CorrectOptionIDs() []string {
	ids := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.Correct {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// Option looks up an option by id.
func (q Question) Option(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Quiz is authored in the content backend, whose field names it keeps on the wire. It is
// read-only for the duration of an attempt.
type Quiz struct {
	ID               string     `json:"id" validate:"required"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	PassingScore     float64    `json:"passing_score" validate:"gte=0,lte=100"`
	MaxAttempts      int        `json:"max_attempts" validate:"gte=0"`
	TimeLimitMinutes *int       `json:"time_limit_minutes,omitempty" validate:"omitempty,gt=0"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShuffleOptions   bool       `json:"shuffle_options"`
	TotalPoints      int        `json:"total_points,omitempty" validate:"gte=0"`
	Questions        []Question `json:"questions" validate:"dive"`
}

// ScorablePoints is the denominator used when scoring an attempt. A value provided by the
// author wins; otherwise it is the sum of points over questions that are auto-scored.
func (q Quiz) ScorablePoints() int {
	if q.TotalPoints > 0 {
		return q.TotalPoints
	}
	total := 0
	for _, question := range q.Questions {
		if question.Type.Scorable() {
			total += question.Points
		}
	}
	return total
}

// Question looks up a question by id.
func (q Quiz) Question(questionID string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == questionID {
			return question, true
		}
	}
	return Question{}, false
}

// AttemptResult is what a submitted attempt produces for the progress-tracking backend.
type AttemptResult struct {
	QuizID                 string          `json:"quizId"`
	Score                  float64         `json:"score"`
	Passed                 bool            `json:"passed"`
	PerQuestionCorrectness map[string]bool `json:"perQuestionCorrectness"`
}

// AttemptRecord is an AttemptResult bound to the learner who produced it.
type AttemptRecord struct {
	AttemptID   string        `json:"attemptId"`
	UserID      string        `json:"userId"`
	DisplayName string        `json:"displayName"`
	MaxAttempts int           `json:"maxAttempts"`
	SubmittedAt time.Time     `json:"submittedAt"`
	Result      AttemptResult `json:"result"`
}

// ProgressEntry is one learner's row on a quiz's class-progress board.
type ProgressEntry struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Attempts    int       `json:"attempts"`
	BestScore   float64   `json:"bestScore"`
	LastScore   float64   `json:"lastScore"`
	Passed      bool      `json:"passed"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ClassProgress captures the ordered progress board for a quiz.
type ClassProgress struct {
	QuizID    string          `json:"quizId"`
	Entries   []ProgressEntry `json:"entries"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
