package app

import (
	"lms-quiz-service/internal/domain"
	"lms-quiz-service/internal/runner"
)

// View is the learner-facing projection of an attempt. Correctness and explanations are
// only filled in once the attempt has been submitted.
type View struct {
	AttemptID        string         `json:"attemptId,omitempty"`
	QuizID           string         `json:"quizId"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	State            string         `json:"state"`
	Index            int            `json:"index"`
	QuestionCount    int            `json:"questionCount"`
	TotalPoints      int            `json:"totalPoints"`
	PassingScore     float64        `json:"passingScore"`
	MaxAttempts      int            `json:"maxAttempts,omitempty"`
	TimeLimitMinutes *int           `json:"timeLimitMinutes,omitempty"`
	Questions        []QuestionView `json:"questions,omitempty"`
	Score            *float64       `json:"score,omitempty"`
	Passed           *bool          `json:"passed,omitempty"`
}

type QuestionView struct {
	ID          string              `json:"id"`
	Text        string              `json:"text"`
	Type        domain.QuestionType `json:"type"`
	Points      int                 `json:"points"`
	Options     []OptionView        `json:"options"`
	Selected    []string            `json:"selected"`
	Explanation string              `json:"explanation,omitempty"`
	Correct     *bool               `json:"correct,omitempty"`
}

type OptionView struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct *bool  `json:"correct,omitempty"`
}

func (a *Attempt) viewLocked() View {
	r := a.runner
	quiz := r.Quiz()
	view := View{
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		State:            r.State().String(),
		Index:            r.Index(),
		QuestionCount:    len(quiz.Questions),
		TotalPoints:      r.TotalPoints(),
		PassingScore:     quiz.PassingScore,
		MaxAttempts:      quiz.MaxAttempts,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
	}
	if r.State() == runner.NotStarted {
		return view
	}
	view.AttemptID = a.id

	submitted := r.State() == runner.Submitted
	result := r.Result()
	view.Questions = make([]QuestionView, 0, len(r.Questions()))
	for _, q := range r.Questions() {
		qv := QuestionView{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Points:   q.Points,
			Options:  make([]OptionView, 0, len(q.Options)),
			Selected: r.Selected(q.ID),
		}
		if qv.Selected == nil {
			qv.Selected = []string{}
		}
		for _, opt := range q.Options {
			ov := OptionView{ID: opt.ID, Text: opt.Text}
			if submitted {
				correct := opt.Correct
				ov.Correct = &correct
			}
			qv.Options = append(qv.Options, ov)
		}
		if submitted {
			qv.Explanation = q.Explanation
			if ok, graded := result.PerQuestionCorrectness[q.ID]; graded {
				qv.Correct = &ok
			}
		}
		view.Questions = append(view.Questions, qv)
	}

	if submitted {
		score := result.Score
		passed := result.Passed
		view.Score = &score
		view.Passed = &passed
	}
	return view
}
