package runner

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"lms-quiz-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate rejects quizzes that cannot be scored meaningfully. Every failure wraps
// domain.ErrInvalidQuiz.
func Validate(quiz domain.Quiz) error {
	if err := validate.Struct(quiz); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s failed %q", domain.ErrInvalidQuiz, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidQuiz, err)
	}

	if quiz.TimeLimitMinutes != nil && *quiz.TimeLimitMinutes <= 0 {
		return fmt.Errorf("%w: time limit must be positive", domain.ErrInvalidQuiz)
	}

	scorable := 0
	seenQuestions := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if _, dup := seenQuestions[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", domain.ErrInvalidQuiz, q.ID)
		}
		seenQuestions[q.ID] = struct{}{}

		switch q.Type {
		case domain.QuestionSingle, domain.QuestionMultiple:
			if len(q.Options) == 0 {
				return fmt.Errorf("%w: question %q has no options", domain.ErrInvalidQuiz, q.ID)
			}
			// an empty answer would match an empty correct set
			correct := len(q.CorrectOptionIDs())
			if correct == 0 {
				return fmt.Errorf("%w: question %q has no correct option", domain.ErrInvalidQuiz, q.ID)
			}
			if q.Type == domain.QuestionSingle && correct > 1 {
				return fmt.Errorf("%w: single-choice question %q has %d correct options", domain.ErrInvalidQuiz, q.ID, correct)
			}
			scorable += q.Points
		case domain.QuestionOpen:
		default:
			return fmt.Errorf("%w: question %q has type %s", domain.ErrInvalidQuiz, q.ID, q.Type)
		}

		seenOptions := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if _, dup := seenOptions[opt.ID]; dup {
				return fmt.Errorf("%w: question %q repeats option id %q", domain.ErrInvalidQuiz, q.ID, opt.ID)
			}
			seenOptions[opt.ID] = struct{}{}
		}
	}

	if quiz.TotalPoints > 0 && quiz.TotalPoints < scorable {
		return fmt.Errorf("%w: total points %d below the %d points of its questions", domain.ErrInvalidQuiz, quiz.TotalPoints, scorable)
	}
	return nil
}
