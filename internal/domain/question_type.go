package domain

import "fmt"

// QuestionType is the closed set of question kinds. The zero value is invalid so that a
// missing type is caught by validation.
type QuestionType int

const (
	QuestionSingle QuestionType = iota + 1
	QuestionMultiple
	QuestionOpen
)

func (t QuestionType) String() string {
	switch t {
	case QuestionSingle:
		return "single"
	case QuestionMultiple:
		return "multiple"
	case QuestionOpen:
		return "open"
	default:
		return fmt.Sprintf("QuestionType(%d)", int(t))
	}
}

// Scorable reports whether answers to this type are evaluated against option flags.
func (t QuestionType) Scorable() bool {
	switch t {
	case QuestionSingle, QuestionMultiple:
		return true
	case QuestionOpen:
		return false
	default:
		return false
	}
}

// ParseQuestionType maps the wire tag to a QuestionType.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch raw {
	case "single":
		return QuestionSingle, nil
	case "multiple":
		return QuestionMultiple, nil
	case "open":
		return QuestionOpen, nil
	default:
		return 0, fmt.Errorf("unknown question type %q", raw)
	}
}

func (t QuestionType) MarshalText() ([]byte, error) {
	switch t {
	case QuestionSingle, QuestionMultiple, QuestionOpen:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("invalid question type %d", int(t))
	}
}

func (t *QuestionType) UnmarshalText(text []byte) error {
	parsed, err := ParseQuestionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
