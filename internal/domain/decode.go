package domain

import (
	"encoding/json"
	"fmt"
)

// The content backend serializes ids as integers, shuffle flags as 0/1 and decimal scores
// as strings. Quiz documents are accepted in that shape as well as in the one this
// service writes.

func (o *Option) UnmarshalJSON(data []byte) error {
	type plain Option
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("option: %w", err)
	}
	o.ID = id
	return nil
}

func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("question: %w", err)
	}
	q.ID = id
	return nil
}

func (q *Quiz) UnmarshalJSON(data []byte) error {
	type plain Quiz
	aux := struct {
		*plain
		ID               json.RawMessage `json:"id"`
		PassingScore     flexFloat       `json:"passing_score"`
		ShuffleQuestions flexBool        `json:"shuffle_questions"`
		ShuffleOptions   flexBool        `json:"shuffle_options"`
	}{
		plain:            (*plain)(q),
		PassingScore:     flexFloat(q.PassingScore),
		ShuffleQuestions: flexBool(q.ShuffleQuestions),
		ShuffleOptions:   flexBool(q.ShuffleOptions),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("quiz: %w", err)
	}
	q.ID = id
	q.PassingScore = float64(aux.PassingScore)
	q.ShuffleQuestions = bool(aux.ShuffleQuestions)
	q.ShuffleOptions = bool(aux.ShuffleOptions)
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or a number, got %s", raw)
	}
	return n.String(), nil
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		return nil
	case "true":
		*b = true
		return nil
	case "false":
		*b = false
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a bool or a number, got %s", data)
	}
	*b = n != 0
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a number, got %s", data)
	}
	if n == "" {
		return nil
	}
	v, err := n.Float64()
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
