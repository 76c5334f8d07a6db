package cli

import "lms-quiz-service/internal/domain"

// sampleQuizzes is served when neither a database nor a seed file is configured.
func sampleQuizzes() map[string]domain.Quiz {
	passing := 60.0
	limit := 10
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:               "quiz-1",
			Title:            "Robotics basics",
			Description:      "A short check after the first kit session.",
			PassingScore:     passing,
			TimeLimitMinutes: &limit,
			MaxAttempts:      3,
			Questions: []domain.Question{
				{
					ID:          "q1",
					Text:        "What is 2 + 2?",
					Type:        domain.QuestionSingle,
					Points:      1,
					Explanation: "Two pairs make four.",
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5"},
					},
				},
				{
					ID:     "q2",
					Text:   "Which of these are sensors?",
					Type:   domain.QuestionMultiple,
					Points: 2,
					Options: []domain.Option{
						{ID: "o1", Text: "Ultrasonic", Correct: true},
						{ID: "o2", Text: "Servo motor"},
						{ID: "o3", Text: "Gyroscope", Correct: true},
					},
				},
				{
					ID:     "q3",
					Text:   "Describe what your robot did in the first run.",
					Type:   domain.QuestionOpen,
					Points: 1,
				},
			},
		},
	}
}
