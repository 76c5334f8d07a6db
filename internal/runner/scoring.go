package runner

import "lms-quiz-service/internal/domain"

// score grades every auto-scored question. A question earns its points only when the
// selected set equals the correct set exactly; there is no partial credit.
func score(questions []domain.Question, answers map[string]map[string]struct{}, totalPoints int) (float64, map[string]bool) {
	correctness := make(map[string]bool, len(questions))
	earned := 0
	for _, q := range questions {
		switch q.Type {
		case domain.QuestionSingle, domain.QuestionMultiple:
			ok := sameSet(answers[q.ID], q.CorrectOptionIDs())
			correctness[q.ID] = ok
			if ok {
				earned += q.Points
			}
		case domain.QuestionOpen:
			// not evaluated, excluded from correctness and totals
		}
	}
	if totalPoints <= 0 {
		return 0, correctness
	}
	return float64(earned) / float64(totalPoints) * 100, correctness
}

// passed applies the passing threshold. A quiz with nothing to score passes only when
// the threshold is zero.
func passed(score float64, totalPoints int, passingScore float64) bool {
	if totalPoints <= 0 {
		return passingScore <= 0
	}
	return score >= passingScore
}

func sameSet(selected map[string]struct{}, correct []string) bool {
	if len(selected) != len(correct) {
		return false
	}
	for _, id := range correct {
		if _, ok := selected[id]; !ok {
			return false
		}
	}
	return true
}
