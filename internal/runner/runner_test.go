package runner

import (
	"math/rand"
	"sort"
	"testing"

	"lms-quiz-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reverseShuffler makes shuffled order predictable.
type reverseShuffler struct{}

func (reverseShuffler) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

func scenarioQuiz() domain.Quiz {
	return domain.Quiz{
		ID:           "quiz-1",
		Title:        "Motors and sensors",
		PassingScore: 50,
		Questions: []domain.Question{
			{
				ID:     "q1",
				Text:   "Which port drives the left motor?",
				Type:   domain.QuestionSingle,
				Points: 10,
				Options: []domain.Option{
					{ID: "A", Text: "Port A", Correct: true},
					{ID: "B", Text: "Port B"},
				},
			},
			{
				ID:     "q2",
				Text:   "Which of these are sensors?",
				Type:   domain.QuestionMultiple,
				Points: 10,
				Options: []domain.Option{
					{ID: "A", Text: "Servo"},
					{ID: "B", Text: "Ultrasonic", Correct: true},
					{ID: "C", Text: "Gyro", Correct: true},
				},
			},
		},
	}
}

func questionIDs(questions []domain.Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func optionIDs(options []domain.Option) []string {
	ids := make([]string, len(options))
	for i, o := range options {
		ids[i] = o.ID
	}
	return ids
}

func TestStartKeepsAuthoredOrderWithoutShuffle(t *testing.T) {
	quiz := scenarioQuiz()
	r := New(quiz, WithShuffler(reverseShuffler{}))
	require.NoError(t, r.Start())

	assert.Equal(t, InProgress, r.State())
	assert.Equal(t, 0, r.Index())
	assert.Equal(t, []string{"q1", "q2"}, questionIDs(r.Questions()))
	for i, q := range r.Questions() {
		assert.Equal(t, optionIDs(quiz.Questions[i].Options), optionIDs(q.Options))
	}
}

func TestStartShufflesQuestionsAndOptions(t *testing.T) {
	quiz := scenarioQuiz()
	quiz.ShuffleQuestions = true
	quiz.ShuffleOptions = true
	r := New(quiz, WithShuffler(reverseShuffler{}))
	require.NoError(t, r.Start())

	assert.Equal(t, []string{"q2", "q1"}, questionIDs(r.Questions()))
	assert.Equal(t, []string{"C", "B", "A"}, optionIDs(r.Questions()[0].Options))
	assert.Equal(t, []string{"B", "A"}, optionIDs(r.Questions()[1].Options))

	// authored content is left untouched
	assert.Equal(t, []string{"A", "B", "C"}, optionIDs(quiz.Questions[1].Options))
	assert.Equal(t, []string{"A", "B", "C"}, optionIDs(r.Quiz().Questions[1].Options))
}

func TestShuffleIsPermutationAndVariesAcrossRetries(t *testing.T) {
	quiz := domain.Quiz{ID: "quiz-big", PassingScore: 50, ShuffleQuestions: true}
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID: id, Type: domain.QuestionSingle, Points: 1,
			Options: []domain.Option{{ID: "x", Correct: true}, {ID: "y"}},
		})
	}
	authored := questionIDs(quiz.Questions)

	r := New(quiz, WithShuffler(rand.New(rand.NewSource(7))))
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		require.NoError(t, r.Start())
		got := questionIDs(r.Questions())
		sorted := append([]string(nil), got...)
		sort.Strings(sorted)
		require.Equal(t, authored, sorted)
		seen[joinIDs(got)] = struct{}{}
		r.Retry()
	}
	assert.Greater(t, len(seen), 1, "expected more than one order across attempts")
}

func joinIDs(ids []string) string {
	out := ""
	for _, id := range ids {
		out += id + ","
	}
	return out
}

func TestShuffledOrderFrozenDuringAttempt(t *testing.T) {
	quiz := scenarioQuiz()
	quiz.ShuffleQuestions = true
	r := New(quiz, WithShuffler(rand.New(rand.NewSource(3))))
	require.NoError(t, r.Start())
	before := questionIDs(r.Questions())

	require.NoError(t, r.Start())
	r.Next()
	r.Previous()
	require.NoError(t, r.SelectOption("q1", "A"))
	assert.Equal(t, before, questionIDs(r.Questions()))
}

func TestSingleSelectKeepsLastChoice(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())

	require.NoError(t, r.SelectOption("q1", "A"))
	require.NoError(t, r.SelectOption("q1", "B"))
	assert.Equal(t, []string{"B"}, r.Selected("q1"))
}

func TestMultipleSelectToggles(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())

	require.NoError(t, r.SelectOption("q2", "B"))
	prior := r.Selected("q2")

	require.NoError(t, r.SelectOption("q2", "C"))
	assert.Equal(t, []string{"B", "C"}, r.Selected("q2"))
	require.NoError(t, r.SelectOption("q2", "C"))
	assert.Equal(t, prior, r.Selected("q2"))
}

func TestSelectRejectsUnknownIDs(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())

	assert.ErrorIs(t, r.SelectOption("nope", "A"), domain.ErrQuestionNotFound)
	assert.ErrorIs(t, r.SelectOption("q1", "Z"), domain.ErrOptionNotFound)
	assert.Empty(t, r.Selected("q1"))
}

func TestSelectBeforeStartIsIgnored(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.SelectOption("q1", "A"))
	assert.Empty(t, r.Selected("q1"))
	assert.Equal(t, NotStarted, r.State())
}

func TestNavigationClamps(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())

	r.Previous()
	assert.Equal(t, 0, r.Index())

	r.Next()
	assert.Equal(t, 1, r.Index())
	r.Next()
	assert.Equal(t, 1, r.Index())

	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "q2", current.ID)
}

func TestSelectionsSurviveNavigation(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())

	require.NoError(t, r.SelectOption("q1", "A"))
	r.Next()
	require.NoError(t, r.SelectOption("q2", "B"))
	r.Previous()
	assert.Equal(t, []string{"A"}, r.Selected("q1"))
	assert.Equal(t, []string{"B"}, r.Selected("q2"))
}

func TestSubmitScenarioScoresExactSets(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())
	require.NoError(t, r.SelectOption("q1", "A"))
	r.Next()
	require.NoError(t, r.SelectOption("q2", "B"))

	result, ok := r.Submit()
	require.True(t, ok)
	assert.Equal(t, Submitted, r.State())
	assert.Equal(t, 0, r.Index())
	assert.InDelta(t, 50.0, result.Score, 1e-9)
	assert.True(t, result.Passed)
	assert.Equal(t, "quiz-1", result.QuizID)
	assert.Equal(t, map[string]bool{"q1": true, "q2": false}, result.PerQuestionCorrectness)
}

func TestNoPartialCredit(t *testing.T) {
	cases := []struct {
		name   string
		picks  []string
		points float64
	}{
		{name: "subset", picks: []string{"B"}, points: 0},
		{name: "superset", picks: []string{"A", "B", "C"}, points: 0},
		{name: "exact", picks: []string{"C", "B"}, points: 100},
		{name: "empty", picks: nil, points: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quiz := scenarioQuiz()
			quiz.Questions = quiz.Questions[1:]
			r := New(quiz)
			require.NoError(t, r.Start())
			for _, id := range tc.picks {
				require.NoError(t, r.SelectOption("q2", id))
			}
			result, _ := r.Submit()
			assert.InDelta(t, tc.points, result.Score, 1e-9)
		})
	}
}

func TestScoreIsNotRounded(t *testing.T) {
	quiz := scenarioQuiz()
	quiz.Questions = append(quiz.Questions, domain.Question{
		ID: "q3", Type: domain.QuestionSingle, Points: 10,
		Options: []domain.Option{{ID: "A", Correct: true}},
	})
	r := New(quiz)
	require.NoError(t, r.Start())
	require.NoError(t, r.SelectOption("q1", "A"))

	result, _ := r.Submit()
	assert.InDelta(t, 100.0/3.0, result.Score, 1e-9)
	assert.False(t, result.Passed)
}

func TestSubmitTwiceIsNoop(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())
	require.NoError(t, r.SelectOption("q1", "A"))
	first, ok := r.Submit()
	require.True(t, ok)

	require.NoError(t, r.SelectOption("q1", "B"))
	second, ok := r.Submit()
	assert.False(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"A"}, r.Selected("q1"))
}

func TestSubmitBeforeStartIsNoop(t *testing.T) {
	r := New(scenarioQuiz())
	result, ok := r.Submit()
	assert.False(t, ok)
	assert.Equal(t, domain.AttemptResult{}, result)
	assert.Equal(t, NotStarted, r.State())
}

func TestZeroPointsPolicy(t *testing.T) {
	quiz := domain.Quiz{
		ID: "quiz-open",
		Questions: []domain.Question{
			{ID: "essay", Type: domain.QuestionOpen, Points: 5},
		},
	}
	r := New(quiz)
	require.NoError(t, r.Start())
	require.NoError(t, r.SelectOption("essay", "anything"))

	result, ok := r.Submit()
	require.True(t, ok)
	assert.Equal(t, 0.0, result.Score)
	assert.True(t, result.Passed)
	assert.Empty(t, result.PerQuestionCorrectness)

	quiz.PassingScore = 1
	r = New(quiz)
	require.NoError(t, r.Start())
	result, _ = r.Submit()
	assert.Equal(t, 0.0, result.Score)
	assert.False(t, result.Passed)
}

func TestOpenQuestionsExcludedFromTotal(t *testing.T) {
	quiz := scenarioQuiz()
	quiz.Questions = append(quiz.Questions, domain.Question{ID: "essay", Type: domain.QuestionOpen, Points: 20})
	r := New(quiz)
	require.NoError(t, r.Start())
	require.NoError(t, r.SelectOption("q1", "A"))

	result, _ := r.Submit()
	assert.Equal(t, 20, r.TotalPoints())
	assert.InDelta(t, 50.0, result.Score, 1e-9)
	_, graded := result.PerQuestionCorrectness["essay"]
	assert.False(t, graded)
}

func TestProvidedTotalPointsWins(t *testing.T) {
	quiz := scenarioQuiz()
	quiz.TotalPoints = 40
	r := New(quiz)
	require.NoError(t, r.Start())
	require.NoError(t, r.SelectOption("q1", "A"))

	result, _ := r.Submit()
	assert.InDelta(t, 25.0, result.Score, 1e-9)
	assert.False(t, result.Passed)
}

func TestRetryClearsAttempt(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())
	require.NoError(t, r.SelectOption("q1", "A"))
	r.Next()
	r.Submit()

	r.Retry()
	assert.Equal(t, NotStarted, r.State())
	assert.Empty(t, r.Questions())
	assert.Equal(t, 0.0, r.Score())
	assert.False(t, r.Passed())

	require.NoError(t, r.Start())
	assert.Empty(t, r.Selected("q1"))
	assert.Equal(t, 0, r.Index())
}

func TestRetryAbandonsInProgressAttempt(t *testing.T) {
	r := New(scenarioQuiz())
	require.NoError(t, r.Start())
	require.NoError(t, r.SelectOption("q1", "A"))
	r.Next()

	r.Retry()
	assert.Equal(t, NotStarted, r.State())
	require.NoError(t, r.Start())
	assert.Empty(t, r.Selected("q1"))
}

func TestStartRejectsInvalidQuiz(t *testing.T) {
	quiz := scenarioQuiz()
	quiz.Questions[0].Options = nil
	r := New(quiz)

	err := r.Start()
	require.ErrorIs(t, err, domain.ErrInvalidQuiz)
	assert.Equal(t, NotStarted, r.State())
}

func TestStartRejectsQuizThatScoresBlankAnswers(t *testing.T) {
	quiz := domain.Quiz{
		ID:           "blank",
		PassingScore: 50,
		Questions: []domain.Question{{
			ID: "q1", Type: domain.QuestionSingle, Points: 1,
			Options: []domain.Option{{ID: "A"}, {ID: "B"}},
		}},
	}
	r := New(quiz)

	require.ErrorIs(t, r.Start(), domain.ErrInvalidQuiz)
	_, first := r.Submit()
	assert.False(t, first)
}

func TestStartRejectsTotalBelowQuestionPoints(t *testing.T) {
	quiz := scenarioQuiz()
	quiz.TotalPoints = 5
	r := New(quiz)

	require.ErrorIs(t, r.Start(), domain.ErrInvalidQuiz)
	assert.Equal(t, NotStarted, r.State())
}
