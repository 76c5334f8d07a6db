package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"lms-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// recordScript appends an attempt unless the learner already used max attempts.
// Returns the new attempt count, or -1 when the limit is reached.
var recordScript = redis.NewScript(`
local used = redis.call('LLEN', KEYS[1])
local max = tonumber(ARGV[1])
if max > 0 and used >= max then
	return -1
end
return redis.call('RPUSH', KEYS[1], ARGV[2])
`)

// ResultStore records submitted attempts as a Redis list per learner and quiz:
// RPUSH quiz:{quizID}:results:{userID} {json}
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) Record(ctx context.Context, record domain.AttemptRecord) (int, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("encode attempt: %w", err)
	}
	n, err := recordScript.Run(ctx, s.client, []string{resultsKey(record.Result.QuizID, record.UserID)}, record.MaxAttempts, data).Int()
	if err != nil {
		return 0, fmt.Errorf("record attempt: %w", err)
	}
	if n < 0 {
		return record.MaxAttempts, domain.ErrAttemptLimitReached
	}
	return n, nil
}

// History returns the recorded attempts of a learner, oldest first.
func (s *ResultStore) History(ctx context.Context, quizID, userID string) ([]domain.AttemptRecord, error) {
	raw, err := s.client.LRange(ctx, resultsKey(quizID, userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read attempts: %w", err)
	}
	records := make([]domain.AttemptRecord, 0, len(raw))
	for _, item := range raw {
		var record domain.AttemptRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func resultsKey(quizID, userID string) string {
	return "quiz:" + quizID + ":results:" + userID
}
