package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"lms-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore persists submitted attempts in quiz_submissions and enforces max attempts.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Record(ctx context.Context, record domain.AttemptRecord) (int, error) {
	correctness, err := json.Marshal(record.Result.PerQuestionCorrectness)
	if err != nil {
		return 0, fmt.Errorf("marshal correctness: %w", err)
	}

	var number int
	err = s.pool.BeginTxFunc(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// serialize submissions of one learner on one quiz
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text || '/' || $2::text))`,
			record.Result.QuizID, record.UserID); err != nil {
			return fmt.Errorf("lock attempts: %w", err)
		}

		var used int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM quiz_submissions WHERE quiz_id=$1 AND user_id=$2`,
			record.Result.QuizID, record.UserID).Scan(&used); err != nil {
			return fmt.Errorf("count attempts: %w", err)
		}
		if record.MaxAttempts > 0 && used >= record.MaxAttempts {
			number = used
			return domain.ErrAttemptLimitReached
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO quiz_submissions
				(attempt_id, quiz_id, user_id, display_name, score, passed, correctness, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)`,
			record.AttemptID, record.Result.QuizID, record.UserID, record.DisplayName,
			record.Result.Score, record.Result.Passed, string(correctness), record.SubmittedAt); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		number = used + 1
		return nil
	})
	return number, err
}

// History returns the recorded attempts of a learner, oldest first.
func (s *ResultStore) History(ctx context.Context, quizID, userID string) ([]domain.AttemptRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT attempt_id, display_name, score, passed, correctness, submitted_at
		FROM quiz_submissions WHERE quiz_id=$1 AND user_id=$2 ORDER BY id`, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	records := []domain.AttemptRecord{}
	for rows.Next() {
		record := domain.AttemptRecord{UserID: userID, Result: domain.AttemptResult{QuizID: quizID}}
		var correctness []byte
		if err := rows.Scan(&record.AttemptID, &record.DisplayName, &record.Result.Score,
			&record.Result.Passed, &correctness, &record.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal(correctness, &record.Result.PerQuestionCorrectness); err != nil {
			return nil, fmt.Errorf("decode correctness: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
