package postgres

import (
	"context"
	"fmt"

	"edtrack-assessment-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AnswerStore persists autosaved answers keyed by (attempt, question).
type AnswerStore struct {
	pool *pgxpool.Pool
}

func NewAnswerStore(pool *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{pool: pool}
}

func (s *AnswerStore) Upsert(ctx context.Context, answer domain.Answer) error {
	encoded, err := domain.EncodeAnswerValue(answer.Value)
	if err != nil {
		return fmt.Errorf("encode answer value: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO answers (attempt_id, question_id, value, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (attempt_id, question_id)
		DO UPDATE SET value=EXCLUDED.value, saved_at=EXCLUDED.saved_at`,
		answer.AttemptID, answer.QuestionID, encoded, answer.SavedAt)
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

func (s *AnswerStore) List(ctx context.Context, attemptID string) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx, `SELECT question_id, value, saved_at FROM answers
		WHERE attempt_id=$1
		ORDER BY question_id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		answer := domain.Answer{AttemptID: attemptID}
		var raw []byte
		if err := rows.Scan(&answer.QuestionID, &raw, &answer.SavedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answer.Value, err = domain.DecodeAnswerValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decode answer value for question %s: %w", answer.QuestionID, err)
		}
		out = append(out, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return out, nil
}
