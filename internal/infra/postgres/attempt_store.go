package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edtrack-assessment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const attemptColumns = `id, assessment_id, user_id, status, started_at, expires_at, submitted_at, timed_out, question_order, option_order, result`

// AttemptStore persists attempts in Postgres. The partial unique index on
// in-progress attempts and the conditional submit UPDATE uphold the same
// guarantees as the in-memory store under concurrent writers.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	questionOrder, err := json.Marshal(attempt.QuestionOrder)
	if err != nil {
		return fmt.Errorf("marshal question order: %w", err)
	}
	var optionOrder []byte
	if len(attempt.OptionOrder) > 0 {
		optionOrder, err = json.Marshal(attempt.OptionOrder)
		if err != nil {
			return fmt.Errorf("marshal option order: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `INSERT INTO attempts (id, assessment_id, user_id, status, started_at, expires_at, timed_out, question_order, option_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		attempt.ID, attempt.AssessmentID, attempt.UserID, string(attempt.Status),
		attempt.StartedAt, attempt.ExpiresAt, attempt.TimedOut, questionOrder, optionOrder)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateAttempt
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	if _, err := uuid.Parse(attemptID); err != nil {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id=$1`, attemptID)
	attempt, err := scanAttempt(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) FindInProgress(ctx context.Context, assessmentID, userID string) (domain.Attempt, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts
		WHERE assessment_id=$1 AND user_id=$2 AND status='in_progress'`, assessmentID, userID)
	attempt, err := scanAttempt(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, false, nil
	}
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("find in-progress attempt: %w", err)
	}
	return attempt, true, nil
}

func (s *AttemptStore) CountSubmitted(ctx context.Context, assessmentID, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attempts
		WHERE assessment_id=$1 AND user_id=$2 AND status='submitted'`, assessmentID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count submitted attempts: %w", err)
	}
	return count, nil
}

// MarkSubmitted flips the attempt to submitted only if it is still in
// progress. Exactly one concurrent caller observes a true return.
func (s *AttemptStore) MarkSubmitted(ctx context.Context, attemptID string, submittedAt time.Time, timedOut bool, result domain.AttemptResult) (bool, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("marshal result: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE attempts
		SET status='submitted', submitted_at=$2, timed_out=$3, result=$4
		WHERE id=$1 AND status='in_progress'`,
		attemptID, submittedAt, timedOut, encoded)
	if err != nil {
		return false, fmt.Errorf("mark submitted: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *AttemptStore) ListSubmitted(ctx context.Context, assessmentID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+attemptColumns+` FROM attempts
		WHERE assessment_id=$1 AND status='submitted'
		ORDER BY submitted_at, id`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list submitted attempts: %w", err)
	}
	return collectAttempts(rows, "list submitted attempts")
}

func (s *AttemptStore) ListByUser(ctx context.Context, assessmentID, userID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+attemptColumns+` FROM attempts
		WHERE assessment_id=$1 AND user_id=$2
		ORDER BY started_at, id`, assessmentID, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts by user: %w", err)
	}
	return collectAttempts(rows, "list attempts by user")
}

func (s *AttemptStore) ListExpired(ctx context.Context, now time.Time) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+attemptColumns+` FROM attempts
		WHERE status='in_progress' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY id`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired attempts: %w", err)
	}
	return collectAttempts(rows, "list expired attempts")
}

func collectAttempts(rows pgx.Rows, op string) ([]domain.Attempt, error) {
	defer rows.Close()
	var out []domain.Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func scanAttempt(scan func(dest ...interface{}) error) (domain.Attempt, error) {
	var (
		attempt       domain.Attempt
		questionOrder []byte
		optionOrder   []byte
		result        []byte
	)
	err := scan(
		&attempt.ID,
		&attempt.AssessmentID,
		&attempt.UserID,
		&attempt.Status,
		&attempt.StartedAt,
		&attempt.ExpiresAt,
		&attempt.SubmittedAt,
		&attempt.TimedOut,
		&questionOrder,
		&optionOrder,
		&result,
	)
	if err != nil {
		return domain.Attempt{}, err
	}
	if err := json.Unmarshal(questionOrder, &attempt.QuestionOrder); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal question order: %w", err)
	}
	if len(optionOrder) > 0 {
		if err := json.Unmarshal(optionOrder, &attempt.OptionOrder); err != nil {
			return domain.Attempt{}, fmt.Errorf("unmarshal option order: %w", err)
		}
	}
	if len(result) > 0 {
		attempt.Result = &domain.AttemptResult{}
		if err := json.Unmarshal(result, attempt.Result); err != nil {
			return domain.Attempt{}, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return attempt, nil
}
