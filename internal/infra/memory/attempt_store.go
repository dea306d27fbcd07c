package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"edtrack-assessment-service/internal/domain"
)

// AttemptStore is an in-memory attempt store for tests and single-node runs.
// It upholds the same guarantees as the Postgres store: one in-progress
// attempt per (assessment, user) and an atomic submitted transition.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]domain.Attempt)}
}

func (s *AttemptStore) Create(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attempts {
		if existing.AssessmentID == attempt.AssessmentID && existing.UserID == attempt.UserID && existing.Status == domain.AttemptInProgress {
			return domain.ErrDuplicateAttempt
		}
	}
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) FindInProgress(_ context.Context, assessmentID, userID string) (domain.Attempt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, attempt := range s.attempts {
		if attempt.AssessmentID == assessmentID && attempt.UserID == userID && attempt.Status == domain.AttemptInProgress {
			return cloneAttempt(attempt), true, nil
		}
	}
	return domain.Attempt{}, false, nil
}

func (s *AttemptStore) CountSubmitted(_ context.Context, assessmentID, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, attempt := range s.attempts {
		if attempt.AssessmentID == assessmentID && attempt.UserID == userID && attempt.Status == domain.AttemptSubmitted {
			count++
		}
	}
	return count, nil
}

func (s *AttemptStore) MarkSubmitted(_ context.Context, attemptID string, submittedAt time.Time, timedOut bool, result domain.AttemptResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return false, domain.ErrAttemptNotFound
	}
	if attempt.Status != domain.AttemptInProgress {
		return false, nil
	}
	attempt.Status = domain.AttemptSubmitted
	attempt.SubmittedAt = &submittedAt
	attempt.TimedOut = timedOut
	attempt.Result = &result
	s.attempts[attemptID] = cloneAttempt(attempt)
	return true, nil
}

func (s *AttemptStore) ListSubmitted(_ context.Context, assessmentID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, attempt := range s.attempts {
		if attempt.AssessmentID == assessmentID && attempt.Status == domain.AttemptSubmitted {
			out = append(out, cloneAttempt(attempt))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(*out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(*out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *AttemptStore) ListByUser(_ context.Context, assessmentID, userID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, attempt := range s.attempts {
		if attempt.AssessmentID == assessmentID && attempt.UserID == userID {
			out = append(out, cloneAttempt(attempt))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *AttemptStore) ListExpired(_ context.Context, now time.Time) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, attempt := range s.attempts {
		if attempt.Expired(now) {
			out = append(out, cloneAttempt(attempt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// cloneAttempt copies the attempt deeply so callers never alias stored state.
func cloneAttempt(a domain.Attempt) domain.Attempt {
	out := a
	if a.ExpiresAt != nil {
		t := *a.ExpiresAt
		out.ExpiresAt = &t
	}
	if a.SubmittedAt != nil {
		t := *a.SubmittedAt
		out.SubmittedAt = &t
	}
	out.QuestionOrder = append([]string(nil), a.QuestionOrder...)
	if a.OptionOrder != nil {
		out.OptionOrder = make(map[string][]string, len(a.OptionOrder))
		for questionID, order := range a.OptionOrder {
			out.OptionOrder[questionID] = append([]string(nil), order...)
		}
	}
	if a.Result != nil {
		result := *a.Result
		result.PerQuestion = append([]domain.QuestionResult(nil), a.Result.PerQuestion...)
		if a.Result.Passed != nil {
			passed := *a.Result.Passed
			result.Passed = &passed
		}
		out.Result = &result
	}
	return out
}
