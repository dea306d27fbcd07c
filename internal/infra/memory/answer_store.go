package memory

import (
	"context"
	"sort"
	"sync"

	"edtrack-assessment-service/internal/domain"
)

// AnswerStore keeps answers per attempt; the last write for a question wins,
// in the order writes reach the store.
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[string]map[string]domain.Answer
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string]map[string]domain.Answer)}
}

func (s *AnswerStore) Upsert(_ context.Context, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byQuestion, ok := s.answers[answer.AttemptID]
	if !ok {
		byQuestion = make(map[string]domain.Answer)
		s.answers[answer.AttemptID] = byQuestion
	}
	byQuestion[answer.QuestionID] = answer
	return nil
}

func (s *AnswerStore) List(_ context.Context, attemptID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byQuestion := s.answers[attemptID]
	out := make([]domain.Answer, 0, len(byQuestion))
	for _, answer := range byQuestion {
		out = append(out, answer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}
