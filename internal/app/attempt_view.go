package app

import (
	"context"
	"time"

	"edtrack-assessment-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// SanitizedQuestion is a client-safe question without the grading key or the
// explanation.
type SanitizedQuestion struct {
	ID      string              `json:"id"`
	Type    domain.QuestionType `json:"type"`
	Text    string              `json:"text"`
	Marks   float64             `json:"marks"`
	Options []domain.Option     `json:"options,omitempty"`
}

// SavedAnswer pairs a question with the value currently stored for it.
type SavedAnswer struct {
	QuestionID string             `json:"questionId"`
	Value      domain.AnswerValue `json:"value"`
	SavedAt    time.Time          `json:"savedAt"`
}

// AttemptView is everything a resuming client needs: the attempt, its
// questions in per-attempt order, and the answers saved so far.
type AttemptView struct {
	AttemptID        string               `json:"attemptId"`
	AssessmentID     string               `json:"assessmentId"`
	AssessmentTitle  string               `json:"assessmentTitle"`
	Status           domain.AttemptStatus `json:"status"`
	StartedAt        time.Time            `json:"startedAt"`
	ExpiresAt        *time.Time           `json:"expiresAt,omitempty"`
	SubmittedAt      *time.Time           `json:"submittedAt,omitempty"`
	TimedOut         bool                 `json:"timedOut"`
	RemainingSeconds *int64               `json:"remainingSeconds,omitempty"`
	Questions        []SanitizedQuestion  `json:"questions"`
	Answers          []SavedAnswer        `json:"answers"`
}

// AttemptSummary is one row of a user's attempt history.
type AttemptSummary struct {
	AttemptID   string               `json:"attemptId"`
	Status      domain.AttemptStatus `json:"status"`
	StartedAt   time.Time            `json:"startedAt"`
	SubmittedAt *time.Time           `json:"submittedAt,omitempty"`
	TimedOut    bool                 `json:"timedOut"`
	TotalScore  *float64             `json:"totalScore,omitempty"`
	Percentage  *float64             `json:"percentage,omitempty"`
	Passed      *bool                `json:"passed,omitempty"`
}

// GetAttempt assembles the resume view. Correct answers and explanations never
// appear in it, whatever the attempt's state.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (AttemptView, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return AttemptView{}, err
	}
	if attempt.Expired(s.now()) {
		if _, err := s.finalize(ctx, attempt, true); err != nil {
			return AttemptView{}, err
		}
		attempt, err = s.attempts.Get(ctx, attemptID)
		if err != nil {
			return AttemptView{}, err
		}
	}
	assessment, err := s.bank.GetAssessment(ctx, attempt.AssessmentID)
	if err != nil {
		return AttemptView{}, err
	}
	saved, err := s.answers.List(ctx, attempt.ID)
	if err != nil {
		return AttemptView{}, err
	}

	view := AttemptView{
		AttemptID:       attempt.ID,
		AssessmentID:    attempt.AssessmentID,
		AssessmentTitle: assessment.Title,
		Status:          attempt.Status,
		StartedAt:       attempt.StartedAt,
		ExpiresAt:       attempt.ExpiresAt,
		SubmittedAt:     attempt.SubmittedAt,
		TimedOut:        attempt.TimedOut,
		Questions:       sanitizeQuestions(assessment, attempt),
		Answers:         make([]SavedAnswer, 0, len(saved)),
	}
	for _, answer := range saved {
		view.Answers = append(view.Answers, SavedAnswer{
			QuestionID: answer.QuestionID,
			Value:      answer.Value,
			SavedAt:    answer.SavedAt,
		})
	}
	if attempt.Status == domain.AttemptInProgress && attempt.ExpiresAt != nil {
		remaining := int64(attempt.ExpiresAt.Sub(s.now()) / time.Second)
		if remaining < 0 {
			remaining = 0
		}
		view.RemainingSeconds = &remaining
	}
	return view, nil
}

// ListAttempts returns the user's attempt history for an assessment, oldest
// first. Score fields stay empty until results are released.
func (s *AttemptService) ListAttempts(ctx context.Context, assessmentID, userID string) ([]AttemptSummary, error) {
	assessment, err := s.bank.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByUser(ctx, assessmentID, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	swept := false
	for _, attempt := range attempts {
		if attempt.Expired(now) {
			if _, err := s.finalize(ctx, attempt, true); err != nil {
				log.Warn().Err(err).Str("attemptId", attempt.ID).Msg("Could not finalize expired attempt")
				continue
			}
			swept = true
		}
	}
	if swept {
		attempts, err = s.attempts.ListByUser(ctx, assessmentID, userID)
		if err != nil {
			return nil, err
		}
	}

	visible := assessment.ResultsVisibleAt(now)
	out := make([]AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		summary := AttemptSummary{
			AttemptID:   attempt.ID,
			Status:      attempt.Status,
			StartedAt:   attempt.StartedAt,
			SubmittedAt: attempt.SubmittedAt,
			TimedOut:    attempt.TimedOut,
		}
		if visible && attempt.Result != nil {
			total, pct := attempt.Result.TotalScore, attempt.Result.Percentage
			summary.TotalScore = &total
			summary.Percentage = &pct
			summary.Passed = attempt.Result.Passed
		}
		out = append(out, summary)
	}
	return out, nil
}

// sanitizeQuestions projects questions into the attempt's question and option
// order with keys and explanations removed.
func sanitizeQuestions(assessment domain.Assessment, attempt domain.Attempt) []SanitizedQuestion {
	out := make([]SanitizedQuestion, 0, len(attempt.QuestionOrder))
	for _, questionID := range attempt.QuestionOrder {
		question, ok := assessment.QuestionByID(questionID)
		if !ok {
			continue
		}
		sanitized := SanitizedQuestion{
			ID:    question.ID,
			Type:  question.Type,
			Text:  question.Text,
			Marks: question.Marks,
		}
		if order, ok := attempt.OptionOrder[question.ID]; ok {
			for _, optionID := range order {
				for i := range question.Options {
					if question.Options[i].ID == optionID {
						sanitized.Options = append(sanitized.Options, question.Options[i])
						break
					}
				}
			}
		} else if len(question.Options) > 0 {
			sanitized.Options = append(sanitized.Options, question.Options...)
		}
		out = append(out, sanitized)
	}
	return out
}
