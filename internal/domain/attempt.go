package domain

import "time"

// AttemptStatus is the lifecycle state of an attempt. "submitted" is terminal.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// Attempt is one student's timed, stateful pass at an assessment.
type Attempt struct {
	ID            string              `json:"id"`
	AssessmentID  string              `json:"assessmentId"`
	UserID        string              `json:"userId"`
	Status        AttemptStatus       `json:"status"`
	StartedAt     time.Time           `json:"startedAt"`
	ExpiresAt     *time.Time          `json:"expiresAt,omitempty"` // nil = untimed
	SubmittedAt   *time.Time          `json:"submittedAt,omitempty"`
	TimedOut      bool                `json:"timedOut"`
	QuestionOrder []string            `json:"questionOrder"`
	OptionOrder   map[string][]string `json:"optionOrder,omitempty"`
	Result        *AttemptResult      `json:"result,omitempty"`
}

// Expired reports whether an in-progress attempt has passed its deadline.
// Untimed attempts never expire.
func (a Attempt) Expired(now time.Time) bool {
	return a.Status == AttemptInProgress && a.ExpiresAt != nil && !now.Before(*a.ExpiresAt)
}

// Answer is the durable value saved for one question of one attempt.
// Absence of a row means the question was skipped.
type Answer struct {
	AttemptID  string      `json:"attemptId"`
	QuestionID string      `json:"questionId"`
	Value      AnswerValue `json:"value"`
	SavedAt    time.Time   `json:"savedAt"`
}

// QuestionResult is the per-question breakdown of a scored attempt.
type QuestionResult struct {
	QuestionID   string  `json:"questionId"`
	MarksAwarded float64 `json:"marksAwarded"`
	Correct      bool    `json:"correct"`
	Skipped      bool    `json:"skipped"`
}

// AttemptResult is computed exactly once at submission and frozen thereafter.
type AttemptResult struct {
	AttemptID    string           `json:"attemptId"`
	TotalScore   float64          `json:"totalScore"`
	MaxScore     float64          `json:"maxScore"`
	Percentage   float64          `json:"percentage"`
	CorrectCount int              `json:"correctCount"`
	WrongCount   int              `json:"wrongCount"`
	SkippedCount int              `json:"skippedCount"`
	Passed       *bool            `json:"passed,omitempty"`
	PerQuestion  []QuestionResult `json:"perQuestion"`
}

// LeaderboardEntry ranks one user's best submitted attempt.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"userId"`
	AttemptID   string    `json:"attemptId"`
	TotalScore  float64   `json:"totalScore"`
	Percentage  float64   `json:"percentage"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Leaderboard is the ordered scoreboard for an assessment.
type Leaderboard struct {
	AssessmentID string             `json:"assessmentId"`
	Entries      []LeaderboardEntry `json:"entries"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
