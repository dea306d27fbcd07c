package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	// QuestionMCQ is a single-correct multiple choice question.
	QuestionMCQ QuestionType = "mcq"
	// QuestionMSQ is a multi-correct multiple choice question.
	QuestionMSQ QuestionType = "msq"
	// QuestionNAT is a numeric-answer question graded within a tolerance band.
	QuestionNAT QuestionType = "nat"
)

// ShowResultMode controls when a student may see their scored result.
type ShowResultMode string

const (
	// ShowResultAfterSubmit releases the result as soon as the attempt is scored.
	ShowResultAfterSubmit ShowResultMode = "submit"
	// ShowResultManual withholds the result until the teacher releases it.
	ShowResultManual ShowResultMode = "manual"
)

// Option is one selectable choice of an MCQ/MSQ question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models a single gradable question with its grading key.
type Question struct {
	ID          string        `json:"id"`
	Type        QuestionType  `json:"type"`
	Text        string        `json:"text"`
	Marks       float64       `json:"marks"`
	Options     []Option      `json:"options,omitempty"`
	Correct     CorrectAnswer `json:"correct,omitempty"`
	Explanation string        `json:"explanation,omitempty"`
}

// UnmarshalJSON decodes the tagged correct-answer envelope alongside the
// plain fields.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	aux := struct {
		Correct json.RawMessage `json:"correct"`
		*plain
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Correct) == 0 || string(aux.Correct) == "null" {
		q.Correct = nil
		return nil
	}
	correct, err := DecodeCorrectAnswer(aux.Correct)
	if err != nil {
		return fmt.Errorf("question %s: %w", q.ID, err)
	}
	q.Correct = correct
	return nil
}

// Assessment is the immutable published document an attempt runs against.
type Assessment struct {
	ID                     string         `json:"id"`
	Title                  string         `json:"title"`
	Type                   string         `json:"type"`
	Published              bool           `json:"published"`
	DurationMinutes        int            `json:"durationMinutes"` // 0 = untimed
	StartTime              *time.Time     `json:"startTime,omitempty"`
	EndTime                *time.Time     `json:"endTime,omitempty"`
	PassingMarks           *float64       `json:"passingMarks,omitempty"`
	MaxAttempts            int            `json:"maxAttempts"` // 0 = unlimited
	NegativeMarkingPercent float64        `json:"negativeMarkingPercent"`
	ShuffleQuestions       bool           `json:"shuffleQuestions"`
	ShuffleOptions         bool           `json:"shuffleOptions"`
	ShowResultAfter        ShowResultMode `json:"showResultAfter"`
	ResultsReleasedAt      *time.Time     `json:"resultsReleasedAt,omitempty"`
	Questions              []Question     `json:"questions"`
}

// OpenAt reports whether new attempts may start at the given instant.
func (a Assessment) OpenAt(now time.Time) bool {
	if !a.Published {
		return false
	}
	if a.StartTime != nil && now.Before(*a.StartTime) {
		return false
	}
	if a.EndTime != nil && now.After(*a.EndTime) {
		return false
	}
	return true
}

// ResultsVisibleAt reports whether scored results may be shown to students.
func (a Assessment) ResultsVisibleAt(now time.Time) bool {
	if a.ShowResultAfter != ShowResultManual {
		return true
	}
	return a.ResultsReleasedAt != nil && !now.Before(*a.ResultsReleasedAt)
}

// QuestionByID returns the question with the given ID, if present.
func (a Assessment) QuestionByID(id string) (Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return a.Questions[i], true
		}
	}
	return Question{}, false
}

// MaxScore is the sum of marks across all questions.
func (a Assessment) MaxScore() float64 {
	var total float64
	for i := range a.Questions {
		total += a.Questions[i].Marks
	}
	return total
}
