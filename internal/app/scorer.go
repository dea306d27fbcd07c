package app

import (
	"fmt"
	"math"

	"edtrack-assessment-service/internal/domain"
)

// Score grades a finished attempt against its assessment. It is a pure
// function: the same inputs always yield the same result, and it touches no
// state. Malformed question data aborts the whole computation rather than
// producing a partially wrong score.
func Score(attemptID string, assessment domain.Assessment, answers map[string]domain.AnswerValue) (domain.AttemptResult, error) {
	result := domain.AttemptResult{
		AttemptID:   attemptID,
		PerQuestion: make([]domain.QuestionResult, 0, len(assessment.Questions)),
	}

	for i := range assessment.Questions {
		question := assessment.Questions[i]
		if question.Marks <= 0 {
			return domain.AttemptResult{}, fmt.Errorf("question %s has non-positive marks: %w", question.ID, domain.ErrMalformedQuestion)
		}
		result.MaxScore += question.Marks

		value, answered := answers[question.ID]
		if !answered {
			// Skipped questions score zero; the penalty never applies.
			result.SkippedCount++
			result.PerQuestion = append(result.PerQuestion, domain.QuestionResult{QuestionID: question.ID, Skipped: true})
			continue
		}

		correct, err := gradeAnswer(question, value)
		if err != nil {
			return domain.AttemptResult{}, err
		}
		awarded := -question.Marks * assessment.NegativeMarkingPercent / 100
		if correct {
			awarded = question.Marks
			result.CorrectCount++
		} else {
			result.WrongCount++
		}
		result.TotalScore += awarded
		result.PerQuestion = append(result.PerQuestion, domain.QuestionResult{
			QuestionID:   question.ID,
			MarksAwarded: awarded,
			Correct:      correct,
		})
	}

	if result.MaxScore > 0 {
		result.Percentage = 100 * result.TotalScore / result.MaxScore
	}
	if assessment.PassingMarks != nil {
		passed := result.TotalScore >= *assessment.PassingMarks
		result.Passed = &passed
	}
	return result, nil
}

// gradeAnswer decides correctness for one answered question. The key and the
// stored value must both carry the variant the question declares; anything
// else is ungradable data.
func gradeAnswer(question domain.Question, value domain.AnswerValue) (bool, error) {
	switch key := question.Correct.(type) {
	case domain.MCQAnswer:
		v, ok := value.(domain.MCQValue)
		if !ok {
			return false, answerKindMismatch(question)
		}
		return v.OptionID == key.OptionID, nil
	case domain.MSQAnswer:
		v, ok := value.(domain.MSQValue)
		if !ok {
			return false, answerKindMismatch(question)
		}
		// Exact set equality; there is no partial credit for MSQ.
		return domain.SameOptionSet(domain.NormalizeOptionSet(v.OptionIDs), domain.NormalizeOptionSet(key.OptionIDs)), nil
	case domain.NATAnswer:
		v, ok := value.(domain.NATValue)
		if !ok {
			return false, answerKindMismatch(question)
		}
		return math.Abs(v.Number-key.Value) <= key.Tolerance, nil
	case nil:
		return false, fmt.Errorf("question %s has no grading key: %w", question.ID, domain.ErrMalformedQuestion)
	default:
		return false, fmt.Errorf("question %s has an unknown key variant: %w", question.ID, domain.ErrMalformedQuestion)
	}
}

func answerKindMismatch(question domain.Question) error {
	return fmt.Errorf("question %s: stored answer does not match the %s key: %w", question.ID, question.Type, domain.ErrMalformedQuestion)
}
