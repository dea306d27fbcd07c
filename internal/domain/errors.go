package domain

import "errors"

var (
	// ErrAssessmentNotFound indicates the assessment could not be loaded.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrAttemptNotFound is returned when an attempt ID is unknown.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionNotFound indicates a question ID is not part of the assessment.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAssessmentNotOpen is returned when starting outside the assessment window
	// or before the assessment is published.
	ErrAssessmentNotOpen = errors.New("assessment is not open for attempts")
	// ErrMaxAttemptsReached is returned when a user has used up their attempts.
	ErrMaxAttemptsReached = errors.New("maximum attempts reached")
	// ErrDuplicateAttempt indicates another in-progress attempt won a creation race.
	ErrDuplicateAttempt = errors.New("attempt already in progress")
	// ErrAttemptClosed is returned when writing to a submitted attempt.
	ErrAttemptClosed = errors.New("attempt already submitted")
	// ErrAttemptExpired is returned when the attempt deadline has passed.
	ErrAttemptExpired = errors.New("attempt deadline has passed")
	// ErrNotSubmitted is returned when reading a result that does not exist yet.
	ErrNotSubmitted = errors.New("attempt not submitted yet")
	// ErrInvalidAnswer indicates an answer value that does not fit the question.
	ErrInvalidAnswer = errors.New("invalid answer value")
	// ErrMalformedQuestion indicates question data that cannot be graded.
	ErrMalformedQuestion = errors.New("malformed question data")
)
