package app

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"edtrack-assessment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// QuestionBank provides published assessment documents, grading keys included.
// Keys must never leave the grading path; client reads go through GetAttempt.
type QuestionBank interface {
	GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// AttemptStore persists attempts and owns the atomic transition from
// in_progress to submitted.
type AttemptStore interface {
	Create(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, attemptID string) (domain.Attempt, error)
	FindInProgress(ctx context.Context, assessmentID, userID string) (domain.Attempt, bool, error)
	CountSubmitted(ctx context.Context, assessmentID, userID string) (int, error)
	// MarkSubmitted freezes the result iff the attempt is still in progress.
	// The boolean reports whether this caller won the transition.
	MarkSubmitted(ctx context.Context, attemptID string, submittedAt time.Time, timedOut bool, result domain.AttemptResult) (bool, error)
	ListSubmitted(ctx context.Context, assessmentID string) ([]domain.Attempt, error)
	ListByUser(ctx context.Context, assessmentID, userID string) ([]domain.Attempt, error)
	ListExpired(ctx context.Context, now time.Time) ([]domain.Attempt, error)
}

// AnswerStore upserts per-question answers; the last write to arrive wins.
type AnswerStore interface {
	Upsert(ctx context.Context, answer domain.Answer) error
	List(ctx context.Context, attemptID string) ([]domain.Answer, error)
}

// FinalizeListener observes attempts reaching their terminal state.
type FinalizeListener func(ctx context.Context, attempt domain.Attempt)

const sweepConcurrency = 8

// AttemptService contains the attempt lifecycle and scoring use cases.
type AttemptService struct {
	bank      QuestionBank
	attempts  AttemptStore
	answers   AnswerStore
	now       func() time.Time
	listeners []FinalizeListener
}

func NewAttemptService(bank QuestionBank, attempts AttemptStore, answers AnswerStore) *AttemptService {
	return NewAttemptServiceWithClock(bank, attempts, answers, time.Now)
}

// NewAttemptServiceWithClock allows deterministic expiry in tests.
func NewAttemptServiceWithClock(bank QuestionBank, attempts AttemptStore, answers AnswerStore, now func() time.Time) *AttemptService {
	return &AttemptService{bank: bank, attempts: attempts, answers: answers, now: now}
}

// OnFinalize registers a listener invoked after an attempt is frozen.
// Wire listeners at startup, before the service handles requests.
func (s *AttemptService) OnFinalize(listener FinalizeListener) {
	s.listeners = append(s.listeners, listener)
}

// StartAttempt resumes the user's in-progress attempt or creates a new one.
// The persisted question and option orders are generated once here and stay
// stable across resumes.
func (s *AttemptService) StartAttempt(ctx context.Context, assessmentID, userID string) (domain.Attempt, bool, error) {
	assessment, err := s.bank.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Attempt{}, false, err
	}

	existing, ok, err := s.attempts.FindInProgress(ctx, assessmentID, userID)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	if ok {
		if !existing.Expired(s.now()) {
			return existing, true, nil
		}
		// Expired while unobserved; force-submit before counting attempts.
		if _, err := s.finalize(ctx, existing, true); err != nil {
			return domain.Attempt{}, false, err
		}
	}

	now := s.now()
	if !assessment.OpenAt(now) {
		return domain.Attempt{}, false, domain.ErrAssessmentNotOpen
	}
	used, err := s.attempts.CountSubmitted(ctx, assessmentID, userID)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	if assessment.MaxAttempts > 0 && used >= assessment.MaxAttempts {
		return domain.Attempt{}, false, domain.ErrMaxAttemptsReached
	}

	attempt := newAttempt(assessment, userID, now)
	if err := s.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, domain.ErrDuplicateAttempt) {
			// Lost the create race; resume the winner's attempt.
			winner, ok, findErr := s.attempts.FindInProgress(ctx, assessmentID, userID)
			if findErr == nil && ok {
				return winner, true, nil
			}
		}
		return domain.Attempt{}, false, err
	}
	return attempt, false, nil
}

// SaveAnswer validates and upserts one question's answer on a live attempt.
// It never touches the attempt deadline.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID, questionID string, value domain.AnswerValue) error {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return err
	}
	if attempt.Status == domain.AttemptSubmitted {
		return domain.ErrAttemptClosed
	}
	if attempt.Expired(s.now()) {
		if _, err := s.finalize(ctx, attempt, true); err != nil {
			return err
		}
		return domain.ErrAttemptExpired
	}

	assessment, err := s.bank.GetAssessment(ctx, attempt.AssessmentID)
	if err != nil {
		return err
	}
	question, ok := assessment.QuestionByID(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if err := validateAnswer(question, value); err != nil {
		return err
	}

	return s.answers.Upsert(ctx, domain.Answer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		Value:      value,
		SavedAt:    s.now(),
	})
}

// SubmitAttempt scores and freezes the attempt. Repeat calls return the
// already-frozen result without rescoring.
func (s *AttemptService) SubmitAttempt(ctx context.Context, attemptID string) (domain.AttemptResult, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	if attempt.Status == domain.AttemptSubmitted {
		return frozenResult(attempt)
	}
	return s.finalize(ctx, attempt, attempt.Expired(s.now()))
}

// GetAttemptResult returns the frozen result, force-submitting first when the
// deadline passed unobserved.
func (s *AttemptService) GetAttemptResult(ctx context.Context, attemptID string) (domain.AttemptResult, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	if attempt.Status == domain.AttemptSubmitted {
		return frozenResult(attempt)
	}
	if attempt.Expired(s.now()) {
		return s.finalize(ctx, attempt, true)
	}
	return domain.AttemptResult{}, domain.ErrNotSubmitted
}

// ResultVisible reports whether students may see scored results right now.
func (s *AttemptService) ResultVisible(ctx context.Context, attemptID string) (bool, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return false, err
	}
	assessment, err := s.bank.GetAssessment(ctx, attempt.AssessmentID)
	if err != nil {
		return false, err
	}
	return assessment.ResultsVisibleAt(s.now()), nil
}

// GetLeaderboard builds the ranked board from all submitted attempts.
func (s *AttemptService) GetLeaderboard(ctx context.Context, assessmentID string) (domain.Leaderboard, error) {
	if _, err := s.bank.GetAssessment(ctx, assessmentID); err != nil {
		return domain.Leaderboard{}, err
	}
	attempts, err := s.attempts.ListSubmitted(ctx, assessmentID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return BuildLeaderboard(assessmentID, attempts, s.now()), nil
}

// SweepExpired force-submits every expired in-progress attempt and reports the
// number finalized. Attempts that fail to score stay in progress for a later run.
func (s *AttemptService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.attempts.ListExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	var done, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(sweepConcurrency)
	for _, attempt := range expired {
		g.Go(func() error {
			if _, err := s.finalize(ctx, attempt, true); err != nil {
				log.Warn().Err(err).Str("attemptId", attempt.ID).Msg("Sweep could not finalize attempt")
				failed.Add(1)
				return nil
			}
			done.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	log.Info().Int64("finalized", done.Load()).Int64("failed", failed.Load()).Msg("Expiry sweep finished")
	if failed.Load() > 0 {
		return int(done.Load()), fmt.Errorf("sweep: %d of %d expired attempts failed", failed.Load(), len(expired))
	}
	return int(done.Load()), nil
}

// finalize runs the scoring computation and the atomic status flip. Manual
// submits and deadline-triggered ones share this path.
func (s *AttemptService) finalize(ctx context.Context, attempt domain.Attempt, timedOut bool) (domain.AttemptResult, error) {
	assessment, err := s.bank.GetAssessment(ctx, attempt.AssessmentID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	saved, err := s.answers.List(ctx, attempt.ID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	values := make(map[string]domain.AnswerValue, len(saved))
	for _, answer := range saved {
		values[answer.QuestionID] = answer.Value
	}

	result, err := Score(attempt.ID, assessment, values)
	if err != nil {
		log.Error().Err(err).
			Str("attemptId", attempt.ID).
			Str("assessmentId", assessment.ID).
			Msg("Scoring aborted, attempt left in progress")
		return domain.AttemptResult{}, err
	}

	submittedAt := s.now()
	won, err := s.attempts.MarkSubmitted(ctx, attempt.ID, submittedAt, timedOut, result)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	if !won {
		// A racing submit already froze the result; return that one.
		latest, err := s.attempts.Get(ctx, attempt.ID)
		if err != nil {
			return domain.AttemptResult{}, err
		}
		return frozenResult(latest)
	}

	attempt.Status = domain.AttemptSubmitted
	attempt.SubmittedAt = &submittedAt
	attempt.TimedOut = timedOut
	attempt.Result = &result
	log.Info().
		Str("attemptId", attempt.ID).
		Str("assessmentId", assessment.ID).
		Bool("timedOut", timedOut).
		Float64("totalScore", result.TotalScore).
		Msg("Attempt submitted")
	for _, listener := range s.listeners {
		listener(ctx, attempt)
	}
	return result, nil
}

func frozenResult(attempt domain.Attempt) (domain.AttemptResult, error) {
	if attempt.Result == nil {
		return domain.AttemptResult{}, fmt.Errorf("attempt %s submitted without a result", attempt.ID)
	}
	return *attempt.Result, nil
}

func newAttempt(assessment domain.Assessment, userID string, now time.Time) domain.Attempt {
	attempt := domain.Attempt{
		ID:           uuid.NewString(),
		AssessmentID: assessment.ID,
		UserID:       userID,
		Status:       domain.AttemptInProgress,
		StartedAt:    now,
	}
	if assessment.DurationMinutes > 0 {
		expires := now.Add(time.Duration(assessment.DurationMinutes) * time.Minute)
		attempt.ExpiresAt = &expires
	}

	order := make([]string, 0, len(assessment.Questions))
	for i := range assessment.Questions {
		order = append(order, assessment.Questions[i].ID)
	}
	if assessment.ShuffleQuestions {
		shuffleStrings(order, orderSeed(attempt.ID, ""))
	}
	attempt.QuestionOrder = order

	if assessment.ShuffleOptions {
		optionOrder := make(map[string][]string)
		for i := range assessment.Questions {
			question := assessment.Questions[i]
			if len(question.Options) == 0 {
				continue
			}
			ids := make([]string, 0, len(question.Options))
			for j := range question.Options {
				ids = append(ids, question.Options[j].ID)
			}
			shuffleStrings(ids, orderSeed(attempt.ID, question.ID))
			optionOrder[question.ID] = ids
		}
		attempt.OptionOrder = optionOrder
	}
	return attempt
}

// shuffleStrings permutes in place with a seed derived from the attempt ID, so
// regenerating an order reproduces it. The persisted order stays authoritative.
func shuffleStrings(ids []string, seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

func orderSeed(attemptID, questionID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(attemptID))
	if questionID != "" {
		h.Write([]byte{':'})
		h.Write([]byte(questionID))
	}
	return int64(h.Sum64())
}

// validateAnswer checks that a submitted value carries the variant the
// question declares and references known options.
func validateAnswer(question domain.Question, value domain.AnswerValue) error {
	switch v := value.(type) {
	case domain.MCQValue:
		if question.Type != domain.QuestionMCQ {
			return fmt.Errorf("question %s expects %s: %w", question.ID, question.Type, domain.ErrInvalidAnswer)
		}
		if !hasOption(question.Options, v.OptionID) {
			return fmt.Errorf("question %s has no option %s: %w", question.ID, v.OptionID, domain.ErrInvalidAnswer)
		}
	case domain.MSQValue:
		if question.Type != domain.QuestionMSQ {
			return fmt.Errorf("question %s expects %s: %w", question.ID, question.Type, domain.ErrInvalidAnswer)
		}
		ids := domain.NormalizeOptionSet(v.OptionIDs)
		if len(ids) == 0 {
			return fmt.Errorf("question %s: empty selection: %w", question.ID, domain.ErrInvalidAnswer)
		}
		for _, id := range ids {
			if !hasOption(question.Options, id) {
				return fmt.Errorf("question %s has no option %s: %w", question.ID, id, domain.ErrInvalidAnswer)
			}
		}
	case domain.NATValue:
		if question.Type != domain.QuestionNAT {
			return fmt.Errorf("question %s expects %s: %w", question.ID, question.Type, domain.ErrInvalidAnswer)
		}
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return fmt.Errorf("question %s: not a finite number: %w", question.ID, domain.ErrInvalidAnswer)
		}
	default:
		return fmt.Errorf("question %s: missing answer value: %w", question.ID, domain.ErrInvalidAnswer)
	}
	return nil
}

func hasOption(options []domain.Option, id string) bool {
	for i := range options {
		if options[i].ID == id {
			return true
		}
	}
	return false
}
