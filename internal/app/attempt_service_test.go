package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"edtrack-assessment-service/internal/domain"
	"edtrack-assessment-service/internal/infra/memory"
)

type env struct {
	clock    *fakeClock
	bank     *countingBank
	attempts *memory.AttemptStore
	answers  *memory.AnswerStore
	service  *AttemptService
}

func newEnv(assessment domain.Assessment) *env {
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	bank := &countingBank{assessments: map[string]domain.Assessment{assessment.ID: assessment}}
	attempts := memory.NewAttemptStore()
	answers := memory.NewAnswerStore()
	return &env{
		clock:    clock,
		bank:     bank,
		attempts: attempts,
		answers:  answers,
		service:  NewAttemptServiceWithClock(bank, attempts, answers, clock.Now),
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingBank struct {
	mu          sync.Mutex
	assessments map[string]domain.Assessment
	loads       int
}

func (b *countingBank) GetAssessment(_ context.Context, assessmentID string) (domain.Assessment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	assessment, ok := b.assessments[assessmentID]
	if !ok {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	return assessment, nil
}

func (b *countingBank) loadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads
}

func (b *countingBank) put(assessment domain.Assessment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assessments[assessment.ID] = assessment
}

func quizFixture() domain.Assessment {
	passing := 2.0
	return domain.Assessment{
		ID:                     "exam-1",
		Title:                  "Sample Exam",
		Type:                   "quiz",
		Published:              true,
		DurationMinutes:        30,
		MaxAttempts:            3,
		NegativeMarkingPercent: 25,
		PassingMarks:           &passing,
		ShowResultAfter:        domain.ShowResultAfterSubmit,
		Questions: []domain.Question{
			{
				ID:    "q1",
				Type:  domain.QuestionMCQ,
				Text:  "What is 2 + 2?",
				Marks: 1,
				Options: []domain.Option{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4"},
					{ID: "o3", Text: "5"},
				},
				Correct: domain.MCQAnswer{OptionID: "o2"},
			},
			{
				ID:    "q2",
				Type:  domain.QuestionMSQ,
				Text:  "Select the even numbers.",
				Marks: 2,
				Options: []domain.Option{
					{ID: "o1", Text: "2"},
					{ID: "o2", Text: "3"},
					{ID: "o3", Text: "4"},
				},
				Correct: domain.MSQAnswer{OptionIDs: []string{"o1", "o3"}},
			},
			{
				ID:      "q3",
				Type:    domain.QuestionNAT,
				Text:    "What is 10 / 4?",
				Marks:   2,
				Correct: domain.NATAnswer{Value: 2.5, Tolerance: 0.01},
			},
		},
	}
}

func TestStartAttemptNewAndResume(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	attempt, resumed, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if resumed {
		t.Fatalf("expected a fresh attempt")
	}
	if attempt.ExpiresAt == nil || !attempt.ExpiresAt.Equal(attempt.StartedAt.Add(30*time.Minute)) {
		t.Fatalf("expected a 30 minute deadline, got %+v", attempt.ExpiresAt)
	}
	want := []string{"q1", "q2", "q3"}
	for i, questionID := range want {
		if attempt.QuestionOrder[i] != questionID {
			t.Fatalf("expected natural order %v, got %v", want, attempt.QuestionOrder)
		}
	}

	env.clock.Advance(5 * time.Minute)
	again, resumed, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed || again.ID != attempt.ID {
		t.Fatalf("expected resume of %s, got resumed=%v id=%s", attempt.ID, resumed, again.ID)
	}
	if !again.ExpiresAt.Equal(*attempt.ExpiresAt) {
		t.Fatalf("resume must not move the deadline: %v vs %v", again.ExpiresAt, attempt.ExpiresAt)
	}
}

func TestStartAttemptShuffledOrdersStable(t *testing.T) {
	assessment := quizFixture()
	assessment.ShuffleQuestions = true
	assessment.ShuffleOptions = true
	env := newEnv(assessment)
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	seen := make(map[string]bool)
	for _, questionID := range attempt.QuestionOrder {
		seen[questionID] = true
	}
	if len(attempt.QuestionOrder) != 3 || !seen["q1"] || !seen["q2"] || !seen["q3"] {
		t.Fatalf("question order is not a permutation: %v", attempt.QuestionOrder)
	}
	if len(attempt.OptionOrder["q1"]) != 3 || len(attempt.OptionOrder["q2"]) != 3 {
		t.Fatalf("expected option orders for choice questions, got %v", attempt.OptionOrder)
	}
	if _, ok := attempt.OptionOrder["q3"]; ok {
		t.Fatalf("numeric questions have no options to order")
	}

	again, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	for i := range attempt.QuestionOrder {
		if again.QuestionOrder[i] != attempt.QuestionOrder[i] {
			t.Fatalf("question order changed on resume: %v vs %v", again.QuestionOrder, attempt.QuestionOrder)
		}
	}
	for questionID, order := range attempt.OptionOrder {
		for i := range order {
			if again.OptionOrder[questionID][i] != order[i] {
				t.Fatalf("option order changed on resume for %s: %v vs %v", questionID, again.OptionOrder[questionID], order)
			}
		}
	}
}

func TestStartAttemptOutsideWindow(t *testing.T) {
	ctx := context.Background()

	unpublished := quizFixture()
	unpublished.Published = false
	env := newEnv(unpublished)
	if _, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1"); !errors.Is(err, domain.ErrAssessmentNotOpen) {
		t.Fatalf("unpublished: expected ErrAssessmentNotOpen, got %v", err)
	}

	early := quizFixture()
	startTime := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	early.StartTime = &startTime
	env = newEnv(early)
	if _, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1"); !errors.Is(err, domain.ErrAssessmentNotOpen) {
		t.Fatalf("before start: expected ErrAssessmentNotOpen, got %v", err)
	}

	late := quizFixture()
	endTime := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	late.EndTime = &endTime
	env = newEnv(late)
	if _, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1"); !errors.Is(err, domain.ErrAssessmentNotOpen) {
		t.Fatalf("after end: expected ErrAssessmentNotOpen, got %v", err)
	}
}

func TestStartAttemptMaxAttempts(t *testing.T) {
	assessment := quizFixture()
	assessment.MaxAttempts = 1
	env := newEnv(assessment)
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.service.SubmitAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1"); !errors.Is(err, domain.ErrMaxAttemptsReached) {
		t.Fatalf("expected ErrMaxAttemptsReached, got %v", err)
	}

	// Zero means unlimited.
	unlimited := quizFixture()
	unlimited.MaxAttempts = 0
	env = newEnv(unlimited)
	for i := 0; i < 3; i++ {
		attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if _, err := env.service.SubmitAttempt(ctx, attempt.ID); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
}

func TestStartAttemptConcurrentSingleWinner(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[string]struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
			if err != nil {
				t.Errorf("start: %v", err)
				return
			}
			mu.Lock()
			ids[attempt.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != 1 {
		t.Fatalf("expected every caller to land on one attempt, got %d", len(ids))
	}
}

func TestExpiredAttemptDoesNotBlockNewStart(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	old, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	env.clock.Advance(31 * time.Minute)

	fresh, resumed, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if resumed || fresh.ID == old.ID {
		t.Fatalf("expected a new attempt after expiry, got resumed=%v id=%s", resumed, fresh.ID)
	}

	swept, err := env.attempts.Get(ctx, old.ID)
	if err != nil {
		t.Fatalf("get old: %v", err)
	}
	if swept.Status != domain.AttemptSubmitted || !swept.TimedOut {
		t.Fatalf("expected the stale attempt force-submitted, got %+v", swept)
	}
}

func TestSaveAnswerLastWriteWins(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q1", domain.MCQValue{OptionID: "o1"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q1", domain.MCQValue{OptionID: "o2"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	result, err := env.service.SubmitAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.CorrectCount != 1 {
		t.Fatalf("expected the later answer to be graded, got %+v", result)
	}
}

func TestSaveAnswerValidation(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	cases := []struct {
		name       string
		questionID string
		value      domain.AnswerValue
		want       error
	}{
		{"unknown question", "q9", domain.MCQValue{OptionID: "o1"}, domain.ErrQuestionNotFound},
		{"unknown option", "q1", domain.MCQValue{OptionID: "o9"}, domain.ErrInvalidAnswer},
		{"kind mismatch", "q1", domain.NATValue{Number: 4}, domain.ErrInvalidAnswer},
		{"empty selection", "q2", domain.MSQValue{}, domain.ErrInvalidAnswer},
		{"missing value", "q1", nil, domain.ErrInvalidAnswer},
	}
	for _, tc := range cases {
		if err := env.service.SaveAnswer(ctx, attempt.ID, tc.questionID, tc.value); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, err := env.service.SubmitAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q1", domain.MCQValue{OptionID: "o1"}); !errors.Is(err, domain.ErrAttemptClosed) {
		t.Fatalf("closed attempt: expected ErrAttemptClosed, got %v", err)
	}
}

func TestSubmitIdempotentWithoutRescoring(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q1", domain.MCQValue{OptionID: "o2"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	first, err := env.service.SubmitAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	loadsAfterFirst := env.bank.loadCount()

	second, err := env.service.SubmitAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("repeat submit: %v", err)
	}
	if second.TotalScore != first.TotalScore || second.CorrectCount != first.CorrectCount {
		t.Fatalf("repeat submit changed the result: %+v vs %+v", second, first)
	}
	if env.bank.loadCount() != loadsAfterFirst {
		t.Fatalf("repeat submit hit the question bank again")
	}
}

func TestSubmitRaceScoresOnce(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	var mu sync.Mutex
	finalized := 0
	env.service.OnFinalize(func(_ context.Context, _ domain.Attempt) {
		mu.Lock()
		finalized++
		mu.Unlock()
	})

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q1", domain.MCQValue{OptionID: "o2"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]domain.AttemptResult, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := env.service.SubmitAttempt(ctx, attempt.ID)
			if err != nil {
				t.Errorf("submit %d: %v", i, err)
				return
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	if finalized != 1 {
		t.Fatalf("expected exactly one finalization, got %d", finalized)
	}
	for i := 1; i < len(results); i++ {
		if results[i].TotalScore != results[0].TotalScore {
			t.Fatalf("racing submits disagree: %+v vs %+v", results[i], results[0])
		}
	}
}

func TestMalformedQuestionLeavesAttemptInProgress(t *testing.T) {
	assessment := quizFixture()
	assessment.Questions[2].Correct = nil
	env := newEnv(assessment)
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q3", domain.NATValue{Number: 2.5}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := env.service.SubmitAttempt(ctx, attempt.ID); !errors.Is(err, domain.ErrMalformedQuestion) {
		t.Fatalf("expected ErrMalformedQuestion, got %v", err)
	}

	current, err := env.attempts.Get(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Status != domain.AttemptInProgress || current.Result != nil {
		t.Fatalf("scoring failure must not freeze the attempt: %+v", current)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q1", domain.MCQValue{OptionID: "o2"}); err != nil {
		t.Fatalf("attempt should still accept answers: %v", err)
	}
}

func TestTimeoutForcesSubmission(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q1", domain.MCQValue{OptionID: "o2"}); err != nil {
		t.Fatalf("save q1: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, attempt.ID, "q2", domain.MSQValue{OptionIDs: []string{"o2"}}); err != nil {
		t.Fatalf("save q2: %v", err)
	}

	env.clock.Advance(31 * time.Minute)

	if err := env.service.SaveAnswer(ctx, attempt.ID, "q3", domain.NATValue{Number: 2.5}); !errors.Is(err, domain.ErrAttemptExpired) {
		t.Fatalf("expected ErrAttemptExpired, got %v", err)
	}

	swept, err := env.attempts.Get(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if swept.Status != domain.AttemptSubmitted || !swept.TimedOut || swept.SubmittedAt == nil {
		t.Fatalf("expected a timed-out submission, got %+v", swept)
	}

	// q1 correct (+1), q2 wrong (-0.5), q3 skipped with no penalty.
	result := swept.Result
	if result == nil {
		t.Fatalf("expected a frozen result")
	}
	if result.TotalScore != 0.5 || result.CorrectCount != 1 || result.WrongCount != 1 || result.SkippedCount != 1 {
		t.Fatalf("unexpected timeout score %+v", result)
	}
	for _, q := range result.PerQuestion {
		if q.Skipped && q.MarksAwarded != 0 {
			t.Fatalf("skipped question was penalized: %+v", q)
		}
	}
}

func TestGetAttemptResultGuards(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.service.GetAttemptResult(ctx, attempt.ID); !errors.Is(err, domain.ErrNotSubmitted) {
		t.Fatalf("expected ErrNotSubmitted, got %v", err)
	}

	// Reading the result of an expired attempt finalizes it first.
	env.clock.Advance(31 * time.Minute)
	result, err := env.service.GetAttemptResult(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("result after expiry: %v", err)
	}
	if result.SkippedCount != 3 || result.TotalScore != 0 {
		t.Fatalf("expected an all-skipped zero result, got %+v", result)
	}
}

func TestSweepExpiredFinalizesAll(t *testing.T) {
	env := newEnv(quizFixture())
	ctx := context.Background()

	a1, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start u1: %v", err)
	}
	a2, _, err := env.service.StartAttempt(ctx, "exam-1", "user-2")
	if err != nil {
		t.Fatalf("start u2: %v", err)
	}
	env.clock.Advance(20 * time.Minute)
	live, _, err := env.service.StartAttempt(ctx, "exam-1", "user-3")
	if err != nil {
		t.Fatalf("start u3: %v", err)
	}
	env.clock.Advance(11 * time.Minute)

	finalized, err := env.service.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if finalized != 2 {
		t.Fatalf("expected two attempts swept, got %d", finalized)
	}
	for _, id := range []string{a1.ID, a2.ID} {
		attempt, err := env.attempts.Get(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if attempt.Status != domain.AttemptSubmitted || !attempt.TimedOut {
			t.Fatalf("expected %s swept, got %+v", id, attempt)
		}
	}
	current, err := env.attempts.Get(ctx, live.ID)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if current.Status != domain.AttemptInProgress {
		t.Fatalf("live attempt must survive the sweep, got %+v", current)
	}
}

func TestResultVisibilityManualRelease(t *testing.T) {
	assessment := quizFixture()
	assessment.ShowResultAfter = domain.ShowResultManual
	env := newEnv(assessment)
	ctx := context.Background()

	attempt, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.service.SubmitAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	visible, err := env.service.ResultVisible(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("visible: %v", err)
	}
	if visible {
		t.Fatalf("manual mode must withhold results before release")
	}

	released := env.clock.Now().Add(-time.Minute)
	assessment.ResultsReleasedAt = &released
	env.bank.put(assessment)

	visible, err = env.service.ResultVisible(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("visible after release: %v", err)
	}
	if !visible {
		t.Fatalf("expected results visible after release")
	}
}

func TestLeaderboardUsesBestAttemptPerUser(t *testing.T) {
	assessment := quizFixture()
	assessment.MaxAttempts = 0
	env := newEnv(assessment)
	ctx := context.Background()

	// user-1: a weak attempt, then a perfect one.
	weak, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start weak: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, weak.ID, "q1", domain.MCQValue{OptionID: "o2"}); err != nil {
		t.Fatalf("save weak: %v", err)
	}
	if _, err := env.service.SubmitAttempt(ctx, weak.ID); err != nil {
		t.Fatalf("submit weak: %v", err)
	}

	strong, _, err := env.service.StartAttempt(ctx, "exam-1", "user-1")
	if err != nil {
		t.Fatalf("start strong: %v", err)
	}
	for questionID, value := range map[string]domain.AnswerValue{
		"q1": domain.MCQValue{OptionID: "o2"},
		"q2": domain.MSQValue{OptionIDs: []string{"o1", "o3"}},
		"q3": domain.NATValue{Number: 2.5},
	} {
		if err := env.service.SaveAnswer(ctx, strong.ID, questionID, value); err != nil {
			t.Fatalf("save strong %s: %v", questionID, err)
		}
	}
	if _, err := env.service.SubmitAttempt(ctx, strong.ID); err != nil {
		t.Fatalf("submit strong: %v", err)
	}

	// user-2: a middling attempt.
	mid, _, err := env.service.StartAttempt(ctx, "exam-1", "user-2")
	if err != nil {
		t.Fatalf("start mid: %v", err)
	}
	if err := env.service.SaveAnswer(ctx, mid.ID, "q2", domain.MSQValue{OptionIDs: []string{"o1", "o3"}}); err != nil {
		t.Fatalf("save mid: %v", err)
	}
	if _, err := env.service.SubmitAttempt(ctx, mid.ID); err != nil {
		t.Fatalf("submit mid: %v", err)
	}

	board, err := env.service.GetLeaderboard(ctx, "exam-1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("expected one entry per user, got %+v", board.Entries)
	}
	if board.Entries[0].UserID != "user-1" || board.Entries[0].AttemptID != strong.ID || board.Entries[0].Rank != 1 {
		t.Fatalf("expected user-1's best attempt first, got %+v", board.Entries[0])
	}
	if board.Entries[1].UserID != "user-2" || board.Entries[1].Rank != 2 {
		t.Fatalf("expected user-2 second, got %+v", board.Entries[1])
	}
}
