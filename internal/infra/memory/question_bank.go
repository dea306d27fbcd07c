package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"edtrack-assessment-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// AssessmentLoader fetches assessment documents from a backing store.
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// QuestionBank caches assessment documents with a TTL to avoid repeated
// backing-store reads.
type QuestionBank struct {
	loader AssessmentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedAssessment
}

type cachedAssessment struct {
	assessment domain.Assessment
	expiresAt  time.Time
}

func NewQuestionBank(loader AssessmentLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedAssessment),
	}
}

func (b *QuestionBank) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[assessmentID]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return entry.assessment, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(assessmentID, func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[assessmentID]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry.assessment, nil
		}
		b.mu.RUnlock()

		assessment, err := b.loader.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}

		b.mu.Lock()
		b.cache[assessmentID] = cachedAssessment{
			assessment: assessment,
			expiresAt:  now.Add(ttlWithJitter(b.ttl)),
		}
		b.mu.Unlock()
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

// StaticAssessmentLoader is a map-backed loader for tests and demos.
type StaticAssessmentLoader struct {
	assessments map[string]domain.Assessment
}

func NewStaticAssessmentLoader(assessments map[string]domain.Assessment) *StaticAssessmentLoader {
	return &StaticAssessmentLoader{assessments: assessments}
}

func (l *StaticAssessmentLoader) LoadAssessment(_ context.Context, assessmentID string) (domain.Assessment, error) {
	if assessment, ok := l.assessments[assessmentID]; ok {
		return assessment, nil
	}
	return domain.Assessment{}, domain.ErrAssessmentNotFound
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func ttlWithJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(rand.Int63n(jitterMax+1))
}
