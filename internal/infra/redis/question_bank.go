package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"edtrack-assessment-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AssessmentLoader fetches assessment content from a backing store (e.g., Postgres).
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// QuestionBank caches whole assessment documents in Redis and falls back to a
// loader on cache miss. Grading needs the full question keys, so the document
// is stored as one JSON blob:
//
//	SET assessment:{assessmentID}:doc {json}
type QuestionBank struct {
	client *redis.Client
	loader AssessmentLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionBank(client *redis.Client, loader AssessmentLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{client: client, loader: loader, ttl: ttl}
}

func (b *QuestionBank) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	key := b.docKey(assessmentID)

	if cached, err := b.client.Get(ctx, key).Bytes(); err == nil {
		var assessment domain.Assessment
		if err := json.Unmarshal(cached, &assessment); err == nil {
			return assessment, nil
		}
		// A corrupt entry falls through to a reload.
	}

	result, err, _ := b.sf.Do(assessmentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, err := b.client.Get(ctx, key).Bytes(); err == nil {
			var assessment domain.Assessment
			if err := json.Unmarshal(cached, &assessment); err == nil {
				return assessment, nil
			}
		}

		assessment, err := b.loader.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}

		if encoded, err := json.Marshal(assessment); err == nil {
			_ = b.client.Set(ctx, key, encoded, ttlWithJitter(b.ttl)).Err()
		}

		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (b *QuestionBank) docKey(assessmentID string) string {
	return "assessment:" + assessmentID + ":doc"
}

func ttlWithJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(rand.Int63n(jitterMax+1))
}
