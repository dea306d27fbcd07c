package redis

import (
	"context"
	"encoding/json"
	"time"

	"edtrack-assessment-service/internal/app"
	"edtrack-assessment-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// LeaderboardCache caches assembled leaderboards in Redis in front of a
// slower source. Stored as: SET leaderboard:{assessmentID} {json}
type LeaderboardCache struct {
	client *redis.Client
	source app.LeaderboardSource
	ttl    time.Duration
	sf     singleflight.Group
}

func NewLeaderboardCache(client *redis.Client, source app.LeaderboardSource, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, source: source, ttl: ttl}
}

func (c *LeaderboardCache) GetLeaderboard(ctx context.Context, assessmentID string) (domain.Leaderboard, error) {
	key := c.key(assessmentID)

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var board domain.Leaderboard
		if err := json.Unmarshal(cached, &board); err == nil {
			return board, nil
		}
	}

	result, err, _ := c.sf.Do(assessmentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var board domain.Leaderboard
			if err := json.Unmarshal(cached, &board); err == nil {
				return board, nil
			}
		}

		board, err := c.source.GetLeaderboard(ctx, assessmentID)
		if err != nil {
			return domain.Leaderboard{}, err
		}

		if encoded, err := json.Marshal(board); err == nil {
			_ = c.client.Set(ctx, key, encoded, ttlWithJitter(c.ttl)).Err()
		}

		return board, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// Invalidate drops the cached leaderboard for the attempt's assessment. It
// matches the finalize listener signature so a freshly frozen score is
// visible on the next read.
func (c *LeaderboardCache) Invalidate(ctx context.Context, attempt domain.Attempt) {
	if err := c.client.Del(ctx, c.key(attempt.AssessmentID)).Err(); err != nil {
		log.Warn().Err(err).Str("assessmentId", attempt.AssessmentID).Msg("Leaderboard cache invalidation failed")
	}
}

func (c *LeaderboardCache) key(assessmentID string) string {
	return "leaderboard:" + assessmentID
}
