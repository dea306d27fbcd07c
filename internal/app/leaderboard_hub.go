package app

import (
	"context"
	"sync"

	"edtrack-assessment-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// LeaderboardSource produces the current board for an assessment. Implemented
// by AttemptService and by the Redis cache that wraps it.
type LeaderboardSource interface {
	GetLeaderboard(ctx context.Context, assessmentID string) (domain.Leaderboard, error)
}

// LeaderboardHub fans leaderboard snapshots out to live subscribers, one topic
// per assessment.
type LeaderboardHub struct {
	source LeaderboardSource

	mu     sync.Mutex
	topics map[string]map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub(source LeaderboardSource) *LeaderboardHub {
	return &LeaderboardHub{
		source: source,
		topics: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel fed with board snapshots, primed with the
// current one. The caller must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe(ctx context.Context, assessmentID string) (<-chan domain.Leaderboard, func(), error) {
	initial, err := h.source.GetLeaderboard(ctx, assessmentID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	subs, ok := h.topics[assessmentID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		h.topics[assessmentID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.topics[assessmentID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.topics, assessmentID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel, nil
}

// AttemptFinalized rebuilds and broadcasts the board for the finalized
// attempt's assessment. It matches the FinalizeListener signature.
func (h *LeaderboardHub) AttemptFinalized(ctx context.Context, attempt domain.Attempt) {
	h.mu.Lock()
	_, listening := h.topics[attempt.AssessmentID]
	h.mu.Unlock()
	if !listening {
		return
	}

	board, err := h.source.GetLeaderboard(ctx, attempt.AssessmentID)
	if err != nil {
		log.Warn().Err(err).Str("assessmentId", attempt.AssessmentID).Msg("Could not rebuild leaderboard for broadcast")
		return
	}
	h.broadcast(attempt.AssessmentID, board)
}

// broadcast delivers the snapshot to every subscriber of the topic. A slow
// subscriber with a full buffer loses its oldest frame instead of blocking
// everyone else.
func (h *LeaderboardHub) broadcast(assessmentID string, board domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.topics[assessmentID] {
		select {
		case ch <- board:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- board
		}
	}
}
