package app

import (
	"sort"
	"time"

	"edtrack-assessment-service/internal/domain"
)

// BuildLeaderboard picks each user's best submitted attempt and ranks them.
// Best means highest percentage, ties going to the earlier submission; entry
// order uses the same rule with user ID as the final tie-break so the board is
// fully deterministic.
func BuildLeaderboard(assessmentID string, attempts []domain.Attempt, now time.Time) domain.Leaderboard {
	best := make(map[string]domain.Attempt)
	for _, attempt := range attempts {
		if attempt.Status != domain.AttemptSubmitted || attempt.Result == nil || attempt.SubmittedAt == nil {
			continue
		}
		current, ok := best[attempt.UserID]
		if !ok || better(attempt, current) {
			best[attempt.UserID] = attempt
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(best))
	for _, attempt := range best {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      attempt.UserID,
			AttemptID:   attempt.ID,
			TotalScore:  attempt.Result.TotalScore,
			Percentage:  attempt.Result.Percentage,
			SubmittedAt: *attempt.SubmittedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		if !entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return domain.Leaderboard{AssessmentID: assessmentID, Entries: entries, UpdatedAt: now}
}

// better reports whether a should replace b as a user's best attempt.
func better(a, b domain.Attempt) bool {
	if a.Result.Percentage != b.Result.Percentage {
		return a.Result.Percentage > b.Result.Percentage
	}
	if !a.SubmittedAt.Equal(*b.SubmittedAt) {
		return a.SubmittedAt.Before(*b.SubmittedAt)
	}
	return a.ID < b.ID
}
