package score

import (
	"sort"

	"trivia-rotation-service/internal/domain"
)

// Rank orders entries into a leaderboard: score descending, ties broken by
// earlier completion, then by uid for stability. Ranks are 1-based.
func Rank(packID, callerUID string, entries []domain.ScoreEntry) domain.Leaderboard {
	sorted := make([]domain.ScoreEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if !sorted[i].CompletedAt.Equal(sorted[j].CompletedAt) {
			return sorted[i].CompletedAt.Before(sorted[j].CompletedAt)
		}
		return sorted[i].UID < sorted[j].UID
	})

	lb := domain.Leaderboard{PackID: packID}
	for i, entry := range sorted {
		if entry.UID == callerUID {
			lb.CallerRank = i + 1
		}
		if i < LeaderboardSize {
			lb.Entries = append(lb.Entries, domain.LeaderboardEntry{
				Rank:        i + 1,
				UID:         entry.UID,
				Score:       entry.Score,
				CompletedAt: entry.CompletedAt,
			})
		}
	}
	return lb
}
