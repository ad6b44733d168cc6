// Package score records results against packs exactly once and maintains
// user aggregates and leaderboards.
package score

import (
	"context"
	"math"
	"time"

	"trivia-rotation-service/internal/domain"
)

// Txn is the view of the store inside one submission transaction.
type Txn interface {
	GetScore(packID, uid string) (domain.ScoreEntry, bool, error)
	PutScore(packID string, entry domain.ScoreEntry) error
	GetPack(packID string) (domain.TriviaPack, bool, error)
	GetStats(uid string) (domain.UserStats, bool, error)
	PutStats(uid string, stats domain.UserStats) error
}

// Store runs submissions transactionally and serves leaderboard reads.
// Submit must execute fn inside a single serializable transaction: either
// all of fn's writes land or none do, and two concurrent submissions for the
// same (pack, uid) cannot both observe the score entry as absent.
type Store interface {
	Submit(ctx context.Context, fn func(tx Txn) error) error
	ListScores(ctx context.Context, packID string) ([]domain.ScoreEntry, error)
}

// Request is a raw score submission. Pointer fields distinguish "absent"
// from zero, matching clients that omit them.
type Request struct {
	PackID     string
	UID        string
	RawScore   float64
	RawCorrect *float64
	RawTotal   *float64
	DurationMS *float64
}

// Result is the committed (or previously committed) outcome.
type Result struct {
	Score       int
	MaxScore    int
	Correct     int
	XPEarned    int
	Duplicate   bool
	Leaderboard domain.Leaderboard
}

// LeaderboardSize is how many top entries a submission response carries.
const LeaderboardSize = 10

// Coordinator validates, clamps, and commits score submissions.
type Coordinator struct {
	store Store
	now   func() time.Time
}

func NewCoordinator(store Store) *Coordinator {
	return NewCoordinatorWithClock(store, time.Now)
}

// NewCoordinatorWithClock is test-only for deterministic completion times.
func NewCoordinatorWithClock(store Store, now func() time.Time) *Coordinator {
	return &Coordinator{store: store, now: now}
}

// Submit records req exactly once. A second submission for the same
// (pack, uid) is a successful no-op returning the stored result; aggregates
// are only touched on first write.
func (c *Coordinator) Submit(ctx context.Context, req Request) (Result, error) {
	if req.UID == "" {
		return Result{}, domain.E(domain.CodeInvalidArgument, "missing uid")
	}
	if req.PackID == "" {
		return Result{}, domain.E(domain.CodeInvalidArgument, "missing packId")
	}
	for _, v := range []*float64{&req.RawScore, req.RawCorrect, req.RawTotal, req.DurationMS} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return Result{}, domain.E(domain.CodeInvalidArgument, "score values must be finite")
		}
	}

	var out Result
	err := c.store.Submit(ctx, func(tx Txn) error {
		existing, ok, err := tx.GetScore(req.PackID, req.UID)
		if err != nil {
			return domain.Internal(err, "score lookup failed")
		}
		if ok {
			// Duplicate submission: re-derive the original result, write
			// nothing.
			out = Result{
				Score:     existing.Score,
				MaxScore:  existing.MaxScore,
				Correct:   existing.Correct,
				XPEarned:  existing.Correct * 100,
				Duplicate: true,
			}
			return nil
		}

		pack, ok, err := tx.GetPack(req.PackID)
		if err != nil {
			return domain.Internal(err, "pack lookup failed")
		}
		if !ok {
			return domain.E(domain.CodeNotFound, "pack %q not found", req.PackID)
		}
		if len(pack.QuestionIDs) == 0 || pack.Status == domain.PackStatusDisabled {
			return domain.E(domain.CodeFailedPrecondition, "pack %q is not scoreable", req.PackID)
		}

		maxScore := len(pack.QuestionIDs)
		safeScore := clampFloor(req.RawScore)
		safeTotal := maxScore
		if req.RawTotal != nil {
			safeTotal = clampFloor(*req.RawTotal)
		}
		safeCorrect := safeScore
		if req.RawCorrect != nil {
			safeCorrect = clampFloor(*req.RawCorrect)
		}
		if safeCorrect > safeTotal {
			safeCorrect = safeTotal
		}

		entry := domain.ScoreEntry{
			UID:         req.UID,
			Score:       safeScore,
			MaxScore:    maxScore,
			Correct:     safeCorrect,
			CompletedAt: c.now().UTC(),
		}
		if req.DurationMS != nil {
			entry.DurationSeconds = int(*req.DurationMS / 1000)
		}
		if err := tx.PutScore(req.PackID, entry); err != nil {
			return domain.Internal(err, "score write failed")
		}

		stats, _, err := tx.GetStats(req.UID)
		if err != nil {
			return domain.Internal(err, "stats lookup failed")
		}
		stats.GamesPlayed++
		stats.QuestionsAnswered += safeTotal
		stats.CorrectAnswers += safeCorrect
		stats.XP += safeCorrect * 100
		if safeCorrect > stats.BestStreak {
			stats.BestStreak = safeCorrect
		}
		if err := tx.PutStats(req.UID, stats); err != nil {
			return domain.Internal(err, "stats write failed")
		}

		out = Result{
			Score:    safeScore,
			MaxScore: maxScore,
			Correct:  safeCorrect,
			XPEarned: safeCorrect * 100,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	lb, err := c.Leaderboard(ctx, req.PackID, req.UID)
	if err != nil {
		return Result{}, err
	}
	out.Leaderboard = lb
	return out, nil
}

// Leaderboard ranks all scores for a pack: score descending, earlier
// completion winning ties. It returns the top entries plus the caller's own
// rank even when they fall outside them.
func (c *Coordinator) Leaderboard(ctx context.Context, packID, callerUID string) (domain.Leaderboard, error) {
	entries, err := c.store.ListScores(ctx, packID)
	if err != nil {
		return domain.Leaderboard{}, domain.Internal(err, "leaderboard read failed")
	}
	return Rank(packID, callerUID, entries), nil
}

func clampFloor(v float64) int {
	n := int(math.Floor(v))
	if n < 0 {
		return 0
	}
	return n
}
