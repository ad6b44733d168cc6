package rotation

import (
	"context"
	"fmt"
	"time"

	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/pool"
)

// ProgressStore persists per-user, per-topic rotation cursors.
type ProgressStore interface {
	GetProgress(ctx context.Context, uid, topicID string) (domain.CategoryProgress, bool, error)
	PutProgress(ctx context.Context, uid, topicID string, progress domain.CategoryProgress) error
}

// PoolFetcher yields the eligible question set for a topic.
type PoolFetcher interface {
	FetchEligible(ctx context.Context, topicID, categoryHint string) (pool.Result, error)
}

// Selection is the outcome of one window pick.
type Selection struct {
	QuestionIDs       []string
	Questions         []domain.Question
	PoolSize          int
	CursorBefore      int
	CursorAfter       int
	ExhaustedThisPick bool
	ExhaustedCount    int
	WeekKey           string
}

// Selector deterministically picks a non-repeating window of questions per
// user and topic. The rotation seed is derived from (uid, topic, week) and
// resets on the weekly epoch boundary, so a user sees every pool question
// once per rotation before any repeat inside the same week.
//
// Concurrent selections for the same (uid, topic) race on the cursor with
// last-writer-wins semantics; that relaxation is accepted.
type Selector struct {
	progress ProgressStore
	pools    PoolFetcher
	now      func() time.Time
}

func NewSelector(progress ProgressStore, pools PoolFetcher) *Selector {
	return NewSelectorWithClock(progress, pools, time.Now)
}

// NewSelectorWithClock allows deterministic week keys in tests.
func NewSelectorWithClock(progress ProgressStore, pools PoolFetcher, now func() time.Time) *Selector {
	return &Selector{progress: progress, pools: pools, now: now}
}

// SelectWindow picks the next windowSize questions for uid on topicID and
// advances the persisted cursor.
func (s *Selector) SelectWindow(ctx context.Context, uid, topicID, categoryHint string, windowSize int) (Selection, error) {
	if uid == "" {
		return Selection{}, domain.E(domain.CodeInvalidArgument, "missing uid")
	}
	if topicID == "" {
		return Selection{}, domain.E(domain.CodeInvalidArgument, "missing topicId")
	}
	if windowSize <= 0 {
		return Selection{}, domain.E(domain.CodeInvalidArgument, "windowSize must be positive")
	}

	stored, ok, err := s.progress.GetProgress(ctx, uid, topicID)
	if err != nil {
		return Selection{}, domain.Internal(err, "progress lookup failed")
	}

	weekKey := WeekKey(s.now())
	seed := fmt.Sprintf("%s-%s-%s", uid, topicID, weekKey)
	cursor := 0
	exhaustedBase := 0
	if ok && stored.WeekKey == weekKey {
		// Same weekly epoch: resume the stored rotation.
		if stored.Seed != "" {
			seed = stored.Seed
		}
		if stored.Cursor > 0 {
			cursor = stored.Cursor
		}
		if stored.ExhaustedCount > 0 {
			exhaustedBase = stored.ExhaustedCount
		}
	}

	fetched, err := s.pools.FetchEligible(ctx, topicID, categoryHint)
	if err != nil {
		return Selection{}, err
	}
	poolSize := fetched.EligibleCount
	if poolSize == 0 {
		return Selection{}, domain.E(domain.CodeFailedPrecondition, "no questions available for topic %q", topicID)
	}
	if poolSize < windowSize {
		return Selection{}, domain.E(domain.CodeFailedPrecondition,
			"not enough questions for topic %q: pool=%d requested=%d", topicID, poolSize, windowSize)
	}

	ids := make([]string, len(fetched.Questions))
	byID := make(map[string]domain.Question, len(fetched.Questions))
	for i, q := range fetched.Questions {
		ids[i] = q.ID
		byID[q.ID] = q
	}
	shuffled := Shuffle(ids, seed)

	cursorBefore := ((cursor % poolSize) + poolSize) % poolSize
	end := cursorBefore + windowSize

	var selected []string
	var cursorAfter int
	var exhausted bool
	if end <= poolSize {
		selected = append(selected, shuffled[cursorBefore:end]...)
		exhausted = end == poolSize
		if exhausted {
			cursorAfter = 0
		} else {
			cursorAfter = end
		}
	} else {
		selected = append(selected, shuffled[cursorBefore:]...)
		selected = append(selected, shuffled[:end-poolSize]...)
		cursorAfter = end - poolSize
		exhausted = true
	}

	exhaustedCount := exhaustedBase
	if exhausted {
		exhaustedCount++
	}

	if err := s.progress.PutProgress(ctx, uid, topicID, domain.CategoryProgress{
		Seed:           seed,
		Cursor:         cursorAfter,
		ExhaustedCount: exhaustedCount,
		WeekKey:        weekKey,
	}); err != nil {
		return Selection{}, domain.Internal(err, "progress update failed")
	}

	questions := make([]domain.Question, 0, len(selected))
	for _, id := range selected {
		questions = append(questions, byID[id])
	}

	return Selection{
		QuestionIDs:       selected,
		Questions:         questions,
		PoolSize:          poolSize,
		CursorBefore:      cursorBefore,
		CursorAfter:       cursorAfter,
		ExhaustedThisPick: exhausted,
		ExhaustedCount:    exhaustedCount,
		WeekKey:           weekKey,
	}, nil
}
