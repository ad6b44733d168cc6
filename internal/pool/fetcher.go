// Package pool retrieves and filters the eligible question set for a topic.
package pool

import (
	"context"

	"trivia-rotation-service/internal/domain"
)

// QuestionSource lists candidate question records for a topic from the
// backing store. Implementations may over-fetch (e.g. include records with a
// missing topicId); Fetcher applies the eligibility filter.
type QuestionSource interface {
	ListForTopic(ctx context.Context, topicID string) ([]domain.Question, error)
}

// Result carries the eligible set plus the raw/eligible counts for
// diagnostics.
type Result struct {
	Questions     []domain.Question
	RawCount      int
	EligibleCount int
}

// Fetcher returns the full eligible question set for a canonical topic. It
// never shuffles or truncates.
type Fetcher struct {
	source QuestionSource
}

func NewFetcher(source QuestionSource) *Fetcher {
	return &Fetcher{source: source}
}

// FetchEligible filters the source's records: a record is eligible iff it is
// active, its topicId matches the canonical topic or is absent, and (when a
// category hint is supplied) its categoryId matches the hint or is absent.
func (f *Fetcher) FetchEligible(ctx context.Context, topicID, categoryHint string) (Result, error) {
	raw, err := f.source.ListForTopic(ctx, topicID)
	if err != nil {
		return Result{}, domain.Internal(err, "question lookup failed")
	}
	eligible := make([]domain.Question, 0, len(raw))
	for _, q := range raw {
		if !Eligible(q, topicID, categoryHint) {
			continue
		}
		eligible = append(eligible, q)
	}
	return Result{
		Questions:     eligible,
		RawCount:      len(raw),
		EligibleCount: len(eligible),
	}, nil
}

// Eligible reports whether q may be served for the canonical topic.
func Eligible(q domain.Question, topicID, categoryHint string) bool {
	if !q.Active {
		return false
	}
	if q.TopicID != "" && q.TopicID != topicID {
		return false
	}
	if categoryHint != "" && q.CategoryID != "" && q.CategoryID != categoryHint {
		return false
	}
	return true
}
