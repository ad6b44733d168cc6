// Package diagnostics answers admin questions about why a topic's question
// pool looks the way it does.
package diagnostics

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/pack"
	"trivia-rotation-service/internal/topic"
)

const sampleLimit = 5

// QuestionIndex exposes the raw field-level question lookups diagnostics
// needs; unlike pool fetching these do not apply eligibility filtering.
type QuestionIndex interface {
	CountByTopicField(ctx context.Context, topicID string) (int, error)
	CountByCategoryField(ctx context.Context, categoryID string) (int, error)
	SampleByTopicField(ctx context.Context, topicID string, limit int) ([]domain.Question, error)
	SampleByCategoryField(ctx context.Context, categoryID string, limit int) ([]domain.Question, error)
}

// Caller identifies who is asking. Identity verification happens upstream;
// this service only checks the admin flag.
type Caller struct {
	UID   string
	Admin bool
}

// Request selects what to diagnose.
type Request struct {
	TopicID    string
	CategoryID string
	Topic      string
	PackID     string
}

// Report is the diagnostic result.
type Report struct {
	Resolution           topic.Resolution  `json:"resolution"`
	TopicFieldCount      int               `json:"topicFieldCount"`
	CategoryFieldCount   int               `json:"categoryFieldCount"`
	TopicFieldSamples    []string          `json:"topicFieldSamples"`
	CategoryFieldSamples []string          `json:"categoryFieldSamples"`
	MissingFieldWarnings []string          `json:"missingFieldWarnings"`
	Pack                 *domain.TriviaPack `json:"pack,omitempty"`
}

// Service runs topic/question diagnostics for admins.
type Service struct {
	resolver *topic.Resolver
	index    QuestionIndex
	packs    pack.Store
}

func NewService(resolver *topic.Resolver, index QuestionIndex, packs pack.Store) *Service {
	return &Service{resolver: resolver, index: index, packs: packs}
}

// Diagnose resolves the inputs and reports how many questions match the
// canonical topic by topicId vs categoryId, with samples and missing-field
// warnings. Admin-only.
func (s *Service) Diagnose(ctx context.Context, caller Caller, req Request) (Report, error) {
	if caller.UID == "" {
		return Report{}, domain.E(domain.CodeUnauthenticated, "caller identity required")
	}
	if !caller.Admin {
		return Report{}, domain.E(domain.CodePermissionDenied, "diagnostics access denied")
	}

	resolved, err := s.resolver.Resolve(ctx, req.TopicID, req.CategoryID, req.Topic)
	if err != nil {
		return Report{}, err
	}
	baseTopicID := resolved.CanonicalTopicID

	report := Report{Resolution: resolved}
	var topicSample, categorySample []domain.Question

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.index.CountByTopicField(gctx, baseTopicID)
		report.TopicFieldCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.index.CountByCategoryField(gctx, baseTopicID)
		report.CategoryFieldCount = n
		return err
	})
	g.Go(func() error {
		qs, err := s.index.SampleByTopicField(gctx, baseTopicID, sampleLimit)
		topicSample = qs
		return err
	})
	g.Go(func() error {
		qs, err := s.index.SampleByCategoryField(gctx, baseTopicID, sampleLimit)
		categorySample = qs
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, domain.Internal(err, "question index unavailable")
	}

	report.TopicFieldSamples = questionIDs(topicSample)
	report.CategoryFieldSamples = questionIDs(categorySample)
	report.MissingFieldWarnings = missingFieldWarnings(append(topicSample, categorySample...))

	if req.PackID != "" {
		p, ok, err := s.packs.GetPack(ctx, req.PackID)
		if err != nil {
			return Report{}, domain.Internal(err, "pack lookup failed")
		}
		if ok {
			report.Pack = &p
		}
	}

	log.Printf("diagnose topic=%s topicField=%d categoryField=%d issues=%d",
		baseTopicID, report.TopicFieldCount, report.CategoryFieldCount, len(resolved.MappingIssues))
	return report, nil
}

func questionIDs(qs []domain.Question) []string {
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids
}

// missingFieldWarnings flags schema gaps on sampled questions; warnings are
// deduplicated across the sample.
func missingFieldWarnings(qs []domain.Question) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(w string) {
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	for _, q := range qs {
		if q.TopicID == "" {
			add("missing topicId")
		}
		if q.CategoryID == "" {
			add("missing categoryId")
		}
		if q.Prompt == "" {
			add("missing prompt")
		}
		if len(q.Choices) == 0 {
			add("missing choices")
		}
		if q.CorrectIndex < 0 || (len(q.Choices) > 0 && q.CorrectIndex >= len(q.Choices)) {
			add("correctIndex out of range")
		}
	}
	return out
}
