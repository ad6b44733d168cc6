package topic

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"trivia-rotation-service/internal/domain"
)

// Registry exposes the read-only topic and category registries.
type Registry interface {
	TopicExists(ctx context.Context, id string) (bool, error)
	// GetCategory returns the category record and whether it exists.
	GetCategory(ctx context.Context, id string) (domain.Category, bool, error)
}

// Sources a resolution can come from.
const (
	ResolvedFromTopics     = "topics"
	ResolvedFromCategories = "categories"
	ResolvedFromFallback   = "fallback"
)

// Mapping issues are diagnostic only; none of them fail a resolution.
const (
	issueNormalizedInput  = "normalization changed the input"
	issueInputsDiffer     = "topicId and categoryId differ"
	issueNoCandidates     = "no candidate topic ids"
	issueNoMatchingRecord = "no matching topic/category doc"
)

// Resolution describes how a set of raw identifiers mapped onto one
// canonical topic.
type Resolution struct {
	CanonicalTopicID string   `json:"canonicalTopicId"`
	ResolvedFrom     string   `json:"resolvedFrom"`
	MappingIssues    []string `json:"mappingIssues"`
	CandidateValues  []string `json:"candidateValues"`
	InputTopicID     string   `json:"inputTopicId,omitempty"`
	InputCategoryID  string   `json:"inputCategoryId,omitempty"`
	InputTopic       string   `json:"inputTopic,omitempty"`
	// CategoryHint is forwarded to pool fetching when the caller supplied a
	// category id distinct from the canonical topic.
	CategoryHint string `json:"categoryHint,omitempty"`
}

// Resolver maps heterogeneous topic/category identifiers onto one canonical
// topic id using the registry.
type Resolver struct {
	registry Registry
}

func NewResolver(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve probes candidates strictly in priority order and short-circuits on
// the first registry hit. For each candidate the topic and category
// registries are probed concurrently; a topic hit beats a category hit for
// the same candidate.
func (r *Resolver) Resolve(ctx context.Context, topicID, categoryID, topic string) (Resolution, error) {
	topicID = strings.TrimSpace(topicID)
	categoryID = strings.TrimSpace(categoryID)
	topic = strings.TrimSpace(topic)

	primary := topicID
	if primary == "" {
		primary = categoryID
	}
	if primary == "" {
		primary = topic
	}
	if primary == "" {
		return Resolution{}, domain.E(domain.CodeInvalidArgument, "missing topic")
	}

	res := Resolution{
		InputTopicID:    topicID,
		InputCategoryID: categoryID,
		InputTopic:      topic,
		ResolvedFrom:    ResolvedFromFallback,
		MappingIssues:   []string{},
	}

	normalized := Normalize(primary)
	res.CandidateValues = collectCandidates(primary, normalized, categoryID)
	if normalized != "" && normalized != primary {
		res.MappingIssues = append(res.MappingIssues, issueNormalizedInput)
	}
	if topicID != "" && categoryID != "" && topicID != categoryID {
		res.CategoryHint = categoryID
		res.MappingIssues = append(res.MappingIssues, issueInputsDiffer)
	}
	if len(res.CandidateValues) == 0 {
		res.MappingIssues = append(res.MappingIssues, issueNoCandidates)
	}

	for _, candidate := range res.CandidateValues {
		hit, err := r.probe(ctx, candidate)
		if err != nil {
			return Resolution{}, err
		}
		if hit.inTopics {
			res.ResolvedFrom = ResolvedFromTopics
			res.CanonicalTopicID = candidate
			return res, nil
		}
		if hit.inCategories {
			res.ResolvedFrom = ResolvedFromCategories
			res.CanonicalTopicID = canonicalFromCategory(hit.category, candidate)
			return res, nil
		}
	}

	// Nothing matched; fall back to the normalized primary input.
	res.CanonicalTopicID = normalized
	if res.CanonicalTopicID == "" {
		res.CanonicalTopicID = primary
	}
	res.MappingIssues = append(res.MappingIssues, issueNoMatchingRecord)
	return res, nil
}

type probeResult struct {
	inTopics     bool
	inCategories bool
	category     domain.Category
}

func (r *Resolver) probe(ctx context.Context, candidate string) (probeResult, error) {
	var out probeResult
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := r.registry.TopicExists(ctx, candidate)
		if err != nil {
			return domain.Internal(err, "topic registry unavailable")
		}
		out.inTopics = ok
		return nil
	})
	g.Go(func() error {
		cat, ok, err := r.registry.GetCategory(ctx, candidate)
		if err != nil {
			return domain.Internal(err, "category registry unavailable")
		}
		out.inCategories = ok
		out.category = cat
		return nil
	})
	if err := g.Wait(); err != nil {
		return probeResult{}, err
	}
	return out, nil
}

func canonicalFromCategory(cat domain.Category, candidate string) string {
	if redirect := strings.TrimSpace(cat.RedirectTopicID); redirect != "" {
		return redirect
	}
	if id := strings.TrimSpace(cat.ID); id != "" {
		return id
	}
	return candidate
}

// collectCandidates orders the probe values: the highest-priority input
// first, then its normalized form, then the raw category id. Duplicates and
// empties are dropped, order preserved.
func collectCandidates(primary, normalized, categoryID string) []string {
	seen := make(map[string]struct{}, 3)
	out := make([]string, 0, 3)
	for _, v := range []string{primary, normalized, categoryID} {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
