package topic

import (
	"context"
	"testing"

	"trivia-rotation-service/internal/domain"
)

type fakeRegistry struct {
	topics     map[string]bool
	categories map[string]domain.Category
}

func (f *fakeRegistry) TopicExists(_ context.Context, id string) (bool, error) {
	return f.topics[id], nil
}

func (f *fakeRegistry) GetCategory(_ context.Context, id string) (domain.Category, bool, error) {
	c, ok := f.categories[id]
	return c, ok, nil
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		topics: map[string]bool{
			"sports":        true,
			"world_history": true,
		},
		categories: map[string]domain.Category{
			"athletics": {ID: "athletics", RedirectTopicID: "sports"},
			"geo":       {ID: "geography"},
		},
	}
}

func TestResolveSameCanonicalForVariants(t *testing.T) {
	r := NewResolver(newFakeRegistry())
	ctx := context.Background()

	for _, in := range []string{"sports", "Sports", " Sports "} {
		res, err := r.Resolve(ctx, "", "", in)
		if err != nil {
			t.Fatalf("resolve %q: %v", in, err)
		}
		if res.CanonicalTopicID != "sports" {
			t.Errorf("resolve %q: canonical = %q, want sports", in, res.CanonicalTopicID)
		}
		if res.ResolvedFrom != ResolvedFromTopics {
			t.Errorf("resolve %q: resolvedFrom = %q, want topics", in, res.ResolvedFrom)
		}
	}
}

func TestResolveMissingInputs(t *testing.T) {
	r := NewResolver(newFakeRegistry())

	_, err := r.Resolve(context.Background(), "", "  ", "")
	if domain.CodeOf(err) != domain.CodeInvalidArgument {
		t.Fatalf("expected invalid-argument, got %v", err)
	}
}

func TestResolveCategoryRedirect(t *testing.T) {
	r := NewResolver(newFakeRegistry())

	res, err := r.Resolve(context.Background(), "", "athletics", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CanonicalTopicID != "sports" {
		t.Errorf("canonical = %q, want sports", res.CanonicalTopicID)
	}
	if res.ResolvedFrom != ResolvedFromCategories {
		t.Errorf("resolvedFrom = %q, want categories", res.ResolvedFrom)
	}
}

func TestResolveCategoryWithoutRedirectUsesOwnID(t *testing.T) {
	r := NewResolver(newFakeRegistry())

	res, err := r.Resolve(context.Background(), "geo", "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CanonicalTopicID != "geography" {
		t.Errorf("canonical = %q, want geography", res.CanonicalTopicID)
	}
}

func TestResolveFallback(t *testing.T) {
	r := NewResolver(newFakeRegistry())

	res, err := r.Resolve(context.Background(), "", "", "Ancient Rome")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CanonicalTopicID != "ancient_rome" {
		t.Errorf("canonical = %q, want ancient_rome", res.CanonicalTopicID)
	}
	if res.ResolvedFrom != ResolvedFromFallback {
		t.Errorf("resolvedFrom = %q, want fallback", res.ResolvedFrom)
	}
	if !hasIssue(res.MappingIssues, issueNoMatchingRecord) {
		t.Errorf("expected %q in issues, got %v", issueNoMatchingRecord, res.MappingIssues)
	}
	if !hasIssue(res.MappingIssues, issueNormalizedInput) {
		t.Errorf("expected %q in issues, got %v", issueNormalizedInput, res.MappingIssues)
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	// topicId wins over categoryId and free-text topic.
	r := NewResolver(newFakeRegistry())

	res, err := r.Resolve(context.Background(), "world_history", "athletics", "Sports")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CanonicalTopicID != "world_history" {
		t.Errorf("canonical = %q, want world_history", res.CanonicalTopicID)
	}
	if res.CategoryHint != "athletics" {
		t.Errorf("categoryHint = %q, want athletics", res.CategoryHint)
	}
	if !hasIssue(res.MappingIssues, issueInputsDiffer) {
		t.Errorf("expected %q in issues, got %v", issueInputsDiffer, res.MappingIssues)
	}
}

func TestResolveNormalizedCandidateMatches(t *testing.T) {
	// "World History" is not a topic id as given, but its normalized form is.
	r := NewResolver(newFakeRegistry())

	res, err := r.Resolve(context.Background(), "World History", "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.CanonicalTopicID != "world_history" {
		t.Errorf("canonical = %q, want world_history", res.CanonicalTopicID)
	}
	if res.ResolvedFrom != ResolvedFromTopics {
		t.Errorf("resolvedFrom = %q, want topics", res.ResolvedFrom)
	}
}

func TestResolveCandidateOrderAndDedupe(t *testing.T) {
	r := NewResolver(newFakeRegistry())

	res, err := r.Resolve(context.Background(), "nope", "nope", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// primary and categoryId are identical; only one candidate expected.
	if len(res.CandidateValues) != 1 || res.CandidateValues[0] != "nope" {
		t.Errorf("candidates = %v, want [nope]", res.CandidateValues)
	}
}

func hasIssue(issues []string, want string) bool {
	for _, i := range issues {
		if i == want {
			return true
		}
	}
	return false
}
