package memory

import (
	"context"
	"testing"
	"time"

	"trivia-rotation-service/internal/domain"
)

type countingReader struct {
	calls int
	packs map[string]domain.TriviaPack
}

func (c *countingReader) GetPack(_ context.Context, packID string) (domain.TriviaPack, error) {
	c.calls++
	p, ok := c.packs[packID]
	if !ok {
		return domain.TriviaPack{}, domain.E(domain.CodeNotFound, "pack %q not found", packID)
	}
	return p, nil
}

func TestPackCacheServesFromCache(t *testing.T) {
	ctx := context.Background()
	reader := &countingReader{packs: map[string]domain.TriviaPack{
		"pack-1": {ID: "pack-1", QuestionIDs: []string{"q1"}},
	}}
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	cache := NewPackCacheWithClock(reader, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		p, err := cache.GetPack(ctx, "pack-1")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if p.ID != "pack-1" {
			t.Fatalf("got %+v", p)
		}
	}
	if reader.calls != 1 {
		t.Fatalf("reader called %d times, want 1", reader.calls)
	}
}

func TestPackCacheExpires(t *testing.T) {
	ctx := context.Background()
	reader := &countingReader{packs: map[string]domain.TriviaPack{
		"pack-1": {ID: "pack-1", QuestionIDs: []string{"q1"}},
	}}
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	cache := NewPackCacheWithClock(reader, time.Minute, func() time.Time { return now })

	if _, err := cache.GetPack(ctx, "pack-1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	// Jitter extends the TTL by at most 10%, so two minutes is past expiry.
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetPack(ctx, "pack-1"); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if reader.calls != 2 {
		t.Fatalf("reader called %d times, want 2", reader.calls)
	}
}

func TestPackCacheDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	reader := &countingReader{packs: map[string]domain.TriviaPack{}}
	cache := NewPackCache(reader, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cache.GetPack(ctx, "missing")
		if domain.CodeOf(err) != domain.CodeNotFound {
			t.Fatalf("get %d: expected not-found, got %v", i, err)
		}
	}
	if reader.calls != 2 {
		t.Fatalf("reader called %d times, want 2 (errors must not be cached)", reader.calls)
	}
}
