package pack

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"trivia-rotation-service/internal/domain"
)

type fakeStore struct {
	packs map[string]domain.TriviaPack
}

func newFakeStore() *fakeStore {
	return &fakeStore{packs: make(map[string]domain.TriviaPack)}
}

func (f *fakeStore) CreatePack(_ context.Context, p domain.TriviaPack) error {
	f.packs[p.ID] = p
	return nil
}

func (f *fakeStore) GetPack(_ context.Context, packID string) (domain.TriviaPack, bool, error) {
	p, ok := f.packs[packID]
	return p, ok, nil
}

type fakeLookup map[string]domain.Question

func (f fakeLookup) GetQuestion(_ context.Context, id string) (domain.Question, bool, error) {
	q, ok := f[id]
	return q, ok, nil
}

func testManager(store Store, lookup QuestionLookup) *Manager {
	n := 0
	return NewManagerWithClock(store, lookup,
		func() time.Time { return time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC) },
		func() string { n++; return fmt.Sprintf("pack-%d", n) })
}

func TestCreatePack(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := testManager(store, fakeLookup{})

	snapshot := []domain.Question{{ID: "q1"}, {ID: "q2"}}
	created, err := m.CreatePack(ctx, "sports", []string{"q1", "q2", "q2", ""}, nil, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !reflect.DeepEqual(created.QuestionIDs, []string{"q1", "q2"}) {
		t.Errorf("questionIds = %v, want deduped [q1 q2]", created.QuestionIDs)
	}
	if created.Status != domain.PackStatusActive || created.Version != 1 {
		t.Errorf("status=%q version=%d, want active and 1", created.Status, created.Version)
	}
	if created.CreatedBy != "alice" {
		t.Errorf("createdBy = %q, want alice", created.CreatedBy)
	}

	// Snapshot matching the id list is stored alongside it.
	withSnap, err := m.CreatePack(ctx, "sports", []string{"q1", "q2"}, snapshot, "alice")
	if err != nil {
		t.Fatalf("create with snapshot: %v", err)
	}
	if len(withSnap.QuestionsSnapshot) != 2 {
		t.Errorf("snapshot dropped: %v", withSnap.QuestionsSnapshot)
	}

	// Mismatched snapshot is silently dropped, not an error.
	mismatch, err := m.CreatePack(ctx, "sports", []string{"q1"}, snapshot, "alice")
	if err != nil {
		t.Fatalf("create with mismatched snapshot: %v", err)
	}
	if mismatch.QuestionsSnapshot != nil {
		t.Errorf("mismatched snapshot kept: %v", mismatch.QuestionsSnapshot)
	}
}

func TestCreatePackValidation(t *testing.T) {
	ctx := context.Background()
	m := testManager(newFakeStore(), fakeLookup{})

	_, err := m.CreatePack(ctx, "", []string{"q1"}, nil, "alice")
	if domain.CodeOf(err) != domain.CodeInvalidArgument {
		t.Errorf("missing topic: expected invalid-argument, got %v", err)
	}

	_, err = m.CreatePack(ctx, "sports", nil, nil, "alice")
	if domain.CodeOf(err) != domain.CodeFailedPrecondition {
		t.Errorf("empty ids: expected failed-precondition, got %v", err)
	}

	_, err = m.CreatePack(ctx, "sports", []string{"", ""}, nil, "alice")
	if domain.CodeOf(err) != domain.CodeFailedPrecondition {
		t.Errorf("blank ids: expected failed-precondition, got %v", err)
	}
}

func TestGetPackRebuildsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	lookup := fakeLookup{
		"q1": {ID: "q1", Prompt: "first"},
		"q2": {ID: "q2", Prompt: "second"},
	}
	m := testManager(store, lookup)

	created, err := m.CreatePack(ctx, "sports", []string{"q1", "q2"}, nil, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := m.GetPack(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.QuestionsSnapshot) != 2 || got.QuestionsSnapshot[1].Prompt != "second" {
		t.Fatalf("snapshot not rebuilt: %+v", got.QuestionsSnapshot)
	}

	// The rebuild never mutates the stored record.
	if stored := store.packs[created.ID]; stored.QuestionsSnapshot != nil {
		t.Fatalf("stored record was mutated: %+v", stored.QuestionsSnapshot)
	}
}

func TestGetPackErrors(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := testManager(store, fakeLookup{"q1": {ID: "q1"}})

	_, err := m.GetPack(ctx, "nope")
	if domain.CodeOf(err) != domain.CodeNotFound {
		t.Errorf("unknown pack: expected not-found, got %v", err)
	}

	store.packs["empty"] = domain.TriviaPack{ID: "empty", Status: domain.PackStatusActive}
	_, err = m.GetPack(ctx, "empty")
	if domain.CodeOf(err) != domain.CodeFailedPrecondition {
		t.Errorf("empty pack: expected failed-precondition, got %v", err)
	}

	store.packs["disabled"] = domain.TriviaPack{
		ID: "disabled", QuestionIDs: []string{"q1"}, Status: domain.PackStatusDisabled,
	}
	_, err = m.GetPack(ctx, "disabled")
	if domain.CodeOf(err) != domain.CodeFailedPrecondition {
		t.Errorf("disabled pack: expected failed-precondition, got %v", err)
	}

	store.packs["dangling"] = domain.TriviaPack{
		ID: "dangling", QuestionIDs: []string{"gone"}, Status: domain.PackStatusActive,
	}
	_, err = m.GetPack(ctx, "dangling")
	if domain.CodeOf(err) != domain.CodeFailedPrecondition {
		t.Errorf("missing question: expected failed-precondition, got %v", err)
	}
}
