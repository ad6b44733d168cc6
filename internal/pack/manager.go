// Package pack persists immutable selection snapshots so later reads do not
// depend on mutable source questions.
package pack

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trivia-rotation-service/internal/domain"
)

// Store persists pack records. Packs are created once and never rewritten.
type Store interface {
	CreatePack(ctx context.Context, pack domain.TriviaPack) error
	GetPack(ctx context.Context, packID string) (domain.TriviaPack, bool, error)
}

// QuestionLookup resolves question ids to current content when a snapshot
// has to be rebuilt.
type QuestionLookup interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, bool, error)
}

// Reader is the read side of pack access. Caches wrap it.
type Reader interface {
	GetPack(ctx context.Context, packID string) (domain.TriviaPack, error)
}

// Manager creates and reads trivia packs.
type Manager struct {
	store     Store
	questions QuestionLookup
	now       func() time.Time
	newID     func() string
}

func NewManager(store Store, questions QuestionLookup) *Manager {
	return &Manager{
		store:     store,
		questions: questions,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// NewManagerWithClock is test-only for deterministic timestamps and ids.
func NewManagerWithClock(store Store, questions QuestionLookup, now func() time.Time, newID func() string) *Manager {
	return &Manager{store: store, questions: questions, now: now, newID: newID}
}

// CreatePack writes an immutable pack record for the given selection.
// snapshot is optional denormalized content; when it lines up with the ids
// it is stored alongside them, otherwise GetPack rebuilds content lazily.
func (m *Manager) CreatePack(ctx context.Context, topicID string, questionIDs []string, snapshot []domain.Question, createdBy string) (domain.TriviaPack, error) {
	if topicID == "" {
		return domain.TriviaPack{}, domain.E(domain.CodeInvalidArgument, "missing topicId")
	}
	ids := dedupe(questionIDs)
	if len(ids) == 0 {
		return domain.TriviaPack{}, domain.E(domain.CodeFailedPrecondition, "no questions to pack")
	}
	if len(snapshot) != len(ids) {
		snapshot = nil
	}

	pack := domain.TriviaPack{
		ID:                m.newID(),
		TopicID:           topicID,
		QuestionIDs:       ids,
		QuestionsSnapshot: snapshot,
		CreatedAt:         m.now().UTC(),
		CreatedBy:         createdBy,
		Status:            domain.PackStatusActive,
		Version:           1,
	}
	if err := m.store.CreatePack(ctx, pack); err != nil {
		return domain.TriviaPack{}, domain.Internal(err, "pack write failed")
	}
	return pack, nil
}

// GetPack loads a pack. When no snapshot was stored it resolves each
// question id to current content and returns the result without mutating
// the stored record.
func (m *Manager) GetPack(ctx context.Context, packID string) (domain.TriviaPack, error) {
	if packID == "" {
		return domain.TriviaPack{}, domain.E(domain.CodeInvalidArgument, "missing packId")
	}
	pack, ok, err := m.store.GetPack(ctx, packID)
	if err != nil {
		return domain.TriviaPack{}, domain.Internal(err, "pack lookup failed")
	}
	if !ok {
		return domain.TriviaPack{}, domain.E(domain.CodeNotFound, "pack %q not found", packID)
	}
	if len(pack.QuestionIDs) == 0 {
		return domain.TriviaPack{}, domain.E(domain.CodeFailedPrecondition, "pack %q has no questions", packID)
	}
	if pack.Status == domain.PackStatusDisabled {
		return domain.TriviaPack{}, domain.E(domain.CodeFailedPrecondition, "pack %q is disabled", packID)
	}
	if len(pack.QuestionsSnapshot) == len(pack.QuestionIDs) {
		return pack, nil
	}

	snapshot := make([]domain.Question, 0, len(pack.QuestionIDs))
	for _, id := range pack.QuestionIDs {
		q, ok, err := m.questions.GetQuestion(ctx, id)
		if err != nil {
			return domain.TriviaPack{}, domain.Internal(err, "question lookup failed")
		}
		if !ok {
			return domain.TriviaPack{}, domain.E(domain.CodeFailedPrecondition,
				"pack %q references missing question %q", packID, id)
		}
		snapshot = append(snapshot, q)
	}
	pack.QuestionsSnapshot = snapshot
	return pack, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
