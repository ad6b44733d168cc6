// Package memory backs every store interface with in-process maps. It
// serves the dev server without external services and all unit tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/score"
)

// Store is an in-memory document store covering the registry, questions,
// rotation progress, packs, scores, and user stats.
type Store struct {
	mu         sync.RWMutex
	topics     map[string]domain.Topic
	categories map[string]domain.Category
	questions  map[string]domain.Question
	// questionOrder preserves insertion order so pool listings are stable.
	questionOrder []string
	progress      map[string]domain.CategoryProgress
	packs         map[string]domain.TriviaPack
	scores        map[string]map[string]domain.ScoreEntry
	stats         map[string]domain.UserStats
}

func NewStore() *Store {
	return &Store{
		topics:     make(map[string]domain.Topic),
		categories: make(map[string]domain.Category),
		questions:  make(map[string]domain.Question),
		progress:   make(map[string]domain.CategoryProgress),
		packs:      make(map[string]domain.TriviaPack),
		scores:     make(map[string]map[string]domain.ScoreEntry),
		stats:      make(map[string]domain.UserStats),
	}
}

// UpsertTopic seeds or replaces a topic record.
func (s *Store) UpsertTopic(_ context.Context, t domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[t.ID] = t
	return nil
}

// UpsertCategory seeds or replaces a category alias.
func (s *Store) UpsertCategory(_ context.Context, c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

// UpsertQuestion seeds or replaces a question record.
func (s *Store) UpsertQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		s.questionOrder = append(s.questionOrder, q.ID)
	}
	s.questions[q.ID] = q
	return nil
}

// TopicExists implements topic.Registry.
func (s *Store) TopicExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.topics[id]
	return ok, nil
}

// GetCategory implements topic.Registry.
func (s *Store) GetCategory(_ context.Context, id string) (domain.Category, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok, nil
}

// ListForTopic implements pool.QuestionSource: questions whose topicId
// matches or is absent, in stable insertion order.
func (s *Store) ListForTopic(_ context.Context, topicID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Question
	for _, id := range s.questionOrder {
		q := s.questions[id]
		if q.TopicID == topicID || q.TopicID == "" {
			out = append(out, q)
		}
	}
	return out, nil
}

// GetQuestion implements pack.QuestionLookup.
func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	return q, ok, nil
}

// GetProgress implements rotation.ProgressStore.
func (s *Store) GetProgress(_ context.Context, uid, topicID string) (domain.CategoryProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[uid+"/"+topicID]
	return p, ok, nil
}

// PutProgress implements rotation.ProgressStore.
func (s *Store) PutProgress(_ context.Context, uid, topicID string, p domain.CategoryProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[uid+"/"+topicID] = p
	return nil
}

// CreatePack implements pack.Store.
func (s *Store) CreatePack(_ context.Context, p domain.TriviaPack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packs[p.ID] = p
	return nil
}

// GetPack implements pack.Store.
func (s *Store) GetPack(_ context.Context, packID string) (domain.TriviaPack, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packs[packID]
	return p, ok, nil
}

// Submit implements score.Store. The store mutex is held for the whole
// transaction, which gives the same observable guarantee as a serializable
// database transaction; writes are staged and only merged when fn succeeds.
func (s *Store) Submit(_ context.Context, fn func(tx score.Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTxn{
		store:  s,
		scores: make(map[string]map[string]domain.ScoreEntry),
		stats:  make(map[string]domain.UserStats),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for packID, entries := range tx.scores {
		if s.scores[packID] == nil {
			s.scores[packID] = make(map[string]domain.ScoreEntry)
		}
		for uid, entry := range entries {
			s.scores[packID][uid] = entry
		}
	}
	for uid, st := range tx.stats {
		s.stats[uid] = st
	}
	return nil
}

// ListScores implements score.Store. Order is unspecified; ranking sorts.
func (s *Store) ListScores(_ context.Context, packID string) ([]domain.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ScoreEntry
	for _, entry := range s.scores[packID] {
		out = append(out, entry)
	}
	return out, nil
}

// UserStats returns the aggregate for uid, zero-valued when absent.
func (s *Store) UserStats(uid string) domain.UserStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[uid]
}

// memTxn stages writes until the transaction function returns nil.
type memTxn struct {
	store  *Store
	scores map[string]map[string]domain.ScoreEntry
	stats  map[string]domain.UserStats
}

func (t *memTxn) GetScore(packID, uid string) (domain.ScoreEntry, bool, error) {
	if staged, ok := t.scores[packID][uid]; ok {
		return staged, true, nil
	}
	entry, ok := t.store.scores[packID][uid]
	return entry, ok, nil
}

func (t *memTxn) PutScore(packID string, entry domain.ScoreEntry) error {
	if t.scores[packID] == nil {
		t.scores[packID] = make(map[string]domain.ScoreEntry)
	}
	t.scores[packID][entry.UID] = entry
	return nil
}

func (t *memTxn) GetPack(packID string) (domain.TriviaPack, bool, error) {
	p, ok := t.store.packs[packID]
	return p, ok, nil
}

func (t *memTxn) GetStats(uid string) (domain.UserStats, bool, error) {
	if staged, ok := t.stats[uid]; ok {
		return staged, true, nil
	}
	st, ok := t.store.stats[uid]
	return st, ok, nil
}

func (t *memTxn) PutStats(uid string, st domain.UserStats) error {
	t.stats[uid] = st
	return nil
}

// CountByTopicField implements diagnostics.QuestionIndex.
func (s *Store) CountByTopicField(_ context.Context, topicID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, q := range s.questions {
		if q.TopicID == topicID {
			n++
		}
	}
	return n, nil
}

// CountByCategoryField implements diagnostics.QuestionIndex.
func (s *Store) CountByCategoryField(_ context.Context, categoryID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, q := range s.questions {
		if q.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// SampleByTopicField implements diagnostics.QuestionIndex.
func (s *Store) SampleByTopicField(_ context.Context, topicID string, limit int) ([]domain.Question, error) {
	return s.sample(limit, func(q domain.Question) bool { return q.TopicID == topicID })
}

// SampleByCategoryField implements diagnostics.QuestionIndex.
func (s *Store) SampleByCategoryField(_ context.Context, categoryID string, limit int) ([]domain.Question, error) {
	return s.sample(limit, func(q domain.Question) bool { return q.CategoryID == categoryID })
}

func (s *Store) sample(limit int, match func(domain.Question) bool) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, q := range s.questions {
		if match(q) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.questions[id])
	}
	return out, nil
}
