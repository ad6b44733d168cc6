// Package postgres persists rotation progress, packs, scores, and user
// stats with bun; read-only question and registry lookups go through a pgx
// pool.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/score"
)

// Store is the bun-backed document store.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// GetProgress implements rotation.ProgressStore.
func (s *Store) GetProgress(ctx context.Context, uid, topicID string) (domain.CategoryProgress, bool, error) {
	var row progressRow
	err := s.db.NewSelect().Model(&row).
		Where("uid = ?", uid).
		Where("topic_id = ?", topicID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CategoryProgress{}, false, nil
	}
	if err != nil {
		return domain.CategoryProgress{}, false, err
	}
	return domain.CategoryProgress{
		Seed:           row.Seed,
		Cursor:         row.Cursor,
		ExhaustedCount: row.ExhaustedCount,
		WeekKey:        row.WeekKey,
	}, true, nil
}

// PutProgress implements rotation.ProgressStore. Last writer wins, which is
// the accepted semantics for concurrent selections.
func (s *Store) PutProgress(ctx context.Context, uid, topicID string, p domain.CategoryProgress) error {
	row := progressRow{
		UID:            uid,
		TopicID:        topicID,
		Seed:           p.Seed,
		Cursor:         p.Cursor,
		ExhaustedCount: p.ExhaustedCount,
		WeekKey:        p.WeekKey,
		UpdatedAt:      time.Now().UTC(),
	}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (uid, topic_id) DO UPDATE").
		Set("seed = EXCLUDED.seed").
		Set("cursor = EXCLUDED.cursor").
		Set("exhausted_count = EXCLUDED.exhausted_count").
		Set("week_key = EXCLUDED.week_key").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// CreatePack implements pack.Store.
func (s *Store) CreatePack(ctx context.Context, p domain.TriviaPack) error {
	row := packRow{
		ID:                p.ID,
		TopicID:           p.TopicID,
		QuestionIDs:       p.QuestionIDs,
		QuestionsSnapshot: p.QuestionsSnapshot,
		CreatedAt:         p.CreatedAt,
		CreatedBy:         p.CreatedBy,
		Status:            p.Status,
		Version:           p.Version,
	}
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

// GetPack implements pack.Store.
func (s *Store) GetPack(ctx context.Context, packID string) (domain.TriviaPack, bool, error) {
	var row packRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", packID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TriviaPack{}, false, nil
	}
	if err != nil {
		return domain.TriviaPack{}, false, err
	}
	return row.toDomain(), true, nil
}

// Submit implements score.Store: one serializable transaction spanning the
// duplicate check, the pack read, and all writes.
func (s *Store) Submit(ctx context.Context, fn func(tx score.Txn) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		return fn(&pgTxn{ctx: ctx, tx: tx})
	})
}

// ListScores implements score.Store.
func (s *Store) ListScores(ctx context.Context, packID string) ([]domain.ScoreEntry, error) {
	var rows []scoreRow
	if err := s.db.NewSelect().Model(&rows).Where("pack_id = ?", packID).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.ScoreEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UserStats returns the aggregate row for uid, zero-valued when absent.
func (s *Store) UserStats(ctx context.Context, uid string) (domain.UserStats, error) {
	var row statsRow
	err := s.db.NewSelect().Model(&row).Where("uid = ?", uid).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserStats{}, nil
	}
	if err != nil {
		return domain.UserStats{}, err
	}
	return domain.UserStats{
		GamesPlayed:       row.GamesPlayed,
		QuestionsAnswered: row.QuestionsAnswered,
		CorrectAnswers:    row.CorrectAnswers,
		XP:                row.XP,
		BestStreak:        row.BestStreak,
	}, nil
}

// UpsertTopic seeds or replaces a topic record.
func (s *Store) UpsertTopic(ctx context.Context, t domain.Topic) error {
	row := topicRow{ID: t.ID, DisplayName: t.DisplayName, Active: t.Active}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("active = EXCLUDED.active").
		Exec(ctx)
	return err
}

// UpsertCategory seeds or replaces a category alias.
func (s *Store) UpsertCategory(ctx context.Context, c domain.Category) error {
	row := categoryRow{ID: c.ID, TopicID: c.RedirectTopicID}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("topic_id = EXCLUDED.topic_id").
		Exec(ctx)
	return err
}

// UpsertQuestion seeds or replaces a question record.
func (s *Store) UpsertQuestion(ctx context.Context, q domain.Question) error {
	row := questionRowFromDomain(q)
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("topic_id = EXCLUDED.topic_id").
		Set("category_id = EXCLUDED.category_id").
		Set("prompt = EXCLUDED.prompt").
		Set("choices = EXCLUDED.choices").
		Set("correct_index = EXCLUDED.correct_index").
		Set("difficulty = EXCLUDED.difficulty").
		Set("active = EXCLUDED.active").
		Exec(ctx)
	return err
}

// pgTxn adapts one bun transaction to score.Txn.
type pgTxn struct {
	ctx context.Context
	tx  bun.Tx
}

func (t *pgTxn) GetScore(packID, uid string) (domain.ScoreEntry, bool, error) {
	var row scoreRow
	err := t.tx.NewSelect().Model(&row).
		Where("pack_id = ?", packID).
		Where("uid = ?", uid).
		Scan(t.ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScoreEntry{}, false, nil
	}
	if err != nil {
		return domain.ScoreEntry{}, false, err
	}
	return row.toDomain(), true, nil
}

func (t *pgTxn) PutScore(packID string, entry domain.ScoreEntry) error {
	row := scoreRow{
		PackID:          packID,
		UID:             entry.UID,
		Score:           entry.Score,
		MaxScore:        entry.MaxScore,
		Correct:         entry.Correct,
		DurationSeconds: entry.DurationSeconds,
		CompletedAt:     entry.CompletedAt,
	}
	_, err := t.tx.NewInsert().Model(&row).Exec(t.ctx)
	return err
}

func (t *pgTxn) GetPack(packID string) (domain.TriviaPack, bool, error) {
	var row packRow
	err := t.tx.NewSelect().Model(&row).Where("id = ?", packID).Scan(t.ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TriviaPack{}, false, nil
	}
	if err != nil {
		return domain.TriviaPack{}, false, err
	}
	return row.toDomain(), true, nil
}

func (t *pgTxn) GetStats(uid string) (domain.UserStats, bool, error) {
	var row statsRow
	err := t.tx.NewSelect().Model(&row).Where("uid = ?", uid).Scan(t.ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserStats{}, false, nil
	}
	if err != nil {
		return domain.UserStats{}, false, err
	}
	return domain.UserStats{
		GamesPlayed:       row.GamesPlayed,
		QuestionsAnswered: row.QuestionsAnswered,
		CorrectAnswers:    row.CorrectAnswers,
		XP:                row.XP,
		BestStreak:        row.BestStreak,
	}, true, nil
}

func (t *pgTxn) PutStats(uid string, st domain.UserStats) error {
	row := statsRow{
		UID:               uid,
		GamesPlayed:       st.GamesPlayed,
		QuestionsAnswered: st.QuestionsAnswered,
		CorrectAnswers:    st.CorrectAnswers,
		XP:                st.XP,
		BestStreak:        st.BestStreak,
	}
	_, err := t.tx.NewInsert().Model(&row).
		On("CONFLICT (uid) DO UPDATE").
		Set("games_played = EXCLUDED.games_played").
		Set("questions_answered = EXCLUDED.questions_answered").
		Set("correct_answers = EXCLUDED.correct_answers").
		Set("xp = EXCLUDED.xp").
		Set("best_streak = EXCLUDED.best_streak").
		Exec(t.ctx)
	return err
}
