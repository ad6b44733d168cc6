package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-rotation-service/internal/domain"
)

// QuestionSource serves the read-only question and registry lookups from a
// pgx pool. Eligibility filtering happens in the pool package; this layer
// only over-fetches (topic match or missing topicId).
type QuestionSource struct {
	pool *pgxpool.Pool
}

func NewQuestionSource(pool *pgxpool.Pool) *QuestionSource {
	return &QuestionSource{pool: pool}
}

const questionColumns = `id, topic_id, category_id, prompt, choices, correct_index, difficulty, active`

// ListForTopic implements pool.QuestionSource.
func (s *QuestionSource) ListForTopic(ctx context.Context, topicID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE topic_id = $1 OR topic_id = '' ORDER BY id`,
		topicID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// GetQuestion implements pack.QuestionLookup.
func (s *QuestionSource) GetQuestion(ctx context.Context, id string) (domain.Question, bool, error) {
	var q domain.Question
	var choices []byte
	err := s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id).
		Scan(&q.ID, &q.TopicID, &q.CategoryID, &q.Prompt, &choices, &q.CorrectIndex, &q.Difficulty, &q.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("get question: %w", err)
	}
	if err := json.Unmarshal(choices, &q.Choices); err != nil {
		return domain.Question{}, false, fmt.Errorf("decode choices: %w", err)
	}
	return q, true, nil
}

// TopicExists implements topic.Registry.
func (s *QuestionSource) TopicExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM topics WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("topic lookup: %w", err)
	}
	return true, nil
}

// GetCategory implements topic.Registry.
func (s *QuestionSource) GetCategory(ctx context.Context, id string) (domain.Category, bool, error) {
	var c domain.Category
	err := s.pool.QueryRow(ctx, `SELECT id, topic_id FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.RedirectTopicID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, false, nil
	}
	if err != nil {
		return domain.Category{}, false, fmt.Errorf("category lookup: %w", err)
	}
	return c, true, nil
}

// CountByTopicField implements diagnostics.QuestionIndex.
func (s *QuestionSource) CountByTopicField(ctx context.Context, topicID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM questions WHERE topic_id = $1`, topicID).Scan(&n)
	return n, err
}

// CountByCategoryField implements diagnostics.QuestionIndex.
func (s *QuestionSource) CountByCategoryField(ctx context.Context, categoryID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM questions WHERE category_id = $1`, categoryID).Scan(&n)
	return n, err
}

// SampleByTopicField implements diagnostics.QuestionIndex.
func (s *QuestionSource) SampleByTopicField(ctx context.Context, topicID string, limit int) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE topic_id = $1 ORDER BY id LIMIT $2`,
		topicID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// SampleByCategoryField implements diagnostics.QuestionIndex.
func (s *QuestionSource) SampleByCategoryField(ctx context.Context, categoryID string, limit int) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE category_id = $1 ORDER BY id LIMIT $2`,
		categoryID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var choices []byte
		if err := rows.Scan(&q.ID, &q.TopicID, &q.CategoryID, &q.Prompt, &choices, &q.CorrectIndex, &q.Difficulty, &q.Active); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(choices, &q.Choices); err != nil {
			return nil, fmt.Errorf("decode choices: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}
