package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"trivia-rotation-service/internal/domain"
)

type topicRow struct {
	bun.BaseModel `bun:"table:topics"`

	ID          string `bun:"id,pk"`
	DisplayName string `bun:"display_name"`
	Active      bool   `bun:"active"`
}

type categoryRow struct {
	bun.BaseModel `bun:"table:categories"`

	ID      string `bun:"id,pk"`
	TopicID string `bun:"topic_id"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID           string   `bun:"id,pk"`
	TopicID      string   `bun:"topic_id"`
	CategoryID   string   `bun:"category_id"`
	Prompt       string   `bun:"prompt"`
	Choices      []string `bun:"choices,type:jsonb"`
	CorrectIndex int      `bun:"correct_index"`
	Difficulty   string   `bun:"difficulty"`
	Active       bool     `bun:"active"`
}

type progressRow struct {
	bun.BaseModel `bun:"table:category_progress"`

	UID            string    `bun:"uid,pk"`
	TopicID        string    `bun:"topic_id,pk"`
	Seed           string    `bun:"seed"`
	Cursor         int       `bun:"cursor"`
	ExhaustedCount int       `bun:"exhausted_count"`
	WeekKey        string    `bun:"week_key"`
	UpdatedAt      time.Time `bun:"updated_at"`
}

type packRow struct {
	bun.BaseModel `bun:"table:trivia_packs"`

	ID                string            `bun:"id,pk"`
	TopicID           string            `bun:"topic_id"`
	QuestionIDs       []string          `bun:"question_ids,type:jsonb"`
	QuestionsSnapshot []domain.Question `bun:"questions_snapshot,type:jsonb,nullzero"`
	CreatedAt         time.Time         `bun:"created_at"`
	CreatedBy         string            `bun:"created_by"`
	Status            string            `bun:"status"`
	Version           int               `bun:"version"`
}

type scoreRow struct {
	bun.BaseModel `bun:"table:scores"`

	PackID          string    `bun:"pack_id,pk"`
	UID             string    `bun:"uid,pk"`
	Score           int       `bun:"score"`
	MaxScore        int       `bun:"max_score"`
	Correct         int       `bun:"correct"`
	DurationSeconds int       `bun:"duration_seconds"`
	CompletedAt     time.Time `bun:"completed_at"`
}

type statsRow struct {
	bun.BaseModel `bun:"table:user_stats"`

	UID               string `bun:"uid,pk"`
	GamesPlayed       int    `bun:"games_played"`
	QuestionsAnswered int    `bun:"questions_answered"`
	CorrectAnswers    int    `bun:"correct_answers"`
	XP                int    `bun:"xp"`
	BestStreak        int    `bun:"best_streak"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:           r.ID,
		TopicID:      r.TopicID,
		CategoryID:   r.CategoryID,
		Prompt:       r.Prompt,
		Choices:      r.Choices,
		CorrectIndex: r.CorrectIndex,
		Difficulty:   r.Difficulty,
		Active:       r.Active,
	}
}

func questionRowFromDomain(q domain.Question) questionRow {
	return questionRow{
		ID:           q.ID,
		TopicID:      q.TopicID,
		CategoryID:   q.CategoryID,
		Prompt:       q.Prompt,
		Choices:      q.Choices,
		CorrectIndex: q.CorrectIndex,
		Difficulty:   q.Difficulty,
		Active:       q.Active,
	}
}

func (r packRow) toDomain() domain.TriviaPack {
	return domain.TriviaPack{
		ID:                r.ID,
		TopicID:           r.TopicID,
		QuestionIDs:       r.QuestionIDs,
		QuestionsSnapshot: r.QuestionsSnapshot,
		CreatedAt:         r.CreatedAt,
		CreatedBy:         r.CreatedBy,
		Status:            r.Status,
		Version:           r.Version,
	}
}

func (r scoreRow) toDomain() domain.ScoreEntry {
	return domain.ScoreEntry{
		UID:             r.UID,
		Score:           r.Score,
		MaxScore:        r.MaxScore,
		Correct:         r.Correct,
		DurationSeconds: r.DurationSeconds,
		CompletedAt:     r.CompletedAt,
	}
}
