package domain

import "time"

// Topic is a canonical trivia subject. Created by the seeding pipeline;
// read-only to this service.
type Topic struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Active      bool   `json:"active"`
}

// Category is a legacy alias for a topic. When RedirectTopicID is set the
// category points at a canonical topic under a different name.
type Category struct {
	ID              string `json:"id"`
	RedirectTopicID string `json:"topicId,omitempty"`
}

// Difficulty buckets for questions.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is a multiple-choice question owned by the content pipeline.
// TopicID or CategoryID may be empty on old records; eligibility filtering
// tolerates that.
type Question struct {
	ID           string   `json:"id"`
	TopicID      string   `json:"topicId"`
	CategoryID   string   `json:"categoryId,omitempty"`
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
	Difficulty   string   `json:"difficulty"`
	Active       bool     `json:"active"`
}

// CategoryProgress tracks one user's rotation through one topic's pool.
// Counters are append-only; the record is never deleted.
type CategoryProgress struct {
	Seed           string `json:"seed"`
	Cursor         int    `json:"cursor"`
	ExhaustedCount int    `json:"exhaustedCount"`
	WeekKey        string `json:"weekKey"`
}

// Pack statuses.
const (
	PackStatusActive   = "active"
	PackStatusDisabled = "disabled"
)

// TriviaPack is an immutable snapshot of a selection. Once written, only the
// lazily-filled QuestionsSnapshot may be added; everything else is frozen.
type TriviaPack struct {
	ID                string     `json:"id"`
	TopicID           string     `json:"topicId"`
	QuestionIDs       []string   `json:"questionIds"`
	QuestionsSnapshot []Question `json:"questionsSnapshot,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	CreatedBy         string     `json:"createdBy"`
	Status            string     `json:"status"`
	Version           int        `json:"version"`
}

// ScoreEntry records one user's result for one pack. Written at most once
// per (pack, uid); duplicate submissions are no-ops.
type ScoreEntry struct {
	UID             string    `json:"uid"`
	Score           int       `json:"score"`
	MaxScore        int       `json:"maxScore"`
	Correct         int       `json:"correct"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	CompletedAt     time.Time `json:"completedAt"`
}

// UserStats aggregates one user's lifetime results. All fields grow by
// commutative increments except BestStreak, a monotonic max.
type UserStats struct {
	GamesPlayed       int `json:"gamesPlayed"`
	QuestionsAnswered int `json:"questionsAnswered"`
	CorrectAnswers    int `json:"correctAnswers"`
	XP                int `json:"xp"`
	BestStreak        int `json:"bestStreak"`
}

// LeaderboardEntry is one ranked row of a pack leaderboard.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UID         string    `json:"uid"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// Leaderboard is the ranked scoreboard for a pack.
type Leaderboard struct {
	PackID  string             `json:"packId"`
	Entries []LeaderboardEntry `json:"entries"`
	// CallerRank is the submitting user's rank, present even when they fall
	// outside the returned entries.
	CallerRank int `json:"callerRank,omitempty"`
}
