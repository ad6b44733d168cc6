// Package seed ingests topics and questions from a JSON file. Ingestion is
// idempotent: question ids are derived from content, so re-running a seed
// never duplicates records.
package seed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/topic"
)

// Store is the write surface seeding needs.
type Store interface {
	UpsertTopic(ctx context.Context, t domain.Topic) error
	UpsertCategory(ctx context.Context, c domain.Category) error
	UpsertQuestion(ctx context.Context, q domain.Question) error
}

// File is the seed document layout.
type File struct {
	Topics []TopicSeed `json:"topics"`
}

// TopicSeed is one topic with its question bank. Aliases become category
// records redirecting to the topic.
type TopicSeed struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"displayName"`
	Active      *bool          `json:"active,omitempty"`
	Aliases     []string       `json:"aliases,omitempty"`
	Questions   []QuestionSeed `json:"questions"`
}

// QuestionSeed is one question definition.
type QuestionSeed struct {
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// Stats summarizes an ingestion run.
type Stats struct {
	Topics     int
	Categories int
	Questions  int
}

// Load reads and validates a seed file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks the seed before anything is written.
func (f File) Validate() error {
	if len(f.Topics) == 0 {
		return fmt.Errorf("seed file must contain a topics array")
	}
	for ti, t := range f.Topics {
		if t.ID == "" || t.DisplayName == "" {
			return fmt.Errorf("topic %d: id and displayName are required", ti)
		}
		for qi, q := range t.Questions {
			if q.Prompt == "" {
				return fmt.Errorf("topic %q question %d: prompt is required", t.ID, qi)
			}
			if len(q.Choices) != 4 {
				return fmt.Errorf("topic %q question %d: exactly 4 choices required, got %d", t.ID, qi, len(q.Choices))
			}
			if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
				return fmt.Errorf("topic %q question %d: correctIndex out of range", t.ID, qi)
			}
			switch q.Difficulty {
			case "", domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
			default:
				return fmt.Errorf("topic %q question %d: unknown difficulty %q", t.ID, qi, q.Difficulty)
			}
		}
	}
	return nil
}

// Apply upserts the seed into store. Topic ids are normalized; question ids
// are a content hash of topic and prompt.
func Apply(ctx context.Context, store Store, f File) (Stats, error) {
	var stats Stats
	for _, t := range f.Topics {
		topicID := topic.Normalize(t.ID)
		if topicID == "" {
			return stats, fmt.Errorf("topic %q normalizes to an empty id", t.ID)
		}
		active := true
		if t.Active != nil {
			active = *t.Active
		}
		if err := store.UpsertTopic(ctx, domain.Topic{
			ID:          topicID,
			DisplayName: t.DisplayName,
			Active:      active,
		}); err != nil {
			return stats, fmt.Errorf("upsert topic %q: %w", topicID, err)
		}
		stats.Topics++

		for _, alias := range t.Aliases {
			aliasID := topic.Normalize(alias)
			if aliasID == "" || aliasID == topicID {
				continue
			}
			if err := store.UpsertCategory(ctx, domain.Category{
				ID:              aliasID,
				RedirectTopicID: topicID,
			}); err != nil {
				return stats, fmt.Errorf("upsert category %q: %w", aliasID, err)
			}
			stats.Categories++
		}

		for _, q := range t.Questions {
			difficulty := q.Difficulty
			if difficulty == "" {
				difficulty = domain.DifficultyEasy
			}
			if err := store.UpsertQuestion(ctx, domain.Question{
				ID:           QuestionID(topicID, q.Prompt),
				TopicID:      topicID,
				CategoryID:   topicID,
				Prompt:       q.Prompt,
				Choices:      q.Choices,
				CorrectIndex: q.CorrectIndex,
				Difficulty:   difficulty,
				Active:       true,
			}); err != nil {
				return stats, fmt.Errorf("upsert question for %q: %w", topicID, err)
			}
			stats.Questions++
		}
	}
	return stats, nil
}

// QuestionID derives the deterministic id for a question: same prompt in
// the same topic always maps to the same record.
func QuestionID(topicID, prompt string) string {
	sum := sha1.Sum([]byte(topicID + "|" + prompt))
	return topicID + "_" + hex.EncodeToString(sum[:])[:12]
}
