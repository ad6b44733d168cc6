package app_test

import (
	"context"
	"fmt"
	"testing"

	"trivia-rotation-service/internal/analytics"
	"trivia-rotation-service/internal/app"
	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/infra/memory"
	"trivia-rotation-service/internal/pack"
	"trivia-rotation-service/internal/pool"
	"trivia-rotation-service/internal/rotation"
	"trivia-rotation-service/internal/score"
	"trivia-rotation-service/internal/topic"
)

type recordingEmitter struct {
	events []string
}

func (r *recordingEmitter) Emit(event string, _ analytics.Params) {
	r.events = append(r.events, event)
}

func (r *recordingEmitter) has(event string) bool {
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, questions int) (*app.Service, *memory.Store, *recordingEmitter) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.UpsertTopic(ctx, domain.Topic{ID: "sports", DisplayName: "Sports", Active: true}); err != nil {
		t.Fatalf("seed topic: %v", err)
	}
	if err := store.UpsertCategory(ctx, domain.Category{ID: "athletics", RedirectTopicID: "sports"}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	for i := 0; i < questions; i++ {
		err := store.UpsertQuestion(ctx, domain.Question{
			ID:           fmt.Sprintf("q%02d", i+1),
			TopicID:      "sports",
			Prompt:       fmt.Sprintf("question %d", i+1),
			Choices:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
			Difficulty:   domain.DifficultyEasy,
			Active:       true,
		})
		if err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}

	emitter := &recordingEmitter{}
	resolver := topic.NewResolver(store)
	selector := rotation.NewSelector(store, pool.NewFetcher(store))
	manager := pack.NewManager(store, store)
	service := app.NewService(resolver, selector, manager, nil, score.NewCoordinator(store), emitter)
	return service, store, emitter
}

func TestStartGameCreatesPack(t *testing.T) {
	ctx := context.Background()
	service, _, emitter := newTestService(t, 10)

	result, err := service.StartGame(ctx, "alice", "", "", "Sports", 10)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if result.Resolution.CanonicalTopicID != "sports" {
		t.Errorf("canonical = %q, want sports", result.Resolution.CanonicalTopicID)
	}
	if len(result.Pack.QuestionIDs) != 10 {
		t.Fatalf("pack has %d questions, want 10", len(result.Pack.QuestionIDs))
	}
	if len(result.Pack.QuestionsSnapshot) != 10 {
		t.Errorf("pack snapshot has %d questions, want 10", len(result.Pack.QuestionsSnapshot))
	}

	got, err := service.GetPack(ctx, result.Pack.ID)
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	for i, id := range result.Pack.QuestionIDs {
		if got.QuestionIDs[i] != id {
			t.Fatalf("pack ids changed on read: %v vs %v", got.QuestionIDs, result.Pack.QuestionIDs)
		}
	}

	// The whole pool fit in one window, so the exhaustion event fires too.
	if !emitter.has(analytics.EventQuizStarted) {
		t.Errorf("quiz_started not emitted: %v", emitter.events)
	}
	if !emitter.has(analytics.EventCategoryExhausted) {
		t.Errorf("category_exhausted not emitted: %v", emitter.events)
	}
}

func TestSelectSessionViaCategoryAlias(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, 15)

	result, err := service.SelectSession(ctx, "alice", "", "athletics", "", 10)
	if err != nil {
		t.Fatalf("select session: %v", err)
	}
	if result.Resolution.CanonicalTopicID != "sports" {
		t.Errorf("canonical = %q, want sports", result.Resolution.CanonicalTopicID)
	}
	if result.Selection.PoolSize != 15 || len(result.Selection.QuestionIDs) != 10 {
		t.Errorf("selection = %+v", result.Selection)
	}
	if result.Selection.ExhaustedThisPick {
		t.Errorf("15-question pool exhausted by a 10-question window")
	}
}

func TestSubmitScoreAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	service, _, emitter := newTestService(t, 10)

	game, err := service.StartGame(ctx, "alice", "sports", "", "", 10)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}

	result, err := service.SubmitScore(ctx, score.Request{PackID: game.Pack.ID, UID: "alice", RawScore: 8})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 8 || result.XPEarned != 800 {
		t.Errorf("result = %+v", result)
	}
	if !emitter.has(analytics.EventScoreSubmitted) {
		t.Errorf("score_submitted not emitted: %v", emitter.events)
	}

	lb, err := service.Leaderboard(ctx, game.Pack.ID, "alice")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].UID != "alice" || lb.CallerRank != 1 {
		t.Errorf("leaderboard = %+v", lb)
	}
}

func TestWatchLeaderboardReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, 10)

	game, err := service.StartGame(ctx, "alice", "sports", "", "", 10)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}

	updates, cancel, err := service.WatchLeaderboard(ctx, game.Pack.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	if _, err := service.SubmitScore(ctx, score.Request{PackID: game.Pack.ID, UID: "bob", RawScore: 6}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	update := <-updates
	if len(update.Entries) != 1 || update.Entries[0].UID != "bob" {
		t.Fatalf("update = %+v", update)
	}

	// Duplicate submissions change nothing and broadcast nothing.
	if _, err := service.SubmitScore(ctx, score.Request{PackID: game.Pack.ID, UID: "bob", RawScore: 10}); err != nil {
		t.Fatalf("duplicate submit: %v", err)
	}
	select {
	case lb := <-updates:
		t.Fatalf("duplicate submission broadcast an update: %+v", lb)
	default:
	}
}

func TestWatchLeaderboardUnknownPack(t *testing.T) {
	service, _, _ := newTestService(t, 10)

	_, _, err := service.WatchLeaderboard(context.Background(), "missing")
	if domain.CodeOf(err) != domain.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}
