// Package app wires the topic, rotation, pack, and score components into the
// operation surface callers see.
package app

import (
	"context"

	"trivia-rotation-service/internal/analytics"
	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/pack"
	"trivia-rotation-service/internal/rotation"
	"trivia-rotation-service/internal/score"
	"trivia-rotation-service/internal/topic"
)

// Service is the application facade over the core components.
type Service struct {
	resolver *topic.Resolver
	selector *rotation.Selector
	packs    *pack.Manager
	reader   pack.Reader
	scores   *score.Coordinator
	events   analytics.Emitter
	hub      *Hub
}

// NewService assembles the facade. reader is the (possibly cached) pack read
// path; pass the manager itself to read uncached.
func NewService(resolver *topic.Resolver, selector *rotation.Selector, packs *pack.Manager, reader pack.Reader, scores *score.Coordinator, events analytics.Emitter) *Service {
	if reader == nil {
		reader = packs
	}
	if events == nil {
		events = analytics.Nop{}
	}
	return &Service{
		resolver: resolver,
		selector: selector,
		packs:    packs,
		reader:   reader,
		scores:   scores,
		events:   events,
		hub:      NewHub(),
	}
}

// ResolveTopic maps any of the raw identifiers onto one canonical topic.
func (s *Service) ResolveTopic(ctx context.Context, topicID, categoryID, topicName string) (topic.Resolution, error) {
	return s.resolver.Resolve(ctx, topicID, categoryID, topicName)
}

// SessionResult is the outcome of a SelectSession call.
type SessionResult struct {
	Resolution topic.Resolution
	Selection  rotation.Selection
}

// SelectSession resolves the topic and picks the user's next rotation window.
func (s *Service) SelectSession(ctx context.Context, uid, topicID, categoryID, topicName string, windowSize int) (SessionResult, error) {
	resolved, err := s.resolver.Resolve(ctx, topicID, categoryID, topicName)
	if err != nil {
		return SessionResult{}, err
	}
	selection, err := s.selector.SelectWindow(ctx, uid, resolved.CanonicalTopicID, resolved.CategoryHint, windowSize)
	if err != nil {
		return SessionResult{}, err
	}
	s.emitSelection(resolved.CanonicalTopicID, windowSize, selection, "")
	return SessionResult{Resolution: resolved, Selection: selection}, nil
}

// GameResult is the outcome of a StartGame call: a selection already bound
// to an immutable pack.
type GameResult struct {
	Resolution topic.Resolution
	Selection  rotation.Selection
	Pack       domain.TriviaPack
}

// StartGame chains SelectSession with pack creation so the selected window
// is frozen before the caller sees it.
func (s *Service) StartGame(ctx context.Context, uid, topicID, categoryID, topicName string, windowSize int) (GameResult, error) {
	resolved, err := s.resolver.Resolve(ctx, topicID, categoryID, topicName)
	if err != nil {
		return GameResult{}, err
	}
	selection, err := s.selector.SelectWindow(ctx, uid, resolved.CanonicalTopicID, resolved.CategoryHint, windowSize)
	if err != nil {
		return GameResult{}, err
	}
	created, err := s.packs.CreatePack(ctx, resolved.CanonicalTopicID, selection.QuestionIDs, selection.Questions, uid)
	if err != nil {
		return GameResult{}, err
	}
	s.emitSelection(resolved.CanonicalTopicID, windowSize, selection, created.ID)
	return GameResult{Resolution: resolved, Selection: selection, Pack: created}, nil
}

// CreatePack freezes an explicit question id list into an immutable pack.
func (s *Service) CreatePack(ctx context.Context, topicID string, questionIDs []string, createdBy string) (domain.TriviaPack, error) {
	return s.packs.CreatePack(ctx, topicID, questionIDs, nil, createdBy)
}

// GetPack reads a pack through the cached read path.
func (s *Service) GetPack(ctx context.Context, packID string) (domain.TriviaPack, error) {
	return s.reader.GetPack(ctx, packID)
}

// SubmitScore records a result exactly once and returns the pack
// leaderboard. Duplicate submissions return the original result unchanged.
func (s *Service) SubmitScore(ctx context.Context, req score.Request) (score.Result, error) {
	result, err := s.scores.Submit(ctx, req)
	if err != nil {
		return score.Result{}, err
	}
	if !result.Duplicate {
		s.events.Emit(analytics.EventScoreSubmitted, analytics.Params{
			PackID:   req.PackID,
			QuizSize: result.MaxScore,
			Mode:     "solo",
		})
		s.hub.Broadcast(result.Leaderboard)
	}
	return result, nil
}

// Leaderboard returns the current ranking for a pack.
func (s *Service) Leaderboard(ctx context.Context, packID, callerUID string) (domain.Leaderboard, error) {
	if _, err := s.reader.GetPack(ctx, packID); err != nil {
		return domain.Leaderboard{}, err
	}
	return s.scores.Leaderboard(ctx, packID, callerUID)
}

// WatchLeaderboard subscribes to ranking updates for a pack. The pack must
// exist. The caller must invoke cancel.
func (s *Service) WatchLeaderboard(ctx context.Context, packID string) (<-chan domain.Leaderboard, func(), error) {
	if _, err := s.reader.GetPack(ctx, packID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(packID)
	return ch, cancel, nil
}

func (s *Service) emitSelection(topicID string, windowSize int, selection rotation.Selection, packID string) {
	params := analytics.Params{
		TopicID:        topicID,
		QuizSize:       windowSize,
		PoolSize:       selection.PoolSize,
		ExhaustedCount: selection.ExhaustedCount,
		WeekKey:        selection.WeekKey,
		Mode:           "solo",
		PackID:         packID,
	}
	s.events.Emit(analytics.EventQuizStarted, params)
	if selection.ExhaustedThisPick {
		s.events.Emit(analytics.EventCategoryExhausted, params)
	}
}
