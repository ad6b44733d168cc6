// Package analytics emits fire-and-forget gameplay events. Emission never
// fails a request; sinks log and swallow their own errors.
package analytics

import "log"

// Event names emitted by the core flows.
const (
	EventQuizStarted       = "quiz_started"
	EventCategoryExhausted = "category_exhausted"
	EventScoreSubmitted    = "score_submitted"
)

// Params carries the dimensions attached to a gameplay event.
type Params struct {
	TopicID        string `json:"categoryId"`
	QuizSize       int    `json:"quizSize"`
	PoolSize       int    `json:"poolSize,omitempty"`
	ExhaustedCount int    `json:"exhaustedCount"`
	WeekKey        string `json:"weekKey"`
	Mode           string `json:"mode"`
	PackID         string `json:"quizId,omitempty"`
}

// Emitter is the analytics sink boundary.
type Emitter interface {
	Emit(event string, params Params)
}

// LogEmitter writes events to the process log. It is the default sink.
type LogEmitter struct{}

func (LogEmitter) Emit(event string, params Params) {
	log.Printf("analytics_event %s topic=%s size=%d pool=%d exhausted=%d week=%s mode=%s pack=%s",
		event, params.TopicID, params.QuizSize, params.PoolSize, params.ExhaustedCount,
		params.WeekKey, params.Mode, params.PackID)
}

// Nop discards events; useful in tests.
type Nop struct{}

func (Nop) Emit(string, Params) {}
