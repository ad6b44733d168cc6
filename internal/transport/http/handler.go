// Package http exposes the operation surface as a JSON API plus a websocket
// leaderboard watch. Authentication happens upstream; this layer trusts the
// forwarded caller headers.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"trivia-rotation-service/internal/app"
	"trivia-rotation-service/internal/diagnostics"
	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/score"
)

const defaultWindowSize = 10

type Handler struct {
	service    *app.Service
	diag       *diagnostics.Service
	windowSize int
	upgrader   websocket.Upgrader
}

// NewHandler builds the route handler. windowSize is the fallback applied
// when a request omits windowSize; zero means the built-in default.
func NewHandler(service *app.Service, diag *diagnostics.Service, windowSize int) *Handler {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	return &Handler{
		service:    service,
		diag:       diag,
		windowSize: windowSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register wires all routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /v1/topic:resolve", h.resolveTopic)
	mux.HandleFunc("POST /v1/sessions:select", h.selectSession)
	mux.HandleFunc("POST /v1/games", h.startGame)
	mux.HandleFunc("POST /v1/packs", h.createPack)
	mux.HandleFunc("GET /v1/packs/{id}", h.getPack)
	mux.HandleFunc("POST /v1/packs/{id}/scores", h.submitScore)
	mux.HandleFunc("GET /v1/packs/{id}/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /v1/packs/{id}/leaderboard/watch", h.watchLeaderboard)
	mux.HandleFunc("POST /v1/admin/diagnostics", h.diagnose)
}

type resolveRequest struct {
	TopicID    string `json:"topicId"`
	CategoryID string `json:"categoryId"`
	Topic      string `json:"topic"`
}

func (h *Handler) resolveTopic(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decode(w, r, &req) {
		return
	}
	resolved, err := h.service.ResolveTopic(r.Context(), req.TopicID, req.CategoryID, req.Topic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

type selectRequest struct {
	UID        string `json:"uid"`
	TopicID    string `json:"topicId"`
	CategoryID string `json:"categoryId"`
	Topic      string `json:"topic"`
	WindowSize int    `json:"windowSize"`
}

type selectResponse struct {
	QuestionIDs       []string `json:"questionIds,omitempty"`
	PoolSize          int      `json:"poolSize"`
	CursorBefore      int      `json:"cursorBefore"`
	CursorAfter       int      `json:"cursorAfter"`
	ExhaustedThisPick bool     `json:"exhaustedThisPick"`
	WeekKey           string   `json:"weekKey"`
	CanonicalTopicID  string   `json:"canonicalTopicId"`
	ResolvedFrom      string   `json:"resolvedFrom"`
}

func (h *Handler) selectSession(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WindowSize == 0 {
		req.WindowSize = h.windowSize
	}
	result, err := h.service.SelectSession(r.Context(), req.UID, req.TopicID, req.CategoryID, req.Topic, req.WindowSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{
		QuestionIDs:       result.Selection.QuestionIDs,
		PoolSize:          result.Selection.PoolSize,
		CursorBefore:      result.Selection.CursorBefore,
		CursorAfter:       result.Selection.CursorAfter,
		ExhaustedThisPick: result.Selection.ExhaustedThisPick,
		WeekKey:           result.Selection.WeekKey,
		CanonicalTopicID:  result.Resolution.CanonicalTopicID,
		ResolvedFrom:      result.Resolution.ResolvedFrom,
	})
}

type startGameResponse struct {
	PackID      string            `json:"packId"`
	QuestionIDs []string          `json:"questionIds"`
	Questions   []domain.Question `json:"questions,omitempty"`
	Meta        selectResponse    `json:"selectionMeta"`
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WindowSize == 0 {
		req.WindowSize = h.windowSize
	}
	result, err := h.service.StartGame(r.Context(), req.UID, req.TopicID, req.CategoryID, req.Topic, req.WindowSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, startGameResponse{
		PackID:      result.Pack.ID,
		QuestionIDs: result.Pack.QuestionIDs,
		Questions:   result.Pack.QuestionsSnapshot,
		Meta: selectResponse{
			PoolSize:          result.Selection.PoolSize,
			CursorBefore:      result.Selection.CursorBefore,
			CursorAfter:       result.Selection.CursorAfter,
			ExhaustedThisPick: result.Selection.ExhaustedThisPick,
			WeekKey:           result.Selection.WeekKey,
			CanonicalTopicID:  result.Resolution.CanonicalTopicID,
			ResolvedFrom:      result.Resolution.ResolvedFrom,
		},
	})
}

type createPackRequest struct {
	TopicID     string   `json:"topicId"`
	QuestionIDs []string `json:"questionIds"`
	CreatedBy   string   `json:"createdBy"`
}

func (h *Handler) createPack(w http.ResponseWriter, r *http.Request) {
	var req createPackRequest
	if !decode(w, r, &req) {
		return
	}
	created, err := h.service.CreatePack(r.Context(), req.TopicID, req.QuestionIDs, req.CreatedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"packId":      created.ID,
		"questionIds": created.QuestionIDs,
	})
}

func (h *Handler) getPack(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPack(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type submitRequest struct {
	UID        string   `json:"uid"`
	Score      float64  `json:"score"`
	Correct    *float64 `json:"correct"`
	Total      *float64 `json:"total"`
	DurationMS *float64 `json:"durationMs"`
}

type submitResponse struct {
	Score       int                `json:"score"`
	MaxScore    int                `json:"maxScore"`
	Correct     int                `json:"correct"`
	XPEarned    int                `json:"xpEarned"`
	Duplicate   bool               `json:"duplicate"`
	Leaderboard domain.Leaderboard `json:"leaderboard"`
}

func (h *Handler) submitScore(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.service.SubmitScore(r.Context(), score.Request{
		PackID:     r.PathValue("id"),
		UID:        req.UID,
		RawScore:   req.Score,
		RawCorrect: req.Correct,
		RawTotal:   req.Total,
		DurationMS: req.DurationMS,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Score:       result.Score,
		MaxScore:    result.MaxScore,
		Correct:     result.Correct,
		XPEarned:    result.XPEarned,
		Duplicate:   result.Duplicate,
		Leaderboard: result.Leaderboard,
	})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.service.Leaderboard(r.Context(), r.PathValue("id"), r.URL.Query().Get("uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// watchLeaderboard upgrades to a websocket and streams ranking updates for a
// pack until the client disconnects.
func (h *Handler) watchLeaderboard(w http.ResponseWriter, r *http.Request) {
	packID := r.PathValue("id")
	updates, cancel, err := h.service.WatchLeaderboard(r.Context(), packID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Initial snapshot so watchers render immediately.
	initial, err := h.service.Leaderboard(r.Context(), packID, "")
	if err == nil {
		_ = conn.WriteJSON(initial)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

type diagnoseRequest struct {
	TopicID    string `json:"topicId"`
	CategoryID string `json:"categoryId"`
	Topic      string `json:"topic"`
	PackID     string `json:"triviaPackId"`
}

func (h *Handler) diagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	if !decode(w, r, &req) {
		return
	}
	report, err := h.diag.Diagnose(r.Context(), callerFrom(r), diagnostics.Request{
		TopicID:    req.TopicID,
		CategoryID: req.CategoryID,
		Topic:      req.Topic,
		PackID:     req.PackID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// callerFrom trusts identity headers set by the upstream auth layer.
func callerFrom(r *http.Request) diagnostics.Caller {
	return diagnostics.Caller{
		UID:   r.Header.Get("X-Caller-Uid"),
		Admin: r.Header.Get("X-Caller-Admin") == "true",
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, domain.E(domain.CodeInvalidArgument, "malformed request body"))
		return false
	}
	return true
}

type errorResponse struct {
	Error struct {
		Code    domain.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	if code == domain.CodeInternal {
		// Cause goes to the log only; callers get the generic message.
		log.Printf("internal error: %v", err)
	}
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = domain.Message(err)
	writeJSON(w, statusOf(code), resp)
}

func statusOf(code domain.Code) int {
	switch code {
	case domain.CodeInvalidArgument, domain.CodeFailedPrecondition:
		return http.StatusBadRequest
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domain.CodePermissionDenied:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		log.Printf("write response: %v", err)
	}
}
