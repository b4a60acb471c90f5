package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"videorag/internal/chat"
	"videorag/internal/contextutil"
)

// ChatEngine is the conversation surface the HTTP layer needs.
type ChatEngine interface {
	Ask(ctx context.Context, question string) chat.Result
	AskWithVideoFilter(ctx context.Context, question, videoName string) chat.Result
	ClearHistory()
	History() []chat.HistoryMessage
}

// AskHandler answers questions over the transcript corpus.
type AskHandler struct {
	engine ChatEngine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine ChatEngine) *AskHandler {
	return &AskHandler{engine: engine}
}

// AskRequest is the request payload for questions. VideoName optionally
// restricts retrieval to one video.
type AskRequest struct {
	Question  string `json:"question"`
	VideoName string `json:"video_name,omitempty"`
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, r, http.StatusBadRequest, "Question is required")
		return
	}

	var result chat.Result
	if req.VideoName != "" {
		result = h.engine.AskWithVideoFilter(ctx, req.Question, req.VideoName)
	} else {
		result = h.engine.Ask(ctx, req.Question)
	}

	writeJSON(w, r, http.StatusOK, result)
}
