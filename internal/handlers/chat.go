package handlers

import (
	"net/http"

	"videorag/internal/chat"
	"videorag/internal/contextutil"
)

// ChatResetHandler clears the conversation history.
type ChatResetHandler struct {
	engine ChatEngine
}

// NewChatResetHandler creates a new ChatResetHandler.
func NewChatResetHandler(engine ChatEngine) *ChatResetHandler {
	return &ChatResetHandler{engine: engine}
}

func (h *ChatResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	h.engine.ClearHistory()
	logger.InfoContext(ctx, "conversation history cleared")

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}

// ChatHistoryHandler returns the conversation so far.
type ChatHistoryHandler struct {
	engine ChatEngine
}

// NewChatHistoryHandler creates a new ChatHistoryHandler.
func NewChatHistoryHandler(engine ChatEngine) *ChatHistoryHandler {
	return &ChatHistoryHandler{engine: engine}
}

// ChatHistoryResponse is the response payload for the history endpoint.
type ChatHistoryResponse struct {
	Messages []chat.HistoryMessage `json:"messages"`
	Total    int                   `json:"total"`
}

func (h *ChatHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	messages := h.engine.History()
	if messages == nil {
		messages = []chat.HistoryMessage{}
	}

	writeJSON(w, r, http.StatusOK, ChatHistoryResponse{
		Messages: messages,
		Total:    len(messages),
	})
}
