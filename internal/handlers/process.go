package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"videorag/internal/contextutil"
	"videorag/internal/pipeline"
)

// VideoProcessor is the pipeline surface the HTTP layer needs.
type VideoProcessor interface {
	ProcessFolder(ctx context.Context, folder string) (pipeline.Summary, error)
	DeleteVideo(ctx context.Context, videoName string) error
	Statistics(ctx context.Context) (pipeline.Statistics, error)
}

// ProcessHandler triggers processing of the video input folder.
type ProcessHandler struct {
	processor VideoProcessor
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(processor VideoProcessor) *ProcessHandler {
	return &ProcessHandler{processor: processor}
}

// ProcessRequest is the optional request payload. An empty folder means the
// configured input directory.
type ProcessRequest struct {
	Folder string `json:"folder,omitempty"`
}

func (h *ProcessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	// Body is optional: an empty body processes the configured input folder.
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.processor.ProcessFolder(ctx, req.Folder)
	if err != nil {
		logger.ErrorContext(ctx, "folder processing failed", "folder", req.Folder, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to process folder")
		return
	}

	writeJSON(w, r, http.StatusOK, summary)
}
