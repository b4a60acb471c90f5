package handlers

import (
	"net/http"

	"videorag/internal/contextutil"
)

// StatsHandler reports combined metadata-store and vector-store statistics.
type StatsHandler struct {
	processor VideoProcessor
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(processor VideoProcessor) *StatsHandler {
	return &StatsHandler{processor: processor}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	stats, err := h.processor.Statistics(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to collect statistics", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to collect statistics")
		return
	}

	writeJSON(w, r, http.StatusOK, stats)
}
