package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"videorag/internal/contextutil"
	"videorag/internal/pipeline"
	"videorag/internal/storage"
)

// VideosHandler lists processed videos.
type VideosHandler struct {
	videos storage.VideoStore
}

// NewVideosHandler creates a new VideosHandler.
func NewVideosHandler(videos storage.VideoStore) *VideosHandler {
	return &VideosHandler{videos: videos}
}

// VideosResponse is the response payload for the video list endpoint.
type VideosResponse struct {
	Videos []*storage.VideoRecord `json:"videos"`
	Total  int                    `json:"total"`
}

func (h *VideosHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	videos, err := h.videos.ListAll(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list videos", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to list videos")
		return
	}
	if videos == nil {
		videos = []*storage.VideoRecord{}
	}

	writeJSON(w, r, http.StatusOK, VideosResponse{Videos: videos, Total: len(videos)})
}

// VideoChunksHandler lists the transcript chunks of one video.
type VideoChunksHandler struct {
	videos storage.VideoStore
	chunks storage.ChunkStore
}

// NewVideoChunksHandler creates a new VideoChunksHandler.
func NewVideoChunksHandler(videos storage.VideoStore, chunks storage.ChunkStore) *VideoChunksHandler {
	return &VideoChunksHandler{videos: videos, chunks: chunks}
}

// VideoChunksResponse is the response payload for the chunk list endpoint.
type VideoChunksResponse struct {
	VideoName string                 `json:"video_name"`
	Chunks    []*storage.ChunkRecord `json:"chunks"`
	Total     int                    `json:"total"`
}

func (h *VideoChunksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	videoName := chi.URLParam(r, "name")

	if _, err := h.videos.GetByName(ctx, videoName); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Video not found")
			return
		}
		logger.ErrorContext(ctx, "failed to look up video", "video", videoName, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to look up video")
		return
	}

	chunks, err := h.chunks.ListByVideo(ctx, videoName)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list chunks", "video", videoName, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to list chunks")
		return
	}

	writeJSON(w, r, http.StatusOK, VideoChunksResponse{
		VideoName: videoName,
		Chunks:    chunks,
		Total:     len(chunks),
	})
}

// VideoDeleteHandler removes a video from both stores.
type VideoDeleteHandler struct {
	processor VideoProcessor
}

// NewVideoDeleteHandler creates a new VideoDeleteHandler.
func NewVideoDeleteHandler(processor VideoProcessor) *VideoDeleteHandler {
	return &VideoDeleteHandler{processor: processor}
}

func (h *VideoDeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	videoName := chi.URLParam(r, "name")

	err := h.processor.DeleteVideo(ctx, videoName)
	switch {
	case errors.Is(err, pipeline.ErrVideoNotFound):
		writeError(w, r, http.StatusNotFound, "Video not found")
	case errors.Is(err, pipeline.ErrPartialDelete):
		logger.ErrorContext(ctx, "partial delete", "video", videoName, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Video partially deleted; stores are inconsistent")
	case err != nil:
		logger.ErrorContext(ctx, "failed to delete video", "video", videoName, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete video")
	default:
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "deleted", "video_name": videoName})
	}
}
