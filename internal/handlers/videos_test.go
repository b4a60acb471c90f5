package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"videorag/internal/pipeline"
	"videorag/internal/storage"
)

func newTestStorage(t *testing.T) (*storage.VideoRepo, *storage.ChunkRepo, *sql.DB) {
	t.Helper()

	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return storage.NewVideoRepo(db), storage.NewChunkRepo(db), db
}

// fakeProcessor is a scripted VideoProcessor for handler tests.
type fakeProcessor struct {
	summary    pipeline.Summary
	processErr error
	deleteErr  error
	stats      pipeline.Statistics
	statsErr   error
	lastFolder string
	deleted    []string
}

func (f *fakeProcessor) ProcessFolder(ctx context.Context, folder string) (pipeline.Summary, error) {
	f.lastFolder = folder
	return f.summary, f.processErr
}

func (f *fakeProcessor) DeleteVideo(ctx context.Context, videoName string) error {
	f.deleted = append(f.deleted, videoName)
	return f.deleteErr
}

func (f *fakeProcessor) Statistics(ctx context.Context) (pipeline.Statistics, error) {
	return f.stats, f.statsErr
}

func TestVideosHandler(t *testing.T) {
	videoRepo, _, _ := newTestStorage(t)
	ctx := context.Background()

	for _, name := range []string{"a.mp4", "b.mp4"} {
		if _, err := videoRepo.Insert(ctx, &storage.VideoRecord{
			VideoName: name, OriginalPath: "/v/" + name, TotalChunks: 1, TotalDuration: 60,
		}); err != nil {
			t.Fatalf("Insert(%s) error = %v", name, err)
		}
	}

	handler := NewVideosHandler(videoRepo)
	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp VideosResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Videos) != 2 {
		t.Errorf("Total = %d, Videos = %d, want 2 each", resp.Total, len(resp.Videos))
	}
}

func TestVideosHandler_EmptyList(t *testing.T) {
	videoRepo, _, _ := newTestStorage(t)

	handler := NewVideosHandler(videoRepo)
	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp VideosResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("Total = %d, want 0", resp.Total)
	}
}

// serveWithChiParam routes the request through chi so URL params resolve.
func serveWithChiParam(handler http.Handler, method, pattern, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestVideoChunksHandler(t *testing.T) {
	videoRepo, chunkRepo, _ := newTestStorage(t)
	ctx := context.Background()

	if _, err := videoRepo.Insert(ctx, &storage.VideoRecord{
		VideoName: "talk.mp4", OriginalPath: "/v/talk.mp4", TotalChunks: 2, TotalDuration: 1200,
	}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := chunkRepo.Insert(ctx, &storage.ChunkRecord{
			VideoName: "talk.mp4", ChunkIndex: i,
			StartTime: float64(i) * 600, EndTime: float64(i+1) * 600,
			StartFormatted: "00:00:00", EndFormatted: "00:10:00",
			Text: "transcript text",
		}); err != nil {
			t.Fatalf("chunk Insert() error = %v", err)
		}
	}

	handler := NewVideoChunksHandler(videoRepo, chunkRepo)
	rec := serveWithChiParam(handler, http.MethodGet, "/api/videos/{name}/chunks", "/api/videos/talk.mp4/chunks")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp VideoChunksResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.VideoName != "talk.mp4" {
		t.Errorf("VideoName = %q", resp.VideoName)
	}
	if resp.Total != 2 {
		t.Errorf("Total = %d, want 2", resp.Total)
	}
	if resp.Chunks[0].ChunkIndex != 0 || resp.Chunks[1].ChunkIndex != 1 {
		t.Error("chunks not ordered by index")
	}
}

func TestVideoChunksHandler_NotFound(t *testing.T) {
	videoRepo, chunkRepo, _ := newTestStorage(t)

	handler := NewVideoChunksHandler(videoRepo, chunkRepo)
	rec := serveWithChiParam(handler, http.MethodGet, "/api/videos/{name}/chunks", "/api/videos/ghost.mp4/chunks")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestVideoDeleteHandler(t *testing.T) {
	tests := []struct {
		name       string
		deleteErr  error
		wantStatus int
	}{
		{"deleted", nil, http.StatusOK},
		{"not found", pipeline.ErrVideoNotFound, http.StatusNotFound},
		{"partial delete", pipeline.ErrPartialDelete, http.StatusInternalServerError},
		{"other error", errors.New("db locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &fakeProcessor{deleteErr: tt.deleteErr}
			handler := NewVideoDeleteHandler(processor)
			rec := serveWithChiParam(handler, http.MethodDelete, "/api/videos/{name}", "/api/videos/v.mp4")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(processor.deleted) != 1 || processor.deleted[0] != "v.mp4" {
				t.Errorf("deleted = %v, want [v.mp4]", processor.deleted)
			}
		})
	}
}
