package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"videorag/internal/transcribe"
	"videorag/internal/vectorstore"
)

// fakeEmbedder returns a deterministic unit vector per text.
type fakeEmbedder struct {
	calls [][]string
	err   error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{float32(len(texts[i])), 1}
	}
	return vecs, nil
}

// fakeStore records calls and serves canned responses.
type fakeStore struct {
	upserted      []vectorstore.Point
	searchResults []vectorstore.SearchResult
	searchFilters map[string]any
	count         uint64
	countErr      error
	deleteFilters map[string]any
	payloads      []map[string]any
}

func (f *fakeStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]vectorstore.SearchResult, error) {
	f.searchFilters = filters
	return f.searchResults, nil
}

func (f *fakeStore) Delete(ctx context.Context, collection string, ids []string) error {
	return nil
}

func (f *fakeStore) DeleteByFilter(ctx context.Context, collection string, filters map[string]any) error {
	f.deleteFilters = filters
	return nil
}

func (f *fakeStore) Count(ctx context.Context, collection string, filters map[string]any) (uint64, error) {
	return f.count, f.countErr
}

func (f *fakeStore) ScrollPayloads(ctx context.Context, collection string, filters map[string]any, fields ...string) ([]map[string]any, error) {
	return f.payloads, nil
}

func newTestIndex(store *fakeStore, embedder *fakeEmbedder) *TranscriptIndex {
	return NewTranscriptIndex(embedder, store, "video_transcripts", 1000, 200)
}

func TestTranscriptIndex_AddTranscripts(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	idx := newTestIndex(store, embedder)
	ctx := context.Background()

	transcripts := []transcribe.Transcript{
		{Text: "machine learning is a subset of artificial intelligence", ChunkIndex: 0, StartTime: 0, EndTime: 600, StartFormatted: "00:00:00", EndFormatted: "00:10:00"},
		{Text: "deep learning uses neural networks", ChunkIndex: 1, StartTime: 600, EndTime: 1200, StartFormatted: "00:10:00", EndFormatted: "00:20:00"},
	}

	ids, firstIDs, err := idx.AddTranscripts(ctx, "AI_Tutorial.mp4", transcripts)
	if err != nil {
		t.Fatalf("AddTranscripts() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("AddTranscripts() returned %d ids, want 2", len(ids))
	}
	if len(store.upserted) != 2 {
		t.Fatalf("upserted %d points, want 2", len(store.upserted))
	}

	// Every transcript chunk maps to its first sub-chunk's point id
	if firstIDs[0] != ids[0] || firstIDs[1] != ids[1] {
		t.Errorf("firstIDs = %v, want mapping to %v", firstIDs, ids)
	}

	meta := store.upserted[1].Meta
	if meta["video_name"] != "AI_Tutorial.mp4" {
		t.Errorf("video_name = %v", meta["video_name"])
	}
	if meta["chunk_index"] != 1 {
		t.Errorf("chunk_index = %v, want 1", meta["chunk_index"])
	}
	if meta["sub_chunk_index"] != 0 {
		t.Errorf("sub_chunk_index = %v, want 0", meta["sub_chunk_index"])
	}
	if meta["start_formatted"] != "00:10:00" {
		t.Errorf("start_formatted = %v", meta["start_formatted"])
	}
	if meta["text"] != "deep learning uses neural networks" {
		t.Errorf("text = %v", meta["text"])
	}
}

func TestTranscriptIndex_AddTranscripts_SkipsEmptyText(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	idx := newTestIndex(store, embedder)

	transcripts := []transcribe.Transcript{
		{Text: "   ", ChunkIndex: 0, StartTime: 0, EndTime: 600, StartFormatted: "00:00:00", EndFormatted: "00:10:00"},
		{Text: "real content", ChunkIndex: 1, StartTime: 600, EndTime: 1200, StartFormatted: "00:10:00", EndFormatted: "00:20:00"},
	}

	ids, firstIDs, err := idx.AddTranscripts(context.Background(), "v.mp4", transcripts)
	if err != nil {
		t.Fatalf("AddTranscripts() error = %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("AddTranscripts() returned %d ids, want 1", len(ids))
	}
	if _, ok := firstIDs[0]; ok {
		t.Error("firstIDs contains skipped chunk 0")
	}
	if firstIDs[1] != ids[0] {
		t.Errorf("firstIDs[1] = %q, want %q", firstIDs[1], ids[0])
	}
}

func TestTranscriptIndex_AddTranscripts_AllEmpty(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	idx := newTestIndex(store, embedder)

	ids, firstIDs, err := idx.AddTranscripts(context.Background(), "v.mp4", []transcribe.Transcript{
		{Text: "\n\t ", ChunkIndex: 0, StartTime: 0, EndTime: 600},
	})
	if err != nil {
		t.Fatalf("AddTranscripts() error = %v", err)
	}
	if len(ids) != 0 || len(firstIDs) != 0 {
		t.Errorf("AddTranscripts() = (%v, %v), want empty", ids, firstIDs)
	}
	if len(embedder.calls) != 0 {
		t.Error("embedder called for empty transcripts")
	}
}

func TestTranscriptIndex_AddTranscripts_EmbedError(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{err: errors.New("rate limited")}
	idx := newTestIndex(store, embedder)

	_, _, err := idx.AddTranscripts(context.Background(), "v.mp4", []transcribe.Transcript{
		{Text: "content", ChunkIndex: 0, StartTime: 0, EndTime: 600},
	})
	if err == nil {
		t.Fatal("AddTranscripts() expected error, got nil")
	}
	if len(store.upserted) != 0 {
		t.Error("points upserted despite embedding failure")
	}
}

func TestTranscriptIndex_Search(t *testing.T) {
	store := &fakeStore{
		searchResults: []vectorstore.SearchResult{
			{
				PointID: "p1",
				Score:   0.91,
				Meta: map[string]any{
					"text":            "neural networks have layers",
					"video_name":      "AI_Tutorial.mp4",
					"chunk_index":     int64(2),
					"sub_chunk_index": int64(1),
					"start_time":      1200.0,
					"end_time":        1800.0,
					"start_formatted": "00:20:00",
					"end_formatted":   "00:30:00",
				},
			},
		},
	}
	embedder := &fakeEmbedder{}
	idx := newTestIndex(store, embedder)

	hits, err := idx.Search(context.Background(), "what are neural networks?", 5, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(hits))
	}
	if store.searchFilters != nil {
		t.Errorf("filters = %v, want nil for unfiltered search", store.searchFilters)
	}

	hit := hits[0]
	if hit.Text != "neural networks have layers" {
		t.Errorf("Text = %q", hit.Text)
	}
	if hit.Score != 0.91 {
		t.Errorf("Score = %v, want 0.91", hit.Score)
	}
	if hit.VideoName != "AI_Tutorial.mp4" {
		t.Errorf("VideoName = %q", hit.VideoName)
	}
	if hit.ChunkIndex != 2 || hit.SubChunkIndex != 1 {
		t.Errorf("indices = (%d, %d), want (2, 1)", hit.ChunkIndex, hit.SubChunkIndex)
	}
	if hit.StartTime != 1200 || hit.EndTime != 1800 {
		t.Errorf("time range = (%v, %v), want (1200, 1800)", hit.StartTime, hit.EndTime)
	}
	if hit.StartFormatted != "00:20:00" || hit.EndFormatted != "00:30:00" {
		t.Errorf("formatted range = (%q, %q)", hit.StartFormatted, hit.EndFormatted)
	}
}

func TestTranscriptIndex_Search_VideoFilter(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	idx := newTestIndex(store, embedder)

	if _, err := idx.Search(context.Background(), "question", 3, "lecture.mp4"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.searchFilters["video_name"] != "lecture.mp4" {
		t.Errorf("filters = %v, want video_name=lecture.mp4", store.searchFilters)
	}
}

func TestTranscriptIndex_DeleteByVideoName(t *testing.T) {
	t.Run("existing video", func(t *testing.T) {
		store := &fakeStore{count: 7}
		idx := newTestIndex(store, &fakeEmbedder{})

		deleted, err := idx.DeleteByVideoName(context.Background(), "v.mp4")
		if err != nil {
			t.Fatalf("DeleteByVideoName() error = %v", err)
		}
		if !deleted {
			t.Error("DeleteByVideoName() = false, want true")
		}
		if store.deleteFilters["video_name"] != "v.mp4" {
			t.Errorf("delete filters = %v", store.deleteFilters)
		}
	})

	t.Run("unknown video", func(t *testing.T) {
		store := &fakeStore{count: 0}
		idx := newTestIndex(store, &fakeEmbedder{})

		deleted, err := idx.DeleteByVideoName(context.Background(), "missing.mp4")
		if err != nil {
			t.Fatalf("DeleteByVideoName() error = %v", err)
		}
		if deleted {
			t.Error("DeleteByVideoName() = true for unknown video")
		}
		if store.deleteFilters != nil {
			t.Error("DeleteByFilter called for unknown video")
		}
	})

	t.Run("count error", func(t *testing.T) {
		store := &fakeStore{countErr: errors.New("unavailable")}
		idx := newTestIndex(store, &fakeEmbedder{})

		if _, err := idx.DeleteByVideoName(context.Background(), "v.mp4"); err == nil {
			t.Error("DeleteByVideoName() expected error, got nil")
		}
	})
}

func TestTranscriptIndex_ListVideoNames(t *testing.T) {
	store := &fakeStore{
		payloads: []map[string]any{
			{"video_name": "zebra.mp4"},
			{"video_name": "alpha.mp4"},
			{"video_name": "zebra.mp4"},
			{"video_name": ""},
			{"other_key": "ignored"},
		},
	}
	idx := newTestIndex(store, &fakeEmbedder{})

	names, err := idx.ListVideoNames(context.Background())
	if err != nil {
		t.Fatalf("ListVideoNames() error = %v", err)
	}
	want := []string{"alpha.mp4", "zebra.mp4"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("ListVideoNames() = %v, want %v", names, want)
	}
}

func TestTranscriptIndex_Stats(t *testing.T) {
	store := &fakeStore{
		count: 42,
		payloads: []map[string]any{
			{"video_name": "a.mp4"},
			{"video_name": "b.mp4"},
		},
	}
	idx := newTestIndex(store, &fakeEmbedder{})

	stats, err := idx.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalChunks != 42 {
		t.Errorf("TotalChunks = %d, want 42", stats.TotalChunks)
	}
	if stats.UniqueVideos != 2 {
		t.Errorf("UniqueVideos = %d, want 2", stats.UniqueVideos)
	}
	if len(stats.VideoNames) != 2 || stats.VideoNames[0] != "a.mp4" {
		t.Errorf("VideoNames = %v", stats.VideoNames)
	}
}
