package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"videorag/internal/contextutil"
	"videorag/internal/transcribe"
	"videorag/internal/vectorstore"
)

// Embedder generates embedding vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Hit is a single similarity search result with its transcript metadata.
type Hit struct {
	Text           string  `json:"text"`
	Score          float32 `json:"score"`
	VideoName      string  `json:"video_name"`
	ChunkIndex     int     `json:"chunk_index"`
	SubChunkIndex  int     `json:"sub_chunk_index"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	StartFormatted string  `json:"start_formatted"`
	EndFormatted   string  `json:"end_formatted"`
}

// CollectionStats summarizes the vector collection contents.
type CollectionStats struct {
	TotalChunks  uint64   `json:"total_chunks"`
	UniqueVideos int      `json:"unique_videos"`
	VideoNames   []string `json:"video_names"`
}

// TranscriptIndex stores transcript sub-chunks as embedding vectors and
// answers similarity queries over them. Each transcript chunk is split into
// overlapping sub-chunks; every sub-chunk carries the parent chunk's time
// range in its payload.
type TranscriptIndex struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	splitter   *Splitter
}

// NewTranscriptIndex creates a transcript index over the given collection.
func NewTranscriptIndex(embedder Embedder, store vectorstore.VectorStore, collection string, subChunkSize, subChunkOverlap int) *TranscriptIndex {
	return &TranscriptIndex{
		embedder:   embedder,
		store:      store,
		collection: collection,
		splitter:   NewSplitter(subChunkSize, subChunkOverlap),
	}
}

// AddTranscripts splits, embeds, and upserts the transcripts of one video.
// Whitespace-only transcripts are skipped. Returns all assigned point IDs and
// a map from transcript chunk index to the ID of its first sub-chunk, used to
// link metadata rows back to the vector store.
func (x *TranscriptIndex) AddTranscripts(ctx context.Context, videoName string, transcripts []transcribe.Transcript) ([]string, map[int]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var texts []string
	var metas []map[string]any

	for _, t := range transcripts {
		subChunks := x.splitter.Split(t.Text)
		for j, sub := range subChunks {
			texts = append(texts, sub)
			metas = append(metas, map[string]any{
				"video_name":      videoName,
				"chunk_index":     t.ChunkIndex,
				"sub_chunk_index": j,
				"start_time":      t.StartTime,
				"end_time":        t.EndTime,
				"start_formatted": t.StartFormatted,
				"end_formatted":   t.EndFormatted,
				"text":            sub,
			})
		}
	}

	if len(texts) == 0 {
		logger.WarnContext(ctx, "no indexable text in transcripts", "video", videoName)
		return nil, nil, nil
	}

	embeddings, err := x.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to embed transcripts: %w", err)
	}

	ids := make([]string, len(texts))
	points := make([]vectorstore.Point, len(texts))
	firstIDs := make(map[int]string)

	for i := range texts {
		id := uuid.New().String()
		ids[i] = id
		points[i] = vectorstore.Point{
			ID:   id,
			Vec:  embeddings[i],
			Meta: metas[i],
		}

		chunkIndex := metas[i]["chunk_index"].(int)
		if metas[i]["sub_chunk_index"].(int) == 0 {
			firstIDs[chunkIndex] = id
		}
	}

	if err := x.store.Upsert(ctx, x.collection, points); err != nil {
		return nil, nil, fmt.Errorf("failed to store transcript vectors: %w", err)
	}

	logger.InfoContext(ctx, "indexed transcripts", "video", videoName, "sub_chunks", len(points))
	return ids, firstIDs, nil
}

// Search embeds the query and returns the k most similar sub-chunks. When
// videoName is non-empty the search is restricted to that video.
func (x *TranscriptIndex) Search(ctx context.Context, query string, k int, videoName string) ([]Hit, error) {
	embeddings, err := x.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	var filters map[string]any
	if videoName != "" {
		filters = map[string]any{"video_name": videoName}
	}

	results, err := x.store.Search(ctx, x.collection, embeddings[0], k, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search transcripts: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hitFromMeta(r.Score, r.Meta))
	}
	return hits, nil
}

// DeleteByVideoName removes every sub-chunk belonging to the video.
// Returns false when the video has no sub-chunks in the collection.
func (x *TranscriptIndex) DeleteByVideoName(ctx context.Context, videoName string) (bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	filters := map[string]any{"video_name": videoName}
	count, err := x.store.Count(ctx, x.collection, filters)
	if err != nil {
		return false, fmt.Errorf("failed to count video sub-chunks: %w", err)
	}
	if count == 0 {
		return false, nil
	}

	if err := x.store.DeleteByFilter(ctx, x.collection, filters); err != nil {
		return false, fmt.Errorf("failed to delete video sub-chunks: %w", err)
	}

	logger.InfoContext(ctx, "deleted video from index", "video", videoName, "sub_chunks", count)
	return true, nil
}

// ListVideoNames returns the distinct video names in the collection, sorted.
func (x *TranscriptIndex) ListVideoNames(ctx context.Context) ([]string, error) {
	payloads, err := x.store.ScrollPayloads(ctx, x.collection, nil, "video_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list video names: %w", err)
	}

	seen := make(map[string]struct{})
	for _, p := range payloads {
		if name, ok := p["video_name"].(string); ok && name != "" {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Stats returns collection-level statistics.
func (x *TranscriptIndex) Stats(ctx context.Context) (CollectionStats, error) {
	total, err := x.store.Count(ctx, x.collection, nil)
	if err != nil {
		return CollectionStats{}, fmt.Errorf("failed to count collection: %w", err)
	}

	names, err := x.ListVideoNames(ctx)
	if err != nil {
		return CollectionStats{}, err
	}

	return CollectionStats{
		TotalChunks:  total,
		UniqueVideos: len(names),
		VideoNames:   names,
	}, nil
}

// hitFromMeta converts a vector store payload back into a Hit. Integer values
// come back from the store as int64, floats as float64.
func hitFromMeta(score float32, meta map[string]any) Hit {
	hit := Hit{Score: score}
	if v, ok := meta["text"].(string); ok {
		hit.Text = v
	}
	if v, ok := meta["video_name"].(string); ok {
		hit.VideoName = v
	}
	if v, ok := meta["chunk_index"].(int64); ok {
		hit.ChunkIndex = int(v)
	}
	if v, ok := meta["sub_chunk_index"].(int64); ok {
		hit.SubChunkIndex = int(v)
	}
	if v, ok := meta["start_time"].(float64); ok {
		hit.StartTime = v
	}
	if v, ok := meta["end_time"].(float64); ok {
		hit.EndTime = v
	}
	if v, ok := meta["start_formatted"].(string); ok {
		hit.StartFormatted = v
	}
	if v, ok := meta["end_formatted"].(string); ok {
		hit.EndFormatted = v
	}
	return hit
}
