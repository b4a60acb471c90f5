package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks videorag/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"
)

// ChunkStore defines the interface for transcript chunk operations.
type ChunkStore interface {
	// Insert inserts a single transcript chunk. CharCount is derived from Text.
	Insert(ctx context.Context, chunk *ChunkRecord) (int64, error)
	// GetByID gets a chunk by its id. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*ChunkRecord, error)
	// ListByVideo returns all chunks for a video ordered by chunk_index ascending.
	ListByVideo(ctx context.Context, videoName string) ([]*ChunkRecord, error)
	// UpdateVectorID links a chunk row to its vector store entry.
	// It is a no-op when the chunk id does not exist.
	UpdateVectorID(ctx context.Context, chunkID int64, vectorID string) error
	// DeleteByVideo removes every chunk row of the video. Removing a video
	// with no rows is a no-op.
	DeleteByVideo(ctx context.Context, videoName string) error
}

// ChunkRepo provides methods for transcript chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single transcript chunk and returns its assigned id.
// char_count is always computed from the text, keeping the two in sync.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) (int64, error) {
	if chunk.EndTime <= chunk.StartTime {
		return 0, fmt.Errorf("invalid chunk time range: end %v <= start %v", chunk.EndTime, chunk.StartTime)
	}

	chunk.CharCount = utf8.RuneCountInString(chunk.Text)

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO transcript_chunks
		 (video_name, chunk_index, start_time, end_time, start_formatted, end_formatted, text, char_count, vector_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.VideoName, chunk.ChunkIndex, chunk.StartTime, chunk.EndTime,
		chunk.StartFormatted, chunk.EndFormatted, chunk.Text, chunk.CharCount,
		nullIfEmpty(chunk.VectorID),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chunk: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get chunk id: %w", err)
	}
	chunk.ID = id
	return id, nil
}

// GetByID gets a chunk by its id. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id int64) (*ChunkRecord, error) {
	var c ChunkRecord
	var vectorID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, video_name, chunk_index, start_time, end_time, start_formatted, end_formatted,
		        text, char_count, vector_id, created_date
		 FROM transcript_chunks WHERE id = ?`, id,
	).Scan(&c.ID, &c.VideoName, &c.ChunkIndex, &c.StartTime, &c.EndTime, &c.StartFormatted,
		&c.EndFormatted, &c.Text, &c.CharCount, &vectorID, &c.CreatedDate)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	c.VectorID = vectorID.String
	return &c, nil
}

// ListByVideo returns all chunks for a video ordered by chunk_index ascending.
// Returns an empty slice if no chunks exist (not an error).
func (r *ChunkRepo) ListByVideo(ctx context.Context, videoName string) ([]*ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, video_name, chunk_index, start_time, end_time, start_formatted, end_formatted,
		        text, char_count, vector_id, created_date
		 FROM transcript_chunks WHERE video_name = ? ORDER BY chunk_index`, videoName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []*ChunkRecord{}
	for rows.Next() {
		var c ChunkRecord
		var vectorID sql.NullString
		if err := rows.Scan(&c.ID, &c.VideoName, &c.ChunkIndex, &c.StartTime, &c.EndTime,
			&c.StartFormatted, &c.EndFormatted, &c.Text, &c.CharCount, &vectorID, &c.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.VectorID = vectorID.String
		chunks = append(chunks, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}

// UpdateVectorID links a chunk row to its vector store entry. Updating an
// unknown chunk id affects zero rows and is not an error.
func (r *ChunkRepo) UpdateVectorID(ctx context.Context, chunkID int64, vectorID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transcript_chunks SET vector_id = ? WHERE id = ?", vectorID, chunkID,
	)
	if err != nil {
		return fmt.Errorf("failed to update vector id: %w", err)
	}
	return nil
}

// DeleteByVideo removes every chunk row of the video. Removing a video with
// no rows affects zero rows and is not an error.
func (r *ChunkRepo) DeleteByVideo(ctx context.Context, videoName string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM transcript_chunks WHERE video_name = ?", videoName,
	)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// nullIfEmpty maps an empty string to SQL NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
