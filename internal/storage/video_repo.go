package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_video_store.go -package=mocks videorag/internal/storage VideoStore

import (
	"context"
	"database/sql"
	"fmt"
)

// VideoStore defines the interface for video metadata operations.
type VideoStore interface {
	// Exists reports whether a video with the given name has been processed.
	Exists(ctx context.Context, name string) (bool, error)
	// Insert inserts a video record. Fails if the name already exists.
	Insert(ctx context.Context, video *VideoRecord) (int64, error)
	// GetByName gets a video by name. Returns ErrNotFound if not found.
	GetByName(ctx context.Context, name string) (*VideoRecord, error)
	// ListAll returns all videos, most recently processed first.
	ListAll(ctx context.Context) ([]*VideoRecord, error)
	// Delete removes a video and all its chunk rows as one transaction.
	// The bool reports whether a video row was actually deleted.
	Delete(ctx context.Context, name string) (bool, error)
	// Stats returns aggregate statistics over all processed videos.
	Stats(ctx context.Context) (Stats, error)
}

// VideoRepo provides methods for video metadata operations.
// It implements the VideoStore interface.
type VideoRepo struct {
	db *sql.DB
}

// NewVideoRepo creates a new VideoRepo.
func NewVideoRepo(db *sql.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

// Exists reports whether a video with the given name has been processed.
func (r *VideoRepo) Exists(ctx context.Context, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM videos WHERE video_name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check video existence: %w", err)
	}
	return count > 0, nil
}

// Insert inserts a video record and returns its assigned id.
// The unique constraint on video_name makes a duplicate insert fail; callers
// are expected to check Exists first (single-writer assumption).
func (r *VideoRepo) Insert(ctx context.Context, video *VideoRecord) (int64, error) {
	status := video.Status
	if status == "" {
		status = "completed"
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (video_name, original_path, total_chunks, total_duration, status)
		 VALUES (?, ?, ?, ?, ?)`,
		video.VideoName, video.OriginalPath, video.TotalChunks, video.TotalDuration, status,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert video: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get video id: %w", err)
	}
	video.ID = id
	return id, nil
}

// GetByName gets a video by name. Returns ErrNotFound if not found.
func (r *VideoRepo) GetByName(ctx context.Context, name string) (*VideoRecord, error) {
	var v VideoRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, video_name, original_path, total_chunks, total_duration, processed_date, status
		 FROM videos WHERE video_name = ?`, name,
	).Scan(&v.ID, &v.VideoName, &v.OriginalPath, &v.TotalChunks, &v.TotalDuration, &v.ProcessedDate, &v.Status)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query video: %w", err)
	}

	return &v, nil
}

// ListAll returns all videos ordered by processed date, most recent first.
func (r *VideoRepo) ListAll(ctx context.Context) ([]*VideoRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, video_name, original_path, total_chunks, total_duration, processed_date, status
		 FROM videos ORDER BY processed_date DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var videos []*VideoRecord
	for rows.Next() {
		var v VideoRecord
		if err := rows.Scan(&v.ID, &v.VideoName, &v.OriginalPath, &v.TotalChunks, &v.TotalDuration, &v.ProcessedDate, &v.Status); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return videos, nil
}

// Delete removes all chunk rows for the video, then the video row, inside one
// transaction. The returned bool reports whether a video row existed.
func (r *VideoRepo) Delete(ctx context.Context, name string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transcript_chunks WHERE video_name = ?", name); err != nil {
		return false, fmt.Errorf("failed to delete chunks: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM videos WHERE video_name = ?", name)
	if err != nil {
		return false, fmt.Errorf("failed to delete video: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}

	return affected > 0, nil
}

// Stats returns aggregate statistics over all processed videos.
func (r *VideoRepo) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(total_duration), 0) FROM videos",
	).Scan(&stats.TotalVideos, &stats.TotalDurationSeconds)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query video stats: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transcript_chunks",
	).Scan(&stats.TotalChunks)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query chunk stats: %w", err)
	}

	stats.TotalDurationHours = stats.TotalDurationSeconds / 3600
	return stats, nil
}
