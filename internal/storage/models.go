package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// VideoRecord represents one processed video. Created once per successfully
// pipelined video and never mutated afterwards.
type VideoRecord struct {
	ID            int64
	VideoName     string // Unique
	OriginalPath  string
	TotalChunks   int
	TotalDuration float64 // Seconds
	ProcessedDate time.Time
	Status        string
}

// ChunkRecord represents one transcribed audio chunk of a video.
type ChunkRecord struct {
	ID             int64
	VideoName      string
	ChunkIndex     int // 0-based, contiguous per video
	StartTime      float64
	EndTime        float64
	StartFormatted string // HH:MM:SS
	EndFormatted   string // HH:MM:SS
	Text           string
	CharCount      int
	VectorID       string // Back-reference into the vector store, set after embedding
	CreatedDate    time.Time
}

// Stats is the aggregate view over all processed videos.
type Stats struct {
	TotalVideos          int     `json:"total_videos"`
	TotalChunks          int     `json:"total_chunks"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	TotalDurationHours   float64 `json:"total_duration_hours"`
}
