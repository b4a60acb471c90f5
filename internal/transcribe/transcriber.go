package transcribe

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"videorag/internal/contextutil"
	"videorag/internal/llm"
	"videorag/internal/media"
)

// Transcript is the text and time-range metadata for one transcribed audio chunk.
type Transcript struct {
	Text           string
	ChunkIndex     int
	StartTime      float64
	EndTime        float64
	Duration       float64
	StartFormatted string
	EndFormatted   string
}

// Client converts audio chunks into text via the OpenAI Whisper API.
type Client struct {
	client *openai.Client
	retry  llm.RetryPolicy
}

// NewClient creates a new transcription client.
func NewClient(client *openai.Client) *Client {
	return &Client{
		client: client,
		retry:  llm.DefaultRetryPolicy,
	}
}

// TranscribeChunk transcribes one audio chunk and stamps it with the chunk's
// time range for citation.
func (c *Client) TranscribeChunk(ctx context.Context, chunk media.Chunk) (Transcript, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var resp openai.AudioResponse
	err := c.retry.Do(ctx, "transcribe chunk", func() error {
		var err error
		resp, err = c.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    openai.Whisper1,
			FilePath: chunk.Path,
		})
		return err
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to transcribe %s: %w", chunk.Path, err)
	}

	text := strings.TrimSpace(resp.Text)
	logger.DebugContext(ctx, "chunk transcribed", "path", chunk.Path, "chars", len(text))

	return Transcript{
		Text:           text,
		StartTime:      chunk.Start,
		EndTime:        chunk.End,
		Duration:       chunk.End - chunk.Start,
		StartFormatted: FormatTime(chunk.Start),
		EndFormatted:   FormatTime(chunk.End),
	}, nil
}

// TranscribeAll transcribes chunks strictly in order, stamping each result with
// a zero-based ChunkIndex equal to its position. The first failure aborts the
// remaining chunks.
func (c *Client) TranscribeAll(ctx context.Context, chunks []media.Chunk) ([]Transcript, error) {
	logger := contextutil.LoggerFromContext(ctx)

	transcripts := make([]Transcript, 0, len(chunks))
	for i, chunk := range chunks {
		transcript, err := c.TranscribeChunk(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		transcript.ChunkIndex = i
		transcripts = append(transcripts, transcript)
	}

	logger.InfoContext(ctx, "all chunks transcribed", "chunks", len(transcripts))
	return transcripts, nil
}

// FormatTime converts seconds to HH:MM:SS, truncating sub-second components.
// There is no day rollover: hours can exceed 24.
func FormatTime(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
