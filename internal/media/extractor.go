package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"videorag/internal/contextutil"
)

// Chunk is one fixed-length slice of an extracted audio track.
// Chunks exist only in scratch storage for the duration of one pipeline run.
type Chunk struct {
	Path  string
	Start float64
	End   float64
}

// Extractor pulls the audio track out of a video file and splits it into
// consecutive fixed-length chunks in a scratch directory.
type Extractor struct {
	tempDir     string
	chunkLength float64
}

// NewExtractor creates an Extractor with its scratch directory under the
// system temp dir. chunkLengthSeconds is the fixed window length for SplitAudio.
func NewExtractor(chunkLengthSeconds int) (*Extractor, error) {
	dir := filepath.Join(os.TempDir(), "videorag-audio")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Extractor{
		tempDir:     dir,
		chunkLength: float64(chunkLengthSeconds),
	}, nil
}

// TempDir returns the scratch directory used for extracted audio.
func (e *Extractor) TempDir() string {
	return e.tempDir
}

// ExtractAudio demuxes the audio track of a video into a mono 16 kHz WAV file
// in the scratch directory. It fails if the video has no readable audio stream.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	audioPath := filepath.Join(e.tempDir, stem(videoPath)+".wav")
	args := []string{"-y", "-i", videoPath, "-vn", "-ac", "1", "-ar", "16000", "-f", "wav", audioPath}
	if err := runFFmpeg(ctx, args); err != nil {
		return "", fmt.Errorf("failed to extract audio from %s: %w", videoPath, err)
	}

	logger.InfoContext(ctx, "audio extracted", "video", videoPath, "audio", audioPath)
	return audioPath, nil
}

// SplitAudio cuts an audio file into consecutive non-overlapping windows of the
// configured chunk length. The final window is truncated to the remaining
// duration. Each chunk is written to scratch storage as an independent file.
func (e *Extractor) SplitAudio(ctx context.Context, audioPath string) ([]Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	duration, err := ProbeDuration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe duration of %s: %w", audioPath, err)
	}

	windows := splitWindows(duration, e.chunkLength)
	chunks := make([]Chunk, 0, len(windows))

	for i, w := range windows {
		chunkPath := filepath.Join(e.tempDir, fmt.Sprintf("%s_%d.wav", stem(audioPath), i))
		args := []string{
			"-y",
			"-ss", formatSeconds(w.start),
			"-t", formatSeconds(w.end - w.start),
			"-i", audioPath,
			"-c", "copy",
			chunkPath,
		}
		if err := runFFmpeg(ctx, args); err != nil {
			return nil, fmt.Errorf("failed to cut chunk %d of %s: %w", i, audioPath, err)
		}
		chunks = append(chunks, Chunk{Path: chunkPath, Start: w.start, End: w.end})
	}

	logger.InfoContext(ctx, "audio split", "audio", audioPath, "duration", duration, "chunks", len(chunks))
	return chunks, nil
}

// Cleanup deletes one scratch file. Best-effort: errors are logged, not returned.
func (e *Extractor) Cleanup(ctx context.Context, path string) {
	logger := contextutil.LoggerFromContext(ctx)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.WarnContext(ctx, "failed to delete scratch file", "path", path, "error", err)
	}
}

// CleanupAll deletes every file in the scratch directory. Best-effort.
func (e *Extractor) CleanupAll(ctx context.Context) {
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := os.ReadDir(e.tempDir)
	if err != nil {
		logger.WarnContext(ctx, "failed to read scratch directory", "dir", e.tempDir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		e.Cleanup(ctx, filepath.Join(e.tempDir, entry.Name()))
	}
}

// window is a half-open [start, end) slice of the audio timeline, except the
// last window whose end equals the total duration exactly.
type window struct {
	start float64
	end   float64
}

// splitWindows computes ceil(duration/chunkLength) consecutive windows covering
// [0, duration] with no padding past the end.
func splitWindows(duration, chunkLength float64) []window {
	if duration <= 0 || chunkLength <= 0 {
		return nil
	}

	n := int(math.Ceil(duration / chunkLength))
	windows := make([]window, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * chunkLength
		end := math.Min(duration, float64(i+1)*chunkLength)
		windows = append(windows, window{start: start, end: end})
	}
	return windows
}

// ProbeDuration returns the duration of a media file in seconds via ffprobe.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w (%s)", err, strings.TrimSpace(errBuf.String()))
	}
	return strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
}

// runFFmpeg runs ffmpeg with the given arguments, surfacing stderr on failure.
func runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var errBuf bytes.Buffer
	cmd.Stdout = &errBuf
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w (%s)", err, tail(errBuf.String(), 512))
	}
	return nil
}

// formatSeconds renders a second offset as an ffmpeg time argument with
// millisecond precision.
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// tail returns at most the last n bytes of s.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
