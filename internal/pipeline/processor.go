package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"videorag/internal/contextutil"
	"videorag/internal/index"
	"videorag/internal/media"
	"videorag/internal/storage"
	"videorag/internal/transcribe"
)

var (
	// ErrVideoNotFound means neither the metadata store nor the vector store
	// knows the video.
	ErrVideoNotFound = errors.New("video not found")

	// ErrPartialDelete means one store dropped the video but the other failed,
	// leaving the two stores inconsistent.
	ErrPartialDelete = errors.New("video partially deleted")
)

// AudioExtractor prepares transcription-ready audio chunks from a video file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath string) (string, error)
	SplitAudio(ctx context.Context, audioPath string) ([]media.Chunk, error)
	CleanupAll(ctx context.Context)
}

// Transcriber converts audio chunks into ordered transcripts.
type Transcriber interface {
	TranscribeAll(ctx context.Context, chunks []media.Chunk) ([]transcribe.Transcript, error)
}

// Index is the vector-side view of the transcript corpus.
type Index interface {
	AddTranscripts(ctx context.Context, videoName string, transcripts []transcribe.Transcript) ([]string, map[int]string, error)
	DeleteByVideoName(ctx context.Context, videoName string) (bool, error)
	ListVideoNames(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (index.CollectionStats, error)
}

// Summary reports the outcome of processing a folder of videos.
type Summary struct {
	Total        int      `json:"total"`
	Success      int      `json:"success"`
	Failed       int      `json:"failed"`
	Skipped      int      `json:"skipped"`
	Processed    []string `json:"processed_videos"`
	FailedVideos []string `json:"failed_videos"`
}

// Statistics combines metadata-store and vector-store statistics.
type Statistics struct {
	Database    storage.Stats         `json:"database"`
	VectorStore index.CollectionStats `json:"vector_store"`
}

// Processor runs the full video pipeline: audio extraction, chunked
// transcription, metadata persistence, and vector indexing.
type Processor struct {
	extractor   AudioExtractor
	transcriber Transcriber
	videos      storage.VideoStore
	chunks      storage.ChunkStore
	index       Index
	inputDir    string
	finishedDir string
	exts        []string
}

// NewProcessor creates a Processor. exts are the recognized video file
// extensions including the leading dot.
func NewProcessor(
	extractor AudioExtractor,
	transcriber Transcriber,
	videos storage.VideoStore,
	chunks storage.ChunkStore,
	idx Index,
	inputDir, finishedDir string,
	exts []string,
) *Processor {
	return &Processor{
		extractor:   extractor,
		transcriber: transcriber,
		videos:      videos,
		chunks:      chunks,
		index:       idx,
		inputDir:    inputDir,
		finishedDir: finishedDir,
		exts:        exts,
	}
}

// ProcessVideo runs the pipeline for a single video file and reports success.
// A video already present in both stores is skipped, which counts as success.
// Scratch audio is cleaned up whether or not the run succeeds.
func (p *Processor) ProcessVideo(ctx context.Context, videoPath string) bool {
	logger := contextutil.LoggerFromContext(ctx)

	videoName := filepath.Base(videoPath)

	indexed, err := p.isFullyIndexed(ctx, videoName)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check video state", "video", videoName, "error", err)
		return false
	}
	if indexed {
		logger.InfoContext(ctx, "skipping already processed video", "video", videoName)
		return true
	}

	if err := p.processVideo(ctx, videoPath, videoName); err != nil {
		logger.ErrorContext(ctx, "failed to process video", "video", videoName, "error", err)
		p.extractor.CleanupAll(ctx)
		return false
	}

	p.extractor.CleanupAll(ctx)
	return true
}

func (p *Processor) processVideo(ctx context.Context, videoPath, videoName string) error {
	logger := contextutil.LoggerFromContext(ctx)

	audioPath, err := p.extractor.ExtractAudio(ctx, videoPath)
	if err != nil {
		return err
	}

	audioChunks, err := p.extractor.SplitAudio(ctx, audioPath)
	if err != nil {
		return err
	}
	if len(audioChunks) == 0 {
		return fmt.Errorf("no audio chunks created for %s", videoName)
	}

	transcripts, err := p.transcriber.TranscribeAll(ctx, audioChunks)
	if err != nil {
		return err
	}
	if len(transcripts) == 0 {
		return fmt.Errorf("no transcriptions generated for %s", videoName)
	}

	totalDuration := audioChunks[len(audioChunks)-1].End

	exists, err := p.videos.Exists(ctx, videoName)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := p.videos.Insert(ctx, &storage.VideoRecord{
			VideoName:     videoName,
			OriginalPath:  videoPath,
			TotalChunks:   len(transcripts),
			TotalDuration: totalDuration,
		}); err != nil {
			return err
		}
	}

	// Chunk rows left behind by a run that failed before the vectors were
	// written would collide with the unique (video_name, chunk_index) index,
	// so clear them out before re-inserting.
	if err := p.chunks.DeleteByVideo(ctx, videoName); err != nil {
		return err
	}

	// Metadata rows first, vectors second. The vector_id column is filled in
	// afterwards once point IDs are known.
	chunkRowIDs := make(map[int]int64, len(transcripts))
	for _, t := range transcripts {
		rowID, err := p.chunks.Insert(ctx, &storage.ChunkRecord{
			VideoName:      videoName,
			ChunkIndex:     t.ChunkIndex,
			StartTime:      t.StartTime,
			EndTime:        t.EndTime,
			StartFormatted: t.StartFormatted,
			EndFormatted:   t.EndFormatted,
			Text:           t.Text,
		})
		if err != nil {
			return fmt.Errorf("chunk %d: %w", t.ChunkIndex, err)
		}
		chunkRowIDs[t.ChunkIndex] = rowID
	}

	ids, firstIDs, err := p.index.AddTranscripts(ctx, videoName, transcripts)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		logger.ErrorContext(ctx, "no embeddings created", "video", videoName)
	}

	for chunkIndex, vectorID := range firstIDs {
		rowID, ok := chunkRowIDs[chunkIndex]
		if !ok {
			continue
		}
		if err := p.chunks.UpdateVectorID(ctx, rowID, vectorID); err != nil {
			logger.WarnContext(ctx, "failed to link chunk to vector", "video", videoName, "chunk", chunkIndex, "error", err)
		}
	}

	finishedPath, err := p.moveToFinished(videoPath, videoName)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "video processed",
		"video", videoName,
		"chunks", len(transcripts),
		"duration", totalDuration,
		"moved_to", finishedPath,
	)
	return nil
}

// ProcessFolder processes every supported video in the folder (the configured
// input dir when folder is empty). Videos already present in both stores are
// skipped; failures of individual videos do not stop the run.
func (p *Processor) ProcessFolder(ctx context.Context, folder string) (Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if folder == "" {
		folder = p.inputDir
	}

	var paths []string
	for _, ext := range p.exts {
		matches, err := filepath.Glob(filepath.Join(folder, "*"+ext))
		if err != nil {
			return Summary{}, fmt.Errorf("failed to scan folder %s: %w", folder, err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	summary := Summary{
		Total:        len(paths),
		Processed:    []string{},
		FailedVideos: []string{},
	}
	if len(paths) == 0 {
		logger.InfoContext(ctx, "no videos found", "folder", folder)
		return summary, nil
	}

	logger.InfoContext(ctx, "processing folder", "folder", folder, "videos", len(paths))

	for _, videoPath := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		videoName := filepath.Base(videoPath)
		indexed, err := p.isFullyIndexed(ctx, videoName)
		if err != nil {
			logger.ErrorContext(ctx, "failed to check video state", "video", videoName, "error", err)
			summary.Failed++
			summary.FailedVideos = append(summary.FailedVideos, videoName)
			continue
		}
		if indexed {
			logger.InfoContext(ctx, "skipping already processed video", "video", videoName)
			summary.Skipped++
			continue
		}

		if p.ProcessVideo(ctx, videoPath) {
			summary.Success++
			summary.Processed = append(summary.Processed, videoName)
		} else {
			summary.Failed++
			summary.FailedVideos = append(summary.FailedVideos, videoName)
		}
	}

	logger.InfoContext(ctx, "folder processing completed",
		"total", summary.Total,
		"success", summary.Success,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// DeleteVideo removes a video from both stores. Returns ErrVideoNotFound when
// neither store knows the video, and ErrPartialDelete when one store dropped
// it but the other failed.
func (p *Processor) DeleteVideo(ctx context.Context, videoName string) error {
	deletedDB, dbErr := p.videos.Delete(ctx, videoName)
	deletedVS, vsErr := p.index.DeleteByVideoName(ctx, videoName)

	failure := dbErr
	if failure == nil {
		failure = vsErr
	}
	if failure != nil {
		if deletedDB || deletedVS {
			return fmt.Errorf("%w: %s", ErrPartialDelete, failure)
		}
		return failure
	}

	if !deletedDB && !deletedVS {
		return fmt.Errorf("%w: %s", ErrVideoNotFound, videoName)
	}
	return nil
}

// Statistics returns combined metadata-store and vector-store statistics.
func (p *Processor) Statistics(ctx context.Context) (Statistics, error) {
	dbStats, err := p.videos.Stats(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to get database stats: %w", err)
	}

	vsStats, err := p.index.Stats(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to get vector store stats: %w", err)
	}

	return Statistics{Database: dbStats, VectorStore: vsStats}, nil
}

// isFullyIndexed reports whether the video is present in both the metadata
// store and the vector store. A video in only one store is reprocessed so the
// stores converge.
func (p *Processor) isFullyIndexed(ctx context.Context, videoName string) (bool, error) {
	exists, err := p.videos.Exists(ctx, videoName)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	names, err := p.index.ListVideoNames(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, videoName), nil
}

// moveToFinished moves a processed video into the finished directory. Name
// collisions get a numeric suffix: video.mp4, video_1.mp4, video_2.mp4, ...
func (p *Processor) moveToFinished(videoPath, videoName string) (string, error) {
	target := filepath.Join(p.finishedDir, videoName)

	ext := filepath.Ext(videoName)
	base := strings.TrimSuffix(videoName, ext)
	for counter := 1; fileExists(target); counter++ {
		target = filepath.Join(p.finishedDir, fmt.Sprintf("%s_%d%s", base, counter, ext))
	}

	if err := moveFile(videoPath, target); err != nil {
		return "", fmt.Errorf("failed to move video to finished dir: %w", err)
	}
	return target, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// moveFile renames src to dst, falling back to copy-and-remove when the two
// paths are on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
