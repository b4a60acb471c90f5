package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	OpenAIAPIKey   string
	EmbeddingModel string
	LLMModel       string

	VideosInputDir    string
	VideosFinishedDir string
	MetadataDBPath    string

	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	ChunkLengthSeconds int
	TopKResults        int
	SubChunkSize       int
	SubChunkOverlap    int

	SupportedVideoExts []string

	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	MaxHistoryMessages int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it is loaded
// automatically; environment variables already set take precedence.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		VideosInputDir:    getEnv("VIDEOS_INPUT_PATH", "./data/input"),
		VideosFinishedDir: getEnv("VIDEOS_FINISHED_PATH", "./data/finished"),
		MetadataDBPath:    getEnv("METADATA_DB_PATH", "./data/videorag.db"),
		QdrantURL:         getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:  getEnv("QDRANT_COLLECTION", "video_transcripts"),
		APIPort:           getEnv("API_PORT", "9000"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		// Containers the folder scanner picks up. Matching is by extension only;
		// ffmpeg decides whether a file actually has a readable audio stream.
		SupportedVideoExts: []string{".mp4", ".avi", ".mov", ".mkv", ".flv", ".wmv"},
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	// Note: QDRANT_VECTOR_SIZE must match the output size of EMBEDDING_MODEL.
	// text-embedding-3-small produces 1536 dimensions. If the model changes,
	// the Qdrant collection must be recreated with the new size.
	cfg.QdrantVectorSize, err = getEnvInt("QDRANT_VECTOR_SIZE", 1536)
	if err != nil {
		return nil, err
	}
	if cfg.QdrantVectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}

	cfg.ChunkLengthSeconds, err = getEnvInt("CHUNK_LENGTH_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	if cfg.ChunkLengthSeconds <= 0 {
		return nil, fmt.Errorf("CHUNK_LENGTH_SECONDS must be greater than 0")
	}

	cfg.TopKResults, err = getEnvInt("TOP_K_RESULTS", 5)
	if err != nil {
		return nil, err
	}
	if cfg.TopKResults <= 0 {
		return nil, fmt.Errorf("TOP_K_RESULTS must be greater than 0")
	}

	cfg.SubChunkSize, err = getEnvInt("CHUNK_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	if cfg.SubChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}

	cfg.SubChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 200)
	if err != nil {
		return nil, err
	}
	if cfg.SubChunkOverlap < 0 || cfg.SubChunkOverlap >= cfg.SubChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be non-negative and smaller than CHUNK_SIZE")
	}

	cfg.MaxHistoryMessages, err = getEnvInt("MAX_HISTORY_MESSAGES", 20)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	// Create working directories up front so the pipeline never hits a missing dir
	for _, dir := range []string{cfg.VideosInputDir, cfg.VideosFinishedDir, filepath.Dir(cfg.MetadataDBPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

// parseLogLevel converts a level name to a slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", s)
	}
}
