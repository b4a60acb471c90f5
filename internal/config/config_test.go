package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	envVars := []string{
		"OPENAI_API_KEY", "EMBEDDING_MODEL", "LLM_MODEL",
		"VIDEOS_INPUT_PATH", "VIDEOS_FINISHED_PATH", "METADATA_DB_PATH",
		"QDRANT_URL", "QDRANT_COLLECTION", "QDRANT_VECTOR_SIZE",
		"CHUNK_LENGTH_SECONDS", "TOP_K_RESULTS", "CHUNK_SIZE", "CHUNK_OVERLAP",
		"MAX_HISTORY_MESSAGES", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	// Point all directories at a temp root so Load's MkdirAll never touches cwd
	setDirs := func(t *testing.T) {
		root := t.TempDir()
		setEnv("VIDEOS_INPUT_PATH", filepath.Join(root, "input"))
		setEnv("VIDEOS_FINISHED_PATH", filepath.Join(root, "finished"))
		setEnv("METADATA_DB_PATH", filepath.Join(root, "db", "videorag.db"))
	}

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "valid config with defaults",
			setupEnv: func(t *testing.T) {
				setDirs(t)
				setEnv("OPENAI_API_KEY", "sk-test")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.OpenAIAPIKey == "sk-test" &&
					cfg.ChunkLengthSeconds == 600 &&
					cfg.TopKResults == 5 &&
					cfg.SubChunkSize == 1000 &&
					cfg.SubChunkOverlap == 200 &&
					cfg.QdrantVectorSize == 1536 &&
					len(cfg.SupportedVideoExts) == 6
			},
		},
		{
			name: "missing OPENAI_API_KEY",
			setupEnv: func(t *testing.T) {
				setDirs(t)
			},
			wantErr: true,
		},
		{
			name: "invalid CHUNK_LENGTH_SECONDS",
			setupEnv: func(t *testing.T) {
				setDirs(t)
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("CHUNK_LENGTH_SECONDS", "not-a-number")
			},
			wantErr: true,
		},
		{
			name: "zero CHUNK_LENGTH_SECONDS",
			setupEnv: func(t *testing.T) {
				setDirs(t)
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("CHUNK_LENGTH_SECONDS", "0")
			},
			wantErr: true,
		},
		{
			name: "overlap larger than sub-chunk size",
			setupEnv: func(t *testing.T) {
				setDirs(t)
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("CHUNK_SIZE", "100")
				setEnv("CHUNK_OVERLAP", "100")
			},
			wantErr: true,
		},
		{
			name: "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) {
				setDirs(t)
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("LOG_LEVEL", "loud")
			},
			wantErr: true,
		},
		{
			name: "custom overrides",
			setupEnv: func(t *testing.T) {
				setDirs(t)
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("CHUNK_LENGTH_SECONDS", "300")
				setEnv("TOP_K_RESULTS", "8")
				setEnv("LOG_LEVEL", "debug")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.ChunkLengthSeconds == 300 &&
					cfg.TopKResults == 8 &&
					cfg.LogLevel == slog.LevelDebug
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envVars {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesDirectories(t *testing.T) {
	root := t.TempDir()
	setEnv("OPENAI_API_KEY", "sk-test")
	setEnv("VIDEOS_INPUT_PATH", filepath.Join(root, "in"))
	setEnv("VIDEOS_FINISHED_PATH", filepath.Join(root, "done"))
	setEnv("METADATA_DB_PATH", filepath.Join(root, "db", "meta.db"))
	defer func() {
		for _, key := range []string{"OPENAI_API_KEY", "VIDEOS_INPUT_PATH", "VIDEOS_FINISHED_PATH", "METADATA_DB_PATH"} {
			unsetEnv(key)
		}
	}()

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, dir := range []string{filepath.Join(root, "in"), filepath.Join(root, "done"), filepath.Join(root, "db")} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected directory %s to exist: %v", dir, err)
		}
	}
}
