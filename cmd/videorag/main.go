package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"videorag/internal/chat"
	"videorag/internal/config"
	"videorag/internal/handlers"
	"videorag/internal/http"
	"videorag/internal/index"
	"videorag/internal/llm"
	"videorag/internal/media"
	"videorag/internal/pipeline"
	"videorag/internal/storage"
	"videorag/internal/transcribe"
	"videorag/internal/vectorstore"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "videorag",
		Short:        "Transcribe videos and answer questions about them",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		processCmd(),
		askCmd(),
		deleteCmd(),
		statsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app wires the full dependency graph from configuration.
type app struct {
	cfg       *config.Config
	db        *sql.DB
	store     *vectorstore.QdrantStore
	videoRepo *storage.VideoRepo
	chunkRepo *storage.ChunkRepo
	index     *index.TranscriptIndex
	processor *pipeline.Processor
	engine    *chat.Engine
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	db, err := storage.New(cfg.MetadataDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("database initialized", "path", cfg.MetadataDBPath)

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	if err := store.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
	embedder := llm.NewEmbeddingsClient(openaiClient, cfg.EmbeddingModel, cfg.QdrantVectorSize)
	llmClient := llm.NewClient(openaiClient, cfg.LLMModel)
	transcriber := transcribe.NewClient(openaiClient)

	extractor, err := media.NewExtractor(cfg.ChunkLengthSeconds)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create audio extractor: %w", err)
	}

	videoRepo := storage.NewVideoRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	idx := index.NewTranscriptIndex(embedder, store, cfg.QdrantCollection, cfg.SubChunkSize, cfg.SubChunkOverlap)

	processor := pipeline.NewProcessor(
		extractor,
		transcriber,
		videoRepo,
		chunkRepo,
		idx,
		cfg.VideosInputDir,
		cfg.VideosFinishedDir,
		cfg.SupportedVideoExts,
	)

	engine := chat.NewEngine(idx, llmClient, cfg.TopKResults, cfg.MaxHistoryMessages)

	return &app{
		cfg:       cfg,
		db:        db,
		store:     store,
		videoRepo: videoRepo,
		chunkRepo: chunkRepo,
		index:     idx,
		processor: processor,
		engine:    engine,
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			deps := &http.Deps{
				Health:      handlers.NewHealthHandler(a.store, a.cfg.QdrantCollection),
				Ask:         handlers.NewAskHandler(a.engine),
				ChatReset:   handlers.NewChatResetHandler(a.engine),
				ChatHistory: handlers.NewChatHistoryHandler(a.engine),
				Process:     handlers.NewProcessHandler(a.processor),
				Videos:      handlers.NewVideosHandler(a.videoRepo),
				VideoChunks: handlers.NewVideoChunksHandler(a.videoRepo, a.chunkRepo),
				VideoDelete: handlers.NewVideoDeleteHandler(a.processor),
				Stats:       handlers.NewStatsHandler(a.processor),
			}
			router := http.NewRouter(deps)

			addr := ":" + a.cfg.APIPort
			server := &nethttp.Server{Addr: addr, Handler: router}

			shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-shutdownCtx.Done()
				slog.Info("shutting down")
				_ = server.Shutdown(context.Background())
			}()

			slog.Info("starting API server", "addr", addr)
			if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
				return fmt.Errorf("API server failed: %w", err)
			}
			return nil
		},
	}
}

func processCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process all videos in the input folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.processor.ProcessFolder(ctx, folder)
			if err != nil {
				return err
			}

			fmt.Printf("Total:   %d\n", summary.Total)
			fmt.Printf("Success: %d\n", summary.Success)
			fmt.Printf("Failed:  %d\n", summary.Failed)
			fmt.Printf("Skipped: %d\n", summary.Skipped)
			for _, name := range summary.Processed {
				fmt.Printf("  processed: %s\n", name)
			}
			for _, name := range summary.FailedVideos {
				fmt.Printf("  failed:    %s\n", name)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d videos failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "folder to process (defaults to the configured input dir)")
	return cmd
}

func askCmd() *cobra.Command {
	var videoName string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the processed videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var result chat.Result
			if videoName != "" {
				result = a.engine.AskWithVideoFilter(ctx, args[0], videoName)
			} else {
				result = a.engine.Ask(ctx, args[0])
			}

			fmt.Print(chat.FormatResult(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&videoName, "video", "", "restrict the answer to one video")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [video-name]",
		Short: "Delete a video from both stores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.processor.DeleteVideo(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database and vector store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.processor.Statistics(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Database:")
			fmt.Printf("  videos:         %d\n", stats.Database.TotalVideos)
			fmt.Printf("  chunks:         %d\n", stats.Database.TotalChunks)
			fmt.Printf("  duration (s):   %.1f\n", stats.Database.TotalDurationSeconds)
			fmt.Printf("  duration (h):   %.2f\n", stats.Database.TotalDurationHours)
			fmt.Println("Vector store:")
			fmt.Printf("  sub-chunks:     %d\n", stats.VectorStore.TotalChunks)
			fmt.Printf("  unique videos:  %d\n", stats.VectorStore.UniqueVideos)
			for _, name := range stats.VectorStore.VideoNames {
				fmt.Printf("    %s\n", name)
			}
			return nil
		},
	}
}
