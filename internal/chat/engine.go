package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"videorag/internal/contextutil"
	"videorag/internal/index"
	"videorag/internal/llm"
)

const systemPromptTemplate = `You are a helpful AI assistant that answers questions based on video transcripts.

IMPORTANT INSTRUCTIONS:
1. Answer ONLY based on the provided context
2. If the answer is not in the context, say "I don't have information about that in the videos."
3. ALWAYS cite your sources by mentioning:
   - The video name
   - The timestamp (when that information appears)
4. Be conversational and helpful
5. If multiple videos contain relevant information, mention all of them

Context from videos:
%s`

const filteredSystemPromptTemplate = `You are a helpful AI assistant that answers questions based on video transcripts.

Answer questions based ONLY on the video: %s

IMPORTANT INSTRUCTIONS:
1. Answer ONLY based on the provided context from this video
2. If the answer is not in the context, say "I don't have information about that in this video."
3. ALWAYS cite the timestamp when that information appears
4. Be conversational and helpful

Context from video:
%s`

// previewRunes bounds the source text preview length.
const previewRunes = 150

// Searcher retrieves the most relevant transcript sub-chunks for a question.
type Searcher interface {
	Search(ctx context.Context, query string, k int, videoName string) ([]index.Hit, error)
}

// Chatter generates an assistant reply from a message list.
type Chatter interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message) (string, error)
}

// Source cites one transcript passage that informed an answer.
type Source struct {
	VideoName   string `json:"video_name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TextPreview string `json:"text_preview"`
}

// Result is an answer with its supporting sources.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// HistoryMessage is one conversation turn as exposed to callers.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Engine answers questions over the transcript corpus, carrying a bounded
// conversation history so follow-up questions resolve pronouns and references.
// Safe for concurrent use.
type Engine struct {
	searcher   Searcher
	llm        Chatter
	topK       int
	maxHistory int

	mu      sync.Mutex
	history []llm.Message
}

// NewEngine creates a chat engine. topK is the retrieval depth per question;
// maxHistory caps the number of retained conversation messages.
func NewEngine(searcher Searcher, chatter Chatter, topK, maxHistory int) *Engine {
	if topK <= 0 {
		topK = 5
	}
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &Engine{
		searcher:   searcher,
		llm:        chatter,
		topK:       topK,
		maxHistory: maxHistory,
	}
}

// Ask answers a question using the whole corpus. Retrieval or generation
// failures are reported in the answer text with no sources, so a chat session
// survives transient backend errors.
func (e *Engine) Ask(ctx context.Context, question string) Result {
	return e.ask(ctx, question, "")
}

// AskWithVideoFilter answers a question using only the named video.
func (e *Engine) AskWithVideoFilter(ctx context.Context, question, videoName string) Result {
	return e.ask(ctx, question, videoName)
}

func (e *Engine) ask(ctx context.Context, question, videoName string) Result {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "chat question", "question", question, "video_filter", videoName)

	hits, err := e.searcher.Search(ctx, question, e.topK, videoName)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return errorResult(err)
	}

	system := fmt.Sprintf(systemPromptTemplate, formatContext(hits))
	if videoName != "" {
		system = fmt.Sprintf(filteredSystemPromptTemplate, videoName, formatContext(hits))
	}

	history := e.snapshotHistory()
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	answer, err := e.llm.ChatWithMessages(ctx, messages)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		return errorResult(err)
	}

	e.remember(question, answer)

	sources := make([]Source, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, sourceFromHit(hit))
	}

	logger.InfoContext(ctx, "chat answered", "sources", len(sources), "answer_length", len(answer))
	return Result{Answer: answer, Sources: sources}
}

// ClearHistory drops the conversation history. Use when switching topics.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}

// History returns the conversation so far, oldest first.
func (e *Engine) History() []HistoryMessage {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]HistoryMessage, 0, len(e.history))
	for _, m := range e.history {
		role := "ai"
		if m.Role == llm.RoleUser {
			role = "human"
		}
		out = append(out, HistoryMessage{Role: role, Content: m.Content})
	}
	return out
}

// remember appends a question/answer pair and trims the history to the
// configured bound, dropping the oldest messages first.
func (e *Engine) remember(question, answer string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history,
		llm.Message{Role: llm.RoleUser, Content: question},
		llm.Message{Role: llm.RoleAssistant, Content: answer},
	)
	if len(e.history) > e.maxHistory {
		e.history = e.history[len(e.history)-e.maxHistory:]
	}
}

func (e *Engine) snapshotHistory() []llm.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]llm.Message(nil), e.history...)
}

func errorResult(err error) Result {
	return Result{
		Answer:  fmt.Sprintf("Sorry, I encountered an error: %s", err),
		Sources: []Source{},
	}
}

// formatContext renders retrieved sub-chunks as numbered source blocks for
// the system prompt.
func formatContext(hits []index.Hit) string {
	blocks := make([]string, 0, len(hits))
	for i, hit := range hits {
		blocks = append(blocks, fmt.Sprintf(
			"[Source %d]\nVideo: %s\nTime: %s - %s\nContent: %s\n",
			i+1, orDefault(hit.VideoName, "Unknown"),
			orDefault(hit.StartFormatted, "N/A"), orDefault(hit.EndFormatted, "N/A"),
			hit.Text,
		))
	}
	return strings.Join(blocks, "\n")
}

func sourceFromHit(hit index.Hit) Source {
	preview := hit.Text
	if runes := []rune(preview); len(runes) > previewRunes {
		preview = string(runes[:previewRunes]) + "..."
	}
	return Source{
		VideoName:   orDefault(hit.VideoName, "Unknown"),
		StartTime:   orDefault(hit.StartFormatted, "N/A"),
		EndTime:     orDefault(hit.EndFormatted, "N/A"),
		TextPreview: preview,
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// FormatResult renders an answer with its sources for terminal display.
func FormatResult(result Result) string {
	var b strings.Builder
	b.WriteString(result.Answer)
	b.WriteString("\n")

	if len(result.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", 60))
		b.WriteString("\nSources:\n\n")
		for i, s := range result.Sources {
			fmt.Fprintf(&b, "%d. Video: %s\n", i+1, s.VideoName)
			fmt.Fprintf(&b, "   Time: %s - %s\n", s.StartTime, s.EndTime)
			fmt.Fprintf(&b, "   Context: %s\n\n", s.TextPreview)
		}
	}
	return b.String()
}
