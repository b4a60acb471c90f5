package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingsClient generates text embeddings via the OpenAI embeddings API.
type EmbeddingsClient struct {
	client       *openai.Client
	model        openai.EmbeddingModel
	expectedSize int
	retry        RetryPolicy
}

// NewEmbeddingsClient creates a new embeddings client. expectedSize is the
// vector size the Qdrant collection was created with; every returned embedding
// is validated against it.
func NewEmbeddingsClient(client *openai.Client, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		client:       client,
		model:        openai.EmbeddingModel(model),
		expectedSize: expectedSize,
		retry:        DefaultRetryPolicy,
	}
}

// EmbedTexts generates embeddings for the given texts, one vector per input.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	var resp openai.EmbeddingResponse
	err := c.retry.Do(ctx, "create embeddings", func() error {
		var err error
		resp, err = c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: c.model,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	result := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) != c.expectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), c.expectedSize)
		}
		result[i] = data.Embedding
	}

	return result, nil
}
