package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat message roles.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Client is a chat-completion client for the generation model.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	retry       RetryPolicy
}

// NewClient creates a new chat-completion client.
func NewClient(client *openai.Client, model string) *Client {
	return &Client{
		client:      client,
		model:       model,
		temperature: 0.7,
		retry:       DefaultRetryPolicy,
	}
}

// ChatWithMessages sends a full message list to the generation model and
// returns the assistant reply.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	var resp openai.ChatCompletionResponse
	err := c.retry.Do(ctx, "chat completion", func() error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    chatMessages,
			Temperature: c.temperature,
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to get chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}
