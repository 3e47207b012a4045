package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// streamTemperature keeps note generation focused without becoming repetitive.
const streamTemperature = 0.4

// OpenAIFactory builds OpenAI-backed capability clients.
type OpenAIFactory struct{}

// NewOpenAIFactory creates a new OpenAI client factory
func NewOpenAIFactory() Factory {
	return &OpenAIFactory{}
}

// NewClient constructs a client bound to one key and model.
func (f *OpenAIFactory) NewClient(apiKey, model string) Client {
	return &openAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

type openAIClient struct {
	client *openai.Client
	model  string
}

// StructuredComplete issues one schema-constrained completion
func (c *openAIClient) StructuredComplete(ctx context.Context, req *StructuredRequest, out interface{}) error {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("structured completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("structured completion: provider returned no choices")
	}

	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("decode structured response: %w", err)
	}

	return nil
}

// StreamComplete issues one streaming completion and forwards text tokens
func (c *openAIClient) StreamComplete(ctx context.Context, messages []Message, onToken func(string)) error {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: streamTemperature,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("open completion stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive stream chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if token := resp.Choices[0].Delta.Content; token != "" {
			onToken(token)
		}
	}
}

// VerifyKey lists models, the cheapest authenticated call the provider offers
func (c *openAIClient) VerifyKey(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("verify key: %w", err)
	}
	return nil
}
