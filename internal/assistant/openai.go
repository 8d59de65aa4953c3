package assistant

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIGenerator struct {
	client *openai.Client
}

func NewOpenAIGenerator(apiKey string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return &OpenAIGenerator{client: openai.NewClient(apiKey)}, nil
}

// Generate sends the prompt as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) Close() error {
	return nil
}
