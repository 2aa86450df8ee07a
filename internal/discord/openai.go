package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const recapSystemPrompt = "You are a tournament caster for a Clash Royale community. " +
	"Write a short, upbeat recap in two or three sentences. Do not use markdown headings."

func NewOpenAIClient(apiKey, model string, maxTokens int, temperature float64) *OpenAIClient {
	return newOpenAIClient(openai.DefaultConfig(apiKey), model, maxTokens, temperature)
}

func newOpenAIClient(cfg openai.ClientConfig, model string, maxTokens int, temperature float64) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

// Recap asks the model for a short recap of the result described by prompt.
func (o *OpenAIClient) Recap(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: recapSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   o.maxTokens,
			Temperature: o.temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("ChatCompletion error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
