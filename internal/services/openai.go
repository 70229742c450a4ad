package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"echelon-backend/internal/models"
)

type OpenAICompleter struct {
	client *openai.Client
	opts   CompletionOptions
}

// NewOpenAICompleter builds a completer for the chat completions API.
// baseURL is optional and points the client at a compatible endpoint.
func NewOpenAICompleter(apiKey, baseURL string, opts CompletionOptions) *OpenAICompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(cfg), opts: opts}
}

func (c *OpenAICompleter) Name() string { return "openai" }

func (c *OpenAICompleter) Complete(ctx context.Context, prompt []models.ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt))
	for _, m := range prompt {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Status: http.StatusBadGateway}
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", &UpstreamError{Status: http.StatusBadGateway}
	}
	return text, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: upstreamStatus(apiErr.HTTPStatusCode), Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Status: upstreamStatus(reqErr.HTTPStatusCode)}
	}
	return fmt.Errorf("openai request failed: %w", err)
}

func upstreamStatus(code int) int {
	if code < 400 {
		return http.StatusBadGateway
	}
	return code
}
