package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"echelon-backend/internal/models"
)

type GeminiCompleter struct {
	client *genai.Client
	opts   CompletionOptions
}

func NewGeminiCompleter(ctx context.Context, apiKey string, opts CompletionOptions) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, opts: opts}, nil
}

func (c *GeminiCompleter) Close() {
	c.client.Close()
}

func (c *GeminiCompleter) Name() string { return "gemini" }

func (c *GeminiCompleter) Complete(ctx context.Context, prompt []models.ChatMessage) (string, error) {
	system, history, last := splitGeminiPrompt(prompt)

	model := c.client.GenerativeModel(c.opts.Model)
	model.SetTemperature(c.opts.Temperature)
	model.SetMaxOutputTokens(int32(c.opts.MaxTokens))
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", &UpstreamError{Status: upstreamStatus(gerr.Code), Message: gerr.Message}
		}
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", &UpstreamError{Status: http.StatusBadGateway, Message: blocked.Error()}
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &UpstreamError{Status: http.StatusBadGateway}
	}
	return text, nil
}

// splitGeminiPrompt separates the system instruction and the final user turn
// from the history Gemini expects, mapping "assistant" to Gemini's "model" role.
// Consecutive turns with the same role are folded into one, since Gemini
// requires roles to alternate; a repeated identical turn is dropped.
func splitGeminiPrompt(prompt []models.ChatMessage) (string, []*genai.Content, string) {
	var system string
	var turns []models.ChatMessage
	for _, m := range prompt {
		if m.Role == models.RoleSystem {
			system = m.Content
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].Role == m.Role {
			if turns[n-1].Content != m.Content {
				turns[n-1].Content += "\n\n" + m.Content
			}
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 {
		return system, nil, ""
	}

	last := turns[len(turns)-1].Content
	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return system, history, last
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
