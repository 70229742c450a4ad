package services

import (
	"context"

	"echelon-backend/internal/models"
)

// CompletionOptions bounds a single completion call.
type CompletionOptions struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Completer forwards a prompt list to an external completion API and
// returns the first generated completion.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt []models.ChatMessage) (string, error)
}
