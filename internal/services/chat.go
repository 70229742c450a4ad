package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"echelon-backend/internal/config"
	"echelon-backend/internal/logger"
	"echelon-backend/internal/metrics"
	"echelon-backend/internal/models"
)

// ChatService is the message proxy: it validates a chat request, frames it
// with the mode's system prompt and forwards it to the completion API.
// It persists nothing.
type ChatService struct {
	completer Completer
	missing   []string
}

// NewChatService returns a service backed by completer. A nil completer
// leaves the service unconfigured: every call fails with a ConfigurationError
// naming the missing keys.
func NewChatService(completer Completer, missing []string) *ChatService {
	return &ChatService{completer: completer, missing: missing}
}

func (s *ChatService) Reply(ctx context.Context, req models.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}
	if fields := validateHistory(req.ConversationHistory); len(fields) > 0 {
		return "", &ValidationError{Fields: fields}
	}

	if s.completer == nil {
		return "", &ConfigurationError{Feature: config.FeatureChat, Missing: s.missing}
	}

	prompt := BuildPrompt(req.Mode, req.ConversationHistory, req.Message)

	start := time.Now()
	text, err := s.completer.Complete(ctx, prompt)
	metrics.ObserveUpstream(s.completer.Name(), time.Since(start))
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("provider", s.completer.Name()).
			Str("mode", ResolveMode(req.Mode)).
			Msg("completion request failed")
		return "", err
	}

	return text, nil
}

func validateHistory(history []models.ChatMessage) map[string]string {
	fields := make(map[string]string)
	for i, m := range history {
		if !m.Role.Valid() {
			fields[historyField(i, "role")] = "Role must be user or assistant"
		}
	}
	return fields
}

func historyField(i int, name string) string {
	return "conversationHistory[" + strconv.Itoa(i) + "]." + name
}
