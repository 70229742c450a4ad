package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"echelon-backend/internal/logger"
	"echelon-backend/internal/metrics"
	"echelon-backend/internal/middleware"
	"echelon-backend/internal/models"
	"echelon-backend/internal/services"
)

type chatService interface {
	Reply(ctx context.Context, req models.ChatRequest) (string, error)
}

// ChatHandler is the message proxy endpoint. Its wire contract is
// {"response": "..."} on success and {"error": "..."} with a non-2xx status
// on failure.
type ChatHandler struct {
	chat chatService
}

func NewChatHandler(chat chatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	mode := services.DefaultMode
	defer func() {
		if rec := recover(); rec != nil {
			logger.FromContext(r.Context()).Error().Interface("panic", rec).Msg("chat handler panicked")
			metrics.RecordChat(mode, metrics.OutcomeInternalError)
			writeChatError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
	}()

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordChat(mode, metrics.OutcomeInvalid)
		writeChatError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	mode = services.ResolveMode(req.Mode)

	reply, err := h.chat.Reply(r.Context(), req)
	if err != nil {
		var (
			validationErr *services.ValidationError
			configErr     *services.ConfigurationError
			upstreamErr   *services.UpstreamError
		)
		switch {
		case errors.As(err, &validationErr):
			metrics.RecordChat(mode, metrics.OutcomeInvalid)
			msg := "Invalid conversation history"
			if _, ok := validationErr.Fields["message"]; ok {
				msg = "Message is required"
			}
			writeChatError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		case errors.As(err, &configErr):
			metrics.RecordChat(mode, metrics.OutcomeUnconfigured)
			writeChatError(w, r, http.StatusServiceUnavailable, "CONFIGURATION_ERROR", "AI chat is not configured")
		case errors.As(err, &upstreamErr):
			metrics.RecordChat(mode, metrics.OutcomeUpstreamError)
			writeChatError(w, r, upstreamErr.Status, "UPSTREAM_ERROR", upstreamMessage(upstreamErr))
		default:
			metrics.RecordChat(mode, metrics.OutcomeInternalError)
			writeChatError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	metrics.RecordChat(mode, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

func writeChatError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, models.ChatResponse{
		Error:     message,
		Code:      code,
		RequestID: r.Header.Get(middleware.RequestIDHeader),
	})
}

// RejectChat answers rate-limited chat requests in the endpoint's own error shape.
func RejectChat(w http.ResponseWriter, r *http.Request) {
	metrics.RecordChat(services.DefaultMode, metrics.OutcomeRateLimited)
	writeChatError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
}
