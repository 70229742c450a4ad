package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"echelon-backend/internal/middleware"
	"echelon-backend/internal/models"
	"echelon-backend/internal/services"
)

type conversationRepository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Conversation, error)
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error)
	Create(ctx context.Context, c *models.Conversation) error
	UpdateMessages(ctx context.Context, id, ownerID uuid.UUID, messages []models.Message) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type eventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

type ConversationHandler struct {
	repo   conversationRepository
	events eventPublisher
	now    func() time.Time
}

func NewConversationHandler(repo conversationRepository, events eventPublisher) *ConversationHandler {
	return &ConversationHandler{repo: repo, events: events, now: time.Now}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	conversations, err := h.repo.ListByOwner(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": conversations})
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateConversationRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = models.DefaultConversationTitle(h.now())
	}

	c := &models.Conversation{UserID: userID, Title: title, Messages: []models.Message{}}
	if err := h.repo.Create(r.Context(), c); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.publish(r.Context(), userID, models.EventConversationUpdated, c.ID, 0)
	writeJSON(w, http.StatusCreated, c)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid conversation ID", r))
		return
	}

	c, err := h.repo.GetByID(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// UpdateMessages overwrites the conversation's message array with the body's.
func (h *ConversationHandler) UpdateMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid conversation ID", r))
		return
	}

	var req models.UpdateMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Messages == nil {
		req.Messages = []models.Message{}
	}
	if fields := validateMessages(req.Messages); len(fields) > 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	if err := h.repo.UpdateMessages(r.Context(), id, userID, req.Messages); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.publish(r.Context(), userID, models.EventConversationUpdated, id, len(req.Messages))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":            id,
		"message_count": len(req.Messages),
	})
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid conversation ID", r))
		return
	}

	if err := h.repo.Delete(r.Context(), id, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.publish(r.Context(), userID, models.EventConversationDeleted, id, 0)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted"})
}

func (h *ConversationHandler) publish(ctx context.Context, userID uuid.UUID, eventType string, id uuid.UUID, count int) {
	if h.events == nil {
		return
	}
	h.events.Publish(ctx, userID, models.WSMessage{
		Type:    eventType,
		Payload: models.ConversationEvent{ConversationID: id, MessageCount: count},
	})
}

// validateMessages checks every message has an id unique within the array,
// a user or assistant role, and an RFC 3339 timestamp.
func validateMessages(messages []models.Message) map[string]string {
	fields := make(map[string]string)
	seen := make(map[string]bool, len(messages))
	for i, m := range messages {
		prefix := "messages[" + strconv.Itoa(i) + "]."
		switch {
		case m.ID == "":
			fields[prefix+"id"] = "Message id is required"
		case seen[m.ID]:
			fields[prefix+"id"] = "Message id must be unique within the conversation"
		}
		seen[m.ID] = true
		if !m.Role.Valid() {
			fields[prefix+"role"] = "Role must be user or assistant"
		}
		if _, err := time.Parse(time.RFC3339, m.Timestamp); err != nil {
			fields[prefix+"timestamp"] = "Timestamp must be RFC 3339"
		}
	}
	return fields
}
