package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventConversationUpdated = "conversation_updated"
	EventConversationDeleted = "conversation_deleted"
)

type ConversationEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageCount   int       `json:"message_count"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// UserUpdatesChannel is the Redis pub/sub channel carrying a user's live events.
func UserUpdatesChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}
