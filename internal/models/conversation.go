package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r may appear in a stored conversation.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one entry of a conversation. Messages are append-only.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // RFC 3339
}

type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type UpdateMessagesRequest struct {
	Messages []Message `json:"messages"`
}

// DefaultConversationTitle mirrors the dashboard's "Conversation 1/2/2006" label.
func DefaultConversationTitle(now time.Time) string {
	return "Conversation " + now.Format("1/2/2006")
}
