package models

// ChatMessage is one history entry forwarded to the completion API.
type ChatMessage struct {
	Role    Role   `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload accepted by the message proxy endpoint.
type ChatRequest struct {
	Message             string        `json:"message"`
	Mode                string        `json:"mode,omitempty"`
	ConversationHistory []ChatMessage `json:"conversationHistory,omitempty"`
}

// ChatResponse carries either the generated text or an error string.
type ChatResponse struct {
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
