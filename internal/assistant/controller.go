// Package assistant drives a conversation session: it loads the caller's
// conversations, sends messages through the chat proxy and persists the
// resulting transcript.
package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"echelon-backend/internal/models"
	"echelon-backend/internal/services"
)

const (
	// EmptyReplyText stands in for a proxy response that carried no text.
	EmptyReplyText = "Something went wrong."
	// FailedRequestText stands in for a reply when the proxy could not be reached.
	FailedRequestText = "Failed to process request."
)

var quickPrompts = []string{
	"Plan my day",
	"Generate task ideas",
	"Motivate me",
	"Analyze my habits",
	"Help set goals",
}

// QuickPrompts returns the canned prompts offered to start a conversation.
func QuickPrompts() []string {
	return append([]string(nil), quickPrompts...)
}

// ChatClient calls the message proxy. It returns an error only when no
// proxy response could be read; a structured proxy error comes back as a
// response with Error set.
type ChatClient interface {
	Send(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

type ConversationStore interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Conversation, error)
	Create(ctx context.Context, c *models.Conversation) error
	UpdateMessages(ctx context.Context, id, ownerID uuid.UUID, messages []models.Message) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

// Session resolves the signed-in principal; nil means unauthenticated.
type Session interface {
	CurrentPrincipal(ctx context.Context) (*models.Principal, error)
}

type Controller struct {
	chat    ChatClient
	store   ConversationStore
	session Session
	log     zerolog.Logger

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	state    Snapshot
	onChange func(Snapshot)
}

func NewController(chat ChatClient, store ConversationStore, session Session, log zerolog.Logger) *Controller {
	return &Controller{
		chat:    chat,
		store:   store,
		session: session,
		log:     log,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
		state: Snapshot{
			Status:        StatusLoading,
			Conversations: []*models.Conversation{},
			Messages:      []models.Message{},
			Mode:          services.DefaultMode,
		},
	}
}

// OnChange registers fn to receive every new snapshot. fn runs with the
// controller locked and must not call back into it.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) dispatch(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(a)
}

func (c *Controller) dispatchLocked(a Action) {
	c.state = Reduce(c.state, a)
	if c.onChange != nil {
		c.onChange(c.state.clone())
	}
}

// Load resolves the principal and fetches its conversations, newest first.
// The most recent one becomes active.
func (c *Controller) Load(ctx context.Context) {
	c.dispatch(StatusChanged{Status: StatusLoading})
	defer c.dispatch(StatusChanged{Status: StatusIdle})

	principal, err := c.session.CurrentPrincipal(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to resolve session")
		principal = nil
	}
	if principal == nil {
		c.dispatch(Loaded{})
		return
	}

	conversations, err := c.store.ListByOwner(ctx, principal.ID)
	if err != nil {
		c.log.Error().Err(err).Str("user_id", principal.ID.String()).Msg("failed to list conversations")
		conversations = nil
	}
	c.dispatch(Loaded{Principal: principal, Conversations: conversations})
}

// SendMessage appends text to the active conversation, asks the proxy for a
// reply and persists the resulting transcript. Blank text, no active
// conversation or no principal make it a no-op.
//
// The history sent and persisted is the working set captured when the call
// starts. Overlapping sends on one conversation therefore race and the last
// one to resolve overwrites the others.
func (c *Controller) SendMessage(ctx context.Context, text string) {
	c.mu.Lock()
	s := c.state
	if strings.TrimSpace(text) == "" || s.ActiveID == uuid.Nil || s.Principal == nil {
		c.mu.Unlock()
		return
	}

	convID := s.ActiveID
	ownerID := s.Principal.ID
	mode := s.Mode
	captured := append(cloneMessages(s.Messages), c.message(models.RoleUser, text))

	c.dispatchLocked(MessagesReplaced{ConversationID: convID, Messages: captured})
	c.dispatchLocked(StatusChanged{Status: StatusSending})
	c.mu.Unlock()

	defer c.dispatch(StatusChanged{Status: StatusIdle})

	history := make([]models.ChatMessage, len(captured))
	for i, m := range captured {
		history[i] = models.ChatMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.chat.Send(ctx, models.ChatRequest{
		Message:             text,
		Mode:                mode,
		ConversationHistory: history,
	})
	if err != nil {
		c.log.Warn().Err(err).Str("conversation_id", convID.String()).Msg("chat request failed")
		failed := append(cloneMessages(captured), c.message(models.RoleAssistant, FailedRequestText))
		c.dispatch(MessagesReplaced{ConversationID: convID, Messages: failed})
		return
	}

	reply := resp.Response
	if reply == "" {
		reply = EmptyReplyText
	}
	final := append(cloneMessages(captured), c.message(models.RoleAssistant, reply))
	c.dispatch(MessagesReplaced{ConversationID: convID, Messages: final})

	if err := c.store.UpdateMessages(ctx, convID, ownerID, final); err != nil {
		c.log.Error().Err(err).Str("conversation_id", convID.String()).Msg("failed to persist messages")
	}
}

// CreateConversation starts an empty conversation titled with today's date
// and makes it active. Without a principal it does nothing.
func (c *Controller) CreateConversation(ctx context.Context) {
	principal := c.Snapshot().Principal
	if principal == nil {
		return
	}

	conv := &models.Conversation{
		UserID:   principal.ID,
		Title:    models.DefaultConversationTitle(c.now()),
		Messages: []models.Message{},
	}
	if err := c.store.Create(ctx, conv); err != nil {
		c.log.Error().Err(err).Msg("failed to create conversation")
		return
	}
	c.dispatch(ConversationCreated{Conversation: conv})
}

// DeleteConversation removes a conversation and activates the first one left.
// A store failure is logged and the conversation is still dropped locally.
func (c *Controller) DeleteConversation(ctx context.Context, id uuid.UUID) {
	principal := c.Snapshot().Principal
	if principal == nil {
		return
	}

	if err := c.store.Delete(ctx, id, principal.ID); err != nil {
		c.log.Error().Err(err).Str("conversation_id", id.String()).Msg("failed to delete conversation")
	}
	c.dispatch(ConversationDeleted{ID: id})
}

func (c *Controller) SelectConversation(id uuid.UUID) {
	c.dispatch(ConversationSelected{ID: id})
}

// SetMode picks the assistant persona for later sends.
func (c *Controller) SetMode(mode string) {
	c.dispatch(ModeChanged{Mode: services.ResolveMode(mode)})
}

func (c *Controller) message(role models.Role, content string) models.Message {
	return models.Message{
		ID:        c.newID(),
		Role:      role,
		Content:   content,
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
	}
}
