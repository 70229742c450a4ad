package assistant

import (
	"github.com/google/uuid"

	"echelon-backend/internal/models"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
)

// Snapshot is the controller's view state. Snapshots handed out by the
// controller are copies and safe to keep.
type Snapshot struct {
	Status        Status
	Principal     *models.Principal
	Conversations []*models.Conversation
	ActiveID      uuid.UUID
	Messages      []models.Message
	Mode          string
}

// Active returns the active conversation, or nil.
func (s Snapshot) Active() *models.Conversation {
	for _, c := range s.Conversations {
		if c.ID == s.ActiveID {
			return c
		}
	}
	return nil
}

// Action is a state transition applied by Reduce.
type Action interface {
	action()
}

type StatusChanged struct{ Status Status }

// Loaded replaces the session: principal, conversations newest first, and
// the first conversation as active.
type Loaded struct {
	Principal     *models.Principal
	Conversations []*models.Conversation
}

// MessagesReplaced overwrites a conversation's messages. The working set
// follows only while that conversation is active.
type MessagesReplaced struct {
	ConversationID uuid.UUID
	Messages       []models.Message
}

type ConversationCreated struct{ Conversation *models.Conversation }

type ConversationDeleted struct{ ID uuid.UUID }

type ConversationSelected struct{ ID uuid.UUID }

type ModeChanged struct{ Mode string }

func (StatusChanged) action()        {}
func (Loaded) action()               {}
func (MessagesReplaced) action()     {}
func (ConversationCreated) action()  {}
func (ConversationDeleted) action()  {}
func (ConversationSelected) action() {}
func (ModeChanged) action()          {}

// Reduce returns the state after applying a. It never mutates s.
func Reduce(s Snapshot, a Action) Snapshot {
	next := s.clone()

	switch a := a.(type) {
	case StatusChanged:
		next.Status = a.Status

	case Loaded:
		next.Principal = a.Principal
		next.Conversations = cloneConversations(a.Conversations)
		next.activateFirst()

	case MessagesReplaced:
		msgs := cloneMessages(a.Messages)
		for i, c := range next.Conversations {
			if c.ID == a.ConversationID {
				updated := *c
				updated.Messages = msgs
				next.Conversations[i] = &updated
			}
		}
		if next.ActiveID == a.ConversationID {
			next.Messages = cloneMessages(msgs)
		}

	case ConversationCreated:
		c := *a.Conversation
		c.Messages = []models.Message{}
		next.Conversations = append([]*models.Conversation{&c}, next.Conversations...)
		next.ActiveID = c.ID
		next.Messages = []models.Message{}

	case ConversationDeleted:
		kept := make([]*models.Conversation, 0, len(next.Conversations))
		for _, c := range next.Conversations {
			if c.ID != a.ID {
				kept = append(kept, c)
			}
		}
		next.Conversations = kept
		next.activateFirst()

	case ConversationSelected:
		for _, c := range next.Conversations {
			if c.ID == a.ID {
				next.ActiveID = c.ID
				next.Messages = cloneMessages(c.Messages)
			}
		}

	case ModeChanged:
		next.Mode = a.Mode
	}

	return next
}

func (s *Snapshot) activateFirst() {
	if len(s.Conversations) == 0 {
		s.ActiveID = uuid.Nil
		s.Messages = []models.Message{}
		return
	}
	s.ActiveID = s.Conversations[0].ID
	s.Messages = cloneMessages(s.Conversations[0].Messages)
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Conversations = cloneConversations(s.Conversations)
	out.Messages = cloneMessages(s.Messages)
	if s.Principal != nil {
		p := *s.Principal
		out.Principal = &p
	}
	return out
}

func cloneConversations(in []*models.Conversation) []*models.Conversation {
	out := make([]*models.Conversation, len(in))
	for i, c := range in {
		cp := *c
		cp.Messages = cloneMessages(c.Messages)
		out[i] = &cp
	}
	return out
}

func cloneMessages(in []models.Message) []models.Message {
	out := make([]models.Message, len(in))
	copy(out, in)
	return out
}
