package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"echelon-backend/internal/models"
)

// ConversationRepo stores conversations in ai_conversations. Every query is
// scoped by owner; a row owned by someone else behaves as missing.
type ConversationRepo struct {
	pool conversationDB
}

// conversationDB is the part of *pgxpool.Pool the repository uses.
type conversationDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewConversationRepo(pool conversationDB) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

const conversationColumns = `id, title, messages, user_id, created_at`

func (r *ConversationRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Conversation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM ai_conversations WHERE user_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []*models.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (r *ConversationRepo) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM ai_conversations WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	return scanConversation(row)
}

func (r *ConversationRepo) Create(ctx context.Context, c *models.Conversation) error {
	c.ID = uuid.New()
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO ai_conversations (id, user_id, title, messages) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		c.ID, c.UserID, c.Title, messages,
	).Scan(&c.CreatedAt)
}

// UpdateMessages overwrites the whole message array.
func (r *ConversationRepo) UpdateMessages(ctx context.Context, id, ownerID uuid.UUID, messages []models.Message) error {
	if messages == nil {
		messages = []models.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		"UPDATE ai_conversations SET messages = $1 WHERE id = $2 AND user_id = $3",
		data, id, ownerID,
	)
	return ownedRowChanged(tag, err)
}

func (r *ConversationRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM ai_conversations WHERE id = $1 AND user_id = $2", id, ownerID)
	return ownedRowChanged(tag, err)
}

// ownedRowChanged maps a statement that touched no row to pgx.ErrNoRows, so a
// conversation owned by someone else reads as missing.
func ownedRowChanged(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	c := &models.Conversation{}
	var raw []byte
	if err := row.Scan(&c.ID, &c.Title, &raw, &c.UserID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Messages = []models.Message{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode messages of conversation %s: %w", c.ID, err)
		}
	}
	return c, nil
}
