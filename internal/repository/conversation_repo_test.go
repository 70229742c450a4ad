package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echelon-backend/internal/models"
)

// fakeRow scans a fixed column list into pointers of matching type.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.values[i].(uuid.UUID)
		case *string:
			*p = r.values[i].(string)
		case *[]byte:
			if r.values[i] != nil {
				*p = r.values[i].([]byte)
			}
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeConversationDB struct {
	tag      pgconn.CommandTag
	execArgs []any
	row      fakeRow
}

func (db *fakeConversationDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execArgs = args
	return db.tag, nil
}

func (db *fakeConversationDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (db *fakeConversationDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.row
}

func TestConversationRepo_MessagesRoundTrip(t *testing.T) {
	id, owner := uuid.New(), uuid.New()
	created := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{ID: "m1", Role: models.RoleUser, Content: "Plan my week", Timestamp: "2026-10-15T09:00:00Z"},
		{ID: "m2", Role: models.RoleAssistant, Content: "Start with Monday.", Timestamp: "2026-10-15T09:00:02Z"},
	}

	db := &fakeConversationDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewConversationRepo(db)
	require.NoError(t, repo.UpdateMessages(context.Background(), id, owner, messages))

	require.Len(t, db.execArgs, 3)
	stored, ok := db.execArgs[0].([]byte)
	require.True(t, ok, "messages are written as encoded JSON")
	assert.Equal(t, id, db.execArgs[1])
	assert.Equal(t, owner, db.execArgs[2])

	db.row = fakeRow{values: []any{id, "Week", stored, owner, created}}
	c, err := repo.GetByID(context.Background(), id, owner)
	require.NoError(t, err)
	assert.Equal(t, messages, c.Messages)
	assert.Equal(t, "Week", c.Title)
	assert.Equal(t, created, c.CreatedAt)
}

func TestConversationRepo_NilMessagesStoredAsEmptyArray(t *testing.T) {
	db := &fakeConversationDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	require.NoError(t, NewConversationRepo(db).UpdateMessages(context.Background(), uuid.New(), uuid.New(), nil))
	assert.Equal(t, []byte("[]"), db.execArgs[0])
}

func TestConversationRepo_OtherOwnerReadsAsMissing(t *testing.T) {
	db := &fakeConversationDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewConversationRepo(db)

	err := repo.UpdateMessages(context.Background(), uuid.New(), uuid.New(), []models.Message{})
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	db.tag = pgconn.NewCommandTag("DELETE 0")
	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New(), uuid.New()), pgx.ErrNoRows)

	db.tag = pgconn.NewCommandTag("DELETE 1")
	assert.NoError(t, repo.Delete(context.Background(), uuid.New(), uuid.New()))
}

func TestScanConversation(t *testing.T) {
	id, owner := uuid.New(), uuid.New()
	now := time.Now().UTC()

	c, err := scanConversation(fakeRow{values: []any{id, "Empty", nil, owner, now}})
	require.NoError(t, err)
	assert.NotNil(t, c.Messages)
	assert.Empty(t, c.Messages)

	_, err = scanConversation(fakeRow{values: []any{id, "Broken", []byte(`{"not":"an array"}`), owner, now}})
	assert.ErrorContains(t, err, "failed to decode messages")

	_, err = scanConversation(fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
