package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyticsRepo answers the per-user activity counts behind the analytics view.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

func (r *AnalyticsRepo) TaskCounts(ctx context.Context, ownerID uuid.UUID, since time.Time) (created, completed, pending int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM tasks WHERE user_id = $1 AND created_at >= $2`, ownerID, since,
	).Scan(&created, &completed, &pending)
	return created, completed, pending, err
}

func (r *AnalyticsRepo) ConversationsStarted(ctx context.Context, ownerID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM ai_conversations WHERE user_id = $1 AND created_at >= $2",
		ownerID, since,
	).Scan(&n)
	return n, err
}

// MessagesSent counts user-authored messages whose timestamp falls in range.
func (r *AnalyticsRepo) MessagesSent(ctx context.Context, ownerID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM ai_conversations c, jsonb_array_elements(c.messages) AS m
		WHERE c.user_id = $1
		  AND m->>'role' = 'user'
		  AND (m->>'timestamp')::timestamptz >= $2`, ownerID, since,
	).Scan(&n)
	return n, err
}
