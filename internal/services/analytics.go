package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"echelon-backend/internal/models"
)

var analyticsRanges = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

const DefaultAnalyticsRange = "7d"

type analyticsStore interface {
	TaskCounts(ctx context.Context, ownerID uuid.UUID, since time.Time) (created, completed, pending int, err error)
	ConversationsStarted(ctx context.Context, ownerID uuid.UUID, since time.Time) (int, error)
	MessagesSent(ctx context.Context, ownerID uuid.UUID, since time.Time) (int, error)
}

type AnalyticsService struct {
	store analyticsStore
	now   func() time.Time
}

func NewAnalyticsService(store analyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// Summary gathers the owner's activity counts for a range label
// (24h, 7d, 30d, 90d; empty means 7d). The queries run concurrently.
func (s *AnalyticsService) Summary(ctx context.Context, ownerID uuid.UUID, rangeLabel string) (*models.Analytics, error) {
	if rangeLabel == "" {
		rangeLabel = DefaultAnalyticsRange
	}
	window, ok := analyticsRanges[rangeLabel]
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"range": "Range must be one of 24h, 7d, 30d, 90d"}}
	}

	out := &models.Analytics{Range: rangeLabel, Since: s.now().UTC().Add(-window)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.TasksCreated, out.TasksCompleted, out.TasksPending, err = s.store.TaskCounts(gctx, ownerID, out.Since)
		return err
	})
	g.Go(func() error {
		var err error
		out.ConversationsStarted, err = s.store.ConversationsStarted(gctx, ownerID, out.Since)
		return err
	})
	g.Go(func() error {
		var err error
		out.MessagesSent, err = s.store.MessagesSent(gctx, ownerID, out.Since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if out.TasksCreated > 0 {
		out.CompletionRate = float64(out.TasksCompleted) / float64(out.TasksCreated)
	}
	return out, nil
}
