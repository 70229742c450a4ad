package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"echelon-backend/internal/logger"
	"echelon-backend/internal/models"
)

// EventPublisher sends live updates to a user's websocket connections via
// Redis pub/sub. A nil publisher or client drops events.
type EventPublisher struct {
	redis *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redis: redisClient}
}

func (p *EventPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if p == nil || p.redis == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := p.redis.Publish(ctx, models.UserUpdatesChannel(userID), string(data)).Err(); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("user_id", userID.String()).Msg("failed to publish event")
	}
}
