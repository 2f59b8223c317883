package service

import (
	"context"
	"encoding/json"

	"support-chat-be/internal/pkg/logger"
	"support-chat-be/pkg/events"
	pktNats "support-chat-be/pkg/nats"

	"github.com/redis/go-redis/v9"
)

const redisEventChannel = "chat_events"

// EventPublisherService fans chat lifecycle events out to the optional external
// sinks: NATS JetStream for durable consumers and a Redis channel for live
// dashboards. Either sink may be absent; a missing sink is simply skipped, and a
// failing one is reported to the caller, who logs and carries on.
type EventPublisherService struct {
	nats   *pktNats.Publisher
	rdb    *redis.Client
	logger logger.ILogger
}

func NewEventPublisherService(nats *pktNats.Publisher, rdb *redis.Client, log logger.ILogger) *EventPublisherService {
	return &EventPublisherService{
		nats:   nats,
		rdb:    rdb,
		logger: log,
	}
}

func (s *EventPublisherService) Publish(ctx context.Context, event events.Event) error {
	var firstErr error

	if s.nats != nil {
		if err := s.nats.Publish(ctx, event); err != nil {
			firstErr = err
		}
	}

	if s.rdb != nil {
		payload, err := json.Marshal(map[string]interface{}{
			"type":        event.EventType(),
			"data":        event.Payload(),
			"occurred_at": event.Timestamp(),
		})
		if err == nil {
			err = s.rdb.Publish(ctx, redisEventChannel, payload).Err()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
