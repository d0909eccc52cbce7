package services

import (
	"log/slog"

	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// publish hands every topic to the broadcaster. Delivery is best effort: a
// failed publish is logged and never fails the write that triggered it.
func publish(b ports.EventBroadcaster, logger *slog.Logger, topics ...domain.Topic) {
	for _, topic := range topics {
		if err := b.Broadcast(topic); err != nil {
			logger.Warn("signal not published",
				slog.String("topic", topic.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}
