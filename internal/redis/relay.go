package redis

import (
	"context"
	"log/slog"

	"wishera-chat/internal/models"
	"wishera-chat/internal/ws"

	"github.com/goccy/go-json"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, userId, eventType string, data json.RawMessage) error
}

// RelayHandlers returns base with every inbound event for userId published
// first, payload bytes exactly as received. The typed handlers of base run
// afterwards, even when publishing fails.
func RelayHandlers(ctx context.Context, pub EventPublisher, userId string, base ws.Handlers) ws.Handlers {
	relayed := base
	relayed.OnEvent = func(e models.Event) {
		if err := pub.PublishEvent(ctx, userId, e.Type(), e.Payload()); err != nil {
			slog.Warn("[RELAY] Event not relayed", "type", e.Type(), "user", userId, "error", err)
		}

		if base.OnEvent != nil {
			base.OnEvent(e)
		}
	}

	return relayed
}
