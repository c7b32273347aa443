package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wishera-chat/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

type Client struct {
	rdb *redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("rdb.Ping: %w", err)
	}

	slog.Info("[REDIS] Connected to Redis", "addr", opt.Addr)

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// EventsChannel carries every inbound chat event for userId.
func EventsChannel(userId string) string {
	return "chat:events:" + userId
}

// CommandsChannel carries commands to send as userId.
func CommandsChannel(userId string) string {
	return "chat:commands:" + userId
}

// PublishEvent relays one inbound chat event received on userId's
// connection.
func (c *Client) PublishEvent(ctx context.Context, userId, eventType string, data json.RawMessage) error {
	payload, err := encodeRelayEvent(userId, eventType, data, time.Now())
	if err != nil {
		slog.Error("[REDIS] Failed to marshal event", "type", eventType, "user", userId, "error", err)
		return err
	}

	channel := EventsChannel(userId)
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		slog.Error("[REDIS] Failed to publish event", "type", eventType, "channel", channel, "error", err)
		return fmt.Errorf("rdb.Publish: %w", err)
	}

	return nil
}

func encodeRelayEvent(userId, eventType string, data json.RawMessage, now time.Time) ([]byte, error) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	return json.Marshal(models.RelayEvent{
		Type:      eventType,
		UserId:    userId,
		Timestamp: now.Unix(),
		Data:      data,
	})
}
