package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

const publishTimeout = time.Second

// Config holds Redis bridge settings.
type Config struct {
	URL           string
	Channel       string
	PublishBuffer int
}

// envelope is the wire form of a signal between instances.
type envelope struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
}

// RedisBridge relays "topic changed" signals between service instances. Local
// publishes reach the local hub immediately and are mirrored to a Redis
// channel; signals from other instances are replayed into the local hub.
type RedisBridge struct {
	client   *redis.Client
	local    ports.EventBroadcaster
	channel  string
	instance string
	outbox   chan domain.Topic
	logger   *slog.Logger
}

var _ ports.EventBroadcaster = (*RedisBridge)(nil)

// NewRedisBridge connects to Redis and pings it.
func NewRedisBridge(cfg Config, local ports.EventBroadcaster, logger *slog.Logger) (*RedisBridge, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = "conversation-signals"
	}
	if cfg.PublishBuffer <= 0 {
		cfg.PublishBuffer = 256
	}

	instance := uuid.NewString()
	return &RedisBridge{
		client:   c,
		local:    local,
		channel:  cfg.Channel,
		instance: instance,
		outbox:   make(chan domain.Topic, cfg.PublishBuffer),
		logger:   logger.With("component", "redis_bridge", "instance", instance),
	}, nil
}

// Broadcast delivers locally and queues the signal for other instances. It
// never blocks; a full outbox drops the remote copy.
func (b *RedisBridge) Broadcast(topic domain.Topic) error {
	if err := b.local.Broadcast(topic); err != nil {
		b.logger.Warn("local broadcast failed", "topic", topic.String(), "error", err)
	}

	select {
	case b.outbox <- topic:
	default:
		b.logger.Warn("redis outbox full, dropping remote signal", "topic", topic.String())
	}
	return nil
}

// Run relays signals until ctx is cancelled. This MUST be run as a goroutine.
func (b *RedisBridge) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer func() {
		_ = sub.Close()
	}()

	incoming := sub.Channel()
	b.logger.Info("redis bridge started", "channel", b.channel)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("redis bridge stopped")
			return

		case topic := <-b.outbox:
			b.publish(ctx, topic)

		case msg, ok := <-incoming:
			if !ok {
				b.logger.Warn("redis subscription closed")
				return
			}
			b.relay(msg.Payload)
		}
	}
}

func (b *RedisBridge) publish(ctx context.Context, topic domain.Topic) {
	payload, err := json.Marshal(envelope{Origin: b.instance, Topic: topic.String()})
	if err != nil {
		b.logger.Error("failed to encode signal", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("redis publish failed", "topic", topic.String(), "error", err)
	}
}

func (b *RedisBridge) relay(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("discarding malformed signal", "error", err)
		return
	}
	if env.Origin == b.instance {
		return
	}

	topic, err := domain.ParseTopic(env.Topic)
	if err != nil {
		b.logger.Warn("discarding signal with unknown topic", "topic", env.Topic)
		return
	}
	_ = b.local.Broadcast(topic)
}

// Ping checks the Redis connection.
func (b *RedisBridge) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (b *RedisBridge) Close() error {
	return b.client.Close()
}
