package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bidscreen/internal/domain/value"
	"bidscreen/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Bus carries change notifications scoped to one event id. Messages are
// notify-only: the payload is the event id, never record data, because
// consumers re-fetch the canonical record on every notification.
type Bus interface {
	Publish(ctx context.Context, id value.EventID) error
	Subscribe(ctx context.Context, id value.EventID) (BusSubscription, error)
}

// BusSubscription is one open notification stream.
type BusSubscription interface {
	// Receive blocks for the next notification. It returns an error when
	// the stream breaks; the caller owns reconnection.
	Receive(ctx context.Context) error
	Close() error
}

const channelPrefix = "bidscreen:event:"

// RedisBus is the cross-device bus over Redis pub/sub.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func channelName(id value.EventID) string {
	return channelPrefix + id.String()
}

func (b *RedisBus) Publish(ctx context.Context, id value.EventID) error {
	if err := b.client.Publish(ctx, channelName(id), id.String()).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}

	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, id value.EventID) (BusSubscription, error) {
	pubsub := b.client.Subscribe(ctx, channelName(id))

	// Subscription acknowledgment; a failure here means we never connected.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	return &redisBusSubscription{pubsub: pubsub}, nil
}

type redisBusSubscription struct {
	pubsub *redis.PubSub
}

func (s *redisBusSubscription) Receive(ctx context.Context) error {
	if _, err := s.pubsub.ReceiveMessage(ctx); err != nil {
		return fmt.Errorf("redis receive: %w", err)
	}

	return nil
}

func (s *redisBusSubscription) Close() error {
	return s.pubsub.Close() //nolint:wrapcheck
}
