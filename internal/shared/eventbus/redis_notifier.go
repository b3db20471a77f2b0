package eventbus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier fans events out over a Redis pub/sub channel so multiple
// emulator instances behind the same Redis observe the same document
// changes, per spec.md §6's optional distributed event bus.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

const defaultChannel = "firestore-emulator:events"

func NewRedisNotifier(url string) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisNotifier{client: redis.NewClient(opts), channel: defaultChannel}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, eventType, source string) error {
	return n.client.Publish(ctx, n.channel, fmt.Sprintf("%s|%s", eventType, source)).Err()
}
