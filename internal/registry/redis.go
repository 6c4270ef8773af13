package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "collab:"

// Redis is the multi-instance Registry. Membership stays local to each
// process; broadcasts travel through a Redis pub/sub channel per topic, so
// every instance (the publisher included) delivers to its own subscribers.
type Redis struct {
	client *redis.Client
	local  *Memory
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisWithClient(client), nil
}

func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		local:  NewMemory(),
	}
}

// Start subscribes to the shared broadcast channels and relays incoming
// messages to local subscribers. It returns once the subscription is
// confirmed, so a Broadcast issued after Start cannot be missed locally.
func (r *Redis) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.pubsub = r.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := r.pubsub.Receive(ctx); err != nil {
		cancel()
		return fmt.Errorf("subscribe to broadcast channels: %w", err)
	}

	go func() {
		for msg := range r.pubsub.Channel() {
			topic := strings.TrimPrefix(msg.Channel, channelPrefix)
			r.local.Broadcast(topic, []byte(msg.Payload))
		}
	}()

	return nil
}

func (r *Redis) Join(topic string, sub Subscriber) {
	r.local.Join(topic, sub)
}

func (r *Redis) Leave(topic string, sub Subscriber) {
	r.local.Leave(topic, sub)
}

// Broadcast publishes to Redis only; local delivery happens when the message
// loops back through the subscription, keeping one delivery path for every
// instance.
func (r *Redis) Broadcast(topic string, payload []byte) error {
	if err := r.client.Publish(context.Background(), channelPrefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Members reports local membership only.
func (r *Redis) Members(topic string) int {
	return r.local.Members(topic)
}

func (r *Redis) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.pubsub != nil {
		r.pubsub.Close()
	}
	return r.client.Close()
}
