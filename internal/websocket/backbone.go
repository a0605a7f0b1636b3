package websocket

import (
	"context"
	"encoding/json"
	"strings"

	"learnera-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Backbone is the cross-process fan-out layer underneath the hub. The hub
// subscribes a group topic while it has local members and publishes every
// group event through it so connections held by other instances are reached.
type Backbone interface {
	Subscribe(group string) error
	Unsubscribe(group string) error
	Publish(ctx context.Context, group string, payload []byte) error
	// Run blocks, invoking deliver for every event published by OTHER
	// processes; a process never re-receives its own publishes.
	Run(deliver func(group string, payload []byte))
	Close() error
}

const groupChannelPrefix = "chat.group."

// backboneEnvelope wraps a group payload with the publishing process's
// identity so subscribers can discard their own messages (local members were
// already served directly by the hub).
type backboneEnvelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBackbone implements Backbone over Redis pub/sub, one channel per
// group. The shared PubSub connection supports concurrent Subscribe and
// Unsubscribe while the receive loop runs.
type RedisBackbone struct {
	rdb    *redis.Client
	pubsub *redis.PubSub
	origin string
	logger logger.ILogger
}

func NewRedisBackbone(rdb *redis.Client, log logger.ILogger) *RedisBackbone {
	return &RedisBackbone{
		rdb:    rdb,
		pubsub: rdb.Subscribe(context.Background()),
		origin: uuid.NewString(),
		logger: log,
	}
}

func (b *RedisBackbone) Subscribe(group string) error {
	return b.pubsub.Subscribe(context.Background(), groupChannelPrefix+group)
}

func (b *RedisBackbone) Unsubscribe(group string) error {
	return b.pubsub.Unsubscribe(context.Background(), groupChannelPrefix+group)
}

func (b *RedisBackbone) Publish(ctx context.Context, group string, payload []byte) error {
	env, err := json.Marshal(backboneEnvelope{Origin: b.origin, Payload: payload})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, groupChannelPrefix+group, env).Err()
}

func (b *RedisBackbone) Run(deliver func(group string, payload []byte)) {
	for msg := range b.pubsub.Channel() {
		group, payload, ok := b.decode(msg.Channel, []byte(msg.Payload))
		if !ok {
			continue
		}
		deliver(group, payload)
	}
}

// decode unwraps an envelope, rejecting malformed messages and this
// process's own publishes.
func (b *RedisBackbone) decode(channel string, data []byte) (string, []byte, bool) {
	var env backboneEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		b.logger.Warn("Backbone", "Dropping malformed backbone message", map[string]interface{}{
			"channel": channel, "error": err.Error(),
		})
		return "", nil, false
	}
	if env.Origin == b.origin {
		return "", nil, false
	}
	return strings.TrimPrefix(channel, groupChannelPrefix), env.Payload, true
}

func (b *RedisBackbone) Close() error {
	return b.pubsub.Close()
}
