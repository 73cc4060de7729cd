package collaboration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
)

const relayChannelPrefix = "canvas:room:"

// RedisRelay bridges room broadcasts across server instances through
// Redis pub/sub. Each instance publishes its locally-originated frames
// and fans remotely-originated ones into its own connections. Frames
// are tagged with the publishing instance so an instance never
// re-applies its own traffic.
type RedisRelay struct {
	client     *redis.Client
	pubsub     *redis.PubSub
	instanceID string
}

type relayEnvelope struct {
	Instance string          `json:"instance"`
	RoomID   string          `json:"roomId"`
	Payload  json.RawMessage `json:"payload"`
}

// NewRedisRelay connects to Redis and subscribes to every room
// channel.
func NewRedisRelay(addr string) (*RedisRelay, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r := &RedisRelay{
		client:     client,
		pubsub:     client.PSubscribe(context.Background(), relayChannelPrefix+"*"),
		instanceID: ksuid.New().String(),
	}

	log.Printf("✓ Redis relay connected: %s (instance %s)", addr, r.instanceID)
	return r, nil
}

// Publish pushes one room frame to the other instances. Best effort:
// a publish failure is logged and local delivery is unaffected.
func (r *RedisRelay) Publish(ctx context.Context, roomID string, payload []byte) {
	env, err := json.Marshal(relayEnvelope{
		Instance: r.instanceID,
		RoomID:   roomID,
		Payload:  payload,
	})
	if err != nil {
		log.Printf("⚠️  Failed to encode relay frame: %v", err)
		return
	}
	if err := r.client.Publish(ctx, relayChannelPrefix+roomID, env).Err(); err != nil {
		log.Printf("⚠️  Failed to publish relay frame for room %s: %v", roomID, err)
	}
}

// Listen delivers remote frames to handler until Close is called.
// Runs on its own goroutine.
func (r *RedisRelay) Listen(handler func(roomID string, payload []byte)) {
	for msg := range r.pubsub.Channel() {
		var env relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.Printf("⚠️  Dropping malformed relay frame: %v", err)
			continue
		}
		if env.Instance == r.instanceID {
			continue
		}
		handler(env.RoomID, env.Payload)
	}
}

// Close stops the subscription and releases the client.
func (r *RedisRelay) Close() {
	r.pubsub.Close()
	r.client.Close()
}
