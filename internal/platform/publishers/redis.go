package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

// DefaultRedisChannel is used when no channel is configured.
const DefaultRedisChannel = "procurement.status_changed"

// RedisClient is the subset of *redis.Client used for publishing.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher fans status changes out over Redis pub/sub as JSON.
type RedisPublisher struct {
	client  RedisClient
	channel string
}

func NewRedisPublisher(client RedisClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// DialRedis connects and pings the server so misconfiguration shows up at startup.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, event events.StatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode status change: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to redis channel %s: %w", p.channel, err)
	}
	return nil
}

var _ events.Publisher = (*RedisPublisher)(nil)
