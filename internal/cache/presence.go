package cache

import (
	"context"
	"fmt"
	"time"

	"notably/config"

	"github.com/redis/go-redis/v9"
)

// PresenceCache tracks online users with TTL keys in Redis. A key refreshes
// on heartbeat and expires on its own when the connection dies silently.
type PresenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceCache(cfg *config.RedisConfig) *PresenceCache {
	return &PresenceCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: cfg.PresenceTTL,
	}
}

func presenceKey(userID uint) string {
	return fmt.Sprintf("presence:%d", userID)
}

// SetOnline marks a user online (or refreshes the TTL on heartbeat).
func (p *PresenceCache) SetOnline(ctx context.Context, userID uint) error {
	return p.client.Set(ctx, presenceKey(userID), time.Now().Unix(), p.ttl).Err()
}

// SetOffline removes the presence key on clean disconnect.
func (p *PresenceCache) SetOffline(ctx context.Context, userID uint) error {
	return p.client.Del(ctx, presenceKey(userID)).Err()
}

func (p *PresenceCache) IsOnline(ctx context.Context, userID uint) (bool, error) {
	count, err := p.client.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountOnline scans presence keys; bounded by the number of connected users.
func (p *PresenceCache) CountOnline(ctx context.Context) (int64, error) {
	var count int64
	iter := p.client.Scan(ctx, 0, "presence:*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}

func (p *PresenceCache) Close() error {
	return p.client.Close()
}
