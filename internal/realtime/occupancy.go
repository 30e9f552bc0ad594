package realtime

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// OccupancyStore mirrors per-note active participant counts to shared storage
// so other processes (dashboards, a future sharded deployment) can observe
// room occupancy. The hub writes to it best-effort; it is never read back for
// presence decisions.
type OccupancyStore interface {
	SetActive(ctx context.Context, noteID string, count int) error
	Clear(ctx context.Context, noteID string) error
}

// RedisOccupancy stores counts under key "<prefix><noteId>" with a TTL so a
// crashed process leaves no permanently stale counts behind.
type RedisOccupancy struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisOccupancy creates a Redis-backed occupancy store. Prefix may be empty.
func NewRedisOccupancy(client *redis.Client, prefix string) *RedisOccupancy {
	if prefix == "" {
		prefix = "presence:"
	}
	return &RedisOccupancy{client: client, prefix: prefix, ttl: 5 * time.Minute}
}

func (r *RedisOccupancy) key(noteID string) string {
	return r.prefix + noteID
}

func (r *RedisOccupancy) SetActive(ctx context.Context, noteID string, count int) error {
	return r.client.Set(ctx, r.key(noteID), strconv.Itoa(count), r.ttl).Err()
}

func (r *RedisOccupancy) Clear(ctx context.Context, noteID string) error {
	return r.client.Del(ctx, r.key(noteID)).Err()
}

// GetActive returns the mirrored count, or 0 when absent.
func (r *RedisOccupancy) GetActive(ctx context.Context, noteID string) (int, error) {
	v, err := r.client.Get(ctx, r.key(noteID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return strconv.Atoi(v)
}
