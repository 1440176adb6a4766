package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const NotifyDedupPrefix = "notify:dedup"

// DedupRepository remembers delivered notification keys for a TTL.
type DedupRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func (d *DedupRepository) key(k string) string {
	return NotifyDedupPrefix + ":" + k
}

// Seen reports whether k was already marked delivered.
func (d *DedupRepository) Seen(ctx context.Context, k string) (bool, error) {
	n, err := d.RDB.Exists(ctx, d.key(k)).Result()
	return n > 0, err
}

// Mark records k as delivered. It returns false when another worker marked it first.
func (d *DedupRepository) Mark(ctx context.Context, k string) (bool, error) {
	return d.RDB.SetNX(ctx, d.key(k), 1, d.TTL).Result()
}
