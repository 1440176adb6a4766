package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ReactionSetTTL       = 24 * time.Hour
	ReactionCntTTL       = 24 * time.Hour
	LockTTL              = 300 * time.Millisecond
	ReactionSetKeyPrefix = "hee:set:post"
	ReactionCntKeyPrefix = "hee:cnt:post"
	LockKeyPrefix        = "lock:hee:post"
)

// ReactionCacheRepository mirrors reactions per post. The store stays authoritative.
type ReactionCacheRepository struct {
	RDB    *redis.Client
	setTTL time.Duration
	cntTTL time.Duration
}

func NewReactionCacheRepository(rdb *redis.Client) *ReactionCacheRepository {
	return &ReactionCacheRepository{
		RDB:    rdb,
		setTTL: ReactionSetTTL,
		cntTTL: ReactionCntTTL,
	}
}

func (r *ReactionCacheRepository) setKey(postID string) string {
	return fmt.Sprintf("%s:%s", ReactionSetKeyPrefix, postID)
}

func (r *ReactionCacheRepository) cntKey(postID string) string {
	return fmt.Sprintf("%s:%s", ReactionCntKeyPrefix, postID)
}

// AddReaction runs after the store insert committed. The count is only bumped when
// it is already cached, so a missing key is rebuilt from the store instead of starting at 1.
func (r *ReactionCacheRepository) AddReaction(ctx context.Context, postID, userID string) error {
	k := r.setKey(postID)
	if err := r.RDB.SAdd(ctx, k, userID).Err(); err != nil {
		return err
	}
	_ = r.RDB.Expire(ctx, k, r.setTTL).Err()

	ck := r.cntKey(postID)
	script := redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return redis.call("INCR", KEYS[1])
end
return -1
`)
	return script.Run(ctx, r.RDB, []string{ck}).Err()
}

// IsReactedCached reports (reacted, cacheHit, err). Only membership is a hit; the set may be partial.
func (r *ReactionCacheRepository) IsReactedCached(ctx context.Context, postID, userID string) (bool, bool, error) {
	k := r.setKey(postID)
	ok, err := r.RDB.SIsMember(ctx, k, userID).Result()
	if err != nil {
		return false, false, err
	}
	if ok {
		return true, true, nil
	}
	return false, false, nil
}

func (r *ReactionCacheRepository) GetCountCached(ctx context.Context, postID string) (int64, bool, error) {
	val, err := r.RDB.Get(ctx, r.cntKey(postID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func (r *ReactionCacheRepository) SetCount(ctx context.Context, postID string, cnt int64) error {
	return r.RDB.Set(ctx, r.cntKey(postID), cnt, r.cntTTL).Err()
}

// Forget drops everything cached for a post, used when the post is deleted.
func (r *ReactionCacheRepository) Forget(ctx context.Context, postIDs ...string) error {
	if len(postIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, 2*len(postIDs))
	for _, id := range postIDs {
		keys = append(keys, r.setKey(id), r.cntKey(id))
	}
	return r.RDB.Del(ctx, keys...).Err()
}

// DistLock is a single-owner lock keyed by post.
type DistLock struct {
	RDB *redis.Client
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

func (l *DistLock) Acquire(ctx context.Context, postID, token string) (bool, error) {
	key := fmt.Sprintf("%s:%s", LockKeyPrefix, postID)
	return l.RDB.SetNX(ctx, key, token, LockTTL).Result()
}

// Release only deletes the lock when token still owns it.
func (l *DistLock) Release(ctx context.Context, postID, token string) error {
	key := fmt.Sprintf("%s:%s", LockKeyPrefix, postID)
	return releaseScript.Run(ctx, l.RDB, []string{key}, token).Err()
}
