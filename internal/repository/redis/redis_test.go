package redis_test

import (
	"context"
	"testing"
	"time"

	rrepo "mamane/internal/repository/redis"
	"mamane/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	repo := &rrepo.SessionRepository{RDB: rdb}
	ctx := context.Background()

	_, err := repo.GetUserToken(ctx, "user-1")
	assert.ErrorIs(t, err, rrepo.ErrTokenNotFound)

	require.NoError(t, repo.AddUserToken(ctx, "user-1", "tok"))
	got, err := repo.GetUserToken(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Equal(t, rrepo.UserTokenExpire, mr.TTL("login:user:token:user-1"))

	mr.FastForward(10 * time.Minute)
	require.NoError(t, repo.ExtendUserToken(ctx, "user-1"))
	assert.Equal(t, rrepo.UserTokenExpire, mr.TTL("login:user:token:user-1"))

	require.NoError(t, repo.DeleteUserToken(ctx, "user-1"))
	_, err = repo.GetUserToken(ctx, "user-1")
	assert.ErrorIs(t, err, rrepo.ErrTokenNotFound)
}

func TestReactionCache_CountOnlyBumpedWhenCached(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	cache := rrepo.NewReactionCacheRepository(rdb)
	ctx := context.Background()

	require.NoError(t, cache.AddReaction(ctx, "post-1", "user-2"))
	_, hit, err := cache.GetCountCached(ctx, "post-1")
	require.NoError(t, err)
	assert.False(t, hit, "a missing count must stay missing")

	require.NoError(t, cache.SetCount(ctx, "post-1", 4))
	require.NoError(t, cache.AddReaction(ctx, "post-1", "user-3"))
	n, hit, err := cache.GetCountCached(ctx, "post-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(5), n)

	reacted, hit, err := cache.IsReactedCached(ctx, "post-1", "user-3")
	require.NoError(t, err)
	assert.True(t, reacted)
	assert.True(t, hit)

	reacted, hit, err = cache.IsReactedCached(ctx, "post-1", "user-9")
	require.NoError(t, err)
	assert.False(t, reacted)
	assert.False(t, hit)

	require.NoError(t, cache.Forget(ctx, "post-1"))
	assert.False(t, mr.Exists("hee:set:post:post-1"))
	assert.False(t, mr.Exists("hee:cnt:post:post-1"))
}

func TestDistLock(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	lock := &rrepo.DistLock{RDB: rdb}
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "post-1", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "post-1", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "post-1", "b"))
	assert.True(t, mr.Exists("lock:hee:post:post-1"), "a foreign token must not release the lock")

	require.NoError(t, lock.Release(ctx, "post-1", "a"))
	assert.False(t, mr.Exists("lock:hee:post:post-1"))
}

func TestDedupRepository(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	dedup := &rrepo.DedupRepository{RDB: rdb, TTL: time.Hour}
	ctx := context.Background()

	seen, err := dedup.Seen(ctx, "reaction:post-1:user-1:taro")
	require.NoError(t, err)
	assert.False(t, seen)

	first, err := dedup.Mark(ctx, "reaction:post-1:user-1:taro")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := dedup.Mark(ctx, "reaction:post-1:user-1:taro")
	require.NoError(t, err)
	assert.False(t, again)

	mr.FastForward(2 * time.Hour)
	seen, err = dedup.Seen(ctx, "reaction:post-1:user-1:taro")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestTokenBucket_Allow(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	bucket := rrepo.NewTokenBucket(rdb, 3, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, err := bucket.Allow(ctx, "user-1", "hee")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
		assert.Equal(t, int64(2-i), remaining)
	}

	allowed, remaining, err := bucket.Allow(ctx, "user-1", "hee")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(0), remaining)

	// buckets are per user and per action
	allowed, _, err = bucket.Allow(ctx, "user-2", "hee")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, _, err = bucket.Allow(ctx, "user-1", "favorite")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, bucket.Reset(ctx, "user-1", "hee"))
	allowed, _, err = bucket.Allow(ctx, "user-1", "hee")
	require.NoError(t, err)
	assert.True(t, allowed)
}
