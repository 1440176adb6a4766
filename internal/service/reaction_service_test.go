package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReact_OwnPostIsRejected(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	testutil.SeedUser(t, db, "user-2", "hanako")
	testutil.SeedPost(t, db, "post-1", "user-1", "Octopuses have three hearts")
	d := &recordingDispatcher{}
	svc := NewReactionService(db, nil, d, pkg.DiscardLogger())
	ctx := context.Background()

	err := svc.React(ctx, "post-1", "user-1")
	assert.ErrorIs(t, err, pkg.ErrSelfReaction)
	assert.Equal(t, pkg.KindConflict, pkg.KindOf(err))

	// still rejected once other users have reacted
	require.NoError(t, svc.React(ctx, "post-1", "user-2"))
	assert.ErrorIs(t, svc.React(ctx, "post-1", "user-1"), pkg.ErrSelfReaction)

	n, err := (&mysql.ReactionRepository{DB: db}).CountByPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, d.Intents(), 1)
}

func TestReact_SecondAttemptIsAlreadyReacted(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	testutil.SeedUser(t, db, "user-2", "hanako")
	testutil.SeedPost(t, db, "post-1", "user-1", "Octopuses have three hearts")
	d := &recordingDispatcher{}
	svc := NewReactionService(db, nil, d, pkg.DiscardLogger())
	posts := &mysql.PostRepository{DB: db}
	ctx := context.Background()

	require.NoError(t, svc.React(ctx, "post-1", "user-2"))
	n, err := posts.GetReactionCount(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = svc.React(ctx, "post-1", "user-2")
	assert.ErrorIs(t, err, pkg.ErrAlreadyReacted)
	n, err = posts.GetReactionCount(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	intents := d.Intents()
	require.Len(t, intents, 1)
	assert.NotEmpty(t, intents[0].EventID)
	assert.Equal(t, model.Intent{
		Type:            model.IntentReaction,
		PostID:          "post-1",
		PostTitle:       "Octopuses have three hearts",
		RecipientUserID: "user-1",
		ActingUsername:  "hanako",
		EventID:         intents[0].EventID,
	}, intents[0])
}

func TestReact_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-2", "hanako")
	svc := NewReactionService(db, nil, &recordingDispatcher{}, pkg.DiscardLogger())
	ctx := context.Background()

	assert.ErrorIs(t, svc.React(ctx, "missing", "user-2"), pkg.ErrPostNotFound)
	assert.ErrorIs(t, svc.React(ctx, "", "user-2"), pkg.ErrInvalidID)
	assert.ErrorIs(t, svc.React(ctx, "post-1", ""), pkg.ErrUnauthorized)
}

func TestReact_ConcurrentDuplicatesStoreOneRow(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	testutil.SeedUser(t, db, "user-2", "hanako")
	testutil.SeedPost(t, db, "post-1", "user-1", "Octopuses have three hearts")
	d := &recordingDispatcher{}
	svc := NewReactionService(db, nil, d, pkg.DiscardLogger())
	ctx := context.Background()

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = svc.React(ctx, "post-1", "user-2")
		}(i)
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, pkg.ErrAlreadyReacted)
	}
	assert.Equal(t, 1, ok)

	n, err := (&mysql.ReactionRepository{DB: db}).CountByPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	cnt, err := (&mysql.PostRepository{DB: db}).GetReactionCount(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
	assert.Len(t, d.Intents(), 1)
}

func TestReact_CounterMatchesDistinctReactors(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "owner", "owner")
	post := testutil.SeedPost(t, db, "post-1", "owner", "Honey never spoils")
	require.NoError(t, db.Model(post).UpdateColumn("reaction_count", 3).Error)
	svc := NewReactionService(db, nil, &recordingDispatcher{}, pkg.DiscardLogger())
	posts := &mysql.PostRepository{DB: db}
	ctx := context.Background()

	users := []string{"u-1", "u-2", "u-3", "u-4", "u-5"}
	for _, id := range users {
		testutil.SeedUser(t, db, id, "name-"+id)
	}

	var wg sync.WaitGroup
	for _, id := range users {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, svc.React(ctx, "post-1", id))
		}(id)
	}
	wg.Wait()

	n, err := posts.GetReactionCount(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3+len(users)), n)
}

func TestReact_MailFailureDoesNotFailReaction(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	testutil.SeedUser(t, db, "user-2", "hanako")
	testutil.SeedPost(t, db, "post-1", "user-1", "Octopuses have three hearts")
	mailer := &fakeMailer{err: errSMTPDown}
	notifier := NewNotificationService(db, mailer, "https://mamane.vercel.app")
	svc := NewReactionService(db, nil, NewSyncDispatcher(notifier, pkg.DiscardLogger()), pkg.DiscardLogger())

	assert.NoError(t, svc.React(context.Background(), "post-1", "user-2"))
	has, err := svc.HasReacted(context.Background(), "post-1", "user-2")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestReact_ActorFallsBackWhenProfileMissing(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	testutil.SeedPost(t, db, "post-1", "user-1", "Octopuses have three hearts")
	d := &recordingDispatcher{}
	svc := NewReactionService(db, nil, d, pkg.DiscardLogger())

	require.NoError(t, svc.React(context.Background(), "post-1", "ghost"))
	require.Len(t, d.Intents(), 1)
	assert.Equal(t, "someone", d.Intents()[0].ActingUsername)
}

func TestReactionService_CountUsesCache(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	testutil.SeedUser(t, db, "user-2", "hanako")
	testutil.SeedUser(t, db, "user-3", "jiro")
	testutil.SeedPost(t, db, "post-1", "user-1", "Octopuses have three hearts")
	svc := NewReactionService(db, rdb, &recordingDispatcher{}, pkg.DiscardLogger())
	ctx := context.Background()

	_, err := svc.Count(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrPostNotFound)

	require.NoError(t, svc.React(ctx, "post-1", "user-2"))
	n, err := svc.Count(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, mr.Exists("hee:cnt:post:post-1"))

	// a cached count is bumped in place by the next reaction
	require.NoError(t, svc.React(ctx, "post-1", "user-3"))
	got, err := mr.Get("hee:cnt:post:post-1")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	has, err := svc.HasReacted(ctx, "post-1", "user-3")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = svc.HasReacted(ctx, "post-1", "user-1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestReactionService_CountWhileAnotherRebuilds(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	post := testutil.SeedPost(t, db, "post-1", "user-1", "Octopuses have three hearts")
	require.NoError(t, db.Model(post).UpdateColumn("reaction_count", 4).Error)
	svc := NewReactionService(db, rdb, &recordingDispatcher{}, pkg.DiscardLogger())

	// someone else holds the rebuild lock and never fills the cache
	require.NoError(t, mr.Set("lock:hee:post:post-1", "other"))

	n, err := svc.Count(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	n, err = svc.Count(ctx, "post-1")
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestReactionService_CountFallsBackWhenLockFails(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	post := testutil.SeedPost(t, db, "post-1", "user-1", "Octopuses have three hearts")
	require.NoError(t, db.Model(post).UpdateColumn("reaction_count", 2).Error)
	svc := NewReactionService(db, rdb, &recordingDispatcher{}, pkg.DiscardLogger())

	mr.SetError("LOADING")
	n, err := svc.Count(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
