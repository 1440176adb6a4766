package service

import (
	"context"
	"log/slog"
	"time"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const countRebuildWait = 50 * time.Millisecond

// ReactionService owns the one-per-user "hee" on a post and its denormalized counter.
type ReactionService struct {
	posts      *mysql.PostRepository
	reactions  *mysql.ReactionRepository
	users      *mysql.UserRepository
	cache      *redis.ReactionCacheRepository
	lock       *redis.DistLock
	dispatcher Dispatcher
	log        *slog.Logger
}

// NewReactionService wires the service. rdb may be nil, which disables the cache.
func NewReactionService(db *gorm.DB, rdb *goredis.Client, d Dispatcher, log *slog.Logger) *ReactionService {
	s := &ReactionService{
		posts:      &mysql.PostRepository{DB: db},
		reactions:  &mysql.ReactionRepository{DB: db},
		users:      &mysql.UserRepository{DB: db},
		dispatcher: d,
		log:        log,
	}
	if rdb != nil {
		s.cache = redis.NewReactionCacheRepository(rdb)
		s.lock = &redis.DistLock{RDB: rdb}
	}
	return s
}

// React records one reaction by userID on postID. The pre-check and the insert are
// not atomic; the unique (post_id, user_id) index decides a lost race.
func (s *ReactionService) React(ctx context.Context, postID, userID string) error {
	if userID == "" {
		return pkg.ErrUnauthorized
	}
	if postID == "" {
		return pkg.ErrInvalidID
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return pkg.Dependency("failed to load trivia", err)
	}
	if post == nil {
		return pkg.ErrPostNotFound
	}
	if post.OwnerID == userID {
		return pkg.ErrSelfReaction
	}

	exists, err := s.reactions.Exists(ctx, postID, userID)
	if err != nil {
		return pkg.Dependency("failed to check reaction", err)
	}
	if exists {
		return pkg.ErrAlreadyReacted
	}

	row, err := s.reactions.Insert(ctx, postID, userID)
	if err != nil {
		if mysql.IsDuplicate(err) {
			return pkg.ErrAlreadyReacted
		}
		return pkg.Dependency("failed to add hee", err)
	}

	// The reaction row is the durable outcome. A failed increment leaves the counter
	// behind until ReactionCountReconciler catches it up.
	if err := s.posts.IncrementReactionCount(ctx, postID); err != nil {
		s.log.Error("hee counter increment failed", "post_id", postID, "err", err)
		s.forgetCount(ctx, postID)
	} else if s.cache != nil {
		if err := s.cache.AddReaction(ctx, postID, userID); err != nil {
			s.forgetCount(ctx, postID)
		}
	}

	s.dispatcher.Dispatch(ctx, model.Intent{
		Type:            model.IntentReaction,
		PostID:          post.ID,
		PostTitle:       post.Title,
		RecipientUserID: post.OwnerID,
		ActingUsername:  s.actorName(ctx, userID),
		EventID:         row.ID,
	})
	return nil
}

func (s *ReactionService) HasReacted(ctx context.Context, postID, userID string) (bool, error) {
	if postID == "" {
		return false, pkg.ErrInvalidID
	}
	if userID == "" {
		return false, nil
	}
	if s.cache != nil {
		if ok, hit, err := s.cache.IsReactedCached(ctx, postID, userID); err == nil && hit {
			return ok, nil
		}
	}
	ok, err := s.reactions.Exists(ctx, postID, userID)
	if err != nil {
		return false, pkg.Dependency("failed to check reaction", err)
	}
	return ok, nil
}

// Count reads the cached counter and rebuilds it from the store under a lock on a miss.
func (s *ReactionService) Count(ctx context.Context, postID string) (int64, error) {
	if postID == "" {
		return 0, pkg.ErrInvalidID
	}
	if s.cache == nil {
		return s.countFromStore(ctx, postID)
	}
	if v, ok, err := s.cache.GetCountCached(ctx, postID); err == nil && ok {
		return v, nil
	}

	token := uuid.NewString()
	got, err := s.lock.Acquire(ctx, postID, token)
	if err != nil {
		s.log.Warn("count lock acquire failed", "post_id", postID, "err", err)
		return s.countFromStore(ctx, postID)
	}
	if got {
		defer func() {
			if err := s.lock.Release(ctx, postID, token); err != nil {
				s.log.Warn("count lock release failed", "post_id", postID, "err", err)
			}
		}()
		if v, ok, err := s.cache.GetCountCached(ctx, postID); err == nil && ok {
			return v, nil
		}
		v, err := s.countFromStore(ctx, postID)
		if err != nil {
			return 0, err
		}
		_ = s.cache.SetCount(ctx, postID, v)
		return v, nil
	}

	// another request is rebuilding; back off once before going to the store
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(countRebuildWait):
	}
	if v, ok, err := s.cache.GetCountCached(ctx, postID); err == nil && ok {
		return v, nil
	}
	return s.countFromStore(ctx, postID)
}

func (s *ReactionService) countFromStore(ctx context.Context, postID string) (int64, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return 0, pkg.Dependency("failed to load trivia", err)
	}
	if post == nil {
		return 0, pkg.ErrPostNotFound
	}
	return post.ReactionCount, nil
}

func (s *ReactionService) forgetCount(ctx context.Context, postID string) {
	if s.cache != nil {
		_ = s.cache.Forget(ctx, postID)
	}
}

func (s *ReactionService) actorName(ctx context.Context, userID string) string {
	return actorName(ctx, s.users, userID)
}

func actorName(ctx context.Context, users *mysql.UserRepository, userID string) string {
	u, err := users.FindByID(ctx, userID)
	if err != nil || u == nil || u.Username == "" {
		return fallbackActor
	}
	return u.Username
}
