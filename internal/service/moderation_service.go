package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModerationService holds the admin-only mutations. Every operation re-checks that
// the actor is an admin in the store.
type ModerationService struct {
	users      *mysql.UserRepository
	posts      *mysql.PostRepository
	comments   *mysql.CommentRepository
	categories *mysql.CategoryRepository
	sessions   *redis.SessionRepository
	cache      *redis.ReactionCacheRepository
	log        *slog.Logger
	now        func() time.Time
}

// NewModerationService wires the service. rdb may be nil; sessions are then left alone.
func NewModerationService(db *gorm.DB, rdb *goredis.Client, log *slog.Logger) *ModerationService {
	s := &ModerationService{
		users:      &mysql.UserRepository{DB: db},
		posts:      &mysql.PostRepository{DB: db},
		comments:   &mysql.CommentRepository{DB: db},
		categories: &mysql.CategoryRepository{DB: db},
		log:        log,
		now:        time.Now,
	}
	if rdb != nil {
		s.sessions = &redis.SessionRepository{RDB: rdb}
		s.cache = redis.NewReactionCacheRepository(rdb)
	}
	return s
}

func (s *ModerationService) requireAdmin(ctx context.Context, actorID string) error {
	if actorID == "" {
		return pkg.ErrUnauthorized
	}
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return pkg.Dependency("failed to load profile", err)
	}
	if actor == nil || !actor.IsAdmin {
		return pkg.ErrForbidden
	}
	return nil
}

// SetBanned flips the ban flag. Banning also deletes every comment and post the target
// authored; reactions and favorites on those posts go with them. Unbanning restores nothing.
func (s *ModerationService) SetBanned(ctx context.Context, actorID, targetID string, banned bool) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if targetID == "" {
		return pkg.ErrUserIDRequired
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return pkg.Dependency("failed to load user", err)
	}
	if target == nil {
		return pkg.ErrUserNotFound
	}

	if _, err := s.users.SetBanned(ctx, targetID, banned); err != nil {
		return pkg.Dependency("failed to update user status", err)
	}
	if !banned {
		return nil
	}

	if _, err := s.comments.DeleteByAuthor(ctx, targetID); err != nil {
		return pkg.Dependency("failed to delete user comments", err)
	}
	posts, err := s.posts.ListByOwner(ctx, targetID)
	if err != nil {
		return pkg.Dependency("failed to delete user trivia", err)
	}
	if _, err := s.posts.DeleteByOwner(ctx, targetID); err != nil {
		return pkg.Dependency("failed to delete user trivia", err)
	}
	s.log.Info("user banned", "user_id", targetID, "by", actorID, "posts_removed", len(posts))

	if s.cache != nil && len(posts) > 0 {
		ids := make([]string, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
		_ = s.cache.Forget(ctx, ids...)
	}
	if s.sessions != nil {
		if err := s.sessions.DeleteUserToken(ctx, targetID); err != nil {
			s.log.Warn("session revoke failed", "user_id", targetID, "err", err)
		}
	}
	return nil
}

func (s *ModerationService) DeletePost(ctx context.Context, actorID, postID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if postID == "" {
		return pkg.ErrInvalidID
	}
	n, err := s.posts.DeleteByID(ctx, postID)
	if err != nil {
		return pkg.Dependency("failed to delete trivia", err)
	}
	if n == 0 {
		return pkg.ErrPostNotFound
	}
	if s.cache != nil {
		_ = s.cache.Forget(ctx, postID)
	}
	return nil
}

// VerifyEmail marks the target's address confirmed.
func (s *ModerationService) VerifyEmail(ctx context.Context, actorID, targetID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if targetID == "" {
		return pkg.ErrUserIDRequired
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return pkg.Dependency("failed to load user", err)
	}
	if target == nil {
		return pkg.ErrUserNotFound
	}
	if _, err := s.users.ConfirmEmail(ctx, targetID, s.now()); err != nil {
		return pkg.Dependency("failed to update email confirmation", err)
	}
	return nil
}

func (s *ModerationService) ListUsers(ctx context.Context, actorID string) ([]model.UserSummary, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	list, err := s.users.ListWithPostCounts(ctx)
	if err != nil {
		return nil, pkg.Dependency("failed to list users", err)
	}
	if list == nil {
		list = []model.UserSummary{}
	}
	return list, nil
}

type CategoryInput struct {
	Name      string
	Slug      string
	Icon      string
	Color     string
	SortOrder int
}

func (s *ModerationService) CreateCategory(ctx context.Context, actorID string, in CategoryInput) (*model.Category, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	name, slug := strings.TrimSpace(in.Name), strings.TrimSpace(in.Slug)
	if name == "" || slug == "" {
		return nil, pkg.NewError(pkg.KindInvalid, "name and slug are required")
	}
	c := &model.Category{Name: name, Slug: slug, Icon: in.Icon, Color: in.Color, SortOrder: in.SortOrder}
	if err := s.categories.Create(ctx, c); err != nil {
		if mysql.IsDuplicate(err) {
			return nil, pkg.ErrDuplicateCategory
		}
		return nil, pkg.Dependency("failed to create category", err)
	}
	return c, nil
}

// DeleteCategory detaches the category's posts; the posts themselves stay.
func (s *ModerationService) DeleteCategory(ctx context.Context, actorID, categoryID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if categoryID == "" {
		return pkg.ErrInvalidID
	}
	n, err := s.categories.Delete(ctx, categoryID)
	if err != nil {
		return pkg.Dependency("failed to delete category", err)
	}
	if n == 0 {
		return pkg.ErrCategoryNotFound
	}
	return nil
}
