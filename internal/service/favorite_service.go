package service

import (
	"context"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FavoriteService is a reversible per-user bookmark on a post.
type FavoriteService struct {
	posts      *mysql.PostRepository
	favorites  *mysql.FavoriteRepository
	users      *mysql.UserRepository
	dispatcher Dispatcher
}

func NewFavoriteService(db *gorm.DB, d Dispatcher) *FavoriteService {
	return &FavoriteService{
		posts:      &mysql.PostRepository{DB: db},
		favorites:  &mysql.FavoriteRepository{DB: db},
		users:      &mysql.UserRepository{DB: db},
		dispatcher: d,
	}
}

// Toggle removes an existing favorite or adds a new one and reports the resulting state.
func (s *FavoriteService) Toggle(ctx context.Context, postID, userID string) (bool, error) {
	if userID == "" {
		return false, pkg.ErrUnauthorized
	}
	if postID == "" {
		return false, pkg.ErrInvalidID
	}

	exists, err := s.favorites.Exists(ctx, postID, userID)
	if err != nil {
		return false, pkg.Dependency("failed to check favorite", err)
	}
	if exists {
		if _, err := s.favorites.Delete(ctx, postID, userID); err != nil {
			return false, pkg.Dependency("failed to remove favorite", err)
		}
		return false, nil
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return false, pkg.Dependency("failed to load trivia", err)
	}
	if post == nil {
		return false, pkg.ErrPostNotFound
	}

	if err := s.favorites.Insert(ctx, postID, userID); err != nil {
		// a concurrent add won; the caller's desired state already holds
		if mysql.IsDuplicate(err) {
			return true, nil
		}
		return false, pkg.Dependency("failed to add favorite", err)
	}

	if post.OwnerID != userID {
		s.dispatcher.Dispatch(ctx, model.Intent{
			Type:            model.IntentFavorite,
			PostID:          post.ID,
			PostTitle:       post.Title,
			RecipientUserID: post.OwnerID,
			ActingUsername:  actorName(ctx, s.users, userID),
			EventID:         uuid.NewString(),
		})
	}
	return true, nil
}

// IsFavorited is false for anonymous callers.
func (s *FavoriteService) IsFavorited(ctx context.Context, postID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if postID == "" {
		return false, pkg.ErrInvalidID
	}
	ok, err := s.favorites.Exists(ctx, postID, userID)
	if err != nil {
		return false, pkg.Dependency("failed to check favorite", err)
	}
	return ok, nil
}

// List returns the user's favorites newest first.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]model.FavoriteItem, error) {
	if userID == "" {
		return nil, pkg.ErrInvalidID
	}
	items, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkg.Dependency("failed to list favorites", err)
	}
	return items, nil
}
