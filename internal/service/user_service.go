package service

import (
	"context"
	"errors"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService is the identity provider: accounts, sessions and profiles.
type UserService struct {
	repo     *mysql.UserRepository
	sessions *redis.SessionRepository
	tokens   *pkg.TokenManager
}

func NewUserService(db *gorm.DB, rdb *goredis.Client, tokens *pkg.TokenManager) *UserService {
	return &UserService{
		repo:     &mysql.UserRepository{DB: db},
		sessions: &redis.SessionRepository{RDB: rdb},
		tokens:   tokens,
	}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkg.Dependency("failed to hash password", err)
	}

	user := &model.User{
		Username:           username,
		Password:           string(hash),
		Email:              email,
		EmailNotifications: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if mysql.IsDuplicate(err) {
			return nil, pkg.ErrDuplicateAccount
		}
		return nil, pkg.Dependency("failed to create user", err)
	}
	return user, nil
}

// Login issues a token pair. The access token becomes the user's only live session.
func (s *UserService) Login(ctx context.Context, username, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.ErrInvalidCreds
		}
		return nil, pkg.Dependency("failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.ErrInvalidCreds
	}
	if user.IsBanned {
		return nil, pkg.ErrBanned
	}
	return s.issue(ctx, user.ID)
}

func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteUserToken(ctx, userID); err != nil {
		return pkg.Dependency("logout failed", err)
	}
	return nil
}

// Refresh trades a refresh token for a new pair. Banned users are signed out here.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, pkg.NewError(pkg.KindUnauthorized, err.Error())
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkg.Dependency("failed to load user", err)
	}
	if user == nil {
		return nil, pkg.ErrUnauthorized
	}
	if user.IsBanned {
		_ = s.sessions.DeleteUserToken(ctx, user.ID)
		return nil, pkg.ErrBanned
	}
	return s.issue(ctx, user.ID)
}

func (s *UserService) issue(ctx context.Context, userID string) (*pkg.Pair, error) {
	pair, err := s.tokens.GeneratePair(userID)
	if err != nil {
		return nil, pkg.Dependency("failed to sign token", err)
	}
	if err := s.sessions.AddUserToken(ctx, userID, pair.AccessToken); err != nil {
		return nil, pkg.Dependency("failed to store session", err)
	}
	return pair, nil
}

// GetProfile returns ErrUserNotFound for unknown ids.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkg.Dependency("failed to load profile", err)
	}
	if user == nil {
		return nil, pkg.ErrUserNotFound
	}
	p := user.Profile()
	return &p, nil
}

func (s *UserService) SetEmailNotifications(ctx context.Context, userID string, enabled bool) error {
	if err := s.repo.SetEmailNotifications(ctx, userID, enabled); err != nil {
		return pkg.Dependency("failed to update settings", err)
	}
	return nil
}

// ChangePassword checks the old password and ends the current session.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return pkg.Dependency("failed to load user", err)
	}
	if user == nil {
		return pkg.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return pkg.NewError(pkg.KindInvalid, "old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return pkg.Dependency("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, user, string(hash)); err != nil {
		return pkg.Dependency("failed to update password", err)
	}
	return s.Logout(ctx, userID)
}
