package mysql

import (
	"context"
	"time"

	"mamane/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

// FindByUsername matches either the username or the email.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ? OR email = ?", username, username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns (nil, nil) when the user does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetBanned returns the number of rows updated, zero when the user does not exist.
func (r *UserRepository) SetBanned(ctx context.Context, id string, banned bool) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_banned", banned)
	return tx.RowsAffected, tx.Error
}

func (r *UserRepository) ConfirmEmail(ctx context.Context, id string, at time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("email_confirmed_at", at)
	return tx.RowsAffected, tx.Error
}

func (r *UserRepository) SetEmailNotifications(ctx context.Context, id string, enabled bool) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("email_notifications", enabled).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, user *model.User, newPassword string) error {
	return r.DB.WithContext(ctx).Model(user).Update("password", newPassword).Error
}

// ListWithPostCounts returns every user newest first with the number of posts they authored.
func (r *UserRepository) ListWithPostCounts(ctx context.Context) ([]model.UserSummary, error) {
	var list []model.UserSummary
	err := r.DB.WithContext(ctx).
		Table("users u").
		Select(`u.id, u.email, u.username, u.avatar_url, u.is_admin, u.is_banned,
			u.email_confirmed_at, u.created_at, COUNT(p.id) AS trivia_count`).
		Joins("LEFT JOIN posts p ON p.owner_id = u.id").
		Group("u.id, u.email, u.username, u.avatar_url, u.is_admin, u.is_banned, u.email_confirmed_at, u.created_at").
		Order("u.created_at DESC").
		Scan(&list).Error
	return list, err
}

// Ranking orders users by the reactions their posts received.
func (r *UserRepository) Ranking(ctx context.Context, limit int) ([]model.RankedUser, error) {
	var list []model.RankedUser
	err := r.DB.WithContext(ctx).
		Table("users u").
		Select("u.id, u.username, u.avatar_url, COALESCE(SUM(p.reaction_count), 0) AS total_hee_received").
		Joins("JOIN posts p ON p.owner_id = u.id").
		Where("u.is_banned = ?", false).
		Group("u.id, u.username, u.avatar_url").
		Order("total_hee_received DESC").
		Limit(limit).
		Scan(&list).Error
	return list, err
}
