package mysql

import (
	"context"

	"mamane/internal/model"

	"gorm.io/gorm"
)

type ReactionRepository struct {
	DB *gorm.DB
}

func (r *ReactionRepository) Exists(ctx context.Context, postID, userID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Reaction{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	return n > 0, err
}

// Insert relies on uk_reaction_post_user; a lost race returns gorm.ErrDuplicatedKey.
func (r *ReactionRepository) Insert(ctx context.Context, postID, userID string) (*model.Reaction, error) {
	row := &model.Reaction{PostID: postID, UserID: userID}
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *ReactionRepository) CountByPost(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Reaction{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}
