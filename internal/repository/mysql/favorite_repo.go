package mysql

import (
	"context"

	"mamane/internal/model"

	"gorm.io/gorm"
)

type FavoriteRepository struct {
	DB *gorm.DB
}

func (r *FavoriteRepository) Exists(ctx context.Context, postID, userID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Favorite{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	return n > 0, err
}

// Insert relies on uk_favorite_post_user; a lost race returns gorm.ErrDuplicatedKey.
func (r *FavoriteRepository) Insert(ctx context.Context, postID, userID string) error {
	return r.DB.WithContext(ctx).Create(&model.Favorite{PostID: postID, UserID: userID}).Error
}

// Delete is idempotent and reports how many rows went away.
func (r *FavoriteRepository) Delete(ctx context.Context, postID, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.Favorite{})
	return res.RowsAffected, res.Error
}

// ListByUser returns the user's favorites newest first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]model.FavoriteItem, error) {
	var rows []model.Favorite
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.FavoriteItem{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.PostID)
	}
	var posts []model.Post
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}

	out := make([]model.FavoriteItem, 0, len(rows))
	for _, f := range rows {
		item := model.FavoriteItem{ID: f.ID, CreatedAt: f.CreatedAt}
		if p, ok := byID[f.PostID]; ok {
			item.Trivia = &model.PostSummary{ID: p.ID, Title: p.Title, HeeCount: p.ReactionCount, CreatedAt: p.CreatedAt}
		}
		out = append(out, item)
	}
	return out, nil
}
