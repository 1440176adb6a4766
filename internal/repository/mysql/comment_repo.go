package mysql

import (
	"context"

	"mamane/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByPost returns comments oldest first, as a thread reads.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	var list []model.CommentWithAuthor
	err := r.DB.WithContext(ctx).
		Table("comments c").
		Select("c.id, c.content, c.created_at, c.author_id, u.username AS author_username, u.avatar_url AS author_avatar").
		Joins("JOIN users u ON u.id = c.author_id").
		Where("c.post_id = ?", postID).
		Order("c.created_at ASC").
		Scan(&list).Error
	return list, err
}

func (r *CommentRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *CommentRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{})
	return res.RowsAffected, res.Error
}

func (r *CommentRepository) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("author_id = ?", authorID).Delete(&model.Comment{})
	return res.RowsAffected, res.Error
}
