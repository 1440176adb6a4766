package mysql

import (
	"context"
	"strings"

	"mamane/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

// FindByID returns (nil, nil) when the post does not exist.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// IncrementReactionCount is a single atomic UPDATE, never a read-modify-write.
func (r *PostRepository) IncrementReactionCount(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumn("reaction_count", gorm.Expr("reaction_count + 1")).Error
}

func (r *PostRepository) GetReactionCount(ctx context.Context, id string) (int64, error) {
	var p model.Post
	err := r.DB.WithContext(ctx).Select("id", "reaction_count").First(&p, "id = ?", id).Error
	if err != nil {
		return 0, err
	}
	return p.ReactionCount, nil
}

// RaiseReactionCount sets the counter to the reaction row count in one statement,
// and only when that moves it up. It reports whether the row changed.
func (r *PostRepository) RaiseReactionCount(ctx context.Context, id string) (bool, error) {
	actual := func() *gorm.DB {
		return r.DB.Model(&model.Reaction{}).Select("COUNT(*)").Where("post_id = ?", id)
	}
	res := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND reaction_count < (?)", id, actual()).
		UpdateColumn("reaction_count", gorm.Expr("(?)", actual()))
	return res.RowsAffected > 0, res.Error
}

// CountDrift is a post whose stored counter is behind its reaction rows.
type CountDrift struct {
	ID     string
	Stored int64
	Actual int64
}

// ListCountDrift finds posts whose reaction_count lags count(reactions).
func (r *PostRepository) ListCountDrift(ctx context.Context, limit int) ([]CountDrift, error) {
	var list []CountDrift
	err := r.DB.WithContext(ctx).
		Table("posts p").
		Select("p.id, p.reaction_count AS stored, COUNT(r.id) AS actual").
		Joins("LEFT JOIN reactions r ON r.post_id = p.id").
		Group("p.id, p.reaction_count").
		Having("COUNT(r.id) > p.reaction_count").
		Limit(limit).
		Scan(&list).Error
	return list, err
}

func (r *PostRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// PostQuery narrows the detail listing. Zero values mean "no filter".
type PostQuery struct {
	ID           string
	CategorySlug string
	Search       string
	OwnerID      string
	ByRanking    bool
	Offset       int
	Limit        int
}

func (r *PostRepository) ListDetails(ctx context.Context, q PostQuery) ([]model.PostDetail, error) {
	tx := r.DB.WithContext(ctx).
		Table("posts p").
		Select(`p.id, p.title, p.content, p.reaction_count AS hee_count, p.created_at,
			p.owner_id AS author_id, u.username AS author_username, u.avatar_url AS author_avatar,
			c.id AS category_id, c.name AS category_name, c.slug AS category_slug,
			c.icon AS category_icon, c.color AS category_color,
			(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comment_count`).
		Joins("JOIN users u ON u.id = p.owner_id").
		Joins("LEFT JOIN categories c ON c.id = p.category_id")

	if q.ID != "" {
		tx = tx.Where("p.id = ?", q.ID)
	}
	if q.CategorySlug != "" {
		tx = tx.Where("c.slug = ?", q.CategorySlug)
	}
	if q.OwnerID != "" {
		tx = tx.Where("p.owner_id = ?", q.OwnerID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + escapeLike(s) + "%"
		tx = tx.Where("(p.title LIKE ? ESCAPE '!' OR p.content LIKE ? ESCAPE '!')", like, like)
	}
	if q.ByRanking {
		tx = tx.Order("p.reaction_count DESC").Order("p.created_at DESC")
	} else {
		tx = tx.Order("p.created_at DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var list []model.PostDetail
	err := tx.Scan(&list).Error
	return list, err
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// DeleteByID removes one post and its reactions, favorites and comments.
func (r *PostRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	var affected int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePostChildren(tx, []string{id}); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Post{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// DeleteByOwner removes every post by ownerID with the same cascade as DeleteByID.
func (r *PostRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	var affected int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Post{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := deletePostChildren(tx, ids); err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Post{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

func deletePostChildren(tx *gorm.DB, postIDs []string) error {
	for _, m := range []any{&model.Reaction{}, &model.Favorite{}, &model.Comment{}} {
		if err := tx.Where("post_id IN ?", postIDs).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}
