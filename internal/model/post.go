package model

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID       string    `gorm:"size:36;not null;index:idx_owner_time" json:"owner_id"`
	CategoryID    *string   `gorm:"size:36;index" json:"category_id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Content       string    `gorm:"type:text" json:"content"`
	ReactionCount int64     `gorm:"not null;default:0;index:idx_rank,priority:1,sort:desc" json:"hee_count"`
	CreatedAt     time.Time `gorm:"index:idx_owner_time;index:idx_rank,priority:2,sort:desc;index" json:"created_at"`
	UpdatedAt     time.Time `json:"-"`
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	newID(&p.ID)
	return nil
}

// PostDetail is a post joined with author, category and comment count.
type PostDetail struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	HeeCount       int64     `json:"hee_count"`
	CommentCount   int64     `json:"comment_count"`
	CreatedAt      time.Time `json:"created_at"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	AuthorAvatar   string    `json:"author_avatar"`
	CategoryID     *string   `json:"category_id"`
	CategoryName   *string   `json:"category_name"`
	CategorySlug   *string   `json:"category_slug"`
	CategoryIcon   *string   `json:"category_icon"`
	CategoryColor  *string   `json:"category_color"`
}
