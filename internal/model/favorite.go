package model

import (
	"time"

	"gorm.io/gorm"
)

// Favorite is a reversible bookmark. Absence of the row means "not favorited".
type Favorite struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;uniqueIndex:uk_favorite_post_user,priority:1" json:"post_id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:uk_favorite_post_user,priority:2;index:idx_favorite_user_time" json:"user_id"`
	CreatedAt time.Time `gorm:"index:idx_favorite_user_time" json:"created_at"`
}

func (f *Favorite) BeforeCreate(*gorm.DB) error {
	newID(&f.ID)
	return nil
}

// FavoriteItem is a favorite joined with a summary of its post.
type FavoriteItem struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Trivia    *PostSummary `json:"trivia"`
}

type PostSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	HeeCount  int64     `json:"hee_count"`
	CreatedAt time.Time `json:"created_at"`
}
