package model

import (
	"time"

	"gorm.io/gorm"
)

// Reaction is a one-time "hee" on a post. The (post_id, user_id) pair is unique.
type Reaction struct {
	ID        string `gorm:"primaryKey;size:36"`
	PostID    string `gorm:"size:36;not null;uniqueIndex:uk_reaction_post_user,priority:1"`
	UserID    string `gorm:"size:36;not null;uniqueIndex:uk_reaction_post_user,priority:2;index"`
	CreatedAt time.Time
}

func (r *Reaction) BeforeCreate(*gorm.DB) error {
	newID(&r.ID)
	return nil
}
