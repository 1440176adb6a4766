package model

import (
	"time"

	"gorm.io/gorm"
)

// User is the account together with its public profile.
type User struct {
	ID                 string `gorm:"primaryKey;size:36"`
	Username           string `gorm:"uniqueIndex;size:32;not null"`
	Password           string `gorm:"size:255;not null" json:"-"`
	Email              string `gorm:"uniqueIndex;size:128;not null"`
	AvatarURL          string `gorm:"size:255"`
	IsAdmin            bool   `gorm:"not null;default:false"`
	IsBanned           bool   `gorm:"not null;default:false"`
	EmailConfirmedAt   *time.Time
	EmailNotifications bool `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	newID(&u.ID)
	return nil
}

// Profile is the subset of User the core reads through the identity provider.
type Profile struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	IsAdmin            bool   `json:"is_admin"`
	IsBanned           bool   `json:"is_banned"`
	EmailNotifications bool   `json:"email_notifications"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		IsAdmin:            u.IsAdmin,
		IsBanned:           u.IsBanned,
		EmailNotifications: u.EmailNotifications,
	}
}

// UserSummary is a row of the admin user list.
type UserSummary struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	AvatarURL        string     `json:"avatar_url"`
	IsAdmin          bool       `json:"is_admin"`
	IsBanned         bool       `json:"is_banned"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	TriviaCount      int64      `json:"trivia_count"`
}

// RankedUser is a row of the user ranking.
type RankedUser struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	AvatarURL        string `json:"avatar_url"`
	TotalHeeReceived int64  `json:"total_hee_received"`
}
