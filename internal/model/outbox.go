package model

import "time"

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// NotificationOutbox holds notification intents waiting for the relayer.
type NotificationOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"`
	PostID    string `gorm:"size:36;not null"`
	Recipient string `gorm:"size:36;not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (NotificationOutbox) TableName() string { return "notification_outbox" }

// Intent is a transient notification request handed to a dispatcher.
type Intent struct {
	Type            string `json:"type" binding:"required,oneof=reaction favorite newPost"`
	PostID          string `json:"postId" binding:"required"`
	PostTitle       string `json:"postTitle"`
	RecipientUserID string `json:"recipientUserId" binding:"required"`
	ActingUsername  string `json:"actingUsername"`
	// EventID names the occurrence that produced the intent, so a favorite that is
	// removed and added again is a new event. Retries of one event share it.
	EventID string `json:"eventId,omitempty"`
}

const (
	IntentReaction = "reaction"
	IntentFavorite = "favorite"
	IntentNewPost  = "newPost"
)

// Key identifies an intent for deduplication.
func (i Intent) Key() string {
	key := i.Type + ":" + i.PostID + ":" + i.RecipientUserID + ":" + i.ActingUsername
	if i.EventID != "" {
		key += ":" + i.EventID
	}
	return key
}

// Models lists everything AutoMigrate must create.
func Models() []any {
	return []any{
		&User{},
		&Category{},
		&Post{},
		&Reaction{},
		&Favorite{},
		&Comment{},
		&NotificationOutbox{},
	}
}
