package service

import (
	"context"
	"strings"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"

	"gorm.io/gorm"
)

const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"

	ReasonNotificationsDisabled = "notifications_disabled"

	fallbackActor = "someone"
)

// Outcome records what Notify did with an intent.
type Outcome struct {
	Status    string
	Reason    string
	MessageID string
}

func (o Outcome) Skipped() bool { return o.Status == OutcomeSkipped }

// IntentNotifier delivers one intent synchronously.
type IntentNotifier interface {
	Notify(ctx context.Context, intent model.Intent) (Outcome, error)
}

// NotificationService resolves the recipient, renders the template and hands it to the mailer.
type NotificationService struct {
	users   *mysql.UserRepository
	mailer  pkg.Mailer
	siteURL string
}

func NewNotificationService(db *gorm.DB, mailer pkg.Mailer, siteURL string) *NotificationService {
	return &NotificationService{
		users:   &mysql.UserRepository{DB: db},
		mailer:  mailer,
		siteURL: strings.TrimRight(siteURL, "/"),
	}
}

func (s *NotificationService) Notify(ctx context.Context, intent model.Intent) (Outcome, error) {
	recipient, err := s.users.FindByID(ctx, intent.RecipientUserID)
	if err != nil {
		return Outcome{}, pkg.Dependency("failed to load recipient", err)
	}
	if recipient == nil {
		return Outcome{}, pkg.ErrRecipientNotFound
	}
	if !recipient.EmailNotifications {
		return Outcome{Status: OutcomeSkipped, Reason: ReasonNotificationsDisabled}, nil
	}

	actor := intent.ActingUsername
	if actor == "" {
		actor = fallbackActor
	}
	subject, body, err := pkg.RenderNotification(intent.Type, pkg.NotificationView{
		RecipientName:  recipient.Username,
		ActingUsername: actor,
		PostTitle:      intent.PostTitle,
		PostURL:        s.siteURL + "/trivia/" + intent.PostID,
	})
	if err != nil {
		if pkg.KindOf(err) == pkg.KindInvalid {
			return Outcome{}, err
		}
		return Outcome{}, pkg.Dependency("failed to render notification", err)
	}

	id, err := s.mailer.Send(ctx, recipient.Email, subject, body)
	if err != nil {
		return Outcome{}, pkg.Dependency("failed to send email", err)
	}
	return Outcome{Status: OutcomeSent, MessageID: id}, nil
}

// retryable reports whether a failed delivery can succeed on a later attempt.
func retryable(err error) bool {
	return pkg.KindOf(err) == pkg.KindDependency
}
