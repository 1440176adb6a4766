package service

import (
	"context"
	"testing"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reactionIntent() model.Intent {
	return model.Intent{
		Type:            model.IntentReaction,
		PostID:          "post-1",
		PostTitle:       "Octopuses have three hearts",
		RecipientUserID: "user-1",
		ActingUsername:  "hanako",
	}
}

func TestNotify_Sends(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	mailer := &fakeMailer{}
	svc := NewNotificationService(db, mailer, "https://mamane.vercel.app/")

	out, err := svc.Notify(context.Background(), reactionIntent())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, out.Status)
	assert.Equal(t, "<msg-1@mamane.app>", out.MessageID)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "taro@example.com", sent[0].To)
	assert.Equal(t, "hanako rashered your trivia!", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "https://mamane.vercel.app/trivia/post-1")
	assert.Contains(t, sent[0].Body, "Hi taro,")
}

func TestNotify_SkipsWhenDisabled(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro", func(u *model.User) { u.EmailNotifications = false })
	mailer := &fakeMailer{}
	svc := NewNotificationService(db, mailer, "https://mamane.vercel.app")

	out, err := svc.Notify(context.Background(), reactionIntent())
	require.NoError(t, err)
	assert.True(t, out.Skipped())
	assert.Equal(t, ReasonNotificationsDisabled, out.Reason)
	assert.Empty(t, mailer.Sent())
}

func TestNotify_Errors(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	ctx := context.Background()

	svc := NewNotificationService(db, &fakeMailer{}, "https://mamane.vercel.app")
	missing := reactionIntent()
	missing.RecipientUserID = "nobody"
	_, err := svc.Notify(ctx, missing)
	assert.ErrorIs(t, err, pkg.ErrRecipientNotFound)

	bad := reactionIntent()
	bad.Type = "poke"
	_, err = svc.Notify(ctx, bad)
	assert.ErrorIs(t, err, pkg.ErrUnknownNotifyType)
	assert.Equal(t, pkg.KindInvalid, pkg.KindOf(err))

	failing := NewNotificationService(db, &fakeMailer{err: errSMTPDown}, "https://mamane.vercel.app")
	_, err = failing.Notify(ctx, reactionIntent())
	require.Error(t, err)
	assert.Equal(t, pkg.KindDependency, pkg.KindOf(err))
	assert.ErrorIs(t, err, errSMTPDown)
}

func TestNotify_FallbackActor(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	mailer := &fakeMailer{}
	svc := NewNotificationService(db, mailer, "https://mamane.vercel.app")

	intent := reactionIntent()
	intent.Type = model.IntentFavorite
	intent.ActingUsername = ""
	_, err := svc.Notify(context.Background(), intent)
	require.NoError(t, err)
	require.Len(t, mailer.Sent(), 1)
	assert.Equal(t, "someone added your trivia to favorites", mailer.Sent()[0].Subject)
}
