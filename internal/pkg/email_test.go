package pkg

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goldenView() NotificationView {
	return NotificationView{
		RecipientName:  "Hanako",
		ActingUsername: "Taro",
		PostTitle:      "Octopuses have <three> hearts",
		PostURL:        "https://mamane.vercel.app/trivia/post-1",
	}
}

func TestRenderNotification_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, kind := range []string{TemplateReaction, TemplateFavorite, TemplateNewPost} {
		t.Run(kind, func(t *testing.T) {
			v := goldenView()
			if kind == TemplateNewPost {
				v.ActingUsername = ""
				v.PostTitle = "Honey never spoils"
			}
			_, html, err := RenderNotification(kind, v)
			require.NoError(t, err)
			g.Assert(t, "notification_"+kind, []byte(html))
		})
	}
}

func TestRenderNotification_Subjects(t *testing.T) {
	subject, _, err := RenderNotification(TemplateReaction, goldenView())
	require.NoError(t, err)
	assert.Equal(t, "Taro rashered your trivia!", subject)

	subject, _, err = RenderNotification(TemplateFavorite, goldenView())
	require.NoError(t, err)
	assert.Equal(t, "Taro added your trivia to favorites", subject)

	subject, _, err = RenderNotification(TemplateNewPost, goldenView())
	require.NoError(t, err)
	assert.Equal(t, "New trivia was posted", subject)
}

func TestRenderNotification_UnknownType(t *testing.T) {
	_, _, err := RenderNotification("hee", goldenView())
	assert.ErrorIs(t, err, ErrUnknownNotifyType)
}

func TestMailDomain(t *testing.T) {
	assert.Equal(t, "mamane.app", mailDomain("mamane <noreply@mamane.app>"))
	assert.Equal(t, "example.com", mailDomain("a@example.com"))
	assert.Equal(t, "localhost", mailDomain("nobody"))
}
