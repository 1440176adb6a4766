package pkg

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer delivers a rendered HTML message and returns its Message-ID.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) (string, error)
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: false}
	return &SMTPMailer{cfg: cfg, dialer: d}
}

func (s *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), mailDomain(s.cfg.From))

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", id)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return "", err
	}
	return id, nil
}

func mailDomain(from string) string {
	from = strings.TrimSuffix(from, ">")
	if i := strings.LastIndex(from, "@"); i >= 0 {
		return from[i+1:]
	}
	return "localhost"
}

// Notification templates, keyed by intent type.
const (
	TemplateReaction = "reaction"
	TemplateFavorite = "favorite"
	TemplateNewPost  = "newPost"
)

type NotificationView struct {
	RecipientName  string
	ActingUsername string
	PostTitle      string
	PostURL        string
}

const notificationLayout = `{{define "layout"}}<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #EC4899;">mamane</h2>
  <p>Hi {{.RecipientName}},</p>
  {{template "body" .}}
  <p><a href="{{.PostURL}}" style="display: inline-block; background: #EC4899; color: white; padding: 12px 24px; border-radius: 9999px; text-decoration: none;">View trivia</a></p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;" />
  <p style="color: #888; font-size: 12px;">This notification was sent by mamane.</p>
</div>
{{end}}`

var notificationBodies = map[string]struct {
	subject string
	body    string
}{
	TemplateReaction: {
		subject: "%s rashered your trivia!",
		body:    `{{define "body"}}<p><strong>{{.ActingUsername}}</strong> rashered your trivia "<strong>{{.PostTitle}}</strong>"!</p>{{end}}`,
	},
	TemplateFavorite: {
		subject: "%s added your trivia to favorites",
		body:    `{{define "body"}}<p><strong>{{.ActingUsername}}</strong> added your trivia "<strong>{{.PostTitle}}</strong>" to favorites!</p>{{end}}`,
	},
	TemplateNewPost: {
		subject: "New trivia was posted",
		body:    `{{define "body"}}<p>New trivia "<strong>{{.PostTitle}}</strong>" was posted!</p>{{end}}`,
	},
}

var notificationTemplates = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(notificationBodies))
	for name, b := range notificationBodies {
		t := template.Must(template.New(name).Parse(notificationLayout))
		out[name] = template.Must(t.Parse(b.body))
	}
	return out
}()

// RenderNotification returns the subject and HTML body for a notification type.
func RenderNotification(kind string, v NotificationView) (string, string, error) {
	tpl, ok := notificationTemplates[kind]
	if !ok {
		return "", "", ErrUnknownNotifyType
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return "", "", err
	}
	subject := notificationBodies[kind].subject
	if strings.Contains(subject, "%s") {
		subject = fmt.Sprintf(subject, v.ActingUsername)
	}
	return subject, buf.String(), nil
}
