package service

import (
	"context"
	"errors"
	"sync"

	"mamane/internal/model"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return "<msg-1@mamane.app>", nil
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

var errSMTPDown = errors.New("smtp: connection refused")

type recordingDispatcher struct {
	mu      sync.Mutex
	intents []model.Intent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, intent model.Intent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intent)
}

func (d *recordingDispatcher) Intents() []model.Intent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Intent(nil), d.intents...)
}

// scriptedNotifier fails with errs in order, then succeeds.
type scriptedNotifier struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (n *scriptedNotifier) Notify(context.Context, model.Intent) (Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if len(n.errs) > 0 {
		err := n.errs[0]
		n.errs = n.errs[1:]
		return Outcome{}, err
	}
	return Outcome{Status: OutcomeSent, MessageID: "<ok@mamane.app>"}, nil
}

func (n *scriptedNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}
