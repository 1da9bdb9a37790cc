package dialog

import (
	"context"
	"sync"
)

type Notice struct {
	Title string
	Body  string
}

// Preanswered stands in for a viewer who has already answered. The
// server-rendered pages use it: the confirmation page was shown on GET, so
// the POST arrives with the answer. Alerts are collected so they can be
// shown on the next page.
type Preanswered struct {
	Answer Outcome

	mu      sync.Mutex
	notices []Notice
}

var _ Dialogs = &Preanswered{}

func Accepting() *Preanswered {
	return &Preanswered{Answer: Accepted}
}

func (p *Preanswered) Confirm(ctx context.Context, title, body string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Dismissed, err
	}
	return p.Answer, nil
}

func (p *Preanswered) Alert(ctx context.Context, title, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, Notice{Title: title, Body: body})
	return nil
}

func (p *Preanswered) Notices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Notice(nil), p.notices...)
}
