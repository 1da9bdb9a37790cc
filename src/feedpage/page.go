package feedpage

import (
	"context"
	"strconv"
)

// Page is an article with its comment thread. The thread follows the
// article: it loads once the article is known, keyed on the article's
// numeric id rather than the alias in the URL.
type Page struct {
	Controller *Controller
	Thread     *Thread
}

func NewPage(deps Deps) *Page {
	return &Page{
		Controller: NewController(deps),
		Thread:     NewThread(deps),
	}
}

// Open loads the article for id and then its thread. The previous
// article's thread is dropped as soon as a different article is asked for,
// so comments are never shown for or posted to the wrong article.
func (p *Page) Open(ctx context.Context, id string) (State, ThreadState) {
	if p.Controller.State().ID != id {
		p.Thread.Reset()
	}
	s := p.Controller.Load(ctx, id)
	if s.ID != id {
		// Another Open took over; it owns the thread.
		return s, p.Thread.State()
	}
	if !s.Loaded() {
		p.Thread.Reset()
		return s, p.Thread.State()
	}
	return s, p.Thread.Load(ctx, strconv.Itoa(s.Article.ID))
}

func (p *Page) Close() {
	p.Controller.Reset()
	p.Thread.Reset()
}
