package feedpage

import (
	"context"
	"sync"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/dialog"
	"git.blogfront.dev/blogfront/src/markdown"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/preview"
)

// AboutID is the article alias the site uses as its about page.
const AboutID = "about"

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

// State is a snapshot of the article page. Article and Head are shared
// between snapshots and must not be modified.
type State struct {
	ID     string
	Status Status
	Error  string

	Article *models.Article
	Top     int // pin state as last acknowledged by the backend

	// Preview image found in the body, empty if there was none.
	Image string
	Head  *preview.HeadTags

	Body         string
	BodyRendered bool
}

func (s State) Loaded() bool {
	return s.Status == StatusLoaded && s.Article != nil
}

func (s State) Pinned() bool {
	return s.Top > 0
}

// NeedsAbout is true when the about page was asked for but has not been
// written yet.
func (s State) NeedsAbout() bool {
	return s.Status == StatusFailed && s.Error == TokenNotFound && s.ID == AboutID
}

// Controller runs one article page: it loads the article for an
// identifier and carries out the author actions on it.
//
// Loads are keyed on the identifier. Asking for the identifier that was
// last asked for does nothing, and a response for an identifier that has
// since been replaced is thrown away.
type Controller struct {
	deps Deps

	mu         sync.Mutex
	state      State
	lastID     string
	generation uint64

	listenersMu sync.Mutex
	listeners   map[int]func(State)
	nextID      int
}

func NewController(deps Deps) *Controller {
	return &Controller{deps: deps}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnChange calls fn with a snapshot after every state change. Call the
// returned func to stop.
func (c *Controller) OnChange(fn func(State)) func() {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	if c.listeners == nil {
		c.listeners = make(map[int]func(State))
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller) notify(s State) {
	c.listenersMu.Lock()
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// commit applies mutate if gen is still the current load and notifies
// observers. It reports whether anything was applied.
func (c *Controller) commit(gen uint64, mutate func(s *State)) bool {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return false
	}
	mutate(&c.state)
	snapshot := c.state
	c.mu.Unlock()

	c.notify(snapshot)
	return true
}

// Load shows the article for id. It returns once the article and its body
// are committed, or once it is clear this load has been superseded.
func (c *Controller) Load(ctx context.Context, id string) State {
	c.mu.Lock()
	if id == c.lastID && c.state.Status != StatusIdle {
		snapshot := c.state
		c.mu.Unlock()
		return snapshot
	}
	c.lastID = id
	c.generation++
	gen := c.generation
	c.state = State{ID: id, Status: StatusLoading}
	snapshot := c.state
	c.mu.Unlock()
	c.notify(snapshot)

	article, err := c.deps.Backend.GetArticle(ctx, id)
	if err != nil {
		msg := c.deps.errorMessage(ctx, err)
		c.commit(gen, func(s *State) {
			s.Status = StatusFailed
			s.Error = msg
		})
		return c.State()
	}

	image, _ := preview.ExtractImage(article.Content)
	head := preview.BuildHead(article, image, c.deps.Site, articleUrl(id))
	ok := c.commit(gen, func(s *State) {
		s.Status = StatusLoaded
		s.Article = article
		s.Top = article.Top
		s.Image = image
		s.Head = &head
	})
	if !ok {
		return c.State()
	}

	body := markdown.Render(article.Content)
	body = c.deps.Diagrams.Run(ctx, body)
	c.commit(gen, func(s *State) {
		s.Body = body
		s.BodyRendered = true
	})
	return c.State()
}

// Reset forgets the current article, as when the page is closed. Any load
// still in flight is dropped when it returns.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.lastID = ""
	c.generation++
	c.state = State{}
	snapshot := c.state
	c.mu.Unlock()
	c.notify(snapshot)
}

// loadedArticle returns the article actions apply to, after checking the
// viewer may act on it.
func (c *Controller) loadedArticle() (*models.Article, State, error) {
	if !c.deps.viewer().IsPrivileged() {
		return nil, State{}, ErrNotPrivileged
	}
	s := c.State()
	if !s.Loaded() {
		return nil, s, ErrNoArticle
	}
	return s.Article, s, nil
}

// Delete asks for confirmation, deletes the article and, once the viewer
// has seen the success message, goes back to the home page.
func (c *Controller) Delete(ctx context.Context) error {
	article, _, err := c.loadedArticle()
	if err != nil {
		return err
	}
	msgs := c.deps.messages()

	outcome, err := c.deps.Dialogs.Confirm(ctx, msgs.DeleteTitle, msgs.DeleteConfirm)
	if err != nil {
		return err
	}
	if outcome != dialog.Accepted {
		return nil
	}

	if err := c.deps.Backend.DeleteArticle(ctx, article.ID); err != nil {
		return c.fail(ctx, err)
	}

	if err := c.deps.Dialogs.Alert(ctx, "", msgs.DeleteSuccess); err != nil {
		return err
	}
	c.deps.navigate(blogurl.BuildHome())
	return nil
}

// TogglePin flips the pin state shown on the page.
func (c *Controller) TogglePin(ctx context.Context) error {
	if !c.deps.viewer().IsPrivileged() {
		return ErrNotPrivileged
	}
	target := 1
	if c.State().Pinned() {
		target = 0
	}
	return c.SetPin(ctx, target)
}

// SetPin pins (target 1) or unpins (target 0) the article. The request
// carries the absolute target, so repeating it leaves the same end state,
// and the local pin state changes only after the backend agrees.
func (c *Controller) SetPin(ctx context.Context, target int) error {
	article, _, err := c.loadedArticle()
	if err != nil {
		return err
	}
	if target != 0 && target != 1 {
		return ErrBadPinTarget
	}
	msgs := c.deps.messages()

	title, body, success := msgs.UnpinTitle, msgs.UnpinConfirm, msgs.UnpinSuccess
	if target == 1 {
		title, body, success = msgs.PinTitle, msgs.PinConfirm, msgs.PinSuccess
	}

	outcome, err := c.deps.Dialogs.Confirm(ctx, title, body)
	if err != nil {
		return err
	}
	if outcome != dialog.Accepted {
		return nil
	}

	if err := c.deps.Backend.SetArticleTop(ctx, article.ID, target); err != nil {
		return c.fail(ctx, err)
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.commit(gen, func(s *State) {
		if s.Article != nil && s.Article.ID == article.ID {
			s.Top = target
		}
	})

	return c.deps.Dialogs.Alert(ctx, "", success)
}

// Edit sends the viewer to the editor for the article.
func (c *Controller) Edit() error {
	article, _, err := c.loadedArticle()
	if err != nil {
		return err
	}
	c.deps.navigate(blogurl.BuildWriting(article.ID))
	return nil
}

// fail shows the viewer why a mutation did not go through.
func (c *Controller) fail(ctx context.Context, err error) error {
	msg := c.deps.errorMessage(ctx, err)
	if alertErr := c.deps.Dialogs.Alert(ctx, "", msg); alertErr != nil {
		return alertErr
	}
	return &ActionError{Message: msg, Err: err}
}

// Reload fetches the current article again even though its identifier has
// not changed.
func (c *Controller) Reload(ctx context.Context) State {
	c.mu.Lock()
	id := c.lastID
	c.lastID = ""
	c.mu.Unlock()
	if id == "" {
		return c.State()
	}
	return c.Load(ctx, id)
}
