package feedpage

import (
	"context"
	"sync"

	"git.blogfront.dev/blogfront/src/dialog"
	"git.blogfront.dev/blogfront/src/models"
)

type ThreadState struct {
	ArticleID string
	Loaded    bool
	Comments  []models.Comment

	// LoadError is why the list could not be fetched.
	LoadError string

	Draft string
	// SubmitError is why the last submission failed, already humanized.
	SubmitError string
}

// Thread is the comment section under an article. Comments appear in the
// order the backend sends them.
type Thread struct {
	deps Deps

	mu         sync.Mutex
	state      ThreadState
	generation uint64

	listenersMu sync.Mutex
	listeners   map[int]func(ThreadState)
	nextID      int
}

func NewThread(deps Deps) *Thread {
	return &Thread{deps: deps}
}

func (t *Thread) State() ThreadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Thread) Enabled() bool {
	return t.deps.commentsEnabled()
}

func (t *Thread) OnChange(fn func(ThreadState)) func() {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()
	if t.listeners == nil {
		t.listeners = make(map[int]func(ThreadState))
	}
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	return func() {
		t.listenersMu.Lock()
		defer t.listenersMu.Unlock()
		delete(t.listeners, id)
	}
}

func (t *Thread) update(mutate func(s *ThreadState)) {
	t.mu.Lock()
	mutate(&t.state)
	snapshot := t.state
	t.mu.Unlock()
	t.notify(snapshot)
}

func (t *Thread) notify(s ThreadState) {
	t.listenersMu.Lock()
	fns := make([]func(ThreadState), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.listenersMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Load fetches the comments for articleID, once per article.
func (t *Thread) Load(ctx context.Context, articleID string) ThreadState {
	if !t.Enabled() {
		return t.State()
	}

	t.mu.Lock()
	if t.state.ArticleID == articleID && articleID != "" {
		snapshot := t.state
		t.mu.Unlock()
		return snapshot
	}
	t.state = ThreadState{ArticleID: articleID}
	t.mu.Unlock()

	return t.fetch(ctx)
}

// Reload fetches the comments for the current article again.
func (t *Thread) Reload(ctx context.Context) ThreadState {
	if !t.Enabled() {
		return t.State()
	}
	return t.fetch(ctx)
}

func (t *Thread) fetch(ctx context.Context) ThreadState {
	t.mu.Lock()
	articleID := t.state.ArticleID
	t.generation++
	gen := t.generation
	t.mu.Unlock()

	if articleID == "" {
		return t.State()
	}

	comments, err := t.deps.Backend.ListComments(ctx, articleID)
	var msg string
	if err != nil {
		msg = t.deps.errorMessage(ctx, err)
	}

	t.mu.Lock()
	if t.generation != gen || t.state.ArticleID != articleID {
		snapshot := t.state
		t.mu.Unlock()
		return snapshot
	}
	if err != nil {
		t.state.LoadError = msg
	} else {
		if comments == nil {
			comments = []models.Comment{}
		}
		t.state.Comments = comments
		t.state.LoadError = ""
		t.state.Loaded = true
	}
	snapshot := t.state
	t.mu.Unlock()
	t.notify(snapshot)
	return snapshot
}

// Reset empties the thread, as when the page is closed.
func (t *Thread) Reset() {
	t.mu.Lock()
	t.generation++
	t.state = ThreadState{}
	snapshot := t.state
	t.mu.Unlock()
	t.notify(snapshot)
}

func (t *Thread) SetDraft(text string) {
	t.update(func(s *ThreadState) {
		s.Draft = text
	})
}

// Submit posts the draft. Logged-out viewers are asked to log in instead
// and keep their draft. The draft is cleared only when the backend accepts
// the comment.
func (t *Thread) Submit(ctx context.Context) error {
	if !t.Enabled() {
		return ErrCommentsDisabled
	}
	if !t.deps.viewer().IsAuthenticated() {
		t.deps.promptLogin()
		return ErrNotAuthenticated
	}

	s := t.State()
	if s.ArticleID == "" {
		return ErrNoArticle
	}
	msgs := t.deps.messages()

	if err := t.deps.Backend.CreateComment(ctx, s.ArticleID, s.Draft); err != nil {
		msg := msgs.HumanizeCommentError(t.deps.errorMessage(ctx, err))
		t.update(func(cur *ThreadState) {
			if cur.ArticleID == s.ArticleID {
				cur.SubmitError = msg
			}
		})
		return &ActionError{Message: msg, Err: err}
	}

	t.update(func(cur *ThreadState) {
		if cur.ArticleID == s.ArticleID {
			cur.Draft = ""
			cur.SubmitError = ""
		}
	})

	alertErr := t.deps.Dialogs.Alert(ctx, "", msgs.CommentPosted)
	t.Reload(ctx)
	return alertErr
}

// CanDelete reports whether the viewer gets a delete action on c.
func (t *Thread) CanDelete(c *models.Comment) bool {
	return t.deps.viewer().CanDeleteComment(c)
}

func (t *Thread) find(commentID int) (*models.Comment, bool) {
	s := t.State()
	for i := range s.Comments {
		if s.Comments[i].ID == commentID {
			return &s.Comments[i], true
		}
	}
	return nil, false
}

// Delete removes a comment after confirmation. Privileged viewers can
// delete any comment, everyone else only their own.
func (t *Thread) Delete(ctx context.Context, commentID int) error {
	if !t.Enabled() {
		return ErrCommentsDisabled
	}
	comment, ok := t.find(commentID)
	if !ok {
		return ErrNoComment
	}
	if !t.CanDelete(comment) {
		return ErrNotPrivileged
	}
	msgs := t.deps.messages()

	outcome, err := t.deps.Dialogs.Confirm(ctx, msgs.DeleteCommentTitle, msgs.DeleteCommentConfirm)
	if err != nil {
		return err
	}
	if outcome != dialog.Accepted {
		return nil
	}

	if err := t.deps.Backend.DeleteComment(ctx, comment.ID); err != nil {
		msg := t.deps.errorMessage(ctx, err)
		if alertErr := t.deps.Dialogs.Alert(ctx, "", msg); alertErr != nil {
			return alertErr
		}
		return &ActionError{Message: msg, Err: err}
	}

	alertErr := t.deps.Dialogs.Alert(ctx, "", msgs.DeleteSuccess)
	t.Reload(ctx)
	return alertErr
}
