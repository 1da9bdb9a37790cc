package feedpage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"git.blogfront.dev/blogfront/src/backend"
	"git.blogfront.dev/blogfront/src/dialog"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/preview"
	"git.blogfront.dev/blogfront/src/siteconfig"
	"git.blogfront.dev/blogfront/src/viewer"
)

// timeline records everything observable in order: backend calls, dialogs,
// navigation and login prompts.
type timeline struct {
	mu     sync.Mutex
	events []string
}

func (tl *timeline) add(format string, args ...any) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.events = append(tl.events, fmt.Sprintf(format, args...))
}

func (tl *timeline) all() []string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return append([]string(nil), tl.events...)
}

type fakeBackend struct {
	tl *timeline

	mu         sync.Mutex
	articles   map[string]*models.Article
	articleErr map[string]error
	gates      map[string]chan struct{}
	started    chan string
	comments   map[string][]models.Comment

	topErr           error
	deleteErr        error
	createErr        error
	deleteCommentErr error
}

var _ Backend = &fakeBackend{}

func newFakeBackend(tl *timeline) *fakeBackend {
	return &fakeBackend{
		tl:         tl,
		articles:   map[string]*models.Article{},
		articleErr: map[string]error{},
		gates:      map[string]chan struct{}{},
		started:    make(chan string, 16),
		comments:   map[string][]models.Comment{},
	}
}

// gate makes GetArticle(id) block until the returned func is called.
func (b *fakeBackend) gate(id string) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan struct{})
	b.gates[id] = ch
	return func() { close(ch) }
}

func (b *fakeBackend) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	b.tl.add("GET /feed/%s", id)
	select {
	case b.started <- id:
	default:
	}

	b.mu.Lock()
	gate := b.gates[id]
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.articleErr[id]; err != nil {
		return nil, err
	}
	a, ok := b.articles[id]
	if !ok {
		return nil, &backend.ErrorToken{Status: 404, Token: TokenNotFound}
	}
	copied := *a
	return &copied, nil
}

func (b *fakeBackend) DeleteArticle(ctx context.Context, id int) error {
	b.tl.add("DELETE /feed/%d", id)
	return b.deleteErr
}

func (b *fakeBackend) SetArticleTop(ctx context.Context, id int, top int) error {
	b.tl.add("POST /feed/top/%d top=%d", id, top)
	return b.topErr
}

func (b *fakeBackend) ListComments(ctx context.Context, articleID string) ([]models.Comment, error) {
	b.tl.add("GET /feed/comment/%s", articleID)
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Comment(nil), b.comments[articleID]...), nil
}

func (b *fakeBackend) CreateComment(ctx context.Context, articleID string, content string) error {
	b.tl.add("POST /feed/comment/%s content=%q", articleID, content)
	if b.createErr != nil {
		return b.createErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.comments[articleID] = append(b.comments[articleID], models.Comment{ID: 100 + len(b.comments[articleID]), Content: content})
	return nil
}

func (b *fakeBackend) DeleteComment(ctx context.Context, commentID int) error {
	b.tl.add("DELETE /comment/%d", commentID)
	return b.deleteCommentErr
}

// scriptedDialogs answers confirmations immediately. Answers are used in
// order; once they run out every confirmation is accepted.
type scriptedDialogs struct {
	tl *timeline

	mu        sync.Mutex
	answers   []dialog.Outcome
	onConfirm func()
	alertErr  error
}

var _ dialog.Dialogs = &scriptedDialogs{}

func (d *scriptedDialogs) Confirm(ctx context.Context, title, body string) (dialog.Outcome, error) {
	d.tl.add("confirm %s", title)
	d.mu.Lock()
	hook := d.onConfirm
	outcome := dialog.Accepted
	if len(d.answers) > 0 {
		outcome = d.answers[0]
		d.answers = d.answers[1:]
	}
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
	return outcome, nil
}

func (d *scriptedDialogs) Alert(ctx context.Context, title, body string) error {
	d.tl.add("alert %s", body)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alertErr
}

type harness struct {
	tl      *timeline
	backend *fakeBackend
	dialogs *scriptedDialogs
	viewer  *viewer.Holder
	flags   *siteconfig.Holder
	deps    Deps
}

var (
	admin  = &models.Viewer{ID: 1, Username: "admin", Permission: true}
	reader = &models.Viewer{ID: 5, Username: "reader"}
)

var testSite = preview.Site{Name: "Blog", Avatar: "/avatar.png"}

func newHarness(v *models.Viewer) *harness {
	tl := &timeline{}
	h := &harness{
		tl:      tl,
		backend: newFakeBackend(tl),
		dialogs: &scriptedDialogs{tl: tl},
		viewer:  viewer.NewHolder(v),
		flags:   siteconfig.NewHolder(),
	}
	h.deps = Deps{
		Backend:   h.backend,
		Dialogs:   h.dialogs,
		Navigator: NavigatorFunc(func(url string) { tl.add("navigate %s", url) }),
		Login:     LoginPrompterFunc(func() { tl.add("login") }),
		Viewer:    h.viewer,
		Flags:     h.flags,
		Site:      testSite,
	}
	return h
}

func str(s string) *string {
	return &s
}

func testArticle(id int, title string, content string) *models.Article {
	created := models.NewTime(time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC))
	return &models.Article{
		ID:        id,
		Title:     str(title),
		Content:   content,
		User:      models.ArticleAuthor{ID: 1, Username: "admin"},
		CreatedAt: created,
		UpdatedAt: created,
		Hashtags:  []models.Hashtag{},
	}
}

// recordStates collects every snapshot a controller publishes.
func recordStates(c *Controller) func() []State {
	var mu sync.Mutex
	var states []State
	c.OnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	})
	return func() []State {
		mu.Lock()
		defer mu.Unlock()
		return append([]State(nil), states...)
	}
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("expected request for %q, got %q", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for request for %q", want)
	}
}

var errConnRefused = errors.New("dial tcp: connection refused")
