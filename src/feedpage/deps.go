package feedpage

import (
	"context"
	"errors"

	"git.blogfront.dev/blogfront/src/backend"
	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/dialog"
	"git.blogfront.dev/blogfront/src/diagram"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/preview"
	"git.blogfront.dev/blogfront/src/siteconfig"
	"git.blogfront.dev/blogfront/src/viewer"
)

// Backend is the part of the blog backend the article page talks to.
// *backend.Session implements it.
type Backend interface {
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	DeleteArticle(ctx context.Context, id int) error
	SetArticleTop(ctx context.Context, id int, top int) error
	ListComments(ctx context.Context, articleID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, articleID string, content string) error
	DeleteComment(ctx context.Context, commentID int) error
}

var _ Backend = &backend.Session{}

type Navigator interface {
	Navigate(url string)
}

type NavigatorFunc func(url string)

func (f NavigatorFunc) Navigate(url string) { f(url) }

type LoginPrompter interface {
	PromptLogin()
}

type LoginPrompterFunc func()

func (f LoginPrompterFunc) PromptLogin() { f() }

var (
	ErrNotPrivileged    = errors.New("viewer is not allowed to do that")
	ErrNotAuthenticated = errors.New("viewer is not logged in")
	ErrNoArticle        = errors.New("no article is loaded")
	ErrNoComment        = errors.New("comment is not in the thread")
	ErrCommentsDisabled = errors.New("comments are disabled")
	ErrBadPinTarget     = errors.New("pin target must be 0 or 1")
)

// ActionError is a backend rejection of a mutation. Message is what the
// viewer was shown.
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Deps are the collaborators shared by a Controller and its Thread. Viewer
// and Flags may be nil, meaning nobody is logged in and all flags are at
// their defaults.
type Deps struct {
	Backend   Backend
	Dialogs   dialog.Dialogs
	Navigator Navigator
	Login     LoginPrompter
	Viewer    *viewer.Holder
	Flags     *siteconfig.Holder
	Diagrams  *diagram.Pass
	Site      preview.Site
	Messages  Messages
}

func (d *Deps) viewer() *models.Viewer {
	if d.Viewer == nil {
		return nil
	}
	return d.Viewer.Get()
}

func (d *Deps) commentsEnabled() bool {
	return d.Flags == nil || d.Flags.CommentEnabled()
}

func (d *Deps) navigate(url string) {
	if d.Navigator != nil {
		d.Navigator.Navigate(url)
	}
}

func (d *Deps) promptLogin() {
	if d.Login != nil {
		d.Login.PromptLogin()
	}
}

func (d *Deps) messages() Messages {
	if d.Messages == (Messages{}) {
		return English
	}
	return d.Messages
}

// errorMessage is what the viewer sees when a backend call fails.
func (d *Deps) errorMessage(ctx context.Context, err error) string {
	if token, ok := backend.TokenOf(err); ok {
		return token
	}
	if errors.Is(err, backend.ErrMalformedResponse) {
		logging.ExtractLogger(ctx).Warn().Err(err).Msg("backend sent something unexpected")
		return d.messages().UnexpectedResponse
	}
	logging.ExtractLogger(ctx).Error().Err(err).Msg("backend request failed")
	return d.messages().NetworkError
}

func articleUrl(id string) string {
	return blogurl.BuildFeed(id)
}
