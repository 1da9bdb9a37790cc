package live

import (
	"encoding/json"

	"git.blogfront.dev/blogfront/src/feedpage"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/preview"
)

type Op string

const (
	OpOpen          Op = "open"
	OpClose         Op = "close"
	OpPin           Op = "pin"
	OpDelete        Op = "delete"
	OpEdit          Op = "edit"
	OpCommentDraft  Op = "comment.draft"
	OpCommentSubmit Op = "comment.submit"
	OpCommentDelete Op = "comment.delete"
	OpDialogAccept  Op = "dialog.accept"
	OpDialogDismiss Op = "dialog.dismiss"
)

// ClientMessage is a frame sent by the browser. Only the fields the op
// needs are set.
type ClientMessage struct {
	Op        Op     `json:"op"`
	ID        string `json:"id,omitempty"`
	Content   string `json:"content,omitempty"`
	CommentID int    `json:"commentId,omitempty"`
}

type EventName string

const (
	EventState        EventName = "state"
	EventDialog       EventName = "dialog"
	EventDialogClosed EventName = "dialog.closed"
	EventNavigate     EventName = "navigate"
	EventLogin        EventName = "login"
	EventError        EventName = "error"
)

type ServerMessage struct {
	Event EventName `json:"event"`
	Data  any       `json:"data,omitempty"`
}

func (m *ServerMessage) ToJSON() []byte {
	mBytes, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return mBytes
}

type StatePayload struct {
	Viewer  *models.Viewer `json:"viewer"`
	Article ArticleView    `json:"article"`
	Thread  ThreadView     `json:"thread"`
}

type ArticleView struct {
	ID           string             `json:"id"`
	Status       string             `json:"status"`
	Error        string             `json:"error,omitempty"`
	NeedsAbout   bool               `json:"needsAbout,omitempty"`
	Article      *models.Article    `json:"article,omitempty"`
	Pinned       bool               `json:"pinned"`
	Image        string             `json:"image,omitempty"`
	Head         *preview.HeadTags  `json:"head,omitempty"`
	Body         string             `json:"body,omitempty"`
	BodyRendered bool               `json:"bodyRendered"`
	Actions      *ArticleActionView `json:"actions,omitempty"`
}

// ArticleActionView lists what the viewer may do with the article. It is
// omitted for viewers who can do nothing.
type ArticleActionView struct {
	Delete bool `json:"delete"`
	Pin    bool `json:"pin"`
	Edit   bool `json:"edit"`
}

type CommentView struct {
	models.Comment
	CanDelete bool `json:"canDelete"`
}

type ThreadView struct {
	ArticleID   string        `json:"articleId,omitempty"`
	Enabled     bool          `json:"enabled"`
	Loaded      bool          `json:"loaded"`
	Comments    []CommentView `json:"comments"`
	LoadError   string        `json:"loadError,omitempty"`
	Draft       string        `json:"draft"`
	SubmitError string        `json:"submitError,omitempty"`
}

type DialogPayload struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type DialogClosedPayload struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
}

type NavigatePayload struct {
	Path string `json:"path"`
}

type LoginPayload struct {
	Url string `json:"url"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func articleView(s feedpage.State, v *models.Viewer) ArticleView {
	view := ArticleView{
		ID:           s.ID,
		Status:       s.Status.String(),
		Error:        s.Error,
		NeedsAbout:   s.NeedsAbout(),
		Article:      s.Article,
		Pinned:       s.Pinned(),
		Image:        s.Image,
		Head:         s.Head,
		Body:         s.Body,
		BodyRendered: s.BodyRendered,
	}
	if s.Loaded() && v.IsPrivileged() {
		view.Actions = &ArticleActionView{Delete: true, Pin: true, Edit: true}
	}
	return view
}

func threadView(t *feedpage.Thread, s feedpage.ThreadState) ThreadView {
	comments := make([]CommentView, 0, len(s.Comments))
	for i := range s.Comments {
		comments = append(comments, CommentView{
			Comment:   s.Comments[i],
			CanDelete: t.CanDelete(&s.Comments[i]),
		})
	}
	return ThreadView{
		ArticleID:   s.ArticleID,
		Enabled:     t.Enabled(),
		Loaded:      s.Loaded,
		Comments:    comments,
		LoadError:   s.LoadError,
		Draft:       s.Draft,
		SubmitError: s.SubmitError,
	}
}
