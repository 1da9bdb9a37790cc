package templates

import (
	"html/template"
	"time"
)

type BaseData struct {
	Title          string
	CanonicalLink  string
	OpenGraphItems []OpenGraphItem
	Description    string
	Keywords       string
	Author         string
	BodyClasses    []string
	Notices        []Notice

	CurrentUrl      string
	LoginUrl        string
	LiveUrl         string
	StyleUrl        string
	HighlightCssUrl string

	Site   Site
	Viewer *Viewer
	Header Header
}

func (bd *BaseData) AddImmediateNotice(class, content string) {
	bd.Notices = append(bd.Notices, Notice{
		Class:   class,
		Content: template.HTML(template.HTMLEscapeString(content)),
	})
}

type Site struct {
	Name        string
	Avatar      string
	Description string
	AccentColor string
}

type Header struct {
	HomeUrl         string
	HashtagsUrl     string
	AboutUrl        string
	SearchActionUrl string
}

type OpenGraphItem struct {
	Property string
	Name     string
	Value    string
}

type Notice struct {
	Content template.HTML
	Class   string
}

type Viewer struct {
	ID         int
	Username   string
	Avatar     string
	Privileged bool
}

type Hashtag struct {
	Name  string
	Url   string
	Feeds int
}

type FeedCard struct {
	ID      int
	Url     string
	Title   string
	Summary string
	Avatar  string

	Pinned   bool
	Draft    bool
	Unlisted bool

	CreatedAt time.Time
	UpdatedAt time.Time
	Edited    bool

	Hashtags []Hashtag
}

type Article struct {
	ID           int
	Url          string
	Title        string
	Author       string
	AuthorAvatar string
	Image        string

	Body template.HTML

	CreatedAt time.Time
	UpdatedAt time.Time
	Edited    bool

	PV int
	UV int

	Pinned   bool
	Draft    bool
	Unlisted bool

	Hashtags []Hashtag

	// Only set for viewers allowed to use them.
	DeleteUrl string
	TopUrl    string
	EditUrl   string
}

type Comment struct {
	ID           int
	Author       string
	AuthorAvatar string
	Staff        bool
	Content      template.HTML
	CreatedAt    time.Time

	// Empty when the viewer may not delete the comment.
	DeleteUrl string
}

type ListTab struct {
	Name   string
	Url    string
	Active bool
}

type Pagination struct {
	Current     int
	PreviousUrl string
	NextUrl     string
}
