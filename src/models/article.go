package models

import (
	"encoding/json"

	"git.blogfront.dev/blogfront/src/utils"
)

const UnnamedTitle = "Unnamed"

type Hashtag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ArticleAuthor struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

type Article struct {
	ID      int     `json:"id"`
	Title   *string `json:"title"`
	Content string  `json:"content"`
	Summary string  `json:"summary"`
	UID     int     `json:"uid"`

	User ArticleAuthor `json:"user"`

	CreatedAt Time `json:"createdAt"`
	UpdatedAt Time `json:"updatedAt"`

	PV     int `json:"pv"`
	UV     int `json:"uv"`
	Top    int `json:"top"`
	Draft  int `json:"draft"`
	Listed int `json:"listed"`

	Hashtags []Hashtag `json:"hashtags"`
}

func (a *Article) UnmarshalJSON(b []byte) error {
	type rawArticle Article
	var raw rawArticle
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = Article(raw)
	a.normalize()
	return nil
}

func (a *Article) normalize() {
	a.Hashtags = DedupeHashtags(a.Hashtags)
	if a.UpdatedAt.Before(a.CreatedAt.Time) {
		a.UpdatedAt = a.CreatedAt
	}
}

// Edited is false for an article that has never been modified after
// creation. Pages only show an "updated" timestamp for edited articles.
func (a *Article) Edited() bool {
	return !a.UpdatedAt.Equal(a.CreatedAt.Time)
}

// DisplayTitle substitutes UnnamedTitle for an article without a title.
// An empty title is shown as it is.
func (a *Article) DisplayTitle() string {
	if a.Title == nil {
		return UnnamedTitle
	}
	return *a.Title
}

func (a *Article) RawTitle() string {
	if a.Title == nil {
		return ""
	}
	return *a.Title
}

func (a *Article) IsPinned() bool {
	return a.Top > 0
}

func (a *Article) IsDraft() bool {
	return a.Draft > 0
}

func (a *Article) IsListed() bool {
	return a.Listed > 0
}

func (a *Article) HashtagNames() []string {
	names := make([]string, 0, len(a.Hashtags))
	for _, h := range a.Hashtags {
		names = append(names, h.Name)
	}
	return names
}

// DedupeHashtags removes repeated hashtag names, keeping the first one seen.
func DedupeHashtags(tags []Hashtag) []Hashtag {
	if tags == nil {
		return []Hashtag{}
	}
	return utils.DedupeBy(tags, func(h Hashtag) string { return h.Name })
}
