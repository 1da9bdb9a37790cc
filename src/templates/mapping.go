package templates

import (
	"html/template"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/models"
)

func ViewerToTemplate(v *models.Viewer) *Viewer {
	if v == nil {
		return nil
	}
	return &Viewer{
		ID:         v.ID,
		Username:   v.Username,
		Avatar:     deref(v.Avatar),
		Privileged: v.IsPrivileged(),
	}
}

func HashtagToTemplate(h models.Hashtag) Hashtag {
	return Hashtag{
		Name: h.Name,
		Url:  blogurl.BuildHashtag(h.Name),
	}
}

func HashtagsToTemplate(hs []models.Hashtag) []Hashtag {
	res := make([]Hashtag, 0, len(hs))
	for _, h := range hs {
		res = append(res, HashtagToTemplate(h))
	}
	return res
}

func HashtagSummaryToTemplate(h models.HashtagSummary) Hashtag {
	return Hashtag{
		Name:  h.Name,
		Url:   blogurl.BuildHashtag(h.Name),
		Feeds: h.Feeds,
	}
}

func FeedCardToTemplate(c *models.FeedCard) FeedCard {
	title := c.Title
	if title == "" {
		title = models.UnnamedTitle
	}
	return FeedCard{
		ID:      c.ID,
		Url:     FeedUrl(c.ID),
		Title:   title,
		Summary: c.Summary,
		Avatar:  c.Avatar,

		Pinned:   c.Top > 0,
		Draft:    c.Draft > 0,
		Unlisted: c.Draft == 0 && c.Listed == 0,

		CreatedAt: c.CreatedAt.Time,
		UpdatedAt: c.UpdatedAt.Time,
		Edited:    c.Edited(),

		Hashtags: HashtagsToTemplate(c.Hashtags),
	}
}

func FeedCardsToTemplate(cards []models.FeedCard) []FeedCard {
	res := make([]FeedCard, 0, len(cards))
	for i := range cards {
		res = append(res, FeedCardToTemplate(&cards[i]))
	}
	return res
}

// ArticleToTemplate maps an article whose body has already been rendered.
// pinned is the pin state the page currently shows, which can differ from
// the one the article was fetched with.
func ArticleToTemplate(a *models.Article, body string, image string, pinned bool) Article {
	return Article{
		ID:           a.ID,
		Url:          FeedUrl(a.ID),
		Title:        a.DisplayTitle(),
		Author:       a.User.Username,
		AuthorAvatar: deref(a.User.Avatar),
		Image:        image,

		Body: template.HTML(body),

		CreatedAt: a.CreatedAt.Time,
		UpdatedAt: a.UpdatedAt.Time,
		Edited:    a.Edited(),

		PV: a.PV,
		UV: a.UV,

		Pinned:   pinned,
		Draft:    a.IsDraft(),
		Unlisted: !a.IsDraft() && !a.IsListed(),

		Hashtags: HashtagsToTemplate(a.Hashtags),
	}
}

// AddActionUrls fills in the author actions. Call it only for viewers who
// may use them.
func (a *Article) AddActionUrls(id string) {
	a.DeleteUrl = blogurl.BuildFeedDelete(id)
	a.TopUrl = blogurl.BuildFeedTop(id)
	a.EditUrl = blogurl.BuildWriting(a.ID)
}

func CommentToTemplate(c *models.Comment, feedID string, canDelete bool) Comment {
	res := Comment{
		ID:           c.ID,
		Author:       c.User.Username,
		AuthorAvatar: deref(c.User.Avatar),
		Staff:        c.User.Permission != nil && *c.User.Permission > 0,
		Content:      RenderCommentText(c.Content),
		CreatedAt:    c.CreatedAt.Time,
	}
	if canDelete {
		res.DeleteUrl = blogurl.BuildCommentDelete(c.ID, feedID)
	}
	return res
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
