package website

import (
	"fmt"
	"strings"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/feedpage"
	"git.blogfront.dev/blogfront/src/preview"
	"git.blogfront.dev/blogfront/src/templates"
)

func getBaseData(c *RequestContext, title string) templates.BaseData {
	site := config.Config.Site

	docTitle := site.Name
	if title != "" {
		docTitle = fmt.Sprintf("%s - %s", title, site.Name)
	}

	baseData := templates.BaseData{
		Title: docTitle,

		CurrentUrl:      c.FullUrl(),
		LoginUrl:        config.Config.Backend.LoginUrl,
		StyleUrl:        blogurl.BuildPublic("style.css"),
		HighlightCssUrl: blogurl.BuildHighlightCSS(),

		Site: templates.Site{
			Name:        site.Name,
			Avatar:      siteAvatarUrl(),
			Description: site.Description,
			AccentColor: site.AccentColor,
		},
		Viewer:  templates.ViewerToTemplate(c.Viewer),
		Notices: getNoticesFromCookie(c),

		OpenGraphItems: buildDefaultOpenGraphItems(title),

		Header: templates.Header{
			HomeUrl:         blogurl.BuildHome(),
			HashtagsUrl:     blogurl.BuildHashtags(),
			AboutUrl:        blogurl.BuildFeed(feedpage.AboutID),
			SearchActionUrl: blogurl.BuildSearchForm(),
		},
	}

	return baseData
}

func buildDefaultOpenGraphItems(title string) []templates.OpenGraphItem {
	site := config.Config.Site
	if title == "" {
		title = site.Name
	}

	return []templates.OpenGraphItem{
		{Property: "og:title", Value: title},
		{Property: "og:site_name", Value: site.Name},
		{Property: "og:type", Value: "website"},
		{Property: "og:image", Value: siteAvatarUrl()},
	}
}

// applyHead replaces the generic document head with an article's.
func applyHead(bd *templates.BaseData, head *preview.HeadTags) {
	if head == nil {
		return
	}
	bd.Title = head.Title
	bd.CanonicalLink = head.Url
	bd.Description = head.Description
	bd.Keywords = head.Keywords
	bd.Author = head.Author
	bd.OpenGraphItems = []templates.OpenGraphItem{
		{Property: "og:title", Value: head.OgTitle},
		{Property: "og:site_name", Value: head.SiteName},
		{Property: "og:type", Value: head.OgType},
		{Property: "og:image", Value: head.Image},
		{Property: "og:url", Value: head.Url},
		{Property: "og:description", Value: head.Description},
	}
}

func siteForPreview() preview.Site {
	return preview.Site{
		Name:   config.Config.Site.Name,
		Avatar: siteAvatarUrl(),
	}
}

// siteAvatarUrl makes a root-relative avatar absolute, since link previews
// fetch og:image without a page to resolve it against.
func siteAvatarUrl() string {
	avatar := config.Config.Site.Avatar
	if strings.HasPrefix(avatar, "/") && !strings.HasPrefix(avatar, "//") {
		return blogurl.Absolute(avatar)
	}
	return avatar
}
