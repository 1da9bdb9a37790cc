package website

import (
	"net/http"
	"strings"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/templates"
)

type FeedListData struct {
	templates.BaseData

	Tabs       []templates.ListTab
	Cards      []templates.FeedCard
	Pagination templates.Pagination
}

func FeedList(c *RequestContext) ResponseData {
	query := c.Req.URL.Query()
	listType := models.ParseListType(query.Get("type"))
	if listType.Privileged() && !c.Viewer.IsPrivileged() {
		return FourOhFour(c)
	}

	page, ok := parsePageParam(query.Get("page"))
	if !ok {
		return c.Redirect(blogurl.BuildFeedList(listType, page), http.StatusSeeOther)
	}

	list, err := c.Backend.ListFeeds(c, listType, page, config.Config.Site.PageSize)
	if err != nil {
		return backendErrorResponse(c, err, "failed to fetch feed list")
	}

	title := ""
	if listType != models.ListNormal {
		title = templates.ListTypeName(listType)
	}
	baseData := getBaseData(c, title)
	baseData.BodyClasses = append(baseData.BodyClasses, "feed-list-page")

	var res ResponseData
	res.MustWriteTemplate("feed_list.html", FeedListData{
		BaseData:   baseData,
		Tabs:       templates.ListTabs(listType, c.Viewer.IsPrivileged()),
		Cards:      templates.FeedCardsToTemplate(list.Data),
		Pagination: templates.FeedListPagination(listType, page, list.HasNext),
	}, c.Perf)
	return res
}

type HashtagsData struct {
	templates.BaseData

	Hashtags []templates.Hashtag
}

// Hashtags lists the hashtags that have at least one article.
func Hashtags(c *RequestContext) ResponseData {
	tags, err := c.Backend.ListHashtags(c)
	if err != nil {
		return backendErrorResponse(c, err, "failed to fetch hashtags")
	}

	nonEmpty := models.NonEmptyHashtags(tags)
	templateTags := make([]templates.Hashtag, 0, len(nonEmpty))
	for _, t := range nonEmpty {
		templateTags = append(templateTags, templates.HashtagSummaryToTemplate(t))
	}

	var res ResponseData
	res.MustWriteTemplate("hashtags.html", HashtagsData{
		BaseData: getBaseData(c, "Hashtags"),
		Hashtags: templateTags,
	}, c.Perf)
	return res
}

type HashtagData struct {
	templates.BaseData

	Hashtag string
	Cards   []templates.FeedCard
}

func Hashtag(c *RequestContext) ResponseData {
	name := c.PathParams["name"]
	detail, err := c.Backend.GetHashtag(c, name)
	if err != nil {
		return backendErrorResponse(c, err, "failed to fetch hashtag")
	}

	var res ResponseData
	res.MustWriteTemplate("hashtag.html", HashtagData{
		BaseData: getBaseData(c, "#"+detail.Name),
		Hashtag:  detail.Name,
		Cards:    templates.FeedCardsToTemplate(detail.Feeds),
	}, c.Perf)
	return res
}

type SearchData struct {
	templates.BaseData

	Keyword    string
	Cards      []templates.FeedCard
	Pagination templates.Pagination
}

// SearchForm turns the header search box's query into a search page URL.
func SearchForm(c *RequestContext) ResponseData {
	keyword := strings.TrimSpace(c.Req.URL.Query().Get("q"))
	if keyword == "" {
		return c.Redirect(blogurl.BuildHome(), http.StatusSeeOther)
	}
	return c.Redirect(blogurl.BuildSearch(keyword, 1), http.StatusSeeOther)
}

func Search(c *RequestContext) ResponseData {
	keyword := c.PathParams["keyword"]
	page, ok := parsePageParam(c.Req.URL.Query().Get("page"))
	if !ok {
		return c.Redirect(blogurl.BuildSearch(keyword, page), http.StatusSeeOther)
	}

	list, err := c.Backend.Search(c, keyword, page, config.Config.Site.PageSize)
	if err != nil {
		return backendErrorResponse(c, err, "failed to search")
	}

	var res ResponseData
	res.MustWriteTemplate("search.html", SearchData{
		BaseData:   getBaseData(c, "Search"),
		Keyword:    keyword,
		Cards:      templates.FeedCardsToTemplate(list.Data),
		Pagination: templates.SearchPagination(keyword, page, list.HasNext),
	}, c.Perf)
	return res
}
