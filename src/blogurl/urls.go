package blogurl

import (
	"fmt"
	"regexp"
	"strconv"

	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/oops"
)

var RegexHome = regexp.MustCompile("^/$")

func BuildHome() string {
	return Url("/", nil)
}

// BuildFeedList is the home page showing one list type. Page 1 of the
// normal list is the bare home page.
func BuildFeedList(listType models.ListType, page int) string {
	if page < 1 {
		panic(oops.New(nil, "Invalid feed list page (%d), must be >= 1", page))
	}
	var query []Q
	if listType != "" && listType != models.ListNormal {
		query = append(query, Q{"type", string(listType)})
	}
	if page > 1 {
		query = append(query, Q{"page", strconv.Itoa(page)})
	}
	return Url("/", query)
}

var RegexFeed = regexp.MustCompile(`^/feed/(?P<id>[^/]+)$`)

func BuildFeed(id string) string {
	return Url(fmt.Sprintf("/feed/%s", escapeSegment(id)), nil)
}

var RegexFeedDelete = regexp.MustCompile(`^/feed/(?P<id>[^/]+)/delete$`)

func BuildFeedDelete(id string) string {
	return Url(fmt.Sprintf("/feed/%s/delete", escapeSegment(id)), nil)
}

var RegexFeedTop = regexp.MustCompile(`^/feed/(?P<id>[^/]+)/top$`)

func BuildFeedTop(id string) string {
	return Url(fmt.Sprintf("/feed/%s/top", escapeSegment(id)), nil)
}

var RegexFeedComment = regexp.MustCompile(`^/feed/(?P<id>[^/]+)/comment$`)

func BuildFeedComment(id string) string {
	return Url(fmt.Sprintf("/feed/%s/comment", escapeSegment(id)), nil)
}

var RegexCommentDelete = regexp.MustCompile(`^/comment/(?P<commentid>\d+)/delete$`)

// BuildCommentDelete takes the feed the comment belongs to so the page can
// return there afterwards.
func BuildCommentDelete(commentID int, feedID string) string {
	return Url(fmt.Sprintf("/comment/%d/delete", commentID), []Q{{"feed", feedID}})
}

var RegexWriting = regexp.MustCompile(`^/writing/(?P<id>[^/]+)$`)

func BuildWriting(id int) string {
	return Url(fmt.Sprintf("/writing/%d", id), nil)
}

var RegexHashtags = regexp.MustCompile(`^/hashtags$`)

func BuildHashtags() string {
	return Url("/hashtags", nil)
}

var RegexHashtag = regexp.MustCompile(`^/hashtag/(?P<name>[^/]+)$`)

func BuildHashtag(name string) string {
	return Url(fmt.Sprintf("/hashtag/%s", escapeSegment(name)), nil)
}

var RegexSearch = regexp.MustCompile(`^/search/(?P<keyword>[^/]+)$`)

func BuildSearch(keyword string, page int) string {
	var query []Q
	if page > 1 {
		query = append(query, Q{"page", strconv.Itoa(page)})
	}
	return Url(fmt.Sprintf("/search/%s", escapeSegment(keyword)), query)
}

// RegexSearchForm is where the header search box submits its ?q= query.
var RegexSearchForm = regexp.MustCompile(`^/search$`)

func BuildSearchForm() string {
	return Url("/search", nil)
}

var RegexLive = regexp.MustCompile(`^/live$`)

func BuildLive() string {
	return Url("/live", nil)
}

var RegexHealthz = regexp.MustCompile(`^/healthz$`)

var RegexHighlightCSS = regexp.MustCompile(`^/public/highlight\.css$`)

func BuildHighlightCSS() string {
	return StaticUrl("highlight.css", nil)
}

var RegexPublic = regexp.MustCompile(`^/public/.+$`)

func BuildPublic(filepath string) string {
	return StaticUrl(filepath, nil)
}
