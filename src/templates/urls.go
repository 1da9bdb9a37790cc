package templates

import (
	"html/template"
	"strconv"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/markdown"
	"git.blogfront.dev/blogfront/src/models"
)

func FeedUrl(id int) string {
	return blogurl.BuildFeed(strconv.Itoa(id))
}

// ListTabs are the tabs above the feed list. Drafts and unlisted articles
// only get tabs for privileged viewers.
func ListTabs(active models.ListType, privileged bool) []ListTab {
	var tabs []ListTab
	for _, lt := range models.ListTypes {
		if lt.Privileged() && !privileged {
			continue
		}
		tabs = append(tabs, ListTab{
			Name:   ListTypeName(lt),
			Url:    blogurl.BuildFeedList(lt, 1),
			Active: lt == active,
		})
	}
	return tabs
}

var listTypeNames = map[models.ListType]string{
	models.ListNormal:   "Articles",
	models.ListDraft:    "Drafts",
	models.ListUnlisted: "Unlisted",
}

func ListTypeName(lt models.ListType) string {
	return listTypeNames[lt]
}

// FeedListPagination links to the neighbouring pages of a feed list.
func FeedListPagination(lt models.ListType, page int, hasNext bool) Pagination {
	p := Pagination{Current: page}
	if page > 1 {
		p.PreviousUrl = blogurl.BuildFeedList(lt, page-1)
	}
	if hasNext {
		p.NextUrl = blogurl.BuildFeedList(lt, page+1)
	}
	return p
}

func SearchPagination(keyword string, page int, hasNext bool) Pagination {
	p := Pagination{Current: page}
	if page > 1 {
		p.PreviousUrl = blogurl.BuildSearch(keyword, page-1)
	}
	if hasNext {
		p.NextUrl = blogurl.BuildSearch(keyword, page+1)
	}
	return p
}

func RenderCommentText(text string) template.HTML {
	return markdown.RenderComment(text)
}
