package website

import (
	"net/http"
	"regexp"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/logging"
)

func NewWebsiteRoutes(svc *Services) http.Handler {
	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			requestLogger,
			trackRequestPerf,
			logContextErrorsMiddleware,
			panicCatcherMiddleware,
			attachServices(svc),
		},
	}

	routes.GET(blogurl.RegexHealthz, Healthz)
	routes.GET(blogurl.RegexHighlightCSS, HighlightCSS)
	routes.GET(blogurl.RegexPublic, PublicFile)

	site := routes.WithMiddleware(
		storeNoticesInCookieMiddleware,
		loadCommonData,
	)
	site.GET(blogurl.RegexLive, LiveChannel)

	site.GET(blogurl.RegexHome, FeedList)
	site.GET(blogurl.RegexHashtags, Hashtags)
	site.GET(blogurl.RegexHashtag, Hashtag)
	site.GET(blogurl.RegexSearchForm, SearchForm)
	site.GET(blogurl.RegexSearch, Search)

	site.GET(blogurl.RegexFeed, Article)
	site.GET(blogurl.RegexCommentDelete, CommentDelete)

	forms := site.WithMiddleware(sameOriginOnly)
	forms.POST(blogurl.RegexFeedComment, needsAuth(CommentSubmit))
	forms.POST(blogurl.RegexCommentDelete, needsAuth(CommentDeleteSubmit))

	author := site.WithMiddleware(privilegedOnly)
	author.GET(blogurl.RegexFeedDelete, ArticleDelete)
	author.GET(blogurl.RegexFeedTop, ArticleTop)

	authorForms := forms.WithMiddleware(privilegedOnly)
	authorForms.POST(blogurl.RegexFeedDelete, ArticleDeleteSubmit)
	authorForms.POST(blogurl.RegexFeedTop, ArticleTopSubmit)

	site.AnyMethod(regexp.MustCompile("^"), FourOhFour)

	logging.Debug().Int("routes", len(router.Routes)).Msg("registered website routes")
	return router
}
