package website

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"git.blogfront.dev/blogfront/src/backend"
	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/devbackend"
	"git.blogfront.dev/blogfront/src/diagram"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/siteconfig"
	"git.blogfront.dev/blogfront/src/templates"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogContextErrors(t *testing.T) {
	err1 := errors.New("test error 1")
	err2 := errors.New("test error 2")

	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Print("sanity check")

	assert.Contains(t, buf.String(), "sanity check")

	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			func(h Handler) Handler {
				return func(c *RequestContext) (res ResponseData) {
					c.Logger = &logger
					return h(c)
				}
			},
			logContextErrorsMiddleware,
		},
	}

	routes.GET(regexp.MustCompile("^/test$"), func(c *RequestContext) ResponseData {
		return c.ErrorResponse(http.StatusInternalServerError, err1, err2)
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/test")
	if assert.Nil(t, err) {
		defer res.Body.Close()

		t.Logf("Log contents: %s", buf.String())

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

		assert.Contains(t, buf.String(), err1.Error())
		assert.Contains(t, buf.String(), err2.Error())
	}
}

func TestDerivedBuildersDoNotShareMiddleware(t *testing.T) {
	var calls []string
	mark := func(name string) Middleware {
		return func(h Handler) Handler {
			return func(c *RequestContext) ResponseData {
				calls = append(calls, name)
				return h(c)
			}
		}
	}
	ok := func(c *RequestContext) ResponseData {
		var res ResponseData
		res.Write([]byte("ok"))
		return res
	}

	router := &Router{}
	base := RouteBuilder{Router: router, Middlewares: []Middleware{mark("base")}}
	parent := base.WithMiddleware(mark("parent"))
	first := parent.WithMiddleware(mark("first"))
	_ = parent.WithMiddleware(mark("second"))
	first.GET(regexp.MustCompile("^/first$"), ok)

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/first")
	require.Nil(t, err)
	res.Body.Close()
	assert.Equal(t, []string{"base", "parent", "first"}, calls)
}

const (
	adminToken  = "admin"
	readerToken = "reader"
	otherToken  = "other"
)

type siteTest struct {
	store *devbackend.Store
	flags *siteconfig.Holder
	url   string
}

func newSiteTest(t *testing.T) *siteTest {
	t.Helper()

	store := devbackend.NewStore()
	store.AddAccount(adminToken, models.Viewer{ID: 1, Username: "admin", Permission: true})
	store.AddAccount(readerToken, models.Viewer{ID: 2, Username: "reader"})
	store.AddAccount(otherToken, models.Viewer{ID: 3, Username: "other"})

	title, draftTitle := "Hello", "Secret plans"
	store.AddPost(devbackend.Post{Article: models.Article{
		Title:    &title,
		Content:  "![cover](https://img.test/cover.png)\n\nSome *text*.",
		Listed:   1,
		PV:       1234,
		Hashtags: []models.Hashtag{{Name: "go"}},
	}})
	store.AddPost(devbackend.Post{Article: models.Article{
		Title:   &draftTitle,
		Content: "Not yet.",
		Draft:   1,
	}})

	backendServer := httptest.NewServer(devbackend.NewRouter(store))
	t.Cleanup(backendServer.Close)

	st := &siteTest{store: store, flags: siteconfig.NewHolder()}
	site := httptest.NewServer(NewWebsiteRoutes(&Services{
		Client:   backend.New(config.BackendConfig{BaseUrl: backendServer.URL, Timeout: 5 * time.Second}),
		Flags:    st.flags,
		Diagrams: diagram.NewPass(nil),
	}))
	t.Cleanup(site.Close)

	blogurl.SetGlobalBaseUrl(site.URL)
	t.Cleanup(func() { blogurl.SetGlobalBaseUrl(config.Config.BaseUrl) })

	st.url = site.URL
	return st
}

var noRedirects = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func (st *siteTest) do(t *testing.T, method, path, token string, form url.Values) (*http.Response, string) {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, st.url+path, body)
	require.Nil(t, err)
	req.Header.Set("Accept", "text/html")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: backend.CredentialCookie, Value: token})
	}

	res, err := noRedirects.Do(req)
	require.Nil(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	return res, string(b)
}

func noticesOf(res *http.Response) []templates.Notice {
	for _, cookie := range res.Cookies() {
		if cookie.Name == NoticesCookieName {
			return deserializeNoticesFromCookie(cookie.Value)
		}
	}
	return nil
}

func TestFeedList(t *testing.T) {
	st := newSiteTest(t)

	t.Run("anonymous sees listed articles", func(t *testing.T) {
		res, body := st.do(t, http.MethodGet, "/", "", nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Hello")
		assert.NotContains(t, body, "Secret plans")
		assert.NotContains(t, body, "Drafts")
	})
	t.Run("drafts are hidden from readers", func(t *testing.T) {
		res, _ := st.do(t, http.MethodGet, "/?type=draft", readerToken, nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
	t.Run("admins get the draft tab", func(t *testing.T) {
		res, body := st.do(t, http.MethodGet, "/?type=draft", adminToken, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Secret plans")
		assert.Contains(t, body, "Drafts")
	})
	t.Run("bad page redirects", func(t *testing.T) {
		res, _ := st.do(t, http.MethodGet, "/?page=pizza", "", nil)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, blogurl.BuildHome(), res.Header.Get("Location"))
	})
}

func TestArticlePage(t *testing.T) {
	st := newSiteTest(t)
	_, err := st.store.AddComment(1, models.Viewer{ID: 2, Username: "reader"}, "First!")
	require.Nil(t, err)

	t.Run("anonymous", func(t *testing.T) {
		res, body := st.do(t, http.MethodGet, "/feed/1", "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "<title>Hello - Blogfront</title>")
		assert.Contains(t, body, `content="https://img.test/cover.png"`)
		assert.Contains(t, body, "<em>text</em>")
		assert.Contains(t, body, "First!")
		assert.Contains(t, body, "1,234 views")
		assert.Contains(t, body, "Log in to comment")
		assert.NotContains(t, body, blogurl.BuildFeedDelete("1"))
	})
	t.Run("admin gets actions", func(t *testing.T) {
		_, body := st.do(t, http.MethodGet, "/feed/1", adminToken, nil)
		assert.Contains(t, body, blogurl.BuildFeedDelete("1"))
		assert.Contains(t, body, blogurl.BuildFeedTop("1"))
		assert.Contains(t, body, blogurl.BuildWriting(1))
	})
	t.Run("counter can be turned off", func(t *testing.T) {
		st.flags.Set(models.ClientConfig{models.ClientConfigCounterEnabled: false})
		defer st.flags.Set(models.ClientConfig{})
		_, body := st.do(t, http.MethodGet, "/feed/1", "", nil)
		assert.NotContains(t, body, "views")
	})
	t.Run("missing article", func(t *testing.T) {
		res, body := st.do(t, http.MethodGet, "/feed/404", "", nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Contains(t, body, "Back to home")
		assert.NotContains(t, body, "no about page")
	})
	t.Run("missing about page", func(t *testing.T) {
		res, body := st.do(t, http.MethodGet, "/feed/about", "", nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Contains(t, body, "no about page yet")
	})
	t.Run("drafts are hidden from readers", func(t *testing.T) {
		res, _ := st.do(t, http.MethodGet, "/feed/2", readerToken, nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestArticleDelete(t *testing.T) {
	st := newSiteTest(t)

	res, _ := st.do(t, http.MethodGet, "/feed/1/delete", readerToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, _ = st.do(t, http.MethodPost, "/feed/1/delete", readerToken, url.Values{})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	_, exists := st.store.Post("1")
	assert.True(t, exists)

	res, body := st.do(t, http.MethodGet, "/feed/1/delete", adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Are you sure you want to delete this article?")

	res, _ = st.do(t, http.MethodPost, "/feed/1/delete", adminToken, url.Values{})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, blogurl.BuildHome(), res.Header.Get("Location"))
	assert.Equal(t, []templates.Notice{{Class: NoticeSuccess, Content: "Deleted successfully"}}, noticesOf(res))
	_, exists = st.store.Post("1")
	assert.False(t, exists)

	t.Run("deleting again", func(t *testing.T) {
		res, _ := st.do(t, http.MethodPost, "/feed/1/delete", adminToken, url.Values{})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, blogurl.BuildHome(), res.Header.Get("Location"))
		assert.Equal(t, []templates.Notice{{Class: NoticeFailure, Content: "Not found"}}, noticesOf(res))
	})
}

func TestArticlePin(t *testing.T) {
	st := newSiteTest(t)

	_, body := st.do(t, http.MethodGet, "/feed/1/top", adminToken, nil)
	assert.Contains(t, body, "Pin this article to the top")
	assert.Contains(t, body, `name="top" value="1"`)

	res, _ := st.do(t, http.MethodPost, "/feed/1/top", adminToken, url.Values{"top": {"1"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, blogurl.BuildFeed("1"), res.Header.Get("Location"))
	assert.Equal(t, []templates.Notice{{Class: NoticeSuccess, Content: "Article pinned"}}, noticesOf(res))
	post, _ := st.store.Post("1")
	assert.Equal(t, 1, post.Top)

	_, body = st.do(t, http.MethodGet, "/feed/1/top", adminToken, nil)
	assert.Contains(t, body, "Remove this article from the top")
	assert.Contains(t, body, `name="top" value="0"`)

	res, _ = st.do(t, http.MethodPost, "/feed/1/top", adminToken, url.Values{"top": {"0"}})
	assert.Equal(t, []templates.Notice{{Class: NoticeSuccess, Content: "Article unpinned"}}, noticesOf(res))
	post, _ = st.store.Post("1")
	assert.Equal(t, 0, post.Top)
}

func TestArticlePinResubmitted(t *testing.T) {
	st := newSiteTest(t)

	_, body := st.do(t, http.MethodGet, "/feed/1/top", adminToken, nil)
	require.Contains(t, body, `name="top" value="1"`)

	// The same confirmation form posted twice, as a double click does.
	for i := 0; i < 2; i++ {
		res, _ := st.do(t, http.MethodPost, "/feed/1/top", adminToken, url.Values{"top": {"1"}})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, []templates.Notice{{Class: NoticeSuccess, Content: "Article pinned"}}, noticesOf(res))
	}
	post, _ := st.store.Post("1")
	assert.Equal(t, 1, post.Top)

	for name, form := range map[string]url.Values{"missing": {}, "not a number": {"top": {"yes"}}, "out of range": {"top": {"2"}}} {
		t.Run(name, func(t *testing.T) {
			res, _ := st.do(t, http.MethodPost, "/feed/1/top", adminToken, form)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			post, _ := st.store.Post("1")
			assert.Equal(t, 1, post.Top)
		})
	}
}

func TestComments(t *testing.T) {
	st := newSiteTest(t)

	t.Run("anonymous goes to login", func(t *testing.T) {
		res, _ := st.do(t, http.MethodPost, "/feed/1/comment", "", url.Values{"content": {"hi"}})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, config.Config.Backend.LoginUrl, res.Header.Get("Location"))
		assert.Empty(t, st.store.Comments(1))
	})
	t.Run("empty comment keeps the form", func(t *testing.T) {
		res, body := st.do(t, http.MethodPost, "/feed/1/comment", readerToken, url.Values{"content": {""}})
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Contains(t, body, "Comment cannot be empty")
		assert.Empty(t, st.store.Comments(1))
	})

	res, _ := st.do(t, http.MethodPost, "/feed/1/comment", readerToken, url.Values{"content": {"Nice post"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, blogurl.BuildFeed("1"), res.Header.Get("Location"))
	assert.Equal(t, []templates.Notice{{Class: NoticeSuccess, Content: "Comment posted"}}, noticesOf(res))
	comments := st.store.Comments(1)
	require.Len(t, comments, 1)
	commentID := strconv.Itoa(comments[0].ID)
	deletePath := "/comment/" + commentID + "/delete?feed=1"

	t.Run("only the author and admins may delete", func(t *testing.T) {
		res, _ := st.do(t, http.MethodGet, deletePath, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		res, _ = st.do(t, http.MethodPost, deletePath, otherToken, url.Values{})
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Len(t, st.store.Comments(1), 1)

		_, body := st.do(t, http.MethodGet, "/feed/1", readerToken, nil)
		assert.Contains(t, body, "/comment/"+commentID+"/delete")
		_, body = st.do(t, http.MethodGet, "/feed/1", otherToken, nil)
		assert.NotContains(t, body, "/comment/"+commentID+"/delete")
	})

	res, body := st.do(t, http.MethodGet, deletePath, readerToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Nice post")

	res, _ = st.do(t, http.MethodPost, deletePath, adminToken, url.Values{})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, []templates.Notice{{Class: NoticeSuccess, Content: "Deleted successfully"}}, noticesOf(res))
	assert.Empty(t, st.store.Comments(1))

	t.Run("gone", func(t *testing.T) {
		res, _ := st.do(t, http.MethodPost, deletePath, adminToken, url.Values{})
		assert.Equal(t, []templates.Notice{{Class: NoticeFailure, Content: "That comment is gone"}}, noticesOf(res))
	})
	t.Run("disabled", func(t *testing.T) {
		st.flags.Set(models.ClientConfig{models.ClientConfigCommentEnabled: false})
		defer st.flags.Set(models.ClientConfig{})

		_, body := st.do(t, http.MethodGet, "/feed/1", readerToken, nil)
		assert.NotContains(t, body, "comment-form")
		res, _ := st.do(t, http.MethodPost, "/feed/1/comment", readerToken, url.Values{"content": {"hi"}})
		assert.Equal(t, []templates.Notice{{Class: NoticeFailure, Content: "Comments are disabled"}}, noticesOf(res))
		assert.Empty(t, st.store.Comments(1))
	})
}

func TestCrossSiteFormsAreRejected(t *testing.T) {
	st := newSiteTest(t)

	req, err := http.NewRequest(http.MethodPost, st.url+"/feed/1/delete", nil)
	require.Nil(t, err)
	req.Header.Set("Origin", "https://evil.test")
	req.AddCookie(&http.Cookie{Name: backend.CredentialCookie, Value: adminToken})
	res, err := noRedirects.Do(req)
	require.Nil(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	_, exists := st.store.Post("1")
	assert.True(t, exists)
}

func TestListingPages(t *testing.T) {
	st := newSiteTest(t)

	t.Run("hashtags", func(t *testing.T) {
		res, body := st.do(t, http.MethodGet, "/hashtags", "", nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "#go")
	})
	t.Run("hashtag", func(t *testing.T) {
		res, body := st.do(t, http.MethodGet, "/hashtag/go", "", nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Hello")
	})
	t.Run("unknown hashtag", func(t *testing.T) {
		res, _ := st.do(t, http.MethodGet, "/hashtag/rust", "", nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
	t.Run("search form", func(t *testing.T) {
		res, _ := st.do(t, http.MethodGet, "/search?q=+hello+", "", nil)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, blogurl.BuildSearch("hello", 1), res.Header.Get("Location"))
	})
	t.Run("search", func(t *testing.T) {
		res, body := st.do(t, http.MethodGet, "/search/hello", "", nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Hello")
	})
}

func TestStaticRoutes(t *testing.T) {
	st := newSiteTest(t)

	res, body := st.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok\n", body)

	res, body = st.do(t, http.MethodGet, "/public/style.css", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/css")
	assert.Contains(t, body, ".feed-card")

	res, body = st.do(t, http.MethodGet, "/public/highlight.css", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, ".chroma")

	res, _ = st.do(t, http.MethodGet, "/public/nope.css", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = st.do(t, http.MethodGet, "/writing/1", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, body, "/writing/1")
}

func TestNoticesCookie(t *testing.T) {
	c := &RequestContext{Logger: &zerolog.Logger{}}
	notices := []templates.Notice{
		{Class: NoticeSuccess, Content: "Deleted successfully"},
		{Class: NoticeFailure, Content: "Can&#39;t; a|b:c ünïcode"},
	}
	serialized := serializeNoticesForCookie(c, notices)
	assert.NotContains(t, serialized, ";")
	assert.NotContains(t, serialized, " ")
	assert.Equal(t, notices, deserializeNoticesFromCookie(serialized))
}

func TestArticleWithoutImageUsesSiteAvatar(t *testing.T) {
	st := newSiteTest(t)
	title := "Plain"
	post := st.store.AddPost(devbackend.Post{Article: models.Article{Title: &title, Content: "No pictures here.", Listed: 1}})

	res, body := st.do(t, http.MethodGet, "/feed/"+strconv.Itoa(post.ID), "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `content="`+blogurl.Absolute(config.Config.Site.Avatar)+`"`)
}
