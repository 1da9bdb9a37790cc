package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(config.BackendConfig{BaseUrl: srv.URL + "/", Timeout: 5 * time.Second, MaxRetries: 2})
	c.RetryMin = time.Millisecond
	c.RetryMax = 2 * time.Millisecond
	return c
}

func TestGetArticle(t *testing.T) {
	var gotAuth, gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"id":7,"title":"Hi","content":"body","top":0,"user":{"id":1,"username":"ada"}}`))
	})

	article, err := c.As("secret").GetArticle(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, 7, article.ID)
	assert.Equal(t, "Hi", article.DisplayTitle())
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/feed/hello%20world", gotPath)

	_, err = c.As("").GetArticle(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestErrorTokens(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		token  string
	}{
		{"plain text", http.StatusNotFound, "Not found", "Not found"},
		{"json string", http.StatusUnauthorized, `"Unauthorized"`, "Unauthorized"},
		{"empty body", http.StatusForbidden, "", "Forbidden"},
		{"padded", http.StatusBadRequest, "  Content is required\n", "Content is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := c.As("").GetArticle(context.Background(), "x")
			require.Error(t, err)

			var tokErr *ErrorToken
			require.True(t, errors.As(err, &tokErr))
			assert.Equal(t, tc.status, tokErr.Status)
			assert.Equal(t, tc.token, tokErr.Token)

			token, ok := TokenOf(err)
			assert.True(t, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}

func TestMalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"string instead of object": `"hello"`,
		"null":                     `null`,
		"empty":                    ``,
		"broken json":              `{"id": `,
		"wrong field type":         `{"id": "seven"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := c.As("").GetArticle(context.Background(), "x")
			assert.ErrorIs(t, err, ErrMalformedResponse)
			_, isToken := TokenOf(err)
			assert.False(t, isToken)
		})
	}

	t.Run("comments must be a list", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": 1}`))
		})
		_, err := c.As("").ListComments(context.Background(), "1")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestRetries(t *testing.T) {
	t.Run("gets retry server errors", func(t *testing.T) {
		var calls atomic.Int32
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`[]`))
		})
		comments, err := c.As("").ListComments(context.Background(), "1")
		require.NoError(t, err)
		assert.Empty(t, comments)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("gets give up eventually", func(t *testing.T) {
		var calls atomic.Int32
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := c.As("").ListComments(context.Background(), "1")
		token, ok := TokenOf(err)
		require.True(t, ok)
		assert.Equal(t, "Service Unavailable", token)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := c.As("").ListComments(context.Background(), "1")
		assert.Error(t, err)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("mutations are sent once", func(t *testing.T) {
		var calls atomic.Int32
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})
		err := c.As("t").DeleteArticle(context.Background(), 7)
		assert.Error(t, err)
		assert.EqualValues(t, 1, calls.Load())
	})
}

func TestMutations(t *testing.T) {
	type recorded struct {
		Method string
		Path   string
		Body   map[string]any
	}
	var last recorded
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		last = recorded{Method: r.Method, Path: r.URL.Path}
		body, _ := io.ReadAll(r.Body)
		if len(body) > 0 {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			json.Unmarshal(body, &last.Body)
		}
		w.WriteHeader(http.StatusOK)
	})
	s := c.As("t")
	ctx := context.Background()

	require.NoError(t, s.SetArticleTop(ctx, 7, 1))
	assert.Equal(t, recorded{http.MethodPost, "/feed/top/7", map[string]any{"top": float64(1)}}, last)

	require.NoError(t, s.SetArticleTop(ctx, 7, 0))
	assert.Equal(t, map[string]any{"top": float64(0)}, last.Body)

	require.NoError(t, s.DeleteArticle(ctx, 7))
	assert.Equal(t, recorded{Method: http.MethodDelete, Path: "/feed/7"}, last)

	require.NoError(t, s.CreateComment(ctx, "7", "nice post"))
	assert.Equal(t, recorded{http.MethodPost, "/feed/comment/7", map[string]any{"content": "nice post"}}, last)

	require.NoError(t, s.DeleteComment(ctx, 12))
	assert.Equal(t, recorded{Method: http.MethodDelete, Path: "/comment/12"}, last)
}

func TestListing(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			assert.Equal(t, "draft", r.URL.Query().Get("type"))
			w.Write([]byte(`{"size":1,"data":[{"id":3,"title":"Draft","draft":1}],"hasNext":true}`))
		case "/tag":
			w.Write([]byte(`[{"id":1,"name":"go","feeds":2},{"id":2,"name":"old","feeds":0}]`))
		case "/tag/go":
			w.Write([]byte(`{"id":1,"name":"go","feeds":[{"id":3,"title":"Draft"}]}`))
		case "/search/hello":
			w.Write([]byte(`{"size":0,"data":[],"hasNext":false}`))
		case "/config/client":
			w.Write([]byte(`{"comment.enabled":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	s := c.As("")
	ctx := context.Background()

	list, err := s.ListFeeds(ctx, models.ListDraft, 2, 5)
	require.NoError(t, err)
	assert.True(t, list.HasNext)
	require.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Data[0].Draft)

	tags, err := s.ListHashtags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	tag, err := s.GetHashtag(ctx, "go")
	require.NoError(t, err)
	assert.Len(t, tag.Feeds, 1)

	results, err := s.Search(ctx, "hello", 1, 10)
	require.NoError(t, err)
	assert.False(t, results.HasNext)

	cfg, err := s.GetClientConfig(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.CommentEnabled())
}

func TestGetProfile(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		w.Write([]byte(`{"id":1,"username":"ada","permission":true}`))
	})
	ctx := context.Background()

	viewer, err := c.As("").GetProfile(ctx)
	assert.NoError(t, err)
	assert.Nil(t, viewer)
	assert.EqualValues(t, 0, calls.Load())

	viewer, err = c.As("good").GetProfile(ctx)
	require.NoError(t, err)
	assert.True(t, viewer.IsPrivileged())

	_, err = c.As("bad").GetProfile(ctx)
	token, _ := TokenOf(err)
	assert.Equal(t, "Unauthorized", token)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseUrl := srv.URL
	srv.Close()

	c := &Client{BaseUrl: baseUrl, HTTP: &http.Client{}, MaxRetries: 1, RetryMin: time.Millisecond, RetryMax: time.Millisecond}
	_, err := c.As("").GetArticle(context.Background(), "x")
	require.Error(t, err)
	_, isToken := TokenOf(err)
	assert.False(t, isToken)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}
