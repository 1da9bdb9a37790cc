// Package devbackend is an in-memory stand-in for the blog backend. It
// speaks the same HTTP contract as the real one, so the website can be run
// and tested without it.
package devbackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Error tokens, sent as plain text bodies.
const (
	TokenNotFound        = "Not found"
	TokenUnauthorized    = "Unauthorized"
	TokenForbidden       = "Permission denied"
	TokenBadRequest      = "Bad request"
	TokenContentRequired = "Content is required"
)

var errNotFound = errors.New(TokenNotFound)

const defaultLimit = 10

func NewRouter(store *Store) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := &handlers{store: store}

	r.Get("/feed", h.listFeeds)
	r.Get("/feed/{id}", h.getFeed)
	r.Delete("/feed/{id}", h.deleteFeed)
	r.Post("/feed/top/{id}", h.setTop)
	r.Get("/feed/comment/{id}", h.listComments)
	r.Post("/feed/comment/{id}", h.createComment)
	r.Delete("/comment/{id}", h.deleteComment)
	r.Get("/tag", h.listTags)
	r.Get("/tag/{name}", h.getTag)
	r.Get("/search/{keyword}", h.search)
	r.Get("/user/profile", h.profile)
	r.Get("/config/client", h.clientConfig)

	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("dev backend request")
	})
}

type handlers struct {
	store *Store
}

func (h *handlers) viewer(r *http.Request) *models.Viewer {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return h.store.viewerFor(strings.TrimSpace(token))
}

// requireViewer writes the rejection and returns nil when the request is
// not from a known account, or not from a privileged one when privileged
// is set.
func (h *handlers) requireViewer(w http.ResponseWriter, r *http.Request, privileged bool) *models.Viewer {
	v := h.viewer(r)
	if v == nil {
		writeToken(w, http.StatusUnauthorized, TokenUnauthorized)
		return nil
	}
	if privileged && !v.IsPrivileged() {
		writeToken(w, http.StatusForbidden, TokenForbidden)
		return nil
	}
	return v
}

func (h *handlers) getFeed(w http.ResponseWriter, r *http.Request) {
	p, ok := h.store.Post(chi.URLParam(r, "id"))
	if !ok || (p.IsDraft() && !h.viewer(r).IsPrivileged()) {
		writeToken(w, http.StatusNotFound, TokenNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p.Article)
}

func (h *handlers) deleteFeed(w http.ResponseWriter, r *http.Request) {
	if h.requireViewer(w, r, true) == nil {
		return
	}
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if !h.store.deletePost(id) {
		writeToken(w, http.StatusNotFound, TokenNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) setTop(w http.ResponseWriter, r *http.Request) {
	if h.requireViewer(w, r, true) == nil {
		return
	}
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Top *int `json:"top"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Top == nil || (*body.Top != 0 && *body.Top != 1) {
		writeToken(w, http.StatusBadRequest, TokenBadRequest)
		return
	}
	if !h.store.setTop(id, *body.Top) {
		writeToken(w, http.StatusNotFound, TokenNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listComments(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if _, exists := h.store.Post(strconv.Itoa(id)); !exists {
		writeToken(w, http.StatusNotFound, TokenNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Comments(id))
}

func (h *handlers) createComment(w http.ResponseWriter, r *http.Request) {
	v := h.requireViewer(w, r, false)
	if v == nil {
		return
	}
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeToken(w, http.StatusBadRequest, TokenBadRequest)
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		writeToken(w, http.StatusBadRequest, TokenContentRequired)
		return
	}
	c, err := h.store.AddComment(id, *v, content)
	if err != nil {
		writeToken(w, http.StatusNotFound, TokenNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handlers) deleteComment(w http.ResponseWriter, r *http.Request) {
	v := h.requireViewer(w, r, false)
	if v == nil {
		return
	}
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	_, c, exists := h.store.comment(id)
	if !exists {
		writeToken(w, http.StatusNotFound, TokenNotFound)
		return
	}
	if !v.CanDeleteComment(&c) {
		writeToken(w, http.StatusForbidden, TokenForbidden)
		return
	}
	h.store.deleteComment(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listFeeds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lt := models.ParseListType(q.Get("type"))
	if lt.Privileged() && !h.viewer(r).IsPrivileged() {
		writeToken(w, http.StatusForbidden, TokenForbidden)
		return
	}
	cards := h.store.feeds(func(p *Post) bool { return listTypeMatches(p, lt) })
	writeJSON(w, http.StatusOK, page(cards, queryInt(q.Get("page"), 1), queryInt(q.Get("limit"), defaultLimit)))
}

func (h *handlers) listTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.hashtags())
}

func (h *handlers) getTag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tag, ok := h.store.hasTag(name)
	if !ok {
		writeToken(w, http.StatusNotFound, TokenNotFound)
		return
	}
	cards := h.store.feeds(func(p *Post) bool {
		if !listTypeMatches(p, models.ListNormal) {
			return false
		}
		for _, t := range p.Hashtags {
			if t.Name == name {
				return true
			}
		}
		return false
	})
	writeJSON(w, http.StatusOK, models.HashtagDetail{ID: tag.ID, Name: tag.Name, Feeds: cards})
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	keyword := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "keyword")))
	q := r.URL.Query()
	cards := h.store.feeds(func(p *Post) bool {
		if keyword == "" || !listTypeMatches(p, models.ListNormal) {
			return false
		}
		return strings.Contains(strings.ToLower(p.RawTitle()), keyword) ||
			strings.Contains(strings.ToLower(p.Content), keyword)
	})
	writeJSON(w, http.StatusOK, page(cards, queryInt(q.Get("page"), 1), queryInt(q.Get("limit"), defaultLimit)))
}

func (h *handlers) profile(w http.ResponseWriter, r *http.Request) {
	v := h.requireViewer(w, r, false)
	if v == nil {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handlers) clientConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ClientConfig())
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeToken(w, http.StatusNotFound, TokenNotFound)
		return 0, false
	}
	return n, true
}

func queryInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeToken(w http.ResponseWriter, status int, token string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(token))
}
