package website

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/dialog"
	"git.blogfront.dev/blogfront/src/templates"
)

// Notices raised while handling a form post are shown on the page the
// browser is redirected to. They travel in a short-lived cookie as
// "class:content|class:content", with content query-escaped.
const NoticesCookieName = "blogfront_notices"

const (
	NoticeSuccess = "success"
	NoticeFailure = "failure"
)

const (
	noticesCookieMaxSize = 1024 // sent with every request until it expires
	noticesCookieTTL     = 5 * time.Minute
	noticeSeparator      = "|"
	noticeClassSeparator = ":"
)

func getNoticesFromCookie(c *RequestContext) []templates.Notice {
	cookie, err := c.Req.Cookie(NoticesCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil
	} else if err != nil {
		c.Logger.Warn().Err(err).Msg("unreadable notices cookie")
		return nil
	}
	return deserializeNoticesFromCookie(cookie.Value)
}

func serializeNoticesForCookie(c *RequestContext, notices []templates.Notice) string {
	parts := make([]string, 0, len(notices))
	size := 0
	for _, notice := range notices {
		part := notice.Class + noticeClassSeparator + url.QueryEscape(string(notice.Content))
		added := len(part)
		if len(parts) > 0 {
			added += len(noticeSeparator)
		}
		if size+added > noticesCookieMaxSize {
			c.Logger.Warn().Int("dropped", len(notices)-len(parts)).Msg("notices do not fit in the cookie")
			break
		}
		parts = append(parts, part)
		size += added
	}
	return strings.Join(parts, noticeSeparator)
}

func deserializeNoticesFromCookie(value string) []templates.Notice {
	var notices []templates.Notice
	for _, part := range strings.Split(value, noticeSeparator) {
		class, escaped, ok := strings.Cut(part, noticeClassSeparator)
		if !ok {
			continue
		}
		content, err := url.QueryUnescape(escaped)
		if err != nil {
			continue
		}
		notices = append(notices, templates.Notice{
			Class:   class,
			Content: template.HTML(content),
		})
	}
	return notices
}

// storeNoticesInCookieMiddleware writes the response's future notices to
// the cookie. A page that is not a redirect has shown the old notices, so
// it clears the cookie.
func storeNoticesInCookieMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		res := h(c)

		cookie := http.Cookie{
			Name:     NoticesCookieName,
			Path:     "/",
			Secure:   strings.HasPrefix(config.Config.BaseUrl, "https://"),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		isRedirect := res.StatusCode >= 300 && res.StatusCode < 400
		if serialized := serializeNoticesForCookie(c, res.FutureNotices); serialized != "" {
			cookie.Value = serialized
			cookie.Expires = time.Now().Add(noticesCookieTTL)
		} else if !isRedirect {
			cookie.MaxAge = -1
		} else {
			return res
		}
		res.SetCookie(&cookie)
		return res
	}
}

// addDialogNotices turns the alerts a page action raised into notices for
// the page the browser is sent to next.
func addDialogNotices(res *ResponseData, notices []dialog.Notice, class string) {
	for _, n := range notices {
		text := n.Body
		if n.Title != "" {
			text = n.Title + ": " + n.Body
		}
		res.AddFutureNotice(class, text)
	}
}
