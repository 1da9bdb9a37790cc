package website

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"git.blogfront.dev/blogfront/src/backend"
	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/perf"
	"git.blogfront.dev/blogfront/src/templates"
	"github.com/rs/zerolog"
)

// RequestContext is everything a handler knows about one request. It is
// also the request's context.Context, so it can be handed straight to the
// backend client and the article page controller.
type RequestContext struct {
	Route      string
	Logger     *zerolog.Logger
	Req        *http.Request
	PathParams map[string]string

	// The http package's own response object. The live channel hijacks it
	// for the WebSocket upgrade.
	Res http.ResponseWriter

	Services *Services

	// Backend carries the viewer's credential from the token cookie.
	Backend *backend.Session
	Viewer  *models.Viewer

	Perf *perf.RequestPerf

	ctx context.Context
}

var _ context.Context = &RequestContext{}

func (c *RequestContext) Deadline() (time.Time, bool) {
	return c.ctx.Deadline()
}

func (c *RequestContext) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *RequestContext) Err() error {
	return c.ctx.Err()
}

func (c *RequestContext) Value(key any) any {
	if key == perf.PerfContextKey {
		return c.Perf
	}
	return c.ctx.Value(key)
}

func (c *RequestContext) URL() *url.URL {
	return c.Req.URL
}

// FullUrl is the request URL under the configured base URL, which is what
// the visitor sees even when the site sits behind a proxy.
func (c *RequestContext) FullUrl() string {
	return blogurl.Absolute(c.Req.URL.RequestURI())
}

func (c *RequestContext) GetFormValues() (url.Values, error) {
	if err := c.Req.ParseForm(); err != nil {
		return nil, err
	}
	return c.Req.PostForm, nil
}

// Redirect sends the browser to dest, resolved against the request URL.
// An unparseable dest goes home instead.
func (c *RequestContext) Redirect(dest string, code int) ResponseData {
	target, err := c.Req.URL.Parse(dest)
	if err != nil {
		c.Logger.Warn().Err(err).Str("dest", dest).Msg("bad redirect destination")
		target, _ = url.Parse(blogurl.BuildHome())
	}
	location := target.String()

	var res ResponseData
	res.StatusCode = code
	res.Header().Set("Location", location)
	if c.Req.Method == http.MethodGet {
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(&res, "<a href=\"%s\">%s</a>.\n", html.EscapeString(location), http.StatusText(code))
	}
	return res
}

// ErrorResponse renders the error page. Only SafeError messages reach the
// page; every error is logged by logContextErrorsMiddleware.
func (c *RequestContext) ErrorResponse(status int, errs ...error) ResponseData {
	defer func() {
		if r := recover(); r != nil {
			logContextErrors(c, errs...)
			panic(r)
		}
	}()

	res := ResponseData{
		StatusCode: status,
		Errors:     errs,
	}
	res.MustWriteTemplate("error.html", errorData(c, "", safeMessage(errs), ""), c.Perf)
	return res
}

// ResponseData is a buffered response. Handlers return it and doRequest
// sends it, so middleware can still change status, headers and cookies.
type ResponseData struct {
	StatusCode    int
	Body          *bytes.Buffer
	Errors        []error
	FutureNotices []templates.Notice

	header http.Header

	// Set when the handler took over the connection itself.
	hijacked bool
}

var _ http.ResponseWriter = &ResponseData{}

func (rd *ResponseData) Header() http.Header {
	if rd.header == nil {
		rd.header = make(http.Header)
	}
	return rd.header
}

func (rd *ResponseData) Write(p []byte) (n int, err error) {
	if rd.Body == nil {
		rd.Body = new(bytes.Buffer)
	}
	return rd.Body.Write(p)
}

func (rd *ResponseData) WriteHeader(status int) {
	rd.StatusCode = status
}

func (rd *ResponseData) SetCookie(cookie *http.Cookie) {
	rd.Header().Add("Set-Cookie", cookie.String())
}

// AddFutureNotice queues a notice for the next page the browser loads.
// content is plain text.
func (rd *ResponseData) AddFutureNotice(class string, content string) {
	rd.FutureNotices = append(rd.FutureNotices, templates.Notice{
		Class:   class,
		Content: template.HTML(template.HTMLEscapeString(content)),
	})
}

func (rd *ResponseData) WriteTemplate(name string, data any, rp *perf.RequestPerf) error {
	b := rp.StartBlock("TEMPLATE", name)
	defer b.End()
	return templates.GetTemplate(name).Execute(rd, data)
}

func (rd *ResponseData) MustWriteTemplate(name string, data any, rp *perf.RequestPerf) {
	if err := rd.WriteTemplate(name, data, rp); err != nil {
		panic(err)
	}
}

// writeTo sends the buffered response. HEAD requests get the headers of
// the equivalent GET without the body.
func (rd *ResponseData) writeTo(rw http.ResponseWriter, headOnly bool) {
	status := rd.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	h := rw.Header()
	for name, vals := range rd.Header() {
		h[name] = append(h[name], vals...)
	}
	if rd.Body != nil {
		if h.Get("Content-Type") == "" {
			h.Set("Content-Type", http.DetectContentType(rd.Body.Bytes()))
		}
		if h.Get("Content-Length") == "" {
			h.Set("Content-Length", strconv.Itoa(rd.Body.Len()))
		}
	}
	rw.WriteHeader(status)

	if rd.Body == nil || headOnly {
		return
	}
	if _, err := rw.Write(rd.Body.Bytes()); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			logging.Debug().Msg("Broken pipe")
		} else {
			logging.Error().Err(err).Msg("failed to write response body")
		}
	}
}

func doRequest(rw http.ResponseWriter, c *RequestContext, h Handler) {
	defer func() {
		// Last resort. Error pages for panics come from panicCatcherMiddleware.
		if recovered := recover(); recovered != nil {
			logging.LogPanicValue(c.Logger, recovered, "request panicked and was not handled")
			http.Error(rw, "There was a problem handling your request.", http.StatusInternalServerError)
		}
	}()

	res := h(c)
	if res.hijacked {
		return
	}
	res.writeTo(rw, c.Req.Method == http.MethodHead)
}
