package website

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/oops"
	"git.blogfront.dev/blogfront/src/perf"
	"github.com/google/uuid"
)

func panicCatcherMiddleware(h Handler) Handler {
	return func(c *RequestContext) (res ResponseData) {
		defer func() {
			if recovered := recover(); recovered != nil {
				maybeError, ok := recovered.(*error)
				var err error
				if ok {
					err = *maybeError
				} else if asErr, isErr := recovered.(error); isErr {
					err = oops.New(asErr, "Recovered from panic")
				} else {
					err = oops.New(nil, "Recovered from panic with value: %v", recovered)
				}
				res = c.ErrorResponse(http.StatusInternalServerError, err)
			}
		}()

		return h(c)
	}
}

// requestLogger gives the request a sub-logger tagged with a request id.
// Everything that logs through the request context picks it up.
func requestLogger(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		logger := c.Logger.With().Str("request", uuid.NewString()).Logger()
		c.Logger = &logger
		c.ctx = logging.AttachLoggerToContext(c.Logger, c.ctx)
		return h(c)
	}
}

func trackRequestPerf(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		c.Perf = perf.MakeNewRequestPerf(c.Route, c.Req.Method, c.Req.URL.Path)
		defer func() {
			c.Perf.EndRequest()
			log := c.Logger.Info()
			blockStack := make([]time.Time, 0)
			for i, block := range c.Perf.Blocks {
				for len(blockStack) > 0 && block.End.After(blockStack[len(blockStack)-1]) {
					blockStack = blockStack[:len(blockStack)-1]
				}
				log.Str(fmt.Sprintf("[%4.d] At %9.2fms", i, c.Perf.MsFromStart(&block)), fmt.Sprintf("%*.s[%s] %s (%.4fms)", len(blockStack)*2, "", block.Category, block.Description, block.DurationMs()))
				blockStack = append(blockStack, block.End)
			}
			log.Msg(fmt.Sprintf("Served [%s] %s in %.4fms", c.Perf.Method, c.Perf.Path, float64(c.Perf.End.Sub(c.Perf.Start).Nanoseconds())/1000/1000))
		}()

		return h(c)
	}
}

// needsAuth sends logged-out viewers to the backend's login page.
func needsAuth(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if !c.Viewer.IsAuthenticated() {
			return c.Redirect(config.Config.Backend.LoginUrl, http.StatusSeeOther)
		}

		return h(c)
	}
}

func privilegedOnly(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if !c.Viewer.IsPrivileged() {
			return FourOhFour(c)
		}

		return h(c)
	}
}

// sameOriginOnly rejects form posts coming from another site. The backend
// credential is a plain cookie, so a cross-site form could otherwise act as
// the viewer.
func sameOriginOnly(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		source := c.Req.Header.Get("Origin")
		if source == "" {
			source = c.Req.Header.Get("Referer")
		}
		if source != "" && !sameHost(source, c.Req.Host) {
			c.Logger.Warn().Str("source", source).Msg("rejected cross-site form post")
			return c.ErrorResponse(http.StatusForbidden, NewSafeError(nil, "This form was sent from another site."))
		}

		return h(c)
	}
}

func sameHost(source string, requestHost string) bool {
	parsed, err := url.Parse(source)
	if err != nil {
		return false
	}
	if parsed.Host == requestHost {
		return true
	}
	base, err := url.Parse(config.Config.BaseUrl)
	return err == nil && parsed.Host == base.Host
}

func logContextErrors(c *RequestContext, errs ...error) {
	for _, err := range errs {
		c.Logger.Error().Timestamp().Stack().Str("Requested", c.FullUrl()).Err(err).Msg("error occurred during request")
	}
}

func logContextErrorsMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		res := h(c)
		logContextErrors(c, res.Errors...)
		return res
	}
}
