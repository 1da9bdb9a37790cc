package website

import (
	"context"
	"errors"
	"net/http"

	"git.blogfront.dev/blogfront/src/backend"
	"git.blogfront.dev/blogfront/src/diagram"
	"git.blogfront.dev/blogfront/src/oops"
	"git.blogfront.dev/blogfront/src/perf"
	"git.blogfront.dev/blogfront/src/siteconfig"
	"git.blogfront.dev/blogfront/src/viewer"
)

// Services are the long-lived collaborators every request shares.
type Services struct {
	Client   *backend.Client
	Flags    *siteconfig.Holder
	Diagrams *diagram.Pass

	// Live sessions end when this context does, since hijacked connections
	// outlive the server's own shutdown.
	LiveCtx context.Context
}

func attachServices(svc *Services) Middleware {
	return func(h Handler) Handler {
		return func(c *RequestContext) ResponseData {
			c.Services = svc
			return h(c)
		}
	}
}

func loadCommonData(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		b := perf.StartBlock(c, "MIDDLEWARE", "Load viewer")
		{
			var token string
			if cookie, err := c.Req.Cookie(backend.CredentialCookie); err == nil {
				token = cookie.Value
			}
			// http.ErrNoCookie is the only error Cookie ever returns, so no further handling to do here.

			c.Backend = c.Services.Client.As(token)
			if c.Backend.Authenticated() {
				v, err := viewer.Fetch(c, c.Backend)
				if err != nil {
					b.End()
					return c.ErrorResponse(http.StatusBadGateway, oops.New(err, "failed to get current viewer"), NewSafeError(err, "The blog backend is not responding."))
				}
				c.Viewer = v
			}
		}
		b.End()

		return h(c)
	}
}

// backendErrorResponse answers a failed read from the backend. Things the
// viewer may not see look the same as things that do not exist.
func backendErrorResponse(c *RequestContext, err error, msg string) ResponseData {
	var tokErr *backend.ErrorToken
	if errors.As(err, &tokErr) {
		switch tokErr.Status {
		case http.StatusNotFound, http.StatusForbidden:
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusBadGateway, oops.New(err, "%s", msg), NewSafeError(err, "%s", tokErr.Token))
	}
	return c.ErrorResponse(http.StatusBadGateway, oops.New(err, "%s", msg), NewSafeError(err, "The blog backend could not be reached."))
}
