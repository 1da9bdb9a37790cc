package website

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"git.blogfront.dev/blogfront/src/logging"
)

// Router tries its routes in registration order and serves the first one
// whose method and path regex match. Register a catch-all last.
type Router struct {
	Routes []Route
}

type Route struct {
	Method  string // empty matches any method
	Regex   *regexp.Regexp
	Handler Handler
}

func (r *Route) String() string {
	method := r.Method
	if method == "" {
		method = "*"
	}
	return fmt.Sprintf("%s %s", method, r.Regex)
}

// match reports whether the route serves method and path, and returns the
// named groups of the regex.
func (r *Route) match(method, path string) (map[string]string, bool) {
	if r.Method != "" && r.Method != method {
		return nil, false
	}
	m := r.Regex.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string)
	for i, name := range r.Regex.SubexpNames() {
		if name != "" {
			params[name] = m[i]
		}
	}
	return params, true
}

type Handler func(c *RequestContext) ResponseData
type Middleware func(h Handler) Handler

// RouteBuilder registers routes on a Router with a fixed middleware chain.
// The first middleware is the outermost.
type RouteBuilder struct {
	Router      *Router
	Middlewares []Middleware
}

func (rb *RouteBuilder) Handle(methods []string, regex *regexp.Regexp, h Handler) {
	if !strings.HasPrefix(regex.String(), "^") {
		panic(fmt.Sprintf("route regex %q must be anchored with ^", regex))
	}

	for i := len(rb.Middlewares) - 1; i >= 0; i-- {
		h = rb.Middlewares[i](h)
	}
	for _, method := range methods {
		rb.Router.Routes = append(rb.Router.Routes, Route{
			Method:  method,
			Regex:   regex,
			Handler: h,
		})
	}
}

func (rb *RouteBuilder) AnyMethod(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{""}, regex, h)
}

func (rb *RouteBuilder) GET(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{http.MethodGet}, regex, h)
}

func (rb *RouteBuilder) POST(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{http.MethodPost}, regex, h)
}

// WithMiddleware returns a builder that runs ms inside rb's middlewares.
// Builders derived from the same parent never share a backing array.
func (rb *RouteBuilder) WithMiddleware(ms ...Middleware) RouteBuilder {
	return RouteBuilder{
		Router:      rb.Router,
		Middlewares: slices.Concat(rb.Middlewares, ms),
	}
}

func (r *Router) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	method := req.Method
	if method == http.MethodHead {
		method = http.MethodGet
	}
	path := strings.TrimSuffix(req.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	for i := range r.Routes {
		route := &r.Routes[i]
		params, ok := route.match(method, path)
		if !ok {
			continue
		}

		c := &RequestContext{
			Route:      route.String(),
			Logger:     logging.GlobalLogger(),
			Req:        req,
			Res:        rw,
			PathParams: params,

			ctx: req.Context(),
		}
		doRequest(rw, c, route.Handler)
		return
	}

	panic(fmt.Sprintf("no route matched %s %s; register a catch-all route", req.Method, req.URL.Path))
}
