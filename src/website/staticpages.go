package website

import (
	"context"
	"net/http"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/feedpage"
	"git.blogfront.dev/blogfront/src/live"
	"git.blogfront.dev/blogfront/src/markdown"
	"git.blogfront.dev/blogfront/src/oops"
	"git.blogfront.dev/blogfront/src/templates"
	"git.blogfront.dev/blogfront/src/viewer"
)

func PublicFile(c *RequestContext) ResponseData {
	var res ResponseData
	fileServer := http.StripPrefix(blogurl.StaticPath, http.FileServerFS(templates.Public()))
	fileServer.ServeHTTP(&res, c.Req)
	if !config.Config.IsDev() && res.StatusCode < 300 {
		res.Header().Set("Cache-Control", "public, max-age=3600")
	}
	return res
}

// HighlightCSS is the stylesheet for highlighted code blocks in articles.
func HighlightCSS(c *RequestContext) ResponseData {
	var res ResponseData
	res.Header().Set("Content-Type", "text/css; charset=utf-8")
	if err := markdown.WriteHighlightCSS(&res); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to write highlight css"))
	}
	return res
}

func Healthz(c *RequestContext) ResponseData {
	var res ResponseData
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.Write([]byte("ok\n"))
	return res
}

// LiveChannel hands the connection over to a live article session.
func LiveChannel(c *RequestContext) ResponseData {
	ctx, cancel := context.WithCancel(c)
	defer cancel()
	if c.Services.LiveCtx != nil {
		stop := context.AfterFunc(c.Services.LiveCtx, cancel)
		defer stop()
	}

	err := live.Serve(ctx, c.Res, c.Req, live.Config{
		Backend:  c.Backend,
		Viewer:   viewer.NewHolder(c.Viewer),
		Flags:    c.Services.Flags,
		Diagrams: c.Services.Diagrams,
		Site:     siteForPreview(),
		LoginUrl: config.Config.Backend.LoginUrl,
		Messages: feedpage.English,
	})
	if err != nil {
		c.Logger.Warn().Err(err).Msg("live session ended with an error")
	}
	return ResponseData{hijacked: true}
}
