package website

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/dialog"
	"git.blogfront.dev/blogfront/src/feedpage"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/oops"
	"git.blogfront.dev/blogfront/src/templates"
	"git.blogfront.dev/blogfront/src/viewer"
)

// pageRun is one article page driven by a single request. Dialogs are
// answered up front: a GET never acts, and a POST arrives after the
// viewer confirmed on the GET page. Navigation and login prompts are
// recorded so the handler can turn them into redirects.
type pageRun struct {
	page    *feedpage.Page
	dialogs *dialog.Preanswered

	navigatedTo   string
	loginPrompted bool
}

func newPageRun(c *RequestContext, answer dialog.Outcome) *pageRun {
	run := &pageRun{dialogs: &dialog.Preanswered{Answer: answer}}
	run.page = feedpage.NewPage(feedpage.Deps{
		Backend: c.Backend,
		Dialogs: run.dialogs,
		Navigator: feedpage.NavigatorFunc(func(url string) {
			run.navigatedTo = url
		}),
		Login: feedpage.LoginPrompterFunc(func() {
			run.loginPrompted = true
		}),
		Viewer:   viewer.NewHolder(c.Viewer),
		Flags:    c.Services.Flags,
		Diagrams: c.Services.Diagrams,
		Site:     siteForPreview(),
		Messages: feedpage.English,
	})
	return run
}

type ArticleData struct {
	templates.BaseData

	Article     templates.Article
	ShowCounter bool

	CommentsEnabled bool
	Comments        []templates.Comment
	CommentsError   string
	CommentUrl      string
	Draft           string
	SubmitError     string
}

func Article(c *RequestContext) ResponseData {
	id := c.PathParams["id"]
	run := newPageRun(c, dialog.Dismissed)
	s, _ := run.page.Open(c, id)
	if !s.Loaded() {
		return articleFailed(c, s)
	}
	return renderArticle(c, run.page, http.StatusOK)
}

// articleFailed is the full-page error for an article that did not load.
func articleFailed(c *RequestContext, s feedpage.State) ResponseData {
	status := http.StatusBadGateway
	hint := ""
	switch s.Error {
	case feedpage.TokenNotFound:
		status = http.StatusNotFound
		if s.NeedsAbout() {
			hint = feedpage.English.AboutNotFound
		}
	case feedpage.TokenUnauthorized:
		status = http.StatusForbidden
	}

	var res ResponseData
	res.StatusCode = status
	res.MustWriteTemplate("error.html", errorData(c, "Could not load this article", s.Error, hint), c.Perf)
	return res
}

func renderArticle(c *RequestContext, page *feedpage.Page, status int) ResponseData {
	s := page.Controller.State()
	ts := page.Thread.State()

	article := templates.ArticleToTemplate(s.Article, s.Body, s.Image, s.Pinned())
	if c.Viewer.IsPrivileged() {
		article.AddActionUrls(s.ID)
	}

	comments := make([]templates.Comment, 0, len(ts.Comments))
	for i := range ts.Comments {
		cm := &ts.Comments[i]
		comments = append(comments, templates.CommentToTemplate(cm, s.ID, page.Thread.CanDelete(cm)))
	}

	baseData := getBaseData(c, s.Article.DisplayTitle())
	applyHead(&baseData, s.Head)
	baseData.LiveUrl = blogurl.BuildLive()
	baseData.BodyClasses = append(baseData.BodyClasses, "article-page")

	var res ResponseData
	res.StatusCode = status
	res.MustWriteTemplate("article.html", ArticleData{
		BaseData:    baseData,
		Article:     article,
		ShowCounter: c.Services.Flags.CounterEnabled(),

		CommentsEnabled: page.Thread.Enabled(),
		Comments:        comments,
		CommentsError:   ts.LoadError,
		CommentUrl:      blogurl.BuildFeedComment(s.ID),
		Draft:           ts.Draft,
		SubmitError:     ts.SubmitError,
	}, c.Perf)
	return res
}

type ConfirmData struct {
	templates.BaseData

	ConfirmTitle string
	ConfirmBody  string
	Subject      string
	SubmitUrl    string
	CancelUrl    string

	// Hidden form fields posted back with the confirmation.
	Fields map[string]string
}

func renderConfirm(c *RequestContext, title, body, subject, cancelUrl string, fields map[string]string) ResponseData {
	var res ResponseData
	res.MustWriteTemplate("confirm.html", ConfirmData{
		BaseData:     getBaseData(c, title),
		ConfirmTitle: title,
		ConfirmBody:  body,
		Subject:      subject,
		SubmitUrl:    c.URL().RequestURI(),
		CancelUrl:    cancelUrl,
		Fields:       fields,
	}, c.Perf)
	return res
}

func ArticleDelete(c *RequestContext) ResponseData {
	id := c.PathParams["id"]
	run := newPageRun(c, dialog.Dismissed)
	s, _ := run.page.Open(c, id)
	if !s.Loaded() {
		return articleFailed(c, s)
	}

	msgs := feedpage.English
	return renderConfirm(c, msgs.DeleteTitle, msgs.DeleteConfirm, s.Article.DisplayTitle(), blogurl.BuildFeed(id), nil)
}

func ArticleDeleteSubmit(c *RequestContext) ResponseData {
	return runArticleAction(c, c.PathParams["id"], func(ctx context.Context, page *feedpage.Page) error {
		return page.Controller.Delete(ctx)
	})
}

func ArticleTop(c *RequestContext) ResponseData {
	id := c.PathParams["id"]
	run := newPageRun(c, dialog.Dismissed)
	s, _ := run.page.Open(c, id)
	if !s.Loaded() {
		return articleFailed(c, s)
	}

	msgs := feedpage.English
	title, body, target := msgs.PinTitle, msgs.PinConfirm, 1
	if s.Pinned() {
		title, body, target = msgs.UnpinTitle, msgs.UnpinConfirm, 0
	}
	fields := map[string]string{"top": strconv.Itoa(target)}
	return renderConfirm(c, title, body, s.Article.DisplayTitle(), blogurl.BuildFeed(id), fields)
}

// ArticleTopSubmit sets the pin state the confirmation page offered. The
// form carries the target rather than a toggle, so a resubmitted form
// leaves the article as the viewer asked.
func ArticleTopSubmit(c *RequestContext) ResponseData {
	form, err := c.GetFormValues()
	if err != nil {
		return c.ErrorResponse(http.StatusBadRequest, NewSafeError(err, "The pin form could not be read."))
	}
	target, err := strconv.Atoi(form.Get("top"))
	if err != nil || (target != 0 && target != 1) {
		return c.ErrorResponse(http.StatusBadRequest, NewSafeError(err, "The pin form is missing its target."))
	}
	return runArticleAction(c, c.PathParams["id"], func(ctx context.Context, page *feedpage.Page) error {
		return page.Controller.SetPin(ctx, target)
	})
}

func CommentSubmit(c *RequestContext) ResponseData {
	id := c.PathParams["id"]
	form, err := c.GetFormValues()
	if err != nil {
		return c.ErrorResponse(http.StatusBadRequest, NewSafeError(err, "The comment form could not be read."))
	}

	run := newPageRun(c, dialog.Accepted)
	s, _ := run.page.Open(c, id)
	if !s.Loaded() {
		return articleFailed(c, s)
	}

	run.page.Thread.SetDraft(form.Get("content"))
	err = run.page.Thread.Submit(c)

	var actionErr *feedpage.ActionError
	if errors.As(err, &actionErr) {
		// Show the form again with the draft and why it was refused.
		return renderArticle(c, run.page, http.StatusUnprocessableEntity)
	}
	return finishArticleAction(c, run, id, err)
}

func CommentDelete(c *RequestContext) ResponseData {
	feedID, commentID, res, ok := commentParams(c)
	if !ok {
		return res
	}

	run := newPageRun(c, dialog.Dismissed)
	s, _ := run.page.Open(c, feedID)
	if !s.Loaded() {
		return articleFailed(c, s)
	}

	var comment *models.Comment
	ts := run.page.Thread.State()
	for i := range ts.Comments {
		if ts.Comments[i].ID == commentID {
			comment = &ts.Comments[i]
		}
	}
	if comment == nil || !run.page.Thread.CanDelete(comment) {
		return FourOhFour(c)
	}

	msgs := feedpage.English
	return renderConfirm(c, msgs.DeleteCommentTitle, msgs.DeleteCommentConfirm, comment.Content, blogurl.BuildFeed(feedID), nil)
}

func CommentDeleteSubmit(c *RequestContext) ResponseData {
	feedID, commentID, res, ok := commentParams(c)
	if !ok {
		return res
	}
	return runArticleAction(c, feedID, func(ctx context.Context, page *feedpage.Page) error {
		return page.Thread.Delete(ctx, commentID)
	})
}

func commentParams(c *RequestContext) (feedID string, commentID int, res ResponseData, ok bool) {
	commentID, err := strconv.Atoi(c.PathParams["commentid"])
	if err != nil {
		return "", 0, FourOhFour(c), false
	}
	feedID = c.Req.URL.Query().Get("feed")
	if feedID == "" {
		return "", 0, c.ErrorResponse(http.StatusBadRequest, NewSafeError(nil, "Missing the article this comment belongs to.")), false
	}
	return feedID, commentID, ResponseData{}, true
}

// runArticleAction loads the article and carries out a confirmed action on
// it, then sends the browser on with the action's alerts as notices.
func runArticleAction(c *RequestContext, id string, action func(ctx context.Context, page *feedpage.Page) error) ResponseData {
	run := newPageRun(c, dialog.Accepted)
	s, _ := run.page.Open(c, id)
	if !s.Loaded() {
		var res ResponseData
		res.AddFutureNotice(NoticeFailure, s.Error)
		if s.Error == feedpage.TokenNotFound {
			return redirectWithNotices(c, res, blogurl.BuildHome())
		}
		return redirectWithNotices(c, res, blogurl.BuildFeed(id))
	}

	return finishArticleAction(c, run, id, action(c, run.page))
}

func finishArticleAction(c *RequestContext, run *pageRun, id string, err error) ResponseData {
	var res ResponseData
	dest := blogurl.BuildFeed(id)

	var actionErr *feedpage.ActionError
	switch {
	case err == nil:
		addDialogNotices(&res, run.dialogs.Notices(), NoticeSuccess)
		if run.navigatedTo != "" {
			dest = run.navigatedTo
		}
	case errors.As(err, &actionErr):
		addDialogNotices(&res, run.dialogs.Notices(), NoticeFailure)
	case errors.Is(err, feedpage.ErrNotAuthenticated) || run.loginPrompted:
		return c.Redirect(config.Config.Backend.LoginUrl, http.StatusSeeOther)
	case errors.Is(err, feedpage.ErrNotPrivileged):
		return FourOhFour(c)
	case errors.Is(err, feedpage.ErrNoComment):
		res.AddFutureNotice(NoticeFailure, "That comment is gone")
	case errors.Is(err, feedpage.ErrCommentsDisabled):
		res.AddFutureNotice(NoticeFailure, "Comments are disabled")
	default:
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "article action failed"))
	}

	return redirectWithNotices(c, res, dest)
}

func redirectWithNotices(c *RequestContext, notices ResponseData, dest string) ResponseData {
	res := c.Redirect(dest, http.StatusSeeOther)
	res.FutureNotices = notices.FutureNotices
	return res
}
