// Package live drives an article page over a WebSocket. Each connection
// gets its own page and dialog slot; the browser sends ops and receives the
// page state, dialogs and navigation requests as events.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/dialog"
	"git.blogfront.dev/blogfront/src/diagram"
	"git.blogfront.dev/blogfront/src/feedpage"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/models"
	"git.blogfront.dev/blogfront/src/oops"
	"git.blogfront.dev/blogfront/src/preview"
	"git.blogfront.dev/blogfront/src/siteconfig"
	"git.blogfront.dev/blogfront/src/utils"
	"git.blogfront.dev/blogfront/src/viewer"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeTimeout = 10 * time.Second

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Config is what a session needs from the server. Backend should already
// carry the viewer's credential.
type Config struct {
	Backend  feedpage.Backend
	Viewer   *viewer.Holder
	Flags    *siteconfig.Holder
	Diagrams *diagram.Pass
	Site     preview.Site
	LoginUrl string
	Messages feedpage.Messages
}

type Session struct {
	ID string

	conn    *websocket.Conn
	writeMu sync.Mutex

	cfg  Config
	page *feedpage.Page
	slot *dialog.Slot

	logger  *zerolog.Logger
	actions sync.WaitGroup
}

func NewSession(conn *websocket.Conn, cfg Config) *Session {
	if cfg.Viewer == nil {
		cfg.Viewer = viewer.NewHolder(nil)
	}
	s := &Session{
		ID:   uuid.NewString(),
		conn: conn,
		cfg:  cfg,
		slot: dialog.NewSlot(),
	}
	s.page = feedpage.NewPage(feedpage.Deps{
		Backend:   cfg.Backend,
		Dialogs:   s.slot,
		Navigator: feedpage.NavigatorFunc(s.navigate),
		Login:     feedpage.LoginPrompterFunc(s.promptLogin),
		Viewer:    cfg.Viewer,
		Flags:     cfg.Flags,
		Diagrams:  cfg.Diagrams,
		Site:      cfg.Site,
		Messages:  cfg.Messages,
	})
	return s
}

// Serve upgrades the request and runs a session until the browser goes away.
func Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, cfg Config) error {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return oops.New(err, "failed to upgrade live connection")
	}
	defer conn.Close()
	return NewSession(conn, cfg).Run(ctx)
}

// Run reads ops until the connection closes or ctx ends. Actions that wait
// on dialogs run in their own goroutines so answers can still be read;
// they are cancelled and waited for before Run returns.
func (s *Session) Run(ctx context.Context) (err error) {
	defer utils.RecoverPanicAsError(&err)

	logger := logging.ExtractLogger(ctx).With().Str("live session", s.ID).Logger()
	s.logger = &logger
	ctx = logging.AttachLoggerToContext(s.logger, ctx)
	ctx, cancel := context.WithCancel(ctx)

	defer s.actions.Wait()
	defer s.slot.Close()
	defer cancel()

	unsubs := []func(){
		s.page.Controller.OnChange(func(feedpage.State) { s.sendState() }),
		s.page.Thread.OnChange(func(feedpage.ThreadState) { s.sendState() }),
		s.cfg.Viewer.Subscribe(func(_ *models.Viewer) { s.sendState() }),
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	s.slot.OnOpen(func(d *dialog.Session) {
		s.send(EventDialog, DialogPayload{ID: d.ID, Kind: string(d.Kind), Title: d.Title, Body: d.Body})
	})
	s.slot.OnClose(func(d *dialog.Session, outcome dialog.Outcome) {
		s.send(EventDialogClosed, DialogClosedPayload{ID: d.ID, Outcome: outcome.String()})
	})

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	s.logger.Debug().Msg("live session started")
	s.sendState()

	for {
		_, msgBytes, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Msg("live session closed")
				return nil
			}
			return oops.New(err, "failed to read live message")
		}

		var msg ClientMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			s.logger.Warn().Err(err).Msg("received malformed live message")
			s.sendError("Malformed message")
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *Session) handle(ctx context.Context, msg ClientMessage) {
	s.logger.Debug().Str("op", string(msg.Op)).Msg("received live op")

	switch msg.Op {
	case OpOpen:
		if msg.ID == "" {
			s.sendError("Missing article id")
			return
		}
		s.spawn(ctx, func(ctx context.Context) error {
			s.page.Open(ctx, msg.ID)
			return nil
		})
	case OpClose:
		s.slot.Close()
		s.page.Close()
	case OpPin:
		s.spawn(ctx, s.page.Controller.TogglePin)
	case OpDelete:
		s.spawn(ctx, s.page.Controller.Delete)
	case OpEdit:
		s.report(s.page.Controller.Edit())
	case OpCommentDraft:
		s.page.Thread.SetDraft(msg.Content)
	case OpCommentSubmit:
		s.spawn(ctx, s.page.Thread.Submit)
	case OpCommentDelete:
		s.spawn(ctx, func(ctx context.Context) error {
			return s.page.Thread.Delete(ctx, msg.CommentID)
		})
	case OpDialogAccept:
		s.report(s.slot.Accept())
	case OpDialogDismiss:
		s.report(s.slot.Dismiss())
	default:
		s.sendError("Unknown op " + string(msg.Op))
	}
}

func (s *Session) spawn(ctx context.Context, action func(ctx context.Context) error) {
	s.actions.Add(1)
	go func() {
		defer s.actions.Done()
		defer logging.LogPanics(s.logger)
		err := action(ctx)
		if ctx.Err() != nil {
			return
		}
		s.report(err)
	}()
}

// report tells the browser about failures it has not already been shown.
// Backend rejections were alerted and logged-out writes prompted a login.
func (s *Session) report(err error) {
	if err == nil {
		return
	}
	var actionErr *feedpage.ActionError
	switch {
	case errors.As(err, &actionErr), errors.Is(err, feedpage.ErrNotAuthenticated), errors.Is(err, context.Canceled):
		return
	case errors.Is(err, dialog.ErrBusy):
		s.sendError("Another dialog is already open")
	case errors.Is(err, dialog.ErrNoOpen):
		s.sendError("No dialog is open")
	case errors.Is(err, feedpage.ErrNotPrivileged):
		s.sendError("You are not allowed to do that")
	case errors.Is(err, feedpage.ErrNoArticle):
		s.sendError("No article is open")
	case errors.Is(err, feedpage.ErrNoComment):
		s.sendError("That comment is gone")
	case errors.Is(err, feedpage.ErrCommentsDisabled):
		s.sendError("Comments are disabled")
	default:
		s.logger.Error().Err(err).Msg("live action failed")
		s.sendError("Something went wrong")
	}
}

func (s *Session) navigate(url string) {
	s.send(EventNavigate, NavigatePayload{Path: blogurl.PathOf(url)})
}

func (s *Session) promptLogin() {
	s.send(EventLogin, LoginPayload{Url: s.cfg.LoginUrl})
}

func (s *Session) sendError(message string) {
	s.send(EventError, ErrorPayload{Message: message})
}

func (s *Session) sendState() {
	v := s.cfg.Viewer.Get()
	s.send(EventState, StatePayload{
		Viewer:  v,
		Article: articleView(s.page.Controller.State(), v),
		Thread:  threadView(s.page.Thread, s.page.Thread.State()),
	})
}

func (s *Session) send(event EventName, data any) {
	msg := ServerMessage{Event: event, Data: data}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, msg.ToJSON()); err != nil {
		if s.logger != nil {
			s.logger.Debug().Err(err).Str("event", string(event)).Msg("failed to send live event")
		}
	}
}
