package logging

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	color "git.blogfront.dev/blogfront/src/ansicolor"
	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/oops"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.ErrorStackMarshaler = oops.ZerologStackMarshaler
	log.Logger = log.Output(NewPrettyZerologWriter(os.Stderr))
	zerolog.SetGlobalLevel(config.Config.Level())
}

// Init re-applies the configured log level. Call it after config.Load. In
// live environments the output switches to plain JSON lines.
func Init() {
	zerolog.SetGlobalLevel(config.Config.Level())
	if config.Config.Env == config.Live {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func GlobalLogger() *zerolog.Logger {
	return &log.Logger
}

func Trace() *zerolog.Event {
	return log.Trace().Timestamp().Stack()
}

func Debug() *zerolog.Event {
	return log.Debug().Timestamp().Stack()
}

func Info() *zerolog.Event {
	return log.Info().Timestamp().Stack()
}

func Warn() *zerolog.Event {
	return log.Warn().Timestamp().Stack()
}

func Error() *zerolog.Event {
	return log.Error().Timestamp().Stack()
}

func Fatal() *zerolog.Event {
	return log.Fatal().Timestamp().Stack()
}

func With() zerolog.Context {
	return log.With().Stack()
}

type loggerContextKey struct{}

func AttachLoggerToContext(logger *zerolog.Logger, ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// ExtractLogger returns the logger attached to ctx, or the global logger.
func ExtractLogger(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey{}).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return GlobalLogger()
}

// PrettyZerologWriter turns zerolog's JSON lines into something readable
// in a terminal. Lines that are not JSON pass through untouched.
type PrettyZerologWriter struct {
	out io.Writer
	wd  string

	// Entries with details get a separator line, and so does the entry
	// after one.
	lastHadDetails bool
}

type prettyEntry struct {
	timestamp string
	level     string
	message   string
	request   string
	err       string
	stack     []any
	fields    []prettyField
}

type prettyField struct {
	name  string
	value any
}

func (e *prettyEntry) hasDetails() bool {
	return e.err != "" || e.stack != nil || len(e.fields) > 0
}

var ColorFromLevel = map[string]string{
	"trace": color.Gray,
	"debug": color.Gray,
	"info":  color.BgBlue,
	"warn":  color.BgYellow,
	"error": color.BgRed,
	"fatal": color.BgRed,
	"panic": color.BgRed,
}

// requestFieldName is the per-request id set by the website's request
// logger. It is shown in the header line instead of with the other fields.
const requestFieldName = "request"

func NewPrettyZerologWriter(out io.Writer) *PrettyZerologWriter {
	wd, _ := os.Getwd()
	return &PrettyZerologWriter{
		out: out,
		wd:  wd,
	}
}

func parsePrettyEntry(p []byte) (prettyEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return prettyEntry{}, false
	}

	var e prettyEntry
	for name, val := range raw {
		switch name {
		case zerolog.TimestampFieldName:
			e.timestamp, _ = val.(string)
		case zerolog.LevelFieldName:
			e.level, _ = val.(string)
		case zerolog.MessageFieldName:
			e.message, _ = val.(string)
		case zerolog.ErrorFieldName:
			e.err, _ = val.(string)
		case zerolog.ErrorStackFieldName:
			e.stack, _ = val.([]any)
		case requestFieldName:
			e.request, _ = val.(string)
		default:
			e.fields = append(e.fields, prettyField{name: name, value: val})
		}
	}
	sort.Slice(e.fields, func(i, j int) bool {
		return e.fields[i].name < e.fields[j].name
	})
	return e, true
}

func (w *PrettyZerologWriter) Write(p []byte) (int, error) {
	e, ok := parsePrettyEntry(p)
	if !ok {
		return w.out.Write(p)
	}

	var b strings.Builder
	details := e.hasDetails()
	if details || w.lastHadDetails {
		b.WriteString("---------------------------------------\n")
	}
	w.lastHadDetails = details

	b.WriteString(e.timestamp)
	b.WriteString(" ")
	if e.level != "" {
		b.WriteString(ColorFromLevel[e.level] + color.Bold + strings.ToUpper(e.level) + color.Reset + ": ")
	}
	if e.request != "" {
		b.WriteString(color.Gray + "[" + shortRequestID(e.request) + "]" + color.Reset + " ")
	}
	b.WriteString(e.message)
	b.WriteString("\n")

	if e.err != "" {
		b.WriteString("  " + color.Bold + color.Red + "ERROR:" + color.Reset + " " + e.err + "\n")
	}
	if len(e.fields) > 0 {
		writeSectionTitle(&b, "Fields")
		for _, f := range e.fields {
			value, _ := json.MarshalIndent(f.value, "    ", "  ")
			b.WriteString("    " + f.name + ": " + string(value) + "\n")
		}
	}
	if e.stack != nil {
		writeSectionTitle(&b, "Stack trace")
		for _, frame := range e.stack {
			if line, ok := w.formatFrame(frame); ok {
				b.WriteString("    " + line + "\n")
			}
		}
	}

	if _, err := io.WriteString(w.out, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func writeSectionTitle(b *strings.Builder, title string) {
	b.WriteString("  " + color.Bold + color.Blue + title + ":" + color.Reset + "\n")
}

// formatFrame renders one frame of an oops stack as "function (file:line)",
// with paths relative to the working directory.
func (w *PrettyZerologWriter) formatFrame(frame any) (string, bool) {
	m, ok := frame.(map[string]any)
	if !ok {
		return "", false
	}
	file, _ := m["file"].(string)
	function, _ := m["function"].(string)
	line, _ := m["line"].(float64)
	if w.wd != "" {
		file = strings.Replace(file, w.wd, ".", 1)
	}
	return function + " (" + file + ":" + strconv.Itoa(int(line)) + ")", true
}

func shortRequestID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func LogPanics(logger *zerolog.Logger) {
	if r := recover(); r != nil {
		LogPanicValue(logger, r, "recovered from panic")
	}
}

func LogPanicValue(logger *zerolog.Logger, val any, msg string) {
	if logger == nil {
		logger = GlobalLogger()
	}

	if err, ok := val.(error); ok {
		l := logger.Error().Err(err)
		if _, ok := err.(*oops.Error); !ok {
			l = l.Interface(zerolog.ErrorStackFieldName, oops.Trace())
		}
		l.Msg(msg)
	} else {
		logger.Error().
			Interface("recovered", val).
			Interface(zerolog.ErrorStackFieldName, oops.Trace()).
			Msg(msg)
	}
}
