package website

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"git.blogfront.dev/blogfront/src/templates"
)

func FourOhFour(c *RequestContext) ResponseData {
	var res ResponseData
	res.StatusCode = http.StatusNotFound

	if c.Req.Header["Accept"] != nil && strings.Contains(c.Req.Header["Accept"][0], "text/html") {
		templateData := struct {
			templates.BaseData
			Wanted string
		}{
			BaseData: getBaseData(c, "Page not found"),
			Wanted:   c.URL().Path,
		}
		res.MustWriteTemplate("404.html", templateData, c.Perf)
	} else {
		res.Write([]byte("Not Found"))
	}
	return res
}

// A SafeError can be used to wrap another error and explicitly provide
// an error message that is safe to show to a user. This allows the original
// error to easily be logged and for servers to consistently return errors
// in a standard format, without having to worry about leaking sensitive
// info (assuming you use the right middleware!).
type SafeError struct {
	Wrapped error
	Msg     string
}

func NewSafeError(err error, msg string, args ...interface{}) error {
	return &SafeError{
		Wrapped: err,
		Msg:     fmt.Sprintf(msg, args...),
	}
}

func (s *SafeError) Error() string {
	return s.Msg
}

func (s *SafeError) Unwrap() error {
	return s.Wrapped
}

// safeMessage is the first user-safe message among errs.
func safeMessage(errs []error) string {
	for _, err := range errs {
		var safe *SafeError
		if errors.As(err, &safe) {
			return safe.Msg
		}
	}
	return ""
}

type errorTemplateData struct {
	templates.BaseData
	Heading string
	Message string
	Hint    string
}

func errorData(c *RequestContext, heading, message, hint string) errorTemplateData {
	title := heading
	if title == "" {
		title = "Error"
	}
	return errorTemplateData{
		BaseData: getBaseData(c, title),
		Heading:  heading,
		Message:  message,
		Hint:     hint,
	}
}
