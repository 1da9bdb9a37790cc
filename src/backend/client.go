package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/oops"
	"git.blogfront.dev/blogfront/src/perf"
	"git.blogfront.dev/blogfront/src/utils"
	"github.com/jpillora/backoff"
)

const (
	UserAgent = "blogfront/1.0"

	// CredentialCookie is the browser cookie holding the viewer's backend token.
	CredentialCookie = "token"
)

// Returned when the backend answers 2xx with a body that isn't the expected shape.
var ErrMalformedResponse = errors.New("malformed response from backend")

// ErrorToken is the error a backend answers with: a non-2xx status and a
// short message such as "Not found" or "Unauthorized".
type ErrorToken struct {
	Status int
	Token  string
}

func (e *ErrorToken) Error() string {
	return e.Token
}

// TokenOf returns the backend error token carried by err, if any.
func TokenOf(err error) (string, bool) {
	var tokErr *ErrorToken
	if errors.As(err, &tokErr) {
		return tokErr.Token, true
	}
	return "", false
}

type Client struct {
	BaseUrl    string
	HTTP       *http.Client
	MaxRetries int

	// Retry delays for idempotent requests.
	RetryMin time.Duration
	RetryMax time.Duration
}

func New(cfg config.BackendConfig) *Client {
	return &Client{
		BaseUrl:    strings.TrimRight(cfg.BaseUrl, "/"),
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		MaxRetries: cfg.MaxRetries,
		RetryMin:   200 * time.Millisecond,
		RetryMax:   5 * time.Second,
	}
}

func NewFromConfig() *Client {
	return New(config.Config.Backend)
}

// As returns a session that sends token as the viewer's credential. An
// empty token makes anonymous requests.
func (c *Client) As(token string) *Session {
	return &Session{client: c, token: token}
}

func (c *Client) makeRequest(ctx context.Context, method string, path string, token string, body []byte) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewBuffer(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseUrl+path, bodyReader)
	if err != nil {
		panic(err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	return req
}

type response struct {
	Status int
	Body   []byte
}

// do sends one logical request. GETs are retried on transport errors and
// 5xx responses; everything else is sent exactly once.
func (c *Client) do(ctx context.Context, method string, path string, token string, body []byte) (*response, error) {
	block := perf.StartBlock(ctx, "BACKEND", fmt.Sprintf("%s %s", method, path))
	defer block.End()

	attempts := 1
	if method == http.MethodGet {
		attempts += utils.IntMax(c.MaxRetries, 0)
	}
	boff := backoff.Backoff{
		Min:    c.RetryMin,
		Max:    c.RetryMax,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := boff.Duration()
			logging.ExtractLogger(ctx).Debug().
				Str("method", method).
				Str("path", path).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying backend request")
			if err := utils.SleepContext(ctx, delay); err != nil {
				return nil, oops.New(lastErr, "backend request interrupted")
			}
		}

		res, err := c.HTTP.Do(c.makeRequest(ctx, method, path, token, body))
		if err != nil {
			lastErr = oops.New(err, "failed to reach backend")
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		resBody, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			lastErr = oops.New(err, "failed to read backend response")
			continue
		}

		if res.StatusCode >= 500 && attempt+1 < attempts {
			lastErr = errorFromResponse(res.StatusCode, resBody)
			continue
		}
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			tokErr := errorFromResponse(res.StatusCode, resBody)
			logging.ExtractLogger(ctx).Debug().
				Str("method", method).
				Str("path", path).
				Int("status", res.StatusCode).
				Str("token", tokErr.Token).
				Msg("backend returned an error")
			return nil, tokErr
		}

		return &response{Status: res.StatusCode, Body: resBody}, nil
	}

	return nil, lastErr
}

// The backend sends error tokens as plain text or as a JSON string.
func errorFromResponse(status int, body []byte) *ErrorToken {
	trimmed := bytes.TrimSpace(body)
	token := string(trimmed)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			token = s
		}
	}
	if token == "" {
		token = http.StatusText(status)
	}
	return &ErrorToken{Status: status, Token: token}
}

// decode unmarshals a 2xx body into dest, which must be a pointer to a
// struct, map, or slice. The top-level JSON value must match: a string or
// null where an object is expected counts as malformed.
func decode(body []byte, dest any, opening byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != opening {
		return ErrMalformedResponse
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return oops.New(errors.Join(ErrMalformedResponse, err), "failed to decode backend response")
	}
	return nil
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
