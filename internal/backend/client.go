package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/pkg/sanitize"
)

/*
Client wraps the case-management REST API.

Every call is made on behalf of a signed-in user: the browser's upstream
session cookie is forwarded verbatim (the API authenticates by cookie, there
is no service credential). Use Client.As to bind a cookie, then call the
typed endpoint methods on the returned Session.
*/
type Client struct {
	baseURL string // e.g. http://localhost:3000
	client  *http.Client
	log     *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// BaseURL is the API origin, also used to resolve image paths.
func (c *Client) BaseURL() string { return c.baseURL }

// Session is a Client bound to one user's forwarded credentials.
type Session struct {
	c      *Client
	cookie string
}

// As binds the forwarded Cookie header value.
func (c *Client) As(cookie string) *Session {
	return &Session{c: c, cookie: cookie}
}

// do sends one request and decodes a 2xx JSON body into out (when non-nil).
// Non-2xx becomes *StatusError, no response becomes ErrTransport.
func (s *Session) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	url := s.c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	res, err := s.c.client.Do(req)
	if err != nil {
		s.c.log.Warn("upstream request failed",
			zap.String("method", method), zap.String("endpoint", path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s %s: %v", ErrTransport, method, path, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		se := newStatusError(res.StatusCode, raw)
		s.c.log.Info("upstream rejected request",
			zap.String("method", method),
			zap.String("endpoint", path),
			zap.Int("status", res.StatusCode),
			zap.String("message", sanitize.RedactPII(se.Message)))
		return se
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, path, err)
	}
	return nil
}

func (s *Session) get(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodGet, path, nil, "", out)
}

func (s *Session) sendJSON(ctx context.Context, method, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return s.do(ctx, method, path, bytes.NewReader(b), "application/json", out)
}
