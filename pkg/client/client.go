// Package client is a Go client for the ShareKindness HTTP API. It keeps the
// session tokens in a TokenStore and refreshes the access token once when a
// call is rejected with 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrSessionExpired is returned when the access token was rejected and could
// not be refreshed. The stored tokens are cleared.
var ErrSessionExpired = errors.New("client: session expired, log in again")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: http %d", e.Status)
	}
	return fmt.Sprintf("client: http %d: %s", e.Status, e.Message)
}

// Client talks to one ShareKindness server.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenStore
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenStore sets where session tokens are kept.
func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) {
		if ts != nil {
			c.tokens = ts
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  NewMemoryTokenStore(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Tokens exposes the client's token store.
func (c *Client) Tokens() TokenStore { return c.tokens }

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	form   *form
	auth   bool
}

// form is a multipart body with an optional file part.
type form struct {
	fields    map[string]string
	fileField string
	fileName  string
	file      []byte
}

func (f *form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range f.fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if len(f.file) > 0 {
		name := f.fileName
		if name == "" {
			name = "upload"
		}
		part, err := mw.CreateFormFile(f.fileField, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.file); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) newRequest(ctx context.Context, cl call, access string) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + cl.path
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case cl.form != nil:
		r, ct, err := cl.form.encode()
		if err != nil {
			return nil, fmt.Errorf("client: encode form: %w", err)
		}
		body, contentType = r, ct
	case cl.body != nil:
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	return req, nil
}

// do sends the call and returns the raw response body of a 2xx answer. A 401
// on an authenticated call triggers one refresh and retry.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	retried := false
	for {
		access := ""
		if cl.auth {
			tok, err := c.tokens.Load()
			if err != nil {
				return nil, fmt.Errorf("client: load tokens: %w", err)
			}
			access = tok.Access
		}
		req, err := c.newRequest(ctx, cl, access)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("client: %s %s: %w", cl.method, cl.path, err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("client: read response: %w", err)
		}
		c.logger.Debug().
			Str("method", cl.method).
			Str("path", cl.path).
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("client: request")

		if resp.StatusCode == http.StatusUnauthorized && cl.auth {
			if retried {
				_ = c.tokens.Clear()
				return nil, ErrSessionExpired
			}
			if err := c.refresh(ctx); err != nil {
				return nil, err
			}
			retried = true
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, decodeError(resp.StatusCode, data)
		}
		return data, nil
	}
}

// refresh exchanges the stored refresh token. Any failure clears the session.
func (c *Client) refresh(ctx context.Context) error {
	tok, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("client: load tokens: %w", err)
	}
	if tok.Refresh == "" {
		_ = c.tokens.Clear()
		return ErrSessionExpired
	}
	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	data, err := c.do(ctx, call{method: http.MethodPost, path: "/api/token/refresh/", body: map[string]string{"refresh": tok.Refresh}})
	if err == nil {
		err = json.Unmarshal(data, &out)
	}
	if err != nil || out.Access == "" {
		c.logger.Debug().Err(err).Msg("client: token refresh failed")
		_ = c.tokens.Clear()
		return ErrSessionExpired
	}
	next := Tokens{Access: out.Access, Refresh: tok.Refresh}
	if out.Refresh != "" {
		next.Refresh = out.Refresh
	}
	return c.tokens.Save(next)
}

func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	data, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{Status: status}
	if len(data) > 0 && json.Unmarshal(data, apiErr) != nil {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	apiErr.Status = status
	return apiErr
}
