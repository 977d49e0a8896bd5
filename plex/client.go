// Package plex is a small client for the Plex Media Server REST API and the
// plex.tv account API. It covers the endpoints the MCP tools need and nothing
// more.
package plex

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Product = "plex-mcp"

	defaultAccountURL = "https://plex.tv"
	defaultTimeout    = 30 * time.Second
)

// ErrNotFound is matched by errors.Is for 404 responses and for lookups that
// find nothing.
var ErrNotFound = errors.New("not found")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plex: %s %s: %s", e.Method, e.Path, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client talks to one Plex Media Server with one token.
type Client struct {
	baseURL    *url.URL
	accountURL string
	token      string
	clientID   string
	version    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithClientIdentifier fixes the X-Plex-Client-Identifier header. By default
// a random UUID is generated per client.
func WithClientIdentifier(id string) Option {
	return func(c *Client) { c.clientID = id }
}

// WithAccountURL overrides the plex.tv base URL.
func WithAccountURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.accountURL = strings.TrimRight(u, "/")
		}
	}
}

func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("plex: server URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("plex: invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("plex: invalid server URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		accountURL: defaultAccountURL,
		token:      token,
		clientID:   uuid.NewString(),
		version:    "dev",
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithToken returns a copy of c that authenticates as a different user.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Token() string { return c.token }

func (c *Client) ClientIdentifier() string { return c.clientID }

func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// URL returns an absolute, tokenised URL for path. It is meant for handing
// image links to callers.
func (c *Client) URL(path string) string {
	u := c.resolve(path, nil)
	q := u.Query()
	q.Set("X-Plex-Token", c.token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) resolve(path string, query url.Values) *url.URL {
	u := *c.baseURL
	p, rawQuery, _ := strings.Cut(path, "?")
	u.Path = strings.TrimRight(u.Path, "/") + p
	q, _ := url.ParseQuery(rawQuery)
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return &u
}

func (c *Client) setHeaders(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("X-Plex-Token", token)
	}
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", Product)
	req.Header.Set("X-Plex-Version", c.version)
	req.Header.Set("X-Plex-Platform", "Go")
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query).String(), body)
	if err != nil {
		return nil, fmt.Errorf("plex: building request: %w", err)
	}
	c.setHeaders(req, c.token)
	return req, nil
}

// do sends req and returns the response when the status is 2xx. Otherwise
// the body is drained into a StatusError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error repeats the full URL, which may carry the token.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("plex: %s %s: %w", req.Method, req.URL.Path, err)
	}
	c.logger.Debug("plex request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   string(body),
		}
	}
	return resp, nil
}

type envelope struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}

// get fetches path and decodes the MediaContainer.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*MediaContainer, error) {
	return c.call(ctx, http.MethodGet, path, query)
}

// call sends a request without a body and decodes the MediaContainer if the
// server returned one.
func (c *Client) call(ctx context.Context, method, path string, query url.Values) (*MediaContainer, error) {
	req, err := c.newRequest(ctx, method, path, query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("plex: reading %s: %w", path, err)
	}
	var env envelope
	if len(strings.TrimSpace(string(data))) == 0 {
		return &env.MediaContainer, nil
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("plex: decoding %s: %w", path, err)
	}
	return &env.MediaContainer, nil
}

// send issues a request and discards the body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values) error {
	req, err := c.newRequest(ctx, method, path, query, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// getXML decodes an XML response into v. Player endpoints and a few plex.tv
// endpoints only answer in XML.
func (c *Client) getXML(ctx context.Context, rawURL string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("plex: building request: %w", err)
	}
	for k, vs := range header {
		for _, hv := range vs {
			req.Header.Add(k, hv)
		}
	}
	req.Header.Set("Accept", "application/xml")
	c.setHeaders(req, c.token)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := xml.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("plex: decoding %s: %w", req.URL.Path, err)
	}
	return nil
}

// download fetches path and returns the raw body.
func (c *Client) download(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("plex: reading %s: %w", path, err)
	}
	return data, nil
}

// RedactToken removes the token from s so URLs can be logged.
func (c *Client) RedactToken(s string) string {
	if len(c.token) < 4 {
		return s
	}
	return strings.ReplaceAll(s, c.token, "[REDACTED]")
}
