package plex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ConnectorConfig holds everything needed to reach a server, either
// directly with URL and Token or through plex.tv with Username, Password and
// ServerName.
type ConnectorConfig struct {
	URL        string
	Token      string
	Username   string
	Password   string
	ServerName string
	AccountURL string

	Timeout        time.Duration
	SessionTimeout time.Duration
	Retry          RetryConfig

	Version    string
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Connector hands out a connected Client, reusing it while it is fresh and
// still answering. The cached client is health-checked outside the lock and
// concurrent reconnects share a single attempt.
type Connector struct {
	cfg ConnectorConfig
	now func() time.Time

	mu            sync.Mutex
	client        *Client
	lastConnected time.Time

	reconnect singleflight.Group
}

func NewConnector(cfg ConnectorConfig) *Connector {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 30 * time.Minute
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetry
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Connector{cfg: cfg, now: time.Now}
}

// Client returns the cached client if it was connected within the session
// timeout and passes a health check, and reconnects otherwise.
func (c *Connector) Client(ctx context.Context) (*Client, error) {
	if client := c.fresh(); client != nil {
		_, err := client.Sections(ctx)
		if err == nil {
			c.touch(client)
			return client, nil
		}
		c.cfg.Logger.Warn("Cached Plex connection failed, reconnecting", "error", err)
		c.drop(client)
	}

	v, err, _ := c.reconnect.Do("connect", func() (any, error) {
		// Another caller may have reconnected during this one's health check.
		if client := c.fresh(); client != nil {
			return client, nil
		}
		return c.dial(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

func (c *Connector) dial(ctx context.Context) (*Client, error) {
	if !c.hasCredentials() {
		return nil, errNoCredentials
	}

	var client *Client
	err := retry(ctx, c.cfg.Retry, c.cfg.Logger, func() error {
		var err error
		client, err = c.connect(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Plex after %d attempts: %w", c.cfg.Retry.MaxAttempts, err)
	}

	c.mu.Lock()
	c.client = client
	c.lastConnected = c.now()
	c.mu.Unlock()
	return client, nil
}

// fresh returns the cached client when it is within the session timeout.
func (c *Connector) fresh() *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil && c.now().Sub(c.lastConnected) < c.cfg.SessionTimeout {
		return c.client
	}
	return nil
}

func (c *Connector) touch(client *Client) {
	c.mu.Lock()
	if c.client == client {
		c.lastConnected = c.now()
	}
	c.mu.Unlock()
}

// drop clears the cache only if it still holds client.
func (c *Connector) drop(client *Client) {
	c.mu.Lock()
	if c.client == client {
		c.client = nil
	}
	c.mu.Unlock()
}

// Reset drops the cached client.
func (c *Connector) Reset() {
	c.mu.Lock()
	c.client = nil
	c.mu.Unlock()
}

var errNoCredentials = errors.New("insufficient Plex credentials provided: set PLEX_URL and PLEX_TOKEN, or PLEX_USERNAME, PLEX_PASSWORD and PLEX_SERVER_NAME")

func (c *Connector) options() []Option {
	opts := []Option{
		WithAccountURL(c.cfg.AccountURL),
		WithLogger(c.cfg.Logger),
	}
	if c.cfg.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(c.cfg.HTTPClient))
	} else {
		opts = append(opts, WithTimeout(c.cfg.Timeout))
	}
	if c.cfg.Version != "" {
		opts = append(opts, WithVersion(c.cfg.Version))
	}
	return opts
}

func (c *Connector) connect(ctx context.Context) (*Client, error) {
	if c.cfg.Token != "" {
		client, err := NewClient(c.cfg.URL, c.cfg.Token, c.options()...)
		if err != nil {
			return nil, err
		}
		if _, err := client.Identity(ctx); err != nil {
			return nil, err
		}
		c.cfg.Logger.Info("Connected to Plex server", "url", c.cfg.URL)
		return client, nil
	}

	return c.connectViaAccount(ctx)
}

func (c *Connector) hasCredentials() bool {
	if c.cfg.Token != "" {
		return true
	}
	return c.cfg.Username != "" && c.cfg.Password != "" && c.cfg.ServerName != ""
}

// connectViaAccount signs in to plex.tv and tries each advertised connection
// of the named server until one answers.
func (c *Connector) connectViaAccount(ctx context.Context) (*Client, error) {
	acct, err := NewAccountClient(c.cfg.AccountURL, "", c.options()...)
	if err != nil {
		return nil, err
	}
	token, err := acct.SignIn(ctx, c.cfg.Username, c.cfg.Password)
	if err != nil {
		return nil, err
	}
	acct = acct.WithToken(token)

	resources, err := acct.Resources(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, res := range resources {
		if !strings.EqualFold(res.Name, c.cfg.ServerName) || !res.providesServer() {
			continue
		}
		serverToken := res.AccessToken
		if serverToken == "" {
			serverToken = token
		}
		for _, conn := range res.Connections {
			client, err := NewClient(conn.URI, serverToken, c.options()...)
			if err != nil {
				lastErr = err
				continue
			}
			if _, err := client.Identity(ctx); err != nil {
				c.cfg.Logger.Debug("Plex connection candidate failed", "uri", conn.URI, "error", err)
				lastErr = err
				continue
			}
			c.cfg.Logger.Info("Connected to Plex server via plex.tv", "server", res.Name, "uri", conn.URI)
			return client, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("no working connection to server %q: %w", c.cfg.ServerName, lastErr)
	}
	return nil, fmt.Errorf("server %q: %w", c.cfg.ServerName, ErrNotFound)
}
