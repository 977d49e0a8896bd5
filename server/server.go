package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hays/plex-mcp/config"
	"github.com/hays/plex-mcp/plex"
)

// Name is the implementation name announced to MCP clients.
const Name = "plex-server"

// Server exposes the Plex tools over MCP
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	version   string
	connector *plex.Connector
	registry  *Registry
	mcp       *mcp.Server

	// wait pauses between a player command and the timeline read that
	// reports its effect.
	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithConnector replaces the connector built from the config.
func WithConnector(c *plex.Connector) Option {
	return func(s *Server) { s.connector = c }
}

// NewServer creates the MCP server and registers every tool allowed by the
// configured tags.
func NewServer(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		version:  "dev",
		registry: NewRegistry(),
		wait:     sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.connector == nil {
		s.connector = plex.NewConnector(plex.ConnectorConfig{
			URL:            cfg.Plex.URL,
			Token:          cfg.Plex.Token,
			Username:       cfg.Plex.Username,
			Password:       cfg.Plex.Password,
			ServerName:     cfg.Plex.ServerName,
			AccountURL:     cfg.Plex.AccountURL,
			Timeout:        cfg.Plex.Timeout.Std(),
			SessionTimeout: cfg.Plex.SessionTimeout.Std(),
			Version:        s.version,
			Logger:         logger,
		})
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: Name, Version: s.version}, &mcp.ServerOptions{
		Instructions: "Tools for browsing and controlling a Plex Media Server.",
	})

	for _, def := range s.catalogue() {
		if !s.allowed(def.tag) {
			continue
		}
		if err := s.register(def); err != nil {
			return nil, err
		}
	}
	logger.Debug("Registered tools", "count", s.registry.Len(), "tags", cfg.Tools.Tags)
	return s, nil
}

// Registry returns the registered tools.
func (s *Server) Registry() *Registry {
	return s.registry
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

func (s *Server) allowed(tag Tag) bool {
	if len(s.cfg.Tools.Tags) == 0 {
		return true
	}
	return slices.Contains(s.cfg.Tools.Tags, string(tag))
}

func (s *Server) register(def toolDef) error {
	input := def.input
	if input == nil {
		input = object()
	}
	resolved, err := input.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolving schema for %q: %w", def.name, err)
	}

	tool := Tool{
		Def: &mcp.Tool{
			Name:        def.name,
			Description: def.description,
			InputSchema: input,
			Annotations: def.tag.annotations(),
		},
		Tag: def.tag,
	}
	tool.Handler = s.execute(def.name, resolved, def.run)

	if err := s.registry.Add(tool); err != nil {
		return err
	}
	s.mcp.AddTool(tool.Def, tool.Handler)
	return nil
}

// Run serves the configured transport until ctx ends or the client goes
// away.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting server", "name", Name, "version", s.version, "transport", s.cfg.Server.Transport, "tools", s.registry.Len())

	switch s.cfg.Server.Transport {
	case config.TransportStdio:
		var t mcp.Transport = &mcp.StdioTransport{}
		if s.cfg.Server.Debug {
			t = &mcp.LoggingTransport{Transport: t, Writer: os.Stderr}
		}
		return s.mcp.Run(ctx, t)
	case config.TransportSSE:
		return s.serveHTTP(ctx)
	default:
		return fmt.Errorf("unknown transport %q", s.cfg.Server.Transport)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
