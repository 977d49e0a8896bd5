package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// sseConn is one SSE session seen as an MCP connection. Messages posted to
// the session arrive on incoming; messages written by the server are
// encoded onto events for the stream handler to send.
type sseConn struct {
	id       string
	incoming chan jsonrpc.Message
	events   chan []byte
	done     chan struct{}
	once     sync.Once
	logger   *slog.Logger
}

func newSSEConn(id string, logger *slog.Logger) *sseConn {
	return &sseConn{
		id:       id,
		incoming: make(chan jsonrpc.Message, 16),
		events:   make(chan []byte, 16),
		done:     make(chan struct{}),
		logger:   logger.With("session", id),
	}
}

// Connect implements mcp.Transport. A conn serves exactly one session.
func (c *sseConn) Connect(context.Context) (mcp.Connection, error) {
	return c, nil
}

func (c *sseConn) SessionID() string { return c.id }

func (c *sseConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg := <-c.incoming:
		if req, ok := msg.(*jsonrpc.Request); ok {
			c.logger.Debug("←", "method", req.Method, "id", req.ID.Raw())
		}
		return msg, nil
	case <-c.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *sseConn) Write(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON-RPC message: %w", err)
	}
	select {
	case c.events <- data:
	case <-c.done:
		return mcp.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	switch m := msg.(type) {
	case *jsonrpc.Response:
		if m.Error != nil {
			c.logger.Debug("→ error", "id", m.ID.Raw(), "error", m.Error)
		} else {
			c.logger.Debug("→ result", "id", m.ID.Raw())
		}
	case *jsonrpc.Request:
		c.logger.Debug("→", "method", m.Method)
	}
	return nil
}

// deliver hands a posted message to the session.
func (c *sseConn) deliver(ctx context.Context, msg jsonrpc.Message) error {
	select {
	case c.incoming <- msg:
		return nil
	case <-c.done:
		return mcp.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *sseConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *sseConn) closed() <-chan struct{} { return c.done }
