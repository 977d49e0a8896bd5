package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

const (
	ssePath      = "/sse"
	messagesPath = "/messages/"
	maxBody      = 4 << 20
)

// sseHandler serves MCP over server-sent events: GET /sse opens a session
// stream, and POST /messages/?session_id= feeds it.
type sseHandler struct {
	server    *mcp.Server
	logger    *slog.Logger
	keepAlive time.Duration

	mu       sync.Mutex
	sessions map[string]*sseConn
}

func newSSEHandler(server *mcp.Server, logger *slog.Logger, keepAlive time.Duration) *sseHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &sseHandler{
		server:    server,
		logger:    logger,
		keepAlive: keepAlive,
		sessions:  map[string]*sseConn{},
	}
}

func (h *sseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	switch {
	case r.URL.Path == ssePath || r.URL.Path == ssePath+"/":
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.serveStream(w, r)
	case r.URL.Path == messagesPath || r.URL.Path == strings.TrimSuffix(messagesPath, "/"):
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.serveMessage(w, r)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "Not Found")
	}
}

func newSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (h *sseHandler) add(c *sseConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[c.id] = c
}

func (h *sseHandler) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

func (h *sseHandler) lookup(id string) (*sseConn, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.sessions[id]
	return c, ok
}

// closeAll ends every open stream.
func (h *sseHandler) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.sessions {
		_ = c.Close()
	}
}

func (h *sseHandler) serveStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	conn := newSSEConn(newSessionID(), h.logger)
	h.add(conn)
	defer h.remove(conn.id)
	defer conn.Close()

	ss, err := h.server.Connect(r.Context(), conn, nil)
	if err != nil {
		h.logger.Error("Failed to start session", "error", err)
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	defer ss.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.logger.Info("Session opened", "session", conn.id, "remote", r.RemoteAddr)
	defer h.logger.Info("Session closed", "session", conn.id)

	if _, err := fmt.Fprintf(w, "event: endpoint\ndata: %s?session_id=%s\n\n", messagesPath, conn.id); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case data := <-conn.events:
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-conn.closed():
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *sseHandler) serveMessage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}
	conn, ok := h.lookup(id)
	if !ok {
		http.Error(w, "Could not find session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		h.logger.Warn("Rejected message", "session", id, "error", err)
		http.Error(w, "Could not parse message", http.StatusBadRequest)
		return
	}
	if err := conn.deliver(r.Context(), msg); err != nil {
		http.Error(w, "Could not find session", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = io.WriteString(w, "Accepted")
}

// serveHTTP runs the SSE transport until ctx ends, then closes every
// session and waits for handlers to finish.
func (s *Server) serveHTTP(ctx context.Context) error {
	h := newSSEHandler(s.mcp, s.logger, s.cfg.Server.KeepAlive.Std())
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Listening", "addr", srv.Addr, "sse", ssePath, "messages", messagesPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down")
		h.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
