package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hays/plex-mcp/config"
	"github.com/hays/plex-mcp/models"
)

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	return res.Content[0].(*mcp.TextContent).Text
}

func TestRender(t *testing.T) {
	res, err := render("done")
	require.NoError(t, err)
	assert.Equal(t, "done", text(t, res))
	assert.Nil(t, res.StructuredContent)

	res, err = render(models.NewError("nope"))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.JSONEq(t, `{"status":"error","message":"nope"}`, text(t, res))

	res, err = render(models.OperationResponse{Status: models.StatusSuccess, Message: "ok"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"status":"success","message":"ok"}`, text(t, res))
	assert.Contains(t, text(t, res), "\n  \"message\"")
}

func bareServer() *Server {
	cfg := config.Default()
	cfg.Server.ToolTimeout = config.Duration(50 * time.Millisecond)
	return &Server{cfg: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestExecute_RecoversPanic(t *testing.T) {
	h := bareServer().execute("boom", nil, func(ctx context.Context, args json.RawMessage) (any, error) {
		panic("kaboom")
	})
	res, err := h(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: "boom"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "internal error in boom: kaboom")
}

func TestExecute_ErrorBecomesRecord(t *testing.T) {
	h := bareServer().execute("fail", nil, func(ctx context.Context, args json.RawMessage) (any, error) {
		return nil, errors.New("library 'Films' not found")
	})
	res, err := h(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: "fail"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.JSONEq(t, `{"status":"error","message":"library 'Films' not found"}`, text(t, res))
}

func TestExecute_Timeout(t *testing.T) {
	h := bareServer().execute("slow", nil, func(ctx context.Context, args json.RawMessage) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	res, err := h(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: "slow"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "slow timed out after 50ms")
}

func TestExecute_ValidatesArguments(t *testing.T) {
	schema, err := object(required(str("name", "Name"))).Resolve(nil)
	require.NoError(t, err)

	called := false
	h := bareServer().execute("greet", schema, func(ctx context.Context, args json.RawMessage) (any, error) {
		called = true
		return "hi", nil
	})

	res, err := h(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: "greet"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.False(t, called)

	res, err = h(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: "greet", Arguments: json.RawMessage(`{"name":"x"}`)}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "hi", text(t, res))
}
