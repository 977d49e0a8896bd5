package server

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTool(name string, tag Tag) Tool {
	return Tool{
		Def: &mcp.Tool{Name: name, Description: "Test tool", InputSchema: object()},
		Tag: tag,
		Handler: func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(req.Params.Arguments)}}}, nil
		},
	}
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(testTool("hello", TagRead)))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryAddDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(testTool("hello", TagRead)))
	err := r.Add(testTool("hello", TagWrite))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRegistryAddInvalidName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", true},
		{"123start", true},
		{"has-dash", true},
		{"has space", true},
		{"valid_name", false},
		{"CamelCase", false},
		{"a1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Add(testTool(tt.name, TagRead))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistryAddMissingHandler(t *testing.T) {
	tool := testTool("nohandler", TagRead)
	tool.Handler = nil
	assert.Error(t, NewRegistry().Add(tool))
}

func TestRegistryAddInvalidTag(t *testing.T) {
	err := NewRegistry().Add(testTool("badtag", Tag("admin")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tag")
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(testTool("hello", TagWrite)))

	tool, err := r.Get("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", tool.Def.Name)
	assert.Equal(t, TagWrite, tool.Tag)

	_, err = r.Get("nonexistent")
	assert.Error(t, err)
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"gamma", "alpha", "beta"} {
		require.NoError(t, r.Add(testTool(name, TagRead)))
	}

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Def.Name)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names)
	assert.Empty(t, NewRegistry().List())
}

func TestRegistryCall(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(testTool("echo", TagRead)))

	res, err := r.Call(context.Background(), "echo", map[string]any{"msg": "hi"})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.JSONEq(t, `{"msg":"hi"}`, res.Content[0].(*mcp.TextContent).Text)

	_, err = r.Call(context.Background(), "missing", nil)
	assert.Error(t, err)
}

func TestTagAnnotations(t *testing.T) {
	read := TagRead.annotations()
	assert.True(t, read.ReadOnlyHint)
	assert.True(t, read.IdempotentHint)
	assert.Nil(t, read.DestructiveHint)

	del := TagDelete.annotations()
	require.NotNil(t, del.DestructiveHint)
	assert.True(t, *del.DestructiveHint)

	write := TagWrite.annotations()
	require.NotNil(t, write.DestructiveHint)
	assert.False(t, *write.DestructiveHint)
	assert.False(t, write.ReadOnlyHint)
}

func TestRegistryConcurrency(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Add(testTool(fmt.Sprintf("tool_%d", i), TagRead))
		}()
	}
	wg.Wait()
	require.Equal(t, 100, r.Len())

	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Get(fmt.Sprintf("tool_%d", i))
			_ = r.List()
		}()
	}
	wg.Wait()
}
