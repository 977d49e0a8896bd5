package server

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var validName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Registry stores registered tools in memory
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Add registers a new tool. Returns error if name is taken or invalid.
func (r *Registry) Add(t Tool) error {
	if err := validateTool(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Def.Name]; exists {
		return fmt.Errorf("tool %q already exists", t.Def.Name)
	}

	r.tools[t.Def.Name] = t
	return nil
}

// Get returns a tool by name
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tools[name]
	if !exists {
		return Tool{}, fmt.Errorf("tool %q not found", name)
	}

	return t, nil
}

// List returns all registered tools sorted by name
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	slices.SortFunc(tools, func(a, b Tool) int {
		return strings.Compare(a.Def.Name, b.Def.Name)
	})
	return tools
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Call invokes a tool directly, without a transport. args is marshalled to
// JSON and handed to the handler as the call's arguments.
func (r *Registry) Call(ctx context.Context, name string, args any) (*mcp.CallToolResult, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if args != nil {
		raw, err = json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshalling arguments for %q: %w", name, err)
		}
	}

	return t.Handler(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: raw},
	})
}

func validateTool(t Tool) error {
	if t.Def == nil || t.Def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if !validName.MatchString(t.Def.Name) {
		return fmt.Errorf("tool name %q is invalid: must start with a letter, contain only letters, numbers, and underscores", t.Def.Name)
	}
	if t.Handler == nil {
		return fmt.Errorf("handler is required for tool %q", t.Def.Name)
	}

	switch t.Tag {
	case TagRead, TagWrite, TagDelete:
	default:
		return fmt.Errorf("tool %q has invalid tag %q (must be read, write, or delete)", t.Def.Name, t.Tag)
	}

	return nil
}
