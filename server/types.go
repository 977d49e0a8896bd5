package server

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tag is the access level of a tool.
type Tag string

const (
	TagRead   Tag = "read"
	TagWrite  Tag = "write"
	TagDelete Tag = "delete"
)

// toolFunc runs a tool against decoded arguments and returns a response
// record, or a plain string.
type toolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is a registered tool: its MCP definition, access tag and handler.
type Tool struct {
	Def     *mcp.Tool
	Tag     Tag
	Handler mcp.ToolHandler
}

// toolDef is one catalogue entry before registration.
type toolDef struct {
	name        string
	description string
	tag         Tag
	input       *jsonschema.Schema
	run         toolFunc
}

// annotations derives MCP hints from the access tag.
func (t Tag) annotations() *mcp.ToolAnnotations {
	switch t {
	case TagRead:
		return &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true}
	case TagDelete:
		destructive := true
		return &mcp.ToolAnnotations{DestructiveHint: &destructive}
	default:
		destructive := false
		return &mcp.ToolAnnotations{DestructiveHint: &destructive}
	}
}

// --- Schema helpers ---

type prop struct {
	name   string
	schema *jsonschema.Schema
	req    bool
}

func object(props ...prop) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
	for _, p := range props {
		s.Properties[p.name] = p.schema
		if p.req {
			s.Required = append(s.Required, p.name)
		}
	}
	return s
}

func required(p prop) prop {
	p.req = true
	return p
}

func str(name, desc string) prop {
	return prop{name: name, schema: &jsonschema.Schema{Type: "string", Description: desc}}
}

func integer(name, desc string) prop {
	return prop{name: name, schema: &jsonschema.Schema{Type: "integer", Description: desc}}
}

func number(name, desc string) prop {
	return prop{name: name, schema: &jsonschema.Schema{Type: "number", Description: desc}}
}

func boolean(name, desc string) prop {
	return prop{name: name, schema: &jsonschema.Schema{Type: "boolean", Description: desc}}
}

func strList(name, desc string) prop {
	return prop{name: name, schema: &jsonschema.Schema{
		Type:        "array",
		Description: desc,
		Items:       &jsonschema.Schema{Type: "string"},
	}}
}

// idList accepts rating keys given as numbers or strings.
func idList(name, desc string) prop {
	return prop{name: name, schema: &jsonschema.Schema{
		Type:        "array",
		Description: desc,
		Items:       &jsonschema.Schema{Types: []string{"string", "integer"}},
	}}
}

// keyArg accepts a rating key given as a number or a string.
func keyArg(name, desc string) prop {
	return prop{name: name, schema: &jsonschema.Schema{Types: []string{"string", "integer"}, Description: desc}}
}

func enum(name, desc string, values ...string) prop {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return prop{name: name, schema: &jsonschema.Schema{Type: "string", Description: desc, Enum: vs}}
}

func anyObject(name, desc string) prop {
	return prop{name: name, schema: &jsonschema.Schema{Type: "object", Description: desc}}
}
