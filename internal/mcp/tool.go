package mcp

import (
	"context"
	"encoding/json"
)

// Tool is one callable tool exposed through tools/list and tools/call.
type Tool struct {
	Name        string
	Description string
	// InputSchema is a JSON Schema object describing the tool's arguments.
	InputSchema map[string]any
	// Handler runs the tool. It returns the result value or an error;
	// *Error values pass through with their code, anything else becomes an
	// internal error.
	Handler func(ctx context.Context, args json.RawMessage) (any, error)
}

// validateArgs checks the call arguments against the tool's schema: the
// arguments must be a JSON object containing every required property.
func (t *Tool) validateArgs(args json.RawMessage) error {
	var fields map[string]json.RawMessage
	if len(args) > 0 {
		if err := json.Unmarshal(args, &fields); err != nil {
			return Errorf(CodeInvalidParams, "tool %s: arguments must be an object: %s", t.Name, err)
		}
	}

	required, _ := t.InputSchema["required"].([]string)
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			return Errorf(CodeInvalidParams, "tool %s: missing required argument %q", t.Name, name)
		}
	}
	return nil
}

// toolInfo is the wire form of a tool in tools/list results.
type toolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// objectSchema builds a JSON Schema object with the given properties and
// required field names.
func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func arrayProp(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}
