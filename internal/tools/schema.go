package tools

import (
	"fmt"

	"github.com/szaher/cxassist/internal/llm"
)

// Param declares one tool parameter.
type Param struct {
	Type        string // "string", "number" or "boolean"
	Description string
	Required    bool
}

// Definition declares a tool: a globally unique name, a description the
// model uses to decide applicability, and a flat argument schema.
type Definition struct {
	Name        string
	Description string
	Params      map[string]Param
}

// ValidateInput checks the input mapping against the declared schema.
// Undeclared keys are ignored; the model sometimes adds extras.
func (d Definition) ValidateInput(input map[string]any) error {
	for name, p := range d.Params {
		v, present := input[name]
		if !present || v == nil {
			if p.Required {
				return fmt.Errorf("missing required parameter %q", name)
			}
			continue
		}
		switch p.Type {
		case "string":
			if _, ok := v.(string); !ok {
				return fmt.Errorf("parameter %q must be a string, got %T", name, v)
			}
		case "number":
			// JSON numbers decode as float64
			switch v.(type) {
			case float64, int, int64:
			default:
				return fmt.Errorf("parameter %q must be a number, got %T", name, v)
			}
		case "boolean":
			if _, ok := v.(bool); !ok {
				return fmt.Errorf("parameter %q must be a boolean, got %T", name, v)
			}
		default:
			return fmt.Errorf("parameter %q has unsupported schema type %q", name, p.Type)
		}
	}
	return nil
}

// ToolDefinition renders the schema in the JSON Schema shape the completion
// providers expect.
func (d Definition) ToolDefinition() llm.ToolDefinition {
	properties := make(map[string]any, len(d.Params))
	var required []string
	for name, p := range d.Params {
		properties[name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return llm.ToolDefinition{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: schema,
	}
}
