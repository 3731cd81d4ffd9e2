package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/szaher/cxassist/internal/llm"
)

func echoExecutor() ExecutorFunc {
	return func(_ context.Context, input map[string]any) (string, error) {
		data, err := json.Marshal(input)
		return string(data), err
	}
}

func decodePayload(t *testing.T, content string) map[string]string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		t.Fatalf("result content %q is not a JSON payload: %v", content, err)
	}
	return payload
}

func TestInvoke_UnknownTool(t *testing.T) {
	registry := NewRegistry()

	res := registry.Invoke(context.Background(), llm.ToolCall{Name: "no_such_tool"})
	if !res.IsError {
		t.Fatal("IsError = false, want error result")
	}
	payload := decodePayload(t, res.Content)
	if payload["error"] != CodeUnknownTool {
		t.Errorf("error code = %q, want %q", payload["error"], CodeUnknownTool)
	}
}

func TestInvoke_ValidatesInput(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Definition{
		Name: "echo",
		Params: map[string]Param{
			"name":  {Type: "string", Required: true},
			"count": {Type: "number"},
			"flag":  {Type: "boolean"},
		},
	}, echoExecutor())

	cases := []struct {
		desc    string
		input   map[string]any
		wantErr bool
	}{
		{"valid full", map[string]any{"name": "x", "count": float64(2), "flag": true}, false},
		{"valid minimal", map[string]any{"name": "x"}, false},
		{"missing required", map[string]any{"count": float64(2)}, true},
		{"required nil", map[string]any{"name": nil}, true},
		{"wrong string type", map[string]any{"name": 7}, true},
		{"wrong number type", map[string]any{"name": "x", "count": "two"}, true},
		{"wrong boolean type", map[string]any{"name": "x", "flag": "yes"}, true},
		{"undeclared key ignored", map[string]any{"name": "x", "extra": "whatever"}, false},
	}

	for _, tc := range cases {
		res := registry.Invoke(context.Background(), llm.ToolCall{Name: "echo", Input: tc.input})
		if res.IsError != tc.wantErr {
			t.Errorf("%s: IsError = %v, want %v (content %q)", tc.desc, res.IsError, tc.wantErr, res.Content)
			continue
		}
		if tc.wantErr {
			payload := decodePayload(t, res.Content)
			if payload["error"] != CodeInvalidArgument {
				t.Errorf("%s: error code = %q, want %q", tc.desc, payload["error"], CodeInvalidArgument)
			}
		}
	}
}

func TestInvoke_PayloadErrorCodePassesThrough(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Definition{Name: "refuse"}, ExecutorFunc(
		func(context.Context, map[string]any) (string, error) {
			return "", &PayloadError{Code: "refund_ineligible", Message: "outside the window"}
		}))

	res := registry.Invoke(context.Background(), llm.ToolCall{Name: "refuse", Input: map[string]any{}})
	if !res.IsError {
		t.Fatal("IsError = false, want error result")
	}
	payload := decodePayload(t, res.Content)
	if payload["error"] != "refund_ineligible" {
		t.Errorf("error code = %q, want the domain code", payload["error"])
	}
	if payload["message"] != "outside the window" {
		t.Errorf("message = %q", payload["message"])
	}
}

func TestInvoke_GenericFailure(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Definition{Name: "broken"}, ExecutorFunc(
		func(context.Context, map[string]any) (string, error) {
			return "", errors.New("backend exploded")
		}))

	res := registry.Invoke(context.Background(), llm.ToolCall{Name: "broken", Input: map[string]any{}})
	if !res.IsError {
		t.Fatal("IsError = false, want error result")
	}
	payload := decodePayload(t, res.Content)
	if payload["error"] != CodeToolFailed {
		t.Errorf("error code = %q, want %q", payload["error"], CodeToolFailed)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Definition{Name: "dup"}, echoExecutor())

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	registry.Register(Definition{Name: "dup"}, echoExecutor())
}

func TestDefinitions_NameOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Definition{Name: "zeta"}, echoExecutor())
	registry.Register(Definition{Name: "alpha"}, echoExecutor())
	registry.Register(Definition{Name: "mid"}, echoExecutor())

	defs := registry.Definitions()
	want := []string{"alpha", "mid", "zeta"}
	if len(defs) != len(want) {
		t.Fatalf("Definitions = %d entries, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("Definitions[%d].Name = %q, want %q", i, defs[i].Name, name)
		}
	}

	names := registry.Names()
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Names[%d] = %q, want %q", i, names[i], name)
		}
	}
}

func TestToolDefinition_SchemaShape(t *testing.T) {
	def := Definition{
		Name:        "lookup_order",
		Description: "look up an order",
		Params: map[string]Param{
			"order_id": {Type: "string", Description: "the order", Required: true},
			"verbose":  {Type: "boolean"},
		},
	}

	td := def.ToolDefinition()
	if td.Name != "lookup_order" {
		t.Errorf("Name = %q", td.Name)
	}
	props, ok := td.InputSchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing from schema: %v", td.InputSchema)
	}
	if _, ok := props["order_id"]; !ok {
		t.Error("order_id not in properties")
	}
	required, _ := td.InputSchema["required"].([]string)
	if len(required) != 1 || required[0] != "order_id" {
		t.Errorf("required = %v, want [order_id]", required)
	}
}
