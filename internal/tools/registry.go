// Package tools implements the tool registry the agent loop dispatches into.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/szaher/cxassist/internal/llm"
)

// Error codes carried inside tool result payloads. These are in-band values
// folded back into the conversation, never Go errors raised to the loop.
const (
	CodeUnknownTool     = "unknown_tool"
	CodeInvalidArgument = "invalid_argument"
	CodeToolFailed      = "tool_failed"
)

// Executor executes a tool call and returns the result as a JSON string.
type Executor interface {
	Execute(ctx context.Context, input map[string]any) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, input map[string]any) (string, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, input map[string]any) (string, error) {
	return f(ctx, input)
}

// Result is the outcome of one tool invocation. Error results carry a
// structured payload in Content and set IsError.
type Result struct {
	Content string
	IsError bool
}

// PayloadError lets an executor surface a domain error code (for example
// "order_not_found") instead of the generic tool_failed.
type PayloadError struct {
	Code    string
	Message string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorResult builds an in-band error payload.
func ErrorResult(code, format string, args ...any) Result {
	payload, _ := json.Marshal(map[string]string{
		"error":   code,
		"message": fmt.Sprintf(format, args...),
	})
	return Result{Content: string(payload), IsError: true}
}

// Registry holds the closed set of tools available to the agent. Tools are
// registered once at startup and shared read-only across all sessions.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	defs      map[string]Definition
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]Executor),
		defs:      make(map[string]Definition),
	}
}

// Register adds a tool to the registry. Duplicate names are a programmer
// error and panic at startup.
func (r *Registry) Register(def Definition, executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("tools: duplicate registration of %q", def.Name))
	}
	r.executors[def.Name] = executor
	r.defs[def.Name] = def
}

// Invoke validates the call's arguments against the tool's schema and
// dispatches it. All failures come back as in-band error results.
func (r *Registry) Invoke(ctx context.Context, call llm.ToolCall) Result {
	r.mu.RLock()
	executor, ok := r.executors[call.Name]
	def := r.defs[call.Name]
	r.mu.RUnlock()

	if !ok {
		return ErrorResult(CodeUnknownTool, "no tool named %q is registered", call.Name)
	}

	if err := def.ValidateInput(call.Input); err != nil {
		return ErrorResult(CodeInvalidArgument, "%s: %v", call.Name, err)
	}

	output, err := executor.Execute(ctx, call.Input)
	if err != nil {
		var pe *PayloadError
		if errors.As(err, &pe) {
			return ErrorResult(pe.Code, "%s", pe.Message)
		}
		return ErrorResult(CodeToolFailed, "%s: %v", call.Name, err)
	}
	return Result{Content: output}
}

// Definitions returns all registered tool definitions in name order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.defs[name].ToolDefinition())
	}
	return defs
}

// Names returns the registered tool names in name order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
