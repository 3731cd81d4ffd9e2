// Package llm defines the completion client abstraction for the assistant.
package llm

import (
	"context"
)

// Role represents a message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopToolUse   StopReason = "tool_use"
)

// Message represents a single message in a conversation. Tool results travel
// as user-role messages with ToolResult set, matching the Messages API shape.
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// ToolDefinition describes a tool available to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall represents the model requesting a tool invocation.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// MalformedInputKey marks a tool call whose input JSON could not be decoded.
// The agent loop treats such calls as a recoverable parse error.
const MalformedInputKey = "_malformed"

// Malformed reports whether the tool call carries undecodable input.
func (tc ToolCall) Malformed() bool {
	_, ok := tc.Input[MalformedInputKey]
	return ok
}

// ToolResult represents the outcome of a tool invocation sent back to the model.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	ToolName  string `json:"tool_name"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// TokenUsage tracks token consumption for a single completion call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the sum of input and output tokens.
func (u TokenUsage) Total() int { return u.InputTokens + u.OutputTokens }

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ChatRequest contains parameters for a completion call.
type ChatRequest struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	System      string           `json:"system,omitempty"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// ChatResponse contains the model's response to a chat request.
type ChatResponse struct {
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason StopReason `json:"stop_reason"`
	Usage      TokenUsage `json:"usage"`
}

// Client is the interface for completion interactions.
type Client interface {
	// Chat sends a request and returns the complete response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
