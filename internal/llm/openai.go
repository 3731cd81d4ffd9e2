package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// OpenAIClient implements Client using the OpenAI-compatible chat completions
// API. Works with OpenAI, Ollama, vLLM, and any compatible endpoint.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// OpenAIOption configures the OpenAI client.
type OpenAIOption func(*OpenAIClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAIClient) { o.httpClient = c }
}

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		baseURL:    "https://api.openai.com/v1",
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewOllamaClient creates a client for a local Ollama instance.
func NewOllamaClient(host string, opts ...OpenAIOption) *OpenAIClient {
	if host == "" {
		host = "http://localhost:11434"
	}
	c := &OpenAIClient{
		baseURL:    strings.TrimRight(host, "/") + "/v1",
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewOpenAICompatibleClient creates a client for any OpenAI-compatible endpoint.
func NewOpenAICompatibleClient(baseURL, apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- OpenAI API request/response types ---

type oaiRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Tools       []oaiTool    `json:"tools,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type oaiMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content,omitempty"`
	ToolCalls  []oaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type oaiTool struct {
	Type     string      `json:"type"`
	Function oaiFunction `json:"function"`
}

type oaiFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters,omitempty"`
}

type oaiToolCall struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function oaiToolCallFunc `json:"function"`
}

type oaiToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Usage   oaiUsage    `json:"usage"`
	Error   *oaiError   `json:"error,omitempty"`
}

type oaiChoice struct {
	Message      oaiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type oaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type oaiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Chat sends a chat request and classifies transport/quota failures.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &UpstreamError{Kind: FailureUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var oaiErr oaiResponse
		if err := json.NewDecoder(resp.Body).Decode(&oaiErr); err == nil && oaiErr.Error != nil {
			msg = fmt.Sprintf("%s: %s", oaiErr.Error.Type, oaiErr.Error.Message)
		}
		return nil, ClassifyHTTPStatus(resp.StatusCode, msg)
	}

	var oaiResp oaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, &UpstreamError{Kind: FailureUnavailable, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if oaiResp.Error != nil {
		return nil, &UpstreamError{Kind: FailureUnavailable, Message: fmt.Sprintf("%s: %s", oaiResp.Error.Type, oaiResp.Error.Message)}
	}

	return c.parseResponse(&oaiResp), nil
}

func (c *OpenAIClient) buildRequest(req ChatRequest) oaiRequest {
	messages := make([]oaiMessage, 0, len(req.Messages)+1)

	if req.System != "" {
		messages = append(messages, oaiMessage{Role: "system", Content: req.System})
	}

	for _, m := range req.Messages {
		msg := oaiMessage{}
		switch m.Role {
		case RoleUser:
			if m.ToolResult != nil {
				msg.Role = "tool"
				msg.Content = m.ToolResult.Content
				msg.ToolCallID = m.ToolResult.ToolUseID
			} else {
				msg.Role = "user"
				msg.Content = m.Content
			}
		case RoleAssistant:
			msg.Role = "assistant"
			msg.Content = m.Content
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Input)
				msg.ToolCalls = append(msg.ToolCalls, oaiToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: oaiToolCallFunc{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
		}
		messages = append(messages, msg)
	}

	oaiReq := oaiRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		oaiReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		oaiReq.Temperature = req.Temperature
	}
	for _, t := range req.Tools {
		oaiReq.Tools = append(oaiReq.Tools, oaiTool{
			Type: "function",
			Function: oaiFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}

	return oaiReq
}

func (c *OpenAIClient) parseResponse(resp *oaiResponse) *ChatResponse {
	usage := TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) == 0 {
		return &ChatResponse{StopReason: StopEndTurn, Usage: usage}
	}

	choice := resp.Choices[0]
	result := &ChatResponse{
		Content:    choice.Message.Content,
		StopReason: mapOAIStopReason(choice.FinishReason),
		Usage:      usage,
	}

	for _, tc := range choice.Message.ToolCalls {
		input := make(map[string]any)
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
			input = map[string]any{MalformedInputKey: fmt.Sprintf("failed to parse tool arguments: %v", err)}
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}

	return result
}

func mapOAIStopReason(reason string) StopReason {
	switch reason {
	case "length":
		return StopMaxTokens
	case "tool_calls":
		return StopToolUse
	default:
		return StopEndTurn
	}
}
