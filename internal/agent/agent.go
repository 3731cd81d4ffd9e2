// Package agent implements the tool-calling exchange loop at the heart of
// the assistant: it drives the completion service turn by turn, executes
// requested tool calls between reasoning steps, and folds results back into
// per-session conversation memory.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/szaher/cxassist/internal/llm"
	"github.com/szaher/cxassist/internal/session"
	"github.com/szaher/cxassist/internal/telemetry"
	"github.com/szaher/cxassist/internal/tools"
)

// State is the terminal state of one exchange.
type State string

const (
	// StateDone means the model produced a final answer within the bound.
	StateDone State = "done"
	// StateAborted means the iteration bound, a timeout, or upstream
	// exhaustion ended the exchange; the response is best-effort.
	StateAborted State = "aborted"
)

// DefaultMaxTurns bounds thinking→acting cycles per exchange.
const DefaultMaxTurns = 5

const defaultMaxTokens = 4096

// correctiveInstruction is fed back when the model's output designates tool
// use but carries no usable call; it consumes one iteration.
const correctiveInstruction = "Your last response requested a tool call that could not be understood. " +
	"Either call one of the available tools with valid arguments, or answer the user directly."

// abortResponse is the generic failure sentence used when an aborted
// exchange has no assistant content to fall back on.
const abortResponse = "I wasn't able to complete that request. Please try again or rephrase your question."

// Config tunes the exchange loop. Zero values take documented defaults.
type Config struct {
	Model           string
	System          string
	MaxTurns        int           // thinking→acting cycles, default 5
	MaxTokens       int           // completion token cap per reasoning step
	MaxToolOutput   int           // trace output cap in bytes, default 2000
	ExchangeTimeout time.Duration // overall bound for one exchange, 0 = none
	Temperature     *float64
}

// Result is the normalized outcome of one exchange.
type Result struct {
	ExchangeID string         `json:"exchange_id"`
	SessionID  string         `json:"session_id"`
	Response   string         `json:"response"`
	Steps      []Step         `json:"agent_steps"`
	ToolsUsed  []string       `json:"tools_used"`
	State      State          `json:"state"`
	Turns      int            `json:"turns"`
	Usage      llm.TokenUsage `json:"usage"`
	Duration   time.Duration  `json:"duration"`
}

// Agent runs exchanges against a completion client, a tool registry and a
// session store.
type Agent struct {
	client   llm.Client
	registry *tools.Registry
	sessions *session.Store
	config   Config
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// Option configures the Agent.
type Option func(*Agent)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// New creates an agent. Zero config fields take defaults.
func New(client llm.Client, registry *tools.Registry, sessions *session.Store, config Config, opts ...Option) *Agent {
	if config.MaxTurns <= 0 {
		config.MaxTurns = DefaultMaxTurns
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.MaxToolOutput <= 0 {
		config.MaxToolOutput = DefaultMaxToolOutput
	}
	a := &Agent{
		client:   client,
		registry: registry,
		sessions: sessions,
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Exchange runs one complete request/response cycle for a user message
// within a session. Tool and parse failures are contained inside the loop;
// the returned Result is non-nil on every recoverable path, with State
// reporting whether the exchange completed or aborted.
//
// The session lock is held for the whole exchange, so concurrent exchanges
// on the same session serialize; different sessions run in parallel. The
// staged turns commit to history in one step after the exchange resolves.
func (a *Agent) Exchange(ctx context.Context, sessionID, message string) (*Result, error) {
	start := time.Now()
	exchangeID := ulid.Make().String()
	logger := a.logger.With("exchange_id", exchangeID, "session_id", sessionID)

	if a.config.ExchangeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.ExchangeTimeout)
		defer cancel()
	}

	sess := a.sessions.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	// Turns staged during this exchange; committed all-or-nothing below.
	staged := []llm.Message{{Role: llm.RoleUser, Content: message}}
	history := append(sess.Snapshot(), staged...)

	var (
		records     []toolCallRecord
		usage       llm.TokenUsage
		lastContent string
		state       = StateAborted
		finalText   string
		turns       int
	)

	for turn := 0; turn < a.config.MaxTurns; turn++ {
		turns++

		resp, err := a.client.Chat(ctx, llm.ChatRequest{
			Model:       a.config.Model,
			Messages:    history,
			System:      a.config.System,
			Tools:       a.registry.Definitions(),
			MaxTokens:   a.config.MaxTokens,
			Temperature: a.config.Temperature,
		})
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("exchange timed out", "turn", turns)
				break
			}
			// Upstream failures are recoverable while turns remain.
			if ue, ok := llm.AsUpstream(err); ok {
				logger.Warn("completion service failure", "turn", turns, "kind", string(ue.Kind), "error", ue.Message)
				continue
			}
			logger.Error("completion call failed", "turn", turns, "error", err)
			continue
		}

		usage.Add(resp.Usage)
		if resp.Content != "" {
			lastContent = resp.Content
		}

		// Final answer: no further tool use requested.
		if resp.StopReason != llm.StopToolUse || len(resp.ToolCalls) == 0 {
			if resp.StopReason == llm.StopToolUse {
				// Tool-use stop with nothing usable: recoverable parse
				// error, fed back as a corrective instruction.
				logger.Warn("unparseable tool designation", "turn", turns)
				corrective := llm.Message{Role: llm.RoleUser, Content: correctiveInstruction}
				staged = append(staged, corrective)
				history = append(history, corrective)
				continue
			}
			finalText = resp.Content
			state = StateDone
			assistant := llm.Message{Role: llm.RoleAssistant, Content: resp.Content}
			staged = append(staged, assistant)
			break
		}

		// Acting: execute the requested calls strictly between reasoning
		// steps, sequentially, in the order requested.
		assistant := llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls}
		staged = append(staged, assistant)
		history = append(history, assistant)

		results := a.executeCalls(ctx, resp.ToolCalls)
		for i, res := range results {
			call := resp.ToolCalls[i]
			records = append(records, toolCallRecord{
				Tool:    call.Name,
				Input:   call.Input,
				Output:  res.Content,
				IsError: res.IsError,
			})
			logger.Info("tool call executed", "tool", call.Name, "turn", turns, "is_error", res.IsError)
			a.metrics.ObserveToolCall(call.Name, res.IsError)

			msg := llm.Message{Role: llm.RoleUser, ToolResult: &results[i]}
			staged = append(staged, msg)
			history = append(history, msg)
		}
	}

	if state != StateDone {
		finalText = lastContent
		if finalText == "" {
			finalText = abortResponse
		}
		staged = append(staged, llm.Message{Role: llm.RoleAssistant, Content: finalText})
	}

	sess.Append(staged...)

	response, steps, toolsUsed := Normalize(RawText(finalText), records, a.config.MaxToolOutput)
	result := &Result{
		ExchangeID: exchangeID,
		SessionID:  sessionID,
		Response:   response,
		Steps:      steps,
		ToolsUsed:  toolsUsed,
		State:      state,
		Turns:      turns,
		Usage:      usage,
		Duration:   time.Since(start),
	}

	a.metrics.ObserveExchange(string(state), result.Duration, usage.InputTokens, usage.OutputTokens)
	logger.Info("exchange finished",
		"state", string(state),
		"turns", turns,
		"tool_calls", len(steps),
		"tokens", usage.Total(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// executeCalls dispatches one acting step. Calls whose input the provider
// could not serialize are answered with a corrective error payload instead
// of reaching the registry.
func (a *Agent) executeCalls(ctx context.Context, calls []llm.ToolCall) []llm.ToolResult {
	results := make([]llm.ToolResult, len(calls))
	for i, call := range calls {
		if call.Malformed() {
			res := tools.ErrorResult(tools.CodeInvalidArgument,
				"the arguments for %s could not be parsed; re-issue the call with valid JSON", call.Name)
			results[i] = llm.ToolResult{
				ToolUseID: call.ID,
				ToolName:  call.Name,
				Content:   res.Content,
				IsError:   true,
			}
			continue
		}
		res := a.registry.Invoke(ctx, call)
		results[i] = llm.ToolResult{
			ToolUseID: call.ID,
			ToolName:  call.Name,
			Content:   res.Content,
			IsError:   res.IsError,
		}
	}
	return results
}

// ClearSession removes a session's memory, reporting whether it existed.
func (a *Agent) ClearSession(sessionID string) bool {
	return a.sessions.Clear(sessionID)
}
