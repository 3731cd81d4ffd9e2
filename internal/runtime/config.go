// Package runtime wires the assistant together: configuration and the HTTP
// server exposing the chat surface.
package runtime

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the service version reported by /health and the CLI.
const Version = "0.1.0"

// DefaultSystemPrompt instructs the model how to run a support conversation
// and when to reach for each tool.
const DefaultSystemPrompt = `You are a customer support assistant for an online store.

You can look up orders, process refunds and search the support knowledge base.
Always look up an order before processing a refund for it. If a tool reports
an error, explain the problem to the customer and ask for corrected details
instead of retrying with the same input. Keep answers short, concrete and
polite. Never invent order details or policy; rely on tool results.`

// AgentConfig tunes the exchange loop.
type AgentConfig struct {
	MaxTurns        int    `yaml:"max_turns"`
	MaxToolOutput   int    `yaml:"max_tool_output"`
	ExchangeTimeout string `yaml:"exchange_timeout"`
}

// SessionConfig tunes session memory retention.
type SessionConfig struct {
	MaxSessions   int    `yaml:"max_sessions"`
	TTL           string `yaml:"ttl"`
	SweepSchedule string `yaml:"sweep_schedule"`
}

// OrdersConfig selects the order backend.
type OrdersConfig struct {
	DSN        string `yaml:"dsn"` // Postgres DSN; empty means the seeded in-memory store
	RefundRule string `yaml:"refund_rule"`
}

// KnowledgeConfig selects the knowledge-base source.
type KnowledgeConfig struct {
	Path string `yaml:"path"` // YAML article file; empty means the built-in seed
}

// Config is the complete service configuration.
type Config struct {
	Addr      string          `yaml:"addr"`
	Model     string          `yaml:"model"`
	System    string          `yaml:"system"`
	LogLevel  string          `yaml:"log_level"`
	Agent     AgentConfig     `yaml:"agent"`
	Session   SessionConfig   `yaml:"session"`
	Orders    OrdersConfig    `yaml:"orders"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
}

// Default returns a runnable demo configuration.
func Default() Config {
	return Config{
		Addr:     ":8080",
		Model:    "claude-sonnet-4-20250514",
		System:   DefaultSystemPrompt,
		LogLevel: "info",
		Agent: AgentConfig{
			MaxTurns:        5,
			MaxToolOutput:   2000,
			ExchangeTimeout: "60s",
		},
		Session: SessionConfig{
			MaxSessions:   1000,
			TTL:           "30m",
			SweepSchedule: "@every 5m",
		},
	}
}

// Load reads a YAML config file over the defaults, then applies environment
// overrides. An empty path loads defaults plus environment only.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&config)

	if _, err := config.ExchangeTimeout(); err != nil {
		return config, err
	}
	if _, err := config.SessionTTL(); err != nil {
		return config, err
	}
	return config, nil
}

func applyEnv(config *Config) {
	if v := os.Getenv("CXASSIST_ADDR"); v != "" {
		config.Addr = v
	}
	if v := os.Getenv("CXASSIST_MODEL"); v != "" {
		config.Model = v
	}
	if v := os.Getenv("CXASSIST_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("CXASSIST_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Agent.MaxTurns = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Orders.DSN = v
	}
	if v := os.Getenv("CXASSIST_KNOWLEDGE_PATH"); v != "" {
		config.Knowledge.Path = v
	}
}

// ExchangeTimeout parses the exchange timeout; empty means none.
func (c Config) ExchangeTimeout() (time.Duration, error) {
	return parseDuration("agent.exchange_timeout", c.Agent.ExchangeTimeout)
}

// SessionTTL parses the session idle TTL; empty means no expiry.
func (c Config) SessionTTL() (time.Duration, error) {
	return parseDuration("session.ttl", c.Session.TTL)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", field, err)
	}
	return d, nil
}
