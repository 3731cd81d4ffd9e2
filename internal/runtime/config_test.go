package runtime

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	config, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Addr != ":8080" {
		t.Errorf("Addr = %q", config.Addr)
	}
	if config.Agent.MaxTurns != 5 {
		t.Errorf("MaxTurns = %d, want 5", config.Agent.MaxTurns)
	}
	if config.System == "" {
		t.Error("System prompt is empty")
	}

	timeout, err := config.ExchangeTimeout()
	if err != nil {
		t.Fatal(err)
	}
	if timeout != 60*time.Second {
		t.Errorf("ExchangeTimeout = %v, want 60s", timeout)
	}
	ttl, err := config.SessionTTL()
	if err != nil {
		t.Fatal(err)
	}
	if ttl != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", ttl)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
model: gpt-4o
agent:
  max_turns: 8
  exchange_timeout: 90s
session:
  ttl: 1h
orders:
  refund_rule: 'status == "delivered"'
knowledge:
  path: /var/lib/cxassist/articles.yaml
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Addr != ":9090" {
		t.Errorf("Addr = %q", config.Addr)
	}
	if config.Model != "gpt-4o" {
		t.Errorf("Model = %q", config.Model)
	}
	if config.Agent.MaxTurns != 8 {
		t.Errorf("MaxTurns = %d", config.Agent.MaxTurns)
	}
	if config.Orders.RefundRule != `status == "delivered"` {
		t.Errorf("RefundRule = %q", config.Orders.RefundRule)
	}
	// Unset fields keep their defaults.
	if config.Session.MaxSessions != 1000 {
		t.Errorf("MaxSessions = %d, want default 1000", config.Session.MaxSessions)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CXASSIST_ADDR", ":7070")
	t.Setenv("CXASSIST_MODEL", "llama3")
	t.Setenv("CXASSIST_MAX_TURNS", "2")
	t.Setenv("DATABASE_URL", "postgres://cx:cx@localhost/cx")

	path := writeConfig(t, "addr: \":9090\"\nmodel: gpt-4o\n")
	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Addr != ":7070" {
		t.Errorf("Addr = %q, want env override", config.Addr)
	}
	if config.Model != "llama3" {
		t.Errorf("Model = %q, want env override", config.Model)
	}
	if config.Agent.MaxTurns != 2 {
		t.Errorf("MaxTurns = %d, want env override", config.Agent.MaxTurns)
	}
	if config.Orders.DSN == "" {
		t.Error("DSN not taken from DATABASE_URL")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "agent:\n  exchange_timeout: soon\n")
	if _, err := Load(path); err == nil {
		t.Error("Load succeeded with an unparseable duration")
	}

	path = writeConfig(t, "session:\n  ttl: forever\n")
	if _, err := Load(path); err == nil {
		t.Error("Load succeeded with an unparseable TTL")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load succeeded for a missing file")
	}
}
