package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/szaher/cxassist/internal/agent"
	"github.com/szaher/cxassist/internal/knowledge"
	"github.com/szaher/cxassist/internal/llm"
	"github.com/szaher/cxassist/internal/orders"
	"github.com/szaher/cxassist/internal/runtime"
	"github.com/szaher/cxassist/internal/session"
	"github.com/szaher/cxassist/internal/telemetry"
	"github.com/szaher/cxassist/internal/tools"
)

// app holds the assembled service components.
type app struct {
	config   runtime.Config
	logger   *slog.Logger
	agent    *agent.Agent
	sessions *session.Store
	registry *tools.Registry
	metrics  *telemetry.Metrics

	cleanups []func()
}

// close runs deferred cleanups (watchers, sweepers, pools) in reverse order.
func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
}

// buildApp assembles the service from config: backends, tools, session
// store, completion client and the agent loop.
func buildApp(ctx context.Context) (*app, error) {
	config, err := runtime.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}

	logger := telemetry.NewLogger(os.Stderr, telemetry.ParseLevel(config.LogLevel))
	a := &app{config: config, logger: logger}

	// Order backend: Postgres when a DSN is configured, seeded memory otherwise.
	var orderStore orders.Store
	if config.Orders.DSN != "" {
		pg, err := orders.NewPGStore(ctx, config.Orders.DSN)
		if err != nil {
			return nil, err
		}
		a.cleanups = append(a.cleanups, pg.Close)
		orderStore = pg
		logger.Info("using postgres order backend")
	} else {
		orderStore = orders.NewMemoryStore()
		logger.Info("using seeded in-memory order backend")
	}

	policy, err := orders.CompileRefundPolicy(config.Orders.RefundRule)
	if err != nil {
		return nil, err
	}

	// Knowledge base: YAML file with live reload, or the built-in seed.
	var base *knowledge.Base
	if config.Knowledge.Path != "" {
		articles, err := knowledge.LoadFile(config.Knowledge.Path)
		if err != nil {
			return nil, err
		}
		base = knowledge.NewBase(articles)
		stop, err := knowledge.Watch(base, config.Knowledge.Path, logger)
		if err != nil {
			return nil, err
		}
		a.cleanups = append(a.cleanups, stop)
		logger.Info("loaded knowledge base", "path", config.Knowledge.Path, "articles", base.Len())
	} else {
		base = knowledge.NewSeededBase()
	}

	registry := tools.NewRegistry()
	lookup := tools.NewOrderLookup(orderStore)
	registry.Register(lookup.Definition(), lookup)
	refunder := tools.NewRefundProcessor(orderStore, policy)
	registry.Register(refunder.Definition(), refunder)
	search := tools.NewKnowledgeSearch(base, 0)
	registry.Register(search.Definition(), search)

	ttl, err := config.SessionTTL()
	if err != nil {
		return nil, err
	}
	sessions := session.NewStore(
		session.WithMaxSessions(config.Session.MaxSessions),
		session.WithTTL(ttl),
		session.WithLogger(logger),
	)
	if ttl > 0 && config.Session.SweepSchedule != "" {
		stop, err := sessions.StartSweeper(config.Session.SweepSchedule)
		if err != nil {
			return nil, fmt.Errorf("config: session.sweep_schedule: %w", err)
		}
		a.cleanups = append(a.cleanups, stop)
	}

	metrics := telemetry.NewMetrics(func() float64 { return float64(sessions.Len()) })

	client, model := llm.NewClientForModel(config.Model)
	timeout, err := config.ExchangeTimeout()
	if err != nil {
		return nil, err
	}
	ag := agent.New(client, registry, sessions, agent.Config{
		Model:           model,
		System:          config.System,
		MaxTurns:        config.Agent.MaxTurns,
		MaxToolOutput:   config.Agent.MaxToolOutput,
		ExchangeTimeout: timeout,
	}, agent.WithLogger(logger), agent.WithMetrics(metrics))

	a.agent = ag
	a.sessions = sessions
	a.registry = registry
	a.metrics = metrics
	return a, nil
}
