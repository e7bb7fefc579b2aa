package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/alexsharp-ai/bytebot/internal/agent/desktop"
	"github.com/alexsharp-ai/bytebot/internal/agent/processor"
	"github.com/alexsharp-ai/bytebot/internal/agent/provider"
	"github.com/alexsharp-ai/bytebot/internal/config"
	"github.com/alexsharp-ai/bytebot/internal/logging"
	"github.com/alexsharp-ai/bytebot/internal/sqlitestore"
)

const defaultSystemPrompt = "You are an autonomous desktop-automation agent. Use the tools available to you to complete the task, and call set_task_status when you are done or need help."

// app bundles everything the serve/run commands share.
type app struct {
	db        *sqlitestore.DB
	processor *processor.Processor
	cfg       config.Config
}

func buildApp(cfg config.Config) (*app, error) {
	db, err := sqlitestore.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("agentd: open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("agentd: migrate database: %w", err)
	}

	registry := provider.NewRegistry()
	registerConfiguredProviders(registry, cfg)

	proc := processor.New(processor.Config{
		Tasks:        db.Tasks(),
		Messages:     db.Messages(),
		Summaries:    db.Summaries(),
		Providers:    registry,
		Desktop:      desktop.New(),
		SystemPrompt: defaultSystemPrompt,
	})

	return &app{db: db, processor: proc, cfg: cfg}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) rawDB() *sql.DB {
	return a.db.Raw()
}

// registerConfiguredProviders registers a Provider for every backend with a
// usable credential or endpoint (spec.md §6: "at least one resolvable
// provider must exist").
func registerConfiguredProviders(registry *provider.Registry, cfg config.Config) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		registry.Register(provider.NewAnthropicProvider(key, ""))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		registry.Register(provider.NewOpenAIProvider(key, ""))
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		registry.Register(provider.NewGoogleProvider(key, ""))
	}

	proxyURL := cfg.ProxyURL
	if v := os.Getenv("BYTEBOT_LLM_PROXY_URL"); v != "" {
		proxyURL = v
	}
	if proxyURL != "" {
		registry.Register(provider.NewProxyProvider(proxyURL, ""))
	}

	logging.Infof("[agentd] providers ready")
}
