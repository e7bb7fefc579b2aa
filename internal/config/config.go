// Package config loads the agent processor's configuration from a YAML file
// with environment-variable expansion, in the same shape the wider runtime
// (of which the processor is a part) uses for its own settings.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the processor's tunables. Defaults mirror the constants
// spec.md calls out explicitly (§4.5, §4.6, §4.7). cmd/agentd reads
// Database, SchedulerPollInterval and ProxyURL; the retry, threshold,
// context-window, ratio and delay fields are not passed to the processor,
// dispatcher or summarizer, which use their own package constants.
type Config struct {
	DataDir string `yaml:"data_dir"`

	// Database is the SQLite file backing the task/message/summary store.
	Database string `yaml:"database"`

	// MaxInterruptRetries bounds consecutive-Interrupt retries before a task
	// escalates to NEEDS_HELP (spec.md §4.7, §9(a)).
	MaxInterruptRetries int `yaml:"max_interrupt_retries"`

	// ComputerToolFailureThreshold is the consecutive computer-tool failure
	// count that triggers degradation (spec.md §4.6, §9(a)).
	ComputerToolFailureThreshold int `yaml:"computer_tool_failure_threshold"`

	// DefaultContextWindow is used when a model descriptor carries no
	// contextWindow value (spec.md §4.5).
	DefaultContextWindow int `yaml:"default_context_window"`

	// SummarizationRatio is the fraction of the context window that
	// triggers summarization (spec.md §4.5: contextWindow * 0.75).
	SummarizationRatio float64 `yaml:"summarization_ratio"`

	// InterruptRetryDelay is the pause before a bounded interrupt retry
	// (spec.md §4.7, §8 scenario 4: "~500 ms").
	InterruptRetryDelay time.Duration `yaml:"interrupt_retry_delay"`

	// SchedulerPollInterval is how often internal/scheduler checks for
	// due create_task scheduledFor wakeups.
	SchedulerPollInterval time.Duration `yaml:"scheduler_poll_interval"`

	// ProxyURL is BYTEBOT_LLM_PROXY_URL's config-file equivalent; the
	// environment variable always wins if set (see Load).
	ProxyURL string `yaml:"proxy_url"`
}

// Default returns a Config populated with the constants spec.md specifies.
func Default() Config {
	return Config{
		DataDir:                      "./data",
		Database:                     "./data/agent.db",
		MaxInterruptRetries:          3,
		ComputerToolFailureThreshold: 2,
		DefaultContextWindow:         200000,
		SummarizationRatio:           0.75,
		InterruptRetryDelay:          500 * time.Millisecond,
		SchedulerPollInterval:        30 * time.Second,
	}
}

// Load reads a YAML config file, expanding ${VAR}/$VAR references against
// the process environment before unmarshalling, and overlays it onto
// Default(). A missing file is not an error — Default() alone is valid.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}

	if v := os.Getenv("BYTEBOT_LLM_PROXY_URL"); v != "" {
		cfg.ProxyURL = v
	}

	return cfg, nil
}
