package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alexsharp-ai/bytebot/internal/config"
	"github.com/alexsharp-ai/bytebot/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agentd",
	Short: "agentd runs the autonomous desktop-agent task processor",
	Long: `agentd advances tasks through the agent processor's iteration loop:
assembling conversation context, calling an LLM provider, dispatching tool
use, and summarizing history, until each task reaches a terminal status.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
}

func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Warnf("[agentd] config load failed, continuing with defaults: %v", err)
	}
	return cfg
}
