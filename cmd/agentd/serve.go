package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexsharp-ai/bytebot/internal/logging"
	"github.com/alexsharp-ai/bytebot/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the processor, picking up scheduled tasks until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		a, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		sched := scheduler.New(&scheduler.SQLFinder{DB: a.rawDB()}, a.processor)
		cronSpec := fmt.Sprintf("@every %s", cfg.SchedulerPollInterval)
		if err := sched.Start(cronSpec); err != nil {
			return fmt.Errorf("agentd: start scheduler: %w", err)
		}
		defer sched.Stop()

		logging.Infof("[agentd] serving, polling every %s", cfg.SchedulerPollInterval)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logging.Infof("[agentd] shutting down")
		case <-ctx.Done():
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
