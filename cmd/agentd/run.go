package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

var runCmd = &cobra.Command{
	Use:   "run <taskID>",
	Short: "Set a task RUNNING and process it until its status is no longer RUNNING",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID := args[0]
		cfg := loadConfig()

		a, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		running := types.StatusRunning
		if err := a.db.Tasks().Update(ctx, taskID, store.TaskUpdate{Status: &running}); err != nil {
			return fmt.Errorf("agentd: mark task running: %w", err)
		}

		a.processor.ProcessTask(taskID)

		for {
			time.Sleep(500 * time.Millisecond)
			task, err := a.db.Tasks().FindByID(ctx, taskID)
			if err != nil {
				return fmt.Errorf("agentd: poll task: %w", err)
			}
			if task.Status != types.StatusRunning {
				fmt.Printf("task %s finished: %s\n", taskID, task.Status)
				if task.Error != "" {
					fmt.Println("error:", task.Error)
				}
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
