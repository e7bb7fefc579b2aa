package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexsharp-ai/bytebot/internal/sqlitestore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		db, err := sqlitestore.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("agentd: open database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("agentd: migrate: %w", err)
		}
		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
