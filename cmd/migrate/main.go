package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"amlak-system/config"
	"amlak-system/internal/database"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
	}

	rootCmd.AddCommand(upCmd(), statusCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("migration command failed: %v", err)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			db, err := database.NewConnection(cfg.DB.DSN)
			if err != nil {
				return err
			}
			if err := database.RunMigrations(db); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			db, err := database.NewConnection(cfg.DB.DSN)
			if err != nil {
				return err
			}
			pending, err := database.PendingMigrations(db)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("schema is up to date")
				return nil
			}
			for _, m := range pending {
				fmt.Printf("pending: %s %s\n", m.Version, m.Name)
			}
			return nil
		},
	}
}
