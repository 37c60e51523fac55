package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmate/core/cmd/api/commands"
)

// @title TaskMate API
// @version 1.0
// @description Personal task management with a rule-based planning assistant

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskmate",
		Short: "TaskMate API Server",
		Long:  `TaskMate stores personal tasks, reports statistics on them and suggests what to work on next.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
