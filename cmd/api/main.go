package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/stockmanager/core/cmd/api/commands"
)

// @title StockManager API
// @version 1.0
// @description Inventory item store: list, search, create, update and delete stock items

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	rootCmd := &cobra.Command{
		Use:          "stockmanager",
		Short:        "StockManager inventory server",
		Long:         `StockManager keeps a small inventory of items (name, stock, unit price) in a single JSON document and serves it over a web page, a JSON API and this CLI.`,
		SilenceUsage: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewItemCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
