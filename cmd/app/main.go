package main

import (
	"os"

	"marketplace/internal/logger"

	"github.com/spf13/cobra"
)

// @title Marketplace API
// @version 1.0
// @description Multi-vendor services marketplace API.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	rootCmd := &cobra.Command{
		Use:          "marketplace",
		Short:        "Services marketplace backend",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		createAdminCmd(),
		settleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
