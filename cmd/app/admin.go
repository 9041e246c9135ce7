package main

import (
	"context"
	"fmt"
	"strconv"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/events"
	"marketplace/internal/logger"
	"marketplace/internal/payment/tap"
	"marketplace/internal/server"
	"marketplace/internal/user"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func connect() (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, database, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
				return err
			}
			logger.Info("Migrations completed")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")

			cfg, database, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.RollbackMigrations(database, cfg.MigrationsPath, steps); err != nil {
				return err
			}
			logger.Info("Migrations rolled back", "steps", steps)
			return nil
		},
	}
	down.Flags().Int("steps", 1, "Number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a platform administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			cfg, database, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			users := user.NewService(user.NewRepository(database), auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret))
			admin, err := users.CreateAdmin(context.Background(), name, email, password)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			logger.Info("Admin created", "id", admin.ID, "email", admin.Email)
			return nil
		},
	}

	cmd.Flags().String("name", "Administrator", "Display name")
	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("password", "", "Login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func settleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle <hold-id>",
		Short: "Release an escrow hold into the provider's wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			holdID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid hold id %q", args[0])
			}
			adminID, _ := cmd.Flags().GetInt("admin")

			cfg, database, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaMockMode)
			if err != nil {
				return fmt.Errorf("create event producer: %w", err)
			}
			defer producer.Close()

			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			defer rdb.Close()

			gateway := tap.NewClient(cfg.TapBaseURL, cfg.TapSecretKey, cfg.TapRedirectURL, cfg.TapWebhookURL)
			svcs := server.NewServices(cfg, database, rdb, producer, gateway)

			hold, err := svcs.Settlement.Release(context.Background(), adminID, holdID)
			if err != nil {
				return fmt.Errorf("release hold %d: %w", holdID, err)
			}

			logger.Info("Escrow released", "hold_id", hold.ID, "provider_id", hold.ProviderID, "amount", hold.Amount.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().Int("admin", 0, "ID of the administrator performing the release")
	_ = cmd.MarkFlagRequired("admin")

	return cmd
}
