package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gunvolt24/courtdesk/config"
	"github.com/Gunvolt24/courtdesk/internal/app"
	"github.com/Gunvolt24/courtdesk/internal/kafka"
	"github.com/Gunvolt24/courtdesk/internal/repo/postgres"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
	"github.com/Gunvolt24/courtdesk/pkg/logger"
)

// loadConfig — подменяется в тестах.
var loadConfig = config.Load

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "courtdeskctl",
		Short:         "Courtdesk agent maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(), sessionCmd(), invalidateCmd())
	return root
}

func migrateCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply session storage migrations to Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dsn == "" {
				dsn = cfg.Storage.PostgresDSN
			}
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, dsn, 1)
			if err != nil {
				return fmt.Errorf("postgres pool: %w", err)
			}
			defer pool.Close()

			version, err := postgres.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied, schema version %d\n", version)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN (default from COURTDESK_STORAGE_POSTGRES_DSN)")
	return cmd
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the persisted kiosk session",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the persisted token and user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, closeStore, err := app.NewStorage(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer closeStore()

			for _, key := range []string{usecase.StorageKeyToken, usecase.StorageKeyUser} {
				if err := store.Remove(ctx, key); err != nil {
					return fmt.Errorf("remove %s: %w", key, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session cleared (backend=%s)\n", cfg.Storage.Backend)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted user mirror",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, closeStore, err := app.NewStorage(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer closeStore()

			_, hasToken, err := store.Get(ctx, usecase.StorageKeyToken)
			if err != nil {
				return err
			}
			user, hasUser, err := store.Get(ctx, usecase.StorageKeyUser)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token: %t\n", hasToken)
			if hasUser {
				fmt.Fprintf(out, "user: %s\n", user)
			} else {
				fmt.Fprintln(out, "user: <none>")
			}
			return nil
		},
	}

	cmd.AddCommand(clearCmd, showCmd)
	return cmd
}

func invalidateCmd() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Publish a cache invalidation event to every agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !usecase.ValidScope(scope) {
				return fmt.Errorf("unknown scope %q: want settings, user, catalog or all", scope)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logg, syncLogger, err := logger.NewZapLogger(cfg.Logger.IsProd, cfg.Logger.Level)
			if err != nil {
				return err
			}
			defer func() { _ = syncLogger() }()

			pub := kafka.NewPublisher(&kafka.PublisherConfig{
				Brokers:      cfg.Kafka.Brokers,
				Topic:        cfg.Kafka.Topic,
				WriteTimeout: cfg.Kafka.WriteTimeout,
			}, logg)
			defer func() { _ = pub.Close() }()

			if err := pub.Publish(cmd.Context(), scope); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published scope=%s topic=%s\n", scope, cfg.Kafka.Topic)
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", usecase.ScopeAll, "settings | user | catalog | all")
	return cmd
}
