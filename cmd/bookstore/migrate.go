package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/bookstore/internal/config"
	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migrations",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := postgresConfig()
			if err != nil {
				return err
			}
			return db.Rollback(cfg.DatabaseURL, steps, logging.New(cfg.LogLevel))
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(*cobra.Command, []string) error {
				cfg, err := postgresConfig()
				if err != nil {
					return err
				}
				return db.Migrate(cfg.DatabaseURL, logging.New(cfg.LogLevel))
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := postgresConfig()
				if err != nil {
					return err
				}
				v, dirty, err := db.Version(cfg.DatabaseURL)
				if err != nil {
					return err
				}
				cmd.Printf("version %d (dirty: %t)\n", v, dirty)
				return nil
			},
		},
	)
	return cmd
}

func postgresConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver != db.DriverPostgres {
		return nil, fmt.Errorf("migrations target postgres; %s databases are created with AUTO_MIGRATE", cfg.DBDriver)
	}
	return cfg, nil
}
