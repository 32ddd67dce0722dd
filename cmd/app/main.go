// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"codeberg.org/treenza/storefront/internal/config"
	"codeberg.org/treenza/storefront/internal/database"
	"codeberg.org/treenza/storefront/internal/server"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "storefront",
		Usage:   "Storefront account API",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Commands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: migrate(database.RunMigrations),
					},
					{
						Name:   "down",
						Usage:  "Roll back the last migration",
						Action: migrate(database.MigrateDown),
					},
					{
						Name:   "reset",
						Usage:  "Roll back all migrations",
						Action: migrate(database.MigrateReset),
					},
					{
						Name:   "version",
						Usage:  "Print the current schema version",
						Action: migrate(func(*sql.DB) error { return nil }),
					},
				},
			},
		},
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return server.Run(ctx, cfg)
}

// migrate connects without touching the schema, runs fn and prints the
// resulting schema version.
func migrate(fn func(*sql.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		db, err := database.Connect(cmd.String("database-dsn"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := fn(db.DB); err != nil {
			return err
		}

		version, err := database.Version(db.DB)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", version)
		return err
	}
}
