package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/terra-clan/circular-readiness/internal/storage"
)

func cmdMigrate(g *globalFlags) *cli.Command {
	var (
		dsn string
		dir string
	)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Apply PostgreSQL migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dsn",
				Usage:       "PostgreSQL DSN",
				Sources:     cli.EnvVars("DATABASE_DSN"),
				Destination: &dsn,
			},
			&cli.StringFlag{
				Name:        "dir",
				Usage:       "Migrations directory (built-in migrations when empty)",
				Sources:     cli.EnvVars("MIGRATIONS_DIR"),
				Destination: &dir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// the env file may carry DATABASE_DSN
			if dsn == "" {
				if cfg, err := g.loadConfig(); err == nil {
					dsn = cfg.Storage.DSN
					if dir == "" {
						dir = cfg.Storage.MigrationsDir
					}
				}
			}
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if dsn == "" {
				return fmt.Errorf("a PostgreSQL DSN is required (--dsn or DATABASE_DSN)")
			}

			ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()

			slog.Info("running database migrations", "dir", dir)
			applied, err := storage.MigrateFromDSN(ctx, dsn, dir)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			out := c.Root().Writer
			if len(applied) == 0 {
				fmt.Fprintln(out, "database is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return nil
		},
	}
}
