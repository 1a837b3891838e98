package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/gkash/gkash_api/internal/auth"
	"github.com/gkash/gkash_api/internal/config"
	"github.com/gkash/gkash_api/internal/identity"
	"github.com/gkash/gkash_api/internal/infra"
	"github.com/gkash/gkash_api/internal/logging"
)

var flagOlderThan = &cli.DurationFlag{
	Name:  "older-than",
	Usage: "Remove unfinished registrations created before now minus this age (defaults to STALE_REGISTRATION_AGE)",
}

var flagDryRun = &cli.BoolFlag{
	Name:  "dry-run",
	Usage: "Report how many registrations would be purged without deleting them",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)

	app := &cli.App{
		Name:  "sweeper",
		Usage: "maintenance tasks for the gkash database",
		Commands: []*cli.Command{
			{
				Name:        "purge-incomplete",
				Usage:       "delete placeholder identities that never finished registration",
				Description: "Abandoned placeholders keep their national id and phone number reserved until removed.",
				Flags:       []cli.Flag{flagOlderThan, flagDryRun},
				Action: func(cCtx *cli.Context) error {
					olderThan := cfg.StaleRegistrationAge
					if cCtx.IsSet(flagOlderThan.Name) {
						olderThan = cCtx.Duration(flagOlderThan.Name)
					}
					db, err := connect(cCtx.Context, cfg.DatabaseURL)
					if err != nil {
						return err
					}
					defer db.Close()

					ids := identity.NewService(identity.NewPostgresRepository(db), auth.NewVault(auth.DefaultCost), nil, logger)
					if cCtx.Bool(flagDryRun.Name) {
						pending, err := ids.CountIncomplete(cCtx.Context, olderThan)
						if err != nil {
							return err
						}
						fmt.Printf("would purge %d incomplete registrations older than %s\n", pending, olderThan)
						return nil
					}
					removed, err := ids.PurgeIncomplete(cCtx.Context, olderThan)
					if err != nil {
						return err
					}
					fmt.Printf("purged %d incomplete registrations\n", removed)
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "apply pending schema migrations",
				Action: func(cCtx *cli.Context) error {
					db, err := connect(cCtx.Context, cfg.DatabaseURL)
					if err != nil {
						return err
					}
					defer db.Close()
					return infra.Migrate(cCtx.Context, db, logger)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error("sweeper failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	return infra.NewPostgresPool(ctx, url)
}
