package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/receipts/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the default config file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		path = defaultConfigPath
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Config written to %s\n", path)
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if err := r.open(ctx); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	stored, err := r.schema.StoredVersion(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready: %s (schema version %d)\n", r.config.Database.Path, stored)
}

// SetupReset drops and recreates the schema, discarding every record.
func (r *Runner) SetupReset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: reset deletes every record; pass --yes to confirm", shared.ErrMissingArgument)
	}

	db := r.db
	if db == nil {
		opened, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return err
		}
		defer opened.Close()
		db = opened
	}

	schema, err := shared.NewSchema(db, shared.SchemaOpts{Logger: r.logger})
	if err != nil {
		return err
	}
	if err := schema.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}

	if r.tracker != nil {
		r.tracker.Invalidate(shared.ReceiptWarrantyTable)
	}

	r.logger.Warn("database reset", "path", r.config.Database.Path)
	return r.writePlain("✓ Database reset: %s (schema version %d)\n", r.config.Database.Path, schema.Version())
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the default config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the config (default: config.toml or $RECEIPTS_CONFIG)",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "reset",
				Usage: "Drop and recreate the database schema (deletes every record)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the reset",
					},
				},
				Action: r.SetupReset,
			},
		},
	}
}
