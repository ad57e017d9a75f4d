package main

import (
	"context"
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/repositories"
	"github.com/desertthunder/stagelog/internal/shared"
)

// SetupConfig writes the embedded config template to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if cmd.Bool("force") {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("%s\n", figure.NewFigure("stagelog", "cybermedium", true).String())
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("  Next: stagelog setup database && stagelog auth login\n")
	return nil
}

// SetupDatabase initializes the configured storage and runs migrations.
//
// A missing config file is created from the template first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
	}

	storage := r.config.Storage
	switch storage.Driver {
	case shared.DriverMemory:
		r.writePlain("Storage driver is memory, nothing to initialize\n")
		return nil
	case shared.DriverBolt:
		r.logger.Info("initializing bolt store", "path", storage.Path)
		db, err := repositories.OpenBolt(storage.Path)
		if err != nil {
			return fmt.Errorf("failed to create bolt store: %w", err)
		}
		defer db.Close()
		r.writePlain("✓ Bolt store ready at %s\n", storage.Path)
		return nil
	}

	r.logger.Info("initializing database", "path", storage.Path)

	db, err := shared.NewDatabase(storage.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, storage.MaxOpenConns, storage.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back last migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	statuses, err := shared.Migrations(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	for _, s := range statuses {
		mark := "pending"
		if s.Applied {
			mark = "applied"
		}
		r.writePlain("  %04d %-28s %s\n", s.Version, s.Name, mark)
	}
	r.logger.Infof("setup complete for database: %v", storage.Path)
	return nil
}
