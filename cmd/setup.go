package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/strum/internal/shared"
)

// SetupConfig writes a starter configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ Wrote %s\n", path)
	return r.writePlain("Fill in your Spotify client_id and client_secret, then run: strum auth login\n")
}

// SetupDatabase initializes the library cache database and applies migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.database(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("database ready at %v", config.Cache.DatabasePath)
	return r.writePlain("✓ Database initialized\n")
}
