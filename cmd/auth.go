package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// AuthLogin runs the browser authorization flow and caches the credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if err := config.Validate(); err != nil {
		return err
	}

	manager, err := r.sessionManager(config)
	if err != nil {
		return err
	}

	r.logger.Info("starting authorization")

	tok, err := manager.Acquire(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Logged in\n")
	if !tok.Expiry.IsZero() {
		r.writePlain("Access token expires %s\n", tok.Expiry.Format("15:04:05"))
	}
	return nil
}

// AuthStatus reports whether a usable credential is cached, without touching
// the network.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	manager, err := r.sessionManager(config)
	if err != nil {
		return err
	}

	if manager.Authenticated() {
		return r.writePlain("✓ Authenticated\n")
	}
	return r.writePlain("✗ Not authenticated, run: strum auth login\n")
}

// AuthLogout destroys the credential and its cache artifact.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	manager, err := r.sessionManager(config)
	if err != nil {
		return err
	}

	manager.Invalidate()
	return r.writePlain("✓ Logged out\n")
}
