package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/services"
	"github.com/desertthunder/strum/internal/session"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	client  services.Client
	manager *session.Manager
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Client and Manager are injectable for tests; when nil they are built lazily
// from the config.
type RunnerOpts struct {
	Config  *shared.Config
	Client  services.Client
	Manager *session.Manager
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		client:  opts.Client,
		manager: opts.Manager,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playerCommand, libraryCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reloads configuration from the command's --config flag, falling
// back to the config the Runner was constructed with.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	if config, err := shared.LoadConfig(path); err == nil {
		return config
	}
	return r.config
}

// sessionManager builds (once) the credential manager backed by the loopback
// authorization flow.
func (r *Runner) sessionManager(config *shared.Config) (*session.Manager, error) {
	if r.manager != nil {
		return r.manager, nil
	}

	manager, err := session.NewManager(session.Options{
		ClientID:     config.Credentials.ClientID,
		ClientSecret: config.Credentials.ClientSecret,
		RedirectURI:  config.Credentials.RedirectURI,
		CachePath:    config.Cache.TokenPath,
		Authorizer:   session.NewBrowserAuthorizer(config.Server.Host, config.Server.Port, r.logger),
		Logger:       r.logger,
	})
	if err != nil {
		return nil, err
	}

	r.manager = manager
	return manager, nil
}

// remote builds the authenticated Web API client for one-shot commands.
func (r *Runner) remote(ctx context.Context, config *shared.Config) (services.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	manager, err := r.sessionManager(config)
	if err != nil {
		return nil, err
	}

	r.client = services.NewSpotifyClient(manager.TokenSource(ctx))
	return r.client, nil
}

// database opens the sqlite cache and applies pending migrations.
func (r *Runner) database(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Cache.DatabasePath)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, config.Cache.MaxOpenConns, config.Cache.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
