package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/strum/internal/dispatch"
	"github.com/desertthunder/strum/internal/engine"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/repositories"
	"github.com/desertthunder/strum/internal/services"
	"github.com/desertthunder/strum/internal/session"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/desertthunder/strum/internal/state"
	"github.com/desertthunder/strum/internal/ui"
)

// TUI launches the interactive player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if err := config.Validate(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/strum-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}

	manager, err := session.NewManager(session.Options{
		ClientID:     config.Credentials.ClientID,
		ClientSecret: config.Credentials.ClientSecret,
		RedirectURI:  config.Credentials.RedirectURI,
		CachePath:    config.Cache.TokenPath,
		Authorizer:   session.NewBrowserAuthorizer(config.Server.Host, config.Server.Port, fileLogger),
		Logger:       fileLogger,
	})
	if err != nil {
		return err
	}

	db, err := r.database(config)
	if err != nil {
		return err
	}
	defer db.Close()
	cache := repositories.NewPageCache(db)

	client := services.NewSpotifyClient(manager.TokenSource(ctx))

	target := models.Target{Kind: models.TargetRemote, DeviceID: config.Playback.DeviceID}
	localEngine := buildEngine(config, fileLogger)
	if localEngine == nil && config.Playback.Mode == shared.PlaybackLocal {
		return fmt.Errorf("%w: local playback requested but the audio backend failed", shared.ErrEngineUnavailable)
	}
	if localEngine != nil && config.Playback.Mode != shared.PlaybackRemote {
		target = models.Target{Kind: models.TargetLocal}
	}

	store := state.NewStore(target)
	mutator, err := store.Mutator()
	if err != nil {
		return err
	}
	warmStart(mutator, cache, fileLogger)

	workerConfig := dispatch.Config{
		Remote:   client,
		Sessions: manager,
		Cache:    cache,
		Mutator:  mutator,
		Store:    store,
		Logger:   fileLogger,
	}
	// a nil *engine.Engine must not reach the interface field
	if localEngine != nil {
		workerConfig.Engine = localEngine
	}

	worker, err := dispatch.NewWorker(workerConfig)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go worker.Run(runCtx)

	model := ui.NewModel(runCtx, worker, store, localEngine != nil)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	cancel()
	<-worker.Done()
	return nil
}

// buildEngine constructs the local audio engine when the configured playback
// mode allows it. Returns nil when the backend is unavailable.
func buildEngine(config *shared.Config, logger *log.Logger) *engine.Engine {
	if config.Playback.Mode == shared.PlaybackRemote {
		return nil
	}

	eng, err := engine.New(
		engine.NewPreviewSource(nil),
		logger,
		engine.WithVolume(config.Playback.VolumePct),
	)
	if err != nil {
		logger.Warn("local engine unavailable, routing remotely", "err", err)
		return nil
	}
	return eng
}

// warmStart seeds the library from cached pages so the first frame has content
// before any network fetch completes.
func warmStart(mutator *state.Mutator, cache *repositories.PageCache, logger *log.Logger) {
	pages, err := cache.LoadPages()
	if err != nil {
		logger.Warn("cache warm start failed", "err", err)
		return
	}
	if len(pages) == 0 {
		return
	}

	mutator.Apply(func(app *state.App) {
		for _, p := range pages {
			app.Library[p.PageID()] = p
		}
	})
	logger.Info("warm start", "pages", len(pages))
}
