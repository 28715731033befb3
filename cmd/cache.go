package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/strum/internal/repositories"
	"github.com/desertthunder/strum/internal/shared"
)

// CachePages lists the library pages held in the on-disk cache.
func (r *Runner) CachePages(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.database(config)
	if err != nil {
		return err
	}
	defer db.Close()

	pages, err := repositories.NewPageCache(db).LoadPages()
	if err != nil {
		return err
	}

	if len(pages) == 0 {
		return r.writePlain("Cache is empty\n")
	}

	for _, p := range pages {
		key := string(p.Source)
		if p.Key != "" {
			key = fmt.Sprintf("%s:%s", p.Source, p.Key)
		}
		r.writePlain("%-32s offset %-4d %d tracks, fetched %s\n",
			key, p.Offset, len(p.Tracks), p.FetchedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// CacheTrack shows a single cached track by its service ID.
func (r *Runner) CacheTrack(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track-id argument is required", shared.ErrInvalidConfig)
	}

	config := r.loadConfig(cmd)

	db, err := r.database(config)
	if err != nil {
		return err
	}
	defer db.Close()

	track, err := repositories.NewPageCache(db).Track(trackID)
	if err != nil {
		return err
	}

	return r.writeJSON(track, true)
}
