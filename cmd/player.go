package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/services"
	"github.com/desertthunder/strum/internal/shared"
)

// PlayerDevices lists the available Connect devices.
func (r *Runner) PlayerDevices(ctx context.Context, cmd *cli.Command) error {
	client, err := r.remote(ctx, r.loadConfig(cmd))
	if err != nil {
		return err
	}

	devices, err := client.Devices(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}

	if len(devices) == 0 {
		return r.writePlain("No devices found. Open Spotify on a device and try again.\n")
	}

	for _, d := range devices {
		marker := " "
		if d.Active {
			marker = "●"
		}
		r.writePlain("%s %s (%s) vol %d%%  %s\n", marker, d.Name, d.Kind, d.VolumePct, d.ID)
	}
	return nil
}

// PlayerPlay starts playback of a single track.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track-id argument is required", shared.ErrInvalidConfig)
	}

	client, err := r.remote(ctx, r.loadConfig(cmd))
	if err != nil {
		return err
	}

	track, err := client.Track(ctx, trackID)
	if err != nil {
		return err
	}

	req := services.PlayRequest{
		DeviceID:  cmd.String("device"),
		TrackURIs: []string{track.URI},
	}
	if err := client.Play(ctx, req); err != nil {
		return err
	}

	return r.writePlain("▶ %s\n", track)
}

// PlayerPause pauses playback on the active device.
func (r *Runner) PlayerPause(ctx context.Context, cmd *cli.Command) error {
	client, err := r.remote(ctx, r.loadConfig(cmd))
	if err != nil {
		return err
	}

	if err := client.Pause(ctx, ""); err != nil {
		return err
	}
	return r.writePlain("⏸ Paused\n")
}

// PlayerStatus shows the current playback state.
func (r *Runner) PlayerStatus(ctx context.Context, cmd *cli.Command) error {
	client, err := r.remote(ctx, r.loadConfig(cmd))
	if err != nil {
		return err
	}

	snap, err := client.CurrentPlayback(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap, true)
	}

	if snap == nil || snap.Track == nil {
		return r.writePlain("Nothing playing\n")
	}

	icon := "⏸"
	if snap.Playing {
		icon = "▶"
	}
	r.writePlain("%s %s\n", icon, snap.Track)
	r.writePlain("  %s / %s", clock(snap.Position), clock(snap.Track.Duration))
	if snap.DeviceID != "" {
		r.writePlain("  on %s", snap.DeviceID)
	}
	return r.writePlain("\n")
}

// LibrarySaved lists a page of the user's saved tracks.
func (r *Runner) LibrarySaved(ctx context.Context, cmd *cli.Command) error {
	client, err := r.remote(ctx, r.loadConfig(cmd))
	if err != nil {
		return err
	}

	page, err := client.SavedTracks(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return err
	}

	return r.writePage(page, cmd.Bool("json"))
}

// LibrarySearch searches the catalog for tracks.
func (r *Runner) LibrarySearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query argument is required", shared.ErrInvalidConfig)
	}

	client, err := r.remote(ctx, r.loadConfig(cmd))
	if err != nil {
		return err
	}

	page, err := client.Search(ctx, query, int(cmd.Int("limit")), 0)
	if err != nil {
		return err
	}

	return r.writePage(page, cmd.Bool("json"))
}

// LibraryRecent lists recently played tracks.
func (r *Runner) LibraryRecent(ctx context.Context, cmd *cli.Command) error {
	client, err := r.remote(ctx, r.loadConfig(cmd))
	if err != nil {
		return err
	}

	tracks, err := client.RecentlyPlayed(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	for i, t := range tracks {
		r.writePlain("%3d. %s [%s]\n", i+1, t, clock(t.Duration))
	}
	return nil
}

func (r *Runner) writePage(page *models.Page, asJSON bool) error {
	if asJSON {
		return r.writeJSON(page, true)
	}

	for i, t := range page.Tracks {
		r.writePlain("%3d. %s [%s]\n", page.Offset+i+1, t, clock(t.Duration))
	}
	if page.Total > page.Offset+len(page.Tracks) {
		r.writePlain("… %d of %d\n", page.Offset+len(page.Tracks), page.Total)
	}
	return nil
}

// clock renders a duration as m:ss for track listings.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
