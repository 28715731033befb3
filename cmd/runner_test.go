package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
	tu "github.com/desertthunder/strum/internal/testing"
)

func newTestApp(t *testing.T, client *tu.MockClient, out *bytes.Buffer) *cli.Command {
	t.Helper()

	config := shared.DefaultConfig()
	config.Cache.DatabasePath = filepath.Join(t.TempDir(), "cache.db")
	config.Cache.TokenPath = filepath.Join(t.TempDir(), "token.json")

	runner := NewRunner(RunnerOpts{
		Config: config,
		Client: client,
		Logger: shared.NewLogger(out),
		Output: out,
	})

	return &cli.Command{
		Name:     "strum",
		Commands: runner.register(),
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			client := tu.NewMockClient()

			runner := NewRunner(RunnerOpts{
				Config: config,
				Client: client,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			if err := runner.writeJSON(data, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			if err := runner.writeJSON(data, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestPlayerCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("devices lists connect devices", func(t *testing.T) {
		client := tu.NewMockClient()
		client.DevicesResult = []models.Device{
			{ID: "dev1", Name: "Kitchen", Kind: "speaker", Active: true, VolumePct: 40},
			{ID: "dev2", Name: "Laptop", Kind: "computer", VolumePct: 80},
		}

		out := &bytes.Buffer{}
		app := newTestApp(t, client, out)

		if err := app.Run(ctx, []string{"strum", "player", "devices"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := out.String()
		if !strings.Contains(result, "Kitchen") || !strings.Contains(result, "Laptop") {
			t.Errorf("expected both devices in output, got %q", result)
		}
		if !strings.Contains(result, "● Kitchen") {
			t.Errorf("expected active marker on Kitchen, got %q", result)
		}
	})

	t.Run("devices with no devices", func(t *testing.T) {
		out := &bytes.Buffer{}
		app := newTestApp(t, tu.NewMockClient(), out)

		if err := app.Run(ctx, []string{"strum", "player", "devices"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "No devices found") {
			t.Errorf("expected empty message, got %q", out.String())
		}
	})

	t.Run("play resolves the track and starts playback", func(t *testing.T) {
		client := tu.NewMockClient()
		client.TrackResult = &models.Track{
			ID:    "t1",
			Title: "Song One",
			URI:   "spotify:track:t1",
		}

		out := &bytes.Buffer{}
		app := newTestApp(t, client, out)

		if err := app.Run(ctx, []string{"strum", "player", "play", "t1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if client.CallCount("Track") != 1 || client.CallCount("Play") != 1 {
			t.Fatalf("expected one Track and one Play call, got %d and %d",
				client.CallCount("Track"), client.CallCount("Play"))
		}
		if len(client.LastPlay.TrackURIs) != 1 || client.LastPlay.TrackURIs[0] != "spotify:track:t1" {
			t.Errorf("expected track URI in play request, got %v", client.LastPlay.TrackURIs)
		}
	})

	t.Run("play without a track id fails", func(t *testing.T) {
		app := newTestApp(t, tu.NewMockClient(), &bytes.Buffer{})

		if err := app.Run(ctx, []string{"strum", "player", "play"}); err == nil {
			t.Fatal("expected error for missing track id")
		}
	})

	t.Run("status with nothing playing", func(t *testing.T) {
		out := &bytes.Buffer{}
		app := newTestApp(t, tu.NewMockClient(), out)

		if err := app.Run(ctx, []string{"strum", "player", "status"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Nothing playing") {
			t.Errorf("expected nothing-playing message, got %q", out.String())
		}
	})

	t.Run("status renders the current track", func(t *testing.T) {
		client := tu.NewMockClient()
		client.PlaybackResult = &models.PlaybackSnapshot{
			Track:    &models.Track{ID: "t1", Title: "Song One", Artist: "Artist", Duration: 3 * time.Minute},
			Position: 61 * time.Second,
			Playing:  true,
			DeviceID: "dev1",
		}

		out := &bytes.Buffer{}
		app := newTestApp(t, client, out)

		if err := app.Run(ctx, []string{"strum", "player", "status"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := out.String()
		if !strings.Contains(result, "Song One") {
			t.Errorf("expected track title, got %q", result)
		}
		if !strings.Contains(result, "1:01 / 3:00") {
			t.Errorf("expected position clock, got %q", result)
		}
	})
}

func TestLibraryCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("saved lists a page of tracks", func(t *testing.T) {
		client := tu.NewMockClient()
		client.SavedPage = &models.Page{
			Source: models.SourceSavedTracks,
			Total:  100,
			Tracks: []models.Track{
				{ID: "t1", Title: "First", Artist: "A", Duration: 2 * time.Minute},
				{ID: "t2", Title: "Second", Artist: "B", Duration: 3 * time.Minute},
			},
		}

		out := &bytes.Buffer{}
		app := newTestApp(t, client, out)

		if err := app.Run(ctx, []string{"strum", "library", "saved"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := out.String()
		if !strings.Contains(result, "First") || !strings.Contains(result, "Second") {
			t.Errorf("expected track titles, got %q", result)
		}
		if !strings.Contains(result, "2 of 100") {
			t.Errorf("expected pagination footer, got %q", result)
		}
	})

	t.Run("search forwards the query", func(t *testing.T) {
		client := tu.NewMockClient()
		client.SearchPage = &models.Page{
			Source: models.SourceSearch,
			Key:    "june",
			Tracks: []models.Track{{ID: "t9", Title: "June", Artist: "C"}},
		}

		out := &bytes.Buffer{}
		app := newTestApp(t, client, out)

		if err := app.Run(ctx, []string{"strum", "library", "search", "june"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if client.LastQuery != "june" {
			t.Errorf("expected query 'june', got %q", client.LastQuery)
		}
		if !strings.Contains(out.String(), "June") {
			t.Errorf("expected result title, got %q", out.String())
		}
	})

	t.Run("search without a query fails", func(t *testing.T) {
		app := newTestApp(t, tu.NewMockClient(), &bytes.Buffer{})

		if err := app.Run(ctx, []string{"strum", "library", "search"}); err == nil {
			t.Fatal("expected error for missing query")
		}
	})

	t.Run("recent lists tracks in order", func(t *testing.T) {
		client := tu.NewMockClient()
		client.RecentTracks = []models.Track{
			{ID: "t1", Title: "Newest", Artist: "A"},
			{ID: "t2", Title: "Older", Artist: "B"},
		}

		out := &bytes.Buffer{}
		app := newTestApp(t, client, out)

		if err := app.Run(ctx, []string{"strum", "library", "recent"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := out.String()
		if strings.Index(result, "Newest") > strings.Index(result, "Older") {
			t.Errorf("expected newest first, got %q", result)
		}
	})
}

func TestCacheCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("pages on an empty cache", func(t *testing.T) {
		out := &bytes.Buffer{}
		app := newTestApp(t, tu.NewMockClient(), out)

		if err := app.Run(ctx, []string{"strum", "cache", "pages"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Cache is empty") {
			t.Errorf("expected empty-cache message, got %q", out.String())
		}
	})

	t.Run("track on an empty cache fails", func(t *testing.T) {
		app := newTestApp(t, tu.NewMockClient(), &bytes.Buffer{})

		if err := app.Run(ctx, []string{"strum", "cache", "track", "missing"}); err == nil {
			t.Fatal("expected error for unknown track")
		}
	})
}
