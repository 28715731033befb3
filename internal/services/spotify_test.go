package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/strum/internal/models"
	. "github.com/desertthunder/strum/internal/services"
	"github.com/desertthunder/strum/internal/shared"
	mocks "github.com/desertthunder/strum/internal/testing"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

func staticTokens() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
}

func newTestClient(handler http.HandlerFunc) (*SpotifyClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewSpotifyClient(staticTokens(),
		WithBaseURL(server.URL),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
	return client, server
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		want    error
	}{
		{"401 maps to expired auth", http.StatusUnauthorized, nil, "", shared.ErrAuthExpired},
		{"403 maps to not found", http.StatusForbidden, nil, "", shared.ErrNotFound},
		{"404 maps to not found", http.StatusNotFound, nil, "", shared.ErrNotFound},
		{"404 with a no-device reason maps to no active device", http.StatusNotFound, nil,
			`{"error": {"status": 404, "message": "Player command failed: No active device found", "reason": "NO_ACTIVE_DEVICE"}}`,
			shared.ErrNoActiveDevice},
		{"404 with another reason stays not found", http.StatusNotFound, nil,
			`{"error": {"status": 404, "message": "Not found", "reason": "UNKNOWN"}}`,
			shared.ErrNotFound},
		{"429 maps to rate limited", http.StatusTooManyRequests, map[string]string{"Retry-After": "3"}, "", shared.ErrRateLimited},
		{"500 maps to transient", http.StatusInternalServerError, nil, "", shared.ErrNetworkTransient},
		{"503 maps to transient", http.StatusServiceUnavailable, nil, "", shared.ErrNetworkTransient},
		{"418 maps to malformed", http.StatusTeapot, nil, "", shared.ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tc.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tc.status)
				if tc.body != "" {
					io.WriteString(w, tc.body)
				}
			})
			defer server.Close()

			_, err := client.Devices(context.Background())
			if !errors.Is(err, tc.want) {
				t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
			}
		})
	}

	t.Run("transport failure maps to transient", func(t *testing.T) {
		client := NewSpotifyClient(staticTokens(),
			WithHTTPClient(&http.Client{Transport: mocks.NewMockRoundTripper(nil, errors.New("connection refused"))}),
			WithLimiter(rate.NewLimiter(rate.Inf, 1)),
		)

		_, err := client.Devices(context.Background())
		if !errors.Is(err, shared.ErrNetworkTransient) {
			t.Errorf("got %v, want ErrNetworkTransient", err)
		}
	})

	t.Run("undecodable body maps to malformed", func(t *testing.T) {
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<html>not json</html>")
		})
		defer server.Close()

		_, err := client.Devices(context.Background())
		if !errors.Is(err, shared.ErrMalformed) {
			t.Errorf("got %v, want ErrMalformed", err)
		}
	})
}

func TestPlayerSurface(t *testing.T) {
	t.Run("play sends URIs, position, and device", func(t *testing.T) {
		var gotPath, gotDevice string
		var gotBody map[string]any

		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotDevice = r.URL.Query().Get("device_id")
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusNoContent)
		})
		defer server.Close()

		err := client.Play(context.Background(), PlayRequest{
			DeviceID:  "dev1",
			TrackURIs: []string{"spotify:track:t1"},
			Position:  90 * time.Second,
		})
		if err != nil {
			t.Fatalf("play failed: %v", err)
		}

		if gotPath != "/me/player/play" {
			t.Errorf("unexpected path %s", gotPath)
		}
		if gotDevice != "dev1" {
			t.Errorf("unexpected device %s", gotDevice)
		}
		if uris, ok := gotBody["uris"].([]any); !ok || len(uris) != 1 || uris[0] != "spotify:track:t1" {
			t.Errorf("unexpected uris: %v", gotBody["uris"])
		}
		if gotBody["position_ms"] != float64(90000) {
			t.Errorf("unexpected position_ms: %v", gotBody["position_ms"])
		}
	})

	t.Run("requests carry the bearer token", func(t *testing.T) {
		var gotAuth string
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		})
		defer server.Close()

		if err := client.Pause(context.Background(), ""); err != nil {
			t.Fatalf("pause failed: %v", err)
		}
		if gotAuth != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", gotAuth)
		}
	})

	t.Run("current playback maps the provider state", func(t *testing.T) {
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{
				"device": {"id": "dev1", "name": "Desk", "is_active": true, "volume_percent": 70},
				"repeat_state": "context",
				"shuffle_state": true,
				"progress_ms": 45000,
				"is_playing": true,
				"item": {
					"id": "t1", "name": "Song", "duration_ms": 180000,
					"uri": "spotify:track:t1",
					"artists": [{"name": "Artist"}],
					"album": {"name": "Album"}
				}
			}`)
		})
		defer server.Close()

		snap, err := client.CurrentPlayback(context.Background())
		if err != nil {
			t.Fatalf("current playback failed: %v", err)
		}
		if snap == nil || snap.Track == nil {
			t.Fatal("expected a playback snapshot with a track")
		}
		if snap.Track.ID != "t1" || snap.Track.Artist != "Artist" {
			t.Errorf("track mapped wrong: %+v", snap.Track)
		}
		if snap.Position != 45*time.Second || !snap.Playing || !snap.Shuffle {
			t.Errorf("state mapped wrong: %+v", snap)
		}
		if snap.Repeat != models.RepeatContext {
			t.Errorf("repeat mapped wrong: %s", snap.Repeat)
		}
		if snap.DeviceID != "dev1" || snap.VolumePct != 70 {
			t.Errorf("device mapped wrong: %+v", snap)
		}
	})

	t.Run("nothing playing returns nil without error", func(t *testing.T) {
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		defer server.Close()

		snap, err := client.CurrentPlayback(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap != nil {
			t.Errorf("expected nil snapshot for 204, got %+v", snap)
		}
	})

	t.Run("transfer playback targets the device", func(t *testing.T) {
		var gotBody map[string]any
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusNoContent)
		})
		defer server.Close()

		if err := client.TransferPlayback(context.Background(), "dev2", true); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}

		ids, ok := gotBody["device_ids"].([]any)
		if !ok || len(ids) != 1 || ids[0] != "dev2" {
			t.Errorf("unexpected device_ids: %v", gotBody["device_ids"])
		}
		if gotBody["play"] != true {
			t.Errorf("unexpected play flag: %v", gotBody["play"])
		}
	})
}

func TestLibrarySurface(t *testing.T) {
	t.Run("saved tracks map to a page", func(t *testing.T) {
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{
				"items": [
					{"track": {"id": "t1", "name": "One", "duration_ms": 60000, "artists": [{"name": "A"}]}},
					{"track": {"id": "t2", "name": "Two", "duration_ms": 90000, "artists": [{"name": "B"}]}}
				],
				"total": 120, "limit": 2, "offset": 10
			}`)
		})
		defer server.Close()

		page, err := client.SavedTracks(context.Background(), 2, 10)
		if err != nil {
			t.Fatalf("saved tracks failed: %v", err)
		}
		if page.Source != models.SourceSavedTracks || page.Total != 120 || page.Offset != 10 {
			t.Errorf("page metadata wrong: %+v", page)
		}
		if len(page.Tracks) != 2 || page.Tracks[0].Title != "One" {
			t.Errorf("tracks mapped wrong: %+v", page.Tracks)
		}
	})

	t.Run("search keys the page by query", func(t *testing.T) {
		var gotQuery, gotType string
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			gotType = r.URL.Query().Get("type")
			io.WriteString(w, `{"tracks": {"items": [{"id": "t3", "name": "Found"}], "total": 1, "limit": 20, "offset": 0}}`)
		})
		defer server.Close()

		page, err := client.Search(context.Background(), "radiohead", 20, 0)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if gotQuery != "radiohead" || gotType != "track" {
			t.Errorf("query params wrong: q=%s type=%s", gotQuery, gotType)
		}
		if page.Key != "radiohead" || page.Source != models.SourceSearch {
			t.Errorf("page identity wrong: %+v", page)
		}
	})

	t.Run("limits clamp to the provider maximum", func(t *testing.T) {
		var gotLimit string
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			io.WriteString(w, `{"items": [], "total": 0, "limit": 50, "offset": 0}`)
		})
		defer server.Close()

		if _, err := client.SavedTracks(context.Background(), 500, 0); err != nil {
			t.Fatalf("saved tracks failed: %v", err)
		}
		if gotLimit != "50" {
			t.Errorf("limit not clamped: %s", gotLimit)
		}
	})

	t.Run("recently played maps newest first", func(t *testing.T) {
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"items": [
				{"track": {"id": "t9", "name": "Newest"}, "played_at": "2026-08-30T10:00:00Z"},
				{"track": {"id": "t8", "name": "Older"}, "played_at": "2026-08-30T09:00:00Z"}
			]}`)
		})
		defer server.Close()

		tracks, err := client.RecentlyPlayed(context.Background(), 10)
		if err != nil {
			t.Fatalf("recently played failed: %v", err)
		}
		if len(tracks) != 2 || tracks[0].ID != "t9" {
			t.Errorf("history mapped wrong: %+v", tracks)
		}
	})

	t.Run("playlist tracks escape the playlist id", func(t *testing.T) {
		var gotPath string
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			io.WriteString(w, `{"items": [], "total": 0, "limit": 20, "offset": 0}`)
		})
		defer server.Close()

		if _, err := client.PlaylistTracks(context.Background(), "pl1", 20, 0); err != nil {
			t.Fatalf("playlist tracks failed: %v", err)
		}
		if gotPath != "/playlists/pl1/tracks" {
			t.Errorf("unexpected path %s", gotPath)
		}
	})
}
