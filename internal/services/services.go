package services

import (
	"context"
	"time"

	"github.com/desertthunder/strum/internal/models"
)

// PlayRequest describes one play (or resume-with-context) call.
//
// Either TrackURIs or ContextURI is set; both empty means "resume whatever is
// loaded". DeviceID may be empty to target the provider's active device.
type PlayRequest struct {
	DeviceID   string
	TrackURIs  []string
	ContextURI string
	Position   time.Duration
}

// PlayerAPI is the playback-control surface of the Web API.
type PlayerAPI interface {
	Play(ctx context.Context, req PlayRequest) error
	Pause(ctx context.Context, deviceID string) error
	SeekTo(ctx context.Context, deviceID string, pos time.Duration) error
	SetVolume(ctx context.Context, deviceID string, pct int) error
	SetShuffle(ctx context.Context, deviceID string, on bool) error
	SetRepeat(ctx context.Context, deviceID string, mode models.RepeatMode) error
	NextTrack(ctx context.Context, deviceID string) error
	PreviousTrack(ctx context.Context, deviceID string) error
	TransferPlayback(ctx context.Context, deviceID string, play bool) error
	CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error)
	Devices(ctx context.Context) ([]models.Device, error)
}

// LibraryAPI is the paginated read surface of the Web API.
type LibraryAPI interface {
	SavedTracks(ctx context.Context, limit, offset int) (*models.Page, error)
	UserPlaylists(ctx context.Context, limit, offset int) ([]models.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*models.Page, error)
	Search(ctx context.Context, query string, limit, offset int) (*models.Page, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error)
	Track(ctx context.Context, trackID string) (*models.Track, error)
}

// Client combines the full remote adapter surface.
type Client interface {
	PlayerAPI
	LibraryAPI
}
