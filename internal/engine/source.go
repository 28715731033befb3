package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
)

// Source resolves a track to a decodable audio stream.
type Source interface {
	Open(ctx context.Context, track models.Track) (beep.StreamSeekCloser, beep.Format, error)
}

// PreviewSource streams the provider's MP3 preview for a track.
type PreviewSource struct {
	httpClient *http.Client
}

// NewPreviewSource creates a PreviewSource. A nil client defaults to
// [http.DefaultClient].
func NewPreviewSource(client *http.Client) *PreviewSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &PreviewSource{httpClient: client}
}

// Open fetches and decodes the track's preview audio.
func (p *PreviewSource) Open(ctx context.Context, track models.Track) (beep.StreamSeekCloser, beep.Format, error) {
	if track.PreviewURL == "" {
		return nil, beep.Format{}, fmt.Errorf("%w: track %s has no preview audio", shared.ErrNotFound, track.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.PreviewURL, nil)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", shared.ErrNetworkTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: preview fetch status %d", shared.ErrNetworkTransient, resp.StatusCode)
	}

	stream, format, err := mp3.Decode(resp.Body)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", shared.ErrMalformed, err)
	}

	return stream, format, nil
}
