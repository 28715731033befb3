// Spotify Web API implementation of [Client]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyClient implements [Client] over the Spotify Web API.
//
// The client is stateless beyond its token source and rate limiter; all
// playback state lives in the shared application state, not here.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
}

var _ Client = (*SpotifyClient)(nil)

// ClientOption customizes a [SpotifyClient].
type ClientOption func(*SpotifyClient)

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *SpotifyClient) { s.httpClient = c }
}

// WithBaseURL points the client at a different API root (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(s *SpotifyClient) { s.baseURL = u }
}

// WithLimiter replaces the default request limiter.
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(s *SpotifyClient) { s.limiter = l }
}

// NewSpotifyClient creates a client drawing credentials from the given token source.
func NewSpotifyClient(tokens oauth2.TokenSource, opts ...ClientOption) *SpotifyClient {
	c := &SpotifyClient{
		baseURL:    spotifyBaseURL,
		httpClient: http.DefaultClient,
		tokens:     tokens,
		// 10 req/s with a small burst keeps well under provider limits
		limiter: rate.NewLimiter(rate.Limit(10), 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response DTOs

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type spotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
	PreviewURL string          `json:"preview_url"`
}

type spotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

type devicesResponse struct {
	Devices []spotifyDevice `json:"devices"`
}

type playbackStateResponse struct {
	Device       spotifyDevice `json:"device"`
	RepeatState  string        `json:"repeat_state"`
	ShuffleState bool          `json:"shuffle_state"`
	ProgressMS   int           `json:"progress_ms"`
	IsPlaying    bool          `json:"is_playing"`
	Item         *spotifyTrack `json:"item"`
}

type savedTrackItem struct {
	AddedAt string       `json:"added_at"`
	Track   spotifyTrack `json:"track"`
}

type pagedSavedTracks struct {
	Items  []savedTrackItem `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type simplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type pagedPlaylists struct {
	Items  []simplePlaylist `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type playlistTrackItem struct {
	Track spotifyTrack `json:"track"`
}

type pagedPlaylistTracks struct {
	Items  []playlistTrackItem `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

type searchResponse struct {
	Tracks struct {
		Items  []spotifyTrack `json:"items"`
		Total  int            `json:"total"`
		Limit  int            `json:"limit"`
		Offset int            `json:"offset"`
	} `json:"tracks"`
}

type recentlyPlayedResponse struct {
	Items []struct {
		Track    spotifyTrack `json:"track"`
		PlayedAt string       `json:"played_at"`
	} `json:"items"`
}

// toTrack maps a provider track onto the normalized model.
func toTrack(st spotifyTrack) models.Track {
	t := models.Track{
		ID:         st.ID,
		Title:      st.Name,
		Album:      st.Album.Name,
		Duration:   time.Duration(st.DurationMS) * time.Millisecond,
		URI:        st.URI,
		PreviewURL: st.PreviewURL,
	}
	if len(st.Artists) > 0 {
		t.Artist = st.Artists[0].Name
	}
	return t
}

func toDevice(sd spotifyDevice) models.Device {
	return models.Device{
		ID:        sd.ID,
		Name:      sd.Name,
		Kind:      sd.Type,
		Active:    sd.IsActive,
		VolumePct: sd.VolumePercent,
	}
}

// doRequest performs one authenticated, rate-limited request and decodes the
// response into result (when non-nil and the server returned a body).
func (s *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := s.tokens.Token()
	if err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetworkTransient, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformed, err)
		}
	}

	return nil
}

// classifyStatus maps a non-2xx response onto the shared error taxonomy.
func classifyStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrAuthExpired, code)
	case code == http.StatusForbidden, code == http.StatusNotFound:
		// Player commands answer 404 NO_ACTIVE_DEVICE when no Connect device
		// holds the session; callers handle that distinctly from a missing
		// resource.
		if errorReason(resp.Body) == "NO_ACTIVE_DEVICE" {
			return fmt.Errorf("%w: status %d", shared.ErrNoActiveDevice, code)
		}
		return fmt.Errorf("%w: status %d", shared.ErrNotFound, code)
	case code == http.StatusTooManyRequests:
		if after := resp.Header.Get("Retry-After"); after != "" {
			if secs, err := strconv.Atoi(after); err == nil {
				return fmt.Errorf("%w: retry after %ds", shared.ErrRateLimited, secs)
			}
		}
		return fmt.Errorf("%w: status %d", shared.ErrRateLimited, code)
	case code >= 500:
		return fmt.Errorf("%w: status %d", shared.ErrNetworkTransient, code)
	default:
		return fmt.Errorf("%w: unexpected status %d", shared.ErrMalformed, code)
	}
}

// errorReason extracts the reason code from the provider's error envelope.
// Empty when the body is absent or some other shape.
func errorReason(body io.Reader) string {
	var envelope struct {
		Error struct {
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&envelope); err != nil {
		return ""
	}
	return envelope.Error.Reason
}

// deviceQuery builds the optional device_id query parameter.
func deviceQuery(deviceID string) url.Values {
	q := url.Values{}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	return q
}

// Player surface

// Play starts (or resumes) playback per the request.
func (s *SpotifyClient) Play(ctx context.Context, req PlayRequest) error {
	body := map[string]any{}
	if len(req.TrackURIs) > 0 {
		body["uris"] = req.TrackURIs
	}
	if req.ContextURI != "" {
		body["context_uri"] = req.ContextURI
	}
	if req.Position > 0 {
		body["position_ms"] = int(req.Position / time.Millisecond)
	}

	var payload any
	if len(body) > 0 {
		payload = body
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", deviceQuery(req.DeviceID), payload, nil)
}

// Pause pauses playback on the given device.
func (s *SpotifyClient) Pause(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", deviceQuery(deviceID), nil, nil)
}

// SeekTo seeks the current track to pos.
func (s *SpotifyClient) SeekTo(ctx context.Context, deviceID string, pos time.Duration) error {
	q := deviceQuery(deviceID)
	q.Set("position_ms", strconv.Itoa(int(pos/time.Millisecond)))
	return s.doRequest(ctx, http.MethodPut, "/me/player/seek", q, nil, nil)
}

// SetVolume sets the device volume as a percentage.
func (s *SpotifyClient) SetVolume(ctx context.Context, deviceID string, pct int) error {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	q := deviceQuery(deviceID)
	q.Set("volume_percent", strconv.Itoa(pct))
	return s.doRequest(ctx, http.MethodPut, "/me/player/volume", q, nil, nil)
}

// SetShuffle toggles shuffle on the given device.
func (s *SpotifyClient) SetShuffle(ctx context.Context, deviceID string, on bool) error {
	q := deviceQuery(deviceID)
	q.Set("state", strconv.FormatBool(on))
	return s.doRequest(ctx, http.MethodPut, "/me/player/shuffle", q, nil, nil)
}

// SetRepeat sets the repeat mode on the given device.
func (s *SpotifyClient) SetRepeat(ctx context.Context, deviceID string, mode models.RepeatMode) error {
	q := deviceQuery(deviceID)
	q.Set("state", string(mode))
	return s.doRequest(ctx, http.MethodPut, "/me/player/repeat", q, nil, nil)
}

// NextTrack skips to the next track.
func (s *SpotifyClient) NextTrack(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/next", deviceQuery(deviceID), nil, nil)
}

// PreviousTrack skips to the previous track.
func (s *SpotifyClient) PreviousTrack(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", deviceQuery(deviceID), nil, nil)
}

// TransferPlayback moves playback to the given device.
func (s *SpotifyClient) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       play,
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player", nil, body, nil)
}

// CurrentPlayback retrieves the playback state. Returns (nil, nil) when
// nothing is playing anywhere (the provider answers 204).
func (s *SpotifyClient) CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error) {
	var state playbackStateResponse
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, nil, &state); err != nil {
		return nil, err
	}

	// a 204 leaves the DTO zero-valued
	if state.Item == nil && state.Device.ID == "" {
		return nil, nil
	}

	snap := &models.PlaybackSnapshot{
		Position:  time.Duration(state.ProgressMS) * time.Millisecond,
		Playing:   state.IsPlaying,
		Shuffle:   state.ShuffleState,
		Repeat:    models.RepeatMode(state.RepeatState),
		DeviceID:  state.Device.ID,
		VolumePct: state.Device.VolumePercent,
		FetchedAt: time.Now(),
	}
	if state.Item != nil {
		t := toTrack(*state.Item)
		snap.Track = &t
	}
	return snap, nil
}

// Devices lists the user's available Connect devices.
func (s *SpotifyClient) Devices(ctx context.Context) ([]models.Device, error) {
	var resp devicesResponse
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, nil, &resp); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		devices = append(devices, toDevice(d))
	}
	return devices, nil
}

// Library surface

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

// SavedTracks retrieves one window of the user's saved tracks.
func (s *SpotifyClient) SavedTracks(ctx context.Context, limit, offset int) (*models.Page, error) {
	var resp pagedSavedTracks
	if err := s.doRequest(ctx, http.MethodGet, "/me/tracks", pageQuery(limit, offset), nil, &resp); err != nil {
		return nil, err
	}

	page := &models.Page{
		Source:    models.SourceSavedTracks,
		Offset:    resp.Offset,
		Limit:     resp.Limit,
		Total:     resp.Total,
		FetchedAt: time.Now(),
	}
	for _, item := range resp.Items {
		page.Tracks = append(page.Tracks, toTrack(item.Track))
	}
	return page, nil
}

// UserPlaylists retrieves one window of the user's playlists.
func (s *SpotifyClient) UserPlaylists(ctx context.Context, limit, offset int) ([]models.Playlist, error) {
	var resp pagedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, "/me/playlists", pageQuery(limit, offset), nil, &resp); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(resp.Items))
	for _, sp := range resp.Items {
		playlists = append(playlists, models.Playlist{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			TrackCount:  sp.Tracks.Total,
			Public:      sp.Public,
		})
	}
	return playlists, nil
}

// PlaylistTracks retrieves one window of a playlist's tracks.
func (s *SpotifyClient) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*models.Page, error) {
	var resp pagedPlaylistTracks
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, pageQuery(limit, offset), nil, &resp); err != nil {
		return nil, err
	}

	page := &models.Page{
		Source:    models.SourcePlaylist,
		Key:       playlistID,
		Offset:    resp.Offset,
		Limit:     resp.Limit,
		Total:     resp.Total,
		FetchedAt: time.Now(),
	}
	for _, item := range resp.Items {
		page.Tracks = append(page.Tracks, toTrack(item.Track))
	}
	return page, nil
}

// Search retrieves one window of track search results for query.
func (s *SpotifyClient) Search(ctx context.Context, query string, limit, offset int) (*models.Page, error) {
	q := pageQuery(limit, offset)
	q.Set("q", query)
	q.Set("type", "track")

	var resp searchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search", q, nil, &resp); err != nil {
		return nil, err
	}

	page := &models.Page{
		Source:    models.SourceSearch,
		Key:       query,
		Offset:    resp.Tracks.Offset,
		Limit:     resp.Tracks.Limit,
		Total:     resp.Tracks.Total,
		FetchedAt: time.Now(),
	}
	for _, item := range resp.Tracks.Items {
		page.Tracks = append(page.Tracks, toTrack(item))
	}
	return page, nil
}

// RecentlyPlayed retrieves the user's listening history, newest first.
func (s *SpotifyClient) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var resp recentlyPlayedResponse
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/recently-played", q, nil, &resp); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		tracks = append(tracks, toTrack(item.Track))
	}
	return tracks, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyClient) Track(ctx context.Context, trackID string) (*models.Track, error) {
	var st spotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", url.PathEscape(trackID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &st); err != nil {
		return nil, err
	}

	track := toTrack(st)
	return &track, nil
}
