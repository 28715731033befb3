// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/strum/internal/engine"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/services"
	"golang.org/x/oauth2"
)

// MockClient is a scripted test double for [services.Client].
//
// Errs scripts per-method failures: each call pops the next error for its
// method name, so a script of {transient, transient, nil} exercises the retry
// path. Calls counts invocations per method.
type MockClient struct {
	mu    sync.Mutex
	Calls map[string]int
	Errs  map[string][]error

	PlaybackResult  *models.PlaybackSnapshot
	DevicesResult   []models.Device
	SavedPage       *models.Page
	PlaylistPage    *models.Page
	SearchPage      *models.Page
	RecentTracks    []models.Track
	TrackResult     *models.Track
	PlaylistsResult []models.Playlist

	LastPlay     services.PlayRequest
	LastSeek     time.Duration
	LastVolume   int
	LastShuffle  bool
	LastRepeat   models.RepeatMode
	LastTransfer string
	LastQuery    string
}

// NewMockClient creates a MockClient with empty scripts.
func NewMockClient() *MockClient {
	return &MockClient{
		Calls: make(map[string]int),
		Errs:  make(map[string][]error),
	}
}

// CallCount returns how many times a method was invoked.
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

// Script queues errors for a method; a nil entry means that call succeeds.
func (m *MockClient) Script(method string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errs[method] = append(m.Errs[method], errs...)
}

// record counts the call and pops its scripted outcome.
func (m *MockClient) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[method]++
	script := m.Errs[method]
	if len(script) == 0 {
		return nil
	}
	err := script[0]
	m.Errs[method] = script[1:]
	return err
}

func (m *MockClient) Play(ctx context.Context, req services.PlayRequest) error {
	err := m.record("Play")
	m.mu.Lock()
	m.LastPlay = req
	m.mu.Unlock()
	return err
}

func (m *MockClient) Pause(ctx context.Context, deviceID string) error {
	return m.record("Pause")
}

func (m *MockClient) SeekTo(ctx context.Context, deviceID string, pos time.Duration) error {
	err := m.record("SeekTo")
	m.mu.Lock()
	m.LastSeek = pos
	m.mu.Unlock()
	return err
}

func (m *MockClient) SetVolume(ctx context.Context, deviceID string, pct int) error {
	err := m.record("SetVolume")
	m.mu.Lock()
	m.LastVolume = pct
	m.mu.Unlock()
	return err
}

func (m *MockClient) SetShuffle(ctx context.Context, deviceID string, on bool) error {
	err := m.record("SetShuffle")
	m.mu.Lock()
	m.LastShuffle = on
	m.mu.Unlock()
	return err
}

func (m *MockClient) SetRepeat(ctx context.Context, deviceID string, mode models.RepeatMode) error {
	err := m.record("SetRepeat")
	m.mu.Lock()
	m.LastRepeat = mode
	m.mu.Unlock()
	return err
}

func (m *MockClient) NextTrack(ctx context.Context, deviceID string) error {
	return m.record("NextTrack")
}

func (m *MockClient) PreviousTrack(ctx context.Context, deviceID string) error {
	return m.record("PreviousTrack")
}

func (m *MockClient) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	err := m.record("TransferPlayback")
	m.mu.Lock()
	m.LastTransfer = deviceID
	m.mu.Unlock()
	return err
}

func (m *MockClient) CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error) {
	if err := m.record("CurrentPlayback"); err != nil {
		return nil, err
	}
	return m.PlaybackResult, nil
}

func (m *MockClient) Devices(ctx context.Context) ([]models.Device, error) {
	if err := m.record("Devices"); err != nil {
		return nil, err
	}
	return m.DevicesResult, nil
}

func (m *MockClient) SavedTracks(ctx context.Context, limit, offset int) (*models.Page, error) {
	if err := m.record("SavedTracks"); err != nil {
		return nil, err
	}
	return m.SavedPage, nil
}

func (m *MockClient) UserPlaylists(ctx context.Context, limit, offset int) ([]models.Playlist, error) {
	if err := m.record("UserPlaylists"); err != nil {
		return nil, err
	}
	return m.PlaylistsResult, nil
}

func (m *MockClient) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*models.Page, error) {
	if err := m.record("PlaylistTracks"); err != nil {
		return nil, err
	}
	return m.PlaylistPage, nil
}

func (m *MockClient) Search(ctx context.Context, query string, limit, offset int) (*models.Page, error) {
	err := m.record("Search")
	m.mu.Lock()
	m.LastQuery = query
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.SearchPage, nil
}

func (m *MockClient) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	if err := m.record("RecentlyPlayed"); err != nil {
		return nil, err
	}
	return m.RecentTracks, nil
}

func (m *MockClient) Track(ctx context.Context, trackID string) (*models.Track, error) {
	if err := m.record("Track"); err != nil {
		return nil, err
	}
	return m.TrackResult, nil
}

// ScriptedEngine is a test double for the dispatcher's engine surface: it
// records commands and lets tests inject events.
type ScriptedEngine struct {
	mu       sync.Mutex
	commands []engine.Command
	SendErr  error
	events   chan engine.Event
}

// NewScriptedEngine creates a ScriptedEngine with a buffered event stream.
func NewScriptedEngine() *ScriptedEngine {
	return &ScriptedEngine{events: make(chan engine.Event, 16)}
}

func (e *ScriptedEngine) Send(cmd engine.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SendErr != nil {
		return e.SendErr
	}
	e.commands = append(e.commands, cmd)
	return nil
}

func (e *ScriptedEngine) Events() <-chan engine.Event {
	return e.events
}

// Emit injects an event as if the engine worker produced it.
func (e *ScriptedEngine) Emit(ev engine.Event) {
	e.events <- ev
}

// Commands returns a copy of the received command log.
func (e *ScriptedEngine) Commands() []engine.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Command, len(e.commands))
	copy(out, e.commands)
	return out
}

// Fail makes subsequent Sends return err.
func (e *ScriptedEngine) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.SendErr = err
}

// MockSessions is a test double for the dispatcher's credential surface.
type MockSessions struct {
	mu              sync.Mutex
	AcquireCalls    int
	RefreshCalls    int
	InvalidateCalls int
	AcquireErr      error
	RefreshErr      error
}

func (s *MockSessions) Acquire(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AcquireCalls++
	if s.AcquireErr != nil {
		return nil, s.AcquireErr
	}
	return &oauth2.Token{AccessToken: "acquired"}, nil
}

func (s *MockSessions) Refresh(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RefreshCalls++
	if s.RefreshErr != nil {
		return nil, s.RefreshErr
	}
	return &oauth2.Token{AccessToken: "refreshed"}, nil
}

func (s *MockSessions) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InvalidateCalls++
}

// Counts returns the acquire and refresh call counts.
func (s *MockSessions) Counts() (acquire, refresh int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.AcquireCalls, s.RefreshCalls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RoundTripFunc adapts a function into an [http.RoundTripper].
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// JSONResponse builds a response with a JSON string body.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
