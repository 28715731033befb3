package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// DefaultScopes covers library reads and full playback control.
var DefaultScopes = []string{
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"user-read-recently-played",
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
	"streaming",
}

// Authorizer runs the interactive authorization flow and blocks until the user
// completes or abandons it.
type Authorizer interface {
	Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)
}

// Options configures a [Manager].
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string // defaults to DefaultScopes
	CachePath    string
	Authorizer   Authorizer
	Logger       *log.Logger
}

// Manager owns the OAuth credential, its cache artifact, and refresh policy.
//
// All methods are safe for concurrent use. Exactly one refresh is ever in
// flight; concurrent callers share its result.
type Manager struct {
	config    *oauth2.Config
	cachePath string
	auth      Authorizer
	logger    *log.Logger

	mu     sync.Mutex
	token  *oauth2.Token
	scopes []string
	flight *refreshFlight
	loaded bool // cache artifact has been consulted
}

// refreshFlight is one in-flight refresh shared by concurrent callers.
type refreshFlight struct {
	done  chan struct{}
	token *oauth2.Token
	err   error
}

// NewManager creates a Manager for the given Spotify application credentials.
func NewManager(opts Options) (*Manager, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret required", shared.ErrMissingCredentials)
	}
	if opts.CachePath == "" {
		return nil, fmt.Errorf("%w: token cache path required", shared.ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Manager{
		config:    config,
		cachePath: opts.CachePath,
		auth:      opts.Authorizer,
		logger:    shared.WithLogger(opts.Logger, "component", "session"),
		scopes:    scopes,
	}, nil
}

// Acquire returns a valid credential.
//
// Order of attempts: in-memory/cached token while unexpired, coalesced refresh
// when a refresh token exists, then the interactive flow. Transient refresh
// failures surface to the caller; only a rejected refresh token falls through
// to interactive authorization.
func (m *Manager) Acquire(ctx context.Context) (*oauth2.Token, error) {
	tok := m.current()
	if tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := m.Refresh(ctx)
		switch {
		case err == nil:
			return refreshed, nil
		case errors.Is(err, shared.ErrAuthExpired):
			m.logger.Warn("refresh token rejected, re-running authorization")
		default:
			return nil, err
		}
	}

	return m.interactive(ctx)
}

// Refresh exchanges the refresh token for a new credential.
//
// Idempotent under concurrency: a second caller awaits the first flight's
// result rather than issuing a duplicate refresh request. The new credential is
// persisted to the cache artifact before being returned.
func (m *Manager) Refresh(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	if f := m.flight; f != nil {
		m.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.done:
			return f.token, f.err
		}
	}

	base := m.token
	if base == nil || base.RefreshToken == "" {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: no refresh token", shared.ErrAuthExpired)
	}

	f := &refreshFlight{done: make(chan struct{})}
	m.flight = f
	m.mu.Unlock()

	tok, err := m.config.TokenSource(ctx, base).Token()
	if err != nil {
		err = classifyTokenErr(err)
	} else if tok.RefreshToken == "" {
		// the provider may omit the refresh token on rotation; keep the old one
		tok.RefreshToken = base.RefreshToken
	}

	if err == nil {
		if werr := writeCache(m.cachePath, tok, m.scopes); werr != nil {
			m.logger.Warn("failed to persist refreshed credential", "err", werr)
		}
	}

	m.mu.Lock()
	if err == nil {
		m.token = tok
	} else if errors.Is(err, shared.ErrAuthExpired) {
		m.token = nil
	}
	f.token, f.err = tok, err
	m.flight = nil
	m.mu.Unlock()
	close(f.done)

	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Invalidate destroys the credential and its cache artifact, forcing the next
// Acquire through the interactive flow.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = nil
	m.loaded = true
	m.mu.Unlock()

	if err := os.Remove(m.cachePath); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove credential cache", "err", err)
	}
}

// Authenticated reports whether a credential (possibly expired but refreshable)
// is available without triggering any network or interactive flow.
func (m *Manager) Authenticated() bool {
	tok := m.current()
	return tok != nil && (tok.Valid() || tok.RefreshToken != "")
}

// TokenSource adapts the manager to [oauth2.TokenSource] so HTTP clients can
// consume it without owning refresh policy.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, manager: m}
}

// current returns the in-memory token, consulting the cache artifact on first use.
func (m *Manager) current() *oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		m.loaded = true
		tok, scopes, err := readCache(m.cachePath)
		switch {
		case err == nil:
			m.token = tok
			if len(scopes) > 0 {
				m.scopes = scopes
			}
		case os.IsNotExist(err):
		case errors.Is(err, shared.ErrCacheCorrupt):
			m.logger.Warn("credential cache unreadable, treating as cache miss", "err", err)
		default:
			m.logger.Warn("failed to read credential cache", "err", err)
		}
	}

	return m.token
}

// interactive runs the authorization flow and persists the resulting credential.
func (m *Manager) interactive(ctx context.Context) (*oauth2.Token, error) {
	if m.auth == nil {
		return nil, fmt.Errorf("%w: no authorizer configured, run auth login", shared.ErrAuthFailed)
	}

	m.logger.Info("starting interactive authorization")
	tok, err := m.auth.Authorize(ctx, m.config)
	if err != nil {
		return nil, err
	}

	if werr := writeCache(m.cachePath, tok, m.scopes); werr != nil {
		m.logger.Warn("failed to persist credential", "err", werr)
	}

	m.mu.Lock()
	m.token = tok
	m.loaded = true
	m.mu.Unlock()

	return tok, nil
}

// classifyTokenErr maps oauth2 retrieve errors onto the shared taxonomy.
func classifyTokenErr(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		code := retrieve.Response.StatusCode
		if code == http.StatusBadRequest || code == http.StatusUnauthorized || code == http.StatusForbidden {
			return fmt.Errorf("%w: %v", shared.ErrAuthExpired, err)
		}
	}
	return fmt.Errorf("%w: %v", shared.ErrNetworkTransient, err)
}

// tokenSource implements oauth2.TokenSource over a Manager.
type tokenSource struct {
	ctx     context.Context
	manager *Manager
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	return ts.manager.Acquire(ts.ctx)
}
