package session

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/server"
	"github.com/desertthunder/strum/internal/shared"
	"golang.org/x/oauth2"
)

// BrowserAuthorizer implements [Authorizer] with the loopback redirect flow:
// it serves the callback on host:port, opens the consent page in the user's
// browser, and blocks until the callback fires or ctx is cancelled.
type BrowserAuthorizer struct {
	host   string
	port   int
	logger *log.Logger

	openBrowser func(string) error // swapped in tests
}

// NewBrowserAuthorizer creates a BrowserAuthorizer bound to the configured
// loopback address.
func NewBrowserAuthorizer(host string, port int, logger *log.Logger) *BrowserAuthorizer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &BrowserAuthorizer{
		host:        host,
		port:        port,
		logger:      shared.WithLogger(logger, "component", "authorizer"),
		openBrowser: shared.OpenBrowser,
	}
}

// Authorize runs one authorization-code flow.
func (b *BrowserAuthorizer) Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	state := shared.GenerateID()
	handler := server.NewOAuthHandler(config, state)

	router := server.NewBasicRouter()
	router.Handler(handler)
	srv := server.NewCallbackServer(b.host, b.port, router)

	done := make(chan struct{})
	var result server.OAuthResult
	go func() {
		if r, ok := <-handler.Result(); ok {
			result = r
		}
		close(done)
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	if err := b.openBrowser(authURL); err != nil {
		b.logger.Warn("could not open browser", "err", err)
		fmt.Printf("Open this URL to authorize:\n\n  %s\n\n", authURL)
	}

	if err := srv.Run(ctx, done); err != nil {
		return nil, err
	}

	select {
	case <-done:
	default:
		// server stopped before a callback arrived
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: authorization abandoned", shared.ErrAuthFailed)
	}

	if err := result.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: authorization abandoned", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
