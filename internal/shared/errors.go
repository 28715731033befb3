package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthExpired  = fmt.Errorf("authorization expired")
	ErrAuthFailed   = fmt.Errorf("authentication failed")
	ErrCacheCorrupt = fmt.Errorf("credential cache unreadable")

	// API errors, classified from provider responses
	ErrNetworkTransient = fmt.Errorf("transient network failure")
	ErrRateLimited      = fmt.Errorf("rate limited")
	ErrNotFound         = fmt.Errorf("resource not found")
	ErrMalformed        = fmt.Errorf("malformed response")

	// Playback errors
	ErrEngineUnavailable = fmt.Errorf("local playback engine unavailable")
	ErrRoutingInvalid    = fmt.Errorf("intent routed to inactive playback target")
	ErrNoActiveDevice    = fmt.Errorf("no active playback device")

	// Dispatcher errors
	ErrDispatcherStopped = fmt.Errorf("dispatcher stopped")
)
