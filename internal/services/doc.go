// Package services defines the typed façade over the Spotify Web API used by
// the dispatcher.
//
// # Client Interface
//
// [PlayerAPI] covers playback control and device queries; [LibraryAPI] covers
// paginated library, search, and history reads. [Client] combines both.
// All methods take fully-resolved typed identifiers and return either a typed
// result or a classified error; no raw response shapes cross this boundary.
//
// # Error Classification
//
// HTTP outcomes map onto the shared taxonomy:
//   - 401                          : [shared.ErrAuthExpired] (dispatcher re-acquires once and retries)
//   - 403, 404 (incl. no device)   : [shared.ErrNotFound]
//   - 429                          : [shared.ErrRateLimited]
//   - 5xx and transport failures   : [shared.ErrNetworkTransient]
//   - undecodable response bodies  : [shared.ErrMalformed]
//
// # Rate Limiting
//
// Every request passes a client-side [rate.Limiter] before hitting the wire so
// bursts of dispatched intents cannot trip provider-side limits.
//
// # Authentication
//
// The client consumes an [oauth2.TokenSource] (the session manager) and never
// owns refresh policy; an expired credential surfaces as ErrAuthExpired and the
// dispatcher decides what to do about it.
package services
