// Package server provides the loopback HTTP surface for the OAuth2
// authorization-code flow.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization-code callback: it validates the
// state parameter (CSRF protection), exchanges the code for tokens, and sends
// the result through a channel. Only the first callback is processed; replays
// get a 400.
//
// # Callback Server
//
// [CallbackServer] binds a [Router] to the configured loopback address for the
// duration of one authorization flow and shuts down once a result (or context
// cancellation) arrives. The session manager drives it from
// [session.BrowserAuthorizer]; no other HTTP surface exists in this program.
//
// # Router Infrastructure
//
// The [Router] interface and [BasicRouter] implementation wrap [http.ServeMux]
// with middleware support, so the callback handler stays a plain [Handler].
package server
