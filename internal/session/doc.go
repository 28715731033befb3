// Package session owns the OAuth credential lifecycle: acquisition, the on-disk
// cache artifact, coalesced refresh, and invalidation.
//
// # Acquire
//
// [Manager.Acquire] is the only entry point callers need: it returns the cached
// credential while it is valid, refreshes it when expired, and falls back to the
// interactive authorization flow (browser + loopback callback) when no usable
// refresh token exists. A corrupt cache artifact is treated as a cache miss,
// never a fatal error.
//
// # Refresh coalescing
//
// Concurrent refresh attempts collapse into a single in-flight network call;
// late callers wait for the first flight's result instead of issuing duplicate
// refresh requests that could race token rotation on the provider side.
//
// # Persistence
//
// Every successful exchange or refresh is written to the cache artifact before
// the credential is returned, so a crash immediately after refresh never loses
// the rotated token.
package session
