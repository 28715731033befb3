// Package models defines the domain entities shared across the dispatcher, the
// remote client, the local engine, and the UI.
//
// The package contains pure value types only:
//   - [Track], [Playlist], [Device] : provider entities in normalized form
//   - [Page] : one fetched window of a paginated library or search source
//   - [PlaybackSnapshot] : the now-playing aggregate committed by the dispatcher
//   - [Queue] : the ordered play queue with its cursor
//   - [Target] : the active playback target variant (Connect device or local engine)
//
// Everything here is copyable by value (slices are copied by their owners), so a
// state snapshot never aliases dispatcher-owned memory.
package models
