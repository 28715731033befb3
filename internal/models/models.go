package models

import (
	"fmt"
	"time"
)

// Track represents a playable track in normalized form.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
	URI      string // provider URI, e.g. "spotify:track:xxx"

	// PreviewURL is the provider's audio preview for the track, when offered.
	// The local engine's default source streams from it.
	PreviewURL string
}

// String renders the track for status lines and logs.
func (t Track) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s – %s", t.Artist, t.Title)
}

// Playlist represents playlist metadata.
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// Device represents a Spotify Connect device.
type Device struct {
	ID        string
	Name      string
	Kind      string // computer, smartphone, speaker, ...
	Active    bool
	VolumePct int
}

// RepeatMode enumerates the provider's repeat states.
type RepeatMode string

const (
	RepeatOff     RepeatMode = "off"
	RepeatTrack   RepeatMode = "track"
	RepeatContext RepeatMode = "context"
)

// Next cycles off -> context -> track -> off.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatContext
	case RepeatContext:
		return RepeatTrack
	default:
		return RepeatOff
	}
}

// PageSource identifies a paginated collection.
type PageSource string

const (
	SourceSavedTracks PageSource = "saved"
	SourcePlaylist    PageSource = "playlist"
	SourceSearch      PageSource = "search"
	SourceRecent      PageSource = "recent"
)

// Page is one fetched window of a paginated source.
//
// Key disambiguates pages within a source: the playlist ID for SourcePlaylist,
// the query for SourceSearch, empty otherwise.
type Page struct {
	Source    PageSource
	Key       string
	Offset    int
	Limit     int
	Total     int
	Tracks    []Track
	FetchedAt time.Time
}

// PageID returns the identity of this page within the state's library map.
func (p Page) PageID() PageID {
	return PageID{Source: p.Source, Key: p.Key, Offset: p.Offset}
}

// PageID keys pages in the shared state and the sqlite cache.
type PageID struct {
	Source PageSource
	Key    string
	Offset int
}

// PlaybackSnapshot is the now-playing aggregate.
//
// Revision is assigned by the state store at commit time; a poll result carrying
// data older than the current revision is dropped rather than committed.
type PlaybackSnapshot struct {
	Track     *Track
	Position  time.Duration
	Playing   bool
	Shuffle   bool
	Repeat    RepeatMode
	DeviceID  string
	VolumePct int
	Revision  uint64
	FetchedAt time.Time
}

// Queue is the ordered play queue with a cursor into it.
type Queue struct {
	Tracks []Track
	Cursor int
}

// Current returns the track under the cursor, or nil when the queue is exhausted.
func (q Queue) Current() *Track {
	if q.Cursor < 0 || q.Cursor >= len(q.Tracks) {
		return nil
	}
	t := q.Tracks[q.Cursor]
	return &t
}

// Peek returns the track after the cursor, or nil.
func (q Queue) Peek() *Track {
	if q.Cursor+1 >= len(q.Tracks) {
		return nil
	}
	t := q.Tracks[q.Cursor+1]
	return &t
}

// TargetKind discriminates the playback target variant.
type TargetKind int

const (
	TargetRemote TargetKind = iota
	TargetLocal
)

// Target is the active playback routing target: a Connect device or the local engine.
type Target struct {
	Kind     TargetKind
	DeviceID string // set for TargetRemote
}

// String renders the target for logs and status lines.
func (t Target) String() string {
	if t.Kind == TargetLocal {
		return "local"
	}
	if t.DeviceID == "" {
		return "remote"
	}
	return "remote:" + t.DeviceID
}
