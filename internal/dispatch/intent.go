package dispatch

import (
	"time"

	"github.com/desertthunder/strum/internal/models"
)

// Class identifies an intent category for coalescing, retry, and error slots.
type Class string

const (
	ClassPlay            Class = "play"
	ClassPause           Class = "pause"
	ClassResume          Class = "resume"
	ClassSeek            Class = "seek"
	ClassVolume          Class = "volume"
	ClassShuffle         Class = "shuffle"
	ClassRepeat          Class = "repeat"
	ClassNext            Class = "next"
	ClassPrevious        Class = "previous"
	ClassFetchDevices    Class = "fetch_devices"
	ClassFetchLibrary    Class = "fetch_library"
	ClassSearch          Class = "search"
	ClassSwitchTarget    Class = "switch_target"
	ClassRefreshPlayback Class = "refresh_playback"
	ClassAdvanceQueue    Class = "advance_queue"
	ClassPreloadNext     Class = "preload_next"
	ClassSyncLocal       Class = "sync_local"
)

// Intent is one requested action. Intents are immutable once enqueued and
// carry everything needed to retry without re-reading mutable state.
type Intent interface {
	Class() Class
}

// PlayIntent starts playback of a track, optionally installing a play queue
// around it (e.g. the page the track was chosen from).
type PlayIntent struct {
	Track      models.Track
	Queue      []models.Track // replaces the play queue when non-nil
	ContextURI string
	Position   time.Duration
}

// PauseIntent pauses the active target.
type PauseIntent struct{}

// ResumeIntent resumes the active target.
type ResumeIntent struct{}

// SeekIntent seeks the current track. Superseding: only the latest pending
// seek executes.
type SeekIntent struct {
	Position time.Duration
}

// SetVolumeIntent sets the active target's volume. Superseding.
type SetVolumeIntent struct {
	Pct int
}

// ToggleShuffleIntent flips the shuffle flag.
type ToggleShuffleIntent struct{}

// ToggleRepeatIntent cycles the repeat mode.
type ToggleRepeatIntent struct{}

// NextTrackIntent skips forward.
type NextTrackIntent struct{}

// PreviousTrackIntent skips backward.
type PreviousTrackIntent struct{}

// FetchDevicesIntent refreshes the Connect device list.
type FetchDevicesIntent struct{}

// FetchLibraryIntent fetches one window of a paginated library source.
type FetchLibraryIntent struct {
	Source models.PageSource
	Key    string // playlist ID for SourcePlaylist
	Offset int
	Limit  int
}

// SearchIntent fetches one window of track search results. Superseding.
type SearchIntent struct {
	Query  string
	Offset int
	Limit  int
}

// SwitchTargetIntent moves playback routing to a new target. The previous
// target is paused first; position carries over.
type SwitchTargetIntent struct {
	Target models.Target
}

// RefreshPlaybackIntent polls the remote playback state. Best-effort and
// superseding: failures are swallowed and retried on the next poll tick, and a
// stale result never overwrites a newer user-triggered commit.
type RefreshPlaybackIntent struct{}

// AdvanceQueueIntent is synthesized from the engine's TrackEnded event: load
// the next queue item and move the cursor.
type AdvanceQueueIntent struct {
	Ended models.Track
}

// PreloadNextIntent is synthesized from the engine's preload hint: warm the
// next queue item for gapless advance.
type PreloadNextIntent struct{}

// SyncLocalIntent is synthesized from engine playback events to mirror the
// local session into shared state. Superseding and best-effort.
type SyncLocalIntent struct {
	Track    *models.Track
	Position time.Duration
	Duration time.Duration
	Playing  bool
}

func (PlayIntent) Class() Class            { return ClassPlay }
func (PauseIntent) Class() Class           { return ClassPause }
func (ResumeIntent) Class() Class          { return ClassResume }
func (SeekIntent) Class() Class            { return ClassSeek }
func (SetVolumeIntent) Class() Class       { return ClassVolume }
func (ToggleShuffleIntent) Class() Class   { return ClassShuffle }
func (ToggleRepeatIntent) Class() Class    { return ClassRepeat }
func (NextTrackIntent) Class() Class       { return ClassNext }
func (PreviousTrackIntent) Class() Class   { return ClassPrevious }
func (FetchDevicesIntent) Class() Class    { return ClassFetchDevices }
func (FetchLibraryIntent) Class() Class    { return ClassFetchLibrary }
func (SearchIntent) Class() Class          { return ClassSearch }
func (SwitchTargetIntent) Class() Class    { return ClassSwitchTarget }
func (RefreshPlaybackIntent) Class() Class { return ClassRefreshPlayback }
func (AdvanceQueueIntent) Class() Class    { return ClassAdvanceQueue }
func (PreloadNextIntent) Class() Class     { return ClassPreloadNext }
func (SyncLocalIntent) Class() Class       { return ClassSyncLocal }

// superseding classes keep only their most recent pending instance.
func superseding(c Class) bool {
	switch c {
	case ClassSeek, ClassVolume, ClassSearch, ClassRefreshPlayback, ClassSyncLocal:
		return true
	}
	return false
}

// idempotent classes may be retried on transient failures.
func idempotent(c Class) bool {
	switch c {
	case ClassFetchDevices, ClassFetchLibrary, ClassSearch, ClassRefreshPlayback:
		return true
	}
	return false
}

// bestEffort classes swallow failures; the next tick retries naturally.
func bestEffort(c Class) bool {
	return c == ClassRefreshPlayback || c == ClassSyncLocal
}

// playbackControl classes are routed to the active target's adapter.
func playbackControl(c Class) bool {
	switch c {
	case ClassPlay, ClassPause, ClassResume, ClassSeek, ClassVolume,
		ClassNext, ClassPrevious, ClassAdvanceQueue, ClassPreloadNext, ClassSyncLocal:
		return true
	}
	return false
}
