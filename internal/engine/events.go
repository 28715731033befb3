package engine

import (
	"time"

	"github.com/desertthunder/strum/internal/models"
)

// Event is an asynchronous notification from the engine worker.
type Event interface {
	isEvent()
}

// LoadingEvent reports that a track's audio is being fetched.
type LoadingEvent struct {
	Track models.Track
}

// PlayingEvent reports that playback started or resumed.
type PlayingEvent struct {
	Track    models.Track
	Position time.Duration
	Duration time.Duration
}

// PausedEvent reports that playback paused.
type PausedEvent struct {
	Track    models.Track
	Position time.Duration
}

// PositionEvent is the periodic progress report while playing.
type PositionEvent struct {
	Position time.Duration
	Duration time.Duration
}

// TrackEndedEvent reports that the loaded track drained. The dispatcher turns
// this into a queue-advance intent.
type TrackEndedEvent struct {
	Track models.Track
}

// PreloadNextEvent fires once per track near its end so the next queue item
// can be warmed.
type PreloadNextEvent struct{}

// VolumeChangedEvent acknowledges a volume command.
type VolumeChangedEvent struct {
	Pct int
}

// ErrorEvent reports a source or decode failure; the session stays alive.
type ErrorEvent struct {
	Err error
}

// ShutdownEvent is the last event before the worker exits.
type ShutdownEvent struct{}

func (LoadingEvent) isEvent()       {}
func (PlayingEvent) isEvent()       {}
func (PausedEvent) isEvent()        {}
func (PositionEvent) isEvent()      {}
func (TrackEndedEvent) isEvent()    {}
func (PreloadNextEvent) isEvent()   {}
func (VolumeChangedEvent) isEvent() {}
func (ErrorEvent) isEvent()         {}
func (ShutdownEvent) isEvent()      {}
