package engine

import (
	"time"

	"github.com/desertthunder/strum/internal/models"
)

// Command is a request sent to the engine worker. Commands are fire-and-forget;
// results arrive on the event stream.
type Command interface {
	isCommand()
}

// LoadCommand loads a track, optionally starting playback at a position.
type LoadCommand struct {
	Track        models.Track
	Position     time.Duration
	StartPlaying bool
}

// PlayCommand resumes playback of the loaded track.
type PlayCommand struct{}

// PauseCommand pauses playback, keeping the position.
type PauseCommand struct{}

// SeekCommand seeks the loaded track to a position.
type SeekCommand struct {
	Position time.Duration
}

// SetVolumeCommand sets the engine volume as a percentage.
type SetVolumeCommand struct {
	Pct int
}

// PreloadCommand warms the source for the next queue item for gapless advance.
type PreloadCommand struct {
	Track models.Track
}

// ShutdownCommand stops the worker after releasing the audio session.
type ShutdownCommand struct{}

func (LoadCommand) isCommand()      {}
func (PlayCommand) isCommand()      {}
func (PauseCommand) isCommand()     {}
func (SeekCommand) isCommand()      {}
func (SetVolumeCommand) isCommand() {}
func (PreloadCommand) isCommand()   {}
func (ShutdownCommand) isCommand()  {}
