package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// preloadLead is how far before a track's end the preload event fires.
const preloadLead = 10 * time.Second

// Engine owns one audio session behind the command/event interface.
//
// Construction starts the worker goroutine; the session is owned exclusively by
// that worker and released by [ShutdownCommand].
type Engine struct {
	source  Source
	backend Backend
	logger  *log.Logger

	sampleRate beep.SampleRate
	cmds       chan Command
	events     chan Event
	trackDone  chan struct{}
	stopped    atomic.Bool

	// worker-owned playback session, never touched outside run()
	current         *models.Track
	stream          beep.StreamSeekCloser
	format          beep.Format
	ctrl            *beep.Ctrl
	volume          *effects.Volume
	volumePct       int
	preloaded       *preloadedTrack
	preloadAnnounce bool
}

type preloadedTrack struct {
	track  models.Track
	stream beep.StreamSeekCloser
	format beep.Format
}

// Option customizes an [Engine].
type Option func(*Engine)

// WithBackend replaces the speaker backend (used by tests).
func WithBackend(b Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithVolume sets the initial volume percentage.
func WithVolume(pct int) Option {
	return func(e *Engine) { e.volumePct = clampPct(pct) }
}

// New creates an Engine and starts its worker.
//
// Fails with [shared.ErrEngineUnavailable] when the audio backend cannot
// initialize, in which case the caller routes playback remotely instead.
func New(source Source, logger *log.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	e := &Engine{
		source:     source,
		backend:    speakerBackend{},
		logger:     shared.WithLogger(logger, "component", "engine"),
		sampleRate: beep.SampleRate(44100),
		cmds:       make(chan Command, 16),
		events:     make(chan Event, 32),
		trackDone:  make(chan struct{}, 1),
		volumePct:  60,
	}
	for _, opt := range opts {
		opt(e)
	}

	bufSize := e.sampleRate.N(time.Second / 10)
	if err := e.backend.Init(e.sampleRate, bufSize); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEngineUnavailable, err)
	}

	go e.run()
	return e, nil
}

// Send queues a command for the worker. Fails once the engine has shut down.
func (e *Engine) Send(cmd Command) error {
	if e.stopped.Load() {
		return fmt.Errorf("%w: engine shut down", shared.ErrEngineUnavailable)
	}
	e.cmds <- cmd
	return nil
}

// Events returns the engine's event stream.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// run is the worker loop; it owns the audio session.
func (e *Engine) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-e.cmds:
			if _, ok := cmd.(ShutdownCommand); ok {
				e.shutdown()
				return
			}
			e.handle(cmd)
		case <-e.trackDone:
			e.handleTrackDone()
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) handle(cmd Command) {
	switch c := cmd.(type) {
	case LoadCommand:
		e.handleLoad(c)
	case PlayCommand:
		e.setPaused(false)
	case PauseCommand:
		e.setPaused(true)
	case SeekCommand:
		e.handleSeek(c.Position)
	case SetVolumeCommand:
		e.handleVolume(c.Pct)
	case PreloadCommand:
		e.handlePreload(c.Track)
	}
}

func (e *Engine) handleLoad(c LoadCommand) {
	e.clearSession()

	var stream beep.StreamSeekCloser
	var format beep.Format

	if pre := e.preloaded; pre != nil && pre.track.ID == c.Track.ID {
		stream, format = pre.stream, pre.format
		e.preloaded = nil
	} else {
		e.emit(LoadingEvent{Track: c.Track})
		var err error
		stream, format, err = e.source.Open(context.Background(), c.Track)
		if err != nil {
			e.emit(ErrorEvent{Err: err})
			return
		}
	}

	if c.Position > 0 {
		if err := stream.Seek(format.SampleRate.N(c.Position)); err != nil {
			e.logger.Warn("positioned load could not seek", "err", err)
		}
	}

	track := c.Track
	e.current = &track
	e.stream = stream
	e.format = format
	e.preloadAnnounce = false

	resampled := beep.Resample(4, format.SampleRate, e.sampleRate, stream)
	e.ctrl = &beep.Ctrl{Streamer: resampled, Paused: !c.StartPlaying}
	e.volume = &effects.Volume{
		Streamer: e.ctrl,
		Base:     2,
		Volume:   volumeLevel(e.volumePct),
		Silent:   e.volumePct == 0,
	}

	done := e.trackDone
	e.backend.Play(beep.Seq(e.volume, beep.Callback(func() {
		select {
		case done <- struct{}{}:
		default:
		}
	})))

	pos, dur := e.position()
	if c.StartPlaying {
		e.emit(PlayingEvent{Track: track, Position: pos, Duration: dur})
	} else {
		e.emit(PausedEvent{Track: track, Position: pos})
	}
}

func (e *Engine) setPaused(paused bool) {
	if e.ctrl == nil || e.current == nil {
		return
	}

	e.backend.Lock()
	e.ctrl.Paused = paused
	e.backend.Unlock()

	pos, dur := e.position()
	if paused {
		e.emit(PausedEvent{Track: *e.current, Position: pos})
	} else {
		e.emit(PlayingEvent{Track: *e.current, Position: pos, Duration: dur})
	}
}

func (e *Engine) handleSeek(pos time.Duration) {
	if e.stream == nil {
		return
	}

	e.backend.Lock()
	err := e.stream.Seek(e.format.SampleRate.N(pos))
	e.backend.Unlock()

	if err != nil {
		e.emit(ErrorEvent{Err: fmt.Errorf("seek failed: %w", err)})
		return
	}

	p, dur := e.position()
	e.emit(PositionEvent{Position: p, Duration: dur})
}

func (e *Engine) handleVolume(pct int) {
	e.volumePct = clampPct(pct)

	if e.volume != nil {
		e.backend.Lock()
		e.volume.Volume = volumeLevel(e.volumePct)
		e.volume.Silent = e.volumePct == 0
		e.backend.Unlock()
	}

	e.emit(VolumeChangedEvent{Pct: e.volumePct})
}

func (e *Engine) handlePreload(track models.Track) {
	if e.preloaded != nil && e.preloaded.track.ID == track.ID {
		return
	}

	stream, format, err := e.source.Open(context.Background(), track)
	if err != nil {
		e.logger.Warn("preload failed", "track", track.ID, "err", err)
		return
	}

	if e.preloaded != nil {
		e.preloaded.stream.Close()
	}
	e.preloaded = &preloadedTrack{track: track, stream: stream, format: format}
}

func (e *Engine) handleTrackDone() {
	if e.current == nil {
		return
	}
	ended := *e.current
	e.clearSession()
	e.emit(TrackEndedEvent{Track: ended})
}

// tick emits the periodic position report and the one-shot preload hint.
func (e *Engine) tick() {
	if e.current == nil || e.ctrl == nil {
		return
	}

	e.backend.Lock()
	paused := e.ctrl.Paused
	e.backend.Unlock()
	if paused {
		return
	}

	pos, dur := e.position()
	e.emit(PositionEvent{Position: pos, Duration: dur})

	if !e.preloadAnnounce && dur > preloadLead && dur-pos <= preloadLead {
		e.preloadAnnounce = true
		e.emit(PreloadNextEvent{})
	}
}

// position reads the stream cursor under the backend lock.
func (e *Engine) position() (pos, dur time.Duration) {
	if e.stream == nil {
		return 0, 0
	}
	e.backend.Lock()
	pos = e.format.SampleRate.D(e.stream.Position())
	dur = e.format.SampleRate.D(e.stream.Len())
	e.backend.Unlock()
	return pos, dur
}

// clearSession stops output and releases the loaded stream.
func (e *Engine) clearSession() {
	e.backend.Clear()

	// The ended session's callback may have fired while the worker was busy;
	// the buffered signal must not be attributed to the next load. Clear has
	// detached the old streamer, so nothing can re-buffer after the drain.
	select {
	case <-e.trackDone:
	default:
	}

	if e.stream != nil {
		e.stream.Close()
	}
	e.current = nil
	e.stream = nil
	e.ctrl = nil
	e.volume = nil
}

func (e *Engine) shutdown() {
	e.stopped.Store(true)
	e.clearSession()
	if e.preloaded != nil {
		e.preloaded.stream.Close()
		e.preloaded = nil
	}
	e.emit(ShutdownEvent{})
	close(e.events)
}

// emit delivers an event without ever blocking the worker.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("event dropped, consumer lagging", "event", fmt.Sprintf("%T", ev))
	}
}

func clampPct(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// volumeLevel maps a percentage onto the effects.Volume exponent: 100% is
// unity gain, each 20 points below that halves the level.
func volumeLevel(pct int) float64 {
	return float64(pct-100) / 20.0
}
