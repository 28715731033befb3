package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/engine"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/services"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/desertthunder/strum/internal/state"
	"golang.org/x/oauth2"
)

// State is the worker's lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateProcessing
	StateDraining
	StateStopped
)

// String renders the state for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateDraining:
		return "draining"
	default:
		return "stopped"
	}
}

// Sessions is the credential surface the worker needs: acquire for first use,
// refresh on a 401, invalidate on logout.
type Sessions interface {
	Acquire(ctx context.Context) (*oauth2.Token, error)
	Refresh(ctx context.Context) (*oauth2.Token, error)
	Invalidate()
}

// LocalEngine is the audio engine surface the worker drives.
type LocalEngine interface {
	Send(cmd engine.Command) error
	Events() <-chan engine.Event
}

// PageCacher persists fetched library pages for warm starts.
type PageCacher interface {
	SavePage(page models.Page) error
}

// Config wires a Worker's collaborators.
type Config struct {
	Remote   services.Client
	Sessions Sessions
	Engine   LocalEngine // nil when local playback is unavailable
	Cache    PageCacher  // nil disables write-through
	Mutator  *state.Mutator
	Store    *state.Store
	Logger   *log.Logger

	// RetryBackoff is the first retry delay for idempotent reads; the second
	// retry doubles it. Defaults to 500ms.
	RetryBackoff time.Duration
}

// Worker is the dispatcher's sole consumer: it serializes intents into adapter
// calls and owns every write to the shared state.
type Worker struct {
	queue    *Queue
	remote   services.Client
	sessions Sessions
	engine   LocalEngine
	cache    PageCacher
	mutator  *state.Mutator
	store    *state.Store
	logger   *log.Logger
	backoff  time.Duration

	phase atomic.Int32
	done  chan struct{}
}

// NewWorker validates the config and builds a stopped worker; call [Worker.Run]
// to start it.
func NewWorker(cfg Config) (*Worker, error) {
	if cfg.Remote == nil {
		return nil, fmt.Errorf("%w: remote client is required", shared.ErrInvalidConfig)
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("%w: session manager is required", shared.ErrInvalidConfig)
	}
	if cfg.Mutator == nil || cfg.Store == nil {
		return nil, fmt.Errorf("%w: state store and mutator are required", shared.ErrInvalidConfig)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	return &Worker{
		queue:    NewQueue(),
		remote:   cfg.Remote,
		sessions: cfg.Sessions,
		engine:   cfg.Engine,
		cache:    cfg.Cache,
		mutator:  cfg.Mutator,
		store:    cfg.Store,
		logger:   shared.WithLogger(logger, "component", "dispatch"),
		backoff:  backoff,
		done:     make(chan struct{}),
	}, nil
}

// Enqueue submits an intent for processing.
func (w *Worker) Enqueue(in Intent) error {
	return w.queue.Enqueue(in)
}

// State reports the worker's current phase.
func (w *Worker) State() State {
	return State(w.phase.Load())
}

// Done is closed when Run has fully exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Stop rejects new intents and discards pending ones; the in-flight intent,
// if any, runs to completion before Run returns.
func (w *Worker) Stop() {
	w.queue.Close()
}

// Run consumes the queue until the context is cancelled or [Worker.Stop] is
// called. One intent at a time, start to finish: the serialization point for
// every state commit.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer w.phase.Store(int32(StateStopped))

	if w.engine != nil {
		go w.pumpEngineEvents(ctx)
	}

	for {
		w.phase.Store(int32(StateIdle))
		in, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.phase.Store(int32(StateDraining))
			w.queue.Close()
			if w.engine != nil {
				if serr := w.engine.Send(engine.ShutdownCommand{}); serr != nil {
					w.logger.Debug("engine already down at drain", "err", serr)
				}
			}
			w.logger.Info("dispatcher draining", "reason", err)
			return
		}

		w.phase.Store(int32(StateProcessing))
		// In-flight work finishes even while shutdown is pending; drain only
		// discards what was never started.
		w.process(context.WithoutCancel(ctx), in)
	}
}

// process routes and executes one intent, then records the outcome in the
// intent class's error slot.
func (w *Worker) process(ctx context.Context, in Intent) {
	class := in.Class()
	snap, _ := w.store.Snapshot()

	r, err := route(snap.Target, class)
	if err == nil {
		err = w.execute(ctx, in, r, snap)
	}

	if err != nil {
		if bestEffort(class) {
			w.logger.Debug("best-effort intent failed", "class", class, "err", err)
			return
		}
		w.logger.Warn("intent failed", "class", class, "route", r, "err", err)
		w.mutator.SetError(string(class), err.Error())
		return
	}
	w.mutator.ClearError(string(class))
}

func (w *Worker) execute(ctx context.Context, in Intent, r Route, snap state.App) error {
	switch in := in.(type) {
	case PlayIntent:
		return w.handlePlay(ctx, in, r, snap)
	case PauseIntent:
		return w.handlePause(ctx, r, snap)
	case ResumeIntent:
		return w.handleResume(ctx, r, snap)
	case SeekIntent:
		return w.handleSeek(ctx, in, r, snap)
	case SetVolumeIntent:
		return w.handleVolume(ctx, in, r, snap)
	case ToggleShuffleIntent:
		return w.handleShuffle(ctx, r, snap)
	case ToggleRepeatIntent:
		return w.handleRepeat(ctx, r, snap)
	case NextTrackIntent:
		return w.handleNext(ctx, r, snap)
	case PreviousTrackIntent:
		return w.handlePrevious(ctx, r, snap)
	case FetchDevicesIntent:
		return w.handleFetchDevices(ctx)
	case FetchLibraryIntent:
		return w.handleFetchLibrary(ctx, in)
	case SearchIntent:
		return w.handleSearch(ctx, in)
	case SwitchTargetIntent:
		return w.handleSwitchTarget(ctx, in, snap)
	case RefreshPlaybackIntent:
		return w.handleRefreshPlayback(ctx, r, snap)
	case AdvanceQueueIntent:
		return w.handleAdvanceQueue(in, snap)
	case PreloadNextIntent:
		return w.handlePreloadNext(snap)
	case SyncLocalIntent:
		return w.handleSyncLocal(in)
	default:
		return fmt.Errorf("%w: unknown intent %T", shared.ErrRoutingInvalid, in)
	}
}

// call runs one adapter operation under the retry policy for its class.
//
// A 401 gets one coalesced refresh (interactive re-authorization when the
// refresh token itself is rejected) and a single replay. Transient and
// rate-limit failures retry only for idempotent classes, with doubling backoff.
func (w *Worker) call(ctx context.Context, class Class, fn func(context.Context) error) error {
	attempts := 1
	if idempotent(class) {
		attempts = 3
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := w.backoff << (i - 1)
			w.logger.Debug("retrying read", "class", class, "attempt", i+1, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}

		if errors.Is(err, shared.ErrAuthExpired) {
			if rerr := w.reauthorize(ctx); rerr != nil {
				return rerr
			}
			if err = fn(ctx); err == nil {
				return nil
			}
		}

		if !errors.Is(err, shared.ErrNetworkTransient) && !errors.Is(err, shared.ErrRateLimited) {
			return err
		}
	}
	return err
}

// reauthorize recovers from a rejected access token: refresh first, and fall
// back to the interactive flow only when the refresh token is dead too.
func (w *Worker) reauthorize(ctx context.Context) error {
	if _, err := w.sessions.Refresh(ctx); err == nil {
		return nil
	} else if !errors.Is(err, shared.ErrAuthExpired) {
		return err
	}

	w.logger.Info("refresh token rejected, starting interactive authorization")
	_, err := w.sessions.Acquire(ctx)
	return err
}

func (w *Worker) handlePlay(ctx context.Context, in PlayIntent, r Route, snap state.App) error {
	if r == RouteLocal {
		err := w.engine.Send(engine.LoadCommand{Track: in.Track, Position: in.Position, StartPlaying: true})
		if err != nil {
			return w.fallbackToRemote(ctx, in, snap, err)
		}
	} else {
		req := services.PlayRequest{
			DeviceID:   snap.Target.DeviceID,
			TrackURIs:  []string{in.Track.URI},
			ContextURI: in.ContextURI,
			Position:   in.Position,
		}
		if err := w.call(ctx, ClassPlay, func(ctx context.Context) error {
			return w.remote.Play(ctx, req)
		}); err != nil {
			return err
		}
	}

	w.commitPlay(in, snap)
	return nil
}

// commitPlay installs the new now-playing track and, when the intent carries
// one, the surrounding play queue, in a single commit.
func (w *Worker) commitPlay(in PlayIntent, snap state.App) {
	w.mutator.ApplyStamped(func(app *state.App, rev uint64) {
		track := in.Track
		pb := app.Playback
		pb.Track = &track
		pb.Position = in.Position
		pb.Playing = true
		pb.DeviceID = snap.Target.DeviceID
		pb.FetchedAt = time.Now()
		pb.Revision = rev
		app.Playback = pb

		if in.Queue != nil {
			cursor := 0
			for i, t := range in.Queue {
				if t.ID == in.Track.ID {
					cursor = i
					break
				}
			}
			app.Queue = models.Queue{Tracks: in.Queue, Cursor: cursor}
		}
	})
}

// fallbackToRemote retries a failed local play against the remote adapter when
// a usable device is known, flipping the target back as it goes.
func (w *Worker) fallbackToRemote(ctx context.Context, in PlayIntent, snap state.App, cause error) error {
	device := activeDevice(snap.Devices)
	if device == "" && len(snap.Devices) > 0 {
		device = snap.Devices[0].ID
	}
	if device == "" {
		return fmt.Errorf("%w: no remote device to fall back to: %v", shared.ErrEngineUnavailable, cause)
	}

	w.logger.Warn("local engine unavailable, falling back to remote", "device", device, "err", cause)
	req := services.PlayRequest{
		DeviceID:  device,
		TrackURIs: []string{in.Track.URI},
		Position:  in.Position,
	}
	if err := w.call(ctx, ClassPlay, func(ctx context.Context) error {
		return w.remote.Play(ctx, req)
	}); err != nil {
		return err
	}

	w.mutator.Apply(func(app *state.App) {
		app.Target = models.Target{Kind: models.TargetRemote, DeviceID: device}
	})
	return nil
}

func (w *Worker) handlePause(ctx context.Context, r Route, snap state.App) error {
	if r == RouteLocal {
		if err := w.engine.Send(engine.PauseCommand{}); err != nil {
			return err
		}
	} else {
		if err := w.call(ctx, ClassPause, func(ctx context.Context) error {
			return w.remote.Pause(ctx, snap.Target.DeviceID)
		}); err != nil {
			return err
		}
	}

	pb := snap.Playback
	pb.Playing = false
	w.mutator.CommitPlayback(pb)
	return nil
}

func (w *Worker) handleResume(ctx context.Context, r Route, snap state.App) error {
	if r == RouteLocal {
		if err := w.engine.Send(engine.PlayCommand{}); err != nil {
			return err
		}
	} else {
		req := services.PlayRequest{DeviceID: snap.Target.DeviceID}
		if err := w.call(ctx, ClassResume, func(ctx context.Context) error {
			return w.remote.Play(ctx, req)
		}); err != nil {
			return err
		}
	}

	pb := snap.Playback
	pb.Playing = true
	w.mutator.CommitPlayback(pb)
	return nil
}

func (w *Worker) handleSeek(ctx context.Context, in SeekIntent, r Route, snap state.App) error {
	if r == RouteLocal {
		if err := w.engine.Send(engine.SeekCommand{Position: in.Position}); err != nil {
			return err
		}
	} else {
		if err := w.call(ctx, ClassSeek, func(ctx context.Context) error {
			return w.remote.SeekTo(ctx, snap.Target.DeviceID, in.Position)
		}); err != nil {
			return err
		}
	}

	pb := snap.Playback
	pb.Position = in.Position
	w.mutator.CommitPlayback(pb)
	return nil
}

func (w *Worker) handleVolume(ctx context.Context, in SetVolumeIntent, r Route, snap state.App) error {
	pct := in.Pct
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}

	if r == RouteLocal {
		if err := w.engine.Send(engine.SetVolumeCommand{Pct: pct}); err != nil {
			return err
		}
	} else {
		if err := w.call(ctx, ClassVolume, func(ctx context.Context) error {
			return w.remote.SetVolume(ctx, snap.Target.DeviceID, pct)
		}); err != nil {
			return err
		}
	}

	pb := snap.Playback
	pb.VolumePct = pct
	w.mutator.CommitPlayback(pb)
	return nil
}

func (w *Worker) handleShuffle(ctx context.Context, r Route, snap state.App) error {
	next := !snap.Playback.Shuffle
	if r == RouteRemote {
		if err := w.call(ctx, ClassShuffle, func(ctx context.Context) error {
			return w.remote.SetShuffle(ctx, snap.Target.DeviceID, next)
		}); err != nil {
			return err
		}
	}

	pb := snap.Playback
	pb.Shuffle = next
	w.mutator.CommitPlayback(pb)
	return nil
}

func (w *Worker) handleRepeat(ctx context.Context, r Route, snap state.App) error {
	next := snap.Playback.Repeat.Next()
	if r == RouteRemote {
		if err := w.call(ctx, ClassRepeat, func(ctx context.Context) error {
			return w.remote.SetRepeat(ctx, snap.Target.DeviceID, next)
		}); err != nil {
			return err
		}
	}

	pb := snap.Playback
	pb.Repeat = next
	w.mutator.CommitPlayback(pb)
	return nil
}

func (w *Worker) handleNext(ctx context.Context, r Route, snap state.App) error {
	if r == RouteLocal {
		return w.advanceLocal(snap, 1)
	}

	if err := w.call(ctx, ClassNext, func(ctx context.Context) error {
		return w.remote.NextTrack(ctx, snap.Target.DeviceID)
	}); err != nil {
		return err
	}
	// The provider picks the next track; the poll brings the new state in.
	return w.queue.Enqueue(RefreshPlaybackIntent{})
}

func (w *Worker) handlePrevious(ctx context.Context, r Route, snap state.App) error {
	if r == RouteLocal {
		return w.advanceLocal(snap, -1)
	}

	if err := w.call(ctx, ClassPrevious, func(ctx context.Context) error {
		return w.remote.PreviousTrack(ctx, snap.Target.DeviceID)
	}); err != nil {
		return err
	}
	return w.queue.Enqueue(RefreshPlaybackIntent{})
}

// advanceLocal moves the queue cursor and loads the track under it, honoring
// repeat-track and shuffle at the moment of advance.
func (w *Worker) advanceLocal(snap state.App, step int) error {
	q := snap.Queue
	cursor := q.Cursor + step

	if snap.Playback.Repeat == models.RepeatTrack && step > 0 {
		cursor = q.Cursor
	} else if snap.Playback.Shuffle && step > 0 && len(q.Tracks) > 1 {
		cursor = shuffledNext(q.Cursor, len(q.Tracks))
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(q.Tracks) {
		if snap.Playback.Repeat == models.RepeatContext && len(q.Tracks) > 0 {
			cursor = 0
		} else {
			// Queue exhausted: stop cleanly.
			pb := snap.Playback
			pb.Playing = false
			w.mutator.CommitPlayback(pb)
			return nil
		}
	}

	track := q.Tracks[cursor]
	if err := w.engine.Send(engine.LoadCommand{Track: track, StartPlaying: true}); err != nil {
		return err
	}

	w.mutator.ApplyStamped(func(app *state.App, rev uint64) {
		app.Queue.Cursor = cursor
		t := track
		app.Playback.Track = &t
		app.Playback.Position = 0
		app.Playback.Playing = true
		app.Playback.FetchedAt = time.Now()
		app.Playback.Revision = rev
	})
	return nil
}

// shuffledNext picks a random index other than the current one, so a shuffled
// advance never replays the same track back to back.
func shuffledNext(cursor, n int) int {
	next := rand.IntN(n - 1)
	if next >= cursor {
		next++
	}
	return next
}

func (w *Worker) handleFetchDevices(ctx context.Context) error {
	var devices []models.Device
	err := w.call(ctx, ClassFetchDevices, func(ctx context.Context) error {
		var err error
		devices, err = w.remote.Devices(ctx)
		return err
	})
	if err != nil {
		return err
	}

	w.mutator.Apply(func(app *state.App) {
		app.Devices = devices
	})
	return nil
}

func (w *Worker) handleFetchLibrary(ctx context.Context, in FetchLibraryIntent) error {
	var page *models.Page
	err := w.call(ctx, ClassFetchLibrary, func(ctx context.Context) error {
		var err error
		switch in.Source {
		case models.SourceSavedTracks:
			page, err = w.remote.SavedTracks(ctx, in.Limit, in.Offset)
		case models.SourcePlaylist:
			page, err = w.remote.PlaylistTracks(ctx, in.Key, in.Limit, in.Offset)
		case models.SourceRecent:
			var tracks []models.Track
			tracks, err = w.remote.RecentlyPlayed(ctx, in.Limit)
			if err == nil {
				page = &models.Page{
					Source:    models.SourceRecent,
					Limit:     in.Limit,
					Total:     len(tracks),
					Tracks:    tracks,
					FetchedAt: time.Now(),
				}
			}
		default:
			return fmt.Errorf("%w: unknown library source %q", shared.ErrRoutingInvalid, in.Source)
		}
		return err
	})
	if err != nil {
		return err
	}

	w.commitPage(*page)
	return nil
}

func (w *Worker) handleSearch(ctx context.Context, in SearchIntent) error {
	var page *models.Page
	err := w.call(ctx, ClassSearch, func(ctx context.Context) error {
		var err error
		page, err = w.remote.Search(ctx, in.Query, in.Limit, in.Offset)
		return err
	})
	if err != nil {
		return err
	}

	w.commitPage(*page)
	return nil
}

// commitPage stores a fetched page and writes it through to the sqlite cache.
// Cache I/O happens before the commit so nothing blocks inside the lock.
func (w *Worker) commitPage(page models.Page) {
	if w.cache != nil {
		if err := w.cache.SavePage(page); err != nil {
			w.logger.Warn("page cache write failed", "source", page.Source, "err", err)
		}
	}

	w.mutator.Apply(func(app *state.App) {
		app.Library[page.PageID()] = page
	})
}

// handleSwitchTarget pauses the old target, moves the session (carrying
// position for local loads), and flips the state's target last so routing of
// queued intents stays consistent until the switch commits.
func (w *Worker) handleSwitchTarget(ctx context.Context, in SwitchTargetIntent, snap state.App) error {
	old := snap.Target
	next := in.Target
	if next == old {
		return nil
	}

	if next.Kind == models.TargetLocal && w.engine == nil {
		return fmt.Errorf("%w: no local audio backend", shared.ErrEngineUnavailable)
	}

	switch old.Kind {
	case models.TargetRemote:
		err := w.remote.Pause(ctx, old.DeviceID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrNoActiveDevice) {
			w.logger.Warn("pause on old target failed", "target", old, "err", err)
		}
	case models.TargetLocal:
		if w.engine != nil {
			if err := w.engine.Send(engine.PauseCommand{}); err != nil {
				w.logger.Warn("pause on local engine failed", "err", err)
			}
		}
	}

	resume := snap.Playback.Playing
	switch next.Kind {
	case models.TargetLocal:
		if track := snap.Playback.Track; track != nil {
			err := w.engine.Send(engine.LoadCommand{
				Track:        *track,
				Position:     snap.Playback.Position,
				StartPlaying: resume,
			})
			if err != nil {
				return err
			}
		}
	case models.TargetRemote:
		if err := w.call(ctx, ClassSwitchTarget, func(ctx context.Context) error {
			return w.remote.TransferPlayback(ctx, next.DeviceID, resume)
		}); err != nil {
			return err
		}
	}

	w.mutator.Apply(func(app *state.App) {
		app.Target = next
		app.Playback.DeviceID = next.DeviceID
	})
	return nil
}

// handleRefreshPlayback polls the remote now-playing state. The revision
// recorded before the network call guards the commit: if any other intent
// committed playback meanwhile, the poll result is stale and dropped.
func (w *Worker) handleRefreshPlayback(ctx context.Context, r Route, snap state.App) error {
	if r == RoutePure {
		return nil
	}

	startRev := snap.Playback.Revision
	var got *models.PlaybackSnapshot
	err := w.call(ctx, ClassRefreshPlayback, func(ctx context.Context) error {
		var err error
		got, err = w.remote.CurrentPlayback(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if got == nil {
		// Nothing playing anywhere.
		return nil
	}

	w.mutator.Apply(func(app *state.App) {
		if app.Playback.Revision != startRev {
			w.logger.Debug("stale poll dropped", "poll_base", startRev, "current", app.Playback.Revision)
			return
		}
		fresh := *got
		fresh.FetchedAt = time.Now()
		fresh.Revision = startRev
		app.Playback = fresh
	})
	return nil
}

func (w *Worker) handleAdvanceQueue(in AdvanceQueueIntent, snap state.App) error {
	current := snap.Queue.Current()
	if current != nil && current.ID != in.Ended.ID {
		// A newer load already superseded the ended track.
		w.logger.Debug("ignoring track-end for superseded track", "ended", in.Ended.ID)
		return nil
	}
	return w.advanceLocal(snap, 1)
}

func (w *Worker) handlePreloadNext(snap state.App) error {
	next := snap.Queue.Peek()
	if snap.Playback.Repeat == models.RepeatTrack {
		next = snap.Queue.Current()
	}
	if next == nil {
		return nil
	}
	return w.engine.Send(engine.PreloadCommand{Track: *next})
}

// handleSyncLocal mirrors an engine progress report into shared state.
func (w *Worker) handleSyncLocal(in SyncLocalIntent) error {
	w.mutator.Apply(func(app *state.App) {
		if app.Target.Kind != models.TargetLocal {
			return
		}
		if in.Track != nil {
			t := *in.Track
			app.Playback.Track = &t
		}
		app.Playback.Position = in.Position
		app.Playback.Playing = in.Playing
		app.Playback.FetchedAt = time.Now()
	})
	return nil
}

// pumpEngineEvents translates unsolicited engine events into synthetic intents
// on the shared queue, preserving the single-writer and ordering guarantees.
func (w *Worker) pumpEngineEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.engine.Events():
			if !ok {
				return
			}
			w.translateEngineEvent(ev)
		}
	}
}

func (w *Worker) translateEngineEvent(ev engine.Event) {
	var in Intent
	switch ev := ev.(type) {
	case engine.TrackEndedEvent:
		in = AdvanceQueueIntent{Ended: ev.Track}
	case engine.PreloadNextEvent:
		in = PreloadNextIntent{}
	case engine.PlayingEvent:
		track := ev.Track
		in = SyncLocalIntent{Track: &track, Position: ev.Position, Duration: ev.Duration, Playing: true}
	case engine.PausedEvent:
		track := ev.Track
		in = SyncLocalIntent{Track: &track, Position: ev.Position, Playing: false}
	case engine.PositionEvent:
		in = SyncLocalIntent{Position: ev.Position, Duration: ev.Duration, Playing: true}
	case engine.ErrorEvent:
		w.mutator.SetError("engine", ev.Err.Error())
		return
	default:
		return
	}

	if err := w.queue.Enqueue(in); err != nil {
		w.logger.Debug("engine event dropped, dispatcher stopped", "event", fmt.Sprintf("%T", ev))
	}
}

// activeDevice returns the ID of the provider's active device, if any.
func activeDevice(devices []models.Device) string {
	for _, d := range devices {
		if d.Active {
			return d.ID
		}
	}
	return ""
}
