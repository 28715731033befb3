package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/gopxl/beep"
)

type fakeStream struct {
	mu     sync.Mutex
	length int
	pos    int
	closed bool
}

func (f *fakeStream) Stream(samples [][2]float64) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos >= f.length {
		return 0, false
	}
	n := len(samples)
	if remaining := f.length - f.pos; n > remaining {
		n = remaining
	}
	f.pos += n
	return n, true
}

func (f *fakeStream) Err() error { return nil }

func (f *fakeStream) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.length
}

func (f *fakeStream) Position() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *fakeStream) Seek(p int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = p
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeBackend struct {
	mu        sync.Mutex
	initErr   error
	inited    bool
	playCalls int
	cleared   int
	playing   beep.Streamer
}

func (b *fakeBackend) Init(sr beep.SampleRate, bufferSize int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initErr != nil {
		return b.initErr
	}
	b.inited = true
	return nil
}

func (b *fakeBackend) Play(s ...beep.Streamer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playCalls++
	if len(s) > 0 {
		b.playing = s[0]
	}
}

func (b *fakeBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleared++
	b.playing = nil
}

func (b *fakeBackend) Lock()   { b.mu.Lock() }
func (b *fakeBackend) Unlock() { b.mu.Unlock() }

func (b *fakeBackend) current() beep.Streamer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// drain pulls the playing streamer dry, firing the end-of-track callback the
// way a sound card would.
func (b *fakeBackend) drain() {
	s := b.current()
	if s == nil {
		return
	}
	buf := make([][2]float64, 512)
	for {
		if n, ok := s.Stream(buf); !ok || n == 0 {
			return
		}
	}
}

type fakeSource struct {
	mu      sync.Mutex
	opens   int
	openErr error
	length  int
	streams []*fakeStream
}

func (f *fakeSource) Open(ctx context.Context, track models.Track) (beep.StreamSeekCloser, beep.Format, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return nil, beep.Format{}, f.openErr
	}
	length := f.length
	if length == 0 {
		length = 44100 // one second
	}
	stream := &fakeStream{length: length}
	f.streams = append(f.streams, stream)
	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	return stream, format, nil
}

func (f *fakeSource) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// gatedSource blocks each Open until released, letting a test hold the worker
// inside a command while the playing track drains.
type gatedSource struct {
	fakeSource
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedSource) Open(ctx context.Context, track models.Track) (beep.StreamSeekCloser, beep.Format, error) {
	g.entered <- struct{}{}
	<-g.gate
	return g.fakeSource.Open(ctx, track)
}

func newTestEngine(t *testing.T, source Source) (*Engine, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	e, err := New(source, nil, WithBackend(backend))
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	t.Cleanup(func() { e.Send(ShutdownCommand{}) })
	return e, backend
}

// awaitEvent reads events until one matches, failing the test on timeout.
func awaitEvent(t *testing.T, e *Engine, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-e.Events():
			if !ok {
				t.Fatal("event stream closed while waiting")
			}
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

var sampleTrack = models.Track{ID: "t1", Title: "Song", Artist: "Artist", Duration: time.Second}

func TestNew(t *testing.T) {
	t.Run("backend init failure reports engine unavailable", func(t *testing.T) {
		backend := &fakeBackend{initErr: errors.New("no audio device")}
		_, err := New(&fakeSource{}, nil, WithBackend(backend))
		if !errors.Is(err, shared.ErrEngineUnavailable) {
			t.Errorf("expected ErrEngineUnavailable, got %v", err)
		}
	})
}

func TestEngineLoad(t *testing.T) {
	t.Run("load starts playback and emits playing", func(t *testing.T) {
		source := &fakeSource{}
		e, backend := newTestEngine(t, source)

		e.Send(LoadCommand{Track: sampleTrack, StartPlaying: true})

		ev := awaitEvent(t, e, func(ev Event) bool {
			_, ok := ev.(PlayingEvent)
			return ok
		})
		playing := ev.(PlayingEvent)
		if playing.Track.ID != sampleTrack.ID {
			t.Errorf("playing wrong track: %s", playing.Track.ID)
		}

		backend.mu.Lock()
		calls := backend.playCalls
		backend.mu.Unlock()
		if calls != 1 {
			t.Errorf("expected 1 backend play, got %d", calls)
		}
	})

	t.Run("load without autoplay emits paused", func(t *testing.T) {
		e, _ := newTestEngine(t, &fakeSource{})

		e.Send(LoadCommand{Track: sampleTrack, StartPlaying: false})

		awaitEvent(t, e, func(ev Event) bool {
			paused, ok := ev.(PausedEvent)
			return ok && paused.Track.ID == sampleTrack.ID
		})
	})

	t.Run("positioned load seeks before playing", func(t *testing.T) {
		source := &fakeSource{length: 44100 * 10}
		e, _ := newTestEngine(t, source)

		e.Send(LoadCommand{Track: sampleTrack, Position: 2 * time.Second, StartPlaying: true})

		ev := awaitEvent(t, e, func(ev Event) bool {
			_, ok := ev.(PlayingEvent)
			return ok
		})
		if pos := ev.(PlayingEvent).Position; pos != 2*time.Second {
			t.Errorf("expected position 2s, got %s", pos)
		}
	})

	t.Run("unplayable track emits an error event", func(t *testing.T) {
		source := &fakeSource{openErr: fmt.Errorf("%w: no preview audio", shared.ErrNotFound)}
		e, _ := newTestEngine(t, source)

		e.Send(LoadCommand{Track: sampleTrack, StartPlaying: true})

		ev := awaitEvent(t, e, func(ev Event) bool {
			_, ok := ev.(ErrorEvent)
			return ok
		})
		if !errors.Is(ev.(ErrorEvent).Err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", ev.(ErrorEvent).Err)
		}
	})
}

func TestEngineControls(t *testing.T) {
	t.Run("pause and resume emit state changes", func(t *testing.T) {
		e, _ := newTestEngine(t, &fakeSource{})

		e.Send(LoadCommand{Track: sampleTrack, StartPlaying: true})
		awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(PlayingEvent); return ok })

		e.Send(PauseCommand{})
		awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(PausedEvent); return ok })

		e.Send(PlayCommand{})
		awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(PlayingEvent); return ok })
	})

	t.Run("seek repositions the stream", func(t *testing.T) {
		source := &fakeSource{length: 44100 * 10}
		e, _ := newTestEngine(t, source)

		e.Send(LoadCommand{Track: sampleTrack, StartPlaying: true})
		awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(PlayingEvent); return ok })

		e.Send(SeekCommand{Position: 5 * time.Second})
		ev := awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(PositionEvent); return ok })
		if pos := ev.(PositionEvent).Position; pos != 5*time.Second {
			t.Errorf("expected 5s, got %s", pos)
		}
	})

	t.Run("volume clamps and announces", func(t *testing.T) {
		e, _ := newTestEngine(t, &fakeSource{})

		e.Send(SetVolumeCommand{Pct: 150})
		ev := awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(VolumeChangedEvent); return ok })
		if pct := ev.(VolumeChangedEvent).Pct; pct != 100 {
			t.Errorf("expected clamp to 100, got %d", pct)
		}
	})
}

func TestEngineTrackEnd(t *testing.T) {
	t.Run("drained track emits track ended", func(t *testing.T) {
		source := &fakeSource{length: 2048}
		e, backend := newTestEngine(t, source)

		e.Send(LoadCommand{Track: sampleTrack, StartPlaying: true})
		awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(PlayingEvent); return ok })

		backend.drain()

		ev := awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(TrackEndedEvent); return ok })
		if ev.(TrackEndedEvent).Track.ID != sampleTrack.ID {
			t.Errorf("wrong ended track: %s", ev.(TrackEndedEvent).Track.ID)
		}
	})

	t.Run("end signal from the previous track never ends a fresh load", func(t *testing.T) {
		// A track can drain while the worker is busy with another command,
		// leaving its end signal buffered until after the next load. That
		// signal belongs to the old track and must not end the new one.
		next := models.Track{ID: "t2", Title: "Next"}
		warm := models.Track{ID: "t3", Title: "Warm"}

		for i := 0; i < 4; i++ {
			source := &gatedSource{
				fakeSource: fakeSource{length: 2048},
				entered:    make(chan struct{}),
				gate:       make(chan struct{}),
			}
			e, backend := newTestEngine(t, source)

			e.Send(LoadCommand{Track: sampleTrack, StartPlaying: true})
			<-source.entered
			source.gate <- struct{}{}
			awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(PlayingEvent); return ok })

			// Hold the worker inside a preload open while the first track
			// drains, then queue the next load before releasing it.
			e.Send(PreloadCommand{Track: warm})
			<-source.entered
			backend.drain()
			e.Send(LoadCommand{Track: next, StartPlaying: true})
			source.gate <- struct{}{}

			<-source.entered
			source.gate <- struct{}{}

			awaitEvent(t, e, func(ev Event) bool {
				playing, ok := ev.(PlayingEvent)
				return ok && playing.Track.ID == next.ID
			})

			quiet := time.After(150 * time.Millisecond)
		scan:
			for {
				select {
				case ev := <-e.Events():
					if ended, ok := ev.(TrackEndedEvent); ok && ended.Track.ID == next.ID {
						t.Fatalf("iteration %d: freshly loaded track reported as ended", i)
					}
				case <-quiet:
					break scan
				}
			}
		}
	})
}

func TestEnginePreload(t *testing.T) {
	t.Run("preloaded track is reused without a second open", func(t *testing.T) {
		source := &fakeSource{}
		e, _ := newTestEngine(t, source)

		next := models.Track{ID: "t2", Title: "Next"}
		e.Send(PreloadCommand{Track: next})
		e.Send(LoadCommand{Track: next, StartPlaying: true})

		awaitEvent(t, e, func(ev Event) bool {
			playing, ok := ev.(PlayingEvent)
			return ok && playing.Track.ID == next.ID
		})

		if n := source.openCount(); n != 1 {
			t.Errorf("expected 1 source open, got %d", n)
		}
	})

	t.Run("nearing the end announces the preload hint", func(t *testing.T) {
		source := &fakeSource{length: 44100 * 11}
		e, _ := newTestEngine(t, source)

		e.Send(LoadCommand{Track: sampleTrack, StartPlaying: true})
		awaitEvent(t, e, func(ev Event) bool { _, ok := ev.(PlayingEvent); return ok })

		e.Send(SeekCommand{Position: 10500 * time.Millisecond})

		awaitEvent(t, e, func(ev Event) bool {
			_, ok := ev.(PreloadNextEvent)
			return ok
		})
	})
}

func TestEngineShutdown(t *testing.T) {
	t.Run("shutdown announces, closes the stream, and rejects sends", func(t *testing.T) {
		backend := &fakeBackend{}
		e, err := New(&fakeSource{}, nil, WithBackend(backend))
		if err != nil {
			t.Fatal(err)
		}

		e.Send(ShutdownCommand{})

		sawShutdown := false
		for ev := range e.Events() {
			if _, ok := ev.(ShutdownEvent); ok {
				sawShutdown = true
			}
		}
		if !sawShutdown {
			t.Error("shutdown event never emitted")
		}

		if err := e.Send(PauseCommand{}); !errors.Is(err, shared.ErrEngineUnavailable) {
			t.Errorf("expected ErrEngineUnavailable after shutdown, got %v", err)
		}
	})
}
