// Package state holds the shared application state read by the renderer and
// written by the dispatcher.
//
// The [Store] enforces the single-writer discipline: exactly one [Mutator]
// handle is ever handed out, and every commit is applied inside one short
// critical section. Readers take value snapshots and never block on I/O.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/strum/internal/models"
)

// App is the aggregate application state.
//
// Maps and slices inside App are owned by the store; [Store.Snapshot] deep-copies
// them so a frame can never observe a half-applied commit.
type App struct {
	Playback models.PlaybackSnapshot
	Devices  []models.Device
	Library  map[models.PageID]models.Page
	Queue    models.Queue
	Target   models.Target

	// Errors maps an intent class name to its last user-visible failure.
	// A successful intent of the same class clears its slot.
	Errors map[string]string
}

// Store owns the application state and its revision counter.
type Store struct {
	mu       sync.RWMutex
	app      App
	revision uint64

	mutatorOnce sync.Once
	mutatorOut  bool
}

// NewStore creates a Store with empty state and an initial target.
func NewStore(target models.Target) *Store {
	return &Store{
		app: App{
			Library: make(map[models.PageID]models.Page),
			Errors:  make(map[string]string),
			Target:  target,
			Playback: models.PlaybackSnapshot{
				Repeat: models.RepeatOff,
			},
		},
	}
}

// Snapshot returns a deep copy of the current state plus its revision.
//
// Safe to call from any goroutine; the copy is made under a read lock and the
// caller may hold it across frames without further synchronization.
func (s *Store) Snapshot() (App, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyApp(s.app), s.revision
}

// Revision returns the current revision without copying state.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Mutator returns the store's sole mutation handle.
//
// The second and later calls fail: there is exactly one writer (the dispatcher).
func (s *Store) Mutator() (*Mutator, error) {
	var m *Mutator
	s.mutatorOnce.Do(func() {
		s.mutatorOut = true
		m = &Mutator{store: s}
	})
	if m == nil {
		return nil, fmt.Errorf("state mutator already claimed")
	}
	return m, nil
}

// Mutator is the exclusive write handle to a Store.
type Mutator struct {
	store *Store
}

// Apply runs fn against the state inside the store's critical section and
// returns the new revision. fn must not block on I/O.
func (m *Mutator) Apply(fn func(app *App)) uint64 {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.app)
	s.revision++
	return s.revision
}

// ApplyStamped is [Mutator.Apply] with the revision this commit will take
// passed to fn, for commits that record it inside the state they write.
func (m *Mutator) ApplyStamped(fn func(app *App, rev uint64)) uint64 {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.app, s.revision+1)
	s.revision++
	return s.revision
}

// CommitPlayback replaces the playback sub-state wholesale, stamping it with
// the new revision and commit time.
func (m *Mutator) CommitPlayback(snap models.PlaybackSnapshot) uint64 {
	return m.Apply(func(app *App) {
		snap.FetchedAt = time.Now()
		app.Playback = snap
		app.Playback.Revision = m.store.revision + 1
	})
}

// SetError records a user-visible failure for the given intent class.
func (m *Mutator) SetError(class, msg string) uint64 {
	return m.Apply(func(app *App) {
		app.Errors[class] = msg
	})
}

// ClearError drops the failure slot for the given intent class, if any.
func (m *Mutator) ClearError(class string) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.app.Errors, class)
}

// copyApp deep-copies the aggregate so snapshots never alias store memory.
func copyApp(app App) App {
	out := app

	if app.Playback.Track != nil {
		track := *app.Playback.Track
		out.Playback.Track = &track
	}

	out.Devices = make([]models.Device, len(app.Devices))
	copy(out.Devices, app.Devices)

	out.Library = make(map[models.PageID]models.Page, len(app.Library))
	for id, page := range app.Library {
		p := page
		p.Tracks = make([]models.Track, len(page.Tracks))
		copy(p.Tracks, page.Tracks)
		out.Library[id] = p
	}

	out.Queue.Tracks = make([]models.Track, len(app.Queue.Tracks))
	copy(out.Queue.Tracks, app.Queue.Tracks)

	out.Errors = make(map[string]string, len(app.Errors))
	for k, v := range app.Errors {
		out.Errors[k] = v
	}

	return out
}
