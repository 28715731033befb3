package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/strum/internal/dispatch"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/state"
)

// pollInterval drives both the render refresh and the remote playback poll.
const pollInterval = time.Second

// Dispatcher is the intent submission surface the TUI drives.
type Dispatcher interface {
	Enqueue(in dispatch.Intent) error
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	SearchView
	DevicesView
)

// tickMsg fires once per poll interval.
type tickMsg time.Time

// Model represents the TUI application state.
//
// All domain state lives in the store; the model holds only presentation
// state (lists, cursor positions, the search input) rebuilt from snapshots.
type Model struct {
	ctx        context.Context
	dispatcher Dispatcher
	store      *state.Store
	localOK    bool

	view    ViewState
	width   int
	height  int
	lastRev uint64
	query   string

	libraryList list.Model
	resultsList list.Model
	deviceList  list.Model
	searchInput textinput.Model
	typing      bool

	help help.Model
	keys keyMap
}

// NewModel creates a TUI model over the dispatcher and state store.
// localOK marks whether the local audio engine is available as a target.
func NewModel(ctx context.Context, dispatcher Dispatcher, store *state.Store, localOK bool) *Model {
	input := textinput.New()
	input.Placeholder = "search tracks"
	input.CharLimit = 120

	newList := func(title string) list.Model {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.Title = title
		l.SetShowHelp(false)
		return l
	}

	return &Model{
		ctx:         ctx,
		dispatcher:  dispatcher,
		store:       store,
		localOK:     localOK,
		view:        LibraryView,
		libraryList: newList("Saved Tracks"),
		resultsList: newList("Search Results"),
		deviceList:  newList("Playback Targets"),
		searchInput: input,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init kicks off the initial library and device fetches plus the poll tick.
func (m *Model) Init() tea.Cmd {
	m.dispatcher.Enqueue(dispatch.FetchLibraryIntent{Source: models.SourceSavedTracks, Limit: 50})
	m.dispatcher.Enqueue(dispatch.FetchDevicesIntent{})
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := msg.Height - 8
		m.libraryList.SetSize(msg.Width-4, listHeight)
		m.resultsList.SetSize(msg.Width-4, listHeight)
		m.deviceList.SetSize(msg.Width-4, listHeight)
		return m, nil

	case tickMsg:
		m.dispatcher.Enqueue(dispatch.RefreshPlaybackIntent{})
		m.sync()
		return m, m.tick()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.library):
		m.view = LibraryView
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.typing = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.devices):
		m.view = DevicesView
		m.sync()
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		m.togglePlayback()
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.dispatcher.Enqueue(dispatch.NextTrackIntent{})
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.dispatcher.Enqueue(dispatch.PreviousTrackIntent{})
		return m, nil
	case key.Matches(msg, m.keys.seekFwd):
		m.seekBy(10 * time.Second)
		return m, nil
	case key.Matches(msg, m.keys.seekBck):
		m.seekBy(-10 * time.Second)
		return m, nil
	case key.Matches(msg, m.keys.volUp):
		m.volumeBy(10)
		return m, nil
	case key.Matches(msg, m.keys.volDown):
		m.volumeBy(-10)
		return m, nil
	case key.Matches(msg, m.keys.shuffle):
		m.dispatcher.Enqueue(dispatch.ToggleShuffleIntent{})
		return m, nil
	case key.Matches(msg, m.keys.repeat):
		m.dispatcher.Enqueue(dispatch.ToggleRepeatIntent{})
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.selectCurrent()
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.typing = false
		m.searchInput.Blur()
		return m, nil
	case "enter":
		m.typing = false
		m.searchInput.Blur()
		m.query = m.searchInput.Value()
		if m.query != "" {
			m.dispatcher.Enqueue(dispatch.SearchIntent{Query: m.query, Limit: 50})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// togglePlayback flips between pause and resume based on the latest snapshot.
func (m *Model) togglePlayback() {
	app, _ := m.store.Snapshot()
	if app.Playback.Playing {
		m.dispatcher.Enqueue(dispatch.PauseIntent{})
	} else {
		m.dispatcher.Enqueue(dispatch.ResumeIntent{})
	}
}

func (m *Model) seekBy(delta time.Duration) {
	app, _ := m.store.Snapshot()
	if app.Playback.Track == nil {
		return
	}
	pos := app.Playback.Position + delta
	if pos < 0 {
		pos = 0
	}
	m.dispatcher.Enqueue(dispatch.SeekIntent{Position: pos})
}

func (m *Model) volumeBy(delta int) {
	app, _ := m.store.Snapshot()
	m.dispatcher.Enqueue(dispatch.SetVolumeIntent{Pct: app.Playback.VolumePct + delta})
}

// selectCurrent plays the highlighted track or switches to the highlighted
// target, depending on the view.
func (m *Model) selectCurrent() {
	switch m.view {
	case LibraryView:
		m.playFromList(m.libraryList, m.libraryTracks())
	case SearchView:
		m.playFromList(m.resultsList, m.searchTracks())
	case DevicesView:
		if item, ok := m.deviceList.SelectedItem().(deviceItem); ok {
			m.dispatcher.Enqueue(dispatch.SwitchTargetIntent{Target: item.target})
		}
	}
}

// playFromList starts the selected track with the surrounding page as queue.
func (m *Model) playFromList(l list.Model, queue []models.Track) {
	item, ok := l.SelectedItem().(trackItem)
	if !ok {
		return
	}
	m.dispatcher.Enqueue(dispatch.PlayIntent{Track: item.track, Queue: queue})
}

func (m *Model) libraryTracks() []models.Track {
	app, _ := m.store.Snapshot()
	return app.Library[models.PageID{Source: models.SourceSavedTracks}].Tracks
}

func (m *Model) searchTracks() []models.Track {
	app, _ := m.store.Snapshot()
	return app.Library[models.PageID{Source: models.SourceSearch, Key: m.query}].Tracks
}

// sync rebuilds list contents when the store has advanced.
func (m *Model) sync() {
	app, rev := m.store.Snapshot()
	if rev == m.lastRev {
		return
	}
	m.lastRev = rev

	m.libraryList.SetItems(trackItems(app.Library[models.PageID{Source: models.SourceSavedTracks}].Tracks))
	if m.query != "" {
		m.resultsList.SetItems(trackItems(app.Library[models.PageID{Source: models.SourceSearch, Key: m.query}].Tracks))
	}

	items := make([]list.Item, 0, len(app.Devices)+1)
	for _, d := range app.Devices {
		items = append(items, deviceItem{
			target: models.Target{Kind: models.TargetRemote, DeviceID: d.ID},
			name:   d.Name,
			kind:   d.Kind,
			active: app.Target.Kind == models.TargetRemote && app.Target.DeviceID == d.ID,
		})
	}
	if m.localOK {
		items = append(items, deviceItem{
			target: models.Target{Kind: models.TargetLocal},
			name:   "This computer",
			kind:   "local engine",
			active: app.Target.Kind == models.TargetLocal,
		})
	}
	m.deviceList.SetItems(items)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LibraryView:
		m.libraryList, cmd = m.libraryList.Update(msg)
	case SearchView:
		m.resultsList, cmd = m.resultsList.Update(msg)
	case DevicesView:
		m.deviceList, cmd = m.deviceList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LibraryView:
		body = m.libraryList.View()
	case SearchView:
		body = fmt.Sprintf("%s\n\n%s", m.searchInput.View(), m.resultsList.View())
	case DevicesView:
		body = m.deviceList.View()
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.toggle, m.keys.search, m.keys.devices, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", body, m.statusLine(), m.help.ShortHelpView(helpKeys))
}

// statusLine renders the persistent now-playing footer.
func (m *Model) statusLine() string {
	app, _ := m.store.Snapshot()

	for class, msg := range app.Errors {
		return styles.err.Render(fmt.Sprintf("✗ %s: %s", class, msg))
	}

	pb := app.Playback
	if pb.Track == nil {
		return styles.status.Render(fmt.Sprintf("nothing playing • target %s", app.Target))
	}

	icon := "⏸"
	if pb.Playing {
		icon = "▶"
	}

	flags := ""
	if pb.Shuffle {
		flags += " ⤨"
	}
	if pb.Repeat != models.RepeatOff && pb.Repeat != "" {
		flags += fmt.Sprintf(" repeat:%s", pb.Repeat)
	}

	return styles.status.Render(fmt.Sprintf(
		"%s %s [%s/%s] vol %d%% • %s%s",
		icon, pb.Track, fmtDuration(pb.Position), fmtDuration(pb.Track.Duration),
		pb.VolumePct, app.Target, flags,
	))
}

// fmtDuration renders a duration as m:ss.
func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
