package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	library key.Binding
	search  key.Binding
	devices key.Binding
	toggle  key.Binding
	next    key.Binding
	prev    key.Binding
	seekFwd key.Binding
	seekBck key.Binding
	volUp   key.Binding
	volDown key.Binding
	shuffle key.Binding
	repeat  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		library: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "library")),
		search:  key.NewBinding(key.WithKeys("2", "/"), key.WithHelp("2 or /", "search")),
		devices: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "devices")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		seekFwd: key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "seek +10s")),
		seekBck: key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "seek -10s")),
		volUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		shuffle: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.library, k.search, k.devices},
		{k.toggle, k.next, k.prev, k.seekFwd, k.seekBck},
		{k.volUp, k.volDown, k.shuffle, k.repeat, k.quit},
	}
}
