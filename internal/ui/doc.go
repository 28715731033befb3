// Package ui implements the interactive terminal interface using bubbletea's
// Elm architecture.
//
// The TUI is a pure reader of the shared application state: every frame
// renders from a [state.Store] snapshot, and every keypress translates into an
// intent enqueued on the dispatcher. The model never calls the network or the
// audio engine directly.
//
// Views:
//  1. [LibraryView] : Browse saved tracks and start playback
//  2. [SearchView] : Query the catalog and play results
//  3. [DevicesView] : Pick a playback target (Connect device or local engine)
//
// A one-second tick drives both the render loop and the remote playback poll.
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
