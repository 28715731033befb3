package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/strum/internal/models"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = deviceItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

// deviceItem wraps a playback target choice to implement [list.Item].
//
// The local engine appears as a pseudo-device alongside the Connect devices.
type deviceItem struct {
	target models.Target
	name   string
	kind   string
	active bool
}

func (i deviceItem) FilterValue() string { return i.name }
func (i deviceItem) Title() string {
	if i.active {
		return fmt.Sprintf("%s ●", i.name)
	}
	return i.name
}
func (i deviceItem) Description() string { return i.kind }

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
