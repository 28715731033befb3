package engine

import (
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Backend abstracts the audio output session so the worker can be exercised
// without a sound device.
type Backend interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// speakerBackend is the production backend over the beep speaker.
type speakerBackend struct{}

func (speakerBackend) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}

func (speakerBackend) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerBackend) Clear()                  { speaker.Clear() }
func (speakerBackend) Lock()                   { speaker.Lock() }
func (speakerBackend) Unlock()                 { speaker.Unlock() }
