// Package engine implements the local playback engine behind a command/event
// interface.
//
// # Command / Event Discipline
//
// Commands ([LoadCommand], [PlayCommand], [PauseCommand], [SeekCommand],
// [SetVolumeCommand], [PreloadCommand], [ShutdownCommand]) are fire-and-forget:
// the sender never blocks on audio work. Acknowledgment arrives asynchronously
// on the event stream ([PlayingEvent], [PausedEvent], [TrackEndedEvent],
// [PreloadNextEvent], [PositionEvent], [ErrorEvent], ...). The dispatcher turns
// unsolicited events back into intents, which keeps the single-writer-to-state
// invariant intact.
//
// # Audio Session
//
// One worker goroutine owns the beep speaker session exclusively. Audio comes
// from a [Source]; the default [PreviewSource] streams the provider's MP3
// preview for a track. A position tick fires once per second while playing,
// [PreloadNextEvent] fires once per track near its end, and [TrackEndedEvent]
// fires when the streamer drains.
//
// # Degradation
//
// If the audio backend cannot initialize, [New] fails with
// [shared.ErrEngineUnavailable] and the dispatcher falls back to remote
// routing; a healthy engine that later hits a source or decode failure emits
// [ErrorEvent] instead of crashing the session.
package engine
