// Package dispatch implements the command dispatcher: a queue-fed worker that
// serializes intents into adapter calls and commits their results into the
// shared application state.
//
// # Worker Discipline
//
// One [Worker] consumes the [Queue]: each intent is processed fully to
// completion before the next starts, so commits land in arrival order and no
// two intents' partial results ever interleave. Producers are the input loop
// and the local engine's event pump (unsolicited engine events become synthetic
// intents on the same queue); there is never a second consumer.
//
// # Coalescing
//
// Superseding classes (seek, volume, search, playback refresh, local sync)
// keep only their most recent pending instance: enqueueing removes any earlier
// same-class entry before appending, so input spam cannot back up stale
// network calls.
//
// # Retry Policy
//
// Idempotent reads retry transient failures up to twice with doubling backoff.
// Playback mutations are never auto-retried; their failures surface
// immediately. A 401 triggers one coalesced credential refresh (falling back
// to interactive authorization when the refresh token is rejected) followed by
// a single replay of the failed call.
//
// # Routing
//
// [route] is a pure function of the active playback target and the intent
// class. Control intents reach only the active target's adapter; an intent
// for the inactive adapter fails with [shared.ErrRoutingInvalid]. Switching
// targets is itself an intent that pauses the old target, carries position
// over, and flips the state's target field last.
package dispatch
