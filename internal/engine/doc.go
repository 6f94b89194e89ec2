// Package engine monitors running choreography instances for conformance.
//
// An engine simulates a compiled automaton against observed message events.
// Sends ("actor!message") pass through unchanged. Receives ("actor?message")
// advance the set of current states when some current state enables them;
// otherwise they are buffered until a later state makes them consumable.
//
// ARCHITECTURE:
//
// Engine is the boundary contract; OffChain is the in-process backend.
// Enforcer wraps any Engine, drains the buffer after each input and keeps a
// numbered history of snapshots. Instance adds lifecycle timestamps and
// input/output logs, and Runner feeds an Instance from a queue in its own
// goroutine.
//
// Single-Writer Processing:
// One instance processes one event to completion before the next. There is
// no suspension point inside a step. Independent instances share nothing
// but the read-only automaton and may run concurrently.
//
// Determinism:
// History entries are numbered by a logical Clock, never by wall time.
// Replaying recorded inputs over the same automaton reproduces the
// recorded outputs exactly.
package engine
