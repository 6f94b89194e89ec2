// Package store provides SQLite-backed persistence for choreographies and
// their running instances.
//
// The store keeps:
//   - Choreographies: definitions as canonical JSON, keyed by content hash
//   - Instances: lifecycle timestamps and the compile options they run with
//   - Events: the ordered input and output logs of each instance
//   - History: the enforcer snapshots recorded after every step
//
// # Ordering
//
// Event logs and history are ordered by seq, a per-instance logical
// counter, never by timestamps. Reading an instance back and replaying its
// inputs therefore reproduces its outputs exactly.
//
// # Schema
//
// Open creates missing tables from schema.sql and then upgrades older files
// through the migrations list, recording progress in PRAGMA user_version.
// The connection runs in WAL mode with foreign keys enforced and waits up
// to five seconds on a locked database.
package store
