// Package ir provides the choreography definition types shared by the
// compiler, the graph access layer and the store.
//
// This package contains type definitions and their canonical encoding only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - All JSON and YAML tags use snake_case
//   - Node, participant and message references are by id
//   - Content hashes are computed over canonical JSON (sorted keys, NFC strings)
package ir
