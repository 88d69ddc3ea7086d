// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package registry maintains the data-stream metadata catalog of spec.md
// §4.2: stream registration (idempotent on identical re-registration),
// lookup, listing, retirement, and cascading removal. It assigns stream
// ids with one of two pluggable strategies, sequential or a deterministic
// 128-bit hash truncated to 48 bits, keyed off the IDStrategy each
// Registry is given by New at store open, the same config-driven-strategy shape
// the teacher uses for session store backends
// (internal/auth/session_store_factory.go) rather than a type switch
// scattered through the write path.
package registry
