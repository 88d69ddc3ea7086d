// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package errs defines the error taxonomy of spec.md §7 as sentinel values,
// following the teacher's per-package errors.go convention
// (internal/eventprocessor/errors.go, internal/auth's ErrSessionNotFound)
// rather than a class hierarchy.
package errs

import "errors"

var (
	// ErrStorageUnavailable means the engine failed to open, the disk is
	// full, or the configured path is invalid. Fatal for the store.
	ErrStorageUnavailable = errors.New("obsstore: storage unavailable")

	// ErrUnknownStream means a write named a streamId with no live
	// registry entry. Rejected before any mutation.
	ErrUnknownStream = errors.New("obsstore: unknown stream")

	// ErrInvalidKey means an opaque id failed to decode. get/containsKey
	// return not-found; put/remove return not-found. Never aborts a
	// containing query.
	ErrInvalidKey = errors.New("obsstore: invalid opaque id")

	// ErrNotFound is returned by point reads that find no record. The
	// store's point operations also return it, unwrapped, for a malformed
	// opaque id; they do not return ErrInvalidKey, so a malformed id and a
	// legitimate miss are not distinguished.
	ErrNotFound = errors.New("obsstore: not found")

	// ErrTooBroad means the planner's safety cap was exceeded; the caller
	// must refine the filter. The query is rolled back before any pages
	// are read.
	ErrTooBroad = errors.New("obsstore: query too broad, refine the filter")

	// ErrConflict is reserved by the taxonomy but unused: writes in this
	// engine are last-write-wins (spec.md §7).
	ErrConflict = errors.New("obsstore: conflict")

	// ErrTransient wraps a retryable engine-level error. Upper layers may
	// retry with backoff; internal/compaction does this around value-log
	// GC.
	ErrTransient = errors.New("obsstore: transient engine error")

	// ErrCorruption means a mismatch was detected between the correlated
	// indexes (e.g. a SeriesByFoi entry with no SeriesByStream
	// counterpart). Surfaced, never silently repaired.
	ErrCorruption = errors.New("obsstore: index corruption detected")

	// ErrStreamRetired means a write targeted a stream whose valid-time
	// range is closed. Retired streams remain queryable.
	ErrStreamRetired = errors.New("obsstore: stream is retired, rejects writes")

	// ErrClosed means the store (or an iterator over it) has already been
	// closed.
	ErrClosed = errors.New("obsstore: closed")

	// ErrFederationWriteTarget means a write was attempted against a
	// federation shim with no single writable mount resolved for it.
	ErrFederationWriteTarget = errors.New("obsstore: federation has no resolvable writable mount")

	// ErrDirectIDs means a series-level operation (stats, observed-fois)
	// was handed a filter naming internalIds, which select observations
	// directly rather than resolving to series.
	ErrDirectIDs = errors.New("obsstore: filter selects observations directly, not series")
)
