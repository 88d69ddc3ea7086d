// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package testsupport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/obsstore/internal/engine"
)

// NewEngine opens a scratch in-memory engine for the lifetime of the test,
// registering cleanup so callers never need a defer Close(). In-memory
// badger is preferred over t.TempDir() here because most unit tests care
// about ordering and codec semantics, not crash durability; NewFileEngine
// is the on-disk alternative for persistence tests.
func NewEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(engine.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = e.Close()
	})
	return e
}

// NewFileEngine opens a scratch on-disk engine rooted at t.TempDir(), for
// tests that need to close and reopen the store to exercise persistence.
func NewFileEngine(t *testing.T) (*engine.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	e, err := engine.Open(engine.Options{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = e.Close()
	})
	return e, dir
}
