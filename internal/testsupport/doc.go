// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package testsupport provides shared test fixtures: an in-memory engine
// opener so package tests never need to know badger's on-disk layout,
// following the teacher's internal/wal test helpers
// (internal/wal/wal_test.go's newTestWAL) which open a scratch BadgerWAL
// per test rather than hand-rolling fakes.
package testsupport
