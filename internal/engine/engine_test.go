// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
)

func openTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(engine.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestUpdateThenGet(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Update(func(txn *engine.Txn) error {
		return txn.Set([]byte("k1"), []byte("v1"))
	}))

	val, err := e.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	e := openTestEngine(t)
	_, err := e.Get([]byte("absent"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	e := openTestEngine(t)
	sentinel := errors.New("boom")

	err := e.Update(func(txn *engine.Txn) error {
		require.NoError(t, txn.Set([]byte("k"), []byte("v")))
		return sentinel
	})
	require.Error(t, err)

	_, getErr := e.Get([]byte("k"))
	assert.ErrorIs(t, getErr, errs.ErrNotFound, "a failed Update must leave no partial writes visible")
}

func seedKeys(t *testing.T, e *engine.Engine, keys ...string) {
	t.Helper()
	require.NoError(t, e.Update(func(txn *engine.Txn) error {
		for _, k := range keys {
			if err := txn.Set([]byte(k), []byte(k)); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestCursorForwardRange(t *testing.T) {
	e := openTestEngine(t)
	seedKeys(t, e, "a", "b", "c", "d", "e")

	var got []string
	require.NoError(t, e.View(func(txn *engine.Txn) error {
		c := txn.Cursor([]byte("b"), []byte("d"), false)
		defer c.Close()
		for c.Valid() {
			got = append(got, string(c.Key()))
			c.Next()
		}
		return nil
	}))
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestCursorReverseRange(t *testing.T) {
	e := openTestEngine(t)
	seedKeys(t, e, "a", "b", "c", "d", "e")

	var got []string
	require.NoError(t, e.View(func(txn *engine.Txn) error {
		c := txn.Cursor([]byte("b"), []byte("d"), true)
		defer c.Close()
		for c.Valid() {
			got = append(got, string(c.Key()))
			c.Next()
		}
		return nil
	}))
	assert.Equal(t, []string{"c", "b"}, got, "reverse cursor must walk [lower, upper) high-to-low")
}

func TestCursorUnboundedUpper(t *testing.T) {
	e := openTestEngine(t)
	seedKeys(t, e, "a", "b", "c")

	var got []string
	require.NoError(t, e.View(func(txn *engine.Txn) error {
		c := txn.Cursor([]byte("b"), nil, false)
		defer c.Close()
		for c.Valid() {
			got = append(got, string(c.Key()))
			c.Next()
		}
		return nil
	}))
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestCursorReverseUnboundedUpperStartsAtMax(t *testing.T) {
	e := openTestEngine(t)
	seedKeys(t, e, "a", "b", "c")

	var got []string
	require.NoError(t, e.View(func(txn *engine.Txn) error {
		c := txn.Cursor(nil, nil, true)
		defer c.Close()
		for c.Valid() {
			got = append(got, string(c.Key()))
			c.Next()
		}
		return nil
	}))
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestVersionIncrementsOnSuccessfulUpdate(t *testing.T) {
	e := openTestEngine(t)
	v0 := e.Version()
	require.NoError(t, e.Update(func(txn *engine.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	}))
	assert.Equal(t, v0+1, e.Version())
}
