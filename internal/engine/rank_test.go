// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
)

func TestFloorAndCeiling(t *testing.T) {
	e := openTestEngine(t)
	seedKeys(t, e, "b", "d", "f")

	require.NoError(t, e.View(func(txn *engine.Txn) error {
		k, err := txn.Floor(nil, nil, []byte("e"))
		require.NoError(t, err)
		assert.Equal(t, []byte("d"), k)

		k, err = txn.Floor(nil, nil, []byte("d"))
		require.NoError(t, err)
		assert.Equal(t, []byte("d"), k)

		_, err = txn.Floor(nil, nil, []byte("a"))
		assert.ErrorIs(t, err, errs.ErrNotFound)

		k, err = txn.Ceiling(nil, nil, []byte("c"))
		require.NoError(t, err)
		assert.Equal(t, []byte("d"), k)

		k, err = txn.Ceiling(nil, nil, []byte("d"))
		require.NoError(t, err)
		assert.Equal(t, []byte("d"), k)

		_, err = txn.Ceiling(nil, nil, []byte("g"))
		assert.ErrorIs(t, err, errs.ErrNotFound)
		return nil
	}))
}

func TestCountRangeAndRank(t *testing.T) {
	e := openTestEngine(t)
	seedKeys(t, e, "a", "b", "c", "d", "e")

	require.NoError(t, e.View(func(txn *engine.Txn) error {
		n, err := txn.CountRange([]byte("b"), []byte("e"))
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		r1, err := txn.Rank([]byte("a"), []byte("b"))
		require.NoError(t, err)
		r2, err := txn.Rank([]byte("a"), []byte("d"))
		require.NoError(t, err)
		assert.EqualValues(t, 2, r1)
		assert.EqualValues(t, 4, r2)
		assert.EqualValues(t, 2, r2-r1)
		return nil
	}))
}
