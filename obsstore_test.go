// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package obsstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	obsstore "github.com/tomtom215/obsstore"
	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/registry"
	"github.com/tomtom215/obsstore/internal/store"
)

func openTestStore(t *testing.T) *obsstore.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := obsstore.Open(obsstore.Config{
		StoragePath:      dir,
		AllowedRoot:      dir,
		StreamIDStrategy: "sequential",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRegisterAddAndSelectRoundTrips(t *testing.T) {
	s := openTestStore(t)

	streamID, err := s.GetStreams().GetOrCreateStream("urn:s:a", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)

	val, _ := json.Marshal(21.5)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	id, err := s.GetObservationStore().Add(store.AddRequest{
		StreamID: streamID, FoiID: "sensor-1", PhenomenonTime: ts, ResultTime: ts, Result: val,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	obs, err := s.GetObservationStore().Get(id)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(val), obs.Record.Result)

	res, err := s.GetObservationStore().SelectEntries(query.ObservationFilter{StreamIDs: []uint64{streamID}})
	require.NoError(t, err)
	all, err := res.ToSlice()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
}

func TestCompactRemovesSeriesAfterRemove(t *testing.T) {
	s := openTestStore(t)

	streamID, err := s.GetStreams().GetOrCreateStream("urn:s:b", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)

	val, _ := json.Marshal(1.0)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	id, err := s.GetObservationStore().Add(store.AddRequest{
		StreamID: streamID, FoiID: "sensor-1", PhenomenonTime: ts, ResultTime: ts, Result: val,
	})
	require.NoError(t, err)
	require.NoError(t, s.GetObservationStore().Remove(id))

	removed, err := s.Compact(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	size, err := s.GetObservationStore().Size()
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)
}

func TestHealthOmitsMountHealthWithoutFederation(t *testing.T) {
	s := openTestStore(t)
	report := s.Health()
	assert.Nil(t, report.MountHealth)
}

func TestFoiStoreLookupIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	id1, err := s.GetFoiStore().Lookup("sensor-7")
	require.NoError(t, err)
	id2, err := s.GetFoiStore().Lookup("sensor-7")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}
