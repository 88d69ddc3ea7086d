// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package store_test

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/registry"
	"github.com/tomtom215/obsstore/internal/store"
	"github.com/tomtom215/obsstore/internal/testsupport"
)

func newTestStore(t *testing.T) (*store.Store, uint64) {
	t.Helper()
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)
	streamID, err := reg.GetOrCreateStream("urn:s:a", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	return store.New(eng, reg), streamID
}

func TestAddGetIdentity(t *testing.T) {
	s, streamID := newTestStore(t)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result, _ := json.Marshal(42.5)
	id, err := s.Add(store.AddRequest{
		StreamID:       streamID,
		FoiID:          "foi-1",
		ResultTime:     ts,
		PhenomenonTime: ts,
		Result:         result,
	})
	require.NoError(t, err)

	obs, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, streamID, obs.Record.StreamID)
	assert.True(t, obs.Record.PhenomenonTime.Equal(ts))
	assert.JSONEq(t, `42.5`, string(obs.Record.Result))
}

func TestAddRejectsUnknownStream(t *testing.T) {
	s, _ := newTestStore(t)
	ts := time.Now()
	_, err := s.Add(store.AddRequest{StreamID: 99999, FoiID: "f", ResultTime: ts, PhenomenonTime: ts})
	assert.ErrorIs(t, err, errs.ErrUnknownStream)
}

func TestGetMalformedIDReturnsNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get([]byte{0xFF, 0xFF})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRemoveDropsRecordButKeepsSeries(t *testing.T) {
	s, streamID := newTestStore(t)
	ts := time.Now().UTC()
	id, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: "f", ResultTime: ts, PhenomenonTime: ts})
	require.NoError(t, err)

	require.NoError(t, s.Remove(id))

	_, err = s.Get(id)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	size, err := s.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 1, size, "series survives removal of its only observation")
}

func TestSameResultAndPhenomenonTimeSharesOneSeries(t *testing.T) {
	s, streamID := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		_, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: "f", ResultTime: ts, PhenomenonTime: ts})
		require.NoError(t, err)
	}

	size, err := s.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 1, size)

	n, err := s.NumRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestDistinctResultTimesFormDistinctSeries(t *testing.T) {
	s, streamID := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	phenom := base.Add(time.Hour)

	_, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: "f", ResultTime: base, PhenomenonTime: phenom})
	require.NoError(t, err)
	_, err = s.Add(store.AddRequest{StreamID: streamID, FoiID: "f", ResultTime: base.Add(time.Minute), PhenomenonTime: phenom})
	require.NoError(t, err)

	size, err := s.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 2, size)
}

func TestDeleteStreamCascades(t *testing.T) {
	s, streamID := newTestStore(t)
	ts := time.Now().UTC()
	_, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: "f", ResultTime: ts, PhenomenonTime: ts})
	require.NoError(t, err)

	require.NoError(t, s.DeleteStream(streamID))

	size, err := s.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)

	n, err := s.NumRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	_, err = s.Registry().Get(streamID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestClearKeepsStreamRegistration(t *testing.T) {
	s, streamID := newTestStore(t)
	ts := time.Now().UTC()
	_, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: "f", ResultTime: ts, PhenomenonTime: ts})
	require.NoError(t, err)

	require.NoError(t, s.Clear())

	size, err := s.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)

	_, err = s.Registry().Get(streamID)
	assert.NoError(t, err)
}
