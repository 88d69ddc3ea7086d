// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package query_test

import (
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/registry"
	"github.com/tomtom215/obsstore/internal/store"
	"github.com/tomtom215/obsstore/internal/testsupport"
)

type fixture struct {
	st         *store.Store
	ex         *query.Executor
	streamA    uint64
	streamB    uint64
	base       time.Time
	idsA       [][]byte // stream A, foi "f1", ascending phenomenonTime
	idsBOthers [][]byte // stream B observations
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)
	streamA, err := reg.GetOrCreateStream("urn:s:a", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	streamB, err := reg.GetOrCreateStream("urn:s:b", "humidity", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)

	s := store.New(eng, reg)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var idsA [][]byte
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		val, _ := json.Marshal(float64(i))
		id, err := s.Add(store.AddRequest{
			StreamID:       streamA,
			FoiID:          "f1",
			ResultTime:     ts,
			PhenomenonTime: ts,
			Result:         val,
		})
		require.NoError(t, err)
		idsA = append(idsA, id)
	}

	var idsB [][]byte
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		val, _ := json.Marshal(float64(100 + i))
		id, err := s.Add(store.AddRequest{
			StreamID:       streamB,
			FoiID:          "f2",
			ResultTime:     ts,
			PhenomenonTime: ts,
			Result:         val,
		})
		require.NoError(t, err)
		idsB = append(idsB, id)
	}

	return fixture{
		st:         s,
		ex:         query.NewExecutor(s),
		streamA:    streamA,
		streamB:    streamB,
		base:       base,
		idsA:       idsA,
		idsBOthers: idsB,
	}
}

func TestFullScanReturnsEveryObservationInOrder(t *testing.T) {
	f := newFixture(t)
	r, err := f.ex.Select(query.ObservationFilter{})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	assert.Len(t, obs, 8)
	for i := 1; i < len(obs); i++ {
		assert.True(t, !obs[i].Record.PhenomenonTime.Before(obs[i-1].Record.PhenomenonTime))
	}
}

func TestScanByStreamOnlyReturnsThatStreamsObservations(t *testing.T) {
	f := newFixture(t)
	r, err := f.ex.Select(query.ObservationFilter{StreamIDs: []uint64{f.streamA}})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	assert.Len(t, obs, 5)
	for _, o := range obs {
		assert.Equal(t, f.streamA, o.Record.StreamID)
	}
}

func TestScanByFoiOnlyReturnsMatchingFoi(t *testing.T) {
	f := newFixture(t)
	foiID, err := f.st.LookupFoi("f2")
	require.NoError(t, err)

	r, err := f.ex.Select(query.ObservationFilter{FoiIDs: []uint64{foiID}})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	assert.Len(t, obs, 3)
	for _, o := range obs {
		assert.Equal(t, foiID, o.Record.FoiID)
	}
}

func TestStreamAndFoiJoinNarrowsToIntersection(t *testing.T) {
	f := newFixture(t)
	foiID, err := f.st.LookupFoi("f1")
	require.NoError(t, err)

	r, err := f.ex.Select(query.ObservationFilter{StreamIDs: []uint64{f.streamA}, FoiIDs: []uint64{foiID}})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	assert.Len(t, obs, 5)

	// streamB joined against f1's foiId yields nothing, since f1 was only
	// ever reported against streamA.
	r2, err := f.ex.Select(query.ObservationFilter{StreamIDs: []uint64{f.streamB}, FoiIDs: []uint64{foiID}})
	require.NoError(t, err)
	obs2, err := r2.ToSlice()
	require.NoError(t, err)
	assert.Empty(t, obs2)
}

func TestRangeTimeNarrowsToHalfOpenInterval(t *testing.T) {
	f := newFixture(t)
	begin := f.base.Add(1 * time.Minute)
	end := f.base.Add(3 * time.Minute)

	r, err := f.ex.Select(query.ObservationFilter{
		StreamIDs:      []uint64{f.streamA},
		PhenomenonTime: query.Range(begin, end),
	})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.True(t, obs[0].Record.PhenomenonTime.Equal(begin))
	assert.True(t, obs[1].Record.PhenomenonTime.Equal(f.base.Add(2*time.Minute)))
}

func TestAtTimeMatchesExactInstantOnly(t *testing.T) {
	f := newFixture(t)
	at := f.base.Add(2 * time.Minute)

	r, err := f.ex.Select(query.ObservationFilter{
		StreamIDs:      []uint64{f.streamA},
		PhenomenonTime: query.At(at),
	})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.True(t, obs[0].Record.PhenomenonTime.Equal(at))
}

func TestLimitCapsEmittedResults(t *testing.T) {
	f := newFixture(t)
	r, err := f.ex.Select(query.ObservationFilter{Limit: 3})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	assert.Len(t, obs, 3)
}

func TestValuePredicateFiltersPostMerge(t *testing.T) {
	f := newFixture(t)
	r, err := f.ex.Select(query.ObservationFilter{
		StreamIDs: []uint64{f.streamA},
		ValuePredicate: func(result json.RawMessage) bool {
			var v float64
			_ = json.Unmarshal(result, &v)
			return v >= 3
		},
	})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	assert.Len(t, obs, 2)
}

func TestInternalIDsShortCircuitsPlanning(t *testing.T) {
	f := newFixture(t)
	r, err := f.ex.Select(query.ObservationFilter{InternalIDs: [][]byte{f.idsA[0], f.idsA[2]}})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	assert.Len(t, obs, 2)
}

func TestInternalIDsSkipsVanishedRecordsWithoutError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.st.Remove(f.idsA[0]))

	r, err := f.ex.Select(query.ObservationFilter{InternalIDs: [][]byte{f.idsA[0], f.idsA[1]}})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	assert.Len(t, obs, 1)
}

func TestTooBroadStreamJoinIsRejected(t *testing.T) {
	f := newFixture(t)
	ids := make([]uint64, 0, 200)
	for i := uint64(0); i < 200; i++ {
		ids = append(ids, i+1000)
	}
	_, err := f.ex.Select(query.ObservationFilter{StreamIDs: ids, MaxSeries: 1})
	assert.ErrorIs(t, err, errs.ErrTooBroad)
}

func TestCountMatchingEntriesAgreesWithSelect(t *testing.T) {
	f := newFixture(t)
	n, err := f.ex.CountMatchingEntries(query.ObservationFilter{StreamIDs: []uint64{f.streamA}})
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	begin := f.base.Add(1 * time.Minute)
	end := f.base.Add(4 * time.Minute)
	n2, err := f.ex.CountMatchingEntries(query.ObservationFilter{
		StreamIDs:      []uint64{f.streamA},
		PhenomenonTime: query.Range(begin, end),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n2)
}

func TestSelectKeysProjectsOpaqueIDs(t *testing.T) {
	f := newFixture(t)
	kr, err := f.ex.SelectKeys(query.ObservationFilter{StreamIDs: []uint64{f.streamA}})
	require.NoError(t, err)
	defer kr.Close()

	var n int
	for {
		id, ok, err := kr.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		assert.NotEmpty(t, id)
		n++
	}
	assert.Equal(t, 5, n)
}

func TestSelectResultsProjectsPayloadsOnly(t *testing.T) {
	f := newFixture(t)
	rr, err := f.ex.SelectResults(query.ObservationFilter{StreamIDs: []uint64{f.streamA}, Limit: 1})
	require.NoError(t, err)
	defer rr.Close()

	val, ok, err := rr.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `0`, string(val))
}

func TestSelectObservedFoisReturnsDistinctFois(t *testing.T) {
	f := newFixture(t)
	fois, err := f.ex.SelectObservedFois(query.ObservationFilter{})
	require.NoError(t, err)
	assert.Len(t, fois, 2)
}

func TestResultTimeLatestPicksSingleMostRecentSeries(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)
	streamID, err := reg.GetOrCreateStream("urn:s:model", "forecast", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	s := store.New(eng, reg)
	ex := query.NewExecutor(s)

	phenom := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	runOld := phenom.Add(-2 * time.Hour)
	runNew := phenom.Add(-1 * time.Hour)

	val, _ := json.Marshal(1.0)
	_, err = s.Add(store.AddRequest{StreamID: streamID, FoiID: "cell-1", ResultTime: runOld, PhenomenonTime: phenom, Result: val})
	require.NoError(t, err)
	_, err = s.Add(store.AddRequest{StreamID: streamID, FoiID: "cell-1", ResultTime: runNew, PhenomenonTime: phenom, Result: val})
	require.NoError(t, err)

	r, err := ex.Select(query.ObservationFilter{ResultTime: query.TemporalFilter{Kind: query.LatestTime}})
	require.NoError(t, err)
	obs, err := r.ToSlice()
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.True(t, obs[0].Record.ResultTime.Equal(runNew))
}

func TestCountMatchingEntriesDeduplicatesConcurrentIdenticalFilters(t *testing.T) {
	f := newFixture(t)
	filter := query.ObservationFilter{StreamIDs: []uint64{f.streamA}}

	const goroutines = 8
	var wg sync.WaitGroup
	counts := make([]int64, goroutines)
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i], errs[i] = f.ex.CountMatchingEntries(filter)
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		assert.EqualValues(t, 5, counts[i])
	}
}
