// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package stats_test

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/registry"
	"github.com/tomtom215/obsstore/internal/stats"
	"github.com/tomtom215/obsstore/internal/store"
	"github.com/tomtom215/obsstore/internal/testsupport"
)

func TestChooseBinWidthPicksTenSecondsForAThousandSecondSpan(t *testing.T) {
	assert.Equal(t, 10*time.Second, stats.ChooseBinWidth(1000*time.Second))
}

func TestChooseBinWidthClampsToSmallestEntryForShortSpans(t *testing.T) {
	assert.Equal(t, time.Second, stats.ChooseBinWidth(5*time.Second))
}

func TestChooseBinWidthClampsToLargestEntryForHugeSpans(t *testing.T) {
	assert.Equal(t, 365*24*time.Hour, stats.ChooseBinWidth(1000*365*24*time.Hour))
}

func TestGetStatisticsTotalCountMatchesInsertedRecords(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)
	streamID, err := reg.GetOrCreateStream("urn:s:a", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	s := store.New(eng, reg)
	se := stats.NewEngine(s)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	val, _ := json.Marshal(1.0)
	for i := 0; i < 10; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		_, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: "f1", ResultTime: ts, PhenomenonTime: ts, Result: val})
		require.NoError(t, err)
	}

	rows, err := se.GetStatistics(stats.Query{StreamIDs: []uint64{streamID}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 10, rows[0].TotalObsCount)
	assert.True(t, rows[0].PhenomenonTimeRange[0].Equal(base))
	assert.True(t, rows[0].PhenomenonTimeRange[1].Equal(base.Add(9*time.Second)))
}

func TestGetStatisticsHistogramSumsToTotalCount(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)
	streamID, err := reg.GetOrCreateStream("urn:s:b", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	s := store.New(eng, reg)
	se := stats.NewEngine(s)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	val, _ := json.Marshal(1.0)
	const n = 10_000
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * 100 * time.Millisecond)
		_, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: "f1", ResultTime: ts, PhenomenonTime: ts, Result: val})
		require.NoError(t, err)
	}

	rows, err := se.GetStatistics(stats.Query{StreamIDs: []uint64{streamID}, IncludeHistogram: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var sum int64
	for _, b := range rows[0].ObsCountByTime {
		sum += b.Count
	}
	assert.EqualValues(t, n, rows[0].TotalObsCount)
	assert.Equal(t, rows[0].TotalObsCount, sum)
	assert.Equal(t, 10*time.Second, rows[0].BinWidth)
	assert.Len(t, rows[0].ObsCountByTime, 100)
}

func TestGetStatisticsAggregateFoisSumsAcrossFois(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)
	streamID, err := reg.GetOrCreateStream("urn:s:grid", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	s := store.New(eng, reg)
	se := stats.NewEngine(s)

	phenom := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	runTime := phenom.Add(-time.Hour)
	val, _ := json.Marshal(1.0)

	for _, foi := range []string{"cell-1", "cell-2", "cell-3"} {
		for i := 0; i < 4; i++ {
			ts := phenom.Add(time.Duration(i) * time.Hour)
			_, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: foi, ResultTime: runTime, PhenomenonTime: ts, Result: val})
			require.NoError(t, err)
		}
	}

	unaggregated, err := se.GetStatistics(stats.Query{StreamIDs: []uint64{streamID}})
	require.NoError(t, err)
	assert.Len(t, unaggregated, 3)

	aggregated, err := se.GetStatistics(stats.Query{StreamIDs: []uint64{streamID}, AggregateFois: true})
	require.NoError(t, err)
	require.Len(t, aggregated, 1)
	assert.EqualValues(t, 12, aggregated[0].TotalObsCount)
	assert.Zero(t, aggregated[0].FoiID)
}

func TestGetStatisticsResultTimeLatestNarrowsToOneRun(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)
	streamID, err := reg.GetOrCreateStream("urn:s:model", "forecast", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	s := store.New(eng, reg)
	se := stats.NewEngine(s)

	phenomBase := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	val, _ := json.Marshal(1.0)

	runs := []time.Time{phenomBase.Add(-3 * time.Hour), phenomBase.Add(-2 * time.Hour), phenomBase.Add(-1 * time.Hour)}
	for _, run := range runs {
		for i := 0; i < 24; i++ {
			ts := phenomBase.Add(time.Duration(i) * time.Hour)
			_, err := s.Add(store.AddRequest{StreamID: streamID, FoiID: "point-1", ResultTime: run, PhenomenonTime: ts, Result: val})
			require.NoError(t, err)
		}
	}

	rows, err := se.GetStatistics(stats.Query{
		StreamIDs:  []uint64{streamID},
		ResultTime: query.TemporalFilter{Kind: query.LatestTime},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 24, rows[0].TotalObsCount)
	assert.True(t, rows[0].ResultTime.Equal(runs[2]))
}
