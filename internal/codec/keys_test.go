// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeyRoundTrip(t *testing.T) {
	pt := FromTime(time.Unix(1_700_000_000, 42))
	key := RecordKey(7, pt)
	seriesID, gotPT, err := DecodeRecordKey(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seriesID)
	assert.True(t, pt.Equal(gotPT))
}

func TestRecordKeyOrdersByPhenomenonTimeWithinSeries(t *testing.T) {
	// property 2: for a fixed seriesId, RecordKey order matches
	// phenomenonTime order.
	series := uint64(42)
	earlier := RecordKey(series, FromTime(time.Unix(100, 0)))
	later := RecordKey(series, FromTime(time.Unix(200, 0)))
	assert.True(t, bytes.Compare(earlier, later) < 0)
}

func TestPublicIDIsRecordKey(t *testing.T) {
	pt := FromTime(time.Unix(55, 0))
	assert.Equal(t, RecordKey(9, pt), PublicID(9, pt))

	seriesID, gotPT, err := DecodePublicID(PublicID(9, pt))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), seriesID)
	assert.True(t, pt.Equal(gotPT))
}

func TestSeriesKeyRoundTrip(t *testing.T) {
	rt := FromTime(time.Unix(1_650_000_000, 7))
	key := SeriesKey(3, 11, rt)
	require.Len(t, key, SeriesKeyLen)

	streamID, foiID, gotRT, err := DecodeSeriesKey(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), streamID)
	assert.Equal(t, uint64(11), foiID)
	assert.True(t, rt.Equal(gotRT))
}

func TestSeriesKeyOrdersByStreamThenFoiThenResultTime(t *testing.T) {
	rt := FromTime(time.Unix(1000, 0))
	a := SeriesKey(1, 5, rt)
	b := SeriesKey(1, 6, rt)
	c := SeriesKey(2, 0, rt)
	assert.True(t, bytes.Compare(a, b) < 0, "same stream, lower foi sorts first")
	assert.True(t, bytes.Compare(b, c) < 0, "lower streamId sorts first regardless of foi")
}

func TestSeriesByFoiKeyRoundTrip(t *testing.T) {
	rt := FromTime(time.Unix(1_650_000_001, 0))
	key := SeriesByFoiKey(11, 3, rt)
	require.Len(t, key, SeriesKeyLen)

	foiID, streamID, gotRT, err := DecodeSeriesByFoiKey(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), foiID)
	assert.Equal(t, uint64(3), streamID)
	assert.True(t, rt.Equal(gotRT))
}

func TestSeriesIDPrefixScansMatchingEntriesOnly(t *testing.T) {
	prefix := SeriesIDPrefix(7)
	match := SeriesKey(7, 1, FromTime(time.Unix(0, 0)))
	other := SeriesKey(8, 1, FromTime(time.Unix(0, 0)))
	assert.True(t, bytes.HasPrefix(match, prefix))
	assert.False(t, bytes.HasPrefix(other, prefix))
}

func TestDurationRoundTrip(t *testing.T) {
	d := 900 * time.Second
	enc := EncodeDuration(d)
	got, n, err := DecodeDuration(enc)
	require.NoError(t, err)
	assert.Equal(t, d, got)
	assert.Equal(t, len(enc), n)
}
