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

func TestInstantRoundTrip(t *testing.T) {
	cases := []Instant{
		NegInf,
		PosInf,
		FromTime(time.Unix(0, 0)),
		FromTime(time.Unix(1_700_000_000, 123_456_789)),
		FromTime(time.Unix(-1_700_000_000, 1)),
		FromTime(time.Unix(1, 0)),
	}
	for _, in := range cases {
		enc := in.Encode()
		out, err := DecodeInstant(enc[:])
		require.NoError(t, err)
		assert.True(t, in.Equal(out), "round trip mismatch for %+v", in)
	}
}

func TestInstantSentinelBytes(t *testing.T) {
	neg := NegInf.Encode()
	pos := PosInf.Encode()
	assert.Equal(t, bytes.Repeat([]byte{0x00}, InstantLen), neg[:])
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, InstantLen), pos[:])
}

func TestInstantUnsignedLexOrder(t *testing.T) {
	// property 2: encode() must sort identically to chronological order,
	// including across the −∞ / +∞ sentinels.
	ordered := []Instant{
		NegInf,
		FromTime(time.Unix(-1_000_000_000, 0)),
		FromTime(time.Unix(-1, 999_999_999)),
		FromTime(time.Unix(0, 0)),
		FromTime(time.Unix(0, 1)),
		FromTime(time.Unix(1, 0)),
		FromTime(time.Unix(1_700_000_000, 0)),
		PosInf,
	}
	for i := 0; i < len(ordered)-1; i++ {
		a, b := ordered[i].Encode(), ordered[i+1].Encode()
		assert.True(t, bytes.Compare(a[:], b[:]) < 0,
			"expected encode(%v) < encode(%v)", ordered[i], ordered[i+1])
		assert.True(t, ordered[i].Before(ordered[i+1]))
	}
}

func TestDecodeInstantRejectsWrongLength(t *testing.T) {
	_, err := DecodeInstant(make([]byte, InstantLen-1))
	require.Error(t, err)
}
