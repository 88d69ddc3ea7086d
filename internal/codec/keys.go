// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package codec

import (
	"encoding/binary"
	"fmt"
)

// Fixed-width fields inside composite keys must stay fixed-width: a varint
// would let two different streamId values encode to prefixes that compare
// out of numeric order, breaking the unsigned-lexicographic sort invariant
// (spec.md §4.1, property 2). Only the record key's leading seriesId is
// varint-encoded, since nothing else ever needs to range-scan across it by
// numeric value — the record key's sort order is driven entirely by the
// fixed-width phenomenonTime suffix within a single series.

// A RecordKey has no fixed length: its varint seriesId prefix takes 1 to
// binary.MaxVarintLen64 bytes and is followed by InstantLen bytes.

// RecordKey builds the primary-index key for an observation record:
// varint(seriesId) || encode(phenomenonTime).
func RecordKey(seriesID uint64, phenomenonTime Instant) []byte {
	buf := make([]byte, 0, binary.MaxVarintLen64+InstantLen)
	buf = putUvarint(buf, seriesID)
	return phenomenonTime.AppendTo(buf)
}

// DecodeRecordKey splits a RecordKey back into its seriesId and
// phenomenonTime.
func DecodeRecordKey(b []byte) (seriesID uint64, phenomenonTime Instant, err error) {
	seriesID, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, Instant{}, fmt.Errorf("codec: malformed record key: bad seriesId varint")
	}
	rest := b[n:]
	if len(rest) != InstantLen {
		return 0, Instant{}, fmt.Errorf("codec: malformed record key: want %d trailing bytes, got %d", InstantLen, len(rest))
	}
	phenomenonTime, err = DecodeInstant(rest)
	if err != nil {
		return 0, Instant{}, err
	}
	return seriesID, phenomenonTime, nil
}

// PublicID is the opaque public observation identifier handed to API
// callers. It is bit-identical to the internal RecordKey (spec.md §4.3):
// callers never get to see a seriesId or phenomenonTime directly, but the
// engine can decode one straight back into a primary-index lookup.
func PublicID(seriesID uint64, phenomenonTime Instant) []byte {
	return RecordKey(seriesID, phenomenonTime)
}

// DecodePublicID is an alias for DecodeRecordKey, kept distinct so call
// sites read as "decoding an opaque id" rather than "decoding a storage
// key" even though the byte layout is identical.
func DecodePublicID(id []byte) (seriesID uint64, phenomenonTime Instant, err error) {
	return DecodeRecordKey(id)
}

func putFixedUint64(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}

// SeriesKeyLen is the fixed byte length of a SeriesKey / SeriesByFoiKey.
const SeriesKeyLen = 8 + 8 + InstantLen

// SeriesKey builds the ObsRecords-adjacent "SeriesByStream" index key:
// u64(streamId) || u64(foiId) || encode(resultTime). Driving a query by
// streamId range-scans this index with a fixed streamId prefix.
func SeriesKey(streamID, foiID uint64, resultTime Instant) []byte {
	buf := make([]byte, 0, SeriesKeyLen)
	buf = putFixedUint64(buf, streamID)
	buf = putFixedUint64(buf, foiID)
	return resultTime.AppendTo(buf)
}

// DecodeSeriesKey splits a SeriesKey back into its fields.
func DecodeSeriesKey(b []byte) (streamID, foiID uint64, resultTime Instant, err error) {
	if len(b) != SeriesKeyLen {
		return 0, 0, Instant{}, fmt.Errorf("codec: malformed series key: want %d bytes, got %d", SeriesKeyLen, len(b))
	}
	streamID = binary.BigEndian.Uint64(b[0:8])
	foiID = binary.BigEndian.Uint64(b[8:16])
	resultTime, err = DecodeInstant(b[16:28])
	if err != nil {
		return 0, 0, Instant{}, err
	}
	return streamID, foiID, resultTime, nil
}

// SeriesByFoiKey builds the "SeriesByFoi" secondary index key, the same
// fields as SeriesKey with foiId and streamId swapped so a foiId-driven
// query can range-scan with a fixed foiId prefix instead.
func SeriesByFoiKey(foiID, streamID uint64, resultTime Instant) []byte {
	buf := make([]byte, 0, SeriesKeyLen)
	buf = putFixedUint64(buf, foiID)
	buf = putFixedUint64(buf, streamID)
	return resultTime.AppendTo(buf)
}

// DecodeSeriesByFoiKey splits a SeriesByFoiKey back into its fields.
func DecodeSeriesByFoiKey(b []byte) (foiID, streamID uint64, resultTime Instant, err error) {
	if len(b) != SeriesKeyLen {
		return 0, 0, Instant{}, fmt.Errorf("codec: malformed series-by-foi key: want %d bytes, got %d", SeriesKeyLen, len(b))
	}
	foiID = binary.BigEndian.Uint64(b[0:8])
	streamID = binary.BigEndian.Uint64(b[8:16])
	resultTime, err = DecodeInstant(b[16:28])
	if err != nil {
		return 0, 0, Instant{}, err
	}
	return foiID, streamID, resultTime, nil
}

// SeriesIDPrefix returns the fixed-width big-endian prefix used to
// range-scan SeriesKey/SeriesByFoiKey entries for a single leading id
// (streamId or foiId respectively), from resultTime = −∞.
func SeriesIDPrefix(id uint64) []byte {
	return putFixedUint64(make([]byte, 0, 8), id)
}

// FixedIDUpperBound returns the exclusive upper bound that, paired with
// SeriesIDPrefix(id), bounds every SeriesKey/SeriesByFoiKey entry whose
// leading fixed-width id equals id — i.e. SeriesIDPrefix(id+1), computed
// without risking overflow when id is the maximum uint64.
func FixedIDUpperBound(id uint64) []byte {
	if id == ^uint64(0) {
		// No id+1 exists; every real entry sorts below an all-0xFF key one
		// byte longer than the 8-byte prefix.
		return append(SeriesIDPrefix(id), 0xFF)
	}
	return SeriesIDPrefix(id + 1)
}

// SeriesRecordBounds returns a [lower, upper) range that contains exactly
// the RecordKey entries for one seriesId and nothing else, despite the
// varint-encoded seriesId prefix not being globally order-preserving
// (spec.md §4.1 notes varLong ordering only holds within one seriesId).
// lower is RecordKey(seriesID, −∞); upper is one byte longer than
// RecordKey(seriesID, +∞) so it sorts strictly above every real key
// sharing the same varint prefix, while any key whose varint prefix
// differs diverges from lower/upper at the same earlier byte position and
// so falls outside the range on one side or the other.
func SeriesRecordBounds(seriesID uint64) (lower, upper []byte) {
	prefix := make([]byte, 0, binary.MaxVarintLen64)
	prefix = putUvarint(prefix, seriesID)
	lower = append(append([]byte{}, prefix...), NegInf.Encode()[:]...)
	upperBuf := append(append([]byte{}, prefix...), PosInf.Encode()[:]...)
	upper = append(upperBuf, 0xFF)
	return lower, upper
}
