// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package store

import (
	"encoding/binary"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
)

// DeleteStream implements spec.md §4.3's cascading removal: walk
// SeriesByStream over the prefix (streamId, *), and for each entry remove
// every ObsRecords entry in the prefix (seriesId, *) plus the
// SeriesByStream/SeriesByFoi/SeriesInfo rows, then drop the registry
// entry itself. Ownership is each stream owns its series, each series
// owns its observations (spec.md §3); this is the one operation that
// walks the whole chain in one atomic transaction.
func (s *Store) DeleteStream(streamID uint64) error {
	return s.eng.Update(func(txn *engine.Txn) error {
		lower := codec.WithNamespace(codec.NSSeriesByStream, codec.SeriesIDPrefix(streamID))
		upper := codec.WithNamespace(codec.NSSeriesByStream, codec.FixedIDUpperBound(streamID))

		var seriesIDs []uint64
		c := txn.Cursor(lower, upper, false)
		for c.Valid() {
			val, err := c.Value()
			if err != nil {
				c.Close()
				return err
			}
			seriesIDs = append(seriesIDs, decodeSeriesIDValue(val))
			c.Next()
		}
		c.Close()

		for _, seriesID := range seriesIDs {
			info, err := GetSeriesInfoTx(txn, seriesID)
			if err != nil {
				return err
			}
			recLower, recUpper := codec.SeriesRecordBounds(seriesID)
			if err := deleteRange(txn, codec.WithNamespace(codec.NSObsRecords, recLower), codec.WithNamespace(codec.NSObsRecords, recUpper)); err != nil {
				return err
			}
			if err := deleteSeriesTx(txn, seriesID, info); err != nil {
				return err
			}
		}

		return s.registry.Remove(txn, streamID)
	})
}

func decodeSeriesIDValue(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func deleteRange(txn *engine.Txn, lower, upper []byte) error {
	c := txn.Cursor(lower, upper, false)
	defer c.Close()
	var keys [][]byte
	for c.Valid() {
		keys = append(keys, c.Key())
		c.Next()
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
