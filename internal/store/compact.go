// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package store

import (
	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
)

// CompactEmptySeries walks every registered series and removes the ones
// left with zero records: a series is minted the first time a
// (streamId, foiId, resultTime) triple is observed (getOrCreateSeriesTx)
// and spec.md never describes a path that deletes it again short of
// DeleteStream, so a high-churn stream (many resultTime runs, each
// written once) leaks SeriesByStream/SeriesByFoi/SeriesInfo rows over
// time even though every one of their ObsRecords entries was later
// removed by the caller. It returns the number of series removed.
func (s *Store) CompactEmptySeries() (int64, error) {
	var removed int64
	err := s.eng.Update(func(txn *engine.Txn) error {
		lower := codec.NamespacePrefix(codec.NSSeriesByStream)
		upper := codec.NamespaceUpperBound(codec.NSSeriesByStream)

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
			recLower, recUpper := codec.SeriesRecordBounds(seriesID)
			n, err := txn.CountRange(codec.WithNamespace(codec.NSObsRecords, recLower), codec.WithNamespace(codec.NSObsRecords, recUpper))
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			info, err := GetSeriesInfoTx(txn, seriesID)
			if err != nil {
				return err
			}
			if err := deleteSeriesTx(txn, seriesID, info); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
