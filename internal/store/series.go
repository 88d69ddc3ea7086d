// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package store

import (
	"encoding/binary"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
)

// SeriesInfo is the reverse lookup spec.md §9 implies but never names:
// given only a seriesId (as decoded from a RecordKey or a public
// observation id), recover the triple that formed it. Kept in its own
// namespace rather than re-derived by scanning SeriesByStream, since the
// query planner and statistics engine both need this by seriesId alone
// once a series has been selected.
type SeriesInfo struct {
	StreamID   uint64
	FoiID      uint64
	ResultTime codec.Instant // -inf when resultTime == phenomenonTime for the whole series
}

var seriesCounterKey = codec.WithNamespace(codec.NSSeriesCounter, nil)

func seriesInfoKey(seriesID uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seriesID)
	return codec.WithNamespace(codec.NSSeriesInfo, buf)
}

func nextSeriesID(txn *engine.Txn) (uint64, error) {
	val, err := txn.Get(seriesCounterKey)
	if err == errs.ErrNotFound {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(val) + 1, nil
}

func putSeriesCounter(txn *engine.Txn, seriesID uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seriesID)
	return txn.Set(seriesCounterKey, buf)
}

// getOrCreateSeriesTx implements spec.md §4.3 step 3: compute-if-absent on
// SeriesByStream[(streamId, foiId, resultTime)], minting a fresh seriesId
// from max(existing)+1 on miss and mirroring the new entry into
// SeriesByFoi, SeriesInfo, and the monotonic counter atomically.
func getOrCreateSeriesTx(txn *engine.Txn, streamID, foiID uint64, storedResultTime codec.Instant) (uint64, error) {
	byStreamKey := codec.WithNamespace(codec.NSSeriesByStream, codec.SeriesKey(streamID, foiID, storedResultTime))

	if existing, err := txn.Get(byStreamKey); err == nil {
		return binary.BigEndian.Uint64(existing), nil
	} else if err != errs.ErrNotFound {
		return 0, err
	}

	seriesID, err := nextSeriesID(txn)
	if err != nil {
		return 0, err
	}

	idVal := make([]byte, 8)
	binary.BigEndian.PutUint64(idVal, seriesID)

	if err := txn.Set(byStreamKey, idVal); err != nil {
		return 0, err
	}
	byFoiKey := codec.WithNamespace(codec.NSSeriesByFoi, codec.SeriesByFoiKey(foiID, streamID, storedResultTime))
	if err := txn.Set(byFoiKey, idVal); err != nil {
		return 0, err
	}
	info := SeriesInfo{StreamID: streamID, FoiID: foiID, ResultTime: storedResultTime}
	if err := putSeriesInfo(txn, seriesID, info); err != nil {
		return 0, err
	}
	if err := putSeriesCounter(txn, seriesID); err != nil {
		return 0, err
	}
	return seriesID, nil
}

func putSeriesInfo(txn *engine.Txn, seriesID uint64, info SeriesInfo) error {
	buf := make([]byte, 0, 8+8+codec.InstantLen)
	tmp := make([]byte, 8)
	binary.BigEndian.PutUint64(tmp, info.StreamID)
	buf = append(buf, tmp...)
	binary.BigEndian.PutUint64(tmp, info.FoiID)
	buf = append(buf, tmp...)
	buf = info.ResultTime.AppendTo(buf)
	return txn.Set(seriesInfoKey(seriesID), buf)
}

func decodeSeriesInfo(b []byte) (SeriesInfo, error) {
	if len(b) != 8+8+codec.InstantLen {
		return SeriesInfo{}, errs.ErrCorruption
	}
	streamID := binary.BigEndian.Uint64(b[0:8])
	foiID := binary.BigEndian.Uint64(b[8:16])
	resultTime, err := codec.DecodeInstant(b[16:])
	if err != nil {
		return SeriesInfo{}, err
	}
	return SeriesInfo{StreamID: streamID, FoiID: foiID, ResultTime: resultTime}, nil
}

// GetSeriesInfoTx resolves a seriesId to the triple that formed it.
func GetSeriesInfoTx(txn *engine.Txn, seriesID uint64) (SeriesInfo, error) {
	val, err := txn.Get(seriesInfoKey(seriesID))
	if err != nil {
		return SeriesInfo{}, err
	}
	return decodeSeriesInfo(val)
}

// GetSeriesInfo is GetSeriesInfoTx wrapped in its own read transaction.
func (s *Store) GetSeriesInfo(seriesID uint64) (SeriesInfo, error) {
	var info SeriesInfo
	err := s.eng.View(func(txn *engine.Txn) error {
		var err error
		info, err = GetSeriesInfoTx(txn, seriesID)
		return err
	})
	return info, err
}

func deleteSeriesTx(txn *engine.Txn, seriesID uint64, info SeriesInfo) error {
	byStreamKey := codec.WithNamespace(codec.NSSeriesByStream, codec.SeriesKey(info.StreamID, info.FoiID, info.ResultTime))
	byFoiKey := codec.WithNamespace(codec.NSSeriesByFoi, codec.SeriesByFoiKey(info.FoiID, info.StreamID, info.ResultTime))
	if err := txn.Delete(byStreamKey); err != nil {
		return err
	}
	if err := txn.Delete(byFoiKey); err != nil {
		return err
	}
	return txn.Delete(seriesInfoKey(seriesID))
}
