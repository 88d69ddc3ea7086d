// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package store

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/metrics"
)

// AddRequest is the caller-supplied shape for a new observation. FoiID is
// the external string identifier; Store resolves (and lazily registers)
// the internal foiId the same transaction writes under.
type AddRequest struct {
	StreamID         uint64
	FoiID            string
	ResultTime       time.Time
	PhenomenonTime   time.Time
	Result           json.RawMessage
	SamplingGeometry []byte
}

func obsRecordsKey(seriesID uint64, phenomenonTime codec.Instant) []byte {
	return codec.WithNamespace(codec.NSObsRecords, codec.RecordKey(seriesID, phenomenonTime))
}

// normalizeResultTime implements spec.md §4.3 step 1: when resultTime
// equals phenomenonTime (the common sensor case), the series is keyed by
// -inf instead, so every reading from a plain sensor collapses into one
// series per (stream, foi) instead of one per timestamp.
func normalizeResultTime(resultTime, phenomenonTime time.Time) codec.Instant {
	if resultTime.Equal(phenomenonTime) {
		return codec.NegInf
	}
	return codec.FromTime(resultTime)
}

// Add implements spec.md §4.3's write path: resolve the foi, compute the
// normalized series key, compute-if-absent the series, then write the
// record under (seriesId, phenomenonTime). All three map updates and the
// foi/series lookups happen inside one engine.Update, so a failure at any
// step leaves no partial mutation visible (the rollback-on-error pattern
// of spec.md §4.6).
func (s *Store) Add(req AddRequest) ([]byte, error) {
	timer := metrics.WriteLatency.WithLabelValues("add")
	start := time.Now()
	defer func() { timer.Observe(time.Since(start).Seconds()) }()

	var publicID []byte
	err := s.eng.Update(func(txn *engine.Txn) error {
		writable, err := s.registry.IsWritableTx(txn, req.StreamID)
		if err != nil {
			if err == errs.ErrNotFound {
				metrics.WriteErrors.WithLabelValues("add", "unknown_stream").Inc()
				return errs.ErrUnknownStream
			}
			return err
		}
		if !writable {
			metrics.WriteErrors.WithLabelValues("add", "retired").Inc()
			return errs.ErrStreamRetired
		}

		foiID, err := getOrCreateFoiTx(txn, req.FoiID)
		if err != nil {
			return err
		}

		storedResultTime := normalizeResultTime(req.ResultTime, req.PhenomenonTime)
		seriesID, err := getOrCreateSeriesTx(txn, req.StreamID, foiID, storedResultTime)
		if err != nil {
			return err
		}

		phenomenonInstant := codec.FromTime(req.PhenomenonTime)
		record := ObservationRecord{
			StreamID:         req.StreamID,
			FoiID:            foiID,
			ResultTime:       req.ResultTime,
			PhenomenonTime:   req.PhenomenonTime,
			Result:           req.Result,
			SamplingGeometry: req.SamplingGeometry,
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := txn.Set(obsRecordsKey(seriesID, phenomenonInstant), data); err != nil {
			return err
		}

		publicID = codec.PublicID(seriesID, phenomenonInstant)
		return nil
	})
	if err != nil {
		if err != errs.ErrUnknownStream && err != errs.ErrStreamRetired {
			metrics.WriteErrors.WithLabelValues("add", "transient").Inc()
		}
		return nil, err
	}
	metrics.ObservationCount.Inc()
	return publicID, nil
}

// Get decodes publicID and performs a primary-key lookup. A malformed id
// returns ErrNotFound rather than aborting the call (spec.md §4.3: "a
// malformed id returns not found, never an error that aborts the query").
func (s *Store) Get(publicID []byte) (Observation, error) {
	seriesID, phenomenonTime, err := codec.DecodePublicID(publicID)
	if err != nil {
		return Observation{}, errs.ErrNotFound
	}
	var record ObservationRecord
	err = s.eng.View(func(txn *engine.Txn) error {
		data, err := txn.Get(obsRecordsKey(seriesID, phenomenonTime))
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return Observation{}, err
	}
	return Observation{ID: publicID, Record: record}, nil
}

// ContainsKey reports whether publicID currently resolves to a record,
// turning Get's ErrNotFound (missing record or malformed id) into false.
func (s *Store) ContainsKey(publicID []byte) (bool, error) {
	_, err := s.Get(publicID)
	if err == nil {
		return true, nil
	}
	if err == errs.ErrNotFound {
		return false, nil
	}
	return false, err
}

// Put replaces (or creates) the record addressed by publicID in place.
// Unlike Add, it never mints a new series or seriesId: publicID already
// names the exact (seriesId, phenomenonTime) slot, so Put only needs to
// validate the owning stream is still known and overwrite the value,
// matching spec.md §5's "last write wins" concurrency note.
func (s *Store) Put(publicID []byte, req AddRequest) error {
	timer := metrics.WriteLatency.WithLabelValues("put")
	start := time.Now()
	defer func() { timer.Observe(time.Since(start).Seconds()) }()

	seriesID, phenomenonTime, err := codec.DecodePublicID(publicID)
	if err != nil {
		return errs.ErrNotFound
	}

	err = s.eng.Update(func(txn *engine.Txn) error {
		if _, err := s.registry.GetTx(txn, req.StreamID); err != nil {
			if err == errs.ErrNotFound {
				return errs.ErrUnknownStream
			}
			return err
		}
		foiID, err := getOrCreateFoiTx(txn, req.FoiID)
		if err != nil {
			return err
		}
		record := ObservationRecord{
			StreamID:         req.StreamID,
			FoiID:            foiID,
			ResultTime:       req.ResultTime,
			PhenomenonTime:   req.PhenomenonTime,
			Result:           req.Result,
			SamplingGeometry: req.SamplingGeometry,
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(obsRecordsKey(seriesID, phenomenonTime), data)
	})
	if err != nil {
		if err == errs.ErrNotFound {
			return errs.ErrNotFound
		}
		metrics.WriteErrors.WithLabelValues("put", "transient").Inc()
	}
	return err
}

// Remove deletes the record at publicID but never touches the owning
// series entry (spec.md §4.3: empty series are reclaimed only by explicit
// compaction, never by ordinary removal, since sensors routinely
// resurrect previously-empty series).
func (s *Store) Remove(publicID []byte) error {
	timer := metrics.WriteLatency.WithLabelValues("remove")
	start := time.Now()
	defer func() { timer.Observe(time.Since(start).Seconds()) }()

	seriesID, phenomenonTime, err := codec.DecodePublicID(publicID)
	if err != nil {
		return errs.ErrNotFound
	}
	key := obsRecordsKey(seriesID, phenomenonTime)
	err = s.eng.Update(func(txn *engine.Txn) error {
		if ok, err := txn.Has(key); err != nil {
			return err
		} else if !ok {
			return errs.ErrNotFound
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	metrics.ObservationCount.Dec()
	return nil
}
