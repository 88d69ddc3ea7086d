// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package store

import (
	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/registry"
)

// Store composes the three correlated observation indexes (ObsRecords,
// SeriesByStream, SeriesByFoi) and the feature-of-interest and stream
// registries over one Engine, the way the teacher's factory wires a single
// badger handle under several key-prefixed views and then treats the
// result as one unit (spec.md §9's builder note: wire cross-references
// after each sub-store opens, then freeze the graph).
type Store struct {
	eng      *engine.Engine
	registry *registry.Registry
}

// New builds a Store over an already-open Engine and Registry. The caller
// (the top-level obsstore.Store) owns opening and closing the Engine.
func New(eng *engine.Engine, reg *registry.Registry) *Store {
	return &Store{eng: eng, registry: reg}
}

// Engine exposes the underlying engine for components (query, stats,
// compaction) that need direct cursor access beyond this package's API.
func (s *Store) Engine() *engine.Engine { return s.eng }

// Registry exposes the stream registry composed into this store.
func (s *Store) Registry() *registry.Registry { return s.registry }

// ExecuteTransaction runs fn under the write gate with rollback-on-error,
// exposing spec.md §4.6's pattern to callers batching multiple
// modifications atomically.
func (s *Store) ExecuteTransaction(fn func(txn *engine.Txn) error) error {
	return s.eng.Update(fn)
}

// Clear removes every entry from the three observation indexes, the foi
// registry, and the series counter, but leaves stream registrations
// intact (clearing observations is not the same as deleting streams).
func (s *Store) Clear() error {
	return s.eng.Update(func(txn *engine.Txn) error {
		for _, ns := range []codec.Namespace{
			codec.NSObsRecords, codec.NSSeriesByStream, codec.NSSeriesByFoi,
			codec.NSSeriesCounter, codec.NSSeriesInfo, codec.NSFoi, codec.NSFoiIdentity,
		} {
			if err := clearNamespace(txn, ns); err != nil {
				return err
			}
		}
		return nil
	})
}

func clearNamespace(txn *engine.Txn, ns codec.Namespace) error {
	c := txn.Cursor(codec.NamespacePrefix(ns), codec.NamespaceUpperBound(ns), false)
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

// Size returns the number of live observation series (spec.md §6's
// ObsStore.size).
func (s *Store) Size() (int64, error) {
	var n int64
	err := s.eng.View(func(txn *engine.Txn) error {
		var err error
		n, err = txn.CountRange(codec.NamespacePrefix(codec.NSSeriesByStream), codec.NamespaceUpperBound(codec.NSSeriesByStream))
		return err
	})
	return n, err
}

// NumRecords returns the number of observation records across every
// series (spec.md §6's ObsStore.numRecords).
func (s *Store) NumRecords() (int64, error) {
	var n int64
	err := s.eng.View(func(txn *engine.Txn) error {
		var err error
		n, err = txn.CountRange(codec.NamespacePrefix(codec.NSObsRecords), codec.NamespaceUpperBound(codec.NSObsRecords))
		return err
	})
	return n, err
}

// RunValueLogGC reclaims stale value-log space, following the teacher's
// WAL compactor pairing its own entry GC with a badger value-log GC pass.
func (s *Store) RunValueLogGC(ratio float64) error {
	return s.eng.RunValueLogGC(ratio)
}
