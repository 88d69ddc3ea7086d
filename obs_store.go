// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package obsstore

import (
	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/stats"
	"github.com/tomtom215/obsstore/internal/store"
)

// ObsStore is spec.md §6's ObsStore surface: the point read/write API
// composed with the query planner and statistics engine, so a caller
// holding one handle gets every operation the spec lists without reaching
// into internal packages.
type ObsStore struct {
	st    *store.Store
	ex    *query.Executor
	stats *stats.Engine
}

// Get is a point read by opaque id.
func (o *ObsStore) Get(opaqueID []byte) (store.Observation, error) {
	return o.st.Get(opaqueID)
}

// ContainsKey reports whether opaqueID names a live observation.
func (o *ObsStore) ContainsKey(opaqueID []byte) (bool, error) {
	return o.st.ContainsKey(opaqueID)
}

// Size returns the number of live series.
func (o *ObsStore) Size() (int64, error) { return o.st.Size() }

// NumRecords returns the number of observation records across every series.
func (o *ObsStore) NumRecords() (int64, error) { return o.st.NumRecords() }

// SelectEntries returns an iterator over (opaqueId, observation) pairs
// matching filter, merged in phenomenonTime order.
func (o *ObsStore) SelectEntries(filter query.ObservationFilter) (*query.Result, error) {
	return o.ex.SelectEntries(filter)
}

// SelectKeys projects SelectEntries down to opaque ids only.
func (o *ObsStore) SelectKeys(filter query.ObservationFilter) (*query.KeysResult, error) {
	return o.ex.SelectKeys(filter)
}

// SelectResults projects SelectEntries down to result payloads only.
func (o *ObsStore) SelectResults(filter query.ObservationFilter) (*query.ResultsResult, error) {
	return o.ex.SelectResults(filter)
}

// SelectObservedFois returns the distinct foiIds contributing at least one
// record to filter's matching series.
func (o *ObsStore) SelectObservedFois(filter query.ObservationFilter) ([]uint64, error) {
	return o.ex.SelectObservedFois(filter)
}

// CountMatchingEntries counts observations matching filter without
// decoding them.
func (o *ObsStore) CountMatchingEntries(filter query.ObservationFilter) (int64, error) {
	return o.ex.CountMatchingEntries(filter)
}

// GetStatistics computes totalObsCount and, optionally, a histogram over
// q's matching series.
func (o *ObsStore) GetStatistics(q stats.Query) ([]stats.ObsStats, error) {
	return o.stats.GetStatistics(q)
}

// Add registers a new observation, minting its series on first write to a
// given (streamId, foiId, resultTime) triple.
func (o *ObsStore) Add(req store.AddRequest) ([]byte, error) {
	return o.st.Add(req)
}

// Put overwrites the observation named by opaqueID.
func (o *ObsStore) Put(opaqueID []byte, req store.AddRequest) error {
	return o.st.Put(opaqueID, req)
}

// Remove deletes the observation named by opaqueID. The series metadata
// is left in place; an empty series is reclaimed by compaction, not by
// Remove itself.
func (o *ObsStore) Remove(opaqueID []byte) error {
	return o.st.Remove(opaqueID)
}

// Clear removes every observation, series, and foi registration, leaving
// stream registrations intact.
func (o *ObsStore) Clear() error {
	return o.st.Clear()
}
