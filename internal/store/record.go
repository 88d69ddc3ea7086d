// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package store

import (
	"time"

	"github.com/goccy/go-json"
)

// ObservationRecord is the value stored at an ObsRecords entry. It carries
// its own real, un-normalized resultTime and the denormalized foiId
// (spec.md §4.3 step 4 and §3's Observation row) so a reader never needs
// to join back to SeriesByStream to answer "what foi/resultTime is this".
type ObservationRecord struct {
	StreamID       uint64
	FoiID          uint64
	ResultTime     time.Time
	PhenomenonTime time.Time
	Result         json.RawMessage
	// SamplingGeometry is an opaque per-observation location payload,
	// populated from the write request's SamplingGeometry; this layer
	// stores and returns it but never indexes or interprets it.
	SamplingGeometry []byte `json:",omitempty"`
}

// Observation is the caller-facing read shape: the record plus the opaque
// id that addresses it.
type Observation struct {
	ID     []byte
	Record ObservationRecord
}
