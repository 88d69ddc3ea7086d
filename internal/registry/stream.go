// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package registry

import "time"

// IDStrategy selects how new stream ids are minted. Configured once at
// store open and immutable for the life of the store file.
type IDStrategy string

const (
	// Sequential assigns monotonically increasing ids from max(existing)+1.
	Sequential IDStrategy = "sequential"
	// UIDHash assigns a deterministic 48-bit id derived from the stream's
	// identity tuple, probing upward on collision.
	UIDHash IDStrategy = "uid_hash"
)

// LifecycleState is the stream state machine of spec.md §4.6.
type LifecycleState string

const (
	StateLive    LifecycleState = "live"
	StateRetired LifecycleState = "retired"
)

// StreamInfo is the metadata registered for one data stream.
type StreamInfo struct {
	StreamID        uint64
	SystemID        string
	OutputName      string
	ValidTimeStart  time.Time
	ValidTimeEnd    *time.Time // nil while Live
	Structure       RecordStructure
	Encoding        string
	State           LifecycleState
}

// RecordStructure describes the shape of the observation payload a stream
// produces: a tagged tree of scalars and composites (spec.md §9 "dynamic
// typing of records"). The storage layer treats it as opaque metadata; it
// never inspects the result payload beyond what this structure says, and
// delegates actual (de)serialization to Encoding.
type RecordStructure struct {
	Fields []FieldDescriptor
}

// FieldDescriptor names one leaf or composite field of a RecordStructure.
type FieldDescriptor struct {
	Name          string
	Kind          FieldKind
	Unit          string
	ObservablePropertyURI string
	Children      []FieldDescriptor // non-empty only when Kind == FieldRecord or FieldVector
}

// FieldKind enumerates the scalar/composite shapes a FieldDescriptor can take.
type FieldKind string

const (
	FieldScalar FieldKind = "scalar"
	FieldRecord FieldKind = "record"
	FieldVector FieldKind = "vector"
)

// identityKey is the (systemId, outputName, validTimeStart) triple that
// uniquely names a stream registration, used both as the idempotency key
// for getOrCreateStream and as the hash input for UIDHash.
type identityKey struct {
	SystemID       string
	OutputName     string
	ValidTimeStart int64 // unix millis, per spec.md §4.2's hash input
}
