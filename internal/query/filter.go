// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package query

import (
	"time"

	"github.com/goccy/go-json"
)

// TemporalKind enumerates the variants a phenomenon/result time filter can
// take (spec.md §4.4), collapsed into one small string enum rather than
// a class hierarchy per spec.md §9's design note.
type TemporalKind string

const (
	// AllTimes matches every value; the zero value of TemporalFilter.
	AllTimes TemporalKind = ""
	// CurrentTime selects the single record with the greatest time <= now.
	CurrentTime TemporalKind = "current_time"
	// LatestTime selects the single record with the greatest time overall.
	LatestTime TemporalKind = "latest_time"
	// RangeTime selects a half-open [Begin, End) interval.
	RangeTime TemporalKind = "range"
	// AtTime selects records at exactly one instant.
	AtTime TemporalKind = "at"
)

// TemporalFilter is one of the five shapes spec.md §4.4 names for a
// phenomenonTime or resultTime predicate.
type TemporalFilter struct {
	Kind  TemporalKind
	Begin time.Time // RangeTime: inclusive lower bound
	End   time.Time // RangeTime: exclusive upper bound
	At    time.Time // AtTime: the exact instant
}

// Range builds a [begin, end) TemporalFilter.
func Range(begin, end time.Time) TemporalFilter {
	return TemporalFilter{Kind: RangeTime, Begin: begin, End: end}
}

// At builds an exact-instant TemporalFilter.
func At(t time.Time) TemporalFilter {
	return TemporalFilter{Kind: AtTime, At: t}
}

// ValuePredicate is a post-decode filter applied to an observation's
// result payload (spec.md §4.4's valuePredicate). Predicate exceptions
// (panics) are not recovered: per spec.md §7, "post-filter predicate
// exceptions terminate the stream with the exception."
type ValuePredicate func(result json.RawMessage) bool

// LocationPredicate is a post-decode spatial filter applied to an
// observation's sampling geometry (spec.md §4.4's phenomenonLocation).
type LocationPredicate func(samplingGeometry []byte) bool

// ObservationFilter is the declarative query shape of spec.md §4.4.
type ObservationFilter struct {
	// InternalIDs short-circuits planning: each id is decoded and
	// direct-get, with ValuePredicate applied post-hoc. Every other field
	// is ignored when this is non-empty.
	InternalIDs [][]byte

	// StreamIDs and FoiIDs are the already-resolved driving sets; nil
	// means "no constraint on this dimension" (spec.md §4.4's table).
	StreamIDs []uint64
	FoiIDs    []uint64

	PhenomenonTime TemporalFilter
	ResultTime     TemporalFilter

	ValuePredicate     ValuePredicate
	PhenomenonLocation LocationPredicate

	// Limit caps the number of merged results returned; 0 means
	// unlimited.
	Limit int

	// MaxSeries overrides the planner's default safety cap (10,000); 0
	// means use the default.
	MaxSeries int

	// Now overrides the wall clock CurrentTime resolves against; nil
	// means time.Now().
	Now func() time.Time
}

func (f ObservationFilter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f ObservationFilter) maxSeries() int {
	if f.MaxSeries > 0 {
		return f.MaxSeries
	}
	return DefaultMaxSeries
}
