// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package codec

// Namespace prefixes the single underlying badger keyspace into the
// three named sub-stores spec.md §6 describes (proc_store, foi_store,
// obs_store) plus their secondary indexes. A one-byte prefix is cheap and
// keeps every sub-store's keys contiguous for range scans, the same
// prefix-partitioning trick the teacher uses for session vs.
// session-by-user keys (internal/auth/session_badger.go).
type Namespace byte

const (
	NSStream         Namespace = 0x01 // proc_store: streamId -> StreamInfo
	NSStreamIdentity Namespace = 0x02 // proc_store: identity tuple -> streamId
	NSFoi            Namespace = 0x03 // foi_store: foiId -> FoiInfo
	NSFoiIdentity    Namespace = 0x04 // foi_store: string id -> foiId
	NSObsRecords     Namespace = 0x05 // obs_store: RecordKey -> observation
	NSSeriesByStream Namespace = 0x06 // obs_store: SeriesKey -> seriesId
	NSSeriesByFoi    Namespace = 0x07 // obs_store: SeriesByFoiKey -> seriesId
	NSSeriesCounter  Namespace = 0x08 // obs_store: singleton -> last-assigned seriesId
	NSSeriesInfo     Namespace = 0x09 // obs_store: u64(seriesId) -> (streamId, foiId, storedResultTime)
)

// WithNamespace prepends ns to key, the form every namespaced lookup and
// range scan in this codebase uses.
func WithNamespace(ns Namespace, key []byte) []byte {
	out := make([]byte, 0, 1+len(key))
	out = append(out, byte(ns))
	return append(out, key...)
}

// NamespacePrefix returns the single-byte prefix bounding every key in ns,
// usable directly as a range-scan lower bound.
func NamespacePrefix(ns Namespace) []byte {
	return []byte{byte(ns)}
}

// NamespaceUpperBound returns the exclusive upper bound of ns's keyspace,
// i.e. the prefix of the next namespace, suitable as a range-scan upper
// bound.
func NamespaceUpperBound(ns Namespace) []byte {
	return []byte{byte(ns) + 1}
}
