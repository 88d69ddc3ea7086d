// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package codec

import (
	"encoding/binary"
	"fmt"
	"time"
)

// EncodeDuration varint-encodes a bin width in whole seconds. Durations are
// never embedded in a sort key (spec.md §4.1); they only ever appear as
// histogram bin-width metadata, so a compact varint is preferred over the
// fixed Instant layout.
func EncodeDuration(d time.Duration) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, uint64(d/time.Second))
	return buf[:n]
}

// DecodeDuration reads a varint-encoded bin width and reports how many
// bytes of b it consumed.
func DecodeDuration(b []byte) (time.Duration, int, error) {
	sec, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, fmt.Errorf("codec: malformed duration varint")
	}
	return time.Duration(sec) * time.Second, n, nil
}

// putUvarint appends a varint-encoded uint64 to dst.
func putUvarint(dst []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}
