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

// InstantLen is the fixed width, in bytes, of an encoded Instant.
const InstantLen = 12

// signBit flips a signed 64-bit seconds count into an unsigned-lex-sortable
// form; equivalent to biasing by adding 2^63 (spec.md §4.1).
const signBit = uint64(1) << 63

type instantKind uint8

const (
	instantReal instantKind = iota
	instantNegInf
	instantPosInf
)

// Instant is a phenomenon/result timestamp with nanosecond precision, or
// one of the two sentinel values −∞ / +∞ that bound an open-ended range.
type Instant struct {
	t    time.Time
	kind instantKind
}

// NegInf sorts below every real Instant.
var NegInf = Instant{kind: instantNegInf}

// PosInf sorts above every real Instant.
var PosInf = Instant{kind: instantPosInf}

// FromTime wraps a concrete timestamp as a real Instant.
func FromTime(t time.Time) Instant {
	return Instant{t: t.UTC(), kind: instantReal}
}

// IsNegInf reports whether i is the −∞ sentinel.
func (i Instant) IsNegInf() bool { return i.kind == instantNegInf }

// IsPosInf reports whether i is the +∞ sentinel.
func (i Instant) IsPosInf() bool { return i.kind == instantPosInf }

// IsReal reports whether i carries a concrete timestamp.
func (i Instant) IsReal() bool { return i.kind == instantReal }

// Time returns the wrapped timestamp. Only meaningful when IsReal is true.
func (i Instant) Time() time.Time { return i.t }

// Equal reports whether two instants denote the same point (or sentinel).
func (i Instant) Equal(o Instant) bool {
	if i.kind != o.kind {
		return false
	}
	if i.kind != instantReal {
		return true
	}
	return i.t.Equal(o.t)
}

// Before reports whether i sorts strictly before o.
func (i Instant) Before(o Instant) bool {
	return compareInstant(i, o) < 0
}

// Compare returns -1, 0, or 1 as i sorts before, equal to, or after o,
// consistent with unsigned-lex order on the encoded form (spec.md §8
// property 2) without paying the encoding cost.
func (i Instant) Compare(o Instant) int {
	return compareInstant(i, o)
}

// compareInstant orders sentinels around reals without encoding, for use in
// hot paths that don't need the wire form.
func compareInstant(a, b Instant) int {
	rank := func(x Instant) int {
		switch x.kind {
		case instantNegInf:
			return -1
		case instantPosInf:
			return 1
		default:
			return 0
		}
	}
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if ra != 0 {
		return 0 // both sentinels of the same kind
	}
	switch {
	case a.t.Before(b.t):
		return -1
	case a.t.After(b.t):
		return 1
	default:
		return 0
	}
}

// Encode writes the 12-byte wire form of i: all-zero for −∞, all-one for
// +∞, otherwise 8 bytes big-endian sign-biased seconds followed by 4 bytes
// big-endian nanos-of-second.
func (i Instant) Encode() [InstantLen]byte {
	var buf [InstantLen]byte
	switch i.kind {
	case instantNegInf:
		return buf
	case instantPosInf:
		for idx := range buf {
			buf[idx] = 0xFF
		}
		return buf
	}
	biased := uint64(i.t.Unix()) ^ signBit
	binary.BigEndian.PutUint64(buf[0:8], biased)
	binary.BigEndian.PutUint32(buf[8:12], uint32(i.t.Nanosecond()))
	return buf
}

// AppendTo appends the encoded form of i to dst and returns the result.
func (i Instant) AppendTo(dst []byte) []byte {
	enc := i.Encode()
	return append(dst, enc[:]...)
}

// DecodeInstant decodes a 12-byte wire form produced by Instant.Encode.
func DecodeInstant(b []byte) (Instant, error) {
	if len(b) != InstantLen {
		return Instant{}, fmt.Errorf("codec: instant must be %d bytes, got %d", InstantLen, len(b))
	}
	if isAllZero(b) {
		return NegInf, nil
	}
	if isAllOnes(b) {
		return PosInf, nil
	}
	biased := binary.BigEndian.Uint64(b[0:8])
	sec := int64(biased ^ signBit)
	nanos := int64(binary.BigEndian.Uint32(b[8:12]))
	return FromTime(time.Unix(sec, nanos)), nil
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func isAllOnes(b []byte) bool {
	for _, c := range b {
		if c != 0xFF {
			return false
		}
	}
	return true
}
