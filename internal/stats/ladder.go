// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package stats

import "time"

// binLadder is the curated set of bin widths spec.md §4.5 names for
// auto-selecting a histogram width, ascending so ChooseBinWidth can stop at
// the first width that no longer satisfies its target.
var binLadder = []time.Duration{
	time.Second,
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
	30 * time.Second,
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	20 * time.Minute,
	30 * time.Minute,
	time.Hour,
	2 * time.Hour,
	4 * time.Hour,
	6 * time.Hour,
	8 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
	2 * 24 * time.Hour,
	4 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	30 * 24 * time.Hour,
	60 * 24 * time.Hour,
	90 * 24 * time.Hour,
	120 * 24 * time.Hour,
	180 * 24 * time.Hour,
	365 * 24 * time.Hour,
}

// ChooseBinWidth picks the ladder entry that keeps a histogram over
// duration at roughly 100-200 bins (spec.md §4.5, worked example S5): the
// largest ladder width that still yields at least 100 bins, clamped to the
// ladder's own bounds at either extreme. Ladder entries are walked
// ascending, so the first one whose bin count drops below 100 means every
// larger entry would too; the previous entry is the answer. A duration of
// 1000s with this rule picks 10s (100 bins of 100 each), matching spec.md
// §8 scenario S5 exactly — the spec's prose ("nearest to durationSeconds /
// 200") would instead land on 5s/200 bins for that example, so this
// ladder-walk is the reading taken as authoritative; see DESIGN.md.
func ChooseBinWidth(duration time.Duration) time.Duration {
	if duration <= 0 {
		return binLadder[0]
	}
	best := binLadder[0]
	for _, w := range binLadder {
		bins := ceilDiv(duration, w)
		if bins < 100 {
			break
		}
		best = w
	}
	return best
}

func ceilDiv(d, w time.Duration) int64 {
	if w <= 0 {
		return 0
	}
	n := int64(d) / int64(w)
	if int64(d)%int64(w) != 0 {
		n++
	}
	return n
}
