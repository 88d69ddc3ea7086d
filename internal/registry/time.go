// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package registry

import "time"

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
