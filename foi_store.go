// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package obsstore

import "github.com/tomtom215/obsstore/internal/store"

// FoiStore is spec.md §6's FoiStore surface: lookup of a feature of
// interest by its registry id or its caller-supplied string identity.
type FoiStore struct {
	st *store.Store
}

// Get resolves foiID to its registered metadata.
func (f *FoiStore) Get(foiID uint64) (store.FoiInfo, error) {
	return f.st.GetFoi(foiID)
}

// Lookup resolves stringID to its foiId, registering it on first use.
func (f *FoiStore) Lookup(stringID string) (uint64, error) {
	return f.st.LookupFoi(stringID)
}
