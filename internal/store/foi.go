// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package store

import (
	"encoding/binary"

	"github.com/goccy/go-json"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
)

// FoiInfo is the metadata kept for a feature of interest. Geometry is left
// as an opaque blob (spec.md §9's dynamic-typing note applies here too):
// this layer never interprets it, only stores and returns it.
type FoiInfo struct {
	FoiID    uint64
	StringID string
	Geometry []byte
}

func foiKey(foiID uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, foiID)
	return codec.WithNamespace(codec.NSFoi, buf)
}

func foiIdentityKey(stringID string) []byte {
	return codec.WithNamespace(codec.NSFoiIdentity, []byte(stringID))
}

// getOrCreateFoiTx resolves stringID to a foiId, registering it on first
// use the way spec.md §3 describes ("created first time a system reports
// an observation for it").
func getOrCreateFoiTx(txn *engine.Txn, stringID string) (uint64, error) {
	idKey := foiIdentityKey(stringID)
	if existing, err := txn.Get(idKey); err == nil {
		return binary.BigEndian.Uint64(existing), nil
	} else if err != errs.ErrNotFound {
		return 0, err
	}

	id, err := nextFoiID(txn)
	if err != nil {
		return 0, err
	}

	info := FoiInfo{FoiID: id, StringID: stringID}
	data, err := json.Marshal(info)
	if err != nil {
		return 0, err
	}
	if err := txn.Set(foiKey(id), data); err != nil {
		return 0, err
	}
	idVal := make([]byte, 8)
	binary.BigEndian.PutUint64(idVal, id)
	if err := txn.Set(idKey, idVal); err != nil {
		return 0, err
	}
	return id, nil
}

func nextFoiID(txn *engine.Txn) (uint64, error) {
	c := txn.Cursor(codec.NamespacePrefix(codec.NSFoi), codec.NamespaceUpperBound(codec.NSFoi), true)
	defer c.Close()
	if !c.Valid() {
		return 1, nil
	}
	key := c.Key()
	return binary.BigEndian.Uint64(key[1:]) + 1, nil
}

// GetFoi returns the metadata registered for foiID.
func (s *Store) GetFoi(foiID uint64) (FoiInfo, error) {
	var info FoiInfo
	err := s.eng.View(func(txn *engine.Txn) error {
		data, err := txn.Get(foiKey(foiID))
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &info)
	})
	return info, err
}

// LookupFoi resolves a feature-of-interest string id to its internal id,
// registering it if it has never been seen before.
func (s *Store) LookupFoi(stringID string) (uint64, error) {
	var id uint64
	err := s.eng.Update(func(txn *engine.Txn) error {
		var err error
		id, err = getOrCreateFoiTx(txn, stringID)
		return err
	})
	return id, err
}
