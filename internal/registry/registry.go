// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package registry

import (
	"encoding/binary"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spaolacci/murmur3"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
)

// maxUIDProbe bounds the collision-probe loop for the UIDHash strategy so
// a pathological input can't spin forever; spec.md only says "probing
// upward", it does not name a bound, so this picks one generous enough
// that it is never hit in practice and reports ErrCorruption if it is.
const maxUIDProbe = 1 << 16

// Registry is the data-stream metadata catalog. It owns its own slice of
// the shared engine keyspace (the NSStream / NSStreamIdentity namespaces)
// and never touches the observation indexes directly; internal/store
// composes a Registry alongside its own indexes under the same
// transaction gate.
type Registry struct {
	eng      *engine.Engine
	strategy IDStrategy
}

// New creates a Registry backed by eng using the given id strategy. The
// strategy is meant to be fixed for the lifetime of the store file
// (spec.md §4.2); Registry does not persist or validate that the caller
// kept it consistent across restarts, that is the store's job at open.
func New(eng *engine.Engine, strategy IDStrategy) *Registry {
	return &Registry{eng: eng, strategy: strategy}
}

// GetOrCreateStream registers outputName of systemId at validTimeStart if
// not already present, or returns the existing streamId when an identical
// registration is replayed (property 8: idempotent registration).
func (r *Registry) GetOrCreateStream(systemID, outputName string, validTimeStart int64, structure RecordStructure, enc string) (uint64, error) {
	idKey := identityKey{SystemID: systemID, OutputName: outputName, ValidTimeStart: validTimeStart}
	idBytes, err := json.Marshal(idKey)
	if err != nil {
		return 0, fmt.Errorf("marshal stream identity: %w", err)
	}
	identityStoreKey := codec.WithNamespace(codec.NSStreamIdentity, idBytes)

	var streamID uint64
	err = r.eng.Update(func(txn *engine.Txn) error {
		if existing, err := txn.Get(identityStoreKey); err == nil {
			streamID = binary.BigEndian.Uint64(existing)
			return nil
		} else if err != errs.ErrNotFound {
			return err
		}

		id, err := r.assignID(txn, idBytes)
		if err != nil {
			return err
		}

		info := StreamInfo{
			StreamID:       id,
			SystemID:       systemID,
			OutputName:     outputName,
			ValidTimeStart: msToTime(validTimeStart),
			Structure:      structure,
			Encoding:       enc,
			State:          StateLive,
		}
		if err := putStreamInfo(txn, info); err != nil {
			return err
		}

		idVal := make([]byte, 8)
		binary.BigEndian.PutUint64(idVal, id)
		if err := txn.Set(identityStoreKey, idVal); err != nil {
			return err
		}

		streamID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return streamID, nil
}

func (r *Registry) assignID(txn *engine.Txn, idBytes []byte) (uint64, error) {
	switch r.strategy {
	case UIDHash:
		return assignUIDHash(txn, idBytes)
	default:
		return nextSequentialID(txn)
	}
}

func nextSequentialID(txn *engine.Txn) (uint64, error) {
	c := txn.Cursor(codec.NamespacePrefix(codec.NSStream), codec.NamespaceUpperBound(codec.NSStream), true)
	defer c.Close()
	if !c.Valid() {
		return 1, nil
	}
	key := c.Key()
	last := binary.BigEndian.Uint64(key[1:]) // strip namespace byte
	return last + 1, nil
}

func assignUIDHash(txn *engine.Txn, idBytes []byte) (uint64, error) {
	h1, h2 := murmur3.Sum128(idBytes)
	_ = h2
	candidate := h1 & 0x0000FFFFFFFFFFFF // low 48 bits
	for i := 0; i < maxUIDProbe; i++ {
		key := streamKey(candidate)
		_, err := txn.Get(key)
		if err == errs.ErrNotFound {
			return candidate, nil
		}
		if err != nil {
			return 0, err
		}
		candidate++
	}
	return 0, fmt.Errorf("%w: uid_hash probe exhausted %d slots", errs.ErrCorruption, maxUIDProbe)
}

func streamKey(streamID uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, streamID)
	return codec.WithNamespace(codec.NSStream, buf)
}

func putStreamInfo(txn *engine.Txn, info StreamInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal stream info: %w", err)
	}
	return txn.Set(streamKey(info.StreamID), data)
}

// Get returns the registered metadata for streamID.
func (r *Registry) Get(streamID uint64) (StreamInfo, error) {
	var info StreamInfo
	err := r.eng.View(func(txn *engine.Txn) error {
		var innerErr error
		info, innerErr = r.GetTx(txn, streamID)
		return innerErr
	})
	return info, err
}

// GetTx is Get scoped to a caller-supplied transaction, so internal/store
// can validate a stream in the same atomic write as its index mutations
// instead of nesting a second engine transaction (badger transactions
// don't nest).
func (r *Registry) GetTx(txn *engine.Txn, streamID uint64) (StreamInfo, error) {
	var info StreamInfo
	data, err := txn.Get(streamKey(streamID))
	if err != nil {
		return StreamInfo{}, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return StreamInfo{}, err
	}
	return info, nil
}

// IsWritableTx is IsWritable scoped to a caller-supplied transaction.
func (r *Registry) IsWritableTx(txn *engine.Txn, streamID uint64) (bool, error) {
	info, err := r.GetTx(txn, streamID)
	if err != nil {
		return false, err
	}
	return info.State == StateLive, nil
}

// Lookup resolves (systemId, outputName, validTimeStart) to a streamId.
func (r *Registry) Lookup(systemID, outputName string, validTimeStart int64) (uint64, error) {
	idKey := identityKey{SystemID: systemID, OutputName: outputName, ValidTimeStart: validTimeStart}
	idBytes, err := json.Marshal(idKey)
	if err != nil {
		return 0, fmt.Errorf("marshal stream identity: %w", err)
	}
	identityStoreKey := codec.WithNamespace(codec.NSStreamIdentity, idBytes)

	var streamID uint64
	err = r.eng.View(func(txn *engine.Txn) error {
		data, err := txn.Get(identityStoreKey)
		if err != nil {
			return err
		}
		streamID = binary.BigEndian.Uint64(data)
		return nil
	})
	return streamID, err
}

// List returns every registered stream, live and retired alike. Filtering
// by liveness or system is left to the caller; the registry is small
// enough (tens of thousands of streams at most) that returning the full
// set is acceptable.
func (r *Registry) List() ([]StreamInfo, error) {
	var out []StreamInfo
	err := r.eng.View(func(txn *engine.Txn) error {
		c := txn.Cursor(codec.NamespacePrefix(codec.NSStream), codec.NamespaceUpperBound(codec.NSStream), false)
		defer c.Close()
		for c.Valid() {
			val, err := c.Value()
			if err != nil {
				return err
			}
			var info StreamInfo
			if err := json.Unmarshal(val, &info); err != nil {
				return err
			}
			out = append(out, info)
			c.Next()
		}
		return nil
	})
	return out, err
}

// Retire closes a stream's valid-time range, rejecting further writes
// while leaving it queryable (the Live -> Retired transition of
// spec.md §4.6).
func (r *Registry) Retire(streamID uint64, validTimeEnd int64) error {
	return r.eng.Update(func(txn *engine.Txn) error {
		data, err := txn.Get(streamKey(streamID))
		if err != nil {
			return err
		}
		var info StreamInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return err
		}
		end := msToTime(validTimeEnd)
		info.ValidTimeEnd = &end
		info.State = StateRetired
		return putStreamInfo(txn, info)
	})
}

// IsWritable reports whether streamID currently accepts new observations.
func (r *Registry) IsWritable(streamID uint64) (bool, error) {
	info, err := r.Get(streamID)
	if err != nil {
		return false, err
	}
	return info.State == StateLive, nil
}

// Remove deletes a stream's registry entry. It does not cascade to the
// observation indexes; internal/store.DeleteStream composes Registry.Remove
// with its own cascading index walk under a single transaction.
func (r *Registry) Remove(txn *engine.Txn, streamID uint64) error {
	data, err := txn.Get(streamKey(streamID))
	if err != nil {
		if err == errs.ErrNotFound {
			return nil
		}
		return err
	}
	var info StreamInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return err
	}
	idKey := identityKey{
		SystemID:       info.SystemID,
		OutputName:     info.OutputName,
		ValidTimeStart: info.ValidTimeStart.UnixMilli(),
	}
	idBytes, err := json.Marshal(idKey)
	if err != nil {
		return err
	}
	if err := txn.Delete(codec.WithNamespace(codec.NSStreamIdentity, idBytes)); err != nil {
		return err
	}
	return txn.Delete(streamKey(streamID))
}
