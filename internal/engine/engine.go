// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package engine

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/logging"
)

// Options configures how Open lays out the underlying BadgerDB instance.
// Field names mirror spec.md §6's storage knobs rather than badger's own
// Options struct, so callers never need to know badger exists.
type Options struct {
	Path           string
	MemoryCacheKB  int
	UseCompression bool
	InMemory       bool
}

// Engine is a single badger.DB opened as an ordered byte-keyed map, guarded
// by a write gate that serializes mutating transactions the way spec.md §5
// describes (acquire → snapshot version → mutate → rollback-on-error →
// release). Reads never take the gate; badger's MVCC snapshots give every
// View its own consistent point-in-time view for free.
type Engine struct {
	db   *badger.DB
	gate sync.Mutex
	ver  atomic.Uint64
}

// Open creates or opens the badger store at opts.Path, following the
// teacher's badger.DefaultOptions(path) + selective overrides pattern
// (internal/wal/wal.go Open).
func Open(opts Options) (*Engine, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, fmt.Errorf("%w: empty storage path", errs.ErrStorageUnavailable)
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}
	if opts.MemoryCacheKB > 0 {
		badgerOpts.BlockCacheSize = int64(opts.MemoryCacheKB) * 1024
	}
	if opts.UseCompression {
		badgerOpts.Compression = options.Snappy
	}
	badgerOpts.Logger = badgerLogAdapter{}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrStorageUnavailable, err)
	}

	logging.Info().
		Str("path", opts.Path).
		Bool("compression", opts.UseCompression).
		Bool("in_memory", opts.InMemory).
		Msg("engine opened")

	return &Engine{db: db}, nil
}

// Close flushes and closes the underlying store.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrStorageUnavailable, err)
	}
	return nil
}

// Size reports the underlying LSM-tree and value-log sizes in bytes, for
// Store.Health's readiness surface.
func (e *Engine) Size() (lsm, vlog int64) {
	return e.db.Size()
}

// Sync requests a durable flush of every acknowledged write, backing
// spec.md §6's commit(): after Sync returns, writes made before the call
// survive process loss.
func (e *Engine) Sync() error {
	if err := e.db.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %s", errs.ErrTransient, err)
	}
	return nil
}

// RunValueLogGC runs a single badger value-log GC pass, following
// internal/wal's compaction loop. It returns nil when there was nothing to
// reclaim (badger.ErrNoRewrite) or when the engine was opened InMemory
// (badger.ErrGCInMemoryMode, a permanent, not transient, condition for
// that engine) — neither is an error condition worth a caller retrying.
func (e *Engine) RunValueLogGC(ratio float64) error {
	err := e.db.RunValueLogGC(ratio)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return fmt.Errorf("%w: value log gc: %s", errs.ErrTransient, err)
}

// Get performs a point read in its own read-only transaction.
func (e *Engine) Get(key []byte) ([]byte, error) {
	var val []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get: %s", errs.ErrTransient, err)
	}
	return val, nil
}

// WriteFn is the body of a single-writer transaction. It receives a Txn
// scoped to that transaction only; the Txn must not be retained past the
// call to Update.
type WriteFn func(txn *Txn) error

// Update runs fn under the engine's write gate: only one Update executes
// at a time across the whole Engine, matching the single-writer discipline
// spec.md §5 requires for keeping the three correlated indexes in lockstep.
// On any error returned by fn (or a panic during fn), badger discards the
// underlying transaction and no partial mutation is visible to subsequent
// readers — the teacher's BadgerWAL relies on the same db.Update rollback
// behavior rather than hand-rolled undo logs.
func (e *Engine) Update(fn WriteFn) error {
	e.gate.Lock()
	defer e.gate.Unlock()

	snapshot := e.ver.Load()
	err := e.db.Update(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
	if err != nil {
		// rollback-on-error: badger already discarded the txn: nothing
		// written by fn is visible. Restore the pre-call version so a
		// caller inspecting Version() after a failed Update sees no
		// change, consistent with the snapshot taken above.
		e.ver.Store(snapshot)
		if errors.Is(err, errs.ErrTooBroad) || errors.Is(err, errs.ErrUnknownStream) ||
			errors.Is(err, errs.ErrStreamRetired) || errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %s", errs.ErrTransient, err)
	}
	e.ver.Store(snapshot + 1)
	return nil
}

// View runs fn in a read-only transaction; concurrent with Update and with
// other Views, never blocked by the write gate.
func (e *Engine) View(fn func(txn *Txn) error) error {
	err := e.db.View(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
	if err != nil {
		if errors.Is(err, errs.ErrTooBroad) || errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %s", errs.ErrTransient, err)
	}
	return nil
}

// Version returns a monotonically increasing counter bumped once per
// successful Update; used by callers that want to detect whether the
// store changed between two points without re-scanning it.
func (e *Engine) Version() uint64 { return e.ver.Load() }

// NewReadTxn opens a long-lived read-only transaction outside the usual
// View closure, for callers that must hand a consistent snapshot across
// an API boundary — the query executor's lazy, pull-model result
// iterators (spec.md §9: "lazy sequences... must release cursors on
// drop/close") can't be expressed inside a single closure the way Get/View
// can. The returned Txn must be closed by the caller via Txn.Close.
func (e *Engine) NewReadTxn() *Txn {
	return &Txn{txn: e.db.NewTransaction(false)}
}

// Close discards a transaction obtained from NewReadTxn, releasing its
// snapshot. Safe to call multiple times.
func (t *Txn) Close() {
	t.txn.Discard()
}

// Txn scopes reads and writes to a single badger transaction. Obtained
// only from Engine.Update or Engine.View.
type Txn struct {
	txn *badger.Txn
}

// Get reads key within the transaction.
func (t *Txn) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var val []byte
	err = item.Value(func(v []byte) error {
		val = append([]byte(nil), v...)
		return nil
	})
	return val, err
}

// Set writes key/val within the transaction.
func (t *Txn) Set(key, val []byte) error {
	return t.txn.Set(key, val)
}

// Delete removes key within the transaction. Deleting an absent key is
// not an error, matching badger semantics.
func (t *Txn) Delete(key []byte) error {
	return t.txn.Delete(key)
}

// Has reports whether key exists within the transaction's snapshot.
func (t *Txn) Has(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Cursor walks entries in [lower, upper), in ascending key order normally
// or descending when reverse is true; the bound semantics (lower
// inclusive, upper exclusive) are the same in both directions, only the
// walk order differs. Both bounds may be nil to mean unbounded. The
// cursor must be closed after use.
type Cursor struct {
	it      *badger.Iterator
	lower   []byte
	upper   []byte
	reverse bool
	done    bool
}

// Cursor opens a range cursor over the transaction's snapshot.
func (t *Txn) Cursor(lower, upper []byte, reverse bool) *Cursor {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Reverse = reverse
	it := t.txn.NewIterator(opts)

	c := &Cursor{it: it, lower: lower, upper: upper, reverse: reverse}
	if reverse {
		if upper != nil {
			it.Seek(reverseSeedKey(upper))
		} else {
			it.Rewind()
		}
	} else {
		if lower != nil {
			it.Seek(lower)
		} else {
			it.Rewind()
		}
	}
	c.clampInitial()
	return c
}

// clampInitial walks the iterator off its seed position until it lands on
// a genuinely in-range entry. reverseSeedKey pads the exclusive upper
// bound so the initial Seek can overshoot onto a real key equal to that
// bound (badger has no native exclusive-upper seek); naively treating that
// overshoot as "done" would wrongly terminate a reverse cursor whenever an
// entry happens to sit exactly at the exclusive bound, rather than walking
// past it to the true greatest in-range entry. So the "near" side of the
// bound (the one the seed can overshoot into: upper for reverse, lower for
// forward) is skipped past via Next(); only the "far" side ends the walk.
func (c *Cursor) clampInitial() {
	for c.it.Valid() {
		key := c.it.Item().KeyCopy(nil)
		if c.reverse {
			if c.upper != nil && bytes.Compare(key, c.upper) >= 0 {
				c.it.Next()
				continue
			}
			if c.lower != nil && bytes.Compare(key, c.lower) < 0 {
				break
			}
		} else {
			if c.lower != nil && bytes.Compare(key, c.lower) < 0 {
				c.it.Next()
				continue
			}
			if c.upper != nil && bytes.Compare(key, c.upper) >= 0 {
				break
			}
		}
		return
	}
	c.done = true
}

func (c *Cursor) outOfBounds(key []byte) bool {
	if !c.reverse {
		if c.upper != nil && bytes.Compare(key, c.upper) >= 0 {
			return true
		}
		if c.lower != nil && bytes.Compare(key, c.lower) < 0 {
			return true
		}
	} else {
		if c.lower != nil && bytes.Compare(key, c.lower) < 0 {
			return true
		}
		if c.upper != nil && bytes.Compare(key, c.upper) >= 0 {
			return true
		}
	}
	return false
}

// Valid reports whether the cursor currently sits on an in-range entry.
func (c *Cursor) Valid() bool { return !c.done && c.it.Valid() }

// Key returns a copy of the current entry's key.
func (c *Cursor) Key() []byte { return c.it.Item().KeyCopy(nil) }

// Value returns a copy of the current entry's value.
func (c *Cursor) Value() ([]byte, error) {
	return c.it.Item().ValueCopy(nil)
}

// Next advances the cursor.
func (c *Cursor) Next() {
	if c.done {
		return
	}
	c.it.Next()
	if !c.it.Valid() {
		c.done = true
		return
	}
	if c.outOfBounds(c.it.Item().KeyCopy(nil)) {
		c.done = true
	}
}

// Close releases the cursor's underlying iterator. Safe to call multiple
// times.
func (c *Cursor) Close() {
	c.it.Close()
}

// reverseSeedPad bounds how far past an exclusive upper bound the reverse
// seek key reaches; it only needs to exceed the longest real key sharing
// that prefix, and every key layout in internal/codec is well under this.
const reverseSeedPad = 64

// reverseSeedKey builds a seek position guaranteed to sort at or above
// every real key strictly less than the exclusive bound upper, so a
// reverse iterator's initial Seek lands on (or just past) the true
// greatest in-range entry. Badger has no native exclusive-upper-bound
// seek; padding the bound with 0xFF bytes is cheaper and less fragile
// than trying to compute upper's exact lexicographic predecessor, which
// has none in the general case (you can always insert one more 0xFF
// byte). clampInitial then filters out the seed key itself if no real
// entry exists there.
func reverseSeedKey(upper []byte) []byte {
	out := make([]byte, 0, len(upper)+reverseSeedPad)
	out = append(out, upper...)
	for i := 0; i < reverseSeedPad; i++ {
		out = append(out, 0xFF)
	}
	return out
}

// badgerLogAdapter routes badger's internal logging through the package
// logger at a suitably quiet level, the same way the teacher silences it
// in internal/wal/wal.go (opts.Logger = nil) but kept instead of dropped
// so badger warnings and errors aren't lost entirely.
type badgerLogAdapter struct{}

func (badgerLogAdapter) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf(format, args...)
}
func (badgerLogAdapter) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf(format, args...)
}
func (badgerLogAdapter) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf(format, args...)
}
func (badgerLogAdapter) Debugf(format string, args ...interface{}) {
	logging.Trace().Msgf(format, args...)
}
