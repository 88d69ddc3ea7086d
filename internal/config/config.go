// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StreamIDStrategy selects how the data-stream registry assigns streamIds.
// See spec.md §4.2.
type StreamIDStrategy string

const (
	// StreamIDSequential assigns ids monotonically from lastKey+1.
	StreamIDSequential StreamIDStrategy = "sequential"
	// StreamIDUIDHash derives a deterministic 48-bit id from a murmur3-128
	// hash of (systemId, outputName, validTimeStartMillis).
	StreamIDUIDHash StreamIDStrategy = "uid_hash"
)

// Config holds every option a host passes to obsstore.Open, plus the
// federation mounts used by the read-only routing shim (spec.md §4.7).
//
// Config is immutable after Load returns and safe for concurrent reads.
type Config struct {
	// StoragePath is the on-disk directory that holds the three named
	// sub-stores (proc_store, foi_store, obs_store). Required.
	StoragePath string `koanf:"storage_path" validate:"required"`

	// AllowedRoot bounds StoragePath: it must resolve inside this
	// directory. Blocks path traversal per spec.md §6.
	AllowedRoot string `koanf:"allowed_root" validate:"required"`

	// MemoryCacheKB is the page-cache budget. 0 = engine default.
	MemoryCacheKB int `koanf:"memory_cache_kb" validate:"gte=0"`

	// AutoCommitBufferBytes is the batch size before an implicit commit.
	// It is validated but not passed to the engine, which always uses its
	// own default.
	AutoCommitBufferBytes int `koanf:"auto_commit_buffer_bytes" validate:"gte=0"`

	// UseCompression enables page-level compression. Immutable after create.
	UseCompression bool `koanf:"use_compression"`

	// StreamIDStrategy selects sequential or deterministic-hash stream ids.
	StreamIDStrategy StreamIDStrategy `koanf:"stream_id_strategy" validate:"oneof=sequential uid_hash"`

	// DatabaseID tags this store uniquely across every store mounted on
	// the embedding host.
	DatabaseID int `koanf:"database_id"`

	// IndexObsLocation opts in to a spatial index on per-observation
	// sampling geometry. Out of scope for this engine (flag only, see
	// spec.md §6); Validate, which obsstore.Open runs, rejects true, so
	// the flag cannot silently promise something unbuilt.
	IndexObsLocation bool `koanf:"index_obs_location"`

	// Federation lists additional read-only stores to mount alongside
	// this one. Empty means no federation: Store behaves as a single
	// backing store.
	Federation FederationConfig `koanf:"federation"`

	// Logging holds settings for the process-wide logger. obsstore.Open
	// does not apply them; the host passes them to logging.Init.
	Logging LoggingConfig `koanf:"logging"`

	// Compaction configures the background empty-series GC service.
	Compaction CompactionConfig `koanf:"compaction"`
}

// FederationConfig lists sibling stores a routing shim fans queries across.
type FederationConfig struct {
	// Enabled turns on the federation shim. When false, Mounts is ignored.
	Enabled bool `koanf:"enabled"`

	// Mounts are the backing stores, in priority order for tie-breaking.
	Mounts []MountConfig `koanf:"mounts" validate:"dive"`
}

// MountConfig names one backing store under a federation shim.
type MountConfig struct {
	// Name identifies the mount in logs and health reports.
	Name string `koanf:"name" validate:"required"`

	// StoragePath is that store's own on-disk directory.
	StoragePath string `koanf:"storage_path" validate:"required"`

	// ReadOnly must be true for every mount but the primary: Validate
	// rejects more than one writable mount in Mounts, and obsstore.Open
	// (via federation.New) rejects any writable mount beside the primary.
	ReadOnly bool `koanf:"read_only"`
}

// LoggingConfig holds the settings a host maps onto internal/logging.Init.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CompactionConfig tunes the background empty-series GC service
// (SPEC_FULL.md "Supplemented features").
type CompactionConfig struct {
	// Interval between automatic compaction passes. A zero, negative or
	// unparsable value falls back to compaction.DefaultInterval; the
	// background service always runs, and Store.Compact(ctx) runs a pass
	// on demand.
	Interval string `koanf:"interval"`

	// GCRatio is validated but not used: the compaction pass always runs
	// the engine's value-log GC with a fixed discard ratio of 0.5.
	GCRatio float64 `koanf:"gc_ratio" validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Validate checks Config against its struct tags and the path-traversal
// rule spec.md §6 requires of StoragePath.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := checkWithinRoot(c.AllowedRoot, c.StoragePath); err != nil {
		return fmt.Errorf("storage_path: %w", err)
	}
	if c.Federation.Enabled {
		writable := 0
		for i := range c.Federation.Mounts {
			m := &c.Federation.Mounts[i]
			if err := checkWithinRoot(c.AllowedRoot, m.StoragePath); err != nil {
				return fmt.Errorf("federation.mounts[%d].storage_path: %w", i, err)
			}
			if !m.ReadOnly {
				writable++
			}
		}
		if writable > 1 {
			return errors.New("federation: at most one mount may be writable")
		}
	}
	if c.IndexObsLocation {
		return errors.New("index_obs_location: spatial indexing is out of scope for this engine (spec.md §1)")
	}
	return nil
}

// checkWithinRoot rejects any path that escapes root after cleaning,
// including via ".." segments or symlink-style traversal attempts.
func checkWithinRoot(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve allowed root: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%q escapes allowed root %q", path, root)
	}
	return nil
}
