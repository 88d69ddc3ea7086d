// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

/*
Package config loads and validates the options a host passes to obsstore.Open.

# Configuration Sources

Three layers are merged in order, later layers winning:

  - Defaults: sensible built-in values for every optional field.
  - Config File: an optional YAML file (config.yaml by default, or the path
    named by the OBSSTORE_CONFIG_PATH environment variable).
  - Environment Variables: OBSSTORE_-prefixed variables override any setting.

# Fields

Config mirrors the options in spec.md §6:

  - StoragePath: on-disk directory for the three sub-stores.
  - MemoryCacheKB: page-cache budget (0 = engine default).
  - AutoCommitBufferBytes: batch size before an implicit commit; validated
    only, the engine is not given this value.
  - UseCompression: page-level compression, immutable after create.
  - StreamIDStrategy: "sequential" or "uid_hash".
  - DatabaseID: a tag unique across every store mounted on the host.
  - IndexObsLocation: spatial-index flag; Validate rejects true, since this
    engine has no spatial index.
  - Federation: additional read-only stores to mount alongside the primary one.

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	store, err := obsstore.Open(*cfg)

# Validation

StoragePath is checked against AllowedRoot to block path traversal; the rest
of Config is validated with go-playground/validator struct tags.

# Thread Safety

Config is immutable after Load() returns and is safe for concurrent reads.
*/
package config
