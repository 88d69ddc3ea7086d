// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/obsstore/config.yaml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "OBSSTORE_CONFIG_PATH"

// envPrefix is stripped from every environment variable before mapping it
// onto a koanf path, mirroring the teacher's legacy-name-mapping approach
// but driven by a single consistent prefix instead of a hand-written table.
const envPrefix = "OBSSTORE_"

func defaultConfig() *Config {
	return &Config{
		StoragePath:            "/var/lib/obsstore/data",
		AllowedRoot:            "/var/lib/obsstore",
		MemoryCacheKB:          0,
		AutoCommitBufferBytes:  0,
		UseCompression:         true,
		StreamIDStrategy:       StreamIDSequential,
		DatabaseID:             1,
		IndexObsLocation:       false,
		Federation: FederationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Compaction: CompactionConfig{
			Interval: "15m",
			GCRatio:  0.5,
		},
	}
}

// Load loads configuration using Koanf with layered sources:
//  1. Defaults: built-in sensible defaults.
//  2. Config File: optional YAML file, if one is found.
//  3. Environment Variables: OBSSTORE_-prefixed variables override any setting.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform turns OBSSTORE_STORAGE_PATH into storage_path,
// OBSSTORE_FEDERATION_ENABLED into federation.enabled, and so on: strip the
// prefix, lowercase, and replace the first underscore-delimited segment
// boundary that matches a known top-level field with a dot.
func envTransform(key string) string {
	key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
	for _, section := range []string{"federation", "logging", "compaction"} {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}
