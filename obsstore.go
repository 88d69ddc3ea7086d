// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package obsstore is the top-level entry point: Open wires an engine,
// registry, and the three correlated observation indexes into one Store
// and starts its supervised background services, the way the teacher's
// cmd/server wires a database plus a supervisor tree in main() (spec.md
// §6's module lifecycle: start(config)/stop()/commit()/executeTransaction(fn)).
package obsstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/obsstore/internal/compaction"
	"github.com/tomtom215/obsstore/internal/config"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/federation"
	"github.com/tomtom215/obsstore/internal/logging"
	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/registry"
	"github.com/tomtom215/obsstore/internal/stats"
	"github.com/tomtom215/obsstore/internal/store"
)

// Store is the host-facing handle spec.md §6 describes: open it with
// Open(cfg), read through GetStreams/GetObservationStore/GetFoiStore, and
// release it with Close.
type Store struct {
	cfg Config

	eng *engine.Engine
	reg *registry.Registry
	st  *store.Store

	obsStore *ObsStore
	foiStore *FoiStore

	fed        *federation.Federation
	mountEngs  []*engine.Engine
	compactSvc *compaction.Service
	sup        *suture.Supervisor
	supCancel  context.CancelFunc
	supDone    <-chan error

	closeOnce sync.Once
	closeErr  error
}

// Config re-exports internal/config.Config so callers never need to
// import an internal package to build one.
type Config = config.Config

// Open validates cfg, opens the underlying engine and the three named
// sub-stores (proc_store/foi_store/obs_store collapse onto one engine
// keyspace here, namespaced rather than given separate files), wires the
// optional federation mounts, and starts the background compaction
// service under a suture supervisor. The returned Store must be closed
// with Close.
func Open(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	strategy := registry.Sequential
	if cfg.StreamIDStrategy == config.StreamIDUIDHash {
		strategy = registry.UIDHash
	}

	eng, err := engine.Open(engine.Options{
		Path:           cfg.StoragePath,
		MemoryCacheKB:  cfg.MemoryCacheKB,
		UseCompression: cfg.UseCompression,
	})
	if err != nil {
		return nil, err
	}

	reg := registry.New(eng, strategy)
	st := store.New(eng, reg)
	ex := query.NewExecutor(st)
	se := stats.NewEngine(st)

	s := &Store{
		cfg:      cfg,
		eng:      eng,
		reg:      reg,
		st:       st,
		obsStore: &ObsStore{st: st, ex: ex, stats: se},
		foiStore: &FoiStore{st: st},
	}

	if cfg.Federation.Enabled {
		if err := s.openFederation(); err != nil {
			s.closeEngines()
			return nil, err
		}
	}

	if err := s.startSupervisor(); err != nil {
		s.closeEngines()
		return nil, err
	}

	return s, nil
}

func (s *Store) openFederation() error {
	mounts := []federation.Mount{{Name: "primary", Store: s.st, Writable: true}}
	for _, m := range s.cfg.Federation.Mounts {
		mEng, err := engine.Open(engine.Options{Path: m.StoragePath})
		if err != nil {
			return fmt.Errorf("federation mount %q: %w", m.Name, err)
		}
		s.mountEngs = append(s.mountEngs, mEng)
		mReg := registry.New(mEng, registry.Sequential)
		mounts = append(mounts, federation.Mount{
			Name:     m.Name,
			Store:    store.New(mEng, mReg),
			Writable: !m.ReadOnly,
		})
	}
	fed, err := federation.New(mounts)
	if err != nil {
		return err
	}
	s.fed = fed
	return nil
}

// startSupervisor wires the compaction service under a suture supervisor,
// following the teacher's NewSupervisorTree/AddDataService pattern
// collapsed to the single background concern this engine has.
func (s *Store) startSupervisor() error {
	interval, err := time.ParseDuration(s.cfg.Compaction.Interval)
	if err != nil || interval <= 0 {
		interval = compaction.DefaultInterval
	}
	s.compactSvc = compaction.NewService(s.st, interval)

	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	sup := suture.New("obsstore", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	sup.Add(s.compactSvc)

	ctx, cancel := context.WithCancel(context.Background())
	s.sup = sup
	s.supCancel = cancel
	s.supDone = sup.ServeBackground(ctx)
	return nil
}

// Commit requests a durable flush (spec.md §6's commit()).
func (s *Store) Commit() error {
	return s.eng.Sync()
}

// ExecuteTransaction runs fn under the write gate with rollback-on-error
// (spec.md §6's executeTransaction(fn)).
func (s *Store) ExecuteTransaction(fn func(txn *engine.Txn) error) error {
	return s.st.ExecuteTransaction(fn)
}

// GetStreams returns the data-stream registry (spec.md §6's StreamStore).
func (s *Store) GetStreams() *registry.Registry { return s.reg }

// GetObservationStore returns the observation read/write/query surface
// (spec.md §6's ObsStore).
func (s *Store) GetObservationStore() *ObsStore { return s.obsStore }

// GetFoiStore returns the feature-of-interest lookup surface (spec.md
// §6's FoiStore).
func (s *Store) GetFoiStore() *FoiStore { return s.foiStore }

// Federation returns the federation shim, or nil when Config.Federation
// was not enabled.
func (s *Store) Federation() *federation.Federation { return s.fed }

// Compact triggers a synchronous empty-series GC pass outside the
// background ticker (SPEC_FULL.md's Store.Compact(ctx) supplement).
func (s *Store) Compact(ctx context.Context) (int64, error) {
	return s.compactSvc.RunOnce(ctx)
}

// Health reports the store's readiness surface (SPEC_FULL.md's
// supplemented health/readiness feature).
func (s *Store) Health() HealthReport {
	lsm, vlog := s.eng.Size()
	report := HealthReport{
		Version:  s.eng.Version(),
		LSMBytes: lsm,
		VLogSize: vlog,
	}
	if s.fed != nil {
		report.MountHealth = s.fed.MountHealth()
	}
	return report
}

// HealthReport is the shape Store.Health returns.
type HealthReport struct {
	Version     uint64
	LSMBytes    int64
	VLogSize    int64
	MountHealth map[string]string
}

// Close stops the supervisor tree, waits for the compaction service to
// exit, and closes every engine this Store opened (including federation
// mount engines). Idempotent per spec.md §6's stop() requirement: a
// second call returns the same result as the first without re-closing
// the underlying engines.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.supCancel != nil {
			s.supCancel()
			<-s.supDone
		}
		s.closeErr = s.closeEngines()
	})
	return s.closeErr
}

func (s *Store) closeEngines() error {
	var firstErr error
	if err := s.eng.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, mEng := range s.mountEngs {
		if err := mEng.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
