// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package federation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/logging"
	"github.com/tomtom215/obsstore/internal/metrics"
	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/store"
)

// Mount describes one backing store joining the federation.
type Mount struct {
	Name     string
	Store    *store.Store
	Writable bool
}

type mountState struct {
	name     string
	st       *store.Store
	ex       *query.Executor
	writable bool
	breaker  *gobreaker.CircuitBreaker[*query.Result]
}

// Federation composes an ordered set of mounts behind the store read API.
type Federation struct {
	mounts      []*mountState
	writableIdx int
}

// New builds a Federation over mounts, wiring one gobreaker.CircuitBreaker
// per mount so a slow or failing backing store degrades that mount's
// contribution instead of stalling the whole fan-out (SPEC_FULL.md's DOMAIN
// STACK table: gobreaker "wraps each federated backing store so one
// slow/broken store can't stall select fan-out"). At most one mount may be
// Writable.
func New(mounts []Mount) (*Federation, error) {
	f := &Federation{writableIdx: -1}
	for i, m := range mounts {
		if m.Writable {
			if f.writableIdx >= 0 {
				return nil, fmt.Errorf("federation: more than one writable mount (%q and %q)", mounts[f.writableIdx].Name, m.Name)
			}
			f.writableIdx = i
		}

		name := m.Name
		settings := gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				logging.Warn().Str("mount", name).Str("from", from.String()).Str("to", to.String()).Msg("federation circuit breaker state change")
				metrics.FederationCircuitState.WithLabelValues(name).Set(float64(to))
			},
		}
		f.mounts = append(f.mounts, &mountState{
			name:     name,
			st:       m.Store,
			ex:       query.NewExecutor(m.Store),
			writable: m.Writable,
			breaker:  gobreaker.NewCircuitBreaker[*query.Result](settings),
		})
	}
	return f, nil
}

// Add routes a write to the single writable mount.
func (f *Federation) Add(req store.AddRequest) ([]byte, error) {
	if f.writableIdx < 0 {
		return nil, errs.ErrFederationWriteTarget
	}
	return f.mounts[f.writableIdx].st.Add(req)
}

// Select dispatches a distinct, already-narrowed filter to each named
// mount in perMount concurrently via errgroup (a mount absent from
// perMount is skipped entirely, per spec.md §4.7's "pre-resolved dispatch
// map"), so one slow mount's breaker timeout doesn't serialize behind the
// others, then merges the per-mount result streams by phenomenonTime. The
// returned Result must be Closed by the caller; closing releases every
// mount's own Result.
func (f *Federation) Select(ctx context.Context, perMount map[string]query.ObservationFilter) (*Result, error) {
	traceID := uuid.New().String()
	logging.Debug().Str("trace_id", traceID).Int("mounts", len(perMount)).Msg("federation select dispatch")

	type dispatched struct {
		name string
		r    *query.Result
	}
	var (
		mu    sync.Mutex
		slots []dispatched
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, filter := range perMount {
		name, filter := name, filter
		ms := f.byName(name)
		if ms == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return nil
			}
			r, err := ms.breaker.Execute(func() (*query.Result, error) {
				return ms.ex.Select(filter)
			})
			if err != nil {
				metrics.FederationDispatchErrors.WithLabelValues(name).Inc()
				logging.Warn().Str("trace_id", traceID).Str("mount", name).Err(err).Msg("federation mount dispatch failed, excluded from merge")
				return nil
			}
			mu.Lock()
			slots = append(slots, dispatched{name: name, r: r})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // per-mount failures are swallowed above; nothing to propagate here

	feeders := make([]*feeder, 0, len(slots))
	for _, d := range slots {
		ff, err := newFeeder(d.name, d.r)
		if err != nil {
			for _, prior := range feeders {
				prior.r.Close()
			}
			d.r.Close()
			return nil, err
		}
		feeders = append(feeders, ff)
	}
	return newResult(feeders), nil
}

// CountMatchingEntries sums each dispatched mount's own count. Unlike
// Select, no merge is needed, so mounts are queried sequentially; context
// cancellation is honored between mounts.
func (f *Federation) CountMatchingEntries(ctx context.Context, perMount map[string]query.ObservationFilter) (int64, error) {
	var total int64
	for name, filter := range perMount {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		ms := f.byName(name)
		if ms == nil {
			continue
		}
		n, err := ms.ex.CountMatchingEntries(filter)
		if err != nil {
			metrics.FederationDispatchErrors.WithLabelValues(name).Inc()
			logging.Warn().Str("mount", name).Err(err).Msg("federation count dispatch failed, excluded from total")
			continue
		}
		total += n
	}
	return total, nil
}

func (f *Federation) byName(name string) *mountState {
	for _, m := range f.mounts {
		if m.name == name {
			return m
		}
	}
	return nil
}

// MountHealth reports each mount's circuit breaker state, for
// Store.Health() to surface (SPEC_FULL.md's supplemented health/readiness
// feature).
func (f *Federation) MountHealth() map[string]string {
	out := make(map[string]string, len(f.mounts))
	for _, m := range f.mounts {
		out[m.name] = m.breaker.State().String()
	}
	return out
}
