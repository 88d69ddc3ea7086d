// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Command obsctl is a flag-based smoke tool for manual verification of a
// store: open it, register a stream, ingest a CSV of observations, and run
// a histogram query, following the teacher's cmd/server plain bootstrap
// style rather than a Cobra command tree.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/obsstore/internal/logging"
	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/registry"
	"github.com/tomtom215/obsstore/internal/stats"
	"github.com/tomtom215/obsstore/internal/store"

	obsstore "github.com/tomtom215/obsstore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logging.Init(logging.DefaultConfig())

	var err error
	switch os.Args[1] {
	case "register":
		err = runRegister(os.Args[2:])
	case "ingest":
		err = runIngest(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logging.Error().Err(err).Msg("obsctl command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: obsctl <register|ingest|stats> [flags]")
}

func openStore(path string) (*obsstore.Store, error) {
	cfg := obsstore.Config{
		StoragePath:      path,
		AllowedRoot:      path,
		UseCompression:   true,
		StreamIDStrategy: "sequential",
		DatabaseID:       1,
	}
	return obsstore.Open(cfg)
}

func runRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	path := fs.String("path", "", "storage directory")
	system := fs.String("system", "", "systemId")
	output := fs.String("output", "", "outputName")
	validFrom := fs.String("valid-from", "", "validTimeStart, RFC3339 (default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *system == "" || *output == "" {
		return fmt.Errorf("register: -path, -system, and -output are required")
	}

	validTime := time.Now()
	if *validFrom != "" {
		var err error
		validTime, err = time.Parse(time.RFC3339, *validFrom)
		if err != nil {
			return fmt.Errorf("parse -valid-from: %w", err)
		}
	}

	s, err := openStore(*path)
	if err != nil {
		return err
	}
	defer s.Close()

	streamID, err := s.GetStreams().GetOrCreateStream(*system, *output, validTime.UnixMilli(), registry.RecordStructure{}, "json")
	if err != nil {
		return err
	}
	fmt.Printf("registered streamId=%d\n", streamID)
	return nil
}

// runIngest reads a CSV of foiId,phenomenonTime,resultTime,value and adds
// each row as an observation against an already-registered stream. An
// empty resultTime column means resultTime == phenomenonTime.
func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	path := fs.String("path", "", "storage directory")
	streamID := fs.Uint64("stream", 0, "streamId to ingest into")
	csvPath := fs.String("csv", "", "path to CSV file, or - for stdin")
	rps := fs.Float64("rate", 0, "max rows/sec to add, 0 for unlimited")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *streamID == 0 || *csvPath == "" {
		return fmt.Errorf("ingest: -path, -stream, and -csv are required")
	}

	var limiter *rate.Limiter
	if *rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rps), 1)
	}

	var r io.Reader
	if *csvPath == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(*csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	s, err := openStore(*path)
	if err != nil {
		return err
	}
	defer s.Close()

	obsStore := s.GetObservationStore()
	cr := csv.NewReader(r)
	var n int
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) < 4 {
			return fmt.Errorf("ingest: row %d has %d columns, want 4", n+1, len(row))
		}
		if limiter != nil {
			if err := limiter.Wait(context.Background()); err != nil {
				return fmt.Errorf("ingest: rate limiter: %w", err)
			}
		}
		phenom, err := time.Parse(time.RFC3339, row[1])
		if err != nil {
			return fmt.Errorf("ingest: row %d phenomenonTime: %w", n+1, err)
		}
		result := phenom
		if row[2] != "" {
			result, err = time.Parse(time.RFC3339, row[2])
			if err != nil {
				return fmt.Errorf("ingest: row %d resultTime: %w", n+1, err)
			}
		}
		var val float64
		if _, err := fmt.Sscanf(row[3], "%g", &val); err != nil {
			return fmt.Errorf("ingest: row %d value: %w", n+1, err)
		}
		payload, err := json.Marshal(val)
		if err != nil {
			return err
		}
		if _, err := obsStore.Add(store.AddRequest{
			StreamID:       *streamID,
			FoiID:          row[0],
			PhenomenonTime: phenom,
			ResultTime:     result,
			Result:         payload,
		}); err != nil {
			return fmt.Errorf("ingest: row %d: %w", n+1, err)
		}
		n++
	}
	fmt.Printf("ingested %d observations\n", n)
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	path := fs.String("path", "", "storage directory")
	streamID := fs.Uint64("stream", 0, "streamId to summarize")
	histogram := fs.Bool("histogram", false, "include obsCountByTime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *streamID == 0 {
		return fmt.Errorf("stats: -path and -stream are required")
	}

	s, err := openStore(*path)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.GetObservationStore().GetStatistics(stats.Query{
		StreamIDs:        []uint64{*streamID},
		ResultTime:       query.TemporalFilter{Kind: query.AllTimes},
		AggregateFois:    true,
		IncludeHistogram: *histogram,
	})
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Printf("streamId=%d foiId=%d totalObsCount=%d phenomenonRange=[%s, %s]\n",
			row.StreamID, row.FoiID, row.TotalObsCount,
			row.PhenomenonTimeRange[0].Format(time.RFC3339), row.PhenomenonTimeRange[1].Format(time.RFC3339))
		for _, b := range row.ObsCountByTime {
			fmt.Printf("  %s: %d\n", b.Start.Format(time.RFC3339), b.Count)
		}
	}
	return nil
}
