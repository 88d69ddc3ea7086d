// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	logger := slog.New(NewSlogHandler())
	logger.Info("series registered", "stream_id", uint64(7))

	out := buf.String()
	if !strings.Contains(out, "series registered") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "stream_id") {
		t.Errorf("expected stream_id attribute in output, got %q", out)
	}
}

func TestSlogHandlerEnabledRespectsZerologLevel(t *testing.T) {
	h := &SlogHandler{logger: zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel)}
	if h.Enabled(nil, slog.LevelInfo) {
		t.Error("expected info disabled under warn level")
	}
	if !h.Enabled(nil, slog.LevelError) {
		t.Error("expected error enabled under warn level")
	}
}

func TestSlogHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	h := &SlogHandler{logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	scoped := h.WithGroup("series").WithAttrs([]slog.Attr{slog.Uint64("id", 9)})
	logger := slog.New(scoped)
	logger.Info("compacted")

	out := buf.String()
	if !strings.Contains(out, "series.id") {
		t.Errorf("expected grouped attribute key, got %q", out)
	}
}
