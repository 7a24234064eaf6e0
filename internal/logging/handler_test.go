// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/olegiv/mediasite-go/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantLevel string
		wantCount int
	}{
		{"error", func(l *slog.Logger) { l.Error("backend unreachable") }, store.EventLevelError, 1},
		{"warn", func(l *slog.Logger) { l.Warn("translation failed") }, store.EventLevelWarning, 1},
		{"info is not recorded", func(l *slog.Logger) { l.Info("record created") }, "", 0},
		{"debug is not recorded", func(l *slog.Logger) { l.Debug("backend request") }, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			tt.log(slog.New(NewEventLogHandler(discardHandler{}, db)))

			events := listEvents(t, db)
			if len(events) != tt.wantCount {
				t.Fatalf("got %d events, want %d", len(events), tt.wantCount)
			}
			if tt.wantCount > 0 && events[0].Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", events[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))
	logger.Info("language changed", "language", "ar")

	events := listEvents(t, db)
	if len(events) != 1 || events[0].Level != store.EventLevelInfo {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Category != store.EventCategoryI18n {
		t.Errorf("Category = %q, want %q", events[0].Category, store.EventCategoryI18n)
	}
}

func TestEventLogHandler_Category(t *testing.T) {
	tests := []struct {
		msg   string
		attrs []any
		want  string
	}{
		{"delete failed", []any{"category", "mutation"}, store.EventCategoryMutation},
		{"anything", []any{"category", "custom"}, "custom"},
		{"backend unreachable", nil, store.EventCategoryBackend},
		{"redis cache unavailable", nil, store.EventCategoryCache},
		{"csrf check rejected", nil, store.EventCategorySecurity},
		{"save failed", nil, store.EventCategoryMutation},
		{"disk full", nil, store.EventCategorySystem},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			db := testDB(t)
			slog.New(NewEventLogHandler(discardHandler{}, db)).Warn(tt.msg, tt.attrs...)

			events := listEvents(t, db)
			if len(events) != 1 {
				t.Fatalf("got %d events", len(events))
			}
			if events[0].Category != tt.want {
				t.Errorf("Category = %q, want %q", events[0].Category, tt.want)
			}
		})
	}
}

func TestEventLogHandler_Metadata(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).
		With("collection", "brands").
		WithGroup("req")
	logger.Warn("delete failed", "category", "mutation", "id", "b1", "note", `say "hi"`)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v (%s)", err, events[0].Metadata)
	}
	want := map[string]string{"collection": "brands", "req.id": "b1", "req.note": `say "hi"`}
	for k, v := range want {
		if meta[k] != v {
			t.Errorf("metadata[%q] = %q, want %q", k, meta[k], v)
		}
	}
	if events[0].Category != store.EventCategoryMutation {
		t.Errorf("Category = %q", events[0].Category)
	}
	if _, ok := meta["req.category"]; ok {
		t.Error("category must not be duplicated into metadata")
	}
}
