// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// testDB creates a migrated database in a temp dir.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestPreferences(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	v, err := q.GetPreference(ctx, "language")
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if v != "" {
		t.Errorf("unset preference = %q, want empty", v)
	}

	for _, lang := range []string{"ar", "fr"} {
		if err := q.SetPreference(ctx, "language", lang); err != nil {
			t.Fatalf("SetPreference: %v", err)
		}
	}
	v, err = q.GetPreference(ctx, "language")
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if v != "fr" {
		t.Errorf("language = %q, want fr", v)
	}

	all, err := q.ListPreferences(ctx)
	if err != nil {
		t.Fatalf("ListPreferences: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d preferences, want 1 after upsert", len(all))
	}
}

func TestEventLogRetention(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i, age := range []time.Duration{0, 24 * time.Hour, 40 * 24 * time.Hour} {
		_, err := q.CreateEvent(ctx, CreateEventParams{
			Level:     EventLevelWarning,
			Category:  EventCategoryMutation,
			Message:   "delete failed",
			Metadata:  `{"n":"` + string(rune('a'+i)) + `"}`,
			CreatedAt: now.Add(-age),
		})
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	n, err := q.DeleteEventsBefore(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d events, want 1", n)
	}

	events, err := q.ListEvents(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].CreatedAt.After(events[1].CreatedAt) {
		t.Error("events are not newest first")
	}

	count, err := q.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='sessions'`).Scan(&name)
	if err != nil {
		t.Fatalf("sessions table missing: %v", err)
	}
}
