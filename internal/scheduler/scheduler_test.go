// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/mediasite-go/internal/store"
)

func TestNew(t *testing.T) {
	logger := slog.Default()

	s := New(nil, logger, 30)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.retention != 30*24*time.Hour {
		t.Errorf("retention = %v", s.retention)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, slog.Default(), 30)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}
	s.Stop()
}

func TestScheduler_DisabledRetention(t *testing.T) {
	s := New(nil, slog.Default(), 0)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()
	if got := len(s.cron.Entries()); got != 0 {
		t.Errorf("entries = %d, want 0", got)
	}
	n, err := s.PruneEvents(context.Background())
	if err != nil || n != 0 {
		t.Errorf("PruneEvents = %d, %v", n, err)
	}
}

func TestPruneEvents(t *testing.T) {
	db, err := store.NewDB(filepath.Join(t.TempDir(), "sched.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer func() { _ = db.Close() }()
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	q := store.New(db)
	for _, age := range []int{1, 10, 45, 90} {
		_, err := q.CreateEvent(ctx, store.CreateEventParams{
			Level:     store.EventLevelWarning,
			Category:  store.EventCategorySystem,
			Message:   "old",
			Metadata:  "{}",
			CreatedAt: now.AddDate(0, 0, -age),
		})
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	s := New(db, slog.Default(), 30)
	s.now = func() time.Time { return now }
	n, err := s.PruneEvents(ctx)
	if err != nil {
		t.Fatalf("PruneEvents: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d, want 2", n)
	}
	left, _ := q.CountEvents(ctx)
	if left != 2 {
		t.Errorf("remaining %d, want 2", left)
	}
}
