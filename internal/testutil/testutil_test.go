// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"context"
	"testing"

	"github.com/olegiv/mediasite-go/internal/store"
)

func TestDatabasesAreMigrated(t *testing.T) {
	for name, open := range map[string]func(*testing.T) *store.Queries{
		"file":   func(t *testing.T) *store.Queries { return store.New(TestDB(t)) },
		"memory": func(t *testing.T) *store.Queries { return store.New(MemoryDB(t)) },
	} {
		t.Run(name, func(t *testing.T) {
			q := open(t)
			ctx := context.Background()
			if err := q.SetPreference(ctx, "language", "fr"); err != nil {
				t.Fatalf("SetPreference: %v", err)
			}
			got, err := q.GetPreference(ctx, "language")
			if err != nil || got != "fr" {
				t.Fatalf("GetPreference = %q, %v", got, err)
			}
		})
	}
}

func TestMemoryDBsAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, b := store.New(MemoryDB(t)), store.New(MemoryDB(t))
	if err := a.SetPreference(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if got, _ := b.GetPreference(ctx, "k"); got != "" {
		t.Errorf("second database sees %q", got)
	}
}
