// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/olegiv/mediasite-go/internal/manager"
	"github.com/olegiv/mediasite-go/internal/schema"
)

// Registry defaults.
const (
	DefaultManagerCapacity = 1024
	DefaultManagerIdle     = 2 * time.Hour
)

// ManagerFactory builds the manager of one collection for a new session.
type ManagerFactory func(s *schema.Schema, lang string) *manager.Manager

// Managers keeps one entity manager per admin session and collection. Idle
// managers expire with the session idle timeout and release their previews.
type Managers struct {
	mu      sync.Mutex
	lru     *expirable.LRU[string, *manager.Manager]
	factory ManagerFactory
	logger  *slog.Logger
}

// NewManagers creates a registry of at most size managers.
func NewManagers(size int, idle time.Duration, factory ManagerFactory, logger *slog.Logger) *Managers {
	if size <= 0 {
		size = DefaultManagerCapacity
	}
	if idle <= 0 {
		idle = DefaultManagerIdle
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Managers{factory: factory, logger: logger}
	m.lru = expirable.NewLRU[string, *manager.Manager](size, m.evicted, idle)
	return m
}

// Get returns the manager for sessionID and s, creating it on first use.
// Lookups refresh the idle timer.
func (m *Managers) Get(sessionID string, s *schema.Schema, lang string) *manager.Manager {
	key := sessionID + "/" + s.Name

	m.mu.Lock()
	defer m.mu.Unlock()
	if mgr, ok := m.lru.Get(key); ok {
		// expirable.LRU does not extend TTL on Get
		m.lru.Add(key, mgr)
		return mgr
	}
	mgr := m.factory(s, lang)
	m.lru.Add(key, mgr)
	return mgr
}

// Len returns the number of live managers.
func (m *Managers) Len() int { return m.lru.Len() }

// Purge drops every manager.
func (m *Managers) Purge() { m.lru.Purge() }

// evicted runs under the LRU lock, so the modal is closed asynchronously.
func (m *Managers) evicted(key string, mgr *manager.Manager) {
	go func() {
		mgr.Lock()
		defer mgr.Unlock()
		mgr.CloseModal(context.Background())
		m.logger.Debug("manager evicted", "key", key)
	}()
}
