// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "time"

// Event log levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event log categories.
const (
	EventCategorySystem   = "system"
	EventCategoryMutation = "mutation"
	EventCategoryBackend  = "backend"
	EventCategoryI18n     = "i18n"
	EventCategoryCache    = "cache"
	EventCategorySecurity = "security"
)

// Preference is one persisted setting.
type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Event is one event log row.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}
