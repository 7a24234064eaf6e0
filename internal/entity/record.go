// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package entity declares the six content families managed by the console
// and gives typed access to records decoded from the backend.
package entity

import (
	"strconv"
	"time"
)

// Record is one entity as returned by the backend.
type Record map[string]any

// ID returns the record identifier ("_id", falling back to "id").
func (r Record) ID() string {
	if id := r.String("_id"); id != "" {
		return id
	}
	return r.String("id")
}

// String returns a field as text. Numbers and bools are formatted; missing
// and null fields are "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Number returns a numeric field, parsing strings. Anything else is 0.
func (r Record) Number(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Rows returns an array-of-objects field.
func (r Record) Rows(key string) []Record {
	items, _ := r[key].([]any)
	out := make([]Record, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// Label returns the display name of the record using titleField, falling
// back to the identifier.
func (r Record) Label(titleField string) string {
	if s := r.String(titleField); s != "" {
		return s
	}
	return r.ID()
}

// Status returns the publish status.
func (r Record) Status() string {
	return r.String("status")
}

// Published reports whether the record is visible on the public site.
func (r Record) Published() bool {
	return r.Status() == "published"
}

// CreatedAt parses the audit timestamp; the zero time when absent.
func (r Record) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339, r.String("createdAt"))
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpdatedAt parses the last modification timestamp, falling back to
// CreatedAt.
func (r Record) UpdatedAt() time.Time {
	if t, err := time.Parse(time.RFC3339, r.String("updatedAt")); err == nil {
		return t
	}
	return r.CreatedAt()
}
