// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package repeater edits an ordered list of structurally identical rows.
//
// Every mutation builds a new backing slice, so a slice returned by Rows is
// never changed by later calls. Rows are identified by position.
package repeater

// List is an ordered list of rows of type T.
type List[T any] struct {
	rows    []T
	blank   T
	clone   func(T) T
	release func(T)
}

// Option configures a List.
type Option[T any] func(*List[T])

// WithRelease sets a hook called for every row removed from the list.
func WithRelease[T any](fn func(T)) Option[T] {
	return func(l *List[T]) { l.release = fn }
}

// WithRows seeds the list. The rows are copied, not cloned.
func WithRows[T any](rows []T) Option[T] {
	return func(l *List[T]) { l.rows = append([]T(nil), rows...) }
}

// New creates a list whose Add appends clone(blank).
func New[T any](blank T, clone func(T) T, opts ...Option[T]) *List[T] {
	l := &List[T]{blank: blank, clone: clone}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rows returns the current rows. The slice must not be modified.
func (l *List[T]) Rows() []T { return l.rows }

// Len returns the number of rows.
func (l *List[T]) Len() int { return len(l.rows) }

// At returns row i and whether i is in range.
func (l *List[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(l.rows) {
		var zero T
		return zero, false
	}
	return l.rows[i], true
}

// Add appends a deep copy of the blank row.
func (l *List[T]) Add() {
	next := make([]T, len(l.rows), len(l.rows)+1)
	copy(next, l.rows)
	l.rows = append(next, l.clone(l.blank))
}

// Update replaces row i with patch(row i). patch must return a new value
// rather than modify state shared with its argument.
func (l *List[T]) Update(i int, patch func(T) T) {
	if i < 0 || i >= len(l.rows) {
		return
	}
	next := make([]T, len(l.rows))
	copy(next, l.rows)
	next[i] = patch(l.rows[i])
	l.rows = next
}

// Duplicate inserts a deep copy of row i right after it.
func (l *List[T]) Duplicate(i int) {
	if i < 0 || i >= len(l.rows) {
		return
	}
	next := make([]T, 0, len(l.rows)+1)
	next = append(next, l.rows[:i+1]...)
	next = append(next, l.clone(l.rows[i]))
	next = append(next, l.rows[i+1:]...)
	l.rows = next
}

// Remove deletes row i.
func (l *List[T]) Remove(i int) {
	if i < 0 || i >= len(l.rows) {
		return
	}
	removed := l.rows[i]
	next := make([]T, 0, len(l.rows)-1)
	next = append(next, l.rows[:i]...)
	next = append(next, l.rows[i+1:]...)
	l.rows = next
	if l.release != nil {
		l.release(removed)
	}
}

// Reset replaces every row, releasing the previous ones.
func (l *List[T]) Reset(rows []T) {
	if l.release != nil {
		for _, r := range l.rows {
			l.release(r)
		}
	}
	l.rows = append([]T(nil), rows...)
}
