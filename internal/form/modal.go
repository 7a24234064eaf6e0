// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package form holds the in-progress edit buffer of one entity and turns it
// into a backend payload.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/imagefield"
	"github.com/olegiv/mediasite-go/internal/payload"
	"github.com/olegiv/mediasite-go/internal/repeater"
	"github.com/olegiv/mediasite-go/internal/schema"
)

// Form errors.
var (
	ErrInvalid      = errors.New("form has validation errors")
	ErrSubmitting   = errors.New("form is already submitting")
	ErrClosed       = errors.New("form is closed")
	ErrUnknownField = errors.New("unknown field")
	ErrNoUploader   = errors.New("no uploader configured")
)

// Uploader stores a file immediately and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f *payload.File) (string, error)
}

// Fetcher loads the authoritative record for editing.
type Fetcher interface {
	Get(ctx context.Context, id string) (entity.Record, error)
}

// Deps are the collaborators of a Modal. Both may be nil.
type Deps struct {
	Previews imagefield.PreviewStore
	Uploader Uploader
}

// SaveFunc persists a payload and reports success. The modal closes on true
// and stays open, unchanged, on false.
type SaveFunc func(ctx context.Context, body *payload.Object) bool

// Modal is the edit buffer of one record. It is not safe for concurrent use.
type Modal struct {
	schema    *schema.Schema
	deps      Deps
	id        string
	values    map[string]string
	images    map[string]*imagefield.Controller
	repeaters map[string]*repeater.List[Row]
	touched   map[string]bool

	submitting bool
	closed     bool
}

// NewCreate opens an empty modal seeded with field defaults.
func NewCreate(s *schema.Schema, deps Deps) *Modal {
	m := newModal(s, deps)
	m.seed(entity.Record{})
	return m
}

// NewEdit fetches the record by id and seeds the modal from it. List rows
// are a lighter projection, so the record is always re-fetched.
func NewEdit(ctx context.Context, s *schema.Schema, deps Deps, fetcher Fetcher, id string) (*Modal, error) {
	rec, err := fetcher.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching %s %s: %w", s.Singular, id, err)
	}
	m := newModal(s, deps)
	m.id = id
	m.seed(rec)
	return m, nil
}

func newModal(s *schema.Schema, deps Deps) *Modal {
	return &Modal{
		schema:    s,
		deps:      deps,
		values:    make(map[string]string),
		images:    make(map[string]*imagefield.Controller),
		repeaters: make(map[string]*repeater.List[Row]),
		touched:   make(map[string]bool),
	}
}

func (m *Modal) seed(rec entity.Record) {
	for _, f := range m.schema.Fields {
		switch f.Kind {
		case schema.KindImage:
			m.images[f.Name] = imagefield.New(rec.String(f.Name), m.deps.Previews)
		case schema.KindRepeater:
			rows := make([]Row, 0)
			for _, r := range rec.Rows(f.Name) {
				rows = append(rows, seedRow(f.Fields, r, m.deps.Previews))
			}
			m.repeaters[f.Name] = m.newList(f, rows)
		default:
			v, ok := rec[f.Name]
			if !ok || v == nil {
				m.values[f.Name] = f.Default
				continue
			}
			m.values[f.Name] = rec.String(f.Name)
		}
	}
}

func (m *Modal) newList(f schema.Field, rows []Row) *repeater.List[Row] {
	blank := seedRow(f.Fields, entity.Record{}, m.deps.Previews)
	return repeater.New(blank, cloneRow,
		repeater.WithRows(rows),
		repeater.WithRelease(releaseRow),
	)
}

// Schema returns the schema the modal edits.
func (m *Modal) Schema() *schema.Schema { return m.schema }

// ID returns the record id, or "" when creating.
func (m *Modal) ID() string { return m.id }

// IsEdit reports whether the modal edits an existing record.
func (m *Modal) IsEdit() bool { return m.id != "" }

// Closed reports whether the modal has been closed.
func (m *Modal) Closed() bool { return m.closed }

// Submitting reports whether a save is in flight.
func (m *Modal) Submitting() bool { return m.submitting }

// Value returns the raw input of a scalar field.
func (m *Modal) Value(field string) string { return m.values[field] }

// Image returns the controller of a top-level image field.
func (m *Modal) Image(field string) *imagefield.Controller { return m.images[field] }

// Rows returns the rows of a repeater field.
func (m *Modal) Rows(field string) []Row {
	if l, ok := m.repeaters[field]; ok {
		return l.Rows()
	}
	return nil
}

// ActiveGroup returns the variant group selected by the current
// discriminator value.
func (m *Modal) ActiveGroup() string {
	if m.schema.Variant == nil {
		return ""
	}
	return m.schema.ActiveGroup(strings.TrimSpace(m.values[m.schema.Variant.Field]))
}

// SetValue sets the raw input of a scalar field.
func (m *Modal) SetValue(field, value string) error {
	f, ok := m.schema.Field(field)
	if !ok || f.Kind == schema.KindImage || f.Kind == schema.KindRepeater {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	m.values[field] = value
	return nil
}

// Touch marks a field as visited so its error is reported.
func (m *Modal) Touch(field string) { m.touched[field] = true }

// TouchAll marks every field as visited.
func (m *Modal) TouchAll() {
	for _, f := range m.schema.Fields {
		m.touched[f.Name] = true
	}
}

func (m *Modal) repeaterField(field string) (schema.Field, *repeater.List[Row], error) {
	f, ok := m.schema.Field(field)
	l, okList := m.repeaters[field]
	if !ok || !okList {
		return schema.Field{}, nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return f, l, nil
}

// AddRow appends a blank row to a repeater.
func (m *Modal) AddRow(field string) error {
	_, l, err := m.repeaterField(field)
	if err != nil {
		return err
	}
	l.Add()
	return nil
}

// DuplicateRow copies row i of a repeater right after it.
func (m *Modal) DuplicateRow(field string, i int) error {
	_, l, err := m.repeaterField(field)
	if err != nil {
		return err
	}
	l.Duplicate(i)
	return nil
}

// RemoveRow deletes row i of a repeater and releases its previews.
func (m *Modal) RemoveRow(field string, i int) error {
	_, l, err := m.repeaterField(field)
	if err != nil {
		return err
	}
	l.Remove(i)
	return nil
}

// SetRowValue sets a scalar sub-field of row i.
func (m *Modal) SetRowValue(field string, i int, sub, value string) error {
	f, l, err := m.repeaterField(field)
	if err != nil {
		return err
	}
	if sf, ok := subField(f, sub); !ok || sf.Kind == schema.KindImage {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, field, sub)
	}
	l.Update(i, func(r Row) Row { return r.withValue(sub, value) })
	return nil
}

// RowImage returns the controller of an image sub-field of row i.
func (m *Modal) RowImage(field string, i int, sub string) *imagefield.Controller {
	l, ok := m.repeaters[field]
	if !ok {
		return nil
	}
	r, ok := l.At(i)
	if !ok {
		return nil
	}
	return r.Images[sub]
}

// SelectFile handles a file chosen for a top-level image field. Fields marked
// UploadOnSelect upload it right away and switch to the returned URL; an
// upload failure is returned and leaves the field unchanged. Every other
// field stages the file until submit.
func (m *Modal) SelectFile(ctx context.Context, field string, f *payload.File) error {
	def, ok := m.schema.Field(field)
	c := m.images[field]
	if !ok || c == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return m.selectFile(ctx, def, c, f)
}

// SelectRowFile is SelectFile for an image sub-field of row i.
func (m *Modal) SelectRowFile(ctx context.Context, field string, i int, sub string, f *payload.File) error {
	parent, _, err := m.repeaterField(field)
	if err != nil {
		return err
	}
	def, ok := subField(parent, sub)
	c := m.RowImage(field, i, sub)
	if !ok || c == nil {
		return fmt.Errorf("%w: %s[%d].%s", ErrUnknownField, field, i, sub)
	}
	return m.selectFile(ctx, def, c, f)
}

func (m *Modal) selectFile(ctx context.Context, def schema.Field, c *imagefield.Controller, f *payload.File) error {
	if !def.UploadOnSelect || f == nil {
		c.OnFile(ctx, f)
		return nil
	}
	if m.deps.Uploader == nil {
		return ErrNoUploader
	}
	url, err := m.deps.Uploader.Upload(ctx, f)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", def.Name, err)
	}
	c.SetURL(url)
	return nil
}

// Submit validates the buffer and hands the payload to save. It touches
// every field when invalid and refuses to run while a save is in flight.
// It returns true when the modal closed.
func (m *Modal) Submit(ctx context.Context, save SaveFunc) (bool, error) {
	if m.closed {
		return false, ErrClosed
	}
	if m.submitting {
		return false, ErrSubmitting
	}
	m.TouchAll()
	if !m.valid() {
		return false, ErrInvalid
	}

	m.submitting = true
	ok := save(ctx, m.Payload())
	m.submitting = false

	if !ok {
		return false, nil
	}
	m.Close(ctx)
	return true, nil
}

// Close discards the buffer and releases every preview.
func (m *Modal) Close(ctx context.Context) {
	if m.closed {
		return
	}
	m.closed = true
	for _, c := range m.images {
		c.Close(ctx)
	}
	for _, l := range m.repeaters {
		l.Reset(nil)
	}
}

func subField(parent schema.Field, name string) (schema.Field, bool) {
	for _, f := range parent.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return schema.Field{}, false
}
