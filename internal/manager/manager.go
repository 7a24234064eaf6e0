// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package manager wires one entity family's backend resource to its table
// and edit modal, and owns the two-phase delete flow and the alert banner.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/mediasite-go/internal/client"
	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/form"
	"github.com/olegiv/mediasite-go/internal/payload"
	"github.com/olegiv/mediasite-go/internal/schema"
	"github.com/olegiv/mediasite-go/internal/table"
)

const (
	// AlertTTL is how long an alert stays visible.
	AlertTTL = 3 * time.Second
	// ListLimit is the page size requested from the backend. Every page is
	// fetched; the table searches, sorts and paginates locally.
	ListLimit = 500
	// DeleteConcurrency bounds the in-flight DELETE requests of one batch.
	DeleteConcurrency = 4
	// PreviewNames is the number of names listed in a delete confirmation.
	PreviewNames = 5
)

// Manager errors.
var (
	ErrNoModal        = errors.New("no modal is open")
	ErrNothingPending = errors.New("no deletion is pending")
	ErrDeleting       = errors.New("a deletion is already running")
)

// Backend is the REST collection a manager drives.
type Backend interface {
	List(ctx context.Context, p client.ListParams) (*client.ListResult, error)
	Get(ctx context.Context, id string) (entity.Record, error)
	Create(ctx context.Context, body *payload.Object) (entity.Record, error)
	Update(ctx context.Context, id string, body *payload.Object) (entity.Record, error)
	Delete(ctx context.Context, id string) error
}

var _ Backend = (*client.Resource)(nil)

// AlertKind is the style of an alert.
type AlertKind string

// Alert kinds.
const (
	AlertSuccess AlertKind = "success"
	AlertError   AlertKind = "error"
)

// Alert is the transient banner message. A new alert replaces the old one.
type Alert struct {
	Kind    AlertKind
	Message string
	Expires time.Time
}

// Confirmation describes a pending batch delete.
type Confirmation struct {
	Count int
	Names []string
	More  int
}

// Preview returns the names joined with ", ", followed by "+N more" when
// some were left out.
func (c Confirmation) Preview() string {
	s := strings.Join(c.Names, ", ")
	if c.More > 0 {
		s += fmt.Sprintf(" +%d more", c.More)
	}
	return s
}

// DeleteResult is the outcome of one DELETE request.
type DeleteResult struct {
	ID   string
	Name string
	Err  error
}

// DeleteReport holds the per-item outcomes of a batch delete in request order.
type DeleteReport struct {
	Results []DeleteResult
}

// Succeeded returns the number of records deleted.
func (r DeleteReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results that failed.
func (r DeleteReport) Failed() []DeleteResult {
	var out []DeleteResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Manager is the admin state of one entity family in one session. It is not
// safe for concurrent use; request handlers hold Lock for the whole request,
// including any use of the returned modal and table. ConfirmDelete gives the
// lock up while it waits on the backend.
type Manager struct {
	mu sync.Mutex

	schema      *schema.Schema
	backend     Backend
	deps        form.Deps
	logger      *slog.Logger
	now         func() time.Time
	concurrency int

	table    *table.Table
	modal    *form.Modal
	pending  []string
	deleting bool
	alert    *Alert
	loadErr  error
	loaded   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used for alert expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithDeleteConcurrency bounds concurrent deletes.
func WithDeleteConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// New creates a manager for s backed by b.
func New(s *schema.Schema, b Backend, deps form.Deps, lang string, opts ...Option) *Manager {
	m := &Manager{
		schema:      s,
		backend:     b,
		deps:        deps,
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: DeleteConcurrency,
		table:       table.New(s.Table, lang),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lock serializes access from concurrent requests of the same session.
func (m *Manager) Lock() { m.mu.Lock() }

// Unlock releases Lock.
func (m *Manager) Unlock() { m.mu.Unlock() }

// Schema returns the managed schema.
func (m *Manager) Schema() *schema.Schema { return m.schema }

// Table returns the list view state.
func (m *Manager) Table() *table.Table { return m.table }

// Modal returns the open modal, or nil.
func (m *Manager) Modal() *form.Modal { return m.modal }

// Loaded reports whether a list fetch has succeeded.
func (m *Manager) Loaded() bool { return m.loaded }

// LoadError returns the error of the last list fetch.
func (m *Manager) LoadError() error { return m.loadErr }

// Deleting reports whether a batch delete is in flight.
func (m *Manager) Deleting() bool { return m.deleting }

// Alert returns the current alert unless it has expired.
func (m *Manager) Alert() (Alert, bool) {
	if m.alert == nil {
		return Alert{}, false
	}
	if !m.now().Before(m.alert.Expires) {
		m.alert = nil
		return Alert{}, false
	}
	return *m.alert, true
}

// DismissAlert clears the alert.
func (m *Manager) DismissAlert() { m.alert = nil }

func (m *Manager) setAlert(kind AlertKind, msg string) {
	m.alert = &Alert{Kind: kind, Message: msg, Expires: m.now().Add(AlertTTL)}
}

// Load re-fetches the list from the backend. The list is always derived from
// the backend and never patched locally.
func (m *Manager) Load(ctx context.Context) error {
	rows, err := m.fetchAll(ctx)
	if err != nil {
		m.loadErr = err
		return fmt.Errorf("listing %s: %w", m.schema.Plural, err)
	}
	m.loadErr = nil
	m.loaded = true
	m.table.SetRows(rows)
	return nil
}

// fetchAll reads the first page, then the remaining pages concurrently. A
// backend that reports no page count is paged by its total.
func (m *Manager) fetchAll(ctx context.Context) ([]entity.Record, error) {
	first, err := m.backend.List(ctx, client.ListParams{Page: 1, Limit: ListLimit})
	if err != nil {
		return nil, err
	}
	pages := first.Pages
	if pages == 0 && len(first.Data) > 0 && first.Total > len(first.Data) {
		pages = (first.Total + len(first.Data) - 1) / len(first.Data)
	}
	if pages <= 1 {
		return first.Data, nil
	}

	results := make([][]entity.Record, pages)
	results[0] = first.Data
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for page := 2; page <= pages; page++ {
		g.Go(func() error {
			res, err := m.backend.List(gctx, client.ListParams{Page: page, Limit: ListLimit})
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			results[page-1] = res.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []entity.Record
	for _, data := range results {
		rows = append(rows, data...)
	}
	return rows, nil
}

// OpenCreate opens an empty modal, discarding any open one.
func (m *Manager) OpenCreate(ctx context.Context) *form.Modal {
	m.CloseModal(ctx)
	m.modal = form.NewCreate(m.schema, m.deps)
	return m.modal
}

// OpenEdit re-fetches the record and opens a modal seeded from it. On failure
// no modal is open and an error alert is set.
func (m *Manager) OpenEdit(ctx context.Context, id string) (*form.Modal, error) {
	m.CloseModal(ctx)
	modal, err := form.NewEdit(ctx, m.schema, m.deps, m.backend, id)
	if err != nil {
		m.setAlert(AlertError, client.MessageOf(err, fmt.Sprintf("Failed to load %s.", strings.ToLower(m.schema.Singular))))
		return nil, err
	}
	m.modal = modal
	return modal, nil
}

// CloseModal discards the open modal and its previews.
func (m *Manager) CloseModal(ctx context.Context) {
	if m.modal != nil {
		m.modal.Close(ctx)
		m.modal = nil
	}
}

// Save submits the open modal as a create or an update. It returns true when
// the save succeeded and the modal closed.
func (m *Manager) Save(ctx context.Context) (bool, error) {
	if m.modal == nil {
		return false, ErrNoModal
	}
	modal := m.modal
	var saveErr error
	closed, err := modal.Submit(ctx, func(ctx context.Context, body *payload.Object) bool {
		if modal.IsEdit() {
			_, saveErr = m.backend.Update(ctx, modal.ID(), body)
		} else {
			_, saveErr = m.backend.Create(ctx, body)
		}
		return saveErr == nil
	})
	if err != nil {
		return false, err
	}
	if saveErr != nil {
		m.setAlert(AlertError, m.saveMessage(saveErr))
		m.logger.Warn("save failed", "category", "mutation",
			"collection", m.schema.Collection, "id", modal.ID(), "error", saveErr)
		return false, saveErr
	}

	if modal.IsEdit() {
		m.setAlert(AlertSuccess, "Updated successfully.")
		m.logger.Info("record updated", "category", "mutation", "collection", m.schema.Collection, "id", modal.ID())
	} else {
		m.setAlert(AlertSuccess, "Created successfully.")
		m.logger.Info("record created", "category", "mutation", "collection", m.schema.Collection)
	}
	if closed {
		m.modal = nil
	}
	if err := m.Load(ctx); err != nil {
		m.logger.Warn("reload after save failed", "collection", m.schema.Collection, "error", err)
	}
	return closed, nil
}

func (m *Manager) saveMessage(err error) string {
	if client.IsConflict(err) {
		return m.schema.Singular + " already exists."
	}
	return client.MessageOf(err, fmt.Sprintf("Failed to save %s.", strings.ToLower(m.schema.Singular)))
}

// RequestDelete stages ids for deletion and returns the confirmation to show.
// Nothing is deleted until ConfirmDelete. While a delete runs the running
// batch is returned unchanged.
func (m *Manager) RequestDelete(ids []string) Confirmation {
	if m.deleting {
		return m.confirmation()
	}
	seen := make(map[string]bool, len(ids))
	m.pending = nil
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		m.pending = append(m.pending, id)
	}
	return m.confirmation()
}

// Pending returns the confirmation of the staged delete, if any.
func (m *Manager) Pending() (Confirmation, bool) {
	if len(m.pending) == 0 {
		return Confirmation{}, false
	}
	return m.confirmation(), true
}

func (m *Manager) confirmation() Confirmation {
	c := Confirmation{Count: len(m.pending)}
	for i, id := range m.pending {
		if i == PreviewNames {
			c.More = len(m.pending) - PreviewNames
			break
		}
		c.Names = append(c.Names, m.nameOf(id))
	}
	return c
}

func (m *Manager) nameOf(id string) string {
	for _, r := range m.table.Rows() {
		if r.ID() == id {
			if name := r.Label(m.schema.TitleField); name != "" {
				return name
			}
			break
		}
	}
	return id
}

// CancelDelete drops the staged delete.
func (m *Manager) CancelDelete() {
	m.pending = nil
}

// ConfirmDelete sends one DELETE per staged id concurrently, waits for all of
// them and reports each outcome. Failures do not stop the other requests.
// The caller must hold Lock; it is released while the requests are in flight.
func (m *Manager) ConfirmDelete(ctx context.Context) (DeleteReport, error) {
	if m.deleting {
		return DeleteReport{}, ErrDeleting
	}
	if len(m.pending) == 0 {
		return DeleteReport{}, ErrNothingPending
	}
	ids := append([]string(nil), m.pending...)
	report := DeleteReport{Results: make([]DeleteResult, len(ids))}
	for i, id := range ids {
		report.Results[i] = DeleteResult{ID: id, Name: m.nameOf(id)}
	}

	// Other requests of the session see Deleting while the requests run.
	m.deleting = true
	m.mu.Unlock()
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			report.Results[i].Err = m.backend.Delete(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	m.mu.Lock()
	m.deleting = false
	m.pending = nil

	for _, res := range report.Failed() {
		m.logger.Warn("delete failed", "category", "mutation",
			"collection", m.schema.Collection, "id", res.ID, "error", res.Err)
	}
	m.setAlert(m.deleteAlert(report))
	m.table.ClearSelection()
	if err := m.Load(ctx); err != nil {
		m.logger.Warn("reload after delete failed", "collection", m.schema.Collection, "error", err)
	}
	return report, nil
}

func (m *Manager) deleteAlert(r DeleteReport) (AlertKind, string) {
	total, ok := len(r.Results), r.Succeeded()
	failed := r.Failed()
	if len(failed) == 0 {
		return AlertSuccess, fmt.Sprintf("Deleted %d %s successfully.", ok, m.Noun(ok))
	}
	names := make([]string, 0, len(failed))
	for _, f := range failed {
		names = append(names, f.Name)
	}
	if ok == 0 {
		return AlertError, fmt.Sprintf("Failed to delete %s: %s",
			strings.Join(names, ", "), client.MessageOf(failed[0].Err, "request failed"))
	}
	return AlertError, fmt.Sprintf("Deleted %d of %d %s. Failed: %s.",
		ok, total, m.Noun(total), strings.Join(names, ", "))
}

// Noun returns the lowercase singular for n == 1 and the plural otherwise.
func (m *Manager) Noun(n int) string {
	if n == 1 {
		return strings.ToLower(m.schema.Singular)
	}
	return m.schema.Plural
}
