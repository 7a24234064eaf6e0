// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/i18n"
	"github.com/olegiv/mediasite-go/internal/imaging"
	"github.com/olegiv/mediasite-go/internal/manager"
	"github.com/olegiv/mediasite-go/internal/middleware"
	"github.com/olegiv/mediasite-go/internal/preview"
	"github.com/olegiv/mediasite-go/internal/render"
	"github.com/olegiv/mediasite-go/internal/schema"
	"github.com/olegiv/mediasite-go/internal/session"
	"github.com/olegiv/mediasite-go/internal/table"
)

// PreviewOpener serves the bytes behind a preview reference.
type PreviewOpener interface {
	Open(ctx context.Context, ref string) (*preview.Preview, error)
}

// AdminHandler handles the admin console routes.
type AdminHandler struct {
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	managers       *Managers
	provider       *i18n.Provider
	previews       PreviewOpener
	logger         *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(renderer *render.Renderer, sm *scs.SessionManager, managers *Managers,
	provider *i18n.Provider, previews PreviewOpener, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		renderer:       renderer,
		sessionManager: sm,
		managers:       managers,
		provider:       provider,
		previews:       previews,
		logger:         logger,
	}
}

// Routes mounts the admin routes on r.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get(RouteRoot, h.Dashboard)
	r.Post(RouteLanguage, h.SetLanguage)
	r.Get(RoutePreviews, h.Preview)

	r.Route(RouteEntity, func(r chi.Router) {
		r.Get(RouteRoot, h.List)
		r.Post(RouteColumns, h.ToggleColumn)
		r.Post(RouteSelection, h.Selection)
		r.Get(RouteExport, h.Export)
		r.Post(RouteDismiss, h.DismissAlert)

		r.Get(RouteNew, h.New)
		r.Get(RouteEdit, h.Edit)
		r.Get(RouteForm, h.Form)
		r.Post(RouteForm, h.SubmitForm)

		r.Get(RouteDelete, h.DeleteConfirm)
		r.Post(RouteDelete, h.RequestDelete)
		r.Post(RouteConfirm, h.ConfirmDelete)
		r.Post(RouteCancel, h.CancelDelete)
	})
}

func entityURL(s *schema.Schema, suffix string) string {
	return RouteAdmin + "/" + s.Name + suffix
}

// acquire resolves the {entity} parameter and returns the session's manager
// for it, locked. The caller must Unlock it.
func (h *AdminHandler) acquire(w http.ResponseWriter, r *http.Request) (*manager.Manager, bool) {
	s, ok := entity.Lookup(chi.URLParam(r, "entity"))
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	lang := localizer(r, h.provider).Lang()
	m := h.managers.Get(session.ID(r.Context(), h.sessionManager), s, lang)
	m.Lock()
	m.Table().SetLanguage(lang)
	return m, true
}

func (h *AdminHandler) notFound(w http.ResponseWriter, r *http.Request) {
	l := localizer(r, h.provider)
	if err := h.renderer.RenderStatus(w, r, http.StatusNotFound, "admin/error", render.TemplateData{
		Title: l.T("error.not_found"),
		Data:  ErrorData{Message: l.T("error.not_found")},
	}); err != nil {
		logAndInternalError(w, h.logger, "failed to render error page", "error", err)
	}
}

// ErrorData is the payload of the error pages.
type ErrorData struct {
	Message  string
	Detail   string
	RetryURL string
}

// DashboardEntry is one entity family on the dashboard.
type DashboardEntry struct {
	Name     string
	LabelKey string
	URL      string
	NewURL   string
}

// NavItems returns the admin navigation entries in schema order.
func NavItems() []DashboardEntry {
	schemas := entity.All()
	out := make([]DashboardEntry, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, DashboardEntry{
			Name:     s.Name,
			LabelKey: "entity." + s.Name,
			URL:      entityURL(s, ""),
			NewURL:   entityURL(s, RouteNew),
		})
	}
	return out
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	l := localizer(r, h.provider)
	if err := h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title: l.T("dashboard.title"),
		Data:  NavItems(),
	}); err != nil {
		logAndInternalError(w, h.logger, "failed to render dashboard", "error", err)
	}
}

// SetLanguage handles POST /admin/language. It changes the provider language,
// which persists it and invalidates the translation memo, and pins the
// language cookie of this browser.
func (h *AdminHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	back := localTarget(r, r.Referer(), RouteAdmin)
	lang := r.PostForm.Get("lang")

	if err := h.provider.SetLanguage(r.Context(), lang); err != nil {
		if errors.Is(err, i18n.ErrUnsupportedLanguage) {
			flashAndRedirect(w, r, h.renderer, back, localizer(r, h.provider).T("error.generic"), flashError)
			return
		}
		h.logger.Warn("language change failed", "language", lang, "error", err)
	}
	middleware.SetLanguageCookie(w, lang)
	redirect(w, r, back)
}

// ColumnView is one sortable table header.
type ColumnView struct {
	Key      string
	LabelKey string
	Dir      string
	SortURL  string
}

// RowView is one table row.
type RowView struct {
	ID       string
	Cells    []string
	Selected bool
	EditURL  string
}

// PageLink is one entry of the page strip.
type PageLink struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// ListData holds data for the list template.
type ListData struct {
	Schema        *schema.Schema
	LabelKey      string
	BaseURL       string
	Query         string
	Columns       []ColumnView
	Toggles       []table.ColumnState
	Rows          []RowView
	Pagination    table.Pagination
	PageLinks     []PageLink
	PrevURL       string
	NextURL       string
	First         int
	Last          int
	SelectedCount int
	PageSelected  bool
	Alert         *manager.Alert
	Loaded        bool
	LoadError     string
	RetryURL      string
	Deleting      bool
}

// List handles GET /admin/{entity}. Query parameters q, sort, dir and page
// update the table state kept in the session's manager.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	q := r.URL.Query()
	if !m.Loaded() || q.Has("reload") {
		if err := m.Load(r.Context()); err != nil {
			h.logger.Warn("backend list failed", "collection", m.Schema().Collection, "error", err)
		}
	}

	t := m.Table()
	if q.Has("q") && strings.TrimSpace(q.Get("q")) != t.Query() {
		t.SetQuery(q.Get("q"))
	}
	if q.Has("sort") {
		t.SetSort(q.Get("sort"), table.ParseDirection(q.Get("dir")))
	}
	if q.Has("page") {
		t.SetPage(intParam(q.Get("page")))
	}

	data := h.listData(r, m)
	l := localizer(r, h.provider)
	if err := h.renderer.Render(w, r, "admin/list", render.TemplateData{
		Title: l.T(data.LabelKey),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, h.logger, "failed to render list", "entity", m.Schema().Name, "error", err)
	}
}

func (h *AdminHandler) listData(r *http.Request, m *manager.Manager) ListData {
	s := m.Schema()
	t := m.Table()
	base := entityURL(s, "")
	data := ListData{
		Schema:   s,
		LabelKey: "entity." + s.Name,
		BaseURL:  base,
		Query:    t.Query(),
		Toggles:  t.Columns(),
		Loaded:   m.Loaded(),
		RetryURL: base + "?reload=1",
		Deleting: m.Deleting(),
	}
	if err := m.LoadError(); err != nil {
		data.LoadError = localizer(r, h.provider).T("error.backend")
	}
	if a, ok := m.Alert(); ok {
		data.Alert = &a
	}

	sortKey, sortDir := t.Sort()
	visible := t.VisibleColumns()
	for _, c := range visible {
		dir := table.None
		if c.Key == sortKey {
			dir = sortDir
		}
		data.Columns = append(data.Columns, ColumnView{
			Key:      c.Key,
			LabelKey: c.LabelKey(),
			Dir:      dir.String(),
			SortURL:  withQuery(base, "sort", c.Key, "dir", dir.Next().String()),
		})
	}

	view := t.View()
	for _, rec := range view.Rows {
		row := RowView{
			ID:       rec.ID(),
			Selected: t.IsSelected(rec.ID()),
			EditURL:  entityURL(s, "/"+url.PathEscape(rec.ID())+"/edit"),
		}
		for _, c := range visible {
			row.Cells = append(row.Cells, table.Value(rec, c.Key))
		}
		data.Rows = append(data.Rows, row)
	}

	p := view.Pagination
	data.Pagination = p
	data.First, data.Last = p.Range()
	for _, pg := range p.Pages {
		link := PageLink{Number: pg.Number, IsCurrent: pg.IsCurrent, IsEllipsis: pg.IsEllipsis}
		if !pg.IsEllipsis {
			link.URL = pageURL(base, pg.Number)
		}
		data.PageLinks = append(data.PageLinks, link)
	}
	if p.HasPrev {
		data.PrevURL = pageURL(base, p.PrevPage)
	}
	if p.HasNext {
		data.NextURL = pageURL(base, p.NextPage)
	}
	data.SelectedCount = len(t.SelectedIDs())
	data.PageSelected = t.PageSelected()
	return data
}

func pageURL(base string, page int) string {
	return withQuery(base, "page", strconv.Itoa(page))
}

// withQuery appends alternating key/value pairs as a query string.
func withQuery(base string, pairs ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return base + "?" + v.Encode()
}

// ToggleColumn handles POST /admin/{entity}/columns.
func (h *AdminHandler) ToggleColumn(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	m.Table().ToggleColumn(r.PostForm.Get("column"))
	redirect(w, r, entityURL(m.Schema(), ""))
}

// Selection actions.
const (
	selectionApply      = "apply"
	selectionSelectPage = "select_page"
	selectionClearPage  = "clear_page"
	selectionClear      = "clear"
	selectionDelete     = "delete"
	selectionExport     = "export"
)

// Selection handles POST /admin/{entity}/selection. The checkboxes of the
// current page are synced first, then the action runs.
func (h *AdminHandler) Selection(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	s := m.Schema()
	t := m.Table()

	checked := make(map[string]bool)
	for _, id := range r.PostForm["id"] {
		checked[id] = true
	}
	for _, rec := range t.View().Rows {
		t.SetSelected(rec.ID(), checked[rec.ID()])
	}

	switch r.PostForm.Get("action") {
	case selectionSelectPage:
		t.SelectPage(true)
	case selectionClearPage:
		t.SelectPage(false)
	case selectionClear:
		t.ClearSelection()
	case selectionDelete:
		if ids := t.SelectedIDs(); len(ids) > 0 {
			m.RequestDelete(ids)
			redirect(w, r, entityURL(s, RouteDelete))
			return
		}
	case selectionExport:
		redirect(w, r, entityURL(s, RouteExport))
		return
	}
	redirect(w, r, entityURL(s, ""))
}

// Export handles GET /admin/{entity}/export.csv.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	if !m.Loaded() {
		if err := m.Load(r.Context()); err != nil {
			logAndHTTPError(w, h.logger, "Backend unavailable", http.StatusBadGateway,
				"backend list failed", "collection", m.Schema().Collection, "error", err)
			return
		}
	}

	var buf bytes.Buffer
	if err := m.Table().ExportCSV(&buf); err != nil {
		logAndInternalError(w, h.logger, "failed to export csv", "entity", m.Schema().Name, "error", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", m.Schema().Name+".csv"))
	_, _ = buf.WriteTo(w)
}

// DismissAlert handles POST /admin/{entity}/alert/dismiss.
func (h *AdminHandler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	m.DismissAlert()
	redirect(w, r, localTarget(r, r.Referer(), entityURL(m.Schema(), "")))
}

// Preview handles GET /admin/previews/{ref}.
func (h *AdminHandler) Preview(w http.ResponseWriter, r *http.Request) {
	p, err := h.previews.Open(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, preview.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, h.logger, "failed to open preview", "error", err)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if imaging.IsImage(p.ContentType) {
		w.Header().Set("Content-Type", p.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", "attachment")
		w.Header().Set("Content-Security-Policy", "sandbox")
	}
	_, _ = w.Write(p.Data)
}
