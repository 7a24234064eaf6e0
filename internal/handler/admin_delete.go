// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/olegiv/mediasite-go/internal/manager"
	"github.com/olegiv/mediasite-go/internal/render"
	"github.com/olegiv/mediasite-go/internal/schema"
)

// DeleteData holds data for the delete confirmation template.
type DeleteData struct {
	Schema     *schema.Schema
	Count      int
	Noun       string
	Names      string
	ConfirmURL string
	CancelURL  string
	Deleting   bool
}

// RequestDelete handles POST /admin/{entity}/delete. A row button posts its
// id as "delete", which wins over the checked "id" boxes of the surrounding
// form. Nothing is deleted until the confirmation is accepted.
func (h *AdminHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
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
	ids := r.PostForm["delete"]
	if len(ids) == 0 {
		ids = r.PostForm["id"]
	}
	if c := m.RequestDelete(ids); c.Count == 0 {
		redirect(w, r, entityURL(s, ""))
		return
	}
	redirect(w, r, entityURL(s, RouteDelete))
}

// DeleteConfirm handles GET /admin/{entity}/delete.
func (h *AdminHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	s := m.Schema()
	c, pending := m.Pending()
	if !pending {
		http.Redirect(w, r, entityURL(s, ""), http.StatusSeeOther)
		return
	}

	l := localizer(r, h.provider)
	if err := h.renderer.Render(w, r, "admin/delete", render.TemplateData{
		Title: l.T("delete.title"),
		Data: DeleteData{
			Schema:     s,
			Count:      c.Count,
			Noun:       m.Noun(c.Count),
			Names:      c.Preview(),
			ConfirmURL: entityURL(s, RouteConfirm),
			CancelURL:  entityURL(s, RouteCancel),
			Deleting:   m.Deleting(),
		},
	}); err != nil {
		logAndInternalError(w, h.logger, "failed to render delete confirmation", "entity", s.Name, "error", err)
	}
}

// ConfirmDelete handles POST /admin/{entity}/delete/confirm. The outcome is
// reported by the manager's alert on the list page.
func (h *AdminHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	s := m.Schema()
	report, err := m.ConfirmDelete(r.Context())
	switch {
	case errors.Is(err, manager.ErrNothingPending), errors.Is(err, manager.ErrDeleting):
	case err != nil:
		h.logger.Warn("delete failed", "collection", s.Collection, "error", err)
	default:
		h.logger.Info("records deleted", "category", "mutation", "collection", s.Collection,
			"requested", len(report.Results), "deleted", report.Succeeded())
	}
	redirect(w, r, entityURL(s, ""))
}

// CancelDelete handles POST /admin/{entity}/delete/cancel.
func (h *AdminHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	m.CancelDelete()
	redirect(w, r, entityURL(m.Schema(), ""))
}
