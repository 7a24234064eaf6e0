// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/olegiv/mediasite-go/internal/i18n"
	"github.com/olegiv/mediasite-go/internal/render"
	"github.com/olegiv/mediasite-go/internal/store"
	"github.com/olegiv/mediasite-go/internal/table"
)

// EventsPerPage is the number of events to display per page.
const EventsPerPage = 25

// detailsLengthThreshold is the max chars before details are collapsible.
const detailsLengthThreshold = 80

// EventsHandler handles the event log page.
type EventsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	provider *i18n.Provider
	logger   *slog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer, provider *i18n.Provider, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		queries:  store.New(db),
		renderer: renderer,
		provider: provider,
		logger:   logger,
	}
}

// EventView is one event row.
type EventView struct {
	ID          int64
	Level       string
	Category    string
	Message     string
	Details     string
	DetailsLong bool
	CreatedAt   string
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events     []EventView
	Pagination table.Pagination
	PageLinks  []PageLink
	PrevURL    string
	NextURL    string
}

// formatMetadata converts JSON metadata to readable text.
// Example: {"collection":"brands","error":"not found"} -> "collection: brands, error: not found"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var value string
		switch v := data[key].(type) {
		case string:
			value = v
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			value = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				value = string(b)
			}
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, ", ")
}

// List handles GET /admin/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	total, err := h.queries.CountEvents(r.Context())
	if err != nil {
		logAndInternalError(w, h.logger, "failed to count events", "error", err)
		return
	}

	p := table.BuildPagination(max(intParam(r.URL.Query().Get("page")), 1), int(total), EventsPerPage)
	offset := int64((p.CurrentPage - 1) * EventsPerPage)
	rows, err := h.queries.ListEvents(r.Context(), EventsPerPage, offset)
	if err != nil {
		logAndInternalError(w, h.logger, "failed to list events", "error", err)
		return
	}

	base := RouteAdmin + RouteEvents
	data := EventsListData{Pagination: p}
	for _, e := range rows {
		details := formatMetadata(e.Metadata)
		data.Events = append(data.Events, EventView{
			ID:          e.ID,
			Level:       e.Level,
			Category:    e.Category,
			Message:     e.Message,
			Details:     details,
			DetailsLong: len(details) > detailsLengthThreshold,
			CreatedAt:   e.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
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

	l := localizer(r, h.provider)
	if err := h.renderer.Render(w, r, "admin/events", render.TemplateData{
		Title: l.T("nav.events"),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, h.logger, "failed to render events", "error", err)
	}
}
