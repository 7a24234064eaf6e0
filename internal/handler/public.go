// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/mediasite-go/internal/client"
	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/i18n"
	"github.com/olegiv/mediasite-go/internal/render"
	"github.com/olegiv/mediasite-go/internal/schema"
)

// PublicListLimit is the page size requested for public listings.
const PublicListLimit = 100

// translateConcurrency bounds the parallel TranslateText calls of one page.
const translateConcurrency = 4

// translatable are the record keys passed through the translator. Names,
// links and authors are kept as entered.
var translatable = map[string]bool{
	"title":       true,
	"subtitle":    true,
	"description": true,
	"ctaLabel":    true,
	"quote":       true,
	"caption":     true,
	"text":        true,
	"label":       true,
	"category":    true,
}

// Collections is the subset of the backend client the public site reads.
type Collections interface {
	Resource(collection string) *client.Resource
}

// FrontendHandler handles the public site routes.
type FrontendHandler struct {
	renderer *render.Renderer
	backend  Collections
	provider *i18n.Provider
	logger   *slog.Logger
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(renderer *render.Renderer, backend Collections, provider *i18n.Provider, logger *slog.Logger) *FrontendHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrontendHandler{
		renderer: renderer,
		backend:  backend,
		provider: provider,
		logger:   logger,
	}
}

// Routes mounts the public routes on r.
func (h *FrontendHandler) Routes(r chi.Router) {
	r.Get(RouteRoot, h.Home)
	r.Get(RouteBrands, h.Brands)
	r.Get(RouteBrand, h.Brand)
	r.Get(RoutePackages, h.Packages)
	r.Get(RoutePortfolio, h.Portfolio)
	r.Get(RouteServices, h.Services)
}

// PublicListData holds data for the public listing templates.
type PublicListData struct {
	HeadingKey string
	Items      []entity.Record
	Featured   []entity.Record
	Error      string
	RetryURL   string
}

// PublicDetailData holds data for a public detail template.
type PublicDetailData struct {
	Item    entity.Record
	Digital bool
}

// Home handles GET /. It shows the published home sections followed by the
// brands.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	l := localizer(r, h.provider)
	data := PublicListData{HeadingKey: "public.tagline", RetryURL: RouteRoot}

	sections, err := h.published(r.Context(), l, entity.Home)
	if err != nil {
		h.renderFetchError(w, r, "public/home", data, err)
		return
	}
	brands, err := h.published(r.Context(), l, entity.Brands)
	if err != nil {
		h.renderFetchError(w, r, "public/home", data, err)
		return
	}
	data.Items, data.Featured = sections, brands
	h.render(w, r, http.StatusOK, "public/home", l.T("nav.home"), data)
}

// Brands handles GET /brands.
func (h *FrontendHandler) Brands(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, entity.Brands, "public/brands", "public.our_brands", RouteBrands)
}

// Packages handles GET /packages.
func (h *FrontendHandler) Packages(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, entity.Packages, "public/packages", "public.our_packages", RoutePackages)
}

// Portfolio handles GET /portfolio.
func (h *FrontendHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, entity.Portfolio, "public/portfolio", "public.our_work", RoutePortfolio)
}

// Services handles GET /services.
func (h *FrontendHandler) Services(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, entity.Services, "public/services", "public.our_services", RouteServices)
}

func (h *FrontendHandler) list(w http.ResponseWriter, r *http.Request, s *schema.Schema, tmpl, headingKey, self string) {
	l := localizer(r, h.provider)
	data := PublicListData{HeadingKey: headingKey, RetryURL: self}

	items, err := h.published(r.Context(), l, s)
	if err != nil {
		h.renderFetchError(w, r, tmpl, data, err)
		return
	}
	data.Items = items
	h.render(w, r, http.StatusOK, tmpl, l.T(headingKey), data)
}

// Brand handles GET /brands/{id}. Drafts are not found.
func (h *FrontendHandler) Brand(w http.ResponseWriter, r *http.Request) {
	l := localizer(r, h.provider)
	id := chi.URLParam(r, "id")

	rec, err := h.backend.Resource(entity.Brands.Collection).Get(r.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			h.NotFound(w, r)
			return
		}
		h.logger.Warn("backend fetch failed", "collection", entity.Brands.Collection, "id", id, "error", err)
		h.renderFetchError(w, r, "public/brands", PublicListData{
			HeadingKey: "public.our_brands",
			RetryURL:   r.URL.Path,
		}, err)
		return
	}
	if !rec.Published() {
		h.NotFound(w, r)
		return
	}

	rec = localize(r.Context(), l, rec)
	h.render(w, r, http.StatusOK, "public/brand", rec.String("name"), PublicDetailData{
		Item:    rec,
		Digital: entity.Brands.ActiveGroup(rec.String("slug")) == entity.GroupDigital,
	})
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	l := localizer(r, h.provider)
	h.render(w, r, http.StatusNotFound, "public/error", l.T("error.not_found"), ErrorData{
		Message: l.T("error.not_found"),
	})
}

// published lists the published records of s in display order, localized.
func (h *FrontendHandler) published(ctx context.Context, l i18n.Localizer, s *schema.Schema) ([]entity.Record, error) {
	res, err := h.backend.Resource(s.Collection).List(ctx, client.ListParams{
		Limit:  PublicListLimit,
		Status: schema.StatusPublished,
		Sort:   "order",
	})
	if err != nil {
		h.logger.Warn("backend list failed", "collection", s.Collection, "error", err)
		return nil, err
	}

	items := make([]entity.Record, 0, len(res.Data))
	for _, rec := range res.Data {
		if rec.Published() {
			items = append(items, rec)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Number("order") < items[j].Number("order")
	})

	var g errgroup.Group
	g.SetLimit(translateConcurrency)
	for i := range items {
		g.Go(func() error {
			items[i] = localize(ctx, l, items[i])
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}

// localize returns a copy of rec with its translatable strings, including
// those of nested rows, in the localizer's language.
func localize(ctx context.Context, l i18n.Localizer, rec entity.Record) entity.Record {
	out := make(entity.Record, len(rec))
	for k, v := range rec {
		switch val := v.(type) {
		case string:
			if translatable[k] && val != "" {
				out[k] = l.TranslateText(ctx, val)
				continue
			}
			out[k] = val
		case []any:
			rows := make([]any, len(val))
			for i, item := range val {
				if m, ok := item.(map[string]any); ok {
					rows[i] = map[string]any(localize(ctx, l, entity.Record(m)))
					continue
				}
				rows[i] = item
			}
			out[k] = rows
		default:
			out[k] = v
		}
	}
	return out
}

func (h *FrontendHandler) renderFetchError(w http.ResponseWriter, r *http.Request, tmpl string, data PublicListData, err error) {
	l := localizer(r, h.provider)
	h.logger.Debug("rendering fetch error", "template", tmpl, "error", err)
	data.Error = l.T("error.backend")
	h.render(w, r, http.StatusBadGateway, tmpl, l.T(data.HeadingKey), data)
}

func (h *FrontendHandler) render(w http.ResponseWriter, r *http.Request, status int, tmpl, title string, data any) {
	if err := h.renderer.RenderStatus(w, r, status, tmpl, render.TemplateData{
		Title: title,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, h.logger, "failed to render template", "template", tmpl, "error", err)
	}
}
