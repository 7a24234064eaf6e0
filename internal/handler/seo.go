// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/i18n"
	"github.com/olegiv/mediasite-go/internal/seo"
)

// SEO routes.
const (
	RouteRobots  = "/robots.txt"
	RouteSitemap = "/sitemap.xml"
)

// SEOHandler serves robots.txt and sitemap.xml for the public site.
type SEOHandler struct {
	frontend    *FrontendHandler
	siteURL     string
	disallowAll bool
}

// NewSEOHandler creates an SEO handler. An empty siteURL is derived from each
// request; disallowAll blocks every crawler.
func NewSEOHandler(frontend *FrontendHandler, siteURL string, disallowAll bool) *SEOHandler {
	return &SEOHandler{frontend: frontend, siteURL: siteURL, disallowAll: disallowAll}
}

// Routes mounts the SEO routes on r.
func (h *SEOHandler) Routes(r chi.Router) {
	r.Get(RouteRobots, h.Robots)
	r.Get(RouteSitemap, h.Sitemap)
}

func (h *SEOHandler) site(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.site(r),
		DisallowAll: h.disallowAll,
	})))
}

// Sitemap handles GET /sitemap.xml. It lists the public pages and every
// published brand; a backend failure answers 502.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	brands, err := h.frontend.published(r.Context(), h.frontend.provider.For(i18n.DefaultLanguage), entity.Brands)
	if err != nil {
		http.Error(w, "Backend unavailable", http.StatusBadGateway)
		return
	}

	b := seo.NewSitemapBuilder(h.site(r))
	b.Add(RouteRoot, time.Time{}, seo.ChangeFreqDaily, "1.0")
	for _, p := range []string{RouteBrands, RoutePackages, RoutePortfolio, RouteServices} {
		b.Add(p, time.Time{}, seo.ChangeFreqWeekly, "0.8")
	}
	for _, rec := range brands {
		b.Add(RouteBrands+"/"+rec.ID(), rec.UpdatedAt(), seo.ChangeFreqMonthly, "0.6")
	}

	data, err := b.Build()
	if err != nil {
		logAndInternalError(w, h.frontend.logger, "failed to build sitemap", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(data)
}
