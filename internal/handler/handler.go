// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the admin console and the
// public site.
package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/olegiv/mediasite-go/internal/i18n"
	"github.com/olegiv/mediasite-go/internal/middleware"
	"github.com/olegiv/mediasite-go/internal/render"
)

// Route constants for chi router registration.
const (
	RouteRoot      = "/"
	RouteAdmin     = "/admin"
	RouteLanguage  = "/language"
	RouteEvents    = "/events"
	RoutePreviews  = "/previews/{ref}"
	RouteEntity    = "/{entity}"
	RouteColumns   = "/columns"
	RouteSelection = "/selection"
	RouteExport    = "/export.csv"
	RouteNew       = "/new"
	RouteEdit      = "/{id}/edit"
	RouteForm      = "/form"
	RouteDelete    = "/delete"
	RouteConfirm   = "/delete/confirm"
	RouteCancel    = "/delete/cancel"
	RouteDismiss   = "/alert/dismiss"

	RouteBrands    = "/brands"
	RouteBrand     = "/brands/{id}"
	RoutePackages  = "/packages"
	RoutePortfolio = "/portfolio"
	RouteServices  = "/services"
)

// Flash kinds.
const (
	flashSuccess = "success"
	flashError   = "error"
)

// flashAndRedirect sets a flash message and redirects with 303.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, target, message, kind string) {
	renderer.SetFlash(r, message, kind)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// redirect answers a POST with 303 See Other.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int, logMsg string, args ...any) {
	logger.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 response.
func logAndInternalError(w http.ResponseWriter, logger *slog.Logger, logMsg string, args ...any) {
	logAndHTTPError(w, logger, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// localizer returns the request localizer, or one bound to the default
// language when the Language middleware did not run.
func localizer(r *http.Request, p *i18n.Provider) i18n.Localizer {
	if l, ok := middleware.GetLocalizer(r); ok {
		return l
	}
	return p.For(i18n.DefaultLanguage)
}

// localTarget returns the path and query of ref when it points back into
// this site, and fallback otherwise.
func localTarget(r *http.Request, ref, fallback string) string {
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil {
		return fallback
	}
	if u.Host != "" && u.Host != r.Host {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

// intParam parses a positive integer query or form value, returning 0 when
// absent or malformed.
func intParam(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
