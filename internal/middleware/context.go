// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"

	"github.com/olegiv/mediasite-go/internal/client"
	"github.com/olegiv/mediasite-go/internal/i18n"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys set by this package.
const (
	ContextKeyLocalizer   ContextKey = "localizer"
	ContextKeyRequestPath ContextKey = "request_path"
)

// AuthToken copies the bearer token cookie into the request context, where
// the backend client picks it up. Requests without the cookie go out
// unauthenticated and the backend decides.
func AuthToken(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				r = r.WithContext(client.WithToken(r.Context(), c.Value))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestPath stores the request path for templates (active nav links).
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath returns the path stored by RequestPath.
func GetRequestPath(r *http.Request) string {
	path, _ := r.Context().Value(ContextKeyRequestPath).(string)
	return path
}

// GetLocalizer returns the request localizer set by Language. Without one the
// default language is used.
func GetLocalizer(r *http.Request) (i18n.Localizer, bool) {
	l, ok := r.Context().Value(ContextKeyLocalizer).(i18n.Localizer)
	return l, ok
}
