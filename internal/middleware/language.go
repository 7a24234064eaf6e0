// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/mediasite-go/internal/i18n"
)

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "mediasite_lang"

// Language resolves the request language and stores a localizer in the
// context. Priority:
//  1. ?lang=xx (also refreshes the cookie)
//  2. the language cookie
//  3. Accept-Language
//  4. the provider's persisted language
func Language(p *i18n.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := resolveLanguage(w, r)
			ctx := context.WithValue(r.Context(), ContextKeyLocalizer, p.For(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveLanguage returns "" when nothing in the request picks a language.
func resolveLanguage(w http.ResponseWriter, r *http.Request) string {
	if q := strings.ToLower(r.URL.Query().Get("lang")); i18n.IsSupported(q) {
		SetLanguageCookie(w, q)
		return q
	}
	if c, err := r.Cookie(LanguageCookieName); err == nil && i18n.IsSupported(c.Value) {
		return strings.ToLower(c.Value)
	}
	if lang, ok := i18n.Negotiate(r.Header.Get("Accept-Language")); ok {
		return lang
	}
	return ""
}

// SetLanguageCookie sets the language preference cookie.
func SetLanguageCookie(w http.ResponseWriter, langCode string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LanguageCookieName,
		Value:    langCode,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Ready answers 503 with an empty body until the language provider has
// restored its persisted state, so no page renders in the wrong language.
func Ready(p *i18n.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !p.Ready() {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
