// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the admin session manager and the few values
// kept in it.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

// Cookie names. The __Host- prefix requires Secure, so it is production only.
const (
	CookieNameDev  = "mediasite_session"
	CookieNameProd = "__Host-mediasite"
)

const (
	keyID        = "sid"
	keyFlash     = "flash"
	keyFlashType = "flash_type"
)

// New creates a session manager backed by the sessions table of db.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	sm.Cookie.Name = CookieNameDev
	if !isDev {
		sm.Cookie.Name = CookieNameProd
	}
	return sm
}

// ID returns a stable identifier of the current session, creating one on
// first use. Unlike the session token it survives token renewal.
func ID(ctx context.Context, sm *scs.SessionManager) string {
	id := sm.GetString(ctx, keyID)
	if id == "" {
		id = uuid.NewString()
		sm.Put(ctx, keyID, id)
	}
	return id
}

// SetFlash stores a one-shot message shown on the next page.
func SetFlash(ctx context.Context, sm *scs.SessionManager, kind, msg string) {
	sm.Put(ctx, keyFlash, msg)
	sm.Put(ctx, keyFlashType, kind)
}

// PopFlash returns and clears the flash message.
func PopFlash(ctx context.Context, sm *scs.SessionManager) (kind, msg string) {
	msg = sm.PopString(ctx, keyFlash)
	kind = sm.PopString(ctx, keyFlashType)
	return kind, msg
}
