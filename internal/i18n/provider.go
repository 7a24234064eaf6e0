// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package i18n

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/mediasite-go/internal/cache"
)

// PreferenceKey is the preference row holding the persisted language.
const PreferenceKey = "language"

// DefaultMemoTTL is how long a runtime translation is memoized.
const DefaultMemoTTL = 24 * time.Hour

// ErrUnsupportedLanguage is returned by SetLanguage.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// PreferenceStore persists small key/value settings.
type PreferenceStore interface {
	// GetPreference returns "" without error when the key is unset.
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
}

// Translator translates free text between two languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Provider owns the current language and the runtime translation memo. It is
// safe for concurrent use.
type Provider struct {
	mu   sync.RWMutex
	lang string

	ready      atomic.Bool
	prefs      PreferenceStore
	memo       cache.Cache
	translator Translator
	memoTTL    time.Duration
	source     string
	logger     *slog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithTranslator sets the runtime translator. Without one TranslateText
// returns its input.
func WithTranslator(t Translator) ProviderOption {
	return func(p *Provider) { p.translator = t }
}

// WithMemoTTL sets the lifetime of memoized translations.
func WithMemoTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) { p.memoTTL = ttl }
}

// WithSourceLanguage sets the language database content is authored in.
func WithSourceLanguage(lang string) ProviderOption {
	return func(p *Provider) { p.source = lang }
}

// WithProviderLogger sets the logger.
func WithProviderLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a provider. memo may be nil to disable memoization.
// The provider is not ready until Restore returns.
func NewProvider(prefs PreferenceStore, memo cache.Cache, opts ...ProviderOption) *Provider {
	p := &Provider{
		lang:    DefaultLanguage,
		prefs:   prefs,
		memo:    memo,
		memoTTL: DefaultMemoTTL,
		source:  DefaultLanguage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Restore loads the persisted language. The provider becomes ready even when
// the store fails, keeping the default language.
func (p *Provider) Restore(ctx context.Context) error {
	defer p.ready.Store(true)
	if p.prefs == nil {
		return nil
	}

	lang, err := p.prefs.GetPreference(ctx, PreferenceKey)
	if err != nil {
		return fmt.Errorf("restoring language: %w", err)
	}
	if lang != "" && IsSupported(lang) {
		p.mu.Lock()
		p.lang = strings.ToLower(lang)
		p.mu.Unlock()
	}
	p.logger.Debug("language restored", "language", p.Language())
	return nil
}

// Ready reports whether Restore has completed.
func (p *Provider) Ready() bool { return p.ready.Load() }

// Language returns the current language.
func (p *Provider) Language() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lang
}

// Dir returns the text direction of the current language.
func (p *Provider) Dir() string { return Dir(p.Language()) }

// SetLanguage persists lang, clears the translation memo and switches the
// text direction.
func (p *Provider) SetLanguage(ctx context.Context, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !IsSupported(lang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	if p.prefs != nil {
		if err := p.prefs.SetPreference(ctx, PreferenceKey, lang); err != nil {
			return fmt.Errorf("persisting language: %w", err)
		}
	}
	if p.memo != nil {
		if err := p.memo.Clear(ctx); err != nil {
			p.logger.Warn("failed to clear translation memo", "error", err)
		}
	}

	p.mu.Lock()
	p.lang = lang
	p.mu.Unlock()
	p.logger.Info("language changed", "language", lang)
	return nil
}

// T translates a dictionary key into the current language.
func (p *Provider) T(key string, args ...any) string {
	return T(p.Language(), key, args...)
}

// TranslateText translates database content into target, or into the current
// language when no target is given. It never fails: on any error the
// original text is returned. Results are memoized by (text, source, target).
func (p *Provider) TranslateText(ctx context.Context, text string, target ...string) string {
	to := p.Language()
	if len(target) > 0 && target[0] != "" {
		to = target[0]
	}
	if p.translator == nil || strings.TrimSpace(text) == "" || to == p.source {
		return text
	}

	key := memoKey(text, p.source, to)
	if p.memo != nil {
		if data, err := p.memo.Get(ctx, key); err == nil {
			return string(data)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Debug("translation memo lookup failed", "error", err)
		}
	}

	out, err := p.translator.Translate(ctx, text, p.source, to)
	if err != nil || out == "" {
		p.logger.Debug("translation failed, using original text", "target", to, "error", err)
		return text
	}
	if p.memo != nil {
		if err := p.memo.Set(ctx, key, []byte(out), p.memoTTL); err != nil {
			p.logger.Debug("translation memo store failed", "error", err)
		}
	}
	return out
}

// memoKey derives a fixed-length key so arbitrary text fits any backend.
func memoKey(text, source, target string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(text))
	return "tr:" + source + ":" + target + ":" + id.String()
}

// Localizer binds a provider to one request's language.
type Localizer struct {
	p    *Provider
	lang string
}

// For returns a localizer for lang, or for the current language when lang is
// not supported.
func (p *Provider) For(lang string) Localizer {
	if !IsSupported(lang) {
		lang = p.Language()
	}
	return Localizer{p: p, lang: strings.ToLower(lang)}
}

// Lang returns the bound language.
func (l Localizer) Lang() string { return l.lang }

// Dir returns the text direction of the bound language.
func (l Localizer) Dir() string { return Dir(l.lang) }

// T translates a dictionary key.
func (l Localizer) T(key string, args ...any) string { return T(l.lang, key, args...) }

// TranslateText translates database content into the bound language.
func (l Localizer) TranslateText(ctx context.Context, text string) string {
	return l.p.TranslateText(ctx, text, l.lang)
}
