// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package i18n

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/mediasite-go/internal/cache"
)

type memPrefs struct {
	values map[string]string
	err    error
}

func (m *memPrefs) GetPreference(_ context.Context, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.values[key], nil
}

func (m *memPrefs) SetPreference(_ context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

type fakeTranslator struct {
	calls atomic.Int32
	err   error
}

func (f *fakeTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "[" + source + ">" + target + "] " + text, nil
}

func newMemo(t *testing.T) cache.Cache {
	t.Helper()
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestProviderRestore(t *testing.T) {
	require.NoError(t, Init(nil))
	ctx := context.Background()

	prefs := &memPrefs{values: map[string]string{PreferenceKey: "ar"}}
	p := NewProvider(prefs, nil)
	assert.False(t, p.Ready(), "not ready before restore")
	assert.Equal(t, "en", p.Language())

	require.NoError(t, p.Restore(ctx))
	assert.True(t, p.Ready())
	assert.Equal(t, "ar", p.Language())
	assert.Equal(t, "rtl", p.Dir())
	assert.Equal(t, "حفظ", p.T("btn.save"))
}

func TestProviderRestoreFailureStillReady(t *testing.T) {
	p := NewProvider(&memPrefs{err: errors.New("disk")}, nil)
	assert.Error(t, p.Restore(context.Background()))
	assert.True(t, p.Ready())
	assert.Equal(t, DefaultLanguage, p.Language())
}

func TestProviderRestoreIgnoresUnsupported(t *testing.T) {
	p := NewProvider(&memPrefs{values: map[string]string{PreferenceKey: "de"}}, nil)
	require.NoError(t, p.Restore(context.Background()))
	assert.Equal(t, DefaultLanguage, p.Language())
}

func TestSetLanguagePersistsAndClearsMemo(t *testing.T) {
	ctx := context.Background()
	prefs := &memPrefs{}
	memo := newMemo(t)
	tr := &fakeTranslator{}
	p := NewProvider(prefs, memo, WithTranslator(tr))
	require.NoError(t, p.Restore(ctx))

	got := p.TranslateText(ctx, "Hello", "fr")
	assert.Equal(t, "[en>fr] Hello", got)
	p.TranslateText(ctx, "Hello", "fr")
	assert.Equal(t, int32(1), tr.calls.Load(), "memo hit avoids a second call")

	require.NoError(t, p.SetLanguage(ctx, "FR"))
	assert.Equal(t, "fr", prefs.values[PreferenceKey])
	assert.Equal(t, "fr", p.Language())
	assert.Equal(t, "ltr", p.Dir())

	p.TranslateText(ctx, "Hello")
	assert.Equal(t, int32(2), tr.calls.Load(), "language change clears the memo")

	err := p.SetLanguage(ctx, "de")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Equal(t, "fr", p.Language())
}

func TestTranslateTextFallsBackToOriginal(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTranslator{err: errors.New("quota exceeded")}
	p := NewProvider(nil, newMemo(t), WithTranslator(tr))

	assert.Equal(t, "Hello", p.TranslateText(ctx, "Hello", "ar"))
	assert.Equal(t, "Hello", p.TranslateText(ctx, "Hello", "ar"))
	assert.Equal(t, int32(2), tr.calls.Load(), "failures are not memoized")
}

func TestTranslateTextSkipsSourceLanguage(t *testing.T) {
	tr := &fakeTranslator{}
	p := NewProvider(nil, nil, WithTranslator(tr))
	assert.Equal(t, "Hello", p.TranslateText(context.Background(), "Hello", "en"))
	assert.Equal(t, "  ", p.TranslateText(context.Background(), "  ", "fr"))
	assert.Zero(t, tr.calls.Load())
}

func TestLocalizer(t *testing.T) {
	require.NoError(t, Init(nil))
	tr := &fakeTranslator{}
	p := NewProvider(nil, nil, WithTranslator(tr))

	l := p.For("fr")
	assert.Equal(t, "fr", l.Lang())
	assert.Equal(t, "Enregistrer", l.T("btn.save"))
	assert.Equal(t, "[en>fr] Hi", l.TranslateText(context.Background(), "Hi"))

	assert.Equal(t, DefaultLanguage, p.For("xx").Lang())
}

func TestHTTPTranslator(t *testing.T) {
	var gotQuery, gotPair string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotPair = r.URL.Query().Get("langpair")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"responseData":{"translatedText":"Bonjour"},"responseStatus":200}`)
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(srv.URL+"/get", 0, nil)
	out, err := tr.Translate(context.Background(), "Hello & welcome", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
	assert.Equal(t, "Hello & welcome", gotQuery)
	assert.Equal(t, "en|fr", gotPair)
}

func TestHTTPTranslatorErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"malformed", http.StatusOK, `not json`},
		{"empty translation", http.StatusOK, `{"responseData":{"translatedText":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewHTTPTranslator(srv.URL, 0, nil).Translate(context.Background(), "Hi", "en", "ar")
			assert.Error(t, err)

			p := NewProvider(nil, nil, WithTranslator(NewHTTPTranslator(srv.URL, 0, nil)))
			assert.Equal(t, "Hi", p.TranslateText(context.Background(), "Hi", "ar"))
		})
	}
}

func TestHTTPTranslatorRateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"responseData":{"translatedText":"x"}}`)
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(srv.URL, 0.001, nil)
	_, err := tr.Translate(context.Background(), "a", "en", "fr")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = tr.Translate(ctx, "b", "en", "fr")
	assert.Error(t, err, "second call must wait for the limiter")
}

func TestNewOpenAITranslatorRequiresKey(t *testing.T) {
	_, err := NewOpenAITranslator("", "", "")
	assert.Error(t, err)

	tr, err := NewOpenAITranslator("sk-test", "", "")
	require.NoError(t, err)
	assert.Equal(t, defaultOpenAIModel, tr.model)
}
