// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func TestSitemapBuilderAdd(t *testing.T) {
	b := NewSitemapBuilder("https://example.com/")
	b.Add("/", time.Time{}, ChangeFreqDaily, "1.0")
	b.Add("brands/b1", time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), ChangeFreqWeekly, "0.6")

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	if got := b.urls[0].Loc; got != "https://example.com/" {
		t.Errorf("home Loc = %q", got)
	}
	if b.urls[0].LastMod != "" {
		t.Errorf("zero lastmod rendered as %q", b.urls[0].LastMod)
	}
	if got := b.urls[1].Loc; got != "https://example.com/brands/b1" {
		t.Errorf("brand Loc = %q", got)
	}
	if got := b.urls[1].LastMod; got != "2025-01-15T10:00:00Z" {
		t.Errorf("LastMod = %q", got)
	}
}

func TestSitemapBuild(t *testing.T) {
	b := NewSitemapBuilder("https://example.com")
	b.Add("/services", time.Time{}, ChangeFreqWeekly, "0.8")

	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	out := string(data)
	if !strings.HasPrefix(out, xml.Header) {
		t.Error("missing XML header")
	}
	if !strings.Contains(out, `xmlns="`+XMLNamespace+`"`) {
		t.Error("missing namespace")
	}

	var parsed Sitemap
	if err := xml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}
	if len(parsed.URLs) != 1 || parsed.URLs[0].Loc != "https://example.com/services" {
		t.Errorf("URLs = %+v", parsed.URLs)
	}
}
