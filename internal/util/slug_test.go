// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Digital Media", "digital-media"},
		{"  Print   Ads  ", "print-ads"},
		{"TV & Radio", "tv-radio"},
		{"Top 10 Brands!", "top-10-brands"},
		{"Café Déjà Vu", "cafe-deja-vu"},
		{"Привет мир", "privet-mir"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugifyOutputIsValid(t *testing.T) {
	for _, in := range []string{"Outdoor Billboards", "Events -- 2026", "Ünïcödé"} {
		if s := Slugify(in); !IsValidSlug(s) {
			t.Errorf("Slugify(%q) = %q, which IsValidSlug rejects", in, s)
		}
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := map[string]bool{
		"digital":       true,
		"digital-media": true,
		"top-10":        true,
		"":              false,
		"Digital":       false,
		"-digital":      false,
		"digital-":      false,
		"digital--tv":   false,
		"digital tv":    false,
		"digital_tv":    false,
	}
	for in, want := range tests {
		if got := IsValidSlug(in); got != want {
			t.Errorf("IsValidSlug(%q) = %v, want %v", in, got, want)
		}
	}
}
