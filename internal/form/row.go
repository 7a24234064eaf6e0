// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"context"
	"maps"
	"strconv"
	"strings"

	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/imagefield"
	"github.com/olegiv/mediasite-go/internal/payload"
	"github.com/olegiv/mediasite-go/internal/schema"
)

// Row is one repeated sub-record: scalar inputs plus image controllers.
type Row struct {
	Values map[string]string
	Images map[string]*imagefield.Controller
}

func seedRow(fields []schema.Field, rec entity.Record, previews imagefield.PreviewStore) Row {
	r := Row{
		Values: make(map[string]string),
		Images: make(map[string]*imagefield.Controller),
	}
	for _, f := range fields {
		if f.Kind == schema.KindImage {
			r.Images[f.Name] = imagefield.New(rec.String(f.Name), previews)
			continue
		}
		if _, ok := rec[f.Name]; ok {
			r.Values[f.Name] = rec.String(f.Name)
		} else {
			r.Values[f.Name] = f.Default
		}
	}
	return r
}

// cloneRow deep-copies a row; copied staged files get their own previews.
// Preview stores are local caches, so no request context is needed.
func cloneRow(r Row) Row {
	out := Row{
		Values: maps.Clone(r.Values),
		Images: make(map[string]*imagefield.Controller, len(r.Images)),
	}
	for k, c := range r.Images {
		out.Images[k] = c.Clone(context.Background())
	}
	return out
}

func releaseRow(r Row) {
	for _, c := range r.Images {
		c.Close(context.Background())
	}
}

// withValue returns a copy of r with one scalar changed. Image controllers
// are shared with r.
func (r Row) withValue(key, value string) Row {
	out := Row{Values: maps.Clone(r.Values), Images: r.Images}
	out.Values[key] = value
	return out
}

// blank reports whether every field of the row is falsy: empty text, zero
// or empty numbers and no image.
func (r Row) blank(fields []schema.Field) bool {
	for _, f := range fields {
		if f.Kind == schema.KindImage {
			if c := r.Images[f.Name]; c != nil && !c.Empty() {
				return false
			}
			continue
		}
		v := strings.TrimSpace(r.Values[f.Name])
		if f.Kind == schema.KindNumber {
			if n, _ := parseNumber(v); n != 0 {
				return false
			}
			continue
		}
		if v != "" {
			return false
		}
	}
	return true
}

func (r Row) toPayload(fields []schema.Field) *payload.Object {
	o := payload.NewObject()
	for _, f := range fields {
		switch f.Kind {
		case schema.KindImage:
			if c := r.Images[f.Name]; c != nil {
				o.Set(f.Name, c.RowValue())
			}
		case schema.KindNumber:
			n, _ := parseNumber(strings.TrimSpace(r.Values[f.Name]))
			o.Set(f.Name, payload.Number(n))
		default:
			o.Set(f.Name, payload.String(strings.TrimSpace(r.Values[f.Name])))
		}
	}
	return o
}

// parseNumber treats blank input as 0.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
