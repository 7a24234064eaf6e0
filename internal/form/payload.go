// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"strings"

	"github.com/olegiv/mediasite-go/internal/payload"
	"github.com/olegiv/mediasite-go/internal/schema"
	"github.com/olegiv/mediasite-go/internal/util"
)

// Payload assembles the request body. Strings are trimmed, numbers coerced
// (blank is 0), each image decides between file, URL, null and omitted,
// blank repeater rows are dropped and fields of inactive variant groups are
// left out entirely.
func (m *Modal) Payload() *payload.Object {
	o := payload.NewObject()
	group := m.ActiveGroup()

	for _, f := range m.schema.Fields {
		if !f.Active(group) {
			continue
		}
		switch f.Kind {
		case schema.KindImage:
			o.Set(f.Name, m.images[f.Name].ToPayload())
		case schema.KindRepeater:
			items := make([]payload.Value, 0)
			for _, r := range m.Rows(f.Name) {
				if r.blank(f.Fields) {
					continue
				}
				items = append(items, payload.ObjectValue(r.toPayload(f.Fields)))
			}
			o.Set(f.Name, payload.Array(items...))
		case schema.KindNumber:
			n, _ := parseNumber(strings.TrimSpace(m.values[f.Name]))
			o.Set(f.Name, payload.Number(n))
		default:
			v := strings.TrimSpace(m.values[f.Name])
			if v == "" && f.SlugFrom != "" {
				v = util.Slugify(m.values[f.SlugFrom])
			}
			o.Set(f.Name, payload.String(v))
		}
	}
	return o
}
