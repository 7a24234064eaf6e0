// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package entity

import "github.com/olegiv/mediasite-go/internal/schema"

// Brand variant groups.
const (
	GroupFeatured = "featured"
	GroupDigital  = "digital"
)

// DefaultPageSize is the table page size of every entity.
const DefaultPageSize = 10

func text(name string, required bool) schema.Field {
	return schema.Field{Name: name, Kind: schema.KindText, Required: required}
}

func textarea(name string) schema.Field {
	return schema.Field{Name: name, Kind: schema.KindTextarea}
}

func number(name string) schema.Field {
	return schema.Field{Name: name, Kind: schema.KindNumber, Default: "0"}
}

func image(name string) schema.Field {
	return schema.Field{Name: name, Kind: schema.KindImage}
}

func status() schema.Field {
	return schema.Field{
		Name:    "status",
		Kind:    schema.KindStatus,
		Options: schema.StatusOptions,
		Default: schema.StatusDraft,
	}
}

func repeater(name, group string, fields ...schema.Field) schema.Field {
	return schema.Field{Name: name, Kind: schema.KindRepeater, Group: group, Fields: fields}
}

func columns(cols ...schema.Column) []schema.Column { return cols }

func str(key string) schema.Column { return schema.Column{Key: key, Kind: schema.ColumnString} }

func num(key string) schema.Column { return schema.Column{Key: key, Kind: schema.ColumnNumber} }

// Brands are the company's media brands. The "digital" brand carries
// platform features, content categories and reviews; every other brand
// carries featured items.
var Brands = &schema.Schema{
	Name:       "brands",
	Collection: "brands",
	Singular:   "Brand",
	Plural:     "brands",
	TitleField: "name",
	Fields: []schema.Field{
		text("name", true),
		{
			Name:     "slug",
			Kind:     schema.KindSelect,
			Required: true,
			Default:  "tv",
			Options: []schema.Option{
				{Value: "tv", Label: "slug.tv"},
				{Value: "radio", Label: "slug.radio"},
				{Value: "print", Label: "slug.print"},
				{Value: "digital", Label: "slug.digital"},
			},
		},
		textarea("description"),
		text("website", false),
		image("logo"),
		image("heroBgImage"),
		number("order"),
		status(),
		repeater("featuredItems", GroupFeatured,
			text("title", false), textarea("description"), image("image"), number("order")),
		repeater("platformFeatures", GroupDigital,
			text("title", false), textarea("description"), image("icon")),
		repeater("contentCategories", GroupDigital,
			text("name", false), image("image")),
		repeater("reviews", GroupDigital,
			text("author", false), textarea("quote"), number("rating"), image("avatar")),
	},
	Variant: &schema.Variant{
		Field:   "slug",
		Cases:   map[string]string{"digital": GroupDigital},
		Default: GroupFeatured,
	},
	Table: schema.Table{
		Columns:  columns(str("name"), str("slug"), str("status"), num("order"), str("website"), str("createdAt")),
		Search:   []string{"name", "slug", "description"},
		Export:   []string{"id", "name", "slug", "status", "order", "website"},
		PageSize: DefaultPageSize,
	},
}

// Home holds the home page sections.
var Home = &schema.Schema{
	Name:       "home",
	Collection: "home",
	Singular:   "Home section",
	Plural:     "home sections",
	TitleField: "title",
	Fields: []schema.Field{
		text("title", true),
		text("subtitle", false),
		textarea("description"),
		image("heroImage"),
		image("heroBgImage"),
		text("ctaLabel", false),
		text("ctaLink", false),
		number("order"),
		status(),
		repeater("services", "",
			text("title", false), textarea("description"), image("image")),
		repeater("stats", "",
			text("label", false), number("value")),
	},
	Table: schema.Table{
		Columns:  columns(str("title"), str("subtitle"), str("status"), num("order"), str("createdAt")),
		Search:   []string{"title", "subtitle"},
		Export:   []string{"id", "title", "subtitle", "status", "order"},
		PageSize: DefaultPageSize,
	},
}

// Packages are advertising packages grouped by topic slug.
var Packages = &schema.Schema{
	Name:       "packages",
	Collection: "packages",
	Singular:   "Package",
	Plural:     "packages",
	TitleField: "title",
	Fields: []schema.Field{
		text("title", true),
		{
			Name:    "slug",
			Kind:    schema.KindSelect,
			Default: "social",
			Options: []schema.Option{
				{Value: "social", Label: "slug.social"},
				{Value: "broadcast", Label: "slug.broadcast"},
				{Value: "events", Label: "slug.events"},
			},
		},
		textarea("description"),
		{Name: "price", Kind: schema.KindNumber, Required: true},
		image("image"),
		number("order"),
		status(),
		repeater("stories", "",
			text("title", false), image("image"), text("link", false)),
		repeater("features", "",
			text("text", false)),
	},
	Table: schema.Table{
		Columns:  columns(str("title"), str("slug"), num("price"), str("status"), num("order"), str("createdAt")),
		Search:   []string{"title", "slug", "description"},
		Export:   []string{"id", "title", "slug", "price", "status", "order"},
		PageSize: DefaultPageSize,
	},
}

// Portfolio lists past client work.
var Portfolio = &schema.Schema{
	Name:       "portfolio",
	Collection: "portfolio",
	Singular:   "Portfolio item",
	Plural:     "portfolio items",
	TitleField: "title",
	Fields: []schema.Field{
		text("title", true),
		text("client", false),
		text("category", false),
		textarea("description"),
		image("coverImage"),
		text("videoUrl", false),
		number("order"),
		status(),
		repeater("gallery", "",
			image("image"), text("caption", false)),
	},
	Table: schema.Table{
		Columns:  columns(str("title"), str("client"), str("category"), str("status"), num("order"), str("createdAt")),
		Search:   []string{"title", "client", "category"},
		Export:   []string{"id", "title", "client", "category", "status", "order"},
		PageSize: DefaultPageSize,
	},
}

// Services are the offered services. The icon is uploaded as soon as it is
// selected and stored by URL.
var Services = &schema.Schema{
	Name:       "services",
	Collection: "services",
	Singular:   "Service",
	Plural:     "services",
	TitleField: "title",
	Fields: []schema.Field{
		text("title", true),
		textarea("description"),
		{Name: "icon", Kind: schema.KindImage, UploadOnSelect: true},
		image("image"),
		number("order"),
		status(),
		repeater("highlights", "",
			text("title", false), textarea("description")),
	},
	Table: schema.Table{
		Columns:  columns(str("title"), str("status"), num("order"), str("createdAt")),
		Search:   []string{"title", "description"},
		Export:   []string{"id", "title", "status", "order"},
		PageSize: DefaultPageSize,
	},
}

// Categories group portfolio items and content. A blank slug is derived
// from the name.
var Categories = &schema.Schema{
	Name:       "categories",
	Collection: "categories",
	Singular:   "Category",
	Plural:     "categories",
	TitleField: "name",
	Fields: []schema.Field{
		text("name", true),
		{Name: "slug", Kind: schema.KindText, SlugFrom: "name"},
		textarea("description"),
		image("image"),
		number("order"),
		status(),
	},
	Table: schema.Table{
		Columns:  columns(str("name"), str("slug"), str("status"), num("order"), str("createdAt")),
		Search:   []string{"name", "slug"},
		Export:   []string{"id", "name", "slug", "status", "order"},
		PageSize: DefaultPageSize,
	},
}

var all = []*schema.Schema{Brands, Home, Packages, Portfolio, Services, Categories}

// All returns every entity schema in navigation order.
func All() []*schema.Schema {
	return append([]*schema.Schema(nil), all...)
}

// Lookup returns the schema whose Name matches name.
func Lookup(name string) (*schema.Schema, bool) {
	for _, s := range all {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}
