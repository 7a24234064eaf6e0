// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package schema declares the shape of an editable entity: its form fields,
// its slug-selected field groups and its table columns.
package schema

import (
	"errors"
	"fmt"
)

// Kind is the input kind of a form field.
type Kind string

// Field kinds.
const (
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindNumber   Kind = "number"
	KindSelect   Kind = "select"
	KindStatus   Kind = "status"
	KindImage    Kind = "image"
	KindRepeater Kind = "repeater"
)

// Publish statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// StatusOptions are the options of every status field.
var StatusOptions = []Option{
	{Value: StatusDraft, Label: "status.draft"},
	{Value: StatusPublished, Label: "status.published"},
}

// Option is a select choice. Label is a translation key.
type Option struct {
	Value string
	Label string
}

// Field describes one form field.
type Field struct {
	Name     string
	Label    string // translation key
	Kind     Kind
	Required bool
	Options  []Option
	Default  string

	// Group names the variant group the field belongs to; "" is always active.
	Group string

	// UploadOnSelect uploads an image as soon as it is chosen and keeps the
	// returned URL instead of sending the file on submit.
	UploadOnSelect bool

	// SlugFrom derives the value from another text field when left blank.
	SlugFrom string

	// Fields is the row shape of a repeater.
	Fields []Field
}

// Variant selects one field group by the value of a discriminator field.
type Variant struct {
	Field   string
	Cases   map[string]string // discriminator value -> group
	Default string            // group used for every other value
}

// Group returns the active group for a discriminator value.
func (v *Variant) Group(value string) string {
	if g, ok := v.Cases[value]; ok {
		return g
	}
	return v.Default
}

// ColumnKind selects how a column sorts.
type ColumnKind string

// Column kinds.
const (
	ColumnString ColumnKind = "string"
	ColumnNumber ColumnKind = "number"
)

// Column is a table column over a top-level record field.
type Column struct {
	Key    string
	Label  string // translation key
	Kind   ColumnKind
	Hidden bool // hidden until toggled on
}

// Table configures the list view.
type Table struct {
	Columns  []Column
	Search   []string // fields matched by the search box
	Export   []string // fields written to CSV, in order
	PageSize int
}

// Schema is the full declaration of one entity family.
type Schema struct {
	Name       string // route segment, e.g. "brands"
	Collection string // backend collection path
	Singular   string
	Plural     string
	TitleField string // field used for names in confirmations
	Fields     []Field
	Variant    *Variant
	Table      Table
}

// Field returns the top-level field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ActiveGroup returns the variant group for a discriminator value, or "" when
// the schema has no variant.
func (s *Schema) ActiveGroup(discriminator string) string {
	if s.Variant == nil {
		return ""
	}
	return s.Variant.Group(discriminator)
}

// LabelKey returns the translation key of the field label.
func (f Field) LabelKey() string {
	if f.Label != "" {
		return f.Label
	}
	return "field." + f.Name
}

// LabelKey returns the translation key of the column header.
func (c Column) LabelKey() string {
	if c.Label != "" {
		return c.Label
	}
	return "field." + c.Key
}

// Active reports whether f belongs to group or to no group.
func (f Field) Active(group string) bool {
	return f.Group == "" || f.Group == group
}

// Column returns the column with the given key.
func (t Table) Column(key string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks the declaration for inconsistencies.
func (s *Schema) Validate() error {
	var errs []error
	if s.Name == "" || s.Collection == "" {
		errs = append(errs, errors.New("name and collection are required"))
	}
	seen := make(map[string]bool)
	for _, f := range s.Fields {
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate field %q", f.Name))
		}
		seen[f.Name] = true
		errs = append(errs, validateField(f, true)...)
	}
	if s.TitleField != "" && !seen[s.TitleField] {
		errs = append(errs, fmt.Errorf("title field %q is not declared", s.TitleField))
	}
	if s.Variant != nil {
		if !seen[s.Variant.Field] {
			errs = append(errs, fmt.Errorf("variant field %q is not declared", s.Variant.Field))
		}
		groups := map[string]bool{s.Variant.Default: true}
		for _, g := range s.Variant.Cases {
			groups[g] = true
		}
		for _, f := range s.Fields {
			if f.Group != "" && !groups[f.Group] {
				errs = append(errs, fmt.Errorf("field %q uses unknown group %q", f.Name, f.Group))
			}
		}
	}
	for _, key := range append(append([]string{}, s.Table.Search...), s.Table.Export...) {
		if !seen[key] && key != "id" && key != "createdAt" {
			errs = append(errs, fmt.Errorf("table references unknown field %q", key))
		}
	}
	if s.Table.PageSize <= 0 {
		errs = append(errs, errors.New("table page size must be positive"))
	}
	return errors.Join(errs...)
}

func validateField(f Field, topLevel bool) []error {
	var errs []error
	if f.Name == "" {
		errs = append(errs, errors.New("field without name"))
	}
	switch f.Kind {
	case KindRepeater:
		if !topLevel {
			errs = append(errs, fmt.Errorf("nested repeater %q", f.Name))
		}
		if len(f.Fields) == 0 {
			errs = append(errs, fmt.Errorf("repeater %q has no row fields", f.Name))
		}
		for _, sub := range f.Fields {
			switch sub.Kind {
			case KindText, KindTextarea, KindNumber, KindImage:
			default:
				errs = append(errs, fmt.Errorf("repeater %q: unsupported row field kind %q", f.Name, sub.Kind))
			}
			errs = append(errs, validateField(sub, false)...)
		}
	case KindSelect:
		if len(f.Options) == 0 {
			errs = append(errs, fmt.Errorf("select %q has no options", f.Name))
		}
	case KindText, KindTextarea, KindNumber, KindStatus, KindImage:
	default:
		errs = append(errs, fmt.Errorf("field %q: unknown kind %q", f.Name, f.Kind))
	}
	if f.UploadOnSelect && f.Kind != KindImage {
		errs = append(errs, fmt.Errorf("field %q: upload-on-select requires an image field", f.Name))
	}
	return errs
}
