// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package table derives the admin list view of an entity family: search,
// tri-state column sort, pagination, column visibility, selection and CSV
// export.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/schema"
)

// Direction is the sort state of a column.
type Direction int

// Sort directions. ToggleSort cycles None -> Asc -> Desc -> None.
const (
	None Direction = iota
	Asc
	Desc
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return "none"
	}
}

// ParseDirection parses "asc" or "desc"; anything else is None.
func ParseDirection(s string) Direction {
	switch s {
	case "asc":
		return Asc
	case "desc":
		return Desc
	default:
		return None
	}
}

// Next returns the direction ToggleSort would move a column to.
func (d Direction) Next() Direction {
	switch d {
	case None:
		return Asc
	case Asc:
		return Desc
	default:
		return None
	}
}

// Table is the view state of one list. It is not safe for concurrent use.
type Table struct {
	def      schema.Table
	rows     []entity.Record
	query    string
	sortKey  string
	sortDir  Direction
	page     int
	hidden   map[string]bool
	selected map[string]bool
	collator *collate.Collator
	fold     cases.Caser
}

// New creates a table for the schema's list configuration. lang selects the
// collation used for string columns.
func New(def schema.Table, lang string) *Table {
	t := &Table{
		def:      def,
		page:     1,
		hidden:   make(map[string]bool),
		selected: make(map[string]bool),
		fold:     cases.Fold(),
	}
	for _, c := range def.Columns {
		if c.Hidden {
			t.hidden[c.Key] = true
		}
	}
	t.SetLanguage(lang)
	return t
}

// SetLanguage switches the string collation.
func (t *Table) SetLanguage(lang string) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	t.collator = collate.New(tag, collate.IgnoreCase)
}

// SetRows replaces the records. Selections of records that disappeared are
// dropped.
func (t *Table) SetRows(rows []entity.Record) {
	t.rows = rows
	present := make(map[string]bool, len(rows))
	for _, r := range rows {
		present[r.ID()] = true
	}
	for id := range t.selected {
		if !present[id] {
			delete(t.selected, id)
		}
	}
}

// Rows returns every record, ignoring the search.
func (t *Table) Rows() []entity.Record { return t.rows }

// Query returns the search text.
func (t *Table) Query() string { return t.query }

// SetQuery sets the search text and returns to the first page.
func (t *Table) SetQuery(q string) {
	t.query = strings.TrimSpace(q)
	t.page = 1
}

// Sort returns the sorted column and its direction.
func (t *Table) Sort() (string, Direction) { return t.sortKey, t.sortDir }

// ToggleSort advances the sort state of a column. Sorting a new column
// starts at Asc.
func (t *Table) ToggleSort(key string) {
	if _, ok := t.def.Column(key); !ok {
		return
	}
	if t.sortKey != key {
		t.sortKey, t.sortDir = key, Asc
		return
	}
	switch t.sortDir {
	case None:
		t.sortDir = Asc
	case Asc:
		t.sortDir = Desc
	default:
		t.sortKey, t.sortDir = "", None
	}
}

// SetSort sets the sort state directly.
func (t *Table) SetSort(key string, dir Direction) {
	if _, ok := t.def.Column(key); !ok || dir == None {
		t.sortKey, t.sortDir = "", None
		return
	}
	t.sortKey, t.sortDir = key, dir
}

// SetPage selects a page; it is clamped when the view is built.
func (t *Table) SetPage(page int) { t.page = page }

// ToggleColumn flips the visibility of a column.
func (t *Table) ToggleColumn(key string) {
	if _, ok := t.def.Column(key); ok {
		t.hidden[key] = !t.hidden[key]
	}
}

// VisibleColumns returns the columns currently shown.
func (t *Table) VisibleColumns() []schema.Column {
	out := make([]schema.Column, 0, len(t.def.Columns))
	for _, c := range t.def.Columns {
		if !t.hidden[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// Columns returns every column with its visibility.
func (t *Table) Columns() []ColumnState {
	out := make([]ColumnState, 0, len(t.def.Columns))
	for _, c := range t.def.Columns {
		out = append(out, ColumnState{Column: c, Visible: !t.hidden[c.Key]})
	}
	return out
}

// ColumnState is a column plus its visibility toggle.
type ColumnState struct {
	schema.Column
	Visible bool
}

// Value returns the text of a record field as shown in the table.
func Value(r entity.Record, key string) string {
	if key == "id" {
		return r.ID()
	}
	return r.String(key)
}

// Filtered returns the records matching the search, in sort order.
func (t *Table) Filtered() []entity.Record {
	out := make([]entity.Record, 0, len(t.rows))
	needle := t.fold.String(t.query)
	for _, r := range t.rows {
		if needle == "" || t.matches(r, needle) {
			out = append(out, r)
		}
	}
	t.sortRecords(out)
	return out
}

func (t *Table) matches(r entity.Record, needle string) bool {
	for _, key := range t.def.Search {
		if strings.Contains(t.fold.String(Value(r, key)), needle) {
			return true
		}
	}
	return false
}

// sortRecords sorts in place. The sort is stable so equal keys keep their
// backend order between renders.
func (t *Table) sortRecords(rows []entity.Record) {
	if t.sortDir == None {
		return
	}
	col, ok := t.def.Column(t.sortKey)
	if !ok {
		return
	}

	var less func(a, b entity.Record) bool
	if col.Kind == schema.ColumnNumber {
		less = func(a, b entity.Record) bool { return a.Number(col.Key) < b.Number(col.Key) }
	} else {
		less = func(a, b entity.Record) bool {
			return t.collator.CompareString(Value(a, col.Key), Value(b, col.Key)) < 0
		}
	}
	if t.sortDir == Desc {
		asc := less
		less = func(a, b entity.Record) bool { return asc(b, a) }
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}

// View is one rendered page of the table.
type View struct {
	Rows       []entity.Record
	Pagination Pagination
}

// View returns the current page of filtered, sorted records.
func (t *Table) View() View {
	filtered := t.Filtered()
	p := BuildPagination(t.page, len(filtered), t.pageSize())
	t.page = p.CurrentPage

	start := min((p.CurrentPage-1)*p.PerPage, len(filtered))
	end := min(start+p.PerPage, len(filtered))
	return View{Rows: filtered[start:end], Pagination: p}
}

func (t *Table) pageSize() int {
	if t.def.PageSize > 0 {
		return t.def.PageSize
	}
	return entity.DefaultPageSize
}

// IsSelected reports whether a record is selected.
func (t *Table) IsSelected(id string) bool { return t.selected[id] }

// SetSelected selects or deselects a record.
func (t *Table) SetSelected(id string, on bool) {
	if on {
		t.selected[id] = true
	} else {
		delete(t.selected, id)
	}
}

// SelectPage selects or deselects every record of the current page.
func (t *Table) SelectPage(on bool) {
	for _, r := range t.View().Rows {
		t.SetSelected(r.ID(), on)
	}
}

// PageSelected reports whether every record of the current page is selected.
func (t *Table) PageSelected() bool {
	rows := t.View().Rows
	for _, r := range rows {
		if !t.selected[r.ID()] {
			return false
		}
	}
	return len(rows) > 0
}

// ClearSelection deselects everything.
func (t *Table) ClearSelection() {
	clear(t.selected)
}

// Selected returns the selected records in sort order, ignoring the search.
func (t *Table) Selected() []entity.Record {
	out := make([]entity.Record, 0, len(t.selected))
	for _, r := range t.rows {
		if t.selected[r.ID()] {
			out = append(out, r)
		}
	}
	t.sortRecords(out)
	return out
}

// SelectedIDs returns the ids of Selected.
func (t *Table) SelectedIDs() []string {
	sel := t.Selected()
	ids := make([]string, len(sel))
	for i, r := range sel {
		ids[i] = r.ID()
	}
	return ids
}

// ExportCSV writes the export columns of the selected records, or of all
// filtered records when nothing is selected. Visibility toggles do not
// affect the columns written.
func (t *Table) ExportCSV(w io.Writer) error {
	rows := t.Selected()
	if len(rows) == 0 {
		rows = t.Filtered()
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.def.Export); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	record := make([]string, len(t.def.Export))
	for _, r := range rows {
		for i, key := range t.def.Export {
			record[i] = Value(r, key)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
