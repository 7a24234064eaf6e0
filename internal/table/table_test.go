// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package table

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/schema"
)

func testDef() schema.Table {
	return schema.Table{
		Columns: []schema.Column{
			{Key: "name", Kind: schema.ColumnString},
			{Key: "order", Kind: schema.ColumnNumber},
			{Key: "notes", Kind: schema.ColumnString, Hidden: true},
		},
		Search:   []string{"name"},
		Export:   []string{"id", "name", "order"},
		PageSize: 2,
	}
}

func rec(id, name string, order float64) entity.Record {
	return entity.Record{"_id": id, "name": name, "order": order, "notes": "n-" + id}
}

func ids(rows []entity.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

func TestSearchCaseInsensitive(t *testing.T) {
	tb := New(testDef(), "en")
	tb.SetRows([]entity.Record{rec("1", "Acme TV", 1), rec("2", "Radio One", 2), rec("3", "ACME Print", 3)})

	tb.SetQuery("acme")
	if got := ids(tb.Filtered()); !slices.Equal(got, []string{"1", "3"}) {
		t.Errorf("filtered = %v", got)
	}
	tb.SetQuery("n-2")
	if got := tb.Filtered(); len(got) != 0 {
		t.Errorf("notes are not searchable, got %v", ids(got))
	}
}

func TestToggleSortCycle(t *testing.T) {
	tb := New(testDef(), "en")
	want := []Direction{Asc, Desc, None, Asc}
	for i, w := range want {
		tb.ToggleSort("order")
		if _, d := tb.Sort(); d != w {
			t.Errorf("click %d: dir = %v, want %v", i+1, d, w)
		}
	}
	tb.ToggleSort("name")
	if k, d := tb.Sort(); k != "name" || d != Asc {
		t.Errorf("new column sort = %s %v", k, d)
	}
	tb.ToggleSort("missing")
	if k, _ := tb.Sort(); k != "name" {
		t.Error("unknown column changed sort")
	}
}

func TestNumericSortReverses(t *testing.T) {
	tb := New(testDef(), "en")
	tb.SetRows([]entity.Record{rec("a", "x", 10), rec("b", "y", 2), rec("c", "z", 33), rec("d", "w", 7)})

	tb.SetSort("order", Asc)
	asc := ids(tb.Filtered())
	tb.SetSort("order", Desc)
	desc := ids(tb.Filtered())

	if !slices.Equal(asc, []string{"b", "d", "a", "c"}) {
		t.Errorf("asc = %v", asc)
	}
	slices.Reverse(desc)
	if !slices.Equal(asc, desc) {
		t.Errorf("desc is not the reverse of asc: %v vs %v", asc, desc)
	}
}

func TestSortStableForTies(t *testing.T) {
	tb := New(testDef(), "en")
	tb.SetRows([]entity.Record{rec("1", "b", 1), rec("2", "a", 1), rec("3", "c", 0), rec("4", "d", 1)})

	tb.SetSort("order", Asc)
	if got := ids(tb.Filtered()); !slices.Equal(got, []string{"3", "1", "2", "4"}) {
		t.Errorf("asc ties = %v", got)
	}
	tb.SetSort("order", Desc)
	if got := ids(tb.Filtered()); !slices.Equal(got, []string{"1", "2", "4", "3"}) {
		t.Errorf("desc ties = %v", got)
	}
}

func TestStringSortCollated(t *testing.T) {
	tb := New(testDef(), "en")
	tb.SetRows([]entity.Record{rec("1", "banana", 0), rec("2", "Apple", 0), rec("3", "cherry", 0)})
	tb.SetSort("name", Asc)
	if got := ids(tb.Filtered()); !slices.Equal(got, []string{"2", "1", "3"}) {
		t.Errorf("collated order = %v", got)
	}
}

func TestPaginationClamped(t *testing.T) {
	tb := New(testDef(), "en")
	var rows []entity.Record
	for i := 1; i <= 5; i++ {
		rows = append(rows, rec(fmt.Sprint(i), fmt.Sprint("n", i), float64(i)))
	}
	tb.SetRows(rows)

	tb.SetPage(99)
	v := tb.View()
	if v.Pagination.CurrentPage != 3 || len(v.Rows) != 1 || v.Rows[0].ID() != "5" {
		t.Errorf("page = %d rows = %v", v.Pagination.CurrentPage, ids(v.Rows))
	}
	tb.SetPage(-1)
	if v := tb.View(); v.Pagination.CurrentPage != 1 || len(v.Rows) != 2 {
		t.Errorf("page = %d rows = %v", v.Pagination.CurrentPage, ids(v.Rows))
	}
}

func TestBuildPaginationStrip(t *testing.T) {
	tests := []struct {
		current, items int
		want           string
	}{
		{1, 10, "[1]"},
		{1, 30, "[1] 2 3"},
		{1, 100, "[1] 2 3 4 5 … 10"},
		{6, 100, "1 … 4 5 [6] 7 8 … 10"},
		{10, 100, "1 … 6 7 8 9 [10]"},
		{3, 60, "1 2 [3] 4 5 6"},
	}
	for _, tt := range tests {
		p := BuildPagination(tt.current, tt.items, 10)
		var parts []string
		for _, pg := range p.Pages {
			switch {
			case pg.IsEllipsis:
				parts = append(parts, "…")
			case pg.IsCurrent:
				parts = append(parts, fmt.Sprintf("[%d]", pg.Number))
			default:
				parts = append(parts, fmt.Sprint(pg.Number))
			}
		}
		if got := strings.Join(parts, " "); got != tt.want {
			t.Errorf("BuildPagination(%d, %d) = %q, want %q", tt.current, tt.items, got, tt.want)
		}
	}
}

func TestColumnVisibility(t *testing.T) {
	tb := New(testDef(), "en")
	if len(tb.VisibleColumns()) != 2 {
		t.Fatalf("visible = %d, want 2", len(tb.VisibleColumns()))
	}
	tb.ToggleColumn("notes")
	tb.ToggleColumn("order")
	var keys []string
	for _, c := range tb.VisibleColumns() {
		keys = append(keys, c.Key)
	}
	if !slices.Equal(keys, []string{"name", "notes"}) {
		t.Errorf("visible = %v", keys)
	}
}

func TestSelection(t *testing.T) {
	tb := New(testDef(), "en")
	tb.SetRows([]entity.Record{rec("1", "a", 1), rec("2", "b", 2), rec("3", "c", 3)})

	tb.SelectPage(true)
	if !tb.PageSelected() || !slices.Equal(tb.SelectedIDs(), []string{"1", "2"}) {
		t.Errorf("selected = %v", tb.SelectedIDs())
	}
	tb.SetSelected("2", false)
	tb.SetSelected("3", true)
	if !slices.Equal(tb.SelectedIDs(), []string{"1", "3"}) {
		t.Errorf("selected = %v", tb.SelectedIDs())
	}

	tb.SetRows([]entity.Record{rec("1", "a", 1)})
	if !slices.Equal(tb.SelectedIDs(), []string{"1"}) {
		t.Errorf("stale selection kept: %v", tb.SelectedIDs())
	}
	tb.ClearSelection()
	if len(tb.SelectedIDs()) != 0 {
		t.Error("ClearSelection left rows selected")
	}
}

func TestExportCSVEscapesQuotes(t *testing.T) {
	tb := New(testDef(), "en")
	tb.SetRows([]entity.Record{rec("1", `"a,b"`, 1), rec("2", "plain", 2)})
	tb.ToggleColumn("name")

	var buf bytes.Buffer
	if err := tb.ExportCSV(&buf); err != nil {
		t.Fatal(err)
	}
	want := "id,name,order\n" + `1,"""a,b""",1` + "\n2,plain,2\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestExportCSVSelectedOnly(t *testing.T) {
	tb := New(testDef(), "en")
	tb.SetRows([]entity.Record{rec("1", "a", 1), rec("2", "b", 2)})
	tb.SetSelected("2", true)

	var buf bytes.Buffer
	if err := tb.ExportCSV(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "id,name,order\n2,b,2\n" {
		t.Errorf("csv = %q", buf.String())
	}
}

func TestDirectionParseAndNext(t *testing.T) {
	for in, want := range map[string]Direction{"asc": Asc, "desc": Desc, "none": None, "": None, "up": None} {
		if got := ParseDirection(in); got != want {
			t.Errorf("ParseDirection(%q) = %v, want %v", in, got, want)
		}
	}
	// Next mirrors ToggleSort on the same column
	for _, d := range []Direction{None, Asc, Desc} {
		if got := ParseDirection(d.Next().String()); got != d.Next() {
			t.Errorf("%v.Next() does not round-trip", d)
		}
	}
	if Asc.Next() != Desc || Desc.Next() != None || None.Next() != Asc {
		t.Error("Next cycle broken")
	}
}
