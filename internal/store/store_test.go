package store

import (
	"os"
	"path/filepath"
	"testing"

	"labelmill/internal"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "catalog.csv"), nil)
}

func TestLoadMissingFile(t *testing.T) {
	s := tempStore(t)
	rows, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d", len(rows))
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := tempStore(t)
	rows := []internal.Record{
		{Barcode: "123.0", Brand: "acme", Item: "widget", Reg: "AED 10", Promo: "8", StartDate: "01/12/2025"},
	}
	if err := s.Save(rows, internal.ModeLegacy); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("rows = %d", len(got))
	}
	r := got[0]
	if r.Barcode != "123" || r.Brand != "ACME" || r.Item != "WIDGET" {
		t.Fatalf("record = %+v", r)
	}
	if r.Reg != "10.00" || r.Promo != "8.00" || r.StartDate != "01.12.2025" {
		t.Fatalf("record = %+v", r)
	}
}

func TestSaveDropsIncompleteRows(t *testing.T) {
	s := tempStore(t)
	rows := []internal.Record{
		{Barcode: "1", Brand: "A", Item: "X"},
		{Barcode: "2", Brand: "B"}, // no item: silently filtered
	}
	if err := s.Save(rows, internal.ModeLegacy); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load()
	if len(got) != 1 {
		t.Fatalf("rows = %d", len(got))
	}
}

func TestUpsertIdempotent(t *testing.T) {
	s := tempStore(t)
	row := internal.Record{Barcode: "6291041500213.0", Brand: "acme", Item: "widget", Reg: "10", Promo: "8.0"}

	if err := s.Upsert([]internal.Record{row}, internal.ModeLegacy); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Upsert([]internal.Record{row}, internal.ModeLegacy); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Fatalf("upsert not idempotent:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

func TestUpsertCollapsesFreshAndLegacy(t *testing.T) {
	s := tempStore(t)
	fresh := internal.Record{PLU: "100", ArabicDesc: "X", EnglishDesc: "Widget", RegularPrice: "10.00"}
	legacy := internal.Record{Barcode: "100", Brand: "X", Item: "WIDGET", Reg: "10.00"}

	if err := s.Upsert([]internal.Record{fresh, legacy}, internal.ModeFresh); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one collapsed row, got %d", len(got))
	}
}

func TestUpsertUpdatesOnIdentityMatch(t *testing.T) {
	s := tempStore(t)
	if err := s.Upsert([]internal.Record{{Barcode: "1", Brand: "A", Item: "X", Reg: "5"}}, internal.ModeLegacy); err != nil {
		t.Fatal(err)
	}
	// Same identity, new price: update in place, not append.
	if err := s.Upsert([]internal.Record{{Barcode: "1", Brand: "A", Item: "X", Reg: "6"}}, internal.ModeLegacy); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load()
	if len(got) != 1 {
		t.Fatalf("rows = %d", len(got))
	}
	if got[0].Reg != "6.00" {
		t.Fatalf("reg = %q", got[0].Reg)
	}
}

func TestFreshModeStorageRules(t *testing.T) {
	s := tempStore(t)
	row := internal.Record{PLU: "4011", ArabicDesc: "موز", EnglishDesc: "banana", RegularPrice: "3.5", UOM: "kg"}
	if err := s.Upsert([]internal.Record{row}, internal.ModeFresh); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load()
	if len(got) != 1 {
		t.Fatalf("rows = %d", len(got))
	}
	if got[0].UOM != "/KG" {
		t.Fatalf("uom = %q", got[0].UOM)
	}
	if got[0].Coop != "/KG" {
		t.Fatalf("coop = %q", got[0].Coop)
	}
	if got[0].ArabicDesc != "موز" {
		t.Fatalf("arabic description mangled: %q", got[0].ArabicDesc)
	}
}

func TestPruneKeepsManualEntries(t *testing.T) {
	s := tempStore(t)
	rows := []internal.Record{
		{Barcode: "1", Brand: "A", Item: "X", SourceFile: "old.xlsx"},
		{Barcode: "2", Brand: "B", Item: "Y", SourceFile: "new.xlsx"},
		{Barcode: "3", Brand: "C", Item: "Z"}, // manual entry
	}
	if err := s.Save(rows, internal.ModeLegacy); err != nil {
		t.Fatal(err)
	}

	removed, err := s.PruneToRecentSources([]string{"new.xlsx", "old.xlsx"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	got, _ := s.Load()
	if len(got) != 2 {
		t.Fatalf("rows = %d", len(got))
	}
	for _, r := range got {
		if r.SourceFile == "old.xlsx" {
			t.Fatal("stale source survived pruning")
		}
	}
}

// A store filled from fresh-food sheets must survive pruning untouched:
// prune is retention filtering only and must not re-apply any mode's
// completeness gate to rows that already passed it when stored.
func TestPruneLeavesFreshRowsIntact(t *testing.T) {
	s := tempStore(t)
	rows := []internal.Record{
		{PLU: "4011", ArabicDesc: "موز", EnglishDesc: "banana", RegularPrice: "3.5", SourceFile: "fresh.xlsx"},
		{PLU: "4664", ArabicDesc: "طماطم", EnglishDesc: "tomato", RegularPrice: "2.0", SourceFile: "fresh.xlsx"},
	}
	if err := s.Save(rows, internal.ModeFresh); err != nil {
		t.Fatal(err)
	}

	removed, err := s.PruneToRecentSources([]string{"fresh.xlsx"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	got, _ := s.Load()
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2: retained rows must not be re-gated", len(got))
	}
}

func TestExtensionFieldsRoundTrip(t *testing.T) {
	s := tempStore(t)
	row := internal.Record{Barcode: "1", Brand: "A", Item: "X", Extra: map[string]string{"AISLE": "7"}}
	if err := s.Save([]internal.Record{row}, internal.ModeLegacy); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load()
	if len(got) != 1 || got[0].Get("AISLE") != "7" {
		t.Fatalf("extension field lost: %+v", got)
	}
}
