package history

import (
	"path/filepath"
	"testing"
)

func TestRecentSourcesOrder(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, src := range []string{"a.xlsx", "b.xlsx", "a.xlsx", "c.xlsx"} {
		if err := db.RecordImport(src, "Sheet1", 10, "legacy"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.RecentSources(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "c.xlsx" || got[1] != "a.xlsx" {
		t.Fatalf("recent = %v", got)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, ok, _ := db.GetMetadata("lastTemplate"); ok {
		t.Fatal("unexpected value")
	}
	if err := db.SetMetadata("lastTemplate", "shelf_a4.json"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := db.GetMetadata("lastTemplate")
	if err != nil || !ok || v != "shelf_a4.json" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
}
