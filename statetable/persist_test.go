package statetable

import (
	"os"
	"path/filepath"
	"testing"
)

func fillPattern(t *Table) {
	for i := uint64(0); i < t.Len(); i++ {
		v := i % (t.mask + 1)
		t.Update(i, t.Read(i), v)
	}
}

func checkPattern(t *testing.T, tbl *Table) {
	t.Helper()
	for i := uint64(0); i < tbl.Len(); i++ {
		want := i % (tbl.mask + 1)
		if got := tbl.Read(i); got != want {
			t.Fatalf("cell %d: got %d, want %d", i, got, want)
		}
	}
}

func TestSaveLoadRoundTripPlain(t *testing.T) {
	tbl := New(500, 6, 0)
	fillPattern(tbl)

	path := filepath.Join(t.TempDir(), "table.bin")
	if err := Save(tbl, path, false); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != tbl.Len() {
		t.Fatalf("Len: got %d, want %d", loaded.Len(), tbl.Len())
	}
	checkPattern(t, loaded)
}

func TestSaveLoadRoundTripGzip(t *testing.T) {
	tbl := New(2000, 9, 0)
	fillPattern(tbl)

	path := filepath.Join(t.TempDir(), "table.bin.gz")
	if err := Save(tbl, path, true); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checkPattern(t, loaded)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte("not a state table file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for corrupt header")
	}
}
