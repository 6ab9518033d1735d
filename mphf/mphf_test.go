package mphf

import (
	"bytes"
	"sort"
	"testing"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/kmerdb"
)

func buildReader(t *testing.T, kmers []string) *kmerdb.Reader {
	t.Helper()
	sort.Strings(kmers)
	var buf bytes.Buffer
	w, err := kmerdb.NewWriter(&buf, len(kmers[0]), kmerdb.VertexDB, uint64(len(kmers)))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range kmers {
		km, err := cdbg.ParseKmer([]byte(s), 0, len(s))
		if err != nil {
			t.Fatal(err)
		}
		if err := w.WriteKmer(km); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := kmerdb.NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func allKmers(t *testing.T, k int) []string {
	t.Helper()
	bases := []byte{'A', 'C', 'G', 'T'}
	var out []string
	var rec func(prefix []byte)
	rec = func(prefix []byte) {
		if len(prefix) == k {
			out = append(out, string(prefix))
			return
		}
		for _, b := range bases {
			rec(append(prefix, b))
		}
	}
	rec(nil)
	return out
}

func TestBuildIsInjective(t *testing.T) {
	kmers := allKmers(t, 3) // 64 distinct 3-mers
	r := buildReader(t, kmers)

	m, err := Build(r, 4, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if m.Count() != uint64(len(kmers)) {
		t.Fatalf("Count() = %d, want %d", m.Count(), len(kmers))
	}

	seen := make(map[uint64]string, len(kmers))
	for _, s := range kmers {
		km, err := cdbg.ParseKmer([]byte(s), 0, len(s))
		if err != nil {
			t.Fatal(err)
		}
		idx := m.Lookup(km)
		if idx >= m.Count() {
			t.Fatalf("Lookup(%q) = %d out of range [0,%d)", s, idx, m.Count())
		}
		if prev, ok := seen[idx]; ok {
			t.Fatalf("Lookup collision: %q and %q both map to %d", prev, s, idx)
		}
		seen[idx] = s
		if !m.MayContain(km) {
			t.Errorf("MayContain(%q) = false for a training-set member", s)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	kmers := allKmers(t, 3)
	r := buildReader(t, kmers)

	m, err := Build(r, 2, 2.0)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := dir + "/test.mphf"
	if err := Save(m, path, false); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Count() != m.Count() {
		t.Fatalf("loaded Count() = %d, want %d", loaded.Count(), m.Count())
	}

	for _, s := range kmers {
		km, _ := cdbg.ParseKmer([]byte(s), 0, len(s))
		if got, want := loaded.Lookup(km), m.Lookup(km); got != want {
			t.Errorf("Lookup(%q) after reload = %d, want %d", s, got, want)
		}
	}
}
