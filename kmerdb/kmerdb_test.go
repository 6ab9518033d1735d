package kmerdb

import (
	"bytes"
	"io"
	"sort"
	"testing"

	"github.com/cuttlefish-go/cdbg"
)

func mustKmer(t *testing.T, s string) cdbg.Kmer {
	t.Helper()
	km, err := cdbg.ParseKmer([]byte(s), 0, len(s))
	if err != nil {
		t.Fatal(err)
	}
	return km
}

func TestWriteReadRoundTrip(t *testing.T) {
	kmers := []string{"AAA", "ACG", "CGT", "TTT"}
	sort.Strings(kmers)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, 3, VertexDB, uint64(len(kmers)))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range kmers {
		if err := w.WriteKmer(mustKmer(t, s)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if r.KmerLen() != 3 {
		t.Fatalf("K = %d, want 3", r.KmerLen())
	}
	if r.Count != uint64(len(kmers)) {
		t.Fatalf("Count = %d, want %d", r.Count, len(kmers))
	}

	var got []string
	for {
		km, err := r.ReadKmer()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, km.String())
	}
	if len(got) != len(kmers) {
		t.Fatalf("read %d records, want %d", len(got), len(kmers))
	}
	for i := range kmers {
		if got[i] != kmers[i] {
			t.Errorf("record %d = %q, want %q", i, got[i], kmers[i])
		}
	}
}

func TestScanBlocks(t *testing.T) {
	kmers := []string{"AAA", "AAC", "AAG", "AAT", "ACA"}
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 3, VertexDB, uint64(len(kmers)))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range kmers {
		if err := w.WriteKmer(mustKmer(t, s)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	err = r.ScanBlocks(2, func(block []byte, n int) error {
		width := r.RecordBytes()
		for i := 0; i < n; i++ {
			km := DecodeRecord(block[i*width:(i+1)*width], r.RecordK())
			got = append(got, km.String())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(kmers) {
		t.Fatalf("scanned %d records, want %d", len(got), len(kmers))
	}
	for i := range kmers {
		if got[i] != kmers[i] {
			t.Errorf("record %d = %q, want %q", i, got[i], kmers[i])
		}
	}
}
