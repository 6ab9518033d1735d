package spmc

import (
	"bytes"
	"sort"
	"testing"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/kmerdb"
)

func buildDB(t *testing.T, kmers []string) *kmerdb.Reader {
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

// drain has consumer id poll TasksExpected/ValueAt to exhaustion,
// returning every k-mer it saw, in order.
func drain(it *SpmcIter, id int) []string {
	var got []string
	for it.TasksExpected(id) {
		km, ok := it.ValueAt(id)
		if ok {
			got = append(got, km.String())
		}
	}
	return got
}

func TestSingleConsumerSeesAllRecords(t *testing.T) {
	kmers := []string{"AAA", "AAC", "AAG", "AAT", "ACA", "ACC", "ACG"}
	sort.Strings(kmers)
	r := buildDB(t, kmers)

	it := New(r, 1, 3*r.RecordBytes()) // 3 records per block
	it.LaunchProduction()
	got := drain(it, 0)
	if err := it.SeizeProduction(); err != nil {
		t.Fatal(err)
	}

	if len(got) != len(kmers) {
		t.Fatalf("got %d records, want %d", len(got), len(kmers))
	}
	for i := range kmers {
		if got[i] != kmers[i] {
			t.Errorf("record %d = %q, want %q", i, got[i], kmers[i])
		}
	}
}

func TestMultipleConsumersPartitionAllRecords(t *testing.T) {
	kmers := []string{
		"AAA", "AAC", "AAG", "AAT", "ACA", "ACC", "ACG", "ACT",
		"AGA", "AGC", "AGG", "AGT", "ATA", "ATC", "ATG", "ATT",
		"CAA", "CAC", "CAG", "CAT",
	}
	sort.Strings(kmers)
	r := buildDB(t, kmers)

	const nConsumers = 4
	it := New(r, nConsumers, 2*r.RecordBytes())
	it.LaunchProduction()

	var all []string
	results := make(chan []string, nConsumers)
	for id := 0; id < nConsumers; id++ {
		go func(id int) {
			results <- drain(it, id)
		}(id)
	}
	for i := 0; i < nConsumers; i++ {
		all = append(all, (<-results)...)
	}

	if err := it.SeizeProduction(); err != nil {
		t.Fatal(err)
	}

	if len(all) != len(kmers) {
		t.Fatalf("consumers together saw %d records, want %d", len(all), len(kmers))
	}
	sort.Strings(all)
	for i := range kmers {
		if all[i] != kmers[i] {
			t.Errorf("record %d = %q, want %q", i, all[i], kmers[i])
		}
	}
}

func TestMemoryEstimate(t *testing.T) {
	if got := Memory(8, 16<<20); got != 8*(16<<20) {
		t.Fatalf("Memory(8, 16MiB) = %d, want %d", got, 8*(16<<20))
	}
	if got := Memory(4, 0); got != 4*defaultBufBytes {
		t.Fatalf("Memory(4, 0) = %d, want default-based %d", got, 4*defaultBufBytes)
	}
}
