package engine

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/kmerdb"
	"github.com/cuttlefish-go/cdbg/metadata"
)

func windows(seq string, k int) []string {
	var out []string
	for i := 0; i+k <= len(seq); i++ {
		out = append(out, seq[i:i+k])
	}
	return out
}

// packKmer parses s like cdbg.ParseKmer but also accepts an even length
// (the (k+1)-mer edges), which ParseKmer rejects. s must be shorter than
// 32 bases.
func packKmer(s string) (cdbg.Kmer, error) {
	if len(s)%2 == 1 {
		return cdbg.ParseKmer([]byte(s), 0, len(s))
	}
	padded, err := cdbg.ParseKmer([]byte(s+"A"), 0, len(s)+1)
	if err != nil {
		return cdbg.Kmer{}, err
	}
	return cdbg.FromWords(len(s), []uint64{padded.Words()[0] >> 2}), nil
}

func canonicalSorted(kmers []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range kmers {
		km, err := packKmer(s)
		if err != nil {
			panic(err)
		}
		c := km.Canonical().String()
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func writeDB(t *testing.T, path string, kmers []string, kind kmerdb.Kind) {
	t.Helper()
	k := len(kmers[0])
	if kind == kmerdb.EdgeDB {
		k--
	}
	w, err := kmerdb.Create(path, k, kind, uint64(len(kmers)), false)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range kmers {
		km, err := packKmer(s)
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
}

func parseFasta(t *testing.T, text string) map[string]string {
	t.Helper()
	out := map[string]string{}
	var id string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line == "" {
			continue
		}
		if line[0] == '>' {
			id = line[1:]
			continue
		}
		out[id] = line
	}
	return out
}

// TestBuildReadCdBGProducesOneUnitigAndMetadata runs the full pipeline
// over a simple linear, non-repeating path through real files on disk,
// checking the emitted FASTA and the JSON metadata it writes alongside.
func TestBuildReadCdBGProducesOneUnitigAndMetadata(t *testing.T) {
	const seq = "AAACCC"
	const k = 3

	dir := t.TempDir()
	vertexPath := filepath.Join(dir, "vertices.db")
	edgePath := filepath.Join(dir, "edges.db")
	outPath := filepath.Join(dir, "unitigs.fasta")
	metaPath := filepath.Join(dir, "meta.json")

	vertexKmers := canonicalSorted(windows(seq, k))
	edgeKmers := canonicalSorted(windows(seq, k+1))
	writeDB(t, vertexPath, vertexKmers, kmerdb.VertexDB)
	writeDB(t, edgePath, edgeKmers, kmerdb.EdgeDB)

	err := BuildReadCdBG(Params{
		K:            k,
		VertexDBPath: vertexPath,
		EdgeDBPath:   edgePath,
		Threads:      2,
		OutputPath:   outPath,
		MetadataPath: metaPath,
		DCC:          true,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	records := parseFasta(t, string(data))
	if len(records) != 1 {
		t.Fatalf("expected exactly one unitig record, got %d: %v", len(records), records)
	}

	rc := func(s string) string {
		km, err := packKmer(s)
		if err != nil {
			t.Fatal(err)
		}
		return km.ReverseComplement().String()
	}
	var got string
	for _, v := range records {
		got = v
	}
	if got != seq && got != rc(seq) {
		t.Errorf("unitig sequence = %q, want %q or its reverse complement", got, seq)
	}

	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatal(err)
	}
	var m metadata.Metadata
	if err := json.Unmarshal(metaData, &m); err != nil {
		t.Fatal(err)
	}
	if m.Basic.Vertices != uint64(len(vertexKmers)) {
		t.Errorf("metadata vertices = %d, want %d", m.Basic.Vertices, len(vertexKmers))
	}
	if m.Contigs.Count != 1 {
		t.Errorf("metadata contigs count = %d, want 1", m.Contigs.Count)
	}
	if m.Parameters.Mode != "read-cdbg" {
		t.Errorf("metadata mode = %q, want read-cdbg", m.Parameters.Mode)
	}
}

// TestBuildRefCdBGProducesOneUnitig runs the reference-walk pipeline over
// the same linear path, written as a one-record FASTA reference file.
func TestBuildRefCdBGProducesOneUnitig(t *testing.T) {
	const seq = "AAACCC"
	const k = 3

	dir := t.TempDir()
	vertexPath := filepath.Join(dir, "vertices.db")
	refPath := filepath.Join(dir, "ref.fasta")
	outPath := filepath.Join(dir, "unitigs.fasta")

	vertexKmers := canonicalSorted(windows(seq, k))
	writeDB(t, vertexPath, vertexKmers, kmerdb.VertexDB)

	var fasta bytes.Buffer
	fasta.WriteString(">chr1\n")
	fasta.WriteString(seq)
	fasta.WriteString("\n")
	if err := os.WriteFile(refPath, fasta.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	err := BuildRefCdBG(Params{
		K:              k,
		VertexDBPath:   vertexPath,
		ReferencePaths: []string{refPath},
		Threads:        2,
		OutputPath:     outPath,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	records := parseFasta(t, string(data))
	if len(records) != 1 {
		t.Fatalf("expected exactly one unitig record, got %d: %v", len(records), records)
	}
}
