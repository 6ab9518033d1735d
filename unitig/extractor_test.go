package unitig

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/automaton"
	"github.com/cuttlefish-go/cdbg/kmerdb"
	"github.com/cuttlefish-go/cdbg/mphf"
	"github.com/cuttlefish-go/cdbg/statetable"
)

// memSink is a minimal in-memory sink.Sink for tests.
type memSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *memSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}
func (s *memSink) Flush() error { return nil }
func (s *memSink) Close() error { return nil }

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

func dbBytes(t *testing.T, kmers []string, kind kmerdb.Kind) []byte {
	t.Helper()
	var buf bytes.Buffer
	k := len(kmers[0])
	if kind == kmerdb.EdgeDB {
		k--
	}
	w, err := kmerdb.NewWriter(&buf, k, kind, uint64(len(kmers)))
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
	return buf.Bytes()
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

// TestExtractLinearPathYieldsOneMaximalUnitig builds the same linear,
// non-repeating path used by the automaton tests, runs the read-cdBG
// automaton to classify it, then runs the unitig extractor and checks
// exactly one record comes out whose sequence (in either strand) is the
// original path.
func TestExtractLinearPathYieldsOneMaximalUnitig(t *testing.T) {
	const seq = "AAACCC"
	const k = 3

	vertexKmers := canonicalSorted(windows(seq, k))
	edgeKmers := canonicalSorted(windows(seq, k+1))

	vertexBytes := dbBytes(t, vertexKmers, kmerdb.VertexDB)
	edgeBytes := dbBytes(t, edgeKmers, kmerdb.EdgeDB)

	vertexReader, err := kmerdb.NewReader(bytes.NewReader(vertexBytes))
	if err != nil {
		t.Fatal(err)
	}
	m, err := mphf.Build(vertexReader, 2, mphf.DefaultGamma)
	if err != nil {
		t.Fatal(err)
	}

	edgeReader, err := kmerdb.NewReader(bytes.NewReader(edgeBytes))
	if err != nil {
		t.Fatal(err)
	}
	table := statetable.New(m.Count(), automaton.CellBits, 0)
	c := &automaton.ReadCdBGConstructor{Edges: edgeReader, Vertices: m, Table: table, NThreads: 2}
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	outputted := NewOutputted(m.Count())
	sk := &memSink{}
	ex := &Extractor{
		NewVertexReader: func() (*kmerdb.Reader, error) {
			return kmerdb.NewReader(bytes.NewReader(vertexBytes))
		},
		K:         k,
		Vertices:  m,
		Table:     table,
		Outputted: outputted,
		View:      AutomatonView{},
		Sink:      sk,
		NThreads:  2,
	}
	if err := ex.Run(); err != nil {
		t.Fatal(err)
	}

	records := parseFasta(t, sk.buf.String())
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
}

// TestExtractMarksEveryVertexOutputted checks the invariant that after a
// full extraction pass over a simple linear path, every vertex has been
// claimed exactly once (no vertex left behind for a phantom DCC pass).
func TestExtractMarksEveryVertexOutputted(t *testing.T) {
	const seq = "ACGTAGGCA"
	const k = 3

	vertexKmers := canonicalSorted(windows(seq, k))
	edgeKmers := canonicalSorted(windows(seq, k+1))

	vertexBytes := dbBytes(t, vertexKmers, kmerdb.VertexDB)
	edgeBytes := dbBytes(t, edgeKmers, kmerdb.EdgeDB)

	vertexReader, err := kmerdb.NewReader(bytes.NewReader(vertexBytes))
	if err != nil {
		t.Fatal(err)
	}
	m, err := mphf.Build(vertexReader, 2, mphf.DefaultGamma)
	if err != nil {
		t.Fatal(err)
	}

	edgeReader, err := kmerdb.NewReader(bytes.NewReader(edgeBytes))
	if err != nil {
		t.Fatal(err)
	}
	table := statetable.New(m.Count(), automaton.CellBits, 0)
	c := &automaton.ReadCdBGConstructor{Edges: edgeReader, Vertices: m, Table: table, NThreads: 1}
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	outputted := NewOutputted(m.Count())
	sk := &memSink{}
	ex := &Extractor{
		NewVertexReader: func() (*kmerdb.Reader, error) {
			return kmerdb.NewReader(bytes.NewReader(vertexBytes))
		},
		K:         k,
		Vertices:  m,
		Table:     table,
		Outputted: outputted,
		View:      AutomatonView{},
		Sink:      sk,
		NThreads:  1,
	}
	if err := ex.Run(); err != nil {
		t.Fatal(err)
	}

	for _, s := range vertexKmers {
		km, _ := cdbg.ParseKmer([]byte(s), 0, k)
		idx := m.Lookup(km)
		if !outputted.IsMarked(idx) {
			t.Errorf("vertex %s (idx %d) was never claimed", s, idx)
		}
	}
}
