package metadata

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sample() *Metadata {
	return &Metadata{
		Basic:   BasicInfo{Vertices: 1000, Edges: 950},
		Contigs: ContigsInfo{Count: 10, KmersInUnitigs: 1000, MaxLength: 200, MinLength: 21, SumLength: 1300},
		DCC:     DCCInfo{Count: 1, KmersInDCC: 8},
		Parameters: ParametersInfo{
			K: 21, Threads: 4, MinAbundance: 1, Mode: "read-cdbg",
		},
	}
}

func TestWriteFileRoundTripsSchemaKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")

	if err := WriteFile(sample(), path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{
		"basic info", "contigs info",
		"detached chordless cycles (DCC) info", "parameters info",
	} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing schema key %q", key)
		}
	}
}

func TestWriteSummaryProducesNonEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(sample(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "vertices") {
		t.Errorf("summary missing 'vertices' row: %q", out)
	}
	if !strings.Contains(out, "1,000") && !strings.Contains(out, "1000") {
		t.Errorf("summary missing vertex count: %q", out)
	}
}
