// Package metadata writes the optional JSON summary produced alongside
// the FASTA unitig output, and formats the same counts as a
// human-readable table (WriteSummary, which no CLI command calls).
package metadata

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// BasicInfo reports the size of the vertex/edge sets the core consumed.
type BasicInfo struct {
	Vertices uint64 `json:"vertices"`
	Edges    uint64 `json:"edges,omitempty"`
}

// ContigsInfo reports the unitigs the core produced.
type ContigsInfo struct {
	Count          uint64 `json:"count"`
	KmersInUnitigs uint64 `json:"kmers in unitigs"`
	MaxLength      int    `json:"max length"`
	MinLength      int    `json:"min length"`
	SumLength      uint64 `json:"sum length"`
}

// DCCInfo reports the detached chordless cycles the second pass found.
type DCCInfo struct {
	Count     uint64 `json:"count"`
	KmersInDCC uint64 `json:"kmers in dcc"`
}

// ParametersInfo records the run's configuration, for reproducibility.
type ParametersInfo struct {
	K                  int    `json:"k"`
	Threads            int    `json:"threads"`
	MinAbundance       int    `json:"min abundance"`
	Mode               string `json:"mode"` // "read-cdbg", "ref-cdbg" or "read-cdbg-dcc-rerun"
	ShortReferenceRuns int    `json:"short reference runs skipped,omitempty"`
}

// Metadata is the full JSON document written alongside a build's output.
type Metadata struct {
	Basic      BasicInfo       `json:"basic info"`
	Contigs    ContigsInfo     `json:"contigs info"`
	DCC        DCCInfo         `json:"detached chordless cycles (DCC) info"`
	Parameters ParametersInfo  `json:"parameters info"`
}

// WriteFile marshals m as indented JSON to path.
func WriteFile(m *Metadata, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "metadata: encode")
	}
	data = append(data, '\n')
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "metadata: write %s", path)
}
