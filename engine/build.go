// Package engine orchestrates the full construction dataflow: build the
// vertex Mphf, allocate a StateTable, classify vertices (either the
// read-cdBG automaton over an edge database, or the ref-cdBG classifier
// over reference sequences), extract maximal unitigs (plus an optional
// detached-chordless-cycle pass), and write the FASTA sink and JSON
// metadata. BuildReadCdBG and BuildRefCdBG are its two entry points.
package engine

import (
	"github.com/pkg/errors"

	"github.com/cuttlefish-go/cdbg/automaton"
	"github.com/cuttlefish-go/cdbg/kmerdb"
	"github.com/cuttlefish-go/cdbg/metadata"
	"github.com/cuttlefish-go/cdbg/mphf"
	"github.com/cuttlefish-go/cdbg/refcdbg"
	"github.com/cuttlefish-go/cdbg/sink"
	"github.com/cuttlefish-go/cdbg/statetable"
	"github.com/cuttlefish-go/cdbg/unitig"
)

// Params is the full set of knobs a `build` CLI invocation collects
// into one struct.
type Params struct {
	K int

	// VertexDBPath is always required: every mode needs the canonical
	// vertex set to size the Mphf and StateTable.
	VertexDBPath string

	// EdgeDBPath is required for read-cdBG mode, ignored otherwise.
	EdgeDBPath string

	// ReferencePaths is required for ref-cdBG mode, ignored otherwise.
	ReferencePaths []string

	Threads      int
	MinAbundance int

	OutputPath string
	GzipOutput bool

	// MetadataPath, if non-empty, receives the JSON summary. Empty skips
	// metadata entirely.
	MetadataPath string

	// StateTablePath, if non-empty, receives the classified StateTable
	// after the primary pass, so a later invocation can rerun just the
	// DCC extraction without reclassifying.
	StateTablePath       string
	GzipStateTable       bool
	StateTableInputPath  string // when set, skip classification and load this instead

	// DCC, for read-cdBG mode, runs the detached-chordless-cycle second
	// pass after the primary unitig extraction.
	DCC bool

	SoftCapBytes int
}

func (p Params) nThreads() int {
	if p.Threads < 1 {
		return 1
	}
	return p.Threads
}

// BuildReadCdBG runs the read-cdBG pipeline: vertex Mphf, edge-driven
// automaton classification, unitig extraction, optional DCC pass.
func BuildReadCdBG(p Params) error {
	vertices, vertexCount, err := buildVertexMphf(p)
	if err != nil {
		return err
	}

	table, err := loadOrBuildReadCdBGTable(p, vertices)
	if err != nil {
		return err
	}

	out, err := sink.Open(p.OutputPath, p.GzipOutput)
	if err != nil {
		return errors.Wrap(err, "engine: open output sink")
	}

	contigStats := unitig.NewStats()
	extractor := &unitig.Extractor{
		NewVertexReader: func() (*kmerdb.Reader, error) { return kmerdb.Open(p.VertexDBPath) },
		K:               p.K,
		Vertices:        vertices,
		Table:           table,
		Outputted:       unitig.NewOutputted(vertexCount),
		View:            unitig.AutomatonView{},
		Sink:            out,
		NThreads:        p.nThreads(),
		SoftCapBytes:    p.SoftCapBytes,
		Stats:           contigStats,
	}
	if err := extractor.Run(); err != nil {
		closeAll(out)
		return errors.Wrap(err, "engine: extract unitigs")
	}

	dccStats := unitig.NewStats()
	if p.DCC {
		extractor.Stats = dccStats
		if err := extractor.RunDCC(); err != nil {
			closeAll(out)
			return errors.Wrap(err, "engine: extract detached cycles")
		}
	}

	if err := closeAll(out); err != nil {
		return err
	}

	if p.StateTablePath != "" {
		if err := statetable.Save(table, p.StateTablePath, p.GzipStateTable); err != nil {
			return errors.Wrap(err, "engine: persist state table")
		}
	}

	if p.MetadataPath != "" {
		return writeMetadata(p, "read-cdbg", vertexCount, edgeCountOrZero(p), contigStats, dccStats)
	}
	return nil
}

// BuildRefCdBG runs the ref-cdBG pipeline: vertex Mphf, reference-walk
// classification, unitig extraction. No DCC pass: a reference walk never
// produces a vertex with no flank at all (every walk both enters and
// exits, or never gets visited).
func BuildRefCdBG(p Params) error {
	vertices, vertexCount, err := buildVertexMphf(p)
	if err != nil {
		return err
	}

	table := statetable.New(vertexCount, refcdbg.CellBits, 0)
	classifier := &refcdbg.Classifier{
		Paths:    p.ReferencePaths,
		K:        p.K,
		Vertices: vertices,
		Table:    table,
		NThreads: p.nThreads(),
	}
	if err := classifier.Build(); err != nil {
		return errors.Wrap(err, "engine: classify reference vertices")
	}

	out, err := sink.Open(p.OutputPath, p.GzipOutput)
	if err != nil {
		return errors.Wrap(err, "engine: open output sink")
	}

	contigStats := unitig.NewStats()
	extractor := &unitig.Extractor{
		NewVertexReader: func() (*kmerdb.Reader, error) { return kmerdb.Open(p.VertexDBPath) },
		K:               p.K,
		Vertices:        vertices,
		Table:           table,
		Outputted:       unitig.NewOutputted(vertexCount),
		View:            unitig.RefCdBGView{},
		Sink:            out,
		NThreads:        p.nThreads(),
		SoftCapBytes:    p.SoftCapBytes,
		Stats:           contigStats,
	}
	if err := extractor.Run(); err != nil {
		closeAll(out)
		return errors.Wrap(err, "engine: extract unitigs")
	}

	if err := closeAll(out); err != nil {
		return err
	}

	if p.StateTablePath != "" {
		if err := statetable.Save(table, p.StateTablePath, p.GzipStateTable); err != nil {
			return errors.Wrap(err, "engine: persist state table")
		}
	}

	if p.MetadataPath != "" {
		return writeMetadata(p, "ref-cdbg", vertexCount, 0, contigStats, unitig.NewStats())
	}
	return nil
}

// RerunDCC reclassifies nothing: it reloads a StateTable persisted by an
// earlier BuildReadCdBG call and runs only the detached-cycle pass.
func RerunDCC(p Params) error {
	vertices, vertexCount, err := buildVertexMphf(p)
	if err != nil {
		return err
	}

	table, err := statetable.Load(p.StateTableInputPath)
	if err != nil {
		return errors.Wrap(err, "engine: load persisted state table")
	}

	out, err := sink.Open(p.OutputPath, p.GzipOutput)
	if err != nil {
		return errors.Wrap(err, "engine: open output sink")
	}

	dccStats := unitig.NewStats()
	extractor := &unitig.Extractor{
		NewVertexReader: func() (*kmerdb.Reader, error) { return kmerdb.Open(p.VertexDBPath) },
		K:               p.K,
		Vertices:        vertices,
		Table:           table,
		Outputted:       unitig.NewOutputted(vertexCount),
		View:            unitig.AutomatonView{},
		Sink:            out,
		NThreads:        p.nThreads(),
		SoftCapBytes:    p.SoftCapBytes,
		Stats:           dccStats,
	}
	if err := extractor.RunDCC(); err != nil {
		closeAll(out)
		return errors.Wrap(err, "engine: extract detached cycles")
	}

	if err := closeAll(out); err != nil {
		return err
	}

	if p.MetadataPath != "" {
		return writeMetadata(p, "read-cdbg-dcc-rerun", vertexCount, 0, unitig.NewStats(), dccStats)
	}
	return nil
}

// buildVertexMphf builds the vertex Mphf and returns it alongside the
// exact vertex count (read from the database header, not recomputed).
func buildVertexMphf(p Params) (*mphf.Mphf, uint64, error) {
	reader, err := kmerdb.Open(p.VertexDBPath)
	if err != nil {
		return nil, 0, errors.Wrap(err, "engine: open vertex database")
	}
	defer reader.Close()

	vertices, err := mphf.Build(reader, p.nThreads(), mphf.DefaultGamma)
	if err != nil {
		return nil, 0, errors.Wrap(err, "engine: build vertex mphf")
	}
	return vertices, reader.KmerCount(), nil
}

func loadOrBuildReadCdBGTable(p Params, vertices *mphf.Mphf) (*statetable.Table, error) {
	if p.StateTableInputPath != "" {
		table, err := statetable.Load(p.StateTableInputPath)
		return table, errors.Wrap(err, "engine: load persisted state table")
	}

	table := statetable.New(vertices.Count(), automaton.CellBits, 0)

	edges, err := kmerdb.Open(p.EdgeDBPath)
	if err != nil {
		return nil, errors.Wrap(err, "engine: open edge database")
	}
	defer edges.Close()

	constructor := &automaton.ReadCdBGConstructor{
		Edges:    edges,
		Vertices: vertices,
		Table:    table,
		NThreads: p.nThreads(),
	}
	if err := constructor.Build(); err != nil {
		return nil, errors.Wrap(err, "engine: construct read-cdBG automaton")
	}
	return table, nil
}

func edgeCountOrZero(p Params) uint64 {
	if p.EdgeDBPath == "" {
		return 0
	}
	n, err := kmerdb.Open(p.EdgeDBPath)
	if err != nil {
		return 0
	}
	defer n.Close()
	return n.KmerCount()
}

func writeMetadata(p Params, mode string, vertexCount, edgeCount uint64, contigs, dcc *unitig.Stats) error {
	cCount, cKmers, cSum, cMax, cMin := contigs.Snapshot()
	dCount, dKmers, _, _, _ := dcc.Snapshot()

	m := &metadata.Metadata{
		Basic: metadata.BasicInfo{Vertices: vertexCount, Edges: edgeCount},
		Contigs: metadata.ContigsInfo{
			Count:          cCount,
			KmersInUnitigs: cKmers,
			MaxLength:      int(cMax),
			MinLength:      int(cMin),
			SumLength:      cSum,
		},
		DCC: metadata.DCCInfo{Count: dCount, KmersInDCC: dKmers},
		Parameters: metadata.ParametersInfo{
			K:            p.K,
			Threads:      p.nThreads(),
			MinAbundance: p.MinAbundance,
			Mode:         mode,
		},
	}
	return metadata.WriteFile(m, p.MetadataPath)
}

func closeAll(out sink.Sink) error {
	return errors.Wrap(out.Close(), "engine: close output sink")
}
