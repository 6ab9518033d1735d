// Package unitig implements the maximal-unitig extraction walk and the
// detached-chordless-cycle second pass over an already-classified
// vertex set.
package unitig

import (
	"github.com/pkg/errors"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/automaton"
	"github.com/cuttlefish-go/cdbg/kmerdb"
	"github.com/cuttlefish-go/cdbg/mphf"
	"github.com/cuttlefish-go/cdbg/sink"
	"github.com/cuttlefish-go/cdbg/spmc"
	"github.com/cuttlefish-go/cdbg/statetable"
	"github.com/cuttlefish-go/cdbg/workerpool"
)

// Extractor walks a classified vertex set (read-cdBG automaton or
// ref-cdBG classifier output, selected via View) to emit maximal
// unitigs, and optionally detached chordless cycles, as FASTA records.
type Extractor struct {
	// NewVertexReader opens a fresh sequential reader over the vertex
	// database. It is called once per pass (Run, then RunDCC) since
	// each pass streams the full vertex set independently.
	NewVertexReader func() (*kmerdb.Reader, error)

	K            int
	Vertices     *mphf.Mphf
	Table        *statetable.Table
	Outputted    *Outputted
	View         CellView
	Sink         sink.Sink
	NThreads     int
	SoftCapBytes int

	// Stats, if non-nil, accumulates counts for the records this pass
	// emits. Callers reassign it between Run and RunDCC to track contig
	// and DCC statistics separately with one Extractor.
	Stats *Stats
}

func (e *Extractor) nThreads() int {
	if e.NThreads < 1 {
		return 1
	}
	return e.NThreads
}

// Run performs the primary extraction pass: every canonical vertex with
// at least one flank side seeds a walk to its maximal unitig.
func (e *Extractor) Run() error {
	return e.pass("extracting unitigs", e.tryEmit)
}

// RunDCC performs the detached-chordless-cycle second pass: Run marks
// every vertex of each unitig it emits, so any vertex left unmarked
// after Run lies on a cycle with no flank at all.
func (e *Extractor) RunDCC() error {
	return e.pass("extracting detached cycles", e.tryEmitCycle)
}

func (e *Extractor) pass(label string, visit func(v cdbg.Kmer, buf *outputBuffer) error) error {
	reader, err := e.NewVertexReader()
	if err != nil {
		return errors.Wrap(err, "unitig: open vertex database")
	}
	defer reader.Close()

	n := e.nThreads()
	it := spmc.New(reader, n, 0)
	it.LaunchProduction()

	progress := workerpool.NewProgressTracker(reader.KmerCount(), 1024, label)
	err = workerpool.RunErr(n, func(id int) error {
		buf := newOutputBuffer(e.Sink, e.SoftCapBytes)
		var processed uint64
		for it.TasksExpected(id) {
			v, ok := it.ValueAt(id)
			if !ok {
				continue
			}
			if err := visit(v, buf); err != nil {
				return err
			}
			processed++
			if processed%1024 == 0 {
				progress.Track(1024)
			}
		}
		if rem := processed % 1024; rem > 0 {
			progress.Track(rem)
		}
		return buf.flush()
	})
	progress.Done()
	if err != nil {
		return err
	}
	return errors.Wrap(it.SeizeProduction(), "unitig: read vertex database")
}

// tryEmit walks outward from a single candidate seed vertex v (already
// canonical, as read from the vertex database) in both directions,
// canonicalizes the resulting contig, and hands it off for claiming.
func (e *Extractor) tryEmit(v cdbg.Kmer, buf *outputBuffer) error {
	idx := e.Vertices.Lookup(v)
	if e.Outputted.IsMarked(idx) {
		return nil
	}

	cell := e.Table.Read(idx)
	frontFlank := e.View.IsFlank(cell, automaton.Front)
	backFlank := e.View.IsFlank(cell, automaton.Back)
	if !frontFlank && !backFlank {
		return nil // interior vertex; reached from this unitig's actual flank
	}

	var seq []byte
	switch {
	case frontFlank && backFlank:
		// Isolated single-vertex unitig: no extension in either direction.
		seq = append([]byte(nil), v.Bytes()...)
	case backFlank:
		// Back is the flank; exit (and extend) through the front.
		ext, ok := e.walk(v.ReverseComplement(), v)
		if !ok {
			return nil
		}
		seq = append(reverseComplementBytes(ext), v.Bytes()...)
	default:
		// Front is the flank; exit (and extend) through the back.
		ext, ok := e.walk(v, v.ReverseComplement())
		if !ok {
			return nil
		}
		seq = append(append([]byte(nil), v.Bytes()...), ext...)
	}

	return e.finishLinear(buf, seq)
}

// walk extends outward from a directed vertex whose Back side is always
// the exit direction (cur canonical means the cell's own Back side is
// the exit; cur anti-canonical mirrors it to Front, exactly the sideU/
// sideV convention automaton.ReadCdBGConstructor uses for edges), one
// base at a time, until the exit side is a flank. ok is false if the
// walk finds a vertex already claimed by another thread, meaning this
// seed must abandon its attempt entirely.
func (e *Extractor) walk(cur, curRC cdbg.Kmer) (ext []byte, ok bool) {
	for {
		canon := cur.Canonical()
		idx := e.Vertices.Lookup(canon)
		if e.Outputted.IsMarked(idx) {
			return nil, false
		}

		cell := e.Table.Read(idx)
		side := automaton.Back
		if !cur.IsCanonical() {
			side = automaton.Front
		}
		if e.View.IsFlank(cell, side) {
			return ext, true
		}

		stored := e.View.ExitBase(cell, side)
		actualBase := stored
		if !cur.IsCanonical() {
			actualBase = automaton.ComplementEncode(stored)
		}
		actual := actualBase.Byte()

		next, nextRC, err := cur.RollForward(actual, curRC)
		if err != nil {
			return ext, true
		}
		ext = append(ext, actual)
		cur, curRC = next, nextRC
	}
}

// finishLinear canonicalizes seq by its sign vertex, atomically claims
// it, hands the record to buf, and then marks every vertex of seq as
// outputted.
func (e *Extractor) finishLinear(buf *outputBuffer, seq []byte) error {
	k := e.K
	first, err := cdbg.ParseKmer(seq, 0, k)
	if err != nil {
		return errors.Wrap(err, "unitig: decode first k-mer")
	}
	last, err := cdbg.ParseKmer(seq, len(seq)-k, k)
	if err != nil {
		return errors.Wrap(err, "unitig: decode last k-mer")
	}

	firstCanon := first.Canonical()
	lastCanon := last.Canonical()
	signCanon := firstCanon
	if lastCanon.Compare(firstCanon) < 0 {
		signCanon = lastCanon
		seq = reverseComplementBytes(seq)
	}

	if err := e.claimAndWrite(buf, signCanon, seq); err != nil {
		return err
	}
	for i := 0; i+k <= len(seq); i++ {
		km, err := cdbg.ParseKmer(seq, i, k)
		if err != nil {
			return errors.Wrap(err, "unitig: decode unitig k-mer")
		}
		e.Outputted.TryMark(e.Vertices.Lookup(km.Canonical()))
	}
	return nil
}

func (e *Extractor) claimAndWrite(buf *outputBuffer, signCanon cdbg.Kmer, seq []byte) error {
	signIdx := e.Vertices.Lookup(signCanon)
	if !e.Outputted.TryMark(signIdx) {
		return nil // another thread already emitted this unitig/cycle
	}
	if e.Stats != nil {
		length := uint64(len(seq))
		e.Stats.record(length, length-uint64(e.K)+1)
	}
	return buf.writeRecord(signIdx, seq)
}
