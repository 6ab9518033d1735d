package unitig

import (
	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/automaton"
)

// tryEmitCycle implements the detached-chordless-cycle pass: v is only
// a DCC candidate if neither side is a flank (every vertex on a genuine
// DCC has a unique edge on both sides). Walk
// forward from v until the walk returns to v, tracking the
// lexicographically-smallest canonical k-mer seen (the "pivot"), then
// emit the cycle rotated so its label begins at the pivot in canonical
// orientation.
func (e *Extractor) tryEmitCycle(v cdbg.Kmer, buf *outputBuffer) error {
	idx := e.Vertices.Lookup(v)
	if e.Outputted.IsMarked(idx) {
		return nil
	}

	cell := e.Table.Read(idx)
	if e.View.IsFlank(cell, automaton.Front) || e.View.IsFlank(cell, automaton.Back) {
		return nil // belongs to a linear unitig, not a detached cycle
	}

	k := e.K
	seq := append([]byte(nil), v.Bytes()...)
	pivotCanon := v
	pivotPos := 0

	cur, curRC := v, v.ReverseComplement()
	for {
		canon := cur.Canonical()
		curIdx := e.Vertices.Lookup(canon)
		if curIdx != idx && e.Outputted.IsMarked(curIdx) {
			return nil // another thread already claimed part of this cycle
		}

		curCell := e.Table.Read(curIdx)
		side := automaton.Back
		if !cur.IsCanonical() {
			side = automaton.Front
		}
		if e.View.IsFlank(curCell, side) {
			return nil // inconsistent topology; abandon defensively
		}

		stored := e.View.ExitBase(curCell, side)
		actualBase := stored
		if !cur.IsCanonical() {
			actualBase = automaton.ComplementEncode(stored)
		}
		actual := actualBase.Byte()

		next, nextRC, err := cur.RollForward(actual, curRC)
		if err != nil {
			return nil
		}

		nextCanon := next.Canonical()
		if nextCanon.Equal(v) {
			break // closed the loop back to the start
		}

		seq = append(seq, actual)
		pos := len(seq) - k
		if nextCanon.Compare(pivotCanon) < 0 {
			pivotCanon = nextCanon
			pivotPos = pos
		}
		cur, curRC = next, nextRC
	}

	rotated, err := rotateToPivot(seq, k, pivotCanon, pivotPos)
	if err != nil {
		return nil
	}

	return e.claimAndWrite(buf, pivotCanon, rotated)
}

// rotateToPivot rotates the circular sequence seq so it begins at
// pivotPos, flipping to its reverse complement first if the literal
// k-mer at pivotPos is the anti-canonical orientation of pivotCanon.
func rotateToPivot(seq []byte, k int, pivotCanon cdbg.Kmer, pivotPos int) ([]byte, error) {
	pivotLiteral, err := cdbg.ParseKmer(seq, pivotPos, k)
	if err != nil {
		return nil, err
	}
	if pivotLiteral.IsCanonical() {
		return rotateCircular(seq, k, pivotPos), nil
	}
	rc := reverseComplementBytes(seq)
	q := len(seq) - k - pivotPos
	return rotateCircular(rc, k, q), nil
}

// rotateCircular rotates the period-m cyclic content seq spells (m =
// len(seq)-(k-1), the k-1 bases at the cycle join are the overlap with
// the run's own start) so it begins at pos, re-expanding the full
// length-(m+k-1) linear spelling from that point. A plain string
// rotation of seq is only correct for pos == 0: anywhere else it treats
// the join overlap as literal content, spelling spurious k-mers at the
// new seam and losing the real ones that used to span it.
func rotateCircular(seq []byte, k, pos int) []byte {
	m := len(seq) - (k - 1)
	out := make([]byte, len(seq))
	for i := range out {
		out[i] = seq[(pos+i)%m]
	}
	return out
}
