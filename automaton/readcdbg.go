package automaton

import (
	"github.com/pkg/errors"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/kmerdb"
	"github.com/cuttlefish-go/cdbg/mphf"
	"github.com/cuttlefish-go/cdbg/spmc"
	"github.com/cuttlefish-go/cdbg/statetable"
	"github.com/cuttlefish-go/cdbg/workerpool"
)

// ReadCdBGConstructor builds the read-cdBG automaton's state by streaming
// (k+1)-mer edges through a fixed worker pool, each worker updating the
// shared StateTable via its optimistic-CAS path.
type ReadCdBGConstructor struct {
	Edges    *kmerdb.Reader
	Vertices *mphf.Mphf
	Table    *statetable.Table
	NThreads int
}

// Build drains Edges once, applying every edge's transition to Table, and
// reports progress in 1%-granularity ticks.
func (c *ReadCdBGConstructor) Build() error {
	n := c.NThreads
	if n < 1 {
		n = 1
	}

	it := spmc.New(c.Edges, n, 0)
	it.LaunchProduction()

	progress := workerpool.NewProgressTracker(c.Edges.KmerCount(), 1024, "constructing read-cdBG")

	workerpool.Run(n, func(id int) {
		var processed uint64
		for it.TasksExpected(id) {
			edge, ok := it.ValueAt(id)
			if !ok {
				continue
			}
			c.applyEdge(edge)
			processed++
			if processed%1024 == 0 {
				progress.Track(1024)
			}
		}
		if rem := processed % 1024; rem > 0 {
			progress.Track(rem)
		}
	})
	progress.Done()

	return errors.Wrap(it.SeizeProduction(), "automaton: read edge database")
}

// applyEdge classifies one (k+1)-mer edge and applies its transition(s).
func (c *ReadCdBGConstructor) applyEdge(edge cdbg.Kmer) {
	k := edge.K - 1
	bytes := edge.Bytes()

	u, _ := cdbg.ParseKmer(bytes, 0, k)
	v, _ := cdbg.ParseKmer(bytes, 1, k)
	leadingBase := bytes[0]
	trailingBase := bytes[k]

	uCanon := u.IsCanonical()
	vCanon := v.IsCanonical()

	sideU := Back
	if !uCanon {
		sideU = Front
	}
	sideV := Front
	if !vCanon {
		sideV = Back
	}

	seenU := trailingBase
	if !uCanon {
		seenU = complementBase(trailingBase)
	}
	seenV := leadingBase
	if !vCanon {
		seenV = complementBase(leadingBase)
	}

	uCanonical := u.Canonical()
	vCanonical := v.Canonical()

	uIdx := c.Vertices.Lookup(uCanonical)
	vIdx := c.Vertices.Lookup(vCanonical)

	if uCanonical.Equal(vCanonical) {
		if sideU != sideV {
			c.forceBothSidesN(uIdx)
		} else {
			c.update(uIdx, sideU, N)
		}
		return
	}

	c.update(uIdx, sideU, baseToEncode(seenU))
	c.update(vIdx, sideV, baseToEncode(seenV))
}

// update applies transition(old, seen) at (idx, side), retrying on a
// failed CAS until it observes its own write committed (or discovers the
// cell already reflects at least as strong a state, in which case no
// write is needed at all — see statetable.Table.Update's commutativity
// contract).
func (c *ReadCdBGConstructor) update(idx uint64, side Side, seen Base) {
	for {
		old := c.Table.Read(idx)
		cur := sideOf(old, side)
		next := transition(cur, seen)
		if next == cur {
			return
		}
		if c.Table.Update(idx, old, withSide(old, side, next)) {
			return
		}
	}
}

// forceBothSidesN implements the crossing-loop case: both sides of one
// vertex collapse to N in a single locked update.
func (c *ReadCdBGConstructor) forceBothSidesN(idx uint64) {
	target := packCell(N, N)
	for {
		old := c.Table.Read(idx)
		if old == target {
			return
		}
		if c.Table.Update(idx, old, target) {
			return
		}
	}
}
