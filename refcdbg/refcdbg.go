package refcdbg

import (
	"io"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/automaton"
	"github.com/cuttlefish-go/cdbg/mphf"
	"github.com/cuttlefish-go/cdbg/statetable"
	"github.com/cuttlefish-go/cdbg/workerpool"
)

// Classifier walks a set of reference sequences and classifies each
// vertex it touches by its bidirected in/out multiplicity, writing the
// result into a shared StateTable indexed by a vertex Mphf.
type Classifier struct {
	Paths    []string
	K        int
	Vertices *mphf.Mphf
	Table    *statetable.Table
	NThreads int
}

// Build streams every reference file, classifying each maximal run of
// valid bases of length >= K.
func (c *Classifier) Build() error {
	seq.ValidateSeq = false // accept soft-masked/ambiguous FASTA without the library's own strict check
	for _, path := range c.Paths {
		if err := c.buildFile(path); err != nil {
			return err
		}
	}
	return nil
}

func (c *Classifier) buildFile(path string) error {
	reader, err := fastx.NewDefaultReader(path)
	if err != nil {
		return errors.Wrapf(err, "refcdbg: open %s", path)
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "refcdbg: read %s", path)
		}
		c.processSequence(record.Seq.Seq)
	}
}

func isValidBase(b byte) bool {
	switch b {
	case 'A', 'a', 'C', 'c', 'G', 'g', 'T', 't':
		return true
	default:
		return false
	}
}

// processSequence splits seq into maximal runs of valid bases and
// classifies every k-mer window in each run long enough to hold one.
func (c *Classifier) processSequence(seq []byte) {
	k := c.K
	start := 0
	for start < len(seq) {
		if !isValidBase(seq[start]) {
			start++
			continue
		}
		end := start
		for end < len(seq) && isValidBase(seq[end]) {
			end++
		}
		if end-start >= k {
			c.processRun(seq[start:end])
		}
		start = end
	}
}

// processRun classifies every k-mer position within run, partitioning
// the position range across NThreads workers. Workers never copy the
// run: each reads directly from the shared slice, including the one
// extra base on either side of its assigned range needed to know
// whether a boundary position has a neighbor — the k-overlapping windows
// fall out for free since the full run stays resident in memory.
func (c *Classifier) processRun(run []byte) {
	k := c.K
	positions := len(run) - k + 1
	n := c.NThreads
	if n < 1 {
		n = 1
	}
	if n > positions {
		n = positions
	}

	workerpool.Run(n, func(id int) {
		lo := id * positions / n
		hi := (id + 1) * positions / n
		for i := lo; i < hi; i++ {
			c.processPosition(run, i)
		}
	})
}

func (c *Classifier) processPosition(run []byte, i int) {
	k := c.K
	L := len(run)

	cur, err := cdbg.ParseKmer(run, i, k)
	if err != nil {
		return
	}
	idx := c.Vertices.Lookup(cur.Canonical())

	hasLeft := i > 0
	hasRight := i+k < L
	leftBase, rightBase := automaton.E, automaton.E
	if hasLeft {
		leftBase = automaton.EncodeBase(run[i-1])
	}
	if hasRight {
		rightBase = automaton.EncodeBase(run[i+k])
	}

	selfLoop := false
	if i+1+k <= L {
		next, _ := cdbg.ParseKmer(run, i+1, k)
		if cur.Canonical().Equal(next.Canonical()) {
			selfLoop = true
		}
	}

	var hasEnter, hasExit bool
	var enterBase, exitBase automaton.Base
	if cur.IsCanonical() {
		hasEnter, enterBase = hasLeft, leftBase
		hasExit, exitBase = hasRight, rightBase
	} else {
		hasEnter, enterBase = hasRight, automaton.ComplementEncode(rightBase)
		hasExit, exitBase = hasLeft, automaton.ComplementEncode(leftBase)
	}

	for {
		old := c.Table.Read(idx)
		next := transition(old, hasEnter, enterBase, hasExit, exitBase, selfLoop)
		if next == old {
			return
		}
		if c.Table.Update(idx, old, next) {
			return
		}
	}
}
