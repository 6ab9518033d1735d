package unitig

import (
	"github.com/cuttlefish-go/cdbg/automaton"
	"github.com/cuttlefish-go/cdbg/refcdbg"
)

// CellView abstracts reading a vertex's packed StateTable cell. The
// read-cdBG automaton and the ref-cdBG classifier pack different
// information into a cell, but the unitig walk only ever needs to know
// whether a side is a flank and, when it isn't, which base extends
// through it — this lets the same walk and atomic-claim logic serve
// both the read and reference variants.
type CellView interface {
	IsFlank(cell uint64, side automaton.Side) bool
	ExitBase(cell uint64, side automaton.Side) automaton.Base
}

// AutomatonView reads a read-cdBG automaton's 6-bit cell.
type AutomatonView struct{}

func (AutomatonView) IsFlank(cell uint64, side automaton.Side) bool {
	return automaton.IsFlank(automaton.SideOf(cell, side))
}

func (AutomatonView) ExitBase(cell uint64, side automaton.Side) automaton.Base {
	return automaton.SideOf(cell, side)
}

// RefCdBGView reads a ref-cdBG classifier's 9-bit cell.
type RefCdBGView struct{}

func (RefCdBGView) IsFlank(cell uint64, side automaton.Side) bool {
	return refcdbg.IsFlank(cell, side)
}

func (RefCdBGView) ExitBase(cell uint64, side automaton.Side) automaton.Base {
	return refcdbg.PinnedBase(cell, side)
}
