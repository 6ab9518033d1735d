package unitig

import "sync/atomic"

// Outputted is a lock-free, atomically-claimed bit per vertex index
// recording whether some unitig or detached chordless cycle containing
// that vertex has already been emitted. Every vertex of an emitted
// linear unitig is marked; a cycle marks only its pivot vertex. It is kept separate from the
// automaton/refcdbg StateTable cell rather than packed into a spare
// state-cell bit: neither the read-cdBG automaton's 6-bit cell nor the
// ref-cdBG classifier's 9-bit cell has a bit to spare without losing
// information a failed CAS retry needs to recover (see DESIGN.md's
// "unitig outputted-marking" entry).
type Outputted struct {
	words []uint64
}

// NewOutputted allocates a companion bitset for n vertices, all unmarked.
func NewOutputted(n uint64) *Outputted {
	return &Outputted{words: make([]uint64, (n+63)/64)}
}

// IsMarked reports whether vertex i has already been claimed.
func (o *Outputted) IsMarked(i uint64) bool {
	return atomic.LoadUint64(&o.words[i/64])&(uint64(1)<<(i%64)) != 0
}

// TryMark atomically sets bit i and reports whether this call is the one
// that transitioned it from unset to set — the unitig/DCC claim contract.
func (o *Outputted) TryMark(i uint64) bool {
	word := &o.words[i/64]
	mask := uint64(1) << (i % 64)
	for {
		old := atomic.LoadUint64(word)
		if old&mask != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(word, old, old|mask) {
			return true
		}
	}
}
