package unitig

import "sync/atomic"

// Stats accumulates the counts metadata.ContigsInfo/metadata.DCCInfo need,
// updated concurrently from every extraction worker via atomics.
type Stats struct {
	count     uint64
	kmers     uint64
	sumLength uint64
	maxLength uint64
	minLength uint64
}

// NewStats returns a Stats ready to record, with minLength primed so the
// first recorded length always wins the initial compare-and-swap.
func NewStats() *Stats {
	return &Stats{minLength: ^uint64(0)}
}

// record folds one emitted record of the given sequence length (and its
// k-mer count) into the running totals.
func (s *Stats) record(length, kmers uint64) {
	atomic.AddUint64(&s.count, 1)
	atomic.AddUint64(&s.kmers, kmers)
	atomic.AddUint64(&s.sumLength, length)
	atomicMax(&s.maxLength, length)
	atomicMin(&s.minLength, length)
}

// Snapshot returns the current totals. minLength reads 0 when no record
// has ever been recorded, rather than its ^uint64(0) sentinel.
func (s *Stats) Snapshot() (count, kmers, sumLength, maxLength, minLength uint64) {
	count = atomic.LoadUint64(&s.count)
	kmers = atomic.LoadUint64(&s.kmers)
	sumLength = atomic.LoadUint64(&s.sumLength)
	maxLength = atomic.LoadUint64(&s.maxLength)
	minLength = atomic.LoadUint64(&s.minLength)
	if count == 0 {
		minLength = 0
	}
	return
}

func atomicMax(addr *uint64, v uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if v <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(addr, cur, v) {
			return
		}
	}
}

func atomicMin(addr *uint64, v uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if v >= cur {
			return
		}
		if atomic.CompareAndSwapUint64(addr, cur, v) {
			return
		}
	}
}
