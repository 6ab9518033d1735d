package mphf

import (
	"math/bits"
	"sync/atomic"
)

// bitset is a dense bit vector over [0, n), backed by u64 words.
type bitset []uint64

func newBitset(n uint64) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) test(i uint64) bool {
	return b[i/64]&(uint64(1)<<(i%64)) != 0
}

// setFirst atomically sets bit i and reports whether this call was the
// one that transitioned it from 0 to 1 (false means some other caller,
// concurrent or earlier, already claimed it — a collision).
func (b bitset) setFirst(i uint64) bool {
	word := &b[i/64]
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

func (b bitset) setAtomic(i uint64) {
	word := &b[i/64]
	mask := uint64(1) << (i % 64)
	for {
		old := atomic.LoadUint64(word)
		if old&mask != 0 {
			return
		}
		if atomic.CompareAndSwapUint64(word, old, old|mask) {
			return
		}
	}
}

// andNot returns a &^ b (bitwise), same length as a.
func andNot(a, c bitset) bitset {
	out := make(bitset, len(a))
	for i := range a {
		out[i] = a[i] &^ c[i]
	}
	return out
}

// rankIndex supports O(1) rank queries (popcount of bits [0, i)) over a
// bitset via precomputed per-word prefix sums.
type rankIndex struct {
	prefix []uint32 // prefix[w] = popcount of bits in words [0, w)
	total  uint64
}

func buildRank(b bitset) rankIndex {
	prefix := make([]uint32, len(b)+1)
	var sum uint32
	for i, w := range b {
		prefix[i] = sum
		sum += uint32(bits.OnesCount64(w))
	}
	prefix[len(b)] = sum
	return rankIndex{prefix: prefix, total: uint64(sum)}
}

// rank returns the number of set bits in b at indices < i.
func (r rankIndex) rank(b bitset, i uint64) uint64 {
	wi := i / 64
	bi := i % 64
	n := uint64(r.prefix[wi])
	if bi > 0 {
		n += uint64(bits.OnesCount64(b[wi] & ((uint64(1) << bi) - 1)))
	}
	return n
}
