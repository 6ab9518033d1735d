// Package mphf builds a minimal perfect hash function over a canonical
// k-mer set, following the BBHash cascade-of-bitsets construction:
// injective on the training set, buildable from a single streaming pass,
// and landing around 3-5 bits/key via a cascade of Bloom filters over
// successive sub-hash functions.
package mphf

import (
	"math"
	"sync"

	"github.com/twotwotwo/sorts"
	"github.com/twotwotwo/sorts/sortutil"

	"github.com/cuttlefish-go/cdbg"
	"github.com/cuttlefish-go/cdbg/kmerdb"
	"github.com/cuttlefish-go/cdbg/spmc"
)

// DefaultGamma is the load factor BBHash uses when none is supplied:
// lower values give a smaller structure at the cost of slower, more
// collision-prone construction. 1.0 gives the lowest memory; we default
// a bit looser for faster convergence.
const DefaultGamma = 2.0

// maxLevels bounds the cascade so a pathological hash family (or an
// input containing duplicate keys, which breaks MPHF's injectivity
// precondition) can't spin forever; the residual is parked in a small
// fallback map instead of failing the build.
const maxLevels = 32

// level is one tier of the BBHash cascade: the final (collision-free)
// occupancy bitset, its rank index, and this tier's offset into the
// global index space.
type level struct {
	size   uint64
	bits   bitset
	rank   rankIndex
	offset uint64
}

// Mphf is a minimal perfect hash function over a fixed canonical k-mer
// set: Lookup(k) for any k in the training set returns a unique value in
// [0, N). Lookups for keys outside the training set are undefined (see
// MayContain for a fast pre-check), matching BBHash's own contract.
type Mphf struct {
	seed     uint64
	n        uint64
	levels   []level
	fallback map[uint64]uint64 // residual keys that never resolved (rare)
	filter   *sanityFilter
}

// Count returns the number of keys the function was built over.
func (m *Mphf) Count() uint64 {
	return m.n
}

// Build constructs an Mphf from every k-mer in reader, fanning the
// marking phase of each cascade level out across nThreads goroutines.
// The first pass (materializing fingerprints) is itself driven through
// an spmc.SpmcIter with nThreads consumers.
func Build(reader *kmerdb.Reader, nThreads int, gamma float64) (*Mphf, error) {
	if nThreads < 1 {
		nThreads = 1
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}
	sorts.MaxProcs = nThreads

	fps, seed, filter, err := collectFingerprints(reader, nThreads)
	if err != nil {
		return nil, err
	}

	m := &Mphf{seed: seed, n: uint64(len(fps)), filter: filter}

	var offset uint64
	remaining := fps
	for len(remaining) > 0 && len(m.levels) < maxLevels {
		size := uint64(math.Ceil(gamma * float64(len(remaining))))
		if size < 1 {
			size = 1
		}
		ls := levelSeed(seed, len(m.levels))

		occ := newBitset(size)
		coll := newBitset(size)
		markLevel(remaining, ls, size, nThreads, occ, coll)

		placed := andNot(occ, coll)
		r := buildRank(placed)

		m.levels = append(m.levels, level{size: size, bits: placed, rank: r, offset: offset})
		offset += r.total

		next := remaining[:0:0]
		for _, fp := range remaining {
			pos := slot(fp, ls, size)
			if !placed.test(pos) {
				next = append(next, fp)
			}
		}
		remaining = next
	}

	if len(remaining) > 0 {
		m.fallback = make(map[uint64]uint64, len(remaining))
		sortutil.Uint64s(remaining)
		for _, fp := range remaining {
			m.fallback[fp] = offset
			offset++
		}
	}

	return m, nil
}

// markLevel partitions fps across nThreads goroutines; each goroutine
// claims positions in occ via an atomic test-and-set, recording a
// collision whenever a position was already claimed (by this goroutine
// or another), per the standard BBHash level-construction step.
func markLevel(fps []uint64, seed, size uint64, nThreads int, occ, coll bitset) {
	chunk := (len(fps) + nThreads - 1) / nThreads
	if chunk < 1 {
		chunk = 1
	}
	var wg sync.WaitGroup
	for lo := 0; lo < len(fps); lo += chunk {
		hi := lo + chunk
		if hi > len(fps) {
			hi = len(fps)
		}
		wg.Add(1)
		go func(part []uint64) {
			defer wg.Done()
			for _, fp := range part {
				pos := slot(fp, seed, size)
				if !occ.setFirst(pos) {
					coll.setAtomic(pos)
				}
			}
		}(fps[lo:hi])
	}
	wg.Wait()
}

// Lookup returns km's index in [0, Count()) for a member of the training
// set. For any other k-mer the result is meaningless: an arbitrary index
// in range, or Count() itself when no level or fallback entry matches;
// use MayContain first if that is a possibility.
func (m *Mphf) Lookup(km cdbg.Kmer) uint64 {
	fp := fingerprint(km)
	for i := range m.levels {
		l := &m.levels[i]
		pos := slot(fp, levelSeed(m.seed, i), l.size)
		if l.bits.test(pos) {
			return l.offset + l.rank.rank(l.bits, pos)
		}
	}
	if idx, ok := m.fallback[fp]; ok {
		return idx
	}
	return m.n // out of range: definitely not a training-set member
}

// MayContain is a fast, false-positive-prone pre-check (backed by a
// Bloom filter recorded at Build time) for whether km was plausibly part
// of the training set. A false return is certain; a true return is not.
// The reference-driven classifier does not call it: it calls Lookup
// directly on every reference k-mer.
func (m *Mphf) MayContain(km cdbg.Kmer) bool {
	if m.filter == nil {
		return true
	}
	return m.filter.mayContain(fingerprint(km))
}

// collectFingerprints drains reader via nThreads spmc consumers into a
// flat fingerprint slice, recording each fingerprint into the sanity
// Bloom filter as it goes. Consumer order is irrelevant to the cascade.
func collectFingerprints(reader *kmerdb.Reader, nThreads int) ([]uint64, uint64, *sanityFilter, error) {
	it := spmc.New(reader, nThreads, 0)
	it.LaunchProduction()

	type partial struct {
		fps []uint64
	}
	results := make(chan partial, nThreads)
	var wg sync.WaitGroup
	for id := 0; id < nThreads; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			var fps []uint64
			for it.TasksExpected(id) {
				km, ok := it.ValueAt(id)
				if !ok {
					continue
				}
				fps = append(fps, fingerprint(km))
			}
			results <- partial{fps: fps}
		}(id)
	}
	wg.Wait()
	close(results)

	if err := it.SeizeProduction(); err != nil {
		return nil, 0, nil, err
	}

	var all []uint64
	for p := range results {
		all = append(all, p.fps...)
	}

	filter := newSanityFilter(len(all))
	for _, fp := range all {
		filter.add(fp)
	}

	const baseSeed = 0xAAAAAAAA55555555
	return all, uint64(baseSeed), filter, nil
}
