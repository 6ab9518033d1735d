package mphf

import (
	"encoding/binary"

	swnthash "github.com/shenwei356/nthash"
	"github.com/will-rowe/nthash"
	"github.com/zeebo/wyhash"

	"github.com/cuttlefish-go/cdbg"
)

// fingerprint collapses a k-mer to a single 64-bit value used as the key
// for every level's hash in the cascade. It combines the forward ntHash
// from will-rowe/nthash with the canonical ntHash from shenwei356/nthash
// — two independent implementations of the same rolling-hash family used
// elsewhere for k-mer sketching — so a single word carries more entropy
// than either alone.
func fingerprint(km cdbg.Kmer) uint64 {
	seq := km.Bytes()
	k := uint(km.K)

	var fwd, canon uint64
	if h, err := nthash.NewHasher(&seq, k); err == nil {
		fwd, _ = h.Next(false)
	}
	if h, err := swnthash.NewHasher(&seq, k); err == nil {
		canon, _ = h.Next(true)
	}
	return fwd ^ (canon*0x9E3779B97F4A7C15 + 0x2545F4914F6CDD1D)
}

// levelSeed derives the per-cascade-level reseed from the base seed.
func levelSeed(base uint64, level int) uint64 {
	return base + uint64(level+1)*0x2545F4914F6CDD1D
}

// slot hashes fp into [0, size) under seed, via wyhash — a fast
// general-purpose hash distinct from the biologically-tuned ntHash
// family, reseeded per level the way BBHash reseeds its internal mixer
// per cascade level.
func slot(fp, seed, size uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], fp)
	return wyhash.Hash(buf[:], seed) % size
}
