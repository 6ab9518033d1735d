package mphf

import (
	"encoding/binary"
	"io"

	boom "github.com/tylertreat/BoomFilters"
)

// falsePositiveRate governs the sanity Bloom filter's size; it trades a
// small amount of memory for confidence that MayContain rarely wastes a
// downstream Lookup on a key that was never in the training set.
const falsePositiveRate = 0.01

// sanityFilter wraps a scalable Bloom filter over k-mer fingerprints,
// used purely as a fast pre-check ahead of Mphf.Lookup (never as a
// substitute for it — Bloom filters have false positives, never false
// negatives, which is exactly the asymmetry MayContain promises).
type sanityFilter struct {
	f *boom.ScalableBloomFilter
}

func newSanityFilter(hint int) *sanityFilter {
	if hint < 1 {
		hint = 1
	}
	return &sanityFilter{f: boom.NewScalableBloomFilter(uint(hint), falsePositiveRate, 0.8)}
}

func (s *sanityFilter) add(fp uint64) {
	s.f.Add(fpBytes(fp))
}

func (s *sanityFilter) mayContain(fp uint64) bool {
	return s.f.Test(fpBytes(fp))
}

func fpBytes(fp uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], fp)
	return b[:]
}

func (s *sanityFilter) writeTo(w io.Writer) (int64, error) {
	return s.f.WriteTo(w)
}

func (s *sanityFilter) readFrom(r io.Reader) (int64, error) {
	s.f = &boom.ScalableBloomFilter{}
	return s.f.ReadFrom(r)
}
