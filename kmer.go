// Copyright © 2018 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cdbg

// MaxK is the largest supported k-mer length. k must additionally be odd
// so that no k-mer equals its own reverse complement (I7).
const MaxK = 63

// basesPerWord is the number of 2-bit bases packed into one uint64 word.
const basesPerWord = 32

// bit2base maps a 2-bit code to its ASCII base.
var bit2base = [4]byte{'A', 'C', 'G', 'T'}

// baseCode encodes a single ASCII base (upper or lower case) to its 2-bit
// value. Unlike the degenerate-base folding some k-mer toolkits apply on
// ingestion, this returns ErrIllegalBase for anything outside A/C/G/T so
// that callers windowing reads can correctly treat such bytes as run
// breaks (see FoldDegenerate for the relaxed alternative).
func baseCode(b byte) (uint64, error) {
	switch b {
	case 'A', 'a':
		return 0, nil
	case 'C', 'c':
		return 1, nil
	case 'G', 'g':
		return 2, nil
	case 'T', 't':
		return 3, nil
	default:
		return 0, ErrIllegalBase
	}
}

// FoldDegenerate folds an IUPAC degenerate base down to its first listed
// unambiguous base. It exists for callers that want lossy relaxed
// ingestion; ParseKmer itself never folds and instead treats any
// non-ACGT byte as a run break.
func FoldDegenerate(b byte) (byte, bool) {
	switch b {
	case 'A', 'a', 'M', 'm', 'V', 'v', 'H', 'h', 'R', 'r', 'D', 'd', 'W', 'w', 'N', 'n':
		return 'A', true
	case 'C', 'c', 'S', 's', 'B', 'b', 'Y', 'y':
		return 'C', true
	case 'G', 'g', 'K', 'k':
		return 'G', true
	case 'T', 't', 'U', 'u':
		return 'T', true
	default:
		return 0, false
	}
}

// wordCount returns the number of 64-bit words needed to pack k bases.
func wordCount(k int) int {
	return (k + basesPerWord - 1) / basesPerWord
}

// topBases returns how many bases the most-significant (first) word of a
// k-length packing holds; every other word holds exactly basesPerWord.
func topBases(k, nw int) int {
	return k - basesPerWord*(nw-1)
}

// Kmer is a 2-bit packed DNA k-mer of up to MaxK bases, stored as a
// sequence of 64-bit words, most-significant base first within a word
// and across words, supporting k > 32 via ⌈k/32⌉ words.
type Kmer struct {
	K     int
	words []uint64
}

// ParseKmer parses k contiguous ASCII bases starting at offset in src.
// Any byte outside {A,C,G,T} (case-insensitive) returns ErrIllegalBase;
// callers windowing a longer sequence should treat that as a run break
// rather than retrying.
func ParseKmer(src []byte, offset, k int) (Kmer, error) {
	if k < 1 || k > MaxK || k%2 == 0 {
		return Kmer{}, ErrKOverflow
	}
	if offset < 0 || offset+k > len(src) {
		return Kmer{}, ErrShortInput
	}

	nw := wordCount(k)
	km := Kmer{K: k, words: make([]uint64, nw)}
	tb := topBases(k, nw)

	for i := 0; i < k; i++ {
		code, err := baseCode(src[offset+i])
		if err != nil {
			return Kmer{}, err
		}
		km.setBaseAt(i, code, tb)
	}
	return km, nil
}

// setBaseAt writes the 2-bit code of the i-th base (0 = leftmost/5', i.e.
// most significant) into the packed representation.
func (km *Kmer) setBaseAt(i int, code uint64, tb int) {
	if i < tb {
		shift := uint(2 * (tb - 1 - i))
		km.words[0] |= code << shift
		return
	}
	i -= tb
	wi := 1 + i/basesPerWord
	j := i % basesPerWord
	shift := uint(2 * (basesPerWord - 1 - j))
	km.words[wi] |= code << shift
}

// baseAt reads the 2-bit code of the i-th base (0 = leftmost/5').
func (km Kmer) baseAt(i int) uint64 {
	nw := len(km.words)
	tb := topBases(km.K, nw)
	if i < tb {
		shift := uint(2 * (tb - 1 - i))
		return (km.words[0] >> shift) & 3
	}
	i -= tb
	wi := 1 + i/basesPerWord
	j := i % basesPerWord
	shift := uint(2 * (basesPerWord - 1 - j))
	return (km.words[wi] >> shift) & 3
}

func fullMask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

// ReverseComplement returns the reverse complement of km.
func (km Kmer) ReverseComplement() Kmer {
	out := Kmer{K: km.K, words: make([]uint64, len(km.words))}
	tb := topBases(km.K, len(km.words))
	for i := 0; i < km.K; i++ {
		out.setBaseAt(km.K-1-i, km.baseAt(i)^3, tb)
	}
	return out
}

// Compare returns -1, 0, or 1 as km is less than, equal to, or greater
// than other, comparing words most-significant first. The result is only
// meaningful for two Kmers of the same K.
func (km Kmer) Compare(other Kmer) int {
	for i := range km.words {
		if km.words[i] != other.words[i] {
			if km.words[i] < other.words[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Equal reports whether km and other pack the same K and bases.
func (km Kmer) Equal(other Kmer) bool {
	return km.K == other.K && km.Compare(other) == 0
}

// Less reports whether km sorts before other (for sort.Interface-style use).
func (km Kmer) Less(other Kmer) bool {
	return km.Compare(other) < 0
}

// Canonical returns the lexicographically smaller of km and its reverse
// complement (I7: well-defined since k is odd).
func (km Kmer) Canonical() Kmer {
	rc := km.ReverseComplement()
	if rc.Compare(km) < 0 {
		return rc
	}
	return km
}

// IsCanonical reports whether km is already in canonical form.
func (km Kmer) IsCanonical() bool {
	return km.ReverseComplement().Compare(km) >= 0
}

// RollForward returns the k-mer obtained by dropping km's leftmost base
// and appending base at the right end, together with the correspondingly
// rolled reverse complement of revCompl, updated in lock-step rather
// than recomputed from scratch.
func (km Kmer) RollForward(base byte, revCompl Kmer) (next, nextRevCompl Kmer, err error) {
	code, err := baseCode(base)
	if err != nil {
		return Kmer{}, Kmer{}, err
	}
	return km.shiftLeft(code), revCompl.shiftRight(code ^ 3), nil
}

// RollBackward returns the k-mer obtained by dropping km's rightmost base
// and prepending base at the left end, with revCompl rolled symmetrically.
func (km Kmer) RollBackward(base byte, revCompl Kmer) (prev, prevRevCompl Kmer, err error) {
	code, err := baseCode(base)
	if err != nil {
		return Kmer{}, Kmer{}, err
	}
	return km.shiftRight(code), revCompl.shiftLeft(code ^ 3), nil
}

// shiftLeft shifts the packed value left by one base (2 bits), discarding
// the leftmost base and inserting newBase's code at the right.
func (km Kmer) shiftLeft(newBase uint64) Kmer {
	nw := len(km.words)
	out := make([]uint64, nw)
	for i := 0; i < nw-1; i++ {
		out[i] = (km.words[i] << 2) | (km.words[i+1] >> 62)
	}
	out[nw-1] = (km.words[nw-1] << 2) | newBase
	tb := topBases(km.K, nw)
	out[0] &= fullMask(2 * tb)
	return Kmer{K: km.K, words: out}
}

// shiftRight shifts the packed value right by one base (2 bits),
// discarding the rightmost base and inserting newBase's code at the left.
func (km Kmer) shiftRight(newBase uint64) Kmer {
	nw := len(km.words)
	out := make([]uint64, nw)
	for i := nw - 1; i >= 1; i-- {
		out[i] = (km.words[i] >> 2) | ((km.words[i-1] & 3) << 62)
	}
	tb := topBases(km.K, nw)
	out[0] = (km.words[0] >> 2) | (newBase << uint(2*tb-2))
	return Kmer{K: km.K, words: out}
}

// Bytes returns the ASCII expansion of km.
func (km Kmer) Bytes() []byte {
	out := make([]byte, km.K)
	for i := 0; i < km.K; i++ {
		out[i] = bit2base[km.baseAt(i)]
	}
	return out
}

// String returns the ASCII expansion of km.
func (km Kmer) String() string {
	return string(km.Bytes())
}

// Words exposes the packed word array (read-only use: the length is
// ⌈K/32⌉, most-significant word first). It is used by statetable/mphf
// hashing and by kmerdb's fixed-width on-disk framing.
func (km Kmer) Words() []uint64 {
	return km.words
}

// FromWords reconstructs a Kmer from its packed word representation, as
// produced by Words and by kmerdb's record decoding.
func FromWords(k int, words []uint64) Kmer {
	w := make([]uint64, len(words))
	copy(w, words)
	return Kmer{K: k, words: w}
}

// DirectedKmer pairs a canonical k-mer with the orientation under which
// it was observed in a read or reference.
type DirectedKmer struct {
	Canon   Kmer
	Forward bool // true iff Canon (not its reverse complement) was read directly
}

// Label returns the directed k-mer's actual (as-observed) sequence.
func (d DirectedKmer) Label() string {
	if d.Forward {
		return d.Canon.String()
	}
	return d.Canon.ReverseComplement().String()
}
