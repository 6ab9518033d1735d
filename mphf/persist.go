package mphf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// magic identifies a serialized Mphf, following kmerdb's own framing
// conventions (fixed magic, big-endian fields).
var magic = [8]byte{'.', 'c', 'd', 'b', 'g', 'm', 'p', 'h'}

var be = binary.BigEndian

// ErrInvalidFormat means the magic number could not be parsed.
var ErrInvalidFormat = errors.New("mphf: invalid mphf file format")

// Save serializes m to path (optionally gzip-compressed).
func Save(m *Mphf, path string, gzip bool) error {
	var w io.WriteCloser
	var err error
	if gzip {
		w, err = xopen.WopenGzip(path)
	} else {
		w, err = xopen.Wopen(path)
	}
	if err != nil {
		return errors.Wrapf(err, "mphf: create %s", path)
	}
	defer w.Close()

	bw := bufio.NewWriterSize(w, os.Getpagesize())
	if err := writeTo(m, bw); err != nil {
		return err
	}
	return errors.Wrap(bw.Flush(), "mphf: flush")
}

// Load deserializes an Mphf previously written by Save.
func Load(path string) (*Mphf, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mphf: open %s", path)
	}
	defer r.Close()
	return readFrom(bufio.NewReaderSize(r, os.Getpagesize()))
}

func writeTo(m *Mphf, w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return errors.Wrap(err, "mphf: write magic")
	}
	if err := binary.Write(w, be, m.seed); err != nil {
		return errors.Wrap(err, "mphf: write seed")
	}
	if err := binary.Write(w, be, m.n); err != nil {
		return errors.Wrap(err, "mphf: write count")
	}
	if err := binary.Write(w, be, uint32(len(m.levels))); err != nil {
		return errors.Wrap(err, "mphf: write level count")
	}
	for _, l := range m.levels {
		if err := binary.Write(w, be, l.size); err != nil {
			return errors.Wrap(err, "mphf: write level size")
		}
		if err := binary.Write(w, be, l.offset); err != nil {
			return errors.Wrap(err, "mphf: write level offset")
		}
		if err := binary.Write(w, be, uint32(len(l.bits))); err != nil {
			return errors.Wrap(err, "mphf: write level word count")
		}
		if err := binary.Write(w, be, []uint64(l.bits)); err != nil {
			return errors.Wrap(err, "mphf: write level bits")
		}
	}

	if err := binary.Write(w, be, uint32(len(m.fallback))); err != nil {
		return errors.Wrap(err, "mphf: write fallback count")
	}
	for k, v := range m.fallback {
		if err := binary.Write(w, be, k); err != nil {
			return errors.Wrap(err, "mphf: write fallback key")
		}
		if err := binary.Write(w, be, v); err != nil {
			return errors.Wrap(err, "mphf: write fallback value")
		}
	}

	var fbuf bytes.Buffer
	if m.filter != nil {
		if _, err := m.filter.writeTo(&fbuf); err != nil {
			return errors.Wrap(err, "mphf: serialize sanity filter")
		}
	}
	if err := binary.Write(w, be, uint64(fbuf.Len())); err != nil {
		return errors.Wrap(err, "mphf: write sanity filter length")
	}
	_, err := w.Write(fbuf.Bytes())
	return errors.Wrap(err, "mphf: write sanity filter")
}

func readFrom(r io.Reader) (*Mphf, error) {
	var m [8]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, errors.Wrap(err, "mphf: read magic")
	}
	if m != magic {
		return nil, ErrInvalidFormat
	}

	out := &Mphf{}
	if err := binary.Read(r, be, &out.seed); err != nil {
		return nil, errors.Wrap(err, "mphf: read seed")
	}
	if err := binary.Read(r, be, &out.n); err != nil {
		return nil, errors.Wrap(err, "mphf: read count")
	}

	var numLevels uint32
	if err := binary.Read(r, be, &numLevels); err != nil {
		return nil, errors.Wrap(err, "mphf: read level count")
	}
	out.levels = make([]level, numLevels)
	for i := range out.levels {
		l := &out.levels[i]
		if err := binary.Read(r, be, &l.size); err != nil {
			return nil, errors.Wrap(err, "mphf: read level size")
		}
		if err := binary.Read(r, be, &l.offset); err != nil {
			return nil, errors.Wrap(err, "mphf: read level offset")
		}
		var nw uint32
		if err := binary.Read(r, be, &nw); err != nil {
			return nil, errors.Wrap(err, "mphf: read level word count")
		}
		l.bits = make(bitset, nw)
		if err := binary.Read(r, be, []uint64(l.bits)); err != nil {
			return nil, errors.Wrap(err, "mphf: read level bits")
		}
		l.rank = buildRank(l.bits)
	}

	var nFallback uint32
	if err := binary.Read(r, be, &nFallback); err != nil {
		return nil, errors.Wrap(err, "mphf: read fallback count")
	}
	if nFallback > 0 {
		out.fallback = make(map[uint64]uint64, nFallback)
		for i := uint32(0); i < nFallback; i++ {
			var k, v uint64
			if err := binary.Read(r, be, &k); err != nil {
				return nil, errors.Wrap(err, "mphf: read fallback key")
			}
			if err := binary.Read(r, be, &v); err != nil {
				return nil, errors.Wrap(err, "mphf: read fallback value")
			}
			out.fallback[k] = v
		}
	}

	var filterLen uint64
	if err := binary.Read(r, be, &filterLen); err != nil {
		return nil, errors.Wrap(err, "mphf: read sanity filter length")
	}
	if filterLen > 0 {
		buf := make([]byte, filterLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrap(err, "mphf: read sanity filter")
		}
		sf := &sanityFilter{}
		if _, err := sf.readFrom(bytes.NewReader(buf)); err != nil {
			return nil, errors.Wrap(err, "mphf: parse sanity filter")
		}
		out.filter = sf
	}

	return out, nil
}
