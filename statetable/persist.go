package statetable

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	gzip "github.com/klauspost/pgzip"
	"github.com/pkg/errors"
)

// magic identifies a serialized Table, following kmerdb's/mphf's own
// framing conventions (fixed magic, big-endian fixed-size header fields).
var magic = [8]byte{'.', 'c', 'd', 'b', 'g', 's', 't', 0}

var be = binary.BigEndian

// ErrInvalidFormat means the magic number or header could not be parsed.
var ErrInvalidFormat = errors.New("statetable: invalid state table format")

// Save serializes t to path, optionally gzip-compressed via
// klauspost/pgzip, so a multi-gigabyte table fits a reasonable file size
// when persisted for a later DCC-only rerun.
func Save(t *Table, path string, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "statetable: create %s", path)
	}
	defer f.Close()

	var w io.Writer = f
	var gw *gzip.Writer
	if compress {
		gw = gzip.NewWriter(f)
		w = gw
	}

	bw := bufio.NewWriterSize(w, os.Getpagesize())
	if err := writeTo(t, bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "statetable: flush")
	}
	if gw != nil {
		if err := gw.Close(); err != nil {
			return errors.Wrap(err, "statetable: close gzip writer")
		}
	}
	return nil
}

// Load deserializes a Table previously written by Save, transparently
// detecting gzip-compressed input.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "statetable: open %s", path)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, os.Getpagesize())
	peek, err := br.Peek(2)
	if err == nil && len(peek) == 2 && peek[0] == 0x1f && peek[1] == 0x8b {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "statetable: open gzip reader")
		}
		defer gr.Close()
		return readFrom(bufio.NewReaderSize(gr, os.Getpagesize()))
	}
	return readFrom(br)
}

func writeTo(t *Table, w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return errors.Wrap(err, "statetable: write magic")
	}
	if err := binary.Write(w, be, uint64(t.cellBits)); err != nil {
		return errors.Wrap(err, "statetable: write cellBits")
	}
	if err := binary.Write(w, be, t.nCells); err != nil {
		return errors.Wrap(err, "statetable: write nCells")
	}
	if err := binary.Write(w, be, uint64(len(t.words))); err != nil {
		return errors.Wrap(err, "statetable: write word count")
	}
	if err := binary.Write(w, be, t.words); err != nil {
		return errors.Wrap(err, "statetable: write words")
	}
	return nil
}

func readFrom(r io.Reader) (*Table, error) {
	var m [8]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, errors.Wrap(err, "statetable: read magic")
	}
	if m != magic {
		return nil, ErrInvalidFormat
	}

	var cellBits, nCells, nWords uint64
	if err := binary.Read(r, be, &cellBits); err != nil {
		return nil, errors.Wrap(err, "statetable: read cellBits")
	}
	if err := binary.Read(r, be, &nCells); err != nil {
		return nil, errors.Wrap(err, "statetable: read nCells")
	}
	if err := binary.Read(r, be, &nWords); err != nil {
		return nil, errors.Wrap(err, "statetable: read word count")
	}

	words := make([]uint64, nWords)
	if err := binary.Read(r, be, words); err != nil {
		return nil, errors.Wrap(err, "statetable: read words")
	}

	return &Table{
		cellBits: uint(cellBits),
		mask:     (uint64(1) << cellBits) - 1,
		nCells:   nCells,
		words:    words,
		locks:    NewSparseLock(nCells, 0),
	}, nil
}
