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

// Package kmerdb gives streaming access to a sorted, deduplicated on-disk
// canonical k-mer (or (k+1)-mer edge) database with exact cardinality
// known up-front. The database itself is produced by an external k-mer
// counter; this package only reads it (and, for tests and the
// validate/build fixtures, writes it).
package kmerdb

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"

	"github.com/cuttlefish-go/cdbg"
)

// Kind distinguishes a vertex database (canonical k-mers) from an edge
// database (canonical (k+1)-mers).
type Kind uint8

const (
	VertexDB Kind = iota
	EdgeDB
)

// MainVersion and MinorVersion are the on-disk format version.
const (
	MainVersion  uint8 = 1
	MinorVersion uint8 = 0
)

// Magic identifies a cdbg k-mer database file.
var Magic = [8]byte{'.', 'c', 'd', 'b', 'g', 'd', 'b', 0}

// ErrInvalidFormat means the magic number or header could not be parsed.
var ErrInvalidFormat = errors.New("kmerdb: invalid database format")

// ErrVersionMismatch means the file was written by an incompatible version.
var ErrVersionMismatch = errors.New("kmerdb: incompatible format version")

var be = binary.BigEndian

// Header is the fixed-size metadata block at the start of every database.
type Header struct {
	K     int
	Kind  Kind
	Flag  uint32
	Count uint64
}

// KmerLen returns k (the vertex length, regardless of Kind).
func (h Header) KmerLen() int {
	return h.K
}

// KmerCount returns the exact number of records in the database.
func (h Header) KmerCount() uint64 {
	return h.Count
}

// RecordWords is the number of 64-bit words each record occupies.
func (h Header) RecordWords() int {
	return (h.K + 31) / 32
}

// RecordBytes is the on-disk width in bytes of each record.
func (h Header) RecordBytes() int {
	return h.RecordWords() * 8
}

// RecordK returns the packed key length in bases: K for a vertex
// database, K+1 for an edge database.
func (h Header) RecordK() int {
	if h.Kind == EdgeDB {
		return h.K + 1
	}
	return h.K
}

// Reader sequentially reads Kmers (or (k+1)-mer edges, decoded the same
// way) from a database written by Writer.
type Reader struct {
	Header
	r   *bufio.Reader
	rc  io.Closer
	buf []byte
}

// Open opens the database at path, transparently decompressing gzip
// input via xopen.
func Open(path string) (*Reader, error) {
	xr, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "kmerdb: open %s", path)
	}
	rd, err := NewReader(xr)
	if err != nil {
		xr.Close()
		return nil, err
	}
	rd.rc = xr
	return rd, nil
}

// NewReader wraps an already-open stream, parsing its header.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{r: bufio.NewReaderSize(r, os.Getpagesize())}
	if err := rd.readHeader(); err != nil {
		return nil, err
	}
	rd.buf = make([]byte, rd.Header.RecordBytes())
	return rd, nil
}

func (rd *Reader) readHeader() error {
	var m [8]byte
	if _, err := io.ReadFull(rd.r, m[:]); err != nil {
		return errors.Wrap(err, "kmerdb: read magic")
	}
	if m != Magic {
		return ErrInvalidFormat
	}

	var meta [4]uint8
	if err := binary.Read(rd.r, be, &meta); err != nil {
		return errors.Wrap(err, "kmerdb: read header")
	}
	if meta[0] != MainVersion {
		return ErrVersionMismatch
	}

	var rest struct {
		Flag  uint32
		Count uint64
	}
	if err := binary.Read(rd.r, be, &rest); err != nil {
		return errors.Wrap(err, "kmerdb: read header")
	}

	rd.Header = Header{
		K:     int(meta[2]),
		Kind:  Kind(meta[3]),
		Flag:  rest.Flag,
		Count: rest.Count,
	}
	return nil
}

// ReadKmer reads one record, returning io.EOF once Count records have
// been consumed.
func (rd *Reader) ReadKmer() (cdbg.Kmer, error) {
	if _, err := io.ReadFull(rd.r, rd.buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return cdbg.Kmer{}, err
	}
	return DecodeRecord(rd.buf, rd.Header.RecordK()), nil
}

// ReadBlock reads up to len(buf)/RecordBytes() whole records into buf,
// returning the number of records actually read. buf's length should be
// a multiple of RecordBytes(); this is the low-level primitive spmc
// drives directly (one read per idle consumer slot), as opposed to
// ScanBlocks' single-goroutine whole-stream callback loop.
func (rd *Reader) ReadBlock(buf []byte) (int, error) {
	width := rd.Header.RecordBytes()
	n, err := io.ReadFull(rd.r, buf)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n / width, err
}

// ScanBlocks sequentially reads raw byte regions of up to recordsPerBlock
// serialized records and invokes fn with the region and the number of
// whole records it contains, all on the calling goroutine (the spmc
// producer uses ReadBlock instead); fn must not retain block past its
// call, as the buffer is reused.
func (rd *Reader) ScanBlocks(recordsPerBlock int, fn func(block []byte, n int) error) error {
	width := rd.Header.RecordBytes()
	block := make([]byte, width*recordsPerBlock)
	for {
		n, err := io.ReadFull(rd.r, block)
		whole := n / width
		if whole > 0 {
			if ferr := fn(block[:whole*width], whole); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "kmerdb: scan")
		}
	}
}

// Close releases any resources opened by Open.
func (rd *Reader) Close() error {
	if rd.rc != nil {
		return rd.rc.Close()
	}
	return nil
}

// DecodeRecord decodes one fixed-width big-endian record (recordK bases)
// from buf into a Kmer.
func DecodeRecord(buf []byte, recordK int) cdbg.Kmer {
	nw := (recordK + 31) / 32
	words := make([]uint64, nw)
	for i := 0; i < nw; i++ {
		words[i] = be.Uint64(buf[i*8 : i*8+8])
	}
	return cdbg.FromWords(recordK, words)
}

// Writer serializes Kmers (or (k+1)-mer edges) in the format Reader
// expects. Count must be known up-front: an external k-mer counter
// already knows the set size before this package is ever invoked.
type Writer struct {
	Header
	w  *bufio.Writer
	wc io.Closer
}

// Create opens path for writing (optionally gzip-compressed) and writes
// the header for a database of k, kind, and count records.
func Create(path string, k int, kind Kind, count uint64, gzip bool) (*Writer, error) {
	var wc io.WriteCloser
	var err error
	if gzip {
		wc, err = xopen.WopenGzip(path)
	} else {
		wc, err = xopen.Wopen(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "kmerdb: create %s", path)
	}
	w, err := NewWriter(wc, k, kind, count)
	if err != nil {
		wc.Close()
		return nil, err
	}
	w.wc = wc
	return w, nil
}

// NewWriter wraps an already-open stream and writes the header.
func NewWriter(w io.Writer, k int, kind Kind, count uint64) (*Writer, error) {
	wr := &Writer{
		Header: Header{K: k, Kind: kind, Count: count},
		w:      bufio.NewWriterSize(w, os.Getpagesize()),
	}
	if err := wr.writeHeader(); err != nil {
		return nil, err
	}
	return wr, nil
}

func (wr *Writer) writeHeader() error {
	if _, err := wr.w.Write(Magic[:]); err != nil {
		return errors.Wrap(err, "kmerdb: write magic")
	}
	meta := [4]uint8{MainVersion, MinorVersion, uint8(wr.Header.K), uint8(wr.Header.Kind)}
	if err := binary.Write(wr.w, be, meta); err != nil {
		return errors.Wrap(err, "kmerdb: write header")
	}
	rest := struct {
		Flag  uint32
		Count uint64
	}{wr.Header.Flag, wr.Header.Count}
	return errors.Wrap(binary.Write(wr.w, be, rest), "kmerdb: write header")
}

// WriteKmer appends one record. Callers must write exactly Count records
// and in sorted order; neither is enforced here (that is the external
// producer's contract), but ScanBlocks/Reader.ReadKmer assume both hold.
func (wr *Writer) WriteKmer(km cdbg.Kmer) error {
	for _, word := range km.Words() {
		if err := binary.Write(wr.w, be, word); err != nil {
			return errors.Wrap(err, "kmerdb: write record")
		}
	}
	return nil
}

// Close flushes buffered output and closes the underlying stream.
func (wr *Writer) Close() error {
	if err := wr.w.Flush(); err != nil {
		return errors.Wrap(err, "kmerdb: flush")
	}
	if wr.wc != nil {
		return wr.wc.Close()
	}
	return nil
}

// Exists reports whether a database exists at path.
func Exists(path string) (bool, error) {
	ok, err := pathutil.Exists(path)
	if err != nil {
		return false, errors.Wrapf(err, "kmerdb: exists %s", path)
	}
	return ok, nil
}

// Remove deletes the database at path, if it exists.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "kmerdb: remove %s", path)
	}
	return nil
}

// DatabaseSize returns the size in bytes of the database file at path.
func DatabaseSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrapf(err, "kmerdb: stat %s", path)
	}
	return fi.Size(), nil
}
