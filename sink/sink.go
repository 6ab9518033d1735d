// Package sink gives every unitig-emitting worker a single, serialized
// output capability, whether the destination is a plain file or a
// gzip-compressed one.
package sink

import (
	"bufio"
	"io"
	"os"
	"sync"

	gzip "github.com/klauspost/pgzip"
	"github.com/pkg/errors"
)

// Sink is the minimal capability set a unitig-extraction worker needs:
// append bytes, and make them durable. Multiple workers may hold the
// same Sink concurrently; Write serializes them.
type Sink interface {
	Write(p []byte) (int, error)
	Flush() error
	Close() error
}

// fileSink writes to an *os.File, optionally gzip-compressed, under a
// shared mutex so concurrent workers' writes never interleave mid-record.
type fileSink struct {
	mu  sync.Mutex
	bw  *bufio.Writer
	gz  io.WriteCloser // non-nil only when compressing
	f   *os.File
}

// Open creates path for writing, optionally gzip-compressed via
// klauspost/pgzip.
func Open(path string, gzipped bool) (Sink, error) {
	var f *os.File
	var err error
	if path == "-" {
		f = os.Stdout
	} else {
		f, err = os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "sink: create %s", path)
		}
	}

	s := &fileSink{f: f}
	if gzipped {
		gw := gzip.NewWriter(f)
		s.gz = gw
		s.bw = bufio.NewWriterSize(gw, os.Getpagesize())
	} else {
		s.bw = bufio.NewWriterSize(f, os.Getpagesize())
	}
	return s, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.bw.Write(p)
	return n, errors.Wrap(err, "sink: write")
}

func (s *fileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(s.bw.Flush(), "sink: flush")
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bw.Flush(); err != nil {
		return errors.Wrap(err, "sink: flush")
	}
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			return errors.Wrap(err, "sink: close gzip writer")
		}
	}
	if s.f == os.Stdout {
		return nil
	}
	return errors.Wrap(s.f.Close(), "sink: close file")
}
